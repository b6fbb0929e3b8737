package service

import (
	"context"
	"testing"
	"time"

	"github.com/calegray/manse/internal/catalogue"
	"github.com/calegray/manse/internal/domain"
	"github.com/calegray/manse/internal/repository"
	"github.com/calegray/manse/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduleService(t *testing.T) (ScheduleService, repository.RecurringBlockRepo, repository.SeasonRepo) {
	t.Helper()
	database := testutil.NewTestDB(t)
	planned := repository.NewSQLitePlannedSessionRepo(database)
	blocks := repository.NewSQLiteRecurringBlockRepo(database)
	seasons := repository.NewSQLiteSeasonRepo(database)
	cat, err := catalogue.Load()
	require.NoError(t, err)
	return NewScheduleService(planned, blocks, seasons, cat, nil), blocks, seasons
}

func TestScheduleService_BlockAdherenceCycle(t *testing.T) {
	svc, blocks, _ := newTestScheduleService(t)
	ctx := context.Background()

	b := testutil.NewTestBlock("025", "Rough Bench")
	require.NoError(t, svc.CreateBlock(ctx, b))

	require.NoError(t, svc.CompleteBlock(ctx, b.ID))
	require.NoError(t, svc.CompleteBlock(ctx, b.ID))
	require.NoError(t, svc.MissBlock(ctx, b.ID))

	got, err := blocks.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CompletedCount)
	assert.Equal(t, 1, got.MissedCount)
	assert.InDelta(t, 2.0/3.0, got.AdherenceRate(), 1e-9)
	assert.False(t, got.IsStruggling())
	require.NotNil(t, got.LastCompleted)
}

func TestScheduleService_CreateBlockValidation(t *testing.T) {
	svc, _, _ := newTestScheduleService(t)
	ctx := context.Background()

	bad := testutil.NewTestBlock("999", "Nowhere")
	assert.ErrorIs(t, svc.CreateBlock(ctx, bad), repository.ErrNotFound)

	badDay := testutil.NewTestBlock("025", "Rough Bench", testutil.WithSlot(0, 9, 0))
	assert.Error(t, svc.CreateBlock(ctx, badDay))
}

func TestScheduleService_WingAdherence(t *testing.T) {
	svc, _, _ := newTestScheduleService(t)
	ctx := context.Background()

	// Two blocks in the Machine Shop (rooms 025-036), one in the Library.
	forge := testutil.NewTestBlock("025", "Rough Bench", testutil.WithAdherence(3, 1))
	lathe := testutil.NewTestBlock("030", "Turning Corner", testutil.WithAdherence(1, 5))
	carrel := testutil.NewTestBlock("013", "Deep Carrel")
	require.NoError(t, svc.CreateBlock(ctx, forge))
	require.NoError(t, svc.CreateBlock(ctx, lathe))
	require.NoError(t, svc.CreateBlock(ctx, carrel))

	rollup, err := svc.WingAdherence(ctx)
	require.NoError(t, err)
	require.Len(t, rollup, 2)

	byWing := make(map[domain.WingName]WingAdherence)
	for _, w := range rollup {
		byWing[w.Wing] = w
	}

	lib := byWing[domain.WingLibrary]
	assert.Equal(t, 1, lib.BlockCount)
	assert.InDelta(t, 1.0, lib.AdherenceRate, 1e-9, "no data means full adherence")
	assert.Empty(t, lib.Struggling)

	shop := byWing[domain.WingMachineShop]
	assert.Equal(t, 2, shop.BlockCount)
	assert.InDelta(t, 4.0/10.0, shop.AdherenceRate, 1e-9)
	require.Len(t, shop.Struggling, 1)
	assert.Equal(t, lathe.ID, shop.Struggling[0].ID)
}

func TestScheduleService_ApplySeasonProposal(t *testing.T) {
	svc, blocks, seasons := newTestScheduleService(t)
	ctx := context.Background()

	start := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	proposal := domain.FullSeasonProposal{
		Season: domain.Season{
			Name:        "Winter Forge",
			PrimaryWing: domain.WingMachineShop,
			StartDate:   start,
			EndDate:     start.AddDate(0, 0, 12*7),
			FocusRooms:  []string{"Rough Bench", "Turning Corner"},
		},
		Blocks: []domain.RecurringBlock{
			*testutil.NewTestBlock("025", "Rough Bench", testutil.WithSlot(2, 7, 0)),
			*testutil.NewTestBlock("030", "Turning Corner", testutil.WithSlot(5, 18, 30)),
		},
	}

	result, err := svc.ApplySeasonProposal(ctx, proposal)
	require.NoError(t, err)
	assert.Equal(t, 2, result.BlocksCreated)
	assert.Zero(t, result.BlocksFailed)
	assert.Equal(t, 84, result.Season.DurationDays())

	stored, err := seasons.GetByID(ctx, result.Season.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WingMachineShop, stored.PrimaryWing)

	linked, err := blocks.ListBySeason(ctx, result.Season.ID)
	require.NoError(t, err)
	require.Len(t, linked, 2)
	for _, b := range linked {
		require.NotNil(t, b.SeasonID)
		assert.Equal(t, result.Season.ID, *b.SeasonID)
	}
}

func TestScheduleService_ApplySeasonPartialFailure(t *testing.T) {
	svc, blocks, seasons := newTestScheduleService(t)
	ctx := context.Background()

	good := testutil.NewTestBlock("025", "Rough Bench")
	// Out-of-range hour trips the schema check; the write fails but the
	// season and the good block stay committed.
	bad := testutil.NewTestBlock("030", "Turning Corner")
	bad.StartHour = 99

	start := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	proposal := domain.FullSeasonProposal{
		Season: domain.Season{
			Name:        "Winter Forge",
			PrimaryWing: domain.WingMachineShop,
			StartDate:   start,
			EndDate:     start.AddDate(0, 0, 84),
		},
		Blocks: []domain.RecurringBlock{*good, *bad},
	}

	result, err := svc.ApplySeasonProposal(ctx, proposal)
	require.NoError(t, err)
	assert.Equal(t, 1, result.BlocksCreated)
	assert.Equal(t, 1, result.BlocksFailed)

	_, err = seasons.GetByID(ctx, result.Season.ID)
	require.NoError(t, err)
	linked, err := blocks.ListBySeason(ctx, result.Season.ID)
	require.NoError(t, err)
	assert.Len(t, linked, 1)
}

func TestScheduleService_ActiveSeason(t *testing.T) {
	svc, _, seasons := newTestScheduleService(t)
	ctx := context.Background()

	past := testutil.NewTestSeason("Past", domain.WingLibrary,
		testutil.WithSeasonWindow(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 4))
	current := testutil.NewTestSeason("Current", domain.WingSanctum,
		testutil.WithSeasonWindow(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), 12))
	require.NoError(t, seasons.Create(ctx, past))
	require.NoError(t, seasons.Create(ctx, current))

	got, err := svc.ActiveSeason(ctx, time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, current.ID, got.ID)

	_, err = svc.ActiveSeason(ctx, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestScheduleService_PlannedDefaults(t *testing.T) {
	svc, _, _ := newTestScheduleService(t)
	ctx := context.Background()

	p := &domain.PlannedSession{
		DefinitionID:  "013",
		RoomName:      "Deep Carrel",
		ScheduledDate: time.Now().UTC().AddDate(0, 0, 3),
	}
	require.NoError(t, svc.PlanSession(ctx, p))
	require.NotEmpty(t, p.ID)

	upcoming, err := svc.ListUpcoming(ctx, 10)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, 30, upcoming[0].DurationMinutes)

	require.NoError(t, svc.CompletePlanned(ctx, p.ID))
	upcoming, err = svc.ListUpcoming(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, upcoming, "completed plans drop out of the upcoming list")
}
