package service

import (
	"context"
	"testing"

	"github.com/calegray/manse/internal/catalogue"
	"github.com/calegray/manse/internal/domain"
	"github.com/calegray/manse/internal/repository"
	"github.com/calegray/manse/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInstanceService(t *testing.T) (InstanceService, repository.InstanceRepo) {
	t.Helper()
	database := testutil.NewTestDB(t)
	instances := repository.NewSQLiteInstanceRepo(database)
	cat, err := catalogue.Load()
	require.NoError(t, err)
	return NewInstanceService(instances, cat, nil), instances
}

func TestInstanceService_CreateValidates(t *testing.T) {
	svc, _ := newTestInstanceService(t)
	ctx := context.Background()

	unknown := &domain.RoomInstance{DefinitionID: "999", VariantName: "Nowhere"}
	assert.ErrorIs(t, svc.Create(ctx, unknown), repository.ErrNotFound)

	i := &domain.RoomInstance{
		DefinitionID:     "013",
		VariantName:      "Balcony Chair",
		FamiliarityScore: 1.7,
		HealthScore:      -0.2,
	}
	require.NoError(t, svc.Create(ctx, i))
	assert.NotEmpty(t, i.ID)
	assert.Equal(t, 1.0, i.FamiliarityScore)
	assert.Equal(t, 0.0, i.HealthScore)
	assert.Equal(t, domain.FrictionLow, i.CurrentFriction)
}

func TestInstanceService_ActivateFlipsOthers(t *testing.T) {
	svc, instances := newTestInstanceService(t)
	ctx := context.Background()

	a := testutil.NewTestInstance("001", "Morning Mat", testutil.WithActive())
	b := testutil.NewTestInstance("013", "Balcony Chair")
	require.NoError(t, instances.Create(ctx, a))
	require.NoError(t, instances.Create(ctx, b))

	require.NoError(t, svc.Activate(ctx, b.ID))

	active, err := instances.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, b.ID, active[0].ID)

	// Re-activating the already-active instance is a no-op flip.
	require.NoError(t, svc.Activate(ctx, b.ID))
	active, err = instances.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
}

func TestInstanceService_AddObservation(t *testing.T) {
	svc, instances := newTestInstanceService(t)
	ctx := context.Background()

	i := testutil.NewTestInstance("013", "Balcony Chair")
	require.NoError(t, instances.Create(ctx, i))

	require.NoError(t, svc.AddObservation(ctx, i.ID, "good light after four"))
	require.NoError(t, svc.AddObservation(ctx, i.ID, "needs a lamp"))

	got, err := instances.GetByID(ctx, i.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"good light after four", "needs a lamp"}, got.Observations)
}

func TestInstanceService_DeleteKeepsHistory(t *testing.T) {
	svc, instances := newTestInstanceService(t)
	ctx := context.Background()

	i := testutil.NewTestInstance("013", "Balcony Chair")
	require.NoError(t, instances.Create(ctx, i))
	require.NoError(t, svc.Delete(ctx, i.ID))

	_, err := instances.GetByID(ctx, i.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
