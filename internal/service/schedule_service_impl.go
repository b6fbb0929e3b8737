package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/calegray/manse/internal/catalogue"
	"github.com/calegray/manse/internal/domain"
	"github.com/calegray/manse/internal/repository"
	"github.com/google/uuid"
)

type scheduleService struct {
	planned   repository.PlannedSessionRepo
	blocks    repository.RecurringBlockRepo
	seasons   repository.SeasonRepo
	catalogue *catalogue.Catalogue
	observer  UseCaseObserver
}

func NewScheduleService(planned repository.PlannedSessionRepo, blocks repository.RecurringBlockRepo, seasons repository.SeasonRepo, cat *catalogue.Catalogue, observer UseCaseObserver) ScheduleService {
	if observer == nil {
		observer = NoopUseCaseObserver{}
	}
	return &scheduleService{
		planned:   planned,
		blocks:    blocks,
		seasons:   seasons,
		catalogue: cat,
		observer:  observer,
	}
}

func (s *scheduleService) PlanSession(ctx context.Context, p *domain.PlannedSession) error {
	if _, ok := s.catalogue.ByID(p.DefinitionID); !ok {
		return fmt.Errorf("room definition %q: %w", p.DefinitionID, repository.ErrNotFound)
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.CreatedAt = time.Now().UTC()
	return s.planned.Create(ctx, p)
}

func (s *scheduleService) CompletePlanned(ctx context.Context, id string) error {
	p, err := s.planned.GetByID(ctx, id)
	if err != nil {
		return err
	}
	p.IsCompleted = true
	return s.planned.Update(ctx, p)
}

func (s *scheduleService) ListUpcoming(ctx context.Context, limit int) ([]*domain.PlannedSession, error) {
	if limit <= 0 {
		limit = 500
	}
	return s.planned.ListUpcoming(ctx, limit)
}

func (s *scheduleService) CreateBlock(ctx context.Context, b *domain.RecurringBlock) error {
	if _, ok := s.catalogue.ByID(b.DefinitionID); !ok {
		return fmt.Errorf("room definition %q: %w", b.DefinitionID, repository.ErrNotFound)
	}
	if b.DayOfWeek < 1 || b.DayOfWeek > 7 {
		return fmt.Errorf("day of week must be 1..7, got %d", b.DayOfWeek)
	}
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	return s.blocks.Create(ctx, b)
}

// CompleteBlock records one kept appointment. There is no clock-driven miss
// detection; both counters move only through these explicit calls.
func (s *scheduleService) CompleteBlock(ctx context.Context, id string) error {
	b, err := s.blocks.GetByID(ctx, id)
	if err != nil {
		return err
	}
	b.MarkCompleted(time.Now().UTC())
	return s.blocks.Update(ctx, b)
}

func (s *scheduleService) MissBlock(ctx context.Context, id string) error {
	b, err := s.blocks.GetByID(ctx, id)
	if err != nil {
		return err
	}
	b.MarkMissed(time.Now().UTC())
	return s.blocks.Update(ctx, b)
}

func (s *scheduleService) ListBlocks(ctx context.Context, activeOnly bool) ([]*domain.RecurringBlock, error) {
	return s.blocks.List(ctx, activeOnly)
}

// WingAdherence groups active blocks by the wing of their room definition
// and derives per-wing totals at read time.
func (s *scheduleService) WingAdherence(ctx context.Context) ([]WingAdherence, error) {
	blocks, err := s.blocks.List(ctx, true)
	if err != nil {
		return nil, err
	}

	byWing := make(map[domain.WingName]*WingAdherence)
	for _, b := range blocks {
		wing, ok := s.catalogue.WingOf(b.DefinitionID)
		if !ok {
			continue
		}
		agg := byWing[wing]
		if agg == nil {
			agg = &WingAdherence{Wing: wing}
			byWing[wing] = agg
		}
		agg.BlockCount++
		agg.CompletedCount += b.CompletedCount
		agg.MissedCount += b.MissedCount
		if b.IsStruggling() {
			agg.Struggling = append(agg.Struggling, b)
		}
	}

	out := make([]WingAdherence, 0, len(byWing))
	for _, agg := range byWing {
		total := agg.CompletedCount + agg.MissedCount
		if total == 0 {
			agg.AdherenceRate = 1.0
		} else {
			agg.AdherenceRate = float64(agg.CompletedCount) / float64(total)
		}
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Wing < out[j].Wing })
	return out, nil
}

// ApplySeasonProposal materializes a pending proposal: one season write,
// then one write per block linked by season id. Block writes are best
// effort; a failure is counted and the remaining blocks still attempt.
func (s *scheduleService) ApplySeasonProposal(ctx context.Context, proposal domain.FullSeasonProposal) (*SeasonApplyResult, error) {
	started := time.Now()
	result, err := s.applySeasonProposal(ctx, proposal)
	fields := map[string]any{"season": proposal.Season.Name, "blocks": len(proposal.Blocks)}
	observe(ctx, s.observer, "season.apply", started, err, fields)
	return result, err
}

func (s *scheduleService) applySeasonProposal(ctx context.Context, proposal domain.FullSeasonProposal) (*SeasonApplyResult, error) {
	season := proposal.Season
	if !domain.ValidWingNames[string(season.PrimaryWing)] {
		return nil, fmt.Errorf("unknown wing: %s", season.PrimaryWing)
	}
	if season.ID == "" {
		season.ID = uuid.New().String()
	}
	season.CreatedAt = time.Now().UTC()
	if err := s.seasons.Create(ctx, &season); err != nil {
		return nil, fmt.Errorf("creating season: %w", err)
	}

	result := &SeasonApplyResult{Season: &season}
	now := time.Now().UTC()
	for i := range proposal.Blocks {
		b := proposal.Blocks[i]
		if b.ID == "" {
			b.ID = uuid.New().String()
		}
		b.SeasonID = &season.ID
		b.IsActive = true
		b.CreatedAt = now
		b.UpdatedAt = now
		if err := s.blocks.Create(ctx, &b); err != nil {
			result.BlocksFailed++
			continue
		}
		result.BlocksCreated++
	}
	return result, nil
}

func (s *scheduleService) ListSeasons(ctx context.Context) ([]*domain.Season, error) {
	return s.seasons.List(ctx)
}

// ActiveSeason returns the season whose window contains now, or ErrNotFound.
func (s *scheduleService) ActiveSeason(ctx context.Context, now time.Time) (*domain.Season, error) {
	seasons, err := s.seasons.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, season := range seasons {
		if season.IsActiveAt(now) {
			return season, nil
		}
	}
	return nil, fmt.Errorf("active season: %w", repository.ErrNotFound)
}
