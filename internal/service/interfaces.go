package service

import (
	"context"
	"time"

	"github.com/calegray/manse/internal/domain"
)

type InstanceService interface {
	Create(ctx context.Context, i *domain.RoomInstance) error
	GetByID(ctx context.Context, id string) (*domain.RoomInstance, error)
	List(ctx context.Context, limit int) ([]*domain.RoomInstance, error)
	Update(ctx context.Context, i *domain.RoomInstance) error
	Delete(ctx context.Context, id string) error
	Activate(ctx context.Context, id string) error
	AddObservation(ctx context.Context, id string, note string) error
}

// WingAdherence is the read-time adherence rollup for one wing.
type WingAdherence struct {
	Wing           domain.WingName
	BlockCount     int
	CompletedCount int
	MissedCount    int
	AdherenceRate  float64
	Struggling     []*domain.RecurringBlock
}

// SeasonApplyResult reports the outcome of materializing a season proposal.
// Block writes are best effort: a failed block is counted and skipped, the
// season and earlier blocks stay committed.
type SeasonApplyResult struct {
	Season        *domain.Season
	BlocksCreated int
	BlocksFailed  int
}

type ScheduleService interface {
	PlanSession(ctx context.Context, p *domain.PlannedSession) error
	CompletePlanned(ctx context.Context, id string) error
	ListUpcoming(ctx context.Context, limit int) ([]*domain.PlannedSession, error)

	CreateBlock(ctx context.Context, b *domain.RecurringBlock) error
	CompleteBlock(ctx context.Context, id string) error
	MissBlock(ctx context.Context, id string) error
	ListBlocks(ctx context.Context, activeOnly bool) ([]*domain.RecurringBlock, error)
	WingAdherence(ctx context.Context) ([]WingAdherence, error)

	ApplySeasonProposal(ctx context.Context, proposal domain.FullSeasonProposal) (*SeasonApplyResult, error)
	ListSeasons(ctx context.Context) ([]*domain.Season, error)
	ActiveSeason(ctx context.Context, now time.Time) (*domain.Season, error)
}

// NarrativeGenerator produces entry and exit transition text for a room.
// Implementations are expected to be slow; the session engine calls them
// from a goroutine and falls back to fixed text on error.
type NarrativeGenerator interface {
	EntryText(ctx context.Context, instance *domain.RoomInstance) (string, error)
	ExitText(ctx context.Context, instance *domain.RoomInstance, minutes int) (string, error)
}

// TranscriptResetter clears session-scoped chat state when a session
// finalizes.
type TranscriptResetter interface {
	Reset()
}
