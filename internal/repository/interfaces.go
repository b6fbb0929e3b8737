package repository

import (
	"context"
	"errors"

	"github.com/calegray/manse/internal/domain"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

type InstanceRepo interface {
	Create(ctx context.Context, i *domain.RoomInstance) error
	GetByID(ctx context.Context, id string) (*domain.RoomInstance, error)
	List(ctx context.Context, limit int) ([]*domain.RoomInstance, error)
	ListActive(ctx context.Context) ([]*domain.RoomInstance, error)
	Update(ctx context.Context, i *domain.RoomInstance) error
	Delete(ctx context.Context, id string) error
}

type SessionRepo interface {
	Create(ctx context.Context, s *domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	GetOpen(ctx context.Context) (*domain.Session, error)
	ListByInstance(ctx context.Context, instanceID string) ([]*domain.Session, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.Session, error)
	Update(ctx context.Context, s *domain.Session) error
}

type PlannedSessionRepo interface {
	Create(ctx context.Context, p *domain.PlannedSession) error
	GetByID(ctx context.Context, id string) (*domain.PlannedSession, error)
	ListUpcoming(ctx context.Context, limit int) ([]*domain.PlannedSession, error)
	Update(ctx context.Context, p *domain.PlannedSession) error
	Delete(ctx context.Context, id string) error
}

type RecurringBlockRepo interface {
	Create(ctx context.Context, b *domain.RecurringBlock) error
	GetByID(ctx context.Context, id string) (*domain.RecurringBlock, error)
	List(ctx context.Context, activeOnly bool) ([]*domain.RecurringBlock, error)
	ListBySeason(ctx context.Context, seasonID string) ([]*domain.RecurringBlock, error)
	Update(ctx context.Context, b *domain.RecurringBlock) error
	Delete(ctx context.Context, id string) error
}

type SeasonRepo interface {
	Create(ctx context.Context, s *domain.Season) error
	GetByID(ctx context.Context, id string) (*domain.Season, error)
	List(ctx context.Context) ([]*domain.Season, error)
	Delete(ctx context.Context, id string) error
}
