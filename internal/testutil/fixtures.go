package testutil

import (
	"time"

	"github.com/calegray/manse/internal/domain"
	"github.com/google/uuid"
)

// RoomInstance options
type InstanceOption func(*domain.RoomInstance)

func WithFamiliarity(score float64) InstanceOption {
	return func(i *domain.RoomInstance) {
		i.FamiliarityScore = score
	}
}

func WithHealth(score float64) InstanceOption {
	return func(i *domain.RoomInstance) {
		i.HealthScore = score
	}
}

func WithInventory(items ...domain.InventoryItem) InstanceOption {
	return func(i *domain.RoomInstance) {
		i.Inventory = items
	}
}

func WithConstraints(constraints ...string) InstanceOption {
	return func(i *domain.RoomInstance) {
		i.Constraints = constraints
	}
}

func WithLiturgy(entry, exit string, steps ...string) InstanceOption {
	return func(i *domain.RoomInstance) {
		i.Liturgy = &domain.Liturgy{Entry: entry, Steps: steps, Exit: exit}
	}
}

func WithActive() InstanceOption {
	return func(i *domain.RoomInstance) {
		i.IsActive = true
	}
}

func WithTotalMinutes(m int) InstanceOption {
	return func(i *domain.RoomInstance) {
		i.TotalMinutes = m
	}
}

func WithFriction(f domain.FrictionLevel) InstanceOption {
	return func(i *domain.RoomInstance) {
		i.CurrentFriction = f
	}
}

func WithMusic(m *domain.MusicContext) InstanceOption {
	return func(i *domain.RoomInstance) {
		i.Music = m
	}
}

func NewTestInstance(definitionID, variantName string, opts ...InstanceOption) *domain.RoomInstance {
	now := time.Now().UTC().Truncate(time.Second)
	i := &domain.RoomInstance{
		ID:              uuid.New().String(),
		DefinitionID:    definitionID,
		VariantName:     variantName,
		HealthScore:     1.0,
		CurrentFriction: domain.FrictionLow,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Session options
type SessionOption func(*domain.Session)

func WithEndedAfter(d time.Duration) SessionOption {
	return func(s *domain.Session) {
		end := s.StartedAt.Add(d)
		s.EndedAt = &end
	}
}

func WithObservations(obs ...string) SessionOption {
	return func(s *domain.Session) {
		s.Observations = obs
	}
}

func NewTestSession(instance *domain.RoomInstance, roomName string, opts ...SessionOption) *domain.Session {
	now := time.Now().UTC().Truncate(time.Second)
	s := &domain.Session{
		ID:           uuid.New().String(),
		InstanceID:   instance.ID,
		DefinitionID: instance.DefinitionID,
		RoomName:     roomName,
		VariantName:  instance.VariantName,
		StartedAt:    now,
		CreatedAt:    now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecurringBlock options
type BlockOption func(*domain.RecurringBlock)

func WithAdherence(completed, missed int) BlockOption {
	return func(b *domain.RecurringBlock) {
		b.CompletedCount = completed
		b.MissedCount = missed
	}
}

func WithBlockSeason(seasonID string) BlockOption {
	return func(b *domain.RecurringBlock) {
		b.SeasonID = &seasonID
	}
}

func WithSlot(dayOfWeek, hour, minute int) BlockOption {
	return func(b *domain.RecurringBlock) {
		b.DayOfWeek = dayOfWeek
		b.StartHour = hour
		b.StartMinute = minute
	}
}

func NewTestBlock(definitionID, roomName string, opts ...BlockOption) *domain.RecurringBlock {
	now := time.Now().UTC().Truncate(time.Second)
	b := &domain.RecurringBlock{
		ID:              uuid.New().String(),
		DefinitionID:    definitionID,
		RoomName:        roomName,
		DayOfWeek:       2, // Monday
		StartHour:       7,
		StartMinute:     30,
		DurationMinutes: 45,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Season options
type SeasonOption func(*domain.Season)

func WithSeasonWindow(start time.Time, weeks int) SeasonOption {
	return func(s *domain.Season) {
		s.StartDate = start
		s.EndDate = start.AddDate(0, 0, weeks*7)
	}
}

func WithFocusRooms(rooms ...string) SeasonOption {
	return func(s *domain.Season) {
		s.FocusRooms = rooms
	}
}

func NewTestSeason(name string, wing domain.WingName, opts ...SeasonOption) *domain.Season {
	now := time.Now().UTC().Truncate(time.Second)
	s := &domain.Season{
		ID:          uuid.New().String(),
		Name:        name,
		PrimaryWing: wing,
		StartDate:   now,
		EndDate:     now.AddDate(0, 0, 84),
		CreatedAt:   now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
