package domain

import "time"

// StrugglingMissFloor is the minimum miss count before a block can be
// flagged as struggling.
const StrugglingMissFloor = 3

// StrugglingRateCeiling is the adherence rate below which a block with
// enough misses is flagged as struggling.
const StrugglingRateCeiling = 0.5

// RecurringBlock is a weekly-repeating planned ritual with adherence counters.
type RecurringBlock struct {
	ID              string
	DefinitionID    string
	InstanceID      *string
	RoomName        string
	VariantName     string
	DayOfWeek       int // 1..7, 1 = Sunday
	StartHour       int // 0..23
	StartMinute     int // 0..59
	DurationMinutes int
	Intent          string
	IsActive        bool
	SeasonID        *string
	CompletedCount  int
	MissedCount     int
	LastCompleted   *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AdherenceRate is completed/(completed+missed), defined as 1.0 with no data.
func (b *RecurringBlock) AdherenceRate() float64 {
	total := b.CompletedCount + b.MissedCount
	if total == 0 {
		return 1.0
	}
	return float64(b.CompletedCount) / float64(total)
}

// IsStruggling flags a block with at least StrugglingMissFloor misses and an
// adherence rate below StrugglingRateCeiling.
func (b *RecurringBlock) IsStruggling() bool {
	return b.MissedCount >= StrugglingMissFloor && b.AdherenceRate() < StrugglingRateCeiling
}

// MarkCompleted bumps the completion counter and the completion timestamp.
func (b *RecurringBlock) MarkCompleted(now time.Time) {
	b.CompletedCount++
	b.LastCompleted = &now
	b.UpdatedAt = now
}

// MarkMissed bumps the miss counter.
func (b *RecurringBlock) MarkMissed(now time.Time) {
	b.MissedCount++
	b.UpdatedAt = now
}

// Season is a macro time window ruled by one wing.
type Season struct {
	ID          string
	Name        string
	PrimaryWing WingName
	StartDate   time.Time
	EndDate     time.Time
	FocusRooms  []string
	Notes       string
	CreatedAt   time.Time
}

// IsActiveAt reports whether the instant falls inside the season's window.
// Advisory only: nothing prevents overlapping seasons in storage.
func (s *Season) IsActiveAt(now time.Time) bool {
	return !now.Before(s.StartDate) && !now.After(s.EndDate)
}

// DurationDays is the whole-day length of the season window.
func (s *Season) DurationDays() int {
	return int(s.EndDate.Sub(s.StartDate) / (24 * time.Hour))
}

// FullSeasonProposal is a season plus its recurring blocks, held as pending
// state until the user explicitly applies it.
type FullSeasonProposal struct {
	Season Season
	Blocks []RecurringBlock
}

// ProgressAt is the elapsed fraction of the season, clamped to [0,1].
func (s *Season) ProgressAt(now time.Time) float64 {
	total := s.EndDate.Sub(s.StartDate)
	if total <= 0 {
		return 1.0
	}
	return clamp01(float64(now.Sub(s.StartDate)) / float64(total))
}
