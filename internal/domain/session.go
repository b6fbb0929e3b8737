package domain

import "time"

// Session is one timed visit to a room instance. Room identity fields are
// snapshotted at creation so historical display stays stable even if the
// instance is later edited or deleted.
type Session struct {
	ID           string
	InstanceID   string
	DefinitionID string
	RoomName     string
	VariantName  string
	StartedAt    time.Time
	EndedAt      *time.Time
	Observations []string
	CreatedAt    time.Time
}

// IsActive reports whether the session is still running.
func (s *Session) IsActive() bool {
	return s.EndedAt == nil
}

// DurationSeconds is the wall-clock length of a finished session.
// Zero while the session is still active.
func (s *Session) DurationSeconds() int {
	if s.EndedAt == nil {
		return 0
	}
	return int(s.EndedAt.Sub(s.StartedAt) / time.Second)
}

// PlannedSession is a future-dated intention to visit a room.
type PlannedSession struct {
	ID              string
	DefinitionID    string
	InstanceID      *string
	RoomName        string
	VariantName     string
	ScheduledDate   time.Time
	DurationMinutes int // default 30
	IsCompleted     bool
	Notes           string
	SeasonID        *string
	CreatedAt       time.Time
}
