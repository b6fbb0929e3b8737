package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/calegray/manse/internal/db"
	"github.com/calegray/manse/internal/domain"
)

const sessionColumns = `id, instance_id, definition_id, room_name, variant_name,
	started_at, ended_at, observations, created_at`

// SQLiteSessionRepo implements SessionRepo using a SQLite database.
type SQLiteSessionRepo struct {
	db db.DBTX
}

// NewSQLiteSessionRepo creates a new SQLiteSessionRepo.
func NewSQLiteSessionRepo(db db.DBTX) *SQLiteSessionRepo {
	return &SQLiteSessionRepo{db: db}
}

func (r *SQLiteSessionRepo) Create(ctx context.Context, s *domain.Session) error {
	observations, err := marshalColumn(s.Observations)
	if err != nil {
		return err
	}
	query := `INSERT INTO sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		s.ID,
		s.InstanceID,
		s.DefinitionID,
		s.RoomName,
		s.VariantName,
		s.StartedAt.Format(time.RFC3339),
		nullableTimeToString(s.EndedAt, time.RFC3339),
		observations,
		s.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

func (r *SQLiteSessionRepo) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ?`
	return r.scanSession(r.db.QueryRowContext(ctx, query, id))
}

// GetOpen returns the single running session, or ErrNotFound when the device
// has no session in flight. When more than one open session exists (possible
// after a crash mid-start) the most recently started wins.
func (r *SQLiteSessionRepo) GetOpen(ctx context.Context) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions
		WHERE ended_at IS NULL ORDER BY started_at DESC LIMIT 1`
	return r.scanSession(r.db.QueryRowContext(ctx, query))
}

func (r *SQLiteSessionRepo) ListByInstance(ctx context.Context, instanceID string) ([]*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions
		WHERE instance_id = ? ORDER BY started_at DESC`
	rows, err := r.db.QueryContext(ctx, query, instanceID)
	if err != nil {
		return nil, fmt.Errorf("listing sessions by instance: %w", err)
	}
	defer rows.Close()
	return r.scanSessions(rows)
}

func (r *SQLiteSessionRepo) ListRecent(ctx context.Context, limit int) ([]*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY started_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent sessions: %w", err)
	}
	defer rows.Close()
	return r.scanSessions(rows)
}

func (r *SQLiteSessionRepo) Update(ctx context.Context, s *domain.Session) error {
	observations, err := marshalColumn(s.Observations)
	if err != nil {
		return err
	}
	query := `UPDATE sessions SET ended_at = ?, observations = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		nullableTimeToString(s.EndedAt, time.RFC3339),
		observations,
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("session %s: %w", s.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteSessionRepo) scanSession(row *sql.Row) (*domain.Session, error) {
	var s domain.Session
	var startedAtStr, createdAtStr, observationsStr string
	var endedAt sql.NullString

	err := row.Scan(
		&s.ID, &s.InstanceID, &s.DefinitionID, &s.RoomName, &s.VariantName,
		&startedAtStr, &endedAt, &observationsStr, &createdAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("session: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	return populateSession(&s, startedAtStr, createdAtStr, observationsStr, endedAt)
}

func (r *SQLiteSessionRepo) scanSessions(rows *sql.Rows) ([]*domain.Session, error) {
	var sessions []*domain.Session
	for rows.Next() {
		var s domain.Session
		var startedAtStr, createdAtStr, observationsStr string
		var endedAt sql.NullString

		err := rows.Scan(
			&s.ID, &s.InstanceID, &s.DefinitionID, &s.RoomName, &s.VariantName,
			&startedAtStr, &endedAt, &observationsStr, &createdAtStr,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}

		session, popErr := populateSession(&s, startedAtStr, createdAtStr, observationsStr, endedAt)
		if popErr != nil {
			return nil, popErr
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return sessions, nil
}

func populateSession(s *domain.Session, startedAt, createdAt, observations string, endedAt sql.NullString) (*domain.Session, error) {
	var parseErr error
	s.StartedAt, parseErr = time.Parse(time.RFC3339, startedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing started_at: %w", parseErr)
	}
	s.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	s.EndedAt = parseNullableTime(endedAt, time.RFC3339)
	if err := unmarshalColumn(observations, &s.Observations); err != nil {
		return nil, err
	}
	return s, nil
}
