package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/calegray/manse/internal/db"
	"github.com/calegray/manse/internal/domain"
)

const plannedColumns = `id, definition_id, instance_id, room_name, variant_name,
	scheduled_date, duration_minutes, is_completed, notes, season_id, created_at`

// SQLitePlannedSessionRepo implements PlannedSessionRepo using a SQLite database.
type SQLitePlannedSessionRepo struct {
	db db.DBTX
}

// NewSQLitePlannedSessionRepo creates a new SQLitePlannedSessionRepo.
func NewSQLitePlannedSessionRepo(db db.DBTX) *SQLitePlannedSessionRepo {
	return &SQLitePlannedSessionRepo{db: db}
}

func (r *SQLitePlannedSessionRepo) Create(ctx context.Context, p *domain.PlannedSession) error {
	if p.DurationMinutes <= 0 {
		p.DurationMinutes = 30
	}
	query := `INSERT INTO planned_sessions (` + plannedColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.DefinitionID,
		nullableString(p.InstanceID),
		p.RoomName,
		p.VariantName,
		p.ScheduledDate.Format(time.RFC3339),
		p.DurationMinutes,
		boolToInt(p.IsCompleted),
		p.Notes,
		nullableString(p.SeasonID),
		p.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting planned session: %w", err)
	}
	return nil
}

func (r *SQLitePlannedSessionRepo) GetByID(ctx context.Context, id string) (*domain.PlannedSession, error) {
	query := `SELECT ` + plannedColumns + ` FROM planned_sessions WHERE id = ?`
	return r.scanPlanned(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLitePlannedSessionRepo) ListUpcoming(ctx context.Context, limit int) ([]*domain.PlannedSession, error) {
	query := `SELECT ` + plannedColumns + ` FROM planned_sessions
		WHERE is_completed = 0
		ORDER BY scheduled_date ASC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing planned sessions: %w", err)
	}
	defer rows.Close()

	var planned []*domain.PlannedSession
	for rows.Next() {
		p, scanErr := r.scanPlannedRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		planned = append(planned, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating planned sessions: %w", err)
	}
	return planned, nil
}

func (r *SQLitePlannedSessionRepo) Update(ctx context.Context, p *domain.PlannedSession) error {
	query := `UPDATE planned_sessions SET
		scheduled_date = ?, duration_minutes = ?, is_completed = ?, notes = ?, season_id = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		p.ScheduledDate.Format(time.RFC3339),
		p.DurationMinutes,
		boolToInt(p.IsCompleted),
		p.Notes,
		nullableString(p.SeasonID),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating planned session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("planned session %s: %w", p.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLitePlannedSessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM planned_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting planned session: %w", err)
	}
	return nil
}

func (r *SQLitePlannedSessionRepo) scanPlanned(row *sql.Row) (*domain.PlannedSession, error) {
	var p domain.PlannedSession
	var scheduledStr, createdStr string
	var instanceID, seasonID sql.NullString
	var completed int

	err := row.Scan(
		&p.ID, &p.DefinitionID, &instanceID, &p.RoomName, &p.VariantName,
		&scheduledStr, &p.DurationMinutes, &completed, &p.Notes, &seasonID, &createdStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("planned session: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning planned session: %w", err)
	}
	return populatePlanned(&p, scheduledStr, createdStr, instanceID, seasonID, completed)
}

func (r *SQLitePlannedSessionRepo) scanPlannedRow(rows *sql.Rows) (*domain.PlannedSession, error) {
	var p domain.PlannedSession
	var scheduledStr, createdStr string
	var instanceID, seasonID sql.NullString
	var completed int

	err := rows.Scan(
		&p.ID, &p.DefinitionID, &instanceID, &p.RoomName, &p.VariantName,
		&scheduledStr, &p.DurationMinutes, &completed, &p.Notes, &seasonID, &createdStr,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning planned session row: %w", err)
	}
	return populatePlanned(&p, scheduledStr, createdStr, instanceID, seasonID, completed)
}

func populatePlanned(p *domain.PlannedSession, scheduled, created string, instanceID, seasonID sql.NullString, completed int) (*domain.PlannedSession, error) {
	var parseErr error
	p.ScheduledDate, parseErr = time.Parse(time.RFC3339, scheduled)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing scheduled_date: %w", parseErr)
	}
	p.CreatedAt, parseErr = time.Parse(time.RFC3339, created)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	p.InstanceID = stringOrNil(instanceID)
	p.SeasonID = stringOrNil(seasonID)
	p.IsCompleted = intToBool(completed)
	return p, nil
}
