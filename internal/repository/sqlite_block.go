package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/calegray/manse/internal/db"
	"github.com/calegray/manse/internal/domain"
)

const blockColumns = `id, definition_id, instance_id, room_name, variant_name,
	day_of_week, start_hour, start_minute, duration_minutes, intent, is_active,
	season_id, completed_count, missed_count, last_completed, created_at, updated_at`

// SQLiteRecurringBlockRepo implements RecurringBlockRepo using a SQLite database.
type SQLiteRecurringBlockRepo struct {
	db db.DBTX
}

// NewSQLiteRecurringBlockRepo creates a new SQLiteRecurringBlockRepo.
func NewSQLiteRecurringBlockRepo(db db.DBTX) *SQLiteRecurringBlockRepo {
	return &SQLiteRecurringBlockRepo{db: db}
}

func (r *SQLiteRecurringBlockRepo) Create(ctx context.Context, b *domain.RecurringBlock) error {
	query := `INSERT INTO recurring_blocks (` + blockColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		b.ID,
		b.DefinitionID,
		nullableString(b.InstanceID),
		b.RoomName,
		b.VariantName,
		b.DayOfWeek,
		b.StartHour,
		b.StartMinute,
		b.DurationMinutes,
		b.Intent,
		boolToInt(b.IsActive),
		nullableString(b.SeasonID),
		b.CompletedCount,
		b.MissedCount,
		nullableTimeToString(b.LastCompleted, time.RFC3339),
		b.CreatedAt.Format(time.RFC3339),
		b.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting recurring block: %w", err)
	}
	return nil
}

func (r *SQLiteRecurringBlockRepo) GetByID(ctx context.Context, id string) (*domain.RecurringBlock, error) {
	query := `SELECT ` + blockColumns + ` FROM recurring_blocks WHERE id = ?`
	return r.scanBlock(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteRecurringBlockRepo) List(ctx context.Context, activeOnly bool) ([]*domain.RecurringBlock, error) {
	query := `SELECT ` + blockColumns + ` FROM recurring_blocks`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY day_of_week, start_hour, start_minute`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing recurring blocks: %w", err)
	}
	defer rows.Close()
	return r.scanBlocks(rows)
}

func (r *SQLiteRecurringBlockRepo) ListBySeason(ctx context.Context, seasonID string) ([]*domain.RecurringBlock, error) {
	query := `SELECT ` + blockColumns + ` FROM recurring_blocks
		WHERE season_id = ? ORDER BY day_of_week, start_hour`
	rows, err := r.db.QueryContext(ctx, query, seasonID)
	if err != nil {
		return nil, fmt.Errorf("listing recurring blocks by season: %w", err)
	}
	defer rows.Close()
	return r.scanBlocks(rows)
}

func (r *SQLiteRecurringBlockRepo) Update(ctx context.Context, b *domain.RecurringBlock) error {
	query := `UPDATE recurring_blocks SET
		instance_id = ?, room_name = ?, variant_name = ?, day_of_week = ?,
		start_hour = ?, start_minute = ?, duration_minutes = ?, intent = ?,
		is_active = ?, season_id = ?, completed_count = ?, missed_count = ?,
		last_completed = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		nullableString(b.InstanceID),
		b.RoomName,
		b.VariantName,
		b.DayOfWeek,
		b.StartHour,
		b.StartMinute,
		b.DurationMinutes,
		b.Intent,
		boolToInt(b.IsActive),
		nullableString(b.SeasonID),
		b.CompletedCount,
		b.MissedCount,
		nullableTimeToString(b.LastCompleted, time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
		b.ID,
	)
	if err != nil {
		return fmt.Errorf("updating recurring block: %w", err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("recurring block %s: %w", b.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRecurringBlockRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM recurring_blocks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting recurring block: %w", err)
	}
	return nil
}

func (r *SQLiteRecurringBlockRepo) scanBlock(row *sql.Row) (*domain.RecurringBlock, error) {
	var b domain.RecurringBlock
	var instanceID, seasonID, lastCompleted sql.NullString
	var active int
	var createdStr, updatedStr string

	err := row.Scan(
		&b.ID, &b.DefinitionID, &instanceID, &b.RoomName, &b.VariantName,
		&b.DayOfWeek, &b.StartHour, &b.StartMinute, &b.DurationMinutes,
		&b.Intent, &active, &seasonID, &b.CompletedCount, &b.MissedCount,
		&lastCompleted, &createdStr, &updatedStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("recurring block: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning recurring block: %w", err)
	}
	return populateBlock(&b, instanceID, seasonID, lastCompleted, active, createdStr, updatedStr)
}

func (r *SQLiteRecurringBlockRepo) scanBlocks(rows *sql.Rows) ([]*domain.RecurringBlock, error) {
	var blocks []*domain.RecurringBlock
	for rows.Next() {
		var b domain.RecurringBlock
		var instanceID, seasonID, lastCompleted sql.NullString
		var active int
		var createdStr, updatedStr string

		err := rows.Scan(
			&b.ID, &b.DefinitionID, &instanceID, &b.RoomName, &b.VariantName,
			&b.DayOfWeek, &b.StartHour, &b.StartMinute, &b.DurationMinutes,
			&b.Intent, &active, &seasonID, &b.CompletedCount, &b.MissedCount,
			&lastCompleted, &createdStr, &updatedStr,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning recurring block row: %w", err)
		}

		block, popErr := populateBlock(&b, instanceID, seasonID, lastCompleted, active, createdStr, updatedStr)
		if popErr != nil {
			return nil, popErr
		}
		blocks = append(blocks, block)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating recurring blocks: %w", err)
	}
	return blocks, nil
}

func populateBlock(b *domain.RecurringBlock, instanceID, seasonID, lastCompleted sql.NullString, active int, created, updated string) (*domain.RecurringBlock, error) {
	b.InstanceID = stringOrNil(instanceID)
	b.SeasonID = stringOrNil(seasonID)
	b.LastCompleted = parseNullableTime(lastCompleted, time.RFC3339)
	b.IsActive = intToBool(active)

	var parseErr error
	b.CreatedAt, parseErr = time.Parse(time.RFC3339, created)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	b.UpdatedAt, parseErr = time.Parse(time.RFC3339, updated)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	return b, nil
}
