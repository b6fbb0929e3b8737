package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/calegray/manse/internal/db"
	"github.com/calegray/manse/internal/domain"
)

const seasonColumns = `id, name, primary_wing, start_date, end_date, focus_rooms, notes, created_at`

// SQLiteSeasonRepo implements SeasonRepo using a SQLite database.
type SQLiteSeasonRepo struct {
	db db.DBTX
}

// NewSQLiteSeasonRepo creates a new SQLiteSeasonRepo.
func NewSQLiteSeasonRepo(db db.DBTX) *SQLiteSeasonRepo {
	return &SQLiteSeasonRepo{db: db}
}

func (r *SQLiteSeasonRepo) Create(ctx context.Context, s *domain.Season) error {
	focus, err := marshalColumn(s.FocusRooms)
	if err != nil {
		return err
	}
	query := `INSERT INTO seasons (` + seasonColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		s.ID,
		s.Name,
		string(s.PrimaryWing),
		s.StartDate.Format(time.RFC3339),
		s.EndDate.Format(time.RFC3339),
		focus,
		s.Notes,
		s.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting season: %w", err)
	}
	return nil
}

func (r *SQLiteSeasonRepo) GetByID(ctx context.Context, id string) (*domain.Season, error) {
	query := `SELECT ` + seasonColumns + ` FROM seasons WHERE id = ?`
	return r.scanSeason(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteSeasonRepo) List(ctx context.Context) ([]*domain.Season, error) {
	query := `SELECT ` + seasonColumns + ` FROM seasons ORDER BY start_date DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing seasons: %w", err)
	}
	defer rows.Close()

	var seasons []*domain.Season
	for rows.Next() {
		var s domain.Season
		var wing, startStr, endStr, focus, createdStr string

		err := rows.Scan(&s.ID, &s.Name, &wing, &startStr, &endStr, &focus, &s.Notes, &createdStr)
		if err != nil {
			return nil, fmt.Errorf("scanning season row: %w", err)
		}
		season, popErr := populateSeason(&s, wing, startStr, endStr, focus, createdStr)
		if popErr != nil {
			return nil, popErr
		}
		seasons = append(seasons, season)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating seasons: %w", err)
	}
	return seasons, nil
}

func (r *SQLiteSeasonRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM seasons WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting season: %w", err)
	}
	return nil
}

func (r *SQLiteSeasonRepo) scanSeason(row *sql.Row) (*domain.Season, error) {
	var s domain.Season
	var wing, startStr, endStr, focus, createdStr string

	err := row.Scan(&s.ID, &s.Name, &wing, &startStr, &endStr, &focus, &s.Notes, &createdStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("season: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning season: %w", err)
	}
	return populateSeason(&s, wing, startStr, endStr, focus, createdStr)
}

func populateSeason(s *domain.Season, wing, start, end, focus, created string) (*domain.Season, error) {
	s.PrimaryWing = domain.WingName(wing)

	var parseErr error
	s.StartDate, parseErr = time.Parse(time.RFC3339, start)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing start_date: %w", parseErr)
	}
	s.EndDate, parseErr = time.Parse(time.RFC3339, end)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing end_date: %w", parseErr)
	}
	s.CreatedAt, parseErr = time.Parse(time.RFC3339, created)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	if err := unmarshalColumn(focus, &s.FocusRooms); err != nil {
		return nil, err
	}
	return s, nil
}
