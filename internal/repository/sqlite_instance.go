package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/calegray/manse/internal/db"
	"github.com/calegray/manse/internal/domain"
)

// instanceColumns is the fixed column list for room_instances. The order
// here is the contract between scan code and the stored snake_case schema.
const instanceColumns = `id, definition_id, variant_name, evocative_why,
	familiarity_score, health_score, current_friction, inventory, constraints,
	liturgy, is_active, total_minutes, last_visited, mastery_dimensions,
	playlist, playlist_generated_at, music_context, observations,
	created_at, updated_at`

// SQLiteInstanceRepo implements InstanceRepo using a SQLite database.
type SQLiteInstanceRepo struct {
	db db.DBTX
}

// NewSQLiteInstanceRepo creates a new SQLiteInstanceRepo.
func NewSQLiteInstanceRepo(db db.DBTX) *SQLiteInstanceRepo {
	return &SQLiteInstanceRepo{db: db}
}

func (r *SQLiteInstanceRepo) Create(ctx context.Context, i *domain.RoomInstance) error {
	i.ClampScores()

	inventory, err := marshalColumn(i.Inventory)
	if err != nil {
		return err
	}
	constraints, err := marshalColumn(i.Constraints)
	if err != nil {
		return err
	}
	liturgy, err := marshalNullableColumn(i.Liturgy, i.Liturgy == nil)
	if err != nil {
		return err
	}
	masteryDims, err := marshalColumn(i.MasteryDims)
	if err != nil {
		return err
	}
	playlist, err := marshalNullableColumn(i.Playlist, i.Playlist == nil)
	if err != nil {
		return err
	}
	music, err := marshalNullableColumn(i.Music, i.Music == nil)
	if err != nil {
		return err
	}
	observations, err := marshalColumn(i.Observations)
	if err != nil {
		return err
	}

	query := `INSERT INTO room_instances (` + instanceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		i.ID,
		i.DefinitionID,
		i.VariantName,
		i.EvocativeWhy,
		i.FamiliarityScore,
		i.HealthScore,
		string(i.CurrentFriction),
		inventory,
		constraints,
		liturgy,
		boolToInt(i.IsActive),
		i.TotalMinutes,
		nullableTimeToString(i.LastVisited, time.RFC3339),
		masteryDims,
		playlist,
		nullableTimeToString(i.PlaylistGenAt, time.RFC3339),
		music,
		observations,
		i.CreatedAt.Format(time.RFC3339),
		i.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting room instance: %w", err)
	}
	return nil
}

func (r *SQLiteInstanceRepo) GetByID(ctx context.Context, id string) (*domain.RoomInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM room_instances WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	return r.scanInstance(row)
}

func (r *SQLiteInstanceRepo) List(ctx context.Context, limit int) ([]*domain.RoomInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM room_instances ORDER BY updated_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing room instances: %w", err)
	}
	defer rows.Close()
	return r.scanInstances(rows)
}

func (r *SQLiteInstanceRepo) ListActive(ctx context.Context) ([]*domain.RoomInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM room_instances WHERE is_active = 1`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing active room instances: %w", err)
	}
	defer rows.Close()
	return r.scanInstances(rows)
}

func (r *SQLiteInstanceRepo) Update(ctx context.Context, i *domain.RoomInstance) error {
	i.ClampScores()

	inventory, err := marshalColumn(i.Inventory)
	if err != nil {
		return err
	}
	constraints, err := marshalColumn(i.Constraints)
	if err != nil {
		return err
	}
	liturgy, err := marshalNullableColumn(i.Liturgy, i.Liturgy == nil)
	if err != nil {
		return err
	}
	masteryDims, err := marshalColumn(i.MasteryDims)
	if err != nil {
		return err
	}
	playlist, err := marshalNullableColumn(i.Playlist, i.Playlist == nil)
	if err != nil {
		return err
	}
	music, err := marshalNullableColumn(i.Music, i.Music == nil)
	if err != nil {
		return err
	}
	observations, err := marshalColumn(i.Observations)
	if err != nil {
		return err
	}

	query := `UPDATE room_instances SET
		definition_id = ?, variant_name = ?, evocative_why = ?,
		familiarity_score = ?, health_score = ?, current_friction = ?,
		inventory = ?, constraints = ?, liturgy = ?, is_active = ?,
		total_minutes = ?, last_visited = ?, mastery_dimensions = ?,
		playlist = ?, playlist_generated_at = ?, music_context = ?,
		observations = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		i.DefinitionID,
		i.VariantName,
		i.EvocativeWhy,
		i.FamiliarityScore,
		i.HealthScore,
		string(i.CurrentFriction),
		inventory,
		constraints,
		liturgy,
		boolToInt(i.IsActive),
		i.TotalMinutes,
		nullableTimeToString(i.LastVisited, time.RFC3339),
		masteryDims,
		playlist,
		nullableTimeToString(i.PlaylistGenAt, time.RFC3339),
		music,
		observations,
		time.Now().UTC().Format(time.RFC3339),
		i.ID,
	)
	if err != nil {
		return fmt.Errorf("updating room instance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("room instance %s: %w", i.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteInstanceRepo) Delete(ctx context.Context, id string) error {
	// No cascade: sessions referencing this instance keep their snapshot.
	_, err := r.db.ExecContext(ctx, `DELETE FROM room_instances WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting room instance: %w", err)
	}
	return nil
}

type instanceRow struct {
	liturgy       sql.NullString
	lastVisited   sql.NullString
	playlist      sql.NullString
	playlistGenAt sql.NullString
	music         sql.NullString
	inventory     string
	constraints   string
	masteryDims   string
	observations  string
	friction      string
	isActive      int
	createdAt     string
	updatedAt     string
}

func (r *SQLiteInstanceRepo) scanInstance(row *sql.Row) (*domain.RoomInstance, error) {
	var i domain.RoomInstance
	var raw instanceRow

	err := row.Scan(
		&i.ID, &i.DefinitionID, &i.VariantName, &i.EvocativeWhy,
		&i.FamiliarityScore, &i.HealthScore, &raw.friction,
		&raw.inventory, &raw.constraints, &raw.liturgy, &raw.isActive,
		&i.TotalMinutes, &raw.lastVisited, &raw.masteryDims,
		&raw.playlist, &raw.playlistGenAt, &raw.music, &raw.observations,
		&raw.createdAt, &raw.updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("room instance: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning room instance: %w", err)
	}
	return populateInstance(&i, &raw)
}

func (r *SQLiteInstanceRepo) scanInstances(rows *sql.Rows) ([]*domain.RoomInstance, error) {
	var instances []*domain.RoomInstance
	for rows.Next() {
		var i domain.RoomInstance
		var raw instanceRow

		err := rows.Scan(
			&i.ID, &i.DefinitionID, &i.VariantName, &i.EvocativeWhy,
			&i.FamiliarityScore, &i.HealthScore, &raw.friction,
			&raw.inventory, &raw.constraints, &raw.liturgy, &raw.isActive,
			&i.TotalMinutes, &raw.lastVisited, &raw.masteryDims,
			&raw.playlist, &raw.playlistGenAt, &raw.music, &raw.observations,
			&raw.createdAt, &raw.updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning room instance row: %w", err)
		}

		instance, popErr := populateInstance(&i, &raw)
		if popErr != nil {
			return nil, popErr
		}
		instances = append(instances, instance)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating room instances: %w", err)
	}
	return instances, nil
}

// populateInstance decodes JSON columns and timestamps after a raw scan.
func populateInstance(i *domain.RoomInstance, raw *instanceRow) (*domain.RoomInstance, error) {
	i.CurrentFriction = domain.FrictionLevel(raw.friction)
	i.IsActive = intToBool(raw.isActive)
	i.LastVisited = parseNullableTime(raw.lastVisited, time.RFC3339)
	i.PlaylistGenAt = parseNullableTime(raw.playlistGenAt, time.RFC3339)

	if err := unmarshalColumn(raw.inventory, &i.Inventory); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(raw.constraints, &i.Constraints); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(raw.masteryDims, &i.MasteryDims); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(raw.observations, &i.Observations); err != nil {
		return nil, err
	}
	if raw.liturgy.Valid {
		i.Liturgy = &domain.Liturgy{}
		if err := unmarshalColumn(raw.liturgy.String, i.Liturgy); err != nil {
			return nil, err
		}
	}
	if raw.playlist.Valid {
		if err := unmarshalColumn(raw.playlist.String, &i.Playlist); err != nil {
			return nil, err
		}
	}
	if raw.music.Valid {
		i.Music = &domain.MusicContext{}
		if err := unmarshalColumn(raw.music.String, i.Music); err != nil {
			return nil, err
		}
	}

	var parseErr error
	i.CreatedAt, parseErr = time.Parse(time.RFC3339, raw.createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	i.UpdatedAt, parseErr = time.Parse(time.RFC3339, raw.updatedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	return i, nil
}
