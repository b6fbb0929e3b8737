package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	// Stored column names are the fixed snake_case vocabulary the original
	// data set uses; repository code maps them explicitly, never by
	// naming convention.
	`CREATE TABLE IF NOT EXISTS room_instances (
		id                    TEXT PRIMARY KEY,
		definition_id         TEXT NOT NULL,
		variant_name          TEXT NOT NULL,
		evocative_why         TEXT NOT NULL DEFAULT '',
		familiarity_score     REAL NOT NULL DEFAULT 0
		                      CHECK(familiarity_score >= 0 AND familiarity_score <= 1),
		health_score          REAL NOT NULL DEFAULT 1
		                      CHECK(health_score >= 0 AND health_score <= 1),
		current_friction      TEXT NOT NULL DEFAULT 'low'
		                      CHECK(current_friction IN ('zero','low','medium','high')),
		inventory             TEXT NOT NULL DEFAULT '[]',
		constraints           TEXT NOT NULL DEFAULT '[]',
		liturgy               TEXT,
		is_active             INTEGER NOT NULL DEFAULT 0,
		total_minutes         INTEGER NOT NULL DEFAULT 0 CHECK(total_minutes >= 0),
		last_visited          TEXT,
		mastery_dimensions    TEXT NOT NULL DEFAULT '[]',
		playlist              TEXT,
		playlist_generated_at TEXT,
		music_context         TEXT,
		observations          TEXT NOT NULL DEFAULT '[]',
		created_at            TEXT NOT NULL,
		updated_at            TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_room_instances_definition ON room_instances(definition_id)`,
	`CREATE INDEX IF NOT EXISTS idx_room_instances_active ON room_instances(is_active)`,

	// Sessions deliberately carry no foreign key to room_instances: a
	// deleted instance leaves its history behind with a dangling id.
	`CREATE TABLE IF NOT EXISTS sessions (
		id            TEXT PRIMARY KEY,
		instance_id   TEXT NOT NULL,
		definition_id TEXT NOT NULL,
		room_name     TEXT NOT NULL,
		variant_name  TEXT NOT NULL,
		started_at    TEXT NOT NULL,
		ended_at      TEXT,
		observations  TEXT NOT NULL DEFAULT '[]',
		created_at    TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_sessions_instance ON sessions(instance_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at)`,

	`CREATE TABLE IF NOT EXISTS seasons (
		id           TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		primary_wing TEXT NOT NULL
		             CHECK(primary_wing IN (
		                 'I. Conservatory','II. Library','III. Machine Shop',
		                 'IV. Theatre','V. Sanctum','VI. Observatory')),
		start_date   TEXT NOT NULL,
		end_date     TEXT NOT NULL,
		focus_rooms  TEXT NOT NULL DEFAULT '[]',
		notes        TEXT NOT NULL DEFAULT '',
		created_at   TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS planned_sessions (
		id               TEXT PRIMARY KEY,
		definition_id    TEXT NOT NULL,
		instance_id      TEXT,
		room_name        TEXT NOT NULL,
		variant_name     TEXT NOT NULL DEFAULT '',
		scheduled_date   TEXT NOT NULL,
		duration_minutes INTEGER NOT NULL DEFAULT 30 CHECK(duration_minutes > 0),
		is_completed     INTEGER NOT NULL DEFAULT 0,
		notes            TEXT NOT NULL DEFAULT '',
		season_id        TEXT REFERENCES seasons(id) ON DELETE SET NULL,
		created_at       TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_planned_sessions_date ON planned_sessions(scheduled_date)`,

	`CREATE TABLE IF NOT EXISTS recurring_blocks (
		id               TEXT PRIMARY KEY,
		definition_id    TEXT NOT NULL,
		instance_id      TEXT,
		room_name        TEXT NOT NULL,
		variant_name     TEXT NOT NULL DEFAULT '',
		day_of_week      INTEGER NOT NULL CHECK(day_of_week BETWEEN 1 AND 7),
		start_hour       INTEGER NOT NULL CHECK(start_hour BETWEEN 0 AND 23),
		start_minute     INTEGER NOT NULL CHECK(start_minute BETWEEN 0 AND 59),
		duration_minutes INTEGER NOT NULL CHECK(duration_minutes > 0),
		intent           TEXT NOT NULL DEFAULT '',
		is_active        INTEGER NOT NULL DEFAULT 1,
		season_id        TEXT REFERENCES seasons(id) ON DELETE SET NULL,
		completed_count  INTEGER NOT NULL DEFAULT 0 CHECK(completed_count >= 0),
		missed_count     INTEGER NOT NULL DEFAULT 0 CHECK(missed_count >= 0),
		last_completed   TEXT,
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_recurring_blocks_season ON recurring_blocks(season_id)`,
	`CREATE INDEX IF NOT EXISTS idx_recurring_blocks_day ON recurring_blocks(day_of_week)`,
}
