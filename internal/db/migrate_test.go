package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDB_InMemory(t *testing.T) {
	database, err := OpenDB(":memory:")
	require.NoError(t, err)
	defer database.Close()

	for _, table := range []string{
		"room_instances", "sessions", "seasons", "planned_sessions", "recurring_blocks",
	} {
		var name string
		err := database.QueryRow(
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	database, err := OpenDB(":memory:")
	require.NoError(t, err)
	defer database.Close()

	// Re-running the full migration list must be a no-op.
	require.NoError(t, Migrate(database))
	require.NoError(t, Migrate(database))
}

func TestSchema_RejectsOutOfRangeScores(t *testing.T) {
	database, err := OpenDB(":memory:")
	require.NoError(t, err)
	defer database.Close()

	_, err = database.Exec(`INSERT INTO room_instances
		(id, definition_id, variant_name, familiarity_score, created_at, updated_at)
		VALUES ('x', '001', 'Test', 1.5, '2025-01-01T00:00:00Z', '2025-01-01T00:00:00Z')`)
	assert.Error(t, err, "familiarity above 1 violates the check constraint")
}

func TestSchema_RejectsBadDayOfWeek(t *testing.T) {
	database, err := OpenDB(":memory:")
	require.NoError(t, err)
	defer database.Close()

	_, err = database.Exec(`INSERT INTO recurring_blocks
		(id, definition_id, room_name, day_of_week, start_hour, start_minute,
		 duration_minutes, created_at, updated_at)
		VALUES ('b1', '001', 'Morning Balcony', 8, 7, 30, 45,
		 '2025-01-01T00:00:00Z', '2025-01-01T00:00:00Z')`)
	assert.Error(t, err, "day_of_week must stay in 1..7")
}
