package migration

import (
	"io/fs"
	"testing"

	"github.com/smallbiznis/timeoff/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(embeddedMigrations, migrationsDir)
	require.NoError(t, err)

	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[e.Name()] = true
	}
	assert.True(t, names["000001_init.up.sql"])
	assert.True(t, names["000001_init.down.sql"])
}

func TestRunCreatesTablesOnSQLite(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)

	require.NoError(t, Run(conn, "sqlite"))
	// Second run is a no-op.
	require.NoError(t, Run(conn, "sqlite"))

	for _, table := range []string{"companies", "bank_holidays", "leave_types", "schedules", "users", "user_feeds", "leaves", "user_allowance_adjustments", "audit", "sessions"} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}
}

func TestRunRequiresHandle(t *testing.T) {
	assert.Error(t, Run(nil, "sqlite"))
}
