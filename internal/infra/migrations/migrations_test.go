package migrations_test

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastprodman/rfidledger/internal/config"
	"github.com/fastprodman/rfidledger/internal/infra/migrations"
	"github.com/fastprodman/rfidledger/internal/infra/sqlutil"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sqlutil.OpenDB(t.Context(), config.StoreConfig{
		Driver: config.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "m.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestUp_IsIdempotent(t *testing.T) {
	t.Parallel()

	db := openSQLite(t)

	require.NoError(t, migrations.Up(db, config.DriverSQLite, migrations.Schema))
	require.NoError(t, migrations.Up(db, config.DriverSQLite, migrations.Schema))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM products`).Scan(&n))
	assert.Equal(t, 3, n)
}

func TestUp_SeedUsesItsOwnVersionTable(t *testing.T) {
	t.Parallel()

	db := openSQLite(t)

	require.NoError(t, migrations.Up(db, config.DriverSQLite, migrations.Schema))
	require.NoError(t, migrations.Up(db, config.DriverSQLite, migrations.Seed))

	var cards int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM cards WHERE uid LIKE 'DEMO-%'`).Scan(&cards))
	assert.Equal(t, 3, cards)

	var seedVersion, schemaVersion int
	require.NoError(t, db.QueryRow(`SELECT version FROM seed_migrations`).Scan(&seedVersion))
	require.NoError(t, db.QueryRow(`SELECT version FROM schema_migrations`).Scan(&schemaVersion))
	assert.Equal(t, 1, seedVersion)
	assert.Equal(t, 2, schemaVersion)
}

func TestUp_UnknownDriver(t *testing.T) {
	t.Parallel()

	err := migrations.Up(openSQLite(t), "mysql", migrations.Schema)
	require.Error(t, err)
}
