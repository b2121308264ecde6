// Package dbtest provides migrated throwaway databases for repository and
// service tests.
package dbtest

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/fastprodman/rfidledger/internal/config"
	"github.com/fastprodman/rfidledger/internal/infra/migrations"
	"github.com/fastprodman/rfidledger/internal/infra/sqlutil"

	_ "github.com/mattn/go-sqlite3"
)

// Backend is a named database factory, so a suite can run once per driver.
type Backend struct {
	Name string
	Open func(t *testing.T) *sql.DB
}

// Backends returns sqlite always, and postgres as well; the postgres
// factory skips the test when PG_TEST_DSN is unset.
func Backends() []Backend {
	return []Backend{
		{Name: config.DriverSQLite, Open: NewSQLite},
		{Name: config.DriverPostgres, Open: NewPostgres},
	}
}

// NewSQLite opens a migrated sqlite database in the test's temp dir.
func NewSQLite(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ledger.db")

	db, err := sql.Open("sqlite3", sqlutil.SQLiteDSN(path))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	err = migrations.Up(db, config.DriverSQLite, migrations.Schema)
	if err != nil {
		_ = db.Close()
		t.Fatalf("migrate up: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return db
}
