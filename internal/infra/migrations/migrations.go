// Package migrations embeds the ledger schema for every supported driver and
// applies it with golang-migrate.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/fastprodman/rfidledger/internal/config"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed postgres/*.sql sqlite/*.sql
var schemaFS embed.FS

//go:embed seed_postgres/*.sql seed_sqlite/*.sql
var seedFS embed.FS

// Set selects which migration stream to apply.
type Set int

const (
	// Schema is the base schema plus the static catalog.
	Schema Set = iota
	// Seed is demo data for DEV environments. It is versioned in its own
	// table so it never interferes with schema versions.
	Seed
)

const seedTable = "seed_migrations"

// Up applies every pending migration of the set for the given driver.
// Running it against an up-to-date database is a no-op.
func Up(db *sql.DB, driver string, set Set) error {
	fsys, dir, err := source(driver, set)
	if err != nil {
		return err
	}

	dbDriver, err := instance(db, driver, set)
	if err != nil {
		return fmt.Errorf("init %s driver: %w", driver, err)
	}

	src, err := iofs.New(fsys, dir)
	if err != nil {
		return fmt.Errorf("iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, driver, dbDriver)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("m.Up: %w", err)
	}

	return nil
}

func source(driver string, set Set) (embed.FS, string, error) {
	switch driver {
	case config.DriverPostgres, config.DriverSQLite:
	default:
		return embed.FS{}, "", fmt.Errorf("no migrations for driver %q", driver)
	}

	if set == Seed {
		return seedFS, "seed_" + driver, nil
	}

	return schemaFS, driver, nil
}

func instance(db *sql.DB, driver string, set Set) (database.Driver, error) {
	table := ""
	if set == Seed {
		table = seedTable
	}

	switch driver {
	case config.DriverPostgres:
		return postgres.WithInstance(db, &postgres.Config{MigrationsTable: table})
	case config.DriverSQLite:
		return sqlite3.WithInstance(db, &sqlite3.Config{MigrationsTable: table})
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}
