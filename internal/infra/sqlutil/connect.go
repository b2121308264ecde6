package sqlutil

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/fastprodman/rfidledger/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver
)

// sqlDriverName maps config driver names to registered database/sql drivers.
func sqlDriverName(driver string) (string, error) {
	switch driver {
	case config.DriverPostgres:
		return "pgx", nil
	case config.DriverSQLite:
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("unsupported driver %q", driver)
	}
}

// OpenDB opens and pings the configured database and applies pool settings.
// SQLite is limited to a single connection since it allows one writer.
func OpenDB(ctx context.Context, cfg config.StoreConfig) (*sql.DB, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("store config: %w", err)
	}

	name, err := sqlDriverName(cfg.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(name, dsnFor(cfg))
	if err != nil {
		return nil, fmt.Errorf("open connection: %w", err)
	}

	applyPool(db, cfg)

	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

func applyPool(db *sql.DB, cfg config.StoreConfig) {
	if cfg.Driver == config.DriverSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

		return
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}

// dsnFor appends the pragmas the ledger relies on to a bare sqlite path.
func dsnFor(cfg config.StoreConfig) string {
	if cfg.Driver != config.DriverSQLite {
		return cfg.DSN
	}

	return SQLiteDSN(cfg.DSN)
}

// SQLiteDSN turns a file path into a mattn DSN with WAL, a busy timeout and
// foreign keys enabled. DSNs that already carry options are left alone.
func SQLiteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}

	return "file:" + path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
}
