package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fastprodman/rfidledger/internal/config"
	"github.com/fastprodman/rfidledger/internal/infra/logging"
	"github.com/fastprodman/rfidledger/internal/infra/migrations"
	"github.com/fastprodman/rfidledger/internal/infra/sqlutil"
	"github.com/fastprodman/rfidledger/pkg/envconf"
)

type migratorConfig struct {
	LogLevel slog.Level `env:"APP_LOG_LEVEL" envDefault:"INFO"`
	AppEnv   string     `env:"APP_ENV" envDefault:"PROD"`

	Store config.StoreConfig
}

const connectTimeout = 30 * time.Second

func main() {
	err := migrateAll()
	if err != nil {
		slog.Error("migration run failed", "error", err)
		os.Exit(1)
	}

	slog.Info("migration run finished successfully")
}

func migrateAll() error {
	cfg := new(migratorConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	db, err := sqlutil.OpenDB(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	//nolint:errcheck
	defer db.Close()

	err = migrations.Up(db, cfg.Store.Driver, migrations.Schema)
	if err != nil {
		return fmt.Errorf("base migrations failed: %w", err)
	}

	slog.Info("base migrations applied", "driver", cfg.Store.Driver)

	if cfg.AppEnv == "DEV" {
		err = migrations.Up(db, cfg.Store.Driver, migrations.Seed)
		if err != nil {
			return fmt.Errorf("dev seed migrations failed: %w", err)
		}

		slog.Info("dev seed migrations applied")
	}

	return nil
}
