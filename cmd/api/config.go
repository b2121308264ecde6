package main

import (
	"log/slog"
	"time"

	"github.com/fastprodman/rfidledger/internal/config"
)

type apiConfig struct {
	Port            uint16        `env:"APP_PORT" envDefault:"3001"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL" envDefault:"INFO"`
	LogFormat       string        `env:"APP_LOG_FORMAT" envDefault:"json"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CommitTimeout   time.Duration `env:"APP_COMMIT_TIMEOUT" envDefault:"10s"`

	// AutoMigrate applies the schema at startup. Handy for SQLite.
	AutoMigrate bool `env:"APP_AUTO_MIGRATE" envDefault:"false"`

	Store config.StoreConfig
	MQTT  config.MQTTConfig
}
