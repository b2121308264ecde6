package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fastprodman/rfidledger/internal/api"
	"github.com/fastprodman/rfidledger/internal/broadcast"
	"github.com/fastprodman/rfidledger/internal/bus"
	"github.com/fastprodman/rfidledger/internal/engine"
	"github.com/fastprodman/rfidledger/internal/infra/logging"
	"github.com/fastprodman/rfidledger/internal/infra/migrations"
	"github.com/fastprodman/rfidledger/internal/infra/sqlutil"
	"github.com/fastprodman/rfidledger/internal/intents"
	"github.com/fastprodman/rfidledger/internal/services/ledger"
	"github.com/fastprodman/rfidledger/pkg/envconf"
	"github.com/fastprodman/rfidledger/pkg/shutdownqueue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v\n", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	cfg := new(apiConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.Setup(cfg.LogFormat, cfg.LogLevel)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Infra ---
	db, err := sqlutil.OpenDB(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	shutdownqueue.AddNamed("db", func(context.Context) error {
		return db.Close()
	})

	if cfg.AutoMigrate {
		err = migrations.Up(db, cfg.Store.Driver, migrations.Schema)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}

		slog.Info("schema migrations applied", "driver", cfg.Store.Driver)
	}

	ledgerSrv := ledger.New(db)
	hub := broadcast.NewHub()

	// The engine is bound before the client dials: OnConnect subscribes, and
	// a retained message can arrive right after that.
	adapter := bus.NewAdapter(nil, cfg.MQTT.Topics(), cfg.MQTT.QoS, hub)
	eng := engine.New(intents.NewQueue(), ledgerSrv, adapter, hub,
		engine.WithCommitTimeout(cfg.CommitTimeout))

	busCtx, stopBus := busContext(ctx)
	adapter.Bind(busCtx, eng)

	client, err := bus.Dial(cfg.MQTT, adapter.OnConnect)
	if err != nil {
		stopBus()
		return fmt.Errorf("mqtt: %w", err)
	}

	adapter.SetClient(client)

	shutdownqueue.AddNamed("mqtt", func(context.Context) error {
		bus.Disconnect(client)
		stopBus()

		return nil
	})

	// --- HTTP server ---
	srv := api.NewServer(cfg.Port, api.Deps{
		Engine:   eng,
		Ledger:   ledgerSrv,
		Observer: hub,
		Health:   db.PingContext,
	})

	// Registered last so it shuts down first.
	shutdownqueue.AddNamed("http", func(c context.Context) error {
		slog.Info("Shut down server")

		return srv.Shutdown(c)
	})

	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	slog.Info("API started", "port", cfg.Port, "broker", cfg.MQTT.BrokerURL, "team", cfg.MQTT.TeamID)

	select {
	case <-ctx.Done():
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}

// busContext keeps the values of parent but not its cancellation. Events
// that arrive while HTTP drains still commit; stop ends it once the bus is
// disconnected.
func busContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithCancel(context.WithoutCancel(parent))
}
