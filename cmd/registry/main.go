// cmd/registry/main.go
package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"lendingregistry/internal/api"
	"lendingregistry/internal/circulation"
	"lendingregistry/internal/config"
	"lendingregistry/internal/journal"
	"lendingregistry/internal/membership"
	"lendingregistry/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := telemetry.NewLogger(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.Telemetry.Endpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		log.Fatalf("Failed to set up tracing: %v", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error("tracer shutdown failed", slog.Any("error", err))
		}
	}()

	backend, closeJournal, err := openJournal(ctx, cfg.Journal)
	if err != nil {
		log.Fatalf("Failed to open journal: %v", err)
	}
	defer closeJournal()

	j := journal.NewBreakerJournal(backend, journal.BreakerSettings{
		ConsecutiveFailures: uint32(cfg.Journal.BreakerFailures),
		Timeout:             cfg.Journal.BreakerTimeout,
		Logger:              logger,
	})

	svc := circulation.NewService(circulation.NewRegistry(), j,
		circulation.WithLogger(logger),
		circulation.WithAuthenticator(membership.NewAuthenticator(cfg.RateLimit.AuthAttemptsPerMinute)),
	)
	if cfg.SeedSampleData {
		if err := circulation.SeedSample(ctx, svc); err != nil {
			log.Fatalf("Failed to seed sample data: %v", err)
		}
	}

	server := &http.Server{
		Addr: ":" + cfg.Server.Port,
		Handler: api.NewRouter(svc, api.Options{
			Logger:            logger,
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("starting registry",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
			slog.String("journal", cfg.Journal.Driver),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down registry")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", slog.Any("error", err))
	}
}

func openJournal(ctx context.Context, cfg config.JournalConfig) (journal.Journal, func(), error) {
	if cfg.Driver != config.DriverPostgres {
		return journal.NewMemoryJournal(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	pj := journal.NewPostgresJournal(db)
	if err := pj.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return pj, func() { _ = db.Close() }, nil
}
