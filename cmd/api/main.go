// Package main is the entry point for the tarifaluz API server.
//
// It loads configuration, builds the selected persistence backend, the
// recommendation engine and notification store, starts the regeneration
// timer, and serves the dashboard-facing JSON API.
//
// Graceful shutdown is handled via OS signal interception (SIGINT,
// SIGTERM).
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

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"tarifaluz/internal/api"
	"tarifaluz/internal/config"
	"tarifaluz/internal/notifications"
	"tarifaluz/internal/prices"
	"tarifaluz/internal/pricing"
	"tarifaluz/internal/recommend"
	"tarifaluz/internal/storage"
	"tarifaluz/internal/types"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so main() can cleanly exit on error.
func run() error {
	// Dotenv is best-effort; absent files are the normal case outside
	// local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	slogger := newLogger(cfg.LogLevel)
	logger := types.NewSlogLogger(slogger)
	slogger.Info("tarifaluz API starting",
		"environment", cfg.Environment,
		"storage_backend", cfg.Storage.Backend,
		"port", cfg.Server.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	persist, cleanup, err := buildPersistence(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	defer cleanup()

	engine := recommend.NewEngine(recommend.EngineConfig{
		Logger: logger.With("component", "recommend"),
	})
	// Startup defaults apply only until a user-persisted config exists;
	// Load replaces them with whatever the persistence collaborator holds.
	defaults := types.DefaultNotificationConfig()
	defaults.RegenerationIntervalMinutes = cfg.Notifications.RegenerationIntervalMinutes
	defaults.MaxNotifications = cfg.Notifications.MaxNotifications
	defaults.AutoExpireHours = cfg.Notifications.AutoExpireHours

	store := notifications.NewStore(notifications.StoreConfig{
		Engine:      engine,
		Persistence: persist,
		Logger:      logger.With("component", "notifications"),
		Defaults:    &defaults,
	})
	store.Load(ctx)

	source := prices.NewClient(prices.ClientConfig{
		BaseURL:    cfg.Prices.BaseURL,
		HTTPClient: &http.Client{Timeout: cfg.Prices.Timeout},
		Logger:     logger.With("component", "prices"),
	})

	store.StartAutoRegeneration(ctx, source)
	defer store.StopAutoRegeneration()

	srv := api.NewServer(api.ServerConfig{
		Store:      store,
		Source:     source,
		Aggregator: pricing.NewAggregator(types.SystemClock{}),
		Logger:     logger.With("component", "api"),
	})

	httpServer := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: srv.Handler(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slogger.Info("listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	slogger.Info("shutdown complete")
	return nil
}

// buildPersistence constructs the configured storage backend and returns
// it with a cleanup function.
func buildPersistence(ctx context.Context, cfg *config.Config) (types.Persistence, func(), error) {
	switch cfg.Storage.Backend {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		store := storage.NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr: cfg.Storage.RedisAddr,
			DB:   cfg.Storage.RedisDB,
		})
		store := storage.NewRedisStore(client)
		if err := store.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return store, func() { _ = client.Close() }, nil
	default:
		return storage.NewMemoryStore(), func() {}, nil
	}
}

// newLogger builds the process-wide slog logger at the configured level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
