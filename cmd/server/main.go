// Package main implements the entry point for the secretary server: the
// household reminder scheduler, notification dispatcher and ops HTTP
// surface.
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
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hearthapp/secretary/internal/api"
	"github.com/hearthapp/secretary/internal/config"
	"github.com/hearthapp/secretary/internal/notify"
	"github.com/hearthapp/secretary/internal/platform/logger"
	"github.com/hearthapp/secretary/internal/platform/postgres"
	"github.com/hearthapp/secretary/internal/platform/rediscache"
	"github.com/hearthapp/secretary/internal/scheduler"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "secretary: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.Duration("tick_interval", cfg.Scheduler.TickInterval))

	db, err := setupDatabase(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", slog.String("error", err.Error()))
		}
	}()

	if err := runMigrations(db, log); err != nil {
		return err
	}

	// The link cache is optional: without Redis the dispatcher reads
	// platform links from the database on every delivery.
	var linkCache notify.LinkCache
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}

		linkCache = rediscache.NewLinkCache(client, cfg.Redis.LinkTTL, log)
		log.Info("platform link cache enabled",
			slog.String("addr", cfg.Redis.Addr),
			slog.Duration("ttl", cfg.Redis.LinkTTL))
	}

	userStore := postgres.NewPostgresUserStore(db, log)
	reminderStore := postgres.NewPostgresReminderStore(db, log)
	memoStore := postgres.NewPostgresMemoStore(db, log)
	todoStore := postgres.NewPostgresTodoStore(db, log)
	eventStore := postgres.NewPostgresEventStore(db, log)

	registry := notify.NewRegistry(log)
	registerChannels(registry, log)

	dispatcher, err := notify.NewDispatcher(userStore, linkCache, registry, cfg.Notifier.SendTimeout, log)
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}

	sched, err := scheduler.New(
		reminderStore,
		dispatcher,
		cfg.Scheduler.TickInterval,
		cfg.Scheduler.GraceTimeout,
		cfg.Scheduler.MaxConcurrentDispatches,
		log,
	)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	router := api.NewRouter(api.Deps{
		Scheduler: sched,
		Platforms: registry,
		Stats: api.StoreStats{
			Users:     userStore,
			Memos:     memoStore,
			Todos:     todoStore,
			Events:    eventStore,
			Reminders: reminderStore,
		},
		StartedAt: time.Now().UTC(),
		Logger:    log,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("ops server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("ops server failed: %w", err)
	}

	// Stop the scheduler first so no dispatch commits race the shutdown
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down ops server: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}
