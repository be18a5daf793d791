package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/notify"
	"storefront/internal/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if !cfg.Redis.Enabled {
		return fmt.Errorf("the worker requires Redis; set REDIS_ENABLED=true or run the API with the in-process queue")
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting storefront notification worker")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	notificationRepo := repository.NewNotificationRepository(pool, logger)

	queue, err := notify.NewRedisQueue(ctx, cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize redis queue: %w", err)
	}
	defer queue.Close()

	var sender notify.Sender
	if cfg.Relay.URL != "" {
		sender = notify.NewRelaySender(cfg.Relay, logger)
	} else {
		sender = notify.NewLogSender(logger)
	}

	worker := notify.NewWorker(notificationRepo, queue, sender, logger)
	worker.Start(ctx)

	// Block until we receive a signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	sig := <-shutdown

	logger.Info().
		Str("signal", sig.String()).
		Msg("shutdown signal received, stopping worker")

	cancel()
	worker.Stop()

	logger.Info().Msg("worker shutdown completed")
	return nil
}
