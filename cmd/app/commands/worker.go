package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/allisson/orders/internal/app"
	"github.com/allisson/orders/internal/config"
)

// RunWorker starts the outbox relay worker with graceful shutdown support.
// The worker polls the outbox table on a fixed interval and publishes pending
// entries. Blocks until receiving SIGINT/SIGTERM.
func RunWorker(ctx context.Context) error {
	// Load configuration
	cfg := config.Load()

	// Create DI container
	container := app.NewContainer(cfg)

	// Get logger from container
	logger := container.Logger()
	logger.Info("starting outbox relay worker",
		slog.Duration("interval", cfg.RelayInterval),
		slog.Int("batch_size", cfg.RelayBatchSize),
	)

	// Ensure cleanup on exit
	defer closeContainer(container, logger)

	// Get outbox use case from container (this initializes all dependencies)
	relay, err := container.OutboxUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize outbox relay: %w", err)
	}

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := relay.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("outbox relay error: %w", err)
	}

	logger.Info("outbox relay worker stopped")
	return nil
}
