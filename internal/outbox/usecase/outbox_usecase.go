// Package usecase implements the outbox relay that drains unpublished
// entries and hands them to the event publisher.
package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/orders/internal/database"
	"github.com/allisson/orders/internal/events"
	"github.com/allisson/orders/internal/outbox/domain"
)

// Config holds outbox relay configuration
type Config struct {
	Interval  time.Duration
	BatchSize int
}

// OutboxRepository defines outbox entry repository operations
type OutboxRepository interface {
	Create(ctx context.Context, entry *domain.OutboxEntry) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEntry, error)
	MarkPublished(ctx context.Context, id uuid.UUID, publishedAt time.Time) error
}

// UseCase defines the interface for the outbox relay
type UseCase interface {
	Start(ctx context.Context) error
	Drain(ctx context.Context) (int, error)
}

// OutboxUseCase drains the transactional outbox on an interval. Each batch
// runs in its own transaction: entries are locked with SKIP LOCKED, handed
// to the publisher, and stamped published. A publish failure rolls the batch
// back so the entries are retried on the next tick, which gives at-least-once
// delivery; consumers deduplicate on the envelope id.
type OutboxUseCase struct {
	config    Config
	txManager database.TxManager
	repo      OutboxRepository
	publisher events.Publisher
	logger    *slog.Logger
}

// NewOutboxUseCase creates a new OutboxUseCase
func NewOutboxUseCase(
	config Config,
	txManager database.TxManager,
	repo OutboxRepository,
	publisher events.Publisher,
	logger *slog.Logger,
) *OutboxUseCase {
	return &OutboxUseCase{
		config:    config,
		txManager: txManager,
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// Start runs the relay loop until the context is canceled.
func (uc *OutboxUseCase) Start(ctx context.Context) error {
	if uc.logger != nil {
		uc.logger.Info("starting outbox relay",
			slog.Duration("interval", uc.config.Interval),
			slog.Int("batch_size", uc.config.BatchSize),
		)
	}

	ticker := time.NewTicker(uc.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if uc.logger != nil {
				uc.logger.Info("stopping outbox relay")
			}
			return ctx.Err()
		case <-ticker.C:
			if _, err := uc.Drain(ctx); err != nil {
				if uc.logger != nil {
					uc.logger.Error("failed to drain outbox", slog.Any("error", err))
				}
			}
		}
	}
}

// Drain publishes one batch of unpublished entries inside a transaction and
// returns the number of entries published.
func (uc *OutboxUseCase) Drain(ctx context.Context) (int, error) {
	var published int

	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		entries, err := uc.repo.GetUnpublished(ctx, uc.config.BatchSize)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			return nil
		}

		if uc.logger != nil {
			uc.logger.Info("draining outbox", slog.Int("count", len(entries)))
		}

		for _, entry := range entries {
			if err := uc.publishEntry(ctx, entry); err != nil {
				if uc.logger != nil {
					uc.logger.Error("failed to publish entry",
						slog.String("entry_id", entry.ID.String()),
						slog.String("event_type", entry.EventType),
						slog.Any("error", err),
					)
				}
				return err
			}

			if err := uc.repo.MarkPublished(ctx, entry.ID, time.Now().UTC()); err != nil {
				return err
			}

			published++
		}

		return nil
	})

	return published, err
}

// publishEntry wraps the stored payload in an event envelope and hands it to
// the publisher. The envelope id and time come from the entry itself so a
// redelivered entry produces an identical envelope.
func (uc *OutboxUseCase) publishEntry(ctx context.Context, entry *domain.OutboxEntry) error {
	var data map[string]any
	if err := json.Unmarshal(entry.Payload, &data); err != nil {
		return err
	}

	envelope := events.NewEnvelope(entry.EventType, entry.TenantID, "", data)
	envelope.ID = entry.ID
	envelope.Time = entry.CreatedAt

	return uc.publisher.Publish(ctx, envelope)
}
