// Package repository provides data persistence implementations for outbox entries.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/orders/internal/database"
	"github.com/allisson/orders/internal/outbox/domain"
)

// PostgreSQLOutboxRepository handles outbox entry persistence for PostgreSQL
type PostgreSQLOutboxRepository struct {
	db *sql.DB
}

// NewPostgreSQLOutboxRepository creates a new PostgreSQLOutboxRepository
func NewPostgreSQLOutboxRepository(db *sql.DB) *PostgreSQLOutboxRepository {
	return &PostgreSQLOutboxRepository{
		db: db,
	}
}

// Create inserts a new outbox entry. Callers run this inside the same
// transaction as the order mutation the entry describes.
func (r *PostgreSQLOutboxRepository) Create(ctx context.Context, entry *domain.OutboxEntry) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO outbox_entries (id, event_type, order_id, tenant_id, payload, published_at, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, NOW())`

	_, err := querier.ExecContext(ctx, query, entry.ID, entry.EventType, entry.OrderID,
		entry.TenantID, entry.Payload, entry.PublishedAt)

	return err
}

// GetUnpublished retrieves unpublished entries in creation order, locking
// them with SKIP LOCKED so concurrent relay instances drain disjoint batches.
func (r *PostgreSQLOutboxRepository) GetUnpublished(
	ctx context.Context,
	limit int,
) ([]*domain.OutboxEntry, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, event_type, order_id, tenant_id, payload, published_at, created_at
			  FROM outbox_entries
			  WHERE published_at IS NULL
			  ORDER BY created_at ASC, id ASC
			  LIMIT $1
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var entries []*domain.OutboxEntry
	for rows.Next() {
		var entry domain.OutboxEntry

		err := rows.Scan(&entry.ID, &entry.EventType, &entry.OrderID, &entry.TenantID,
			&entry.Payload, &entry.PublishedAt, &entry.CreatedAt)
		if err != nil {
			return nil, err
		}

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// MarkPublished stamps an entry with the time it was handed to the publisher.
func (r *PostgreSQLOutboxRepository) MarkPublished(ctx context.Context, id uuid.UUID, publishedAt time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE outbox_entries SET published_at = $1 WHERE id = $2`

	_, err := querier.ExecContext(ctx, query, publishedAt, id)

	return err
}
