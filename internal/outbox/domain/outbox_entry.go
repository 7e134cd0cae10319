// Package domain defines the core outbox domain entities and types.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboxEntry represents an event appended to the transactional outbox.
// Entries are written in the same transaction as the order mutation they
// describe and drained asynchronously by the relay. PublishedAt is nil
// until the relay has successfully handed the event to the publisher.
type OutboxEntry struct {
	ID          uuid.UUID
	EventType   string
	OrderID     uuid.UUID
	TenantID    string
	Payload     json.RawMessage
	PublishedAt *time.Time
	CreatedAt   time.Time
}

// NewOutboxEntry creates an unpublished outbox entry for an order event.
func NewOutboxEntry(eventType string, orderID uuid.UUID, tenantID string, payload json.RawMessage) *OutboxEntry {
	return &OutboxEntry{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: eventType,
		OrderID:   orderID,
		TenantID:  tenantID,
		Payload:   payload,
	}
}
