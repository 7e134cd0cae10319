// Package events defines the event envelope and the publisher port used for
// best-effort notifications. Durable delivery is not this package's job: the
// outbox relay owns the at-least-once path, and whatever ships envelopes to
// an actual broker is an external collaborator behind the Publisher interface.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Envelope wraps an event payload with routing and tracing metadata.
type Envelope struct {
	ID            uuid.UUID      `json:"id"`
	Type          string         `json:"type"`
	Source        string         `json:"source"`
	TenantID      string         `json:"tenantId"`
	Time          time.Time      `json:"time"`
	SchemaVersion string         `json:"schemaVersion"`
	TraceID       string         `json:"traceId,omitempty"`
	Data          map[string]any `json:"data"`
}

const (
	source        = "orders-service"
	schemaVersion = "1"
)

// NewEnvelope assembles an envelope for the given event type and payload.
func NewEnvelope(eventType, tenantID, traceID string, data map[string]any) Envelope {
	return Envelope{
		ID:            uuid.Must(uuid.NewV7()),
		Type:          eventType,
		Source:        source,
		TenantID:      tenantID,
		Time:          time.Now().UTC(),
		SchemaVersion: schemaVersion,
		TraceID:       traceID,
		Data:          data,
	}
}

// Publisher forwards envelopes to subscribers. Implementations must be safe
// for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, envelope Envelope) error
}

// LogPublisher is the default Publisher: it records the envelope in the
// structured log and nothing more.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the envelope.
func (p *LogPublisher) Publish(ctx context.Context, envelope Envelope) error {
	if p.logger != nil {
		p.logger.Info("publishing event",
			slog.String("event_id", envelope.ID.String()),
			slog.String("event_type", envelope.Type),
			slog.String("tenant_id", envelope.TenantID),
			slog.String("trace_id", envelope.TraceID),
			slog.Any("data", envelope.Data),
		)
	}
	return nil
}
