// Package usecase implements the order lifecycle commands: idempotent draft
// creation, optimistic-concurrency confirm, pessimistic-lock close and keyset
// paginated listing.
package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	ordersDomain "github.com/allisson/orders/internal/orders/domain"
	outboxDomain "github.com/allisson/orders/internal/outbox/domain"
	"github.com/allisson/orders/internal/pagination"
)

// OrderRepository defines the interface for Order persistence operations.
type OrderRepository interface {
	Create(ctx context.Context, order *ordersDomain.Order) error
	GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*ordersDomain.Order, error)
	GetByIDForUpdate(ctx context.Context, tenantID string, id uuid.UUID) (*ordersDomain.Order, error)
	ConfirmVersioned(ctx context.Context, tenantID string, id uuid.UUID, expectedVersion, totalCents int64) (bool, error)
	Update(ctx context.Context, order *ordersDomain.Order) error
	List(ctx context.Context, tenantID string, limit int, cursor *pagination.Cursor) ([]*ordersDomain.Order, error)
}

// OutboxRepository defines the outbox append operation used by the lifecycle
// commands. Appends run inside the same transaction as the order mutation.
type OutboxRepository interface {
	Create(ctx context.Context, entry *outboxDomain.OutboxEntry) error
}

// CreateDraftInput carries the create-draft command arguments.
type CreateDraftInput struct {
	TenantID       string
	IdempotencyKey string
	Body           []byte
	TraceID        string
}

// CreateDraftOutput carries the command result. Response is the canonical
// response body: on a replay it is returned byte-identical to the first call,
// and Replayed reports which case occurred.
type CreateDraftOutput struct {
	Order    *ordersDomain.Order
	Response json.RawMessage
	Replayed bool
}

// ConfirmInput carries the confirm command arguments. ExpectedVersion is the
// caller's optimistic-concurrency precondition.
type ConfirmInput struct {
	TenantID        string
	ID              uuid.UUID
	ExpectedVersion int64
	TotalCents      int64
	TraceID         string
}

// CloseInput carries the close command arguments.
type CloseInput struct {
	TenantID string
	ID       uuid.UUID
	TraceID  string
}

// ListInput carries the list query arguments. Cursor is the opaque token from
// a previous page, empty for the first page.
type ListInput struct {
	TenantID string
	Limit    int
	Cursor   string
}

// ListOutput carries one page of orders. NextCursor is empty when no further
// page exists.
type ListOutput struct {
	Items      []*ordersDomain.Order
	NextCursor string
}

// OrderUseCase defines the interface for order lifecycle business logic.
type OrderUseCase interface {
	CreateDraft(ctx context.Context, input CreateDraftInput) (*CreateDraftOutput, error)
	Confirm(ctx context.Context, input ConfirmInput) (*ordersDomain.Order, error)
	Close(ctx context.Context, input CloseInput) (*ordersDomain.Order, error)
	List(ctx context.Context, input ListInput) (*ListOutput, error)
}

// createDraftResponse is the canonical create-draft response body stored in
// the idempotency cache and replayed on retries.
type createDraftResponse struct {
	ID        uuid.UUID `json:"id"`
	TenantID  string    `json:"tenantId"`
	Status    string    `json:"status"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
}
