// Package domain defines the core order domain entities and types.
package domain

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/orders/internal/errors"
)

// Status represents the lifecycle state of an order. Transitions are
// forward-only: draft -> confirmed -> closed.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusConfirmed Status = "confirmed"
	StatusClosed    Status = "closed"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusConfirmed, StatusClosed:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle permits moving from s to next.
// Backward and skipping transitions are never allowed; closed is terminal.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusDraft:
		return next == StatusConfirmed
	case StatusConfirmed:
		return next == StatusClosed
	}
	return false
}

// Event types emitted on lifecycle transitions.
const (
	EventOrderCreated   = "orders.created"
	EventOrderConfirmed = "orders.confirmed"
	EventOrderClosed    = "orders.closed"
)

// Order represents a business order scoped to a single tenant.
//
// Version starts at 1 and increases by exactly 1 on every accepted mutation;
// it is the optimistic-concurrency fence for confirm. TotalCents is nil
// while the order is in draft and fixed once the order is confirmed.
type Order struct {
	ID         uuid.UUID
	TenantID   string
	Status     Status
	Version    int64
	TotalCents *int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewDraftOrder creates a draft order for a tenant. Drafts start at version 1
// with no total; the total is fixed at confirm time.
func NewDraftOrder(tenantID string) *Order {
	return &Order{
		ID:       uuid.Must(uuid.NewV7()),
		TenantID: tenantID,
		Status:   StatusDraft,
		Version:  1,
	}
}

// Domain-specific errors for order operations. Codes are part of the API
// contract and rendered verbatim in error responses.
var (
	// ErrOrderNotFound indicates no order exists for the (id, tenant) pair.
	ErrOrderNotFound = apperrors.NewDomainError(
		"ORDER_NOT_FOUND", "order not found", apperrors.ErrNotFound)

	// ErrOrderVersionConflict indicates the caller's expected version is stale.
	ErrOrderVersionConflict = apperrors.NewDomainError(
		"ORDER_VERSION_CONFLICT", "order version is stale", apperrors.ErrStale)

	// ErrOrderStatusInvalid indicates the command is not valid for the order's
	// current lifecycle state.
	ErrOrderStatusInvalid = apperrors.NewDomainError(
		"ORDER_STATUS_INVALID", "command not valid for current order status", apperrors.ErrInvalidInput)

	// ErrIdempotencyKeyConflict indicates the idempotency key was already used
	// with a different request body.
	ErrIdempotencyKeyConflict = apperrors.NewDomainError(
		"IDEMPOTENCY_KEY_CONFLICT", "idempotency key already used with different request body", apperrors.ErrConflict)
)
