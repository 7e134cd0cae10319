package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/allisson/orders/internal/database"
	apperrors "github.com/allisson/orders/internal/errors"
	"github.com/allisson/orders/internal/events"
	"github.com/allisson/orders/internal/idempotency"
	ordersDomain "github.com/allisson/orders/internal/orders/domain"
	outboxDomain "github.com/allisson/orders/internal/outbox/domain"
	"github.com/allisson/orders/internal/pagination"
)

// Config holds order use case configuration.
type Config struct {
	ListDefaultLimit int
	ListMaxLimit     int
}

// orderUseCase implements OrderUseCase.
type orderUseCase struct {
	config     Config
	txManager  database.TxManager
	orderRepo  OrderRepository
	outboxRepo OutboxRepository
	idemStore  idempotency.Store
	publisher  events.Publisher
	logger     *slog.Logger
}

// NewOrderUseCase creates a new OrderUseCase.
func NewOrderUseCase(
	config Config,
	txManager database.TxManager,
	orderRepo OrderRepository,
	outboxRepo OutboxRepository,
	idemStore idempotency.Store,
	publisher events.Publisher,
	logger *slog.Logger,
) OrderUseCase {
	return &orderUseCase{
		config:     config,
		txManager:  txManager,
		orderRepo:  orderRepo,
		outboxRepo: outboxRepo,
		idemStore:  idemStore,
		publisher:  publisher,
		logger:     logger,
	}
}

// CreateDraft creates a draft order, deduplicated by the tenant-scoped
// idempotency key. A retry with the same key and same body replays the first
// call's response without creating a second row; the same key with a
// different body is rejected. Two concurrent first-time callers with the same
// unseen key are not mutually excluded: both may insert a row, and the cache
// write settles which response wins (set-if-absent).
func (u *orderUseCase) CreateDraft(ctx context.Context, input CreateDraftInput) (*CreateDraftOutput, error) {
	fingerprint, err := idempotency.Fingerprint(input.Body)
	if err != nil {
		return nil, err
	}

	record, err := u.idemStore.Get(ctx, input.TenantID, input.IdempotencyKey)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to look up idempotency key")
	}
	if record != nil {
		if record.Fingerprint != fingerprint {
			return nil, ordersDomain.ErrIdempotencyKeyConflict
		}
		return &CreateDraftOutput{Response: record.Response, Replayed: true}, nil
	}

	order := ordersDomain.NewDraftOrder(input.TenantID)
	if err := u.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	response, err := json.Marshal(createDraftResponse{
		ID:        order.ID,
		TenantID:  order.TenantID,
		Status:    string(order.Status),
		Version:   order.Version,
		CreatedAt: order.CreatedAt,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode create response")
	}

	won, err := u.idemStore.PutIfAbsent(ctx, input.TenantID, input.IdempotencyKey, idempotency.Record{
		Fingerprint: fingerprint,
		Response:    response,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to store idempotency record")
	}
	if !won {
		// A concurrent call with the same unseen key committed first; replay
		// its response so both callers observe one effect.
		record, err := u.idemStore.Get(ctx, input.TenantID, input.IdempotencyKey)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to look up idempotency key")
		}
		if record != nil {
			if record.Fingerprint != fingerprint {
				return nil, ordersDomain.ErrIdempotencyKeyConflict
			}
			return &CreateDraftOutput{Response: record.Response, Replayed: true}, nil
		}
	}

	u.notify(ctx, ordersDomain.EventOrderCreated, input.TenantID, input.TraceID, map[string]any{
		"orderId":  order.ID.String(),
		"tenantId": order.TenantID,
		"status":   string(order.Status),
		"version":  order.Version,
	})

	return &CreateDraftOutput{Order: order, Response: response}, nil
}

// Confirm transitions a draft order to confirmed. The version check is atomic
// with the write: a single conditional update pins both the expected version
// and the draft status, so two concurrent confirms against the same version
// yield exactly one success. The orders.confirmed outbox entry is appended in
// the same transaction as the update.
func (u *orderUseCase) Confirm(ctx context.Context, input ConfirmInput) (*ordersDomain.Order, error) {
	if input.TotalCents < 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "totalCents must be non-negative")
	}

	var order *ordersDomain.Order

	err := u.txManager.WithTx(ctx, func(ctx context.Context) error {
		applied, err := u.orderRepo.ConfirmVersioned(
			ctx, input.TenantID, input.ID, input.ExpectedVersion, input.TotalCents)
		if err != nil {
			return err
		}

		if !applied {
			return u.classifyConfirmFailure(ctx, input)
		}

		order, err = u.orderRepo.GetByID(ctx, input.TenantID, input.ID)
		if err != nil {
			return err
		}

		payload, err := json.Marshal(map[string]any{
			"orderId":    order.ID.String(),
			"tenantId":   order.TenantID,
			"totalCents": input.TotalCents,
			"version":    order.Version,
		})
		if err != nil {
			return apperrors.Wrap(err, "failed to encode event payload")
		}

		entry := outboxDomain.NewOutboxEntry(
			ordersDomain.EventOrderConfirmed, order.ID, order.TenantID, payload)
		return u.outboxRepo.Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	u.notify(ctx, ordersDomain.EventOrderConfirmed, input.TenantID, input.TraceID, map[string]any{
		"orderId":    order.ID.String(),
		"tenantId":   order.TenantID,
		"totalCents": input.TotalCents,
		"version":    order.Version,
	})

	return order, nil
}

// classifyConfirmFailure re-reads the order to decide why the conditional
// update matched no row. Precedence follows the command contract: absent row,
// then stale version, then wrong status.
func (u *orderUseCase) classifyConfirmFailure(ctx context.Context, input ConfirmInput) error {
	current, err := u.orderRepo.GetByID(ctx, input.TenantID, input.ID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return ordersDomain.ErrOrderNotFound
		}
		return err
	}

	if current.Version != input.ExpectedVersion {
		return ordersDomain.ErrOrderVersionConflict.WithDetails(map[string]any{
			"expectedVersion": input.ExpectedVersion,
			"currentVersion":  current.Version,
		})
	}

	return ordersDomain.ErrOrderStatusInvalid.WithDetails(map[string]any{
		"currentStatus":  string(current.Status),
		"requiredStatus": string(ordersDomain.StatusDraft),
	})
}

// Close transitions a confirmed order to closed, the terminal state. The row
// is locked for the duration of the transaction so a concurrent confirm or
// close cannot interleave, and the orders.closed outbox entry is appended in
// the same transaction: either both commit or neither does.
func (u *orderUseCase) Close(ctx context.Context, input CloseInput) (*ordersDomain.Order, error) {
	var order *ordersDomain.Order
	var closedAt time.Time

	err := u.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		order, err = u.orderRepo.GetByIDForUpdate(ctx, input.TenantID, input.ID)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrNotFound) {
				return ordersDomain.ErrOrderNotFound
			}
			return err
		}

		if order.Status != ordersDomain.StatusConfirmed {
			return ordersDomain.ErrOrderStatusInvalid.WithDetails(map[string]any{
				"currentStatus":  string(order.Status),
				"requiredStatus": string(ordersDomain.StatusConfirmed),
			})
		}

		order.Status = ordersDomain.StatusClosed
		order.Version++
		if err := u.orderRepo.Update(ctx, order); err != nil {
			return err
		}

		closedAt = time.Now().UTC()
		payload, err := json.Marshal(map[string]any{
			"orderId":    order.ID.String(),
			"tenantId":   order.TenantID,
			"totalCents": order.TotalCents,
			"closedAt":   closedAt,
		})
		if err != nil {
			return apperrors.Wrap(err, "failed to encode event payload")
		}

		entry := outboxDomain.NewOutboxEntry(
			ordersDomain.EventOrderClosed, order.ID, order.TenantID, payload)
		return u.outboxRepo.Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	u.notify(ctx, ordersDomain.EventOrderClosed, input.TenantID, input.TraceID, map[string]any{
		"orderId":    order.ID.String(),
		"tenantId":   order.TenantID,
		"totalCents": order.TotalCents,
		"closedAt":   closedAt,
	})

	return order, nil
}

// List returns one page of the tenant's orders ordered by (createdAt, id)
// descending. One extra row is fetched to probe for a next page; when it is
// present the page carries a cursor encoding the last returned row.
func (u *orderUseCase) List(ctx context.Context, input ListInput) (*ListOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = u.config.ListDefaultLimit
	}
	if u.config.ListMaxLimit > 0 && limit > u.config.ListMaxLimit {
		limit = u.config.ListMaxLimit
	}

	var cursor *pagination.Cursor
	if input.Cursor != "" {
		decoded, err := pagination.Decode(input.Cursor)
		if err != nil {
			return nil, err
		}
		cursor = &decoded
	}

	orders, err := u.orderRepo.List(ctx, input.TenantID, limit+1, cursor)
	if err != nil {
		return nil, err
	}

	output := &ListOutput{Items: orders}
	if len(orders) > limit {
		output.Items = orders[:limit]
		last := output.Items[len(output.Items)-1]
		output.NextCursor = pagination.Encode(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	return output, nil
}

// notify emits a best-effort event after the durable work has committed.
// Failures are logged and swallowed: the outbox relay owns reliable delivery
// for state-changing commands.
func (u *orderUseCase) notify(ctx context.Context, eventType, tenantID, traceID string, data map[string]any) {
	envelope := events.NewEnvelope(eventType, tenantID, traceID, data)
	if err := u.publisher.Publish(ctx, envelope); err != nil && u.logger != nil {
		u.logger.Error("failed to publish event notification",
			slog.String("event_type", eventType),
			slog.String("tenant_id", tenantID),
			slog.Any("error", err),
		)
	}
}
