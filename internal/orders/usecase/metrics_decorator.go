package usecase

import (
	"context"
	"time"

	"github.com/allisson/orders/internal/metrics"
	ordersDomain "github.com/allisson/orders/internal/orders/domain"
)

// orderUseCaseWithMetrics decorates OrderUseCase with metrics instrumentation.
type orderUseCaseWithMetrics struct {
	next    OrderUseCase
	metrics metrics.BusinessMetrics
}

// NewOrderUseCaseWithMetrics wraps an OrderUseCase with metrics recording.
func NewOrderUseCaseWithMetrics(useCase OrderUseCase, m metrics.BusinessMetrics) OrderUseCase {
	return &orderUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// CreateDraft records metrics for draft creation operations.
func (o *orderUseCaseWithMetrics) CreateDraft(
	ctx context.Context,
	input CreateDraftInput,
) (*CreateDraftOutput, error) {
	start := time.Now()
	output, err := o.next.CreateDraft(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	o.metrics.RecordOperation(ctx, "orders", "order_create", status)
	o.metrics.RecordDuration(ctx, "orders", "order_create", time.Since(start), status)

	return output, err
}

// Confirm records metrics for confirm operations.
func (o *orderUseCaseWithMetrics) Confirm(
	ctx context.Context,
	input ConfirmInput,
) (*ordersDomain.Order, error) {
	start := time.Now()
	order, err := o.next.Confirm(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	o.metrics.RecordOperation(ctx, "orders", "order_confirm", status)
	o.metrics.RecordDuration(ctx, "orders", "order_confirm", time.Since(start), status)

	return order, err
}

// Close records metrics for close operations.
func (o *orderUseCaseWithMetrics) Close(
	ctx context.Context,
	input CloseInput,
) (*ordersDomain.Order, error) {
	start := time.Now()
	order, err := o.next.Close(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	o.metrics.RecordOperation(ctx, "orders", "order_close", status)
	o.metrics.RecordDuration(ctx, "orders", "order_close", time.Since(start), status)

	return order, err
}

// List records metrics for list operations.
func (o *orderUseCaseWithMetrics) List(ctx context.Context, input ListInput) (*ListOutput, error) {
	start := time.Now()
	output, err := o.next.List(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	o.metrics.RecordOperation(ctx, "orders", "order_list", status)
	o.metrics.RecordDuration(ctx, "orders", "order_list", time.Since(start), status)

	return output, err
}
