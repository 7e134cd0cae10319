// Package http provides HTTP handlers for the order lifecycle operations.
// All routes run behind the tenant middleware; handlers read the tenant
// identifier from the request context, never from headers directly.
package http

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/orders/internal/httputil"
	"github.com/allisson/orders/internal/orders/http/dto"
	ordersUseCase "github.com/allisson/orders/internal/orders/usecase"
	"github.com/allisson/orders/internal/tenant"
	customValidation "github.com/allisson/orders/internal/validation"
)

// IdempotencyKeyHeader carries the client-supplied deduplication token for
// the create command.
const IdempotencyKeyHeader = "Idempotency-Key"

// maxBodyBytes caps create request bodies; drafts carry small JSON documents.
const maxBodyBytes = 64 * 1024

// OrderHandler handles HTTP requests for order lifecycle operations.
type OrderHandler struct {
	orderUseCase ordersUseCase.OrderUseCase
	listDefault  int
	listMax      int
	logger       *slog.Logger
}

// NewOrderHandler creates a new order handler with required dependencies.
func NewOrderHandler(
	orderUseCase ordersUseCase.OrderUseCase,
	listDefault, listMax int,
	logger *slog.Logger,
) *OrderHandler {
	return &OrderHandler{
		orderUseCase: orderUseCase,
		listDefault:  listDefault,
		listMax:      listMax,
		logger:       logger,
	}
}

// CreateHandler creates a draft order.
// POST /v1/orders - Requires the Idempotency-Key header.
// Returns 201 Created; a retry with the same key and body returns the first
// call's response byte-identical.
func (h *OrderHandler) CreateHandler(c *gin.Context) {
	tenantID, ok := tenant.FromContext(c.Request.Context())
	if !ok {
		httputil.HandleBadRequestGin(c, fmt.Errorf("missing tenant"), h.logger)
		return
	}

	key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	if key == "" {
		httputil.HandleValidationErrorGin(
			c,
			fmt.Errorf("missing %s header", IdempotencyKeyHeader),
			h.logger,
		)
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("failed to read request body: %w", err), h.logger)
		return
	}

	output, err := h.orderUseCase.CreateDraft(c.Request.Context(), ordersUseCase.CreateDraftInput{
		TenantID:       tenantID,
		IdempotencyKey: key,
		Body:           body,
		TraceID:        requestid.Get(c),
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusCreated, "application/json; charset=utf-8", output.Response)
}

// ConfirmHandler confirms a draft order.
// PATCH /v1/orders/:id/confirm - Requires the If-Match header carrying the
// expected version as the optimistic-concurrency precondition.
// Returns 200 OK, or 409 when the precondition is stale.
func (h *OrderHandler) ConfirmHandler(c *gin.Context) {
	tenantID, ok := tenant.FromContext(c.Request.Context())
	if !ok {
		httputil.HandleBadRequestGin(c, fmt.Errorf("missing tenant"), h.logger)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid order id"), h.logger)
		return
	}

	expectedVersion, err := parseIfMatch(c.GetHeader("If-Match"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	var req dto.ConfirmOrderRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	order, err := h.orderUseCase.Confirm(c.Request.Context(), ordersUseCase.ConfirmInput{
		TenantID:        tenantID,
		ID:              id,
		ExpectedVersion: expectedVersion,
		TotalCents:      *req.TotalCents,
		TraceID:         requestid.Get(c),
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapOrderToConfirmResponse(order))
}

// CloseHandler closes a confirmed order.
// POST /v1/orders/:id/close
// Returns 200 OK; closing is terminal and serialized by a row lock.
func (h *OrderHandler) CloseHandler(c *gin.Context) {
	tenantID, ok := tenant.FromContext(c.Request.Context())
	if !ok {
		httputil.HandleBadRequestGin(c, fmt.Errorf("missing tenant"), h.logger)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid order id"), h.logger)
		return
	}

	order, err := h.orderUseCase.Close(c.Request.Context(), ordersUseCase.CloseInput{
		TenantID: tenantID,
		ID:       id,
		TraceID:  requestid.Get(c),
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapOrderToCloseResponse(order))
}

// ListHandler lists the tenant's orders newest first.
// GET /v1/orders?limit=N&cursor=TOKEN
// Returns 200 OK with at most limit items and an optional nextCursor.
func (h *OrderHandler) ListHandler(c *gin.Context) {
	tenantID, ok := tenant.FromContext(c.Request.Context())
	if !ok {
		httputil.HandleBadRequestGin(c, fmt.Errorf("missing tenant"), h.logger)
		return
	}

	limit, cursor, err := httputil.ParseListParams(c, h.listDefault, h.listMax)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	output, err := h.orderUseCase.List(c.Request.Context(), ordersUseCase.ListInput{
		TenantID: tenantID,
		Limit:    limit,
		Cursor:   cursor,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapOrdersToListResponse(output.Items, output.NextCursor))
}

// parseIfMatch extracts the expected version from an If-Match header value.
// Accepts a bare integer or an ETag-style quoted one.
func parseIfMatch(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("missing If-Match header with expected version")
	}

	value = strings.Trim(value, `"`)
	version, err := strconv.ParseInt(value, 10, 64)
	if err != nil || version < 1 {
		return 0, fmt.Errorf("invalid If-Match header: expected a positive version number")
	}

	return version, nil
}
