// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"time"

	ordersDomain "github.com/allisson/orders/internal/orders/domain"
)

// OrderResponse represents an order in API responses. TotalCents is omitted
// while the order is in draft.
type OrderResponse struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenantId"`
	Status     string    `json:"status"`
	Version    int64     `json:"version"`
	TotalCents *int64    `json:"totalCents,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ConfirmOrderResponse is the confirm command's success shape.
type ConfirmOrderResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	Version    int64  `json:"version"`
	TotalCents *int64 `json:"totalCents"`
}

// CloseOrderResponse is the close command's success shape.
type CloseOrderResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Version int64  `json:"version"`
}

// ListOrdersResponse represents one page of orders in API responses.
// NextCursor is present only when a further page exists.
type ListOrdersResponse struct {
	Items      []OrderResponse `json:"items"`
	NextCursor string          `json:"nextCursor,omitempty"`
}

// MapOrderToConfirmResponse converts a domain order to the confirm response.
func MapOrderToConfirmResponse(order *ordersDomain.Order) ConfirmOrderResponse {
	return ConfirmOrderResponse{
		ID:         order.ID.String(),
		Status:     string(order.Status),
		Version:    order.Version,
		TotalCents: order.TotalCents,
	}
}

// MapOrderToCloseResponse converts a domain order to the close response.
func MapOrderToCloseResponse(order *ordersDomain.Order) CloseOrderResponse {
	return CloseOrderResponse{
		ID:      order.ID.String(),
		Status:  string(order.Status),
		Version: order.Version,
	}
}

// MapOrdersToListResponse converts a page of domain orders to a list response.
func MapOrdersToListResponse(orders []*ordersDomain.Order, nextCursor string) ListOrdersResponse {
	items := make([]OrderResponse, 0, len(orders))
	for _, order := range orders {
		items = append(items, OrderResponse{
			ID:         order.ID.String(),
			TenantID:   order.TenantID,
			Status:     string(order.Status),
			Version:    order.Version,
			TotalCents: order.TotalCents,
			CreatedAt:  order.CreatedAt,
			UpdatedAt:  order.UpdatedAt,
		})
	}

	return ListOrdersResponse{
		Items:      items,
		NextCursor: nextCursor,
	}
}
