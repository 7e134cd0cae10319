// Package httputil provides HTTP utility functions for request and response handling.
package httputil

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/orders/internal/errors"
)

// ErrorBody is the inner payload of the uniform error envelope.
type ErrorBody struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Path      string         `json:"path"`
	Details   map[string]any `json:"details,omitempty"`
}

// ErrorResponse is the uniform error envelope returned by every endpoint.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// newErrorResponse assembles the envelope with the request path and current time.
func newErrorResponse(c *gin.Context, code, message string, details map[string]any) ErrorResponse {
	return ErrorResponse{
		Error: ErrorBody{
			Code:      code,
			Message:   message,
			Timestamp: time.Now().UTC(),
			Path:      c.Request.URL.Path,
			Details:   details,
		},
	}
}

// HandleErrorGin maps domain errors to HTTP status codes and returns the
// uniform error envelope. Coded domain errors keep their symbolic code and
// details; everything else falls back to a generic class code.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	var statusCode int
	var code string
	var message string
	var details map[string]any

	// Map domain error classes to HTTP status codes
	switch {
	case apperrors.Is(err, apperrors.ErrNotFound):
		statusCode = http.StatusNotFound
		code = "NOT_FOUND"
		message = "The requested resource was not found"

	case apperrors.Is(err, apperrors.ErrStale):
		statusCode = http.StatusConflict
		code = "VERSION_CONFLICT"
		message = "The resource was modified since it was last read"

	case apperrors.Is(err, apperrors.ErrConflict):
		statusCode = http.StatusConflict
		code = "CONFLICT"
		message = "A conflict occurred with existing data"

	case apperrors.Is(err, apperrors.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		code = "INVALID_INPUT"
		message = err.Error()

	default:
		// For unknown/internal errors, don't expose details to the client
		statusCode = http.StatusInternalServerError
		code = "INTERNAL_ERROR"
		message = "An internal error occurred"
	}

	// A coded domain error overrides the generic class code and message
	var domainErr *apperrors.DomainError
	if apperrors.As(err, &domainErr) {
		code = domainErr.Code
		message = domainErr.Message
		details = domainErr.Details
	}

	// Log the full error details (including wrapped errors)
	if logger != nil {
		logger.Error("request failed",
			slog.Int("status_code", statusCode),
			slog.String("error_code", code),
			slog.Any("error", err),
		)
	}

	c.JSON(statusCode, newErrorResponse(c, code, message, details))
}

// HandleBadRequestGin writes a 400 Bad Request response for malformed JSON or parameters.
func HandleBadRequestGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("bad request", slog.Any("error", err))
	}

	c.JSON(http.StatusBadRequest, newErrorResponse(c, "BAD_REQUEST", err.Error(), nil))
}

// HandleValidationErrorGin writes a 400 Bad Request response for validation errors.
func HandleValidationErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("validation failed", slog.Any("error", err))
	}

	c.JSON(http.StatusBadRequest, newErrorResponse(c, "VALIDATION_ERROR", err.Error(), nil))
}
