// Package errors provides standardized domain errors that express business intent
// rather than infrastructure details. These errors should be used by use cases
// and mapped to appropriate HTTP status codes by handlers.
package errors

import (
	"errors"
	"fmt"
)

// Standard domain errors that can be used across all domain modules.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data (e.g., duplicate key).
	ErrConflict = errors.New("conflict")

	// ErrStale indicates the caller acted on an outdated view of the resource
	// (optimistic concurrency precondition mismatch).
	ErrStale = errors.New("stale version")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")
)

// DomainError attaches a stable symbolic code and optional details to a
// sentinel error. The code is part of the API contract and is rendered
// verbatim in error responses; the wrapped sentinel drives the HTTP status.
type DomainError struct {
	Code    string
	Message string
	Err     error
	Details map[string]any
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap exposes the underlying sentinel for errors.Is checks.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithDetails returns a copy of the error carrying request-specific details.
// The original error value is left untouched so package-level sentinels stay
// immutable.
func (e *DomainError) WithDetails(details map[string]any) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Err:     e.Err,
		Details: details,
	}
}

// NewDomainError creates a coded domain error wrapping one of the standard sentinels.
func NewDomainError(code, message string, sentinel error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     sentinel,
	}
}

// New creates a new error with the given message.
// This is a convenience wrapper around errors.New for consistency.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
// Use this to add context at each layer without losing the original error type.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's tree matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}
