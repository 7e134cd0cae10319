// Package validation provides custom validation rules for the application.
package validation

import (
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/orders/internal/errors"
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// notBlankRule validates that a string is not only whitespace
type notBlankRule struct{}

// NotBlank is a validation rule that checks if a string contains non-whitespace characters
var NotBlank = notBlankRule{}

// Validate checks if the value is a non-blank string
func (r notBlankRule) Validate(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_not_blank", "must be a string")
	}

	if strings.TrimSpace(s) == "" {
		return validation.NewError("validation_not_blank", "cannot be blank")
	}

	return nil
}

// nonNegativeRule validates that an integer is zero or greater
type nonNegativeRule struct{}

// NonNegative is a validation rule for integer fields that must not be negative
var NonNegative = nonNegativeRule{}

// Validate checks if the value is a non-negative integer
func (r nonNegativeRule) Validate(value interface{}) error {
	switch v := value.(type) {
	case int:
		if v < 0 {
			return validation.NewError("validation_non_negative", "must be greater than or equal to zero")
		}
	case int64:
		if v < 0 {
			return validation.NewError("validation_non_negative", "must be greater than or equal to zero")
		}
	default:
		return validation.NewError("validation_non_negative", "must be an integer")
	}

	return nil
}
