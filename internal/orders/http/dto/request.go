// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"
)

// ConfirmOrderRequest contains the body of the confirm command. The expected
// version precondition travels in the If-Match header, not the body.
type ConfirmOrderRequest struct {
	TotalCents *int64 `json:"totalCents"`
}

// Validate checks if the confirm order request is valid.
func (r *ConfirmOrderRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.TotalCents,
			validation.NotNil,
			validation.Min(int64(0)),
		),
	)
}
