// Package pagination implements the opaque keyset cursor used by listing
// endpoints. A cursor encodes the (createdAt, id) tuple of the last row of a
// page; the id tie-break keeps the ordering total when two rows share the
// same createdAt instant.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/orders/internal/errors"
)

// Cursor is the decoded resume point for a keyset-paginated listing.
type Cursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        uuid.UUID `json:"id"`
}

// Encode serializes the cursor into an opaque URL-safe token.
func Encode(c Cursor) string {
	// marshaling a time.Time and uuid.UUID cannot fail
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// Decode parses a token previously produced by Encode. Malformed input is a
// client error, never silently ignored.
func Decode(token string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, apperrors.Wrap(apperrors.ErrInvalidInput, "malformed cursor")
	}

	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cursor{}, apperrors.Wrap(apperrors.ErrInvalidInput, "malformed cursor")
	}

	if c.CreatedAt.IsZero() || c.ID == uuid.Nil {
		return Cursor{}, apperrors.Wrap(apperrors.ErrInvalidInput, "malformed cursor")
	}

	return c, nil
}
