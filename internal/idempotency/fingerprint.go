// Package idempotency provides the shared TTL-bounded store that makes the
// create-order command safe to retry. A record maps a tenant-scoped client
// key to the fingerprint of the original request and its cached response.
package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	apperrors "github.com/allisson/orders/internal/errors"
)

// Fingerprint computes a deterministic content hash of a JSON request body.
// The body is decoded and re-encoded before hashing so that key ordering and
// insignificant whitespace differences never produce false conflicts. An
// empty body fingerprints the same as an empty JSON object.
func Fingerprint(body []byte) (string, error) {
	if len(body) == 0 {
		body = []byte("{}")
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", apperrors.Wrap(apperrors.ErrInvalidInput, "request body is not valid JSON")
	}

	// encoding/json sorts map keys, yielding a canonical form
	canonical, err := json.Marshal(decoded)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to canonicalize request body")
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
