package idempotency

import (
	"context"
	"encoding/json"
)

// Record holds what was committed for a previously seen idempotency key: the
// fingerprint of the request that produced the effect and the response body
// that was returned for it.
type Record struct {
	Fingerprint string          `json:"fingerprint"`
	Response    json.RawMessage `json:"response"`
}

// Store is the tenant-scoped idempotency record store.
//
// PutIfAbsent must be atomic (set-if-not-exists): when two concurrent callers
// race on the same unseen key, exactly one write wins. The store does not
// provide mutual exclusion between concurrent first-time callers before the
// write happens; that gap is accepted by the create-order command.
type Store interface {
	// Get returns the record for (tenantID, key), or nil if absent or expired.
	Get(ctx context.Context, tenantID, key string) (*Record, error)

	// PutIfAbsent stores the record unless one already exists, returning
	// whether this call's write won.
	PutIfAbsent(ctx context.Context, tenantID, key string, record Record) (bool, error)
}
