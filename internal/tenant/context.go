// Package tenant provides tenant extraction middleware and context utilities.
// Every command and query in the system is scoped to exactly one tenant; the
// middleware establishes that scope at the transport edge so the core never
// reads headers itself.
package tenant

import "context"

// tenantKey is a context key type for storing the tenant identifier.
type tenantKey struct{}

// WithTenant stores the tenant identifier in the context.
// This is typically called by the tenant middleware after header extraction.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantKey{}, tenantID)
}

// FromContext retrieves the tenant identifier from the context.
// Returns (tenantID, true) if present, or ("", false) if no tenant was set.
func FromContext(ctx context.Context) (string, bool) {
	tenantID, ok := ctx.Value(tenantKey{}).(string)
	if !ok || tenantID == "" {
		return "", false
	}
	return tenantID, true
}
