package api

import (
	"context"

	"github.com/xraph/subwave/address"
	"github.com/xraph/subwave/id"
)

type contextKey int

const (
	contextKeyPrincipal contextKey = iota
	contextKeyRequestID
)

// SetPrincipal returns a new context carrying the authenticated principal.
func SetPrincipal(ctx context.Context, p address.Address) context.Context {
	return context.WithValue(ctx, contextKeyPrincipal, p)
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (address.Address, bool) {
	p, ok := ctx.Value(contextKeyPrincipal).(address.Address)
	return p, ok
}

// SetRequestID returns a new context with the request ID attached.
func SetRequestID(ctx context.Context, rid id.ID) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, rid)
}

// RequestIDFromContext extracts the request ID from context.
func RequestIDFromContext(ctx context.Context) id.ID {
	rid, _ := ctx.Value(contextKeyRequestID).(id.ID)
	return rid
}
