// Package requestcontext carries request-scoped values (request ID, caller
// principal, request time) through a context.
package requestcontext

import (
	"context"
	"time"

	id "mastery/pkg/domain"
)

type (
	requestIDKey struct{}
	principalKey struct{}
	timeKey      struct{}
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the request ID, or "" outside an HTTP request.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

func WithPrincipal(ctx context.Context, p id.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// Principal returns the authenticated caller, or the zero Principal.
func Principal(ctx context.Context) id.Principal {
	if v, ok := ctx.Value(principalKey{}).(id.Principal); ok {
		return v
	}
	return ""
}

// WithTime pins the request's notion of "now".
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, timeKey{}, t)
}

// Now returns the pinned request time, falling back to time.Now() for
// contexts created outside the HTTP stack.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(timeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}
