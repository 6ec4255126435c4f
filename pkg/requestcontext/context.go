// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. Middleware sets them; services read them without
// pulling in net/http.
//
// Usage in services (read values):
//
//	username := requestcontext.Username(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithUsername(ctx, username)
//	ctx = requestcontext.WithRequestID(ctx, requestID)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"
)

// Context key types (unexported for encapsulation).
type (
	usernameKey    struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// AnonymousUser is recorded on audit entries when no caller identity is set.
const AnonymousUser = "anonymous"

// Username retrieves the caller identity from the context, defaulting to
// AnonymousUser so audit entries always carry an actor.
func Username(ctx context.Context) string {
	if username, ok := ctx.Value(usernameKey{}).(string); ok && username != "" {
		return username
	}
	return AnonymousUser
}

// WithUsername injects a caller identity into the context.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey{}, username)
}

// RequestID retrieves the correlation ID from the context, or "" if unset.
func RequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return requestID
	}
	return ""
}

// WithRequestID injects a correlation ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now returns the request time from the context when set, falling back to
// time.Now. Tests inject a fixed clock with WithTime.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a fixed request time into the context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
