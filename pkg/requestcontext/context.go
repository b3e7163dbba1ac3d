// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets these values; services read them without importing net/http.
//
//	caller := requestcontext.Account(ctx)
//	now := requestcontext.Now(ctx)
//
// Tests inject a fixed clock with requestcontext.WithTime.
package requestcontext

import (
	"context"
	"time"

	id "badgeledger/pkg/domain"
)

type (
	accountKey     struct{}
	rolesKey       struct{}
	clientIPKey    struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyAccount     = accountKey{}
	ContextKeyRoles       = rolesKey{}
	ContextKeyClientIP    = clientIPKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// Account retrieves the authenticated caller. Returns the zero Account if unset.
func Account(ctx context.Context) id.Account {
	if a, ok := ctx.Value(ContextKeyAccount).(id.Account); ok {
		return a
	}
	return ""
}

// WithAccount injects the authenticated caller.
func WithAccount(ctx context.Context, account id.Account) context.Context {
	return context.WithValue(ctx, ContextKeyAccount, account)
}

// Roles retrieves the caller's granted roles.
func Roles(ctx context.Context) []string {
	if r, ok := ctx.Value(ContextKeyRoles).([]string); ok {
		return r
	}
	return nil
}

// WithRoles injects the caller's granted roles.
func WithRoles(ctx context.Context, roles []string) context.Context {
	return context.WithValue(ctx, ContextKeyRoles, roles)
}

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

// WithClientIP injects the client IP address.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ContextKeyClientIP, ip)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// TimePrecision is the resolution of request time. It matches PostgreSQL
// timestamps, so a stored time reads back equal to the one that was written.
const TimePrecision = time.Microsecond

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now().Truncate(TimePrecision)
}

// WithTime injects a specific time into a context, truncated to TimePrecision.
// Useful for:
//   - Service unit tests that don't run the full HTTP middleware chain
//   - Workers that need consistent time within a batch operation
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t.Truncate(TimePrecision))
}
