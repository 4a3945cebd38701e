// Package requestcontext provides HTTP-independent accessors for
// request-scoped values.
//
// Middleware sets values; services read them without importing net/http.
// The injectable clock (Now/WithTime) is what lets retention tests pin the
// evaluation time instead of sleeping.
package requestcontext

import (
	"context"
	"time"

	id "sirenops/pkg/domain"
)

type (
	actorIDKey     struct{}
	actorRoleKey   struct{}
	orgIDKey       struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need raw context.WithValue.
var (
	ContextKeyActorID     = actorIDKey{}
	ContextKeyActorRole   = actorRoleKey{}
	ContextKeyOrgID       = orgIDKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// ActorID retrieves the authenticated actor from the context.
// Returns the zero value if not set.
func ActorID(ctx context.Context) id.ActorID {
	if actorID, ok := ctx.Value(ContextKeyActorID).(id.ActorID); ok {
		return actorID
	}
	return id.ActorID{}
}

// WithActorID injects an actor ID into the context.
func WithActorID(ctx context.Context, actorID id.ActorID) context.Context {
	return context.WithValue(ctx, ContextKeyActorID, actorID)
}

// ActorRole retrieves the actor's role claim, used for attribution only.
func ActorRole(ctx context.Context) string {
	if role, ok := ctx.Value(ContextKeyActorRole).(string); ok {
		return role
	}
	return ""
}

// WithActorRole injects the actor's role into the context.
func WithActorRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ContextKeyActorRole, role)
}

// OrgID retrieves the tenant scope of the request.
func OrgID(ctx context.Context) id.OrgID {
	if orgID, ok := ctx.Value(ContextKeyOrgID).(id.OrgID); ok {
		return orgID
	}
	return id.OrgID{}
}

// WithOrgID injects the tenant scope into the context.
func WithOrgID(ctx context.Context, orgID id.OrgID) context.Context {
	return context.WithValue(ctx, ContextKeyOrgID, orgID)
}

// RequestID retrieves the correlation ID set by middleware.
func RequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithRequestID injects a correlation ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now returns the request time if one was injected, falling back to the
// wall clock. All retention arithmetic goes through this accessor.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now().UTC()
}

// WithTime pins the request time, typically in middleware or tests.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
