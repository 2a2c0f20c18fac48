// Package contextkeys provides centralized context key definitions.
//
// All context keys used across the application are defined here. This
// prevents typos, documents dependencies, and makes key usage discoverable.
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// RequestIDKey contains request ID string (UUID)
	// Set by: middleware.RequestIDMiddleware
	// Used by: logger, audit lines
	// Type: string
	RequestIDKey Key = "request_id"

	// TenantKey contains the search context of the requesting tenant
	// Set by: middleware.TenantContextMiddleware
	// Required by: search handlers, tenant-guarded predicates
	// Type: search.Context
	TenantKey Key = "tenant_context"

	// ActorIDKey contains the acting user ID string
	// Set by: middleware.TenantContextMiddleware
	// Used by: audit lines
	// Type: string
	ActorIDKey Key = "actor_id"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithTenant adds the tenant search context to the context
func WithTenant(ctx context.Context, tenant interface{}) context.Context {
	return context.WithValue(ctx, TenantKey, tenant)
}

// GetTenant retrieves the tenant search context from the context
func GetTenant(ctx context.Context) interface{} {
	return ctx.Value(TenantKey)
}

// WithActorID adds the acting user ID to the context
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, ActorIDKey, actorID)
}

// GetActorID retrieves the acting user ID from context
func GetActorID(ctx context.Context) string {
	if actorID, ok := ctx.Value(ActorIDKey).(string); ok {
		return actorID
	}
	return ""
}
