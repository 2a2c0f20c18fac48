// Package middleware provides the HTTP middleware chain: request ID
// assignment, tenant context extraction, and Redis-backed rate limiting.
//
// Middleware communicates with handlers exclusively through context values
// defined in pkg/contextkeys.
package middleware
