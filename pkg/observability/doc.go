// Package observability provides structured logging, Prometheus metrics and
// OpenTelemetry tracing for the search service.
//
// # Components
//
// Logger: structured JSON logging on top of stdlib slog, with field chaining
// (WithField/WithFields/WithError) and context propagation helpers.
//
// Metrics: Prometheus collectors for HTTP traffic, executed searches by
// entity and provider, suggestion cache effectiveness, and database
// connection pool state, plus the /metrics handler and an HTTP middleware
// that records request counts and latencies.
//
// Tracing: OTLP/gRPC trace exporter bootstrap. When disabled in
// configuration the global tracer provider stays a no-op, so instrumented
// code paths need no feature flags.
package observability
