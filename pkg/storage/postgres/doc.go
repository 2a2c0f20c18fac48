// Package postgres manages PostgreSQL connections for the search service.
//
// Searches are read-only, so the connection manager routes them to read
// replicas by round-robin when replicas are configured, falling back to the
// primary otherwise. Search history writes always go to the primary.
package postgres
