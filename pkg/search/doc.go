// Package search compiles free-form query strings into filter predicates
// over lazy SQL collections.
//
// # Overview
//
// A search call carries an entity key, an already-scoped collection bound to
// that entity's base table, the raw query string, a tenant context and an
// optional result cap. The QueryService validates and normalizes the query,
// looks up the entity's Definition in the Registry, and delegates to the
// configured Provider, which joins the relations the definition needs and
// combines its field predicates with OR. The narrowed collection comes back
// to the caller unexecuted; materialization stays the caller's concern.
//
// # Components
//
// Context: immutable tenant/actor capsule threaded through every call.
//
// Parser: trims and squishes the raw query, enforces the length bound, and
// produces a PII-masked twin used exclusively for logging.
//
// Registry: fixed entity-key -> Definition map assembled at startup. Adding
// a searchable entity means one new Definition and one table row.
//
// Definition: per-entity rule set declaring join augmentation, duplicate-row
// suppression, and the field expressions tested as OR alternatives.
//
// Provider: pluggable predicate backend. The trigram provider compiles
// escaped ILIKE substring matches; the FTS provider compiles websearch
// tsquery matches over the same expressions.
//
// QueryService: the facade other subsystems call, plus the PII-safe audit
// line. SuggestionService records masked search history and serves prefix
// suggestions from a cached materialized view.
//
// # Usage Example
//
//	svc := search.NewQueryService(search.Config{
//		Provider:       "postgres",
//		QueryMaxLength: 256,
//		MaxResults:     500,
//	}, search.NewRegistry(), logger)
//
//	sctx := search.NewContext(agencyID, userID)
//	base, _ := search.BaseCollection(search.EntityListings, sctx)
//	narrowed, err := svc.Search(ctx, search.EntityListings, base, "lakeside", sctx, 50)
//
// # Concurrency
//
// Every component is stateless after construction: Registry, Definitions and
// Providers are read-only for the process lifetime, and each call builds its
// own parsed query and predicate list. Unbounded concurrent use needs no
// locking.
package search
