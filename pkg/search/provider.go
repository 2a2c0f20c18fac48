package search

import (
	"github.com/parkside-crm/searchd/pkg/rel"
)

// Provider is the backend strategy for compiling and applying search
// predicates. Implementations are stateless and safe for concurrent use.
type Provider interface {
	PredicateBuilder

	// Apply joins the definition's relations onto the collection, compiles
	// its predicates for the normalized query, and narrows the collection by
	// their disjunction. When every predicate was omitted the joined
	// collection is returned unfiltered; that is the designed no-op case,
	// not an error.
	Apply(c *rel.Collection, def Definition, query string, sctx Context) *rel.Collection
}

// applyDefinition is the orchestration shared by all providers; only
// predicate construction differs between backends.
func applyDefinition(builder PredicateBuilder, c *rel.Collection, def Definition, query string, sctx Context) *rel.Collection {
	joined := def.ApplyJoins(c, sctx)
	if def.RequiresDistinct() {
		joined = joined.Distinct()
	}

	combined := rel.AnyOf(def.Predicates(query, sctx, builder)...)
	if combined == nil {
		return joined
	}
	return joined.Where(combined)
}
