package search

import (
	"github.com/parkside-crm/searchd/pkg/rel"
)

// FTSProvider matches through PostgreSQL full-text search instead of
// substring scans: each field expression is folded into a tsvector and
// tested against a websearch-style tsquery. Word-boundary semantics differ
// from the trigram provider (no mid-word matches), which is the point of
// keeping it behind the same strategy interface.
type FTSProvider struct{}

// NewFTSProvider creates the full-text search provider.
func NewFTSProvider() FTSProvider {
	return FTSProvider{}
}

// BuildTextPredicate builds a full-text match for the expression.
// websearch_to_tsquery parses the raw query itself, so no escaping is
// needed here.
func (FTSProvider) BuildTextPredicate(expression rel.Expr, query string) rel.Expr {
	return rel.TextMatch{Expr: expression, Query: query}
}

// Apply implements Provider.
func (p FTSProvider) Apply(c *rel.Collection, def Definition, query string, sctx Context) *rel.Collection {
	return applyDefinition(p, c, def, query, sctx)
}
