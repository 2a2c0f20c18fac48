package search

import (
	"strings"

	"github.com/parkside-crm/searchd/pkg/rel"
)

// TrigramProvider is the reference backend: case-insensitive substring
// matching via ILIKE, served by pg_trgm expression indexes in production.
type TrigramProvider struct{}

// NewTrigramProvider creates the trigram/substring provider.
func NewTrigramProvider() TrigramProvider {
	return TrigramProvider{}
}

// BuildTextPredicate escapes LIKE metacharacters in the query, wraps it as
// %query%, and builds a case-insensitive substring match against the
// expression.
func (TrigramProvider) BuildTextPredicate(expression rel.Expr, query string) rel.Expr {
	return rel.Match{Expr: expression, Pattern: "%" + escapeLike(query) + "%"}
}

// Apply implements Provider.
func (p TrigramProvider) Apply(c *rel.Collection, def Definition, query string, sctx Context) *rel.Collection {
	return applyDefinition(p, c, def, query, sctx)
}

var likeEscaper = strings.NewReplacer(
	`\`, `\\`,
	`%`, `\%`,
	`_`, `\_`,
)

// escapeLike neutralizes LIKE pattern metacharacters so user input always
// matches literally.
func escapeLike(query string) string {
	return likeEscaper.Replace(query)
}
