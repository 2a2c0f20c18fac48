package search

import (
	"github.com/parkside-crm/searchd/pkg/phone"
	"github.com/parkside-crm/searchd/pkg/rel"
)

// EntityKey identifies a searchable entity kind.
type EntityKey string

const (
	EntityListings          EntityKey = "listings"
	EntityAgencyUsers       EntityKey = "agency_users"
	EntityPurchaseInquiries EntityKey = "purchase_inquiries"
	EntityCategories        EntityKey = "categories"
	EntityCharacteristics   EntityKey = "characteristics"
	EntityListingOwners     EntityKey = "listing_owners"
)

// PredicateBuilder compiles one column/expression plus the normalized query
// into a match predicate under the active backend's semantics. It is the
// only predicate-construction primitive exposed to definitions; definitions
// never build backend-specific expressions beyond naming columns.
type PredicateBuilder interface {
	BuildTextPredicate(expression rel.Expr, query string) rel.Expr
}

// Definition is the per-entity search rule set: which relations must be
// joined to reach searchable fields, whether those joins require
// duplicate-row suppression, and which field expressions are tested as OR
// alternatives. Definitions are stateless, constructed once at startup and
// reused across calls.
type Definition interface {
	// Entity returns the key this definition is registered under.
	Entity() EntityKey

	// RequiresDistinct reports whether joins can produce multiple matching
	// rows per base row, requiring de-duplication.
	RequiresDistinct() bool

	// ApplyJoins augments the collection with only the relations needed for
	// this definition's fields, as outer joins.
	ApplyJoins(c *rel.Collection, sctx Context) *rel.Collection

	// Predicates returns the match predicates for the normalized query.
	// Entries may be nil when a field contributed no usable condition (an
	// unparseable phone-shaped query); callers drop them.
	Predicates(query string, sctx Context, builder PredicateBuilder) []rel.Expr
}

// baseDefinition carries the identity shared by all definitions.
type baseDefinition struct {
	entity   EntityKey
	distinct bool
}

func (d baseDefinition) Entity() EntityKey {
	return d.entity
}

func (d baseDefinition) RequiresDistinct() bool {
	return d.distinct
}

func (baseDefinition) ApplyJoins(c *rel.Collection, _ Context) *rel.Collection {
	return c
}

// fullName builds the single filterable expression "last first middle" with
// empty-string fallbacks, so multi-word queries spanning name parts match
// and NULL parts never null out the whole concatenation.
func fullName(table string) rel.Expr {
	return rel.ConcatWS(
		col(table, "last_name"),
		col(table, "first_name"),
		col(table, "middle_name"),
	)
}

// phonePredicate normalizes the query as a phone number before matching,
// since phone queries usually carry formatting punctuation. Returns nil when
// the query has no extractable digits: the field then contributes no match
// condition, which is a documented degenerate case rather than an error.
func phonePredicate(builder PredicateBuilder, expression rel.Expr, query string) rel.Expr {
	normalized := phone.Normalize(query)
	if normalized == "" {
		return nil
	}
	return builder.BuildTextPredicate(expression, normalized)
}
