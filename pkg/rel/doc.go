// Package rel provides a minimal lazy query-builder over SQL tables.
//
// # Overview
//
// A Collection represents a pending SELECT over one base table. It supports
// outer-join augmentation by named relation, row de-duplication (DISTINCT),
// filtering by a boolean expression tree, and bounding to at most N rows.
// Nothing touches the database until the caller materializes the collection
// with Query; building is side-effect-free and collections are value-like
// (every method returns a derived copy, the receiver is never mutated).
//
// # Expressions
//
// Filters are built from typed nodes rather than SQL strings:
//
//	Column    - table-qualified column reference
//	Literal   - bind parameter
//	Concat    - string concatenation ("||")
//	Coalesce  - NULL fallback
//	Cast      - type cast (e.g. uuid -> text)
//	Match     - case-insensitive substring match (ILIKE)
//	TextMatch - full-text match (tsvector @@ websearch_to_tsquery)
//	Eq        - equality against a bound value
//	And, Or   - boolean composition
//
// The PostgreSQL rendering of every node lives in Compile; callers never
// splice user input into SQL text, all values travel as numbered placeholders.
//
// # Usage Example
//
//	c := rel.New("listings").
//		LeftJoin(rel.Join{Table: "listing_locations", On: rel.EqCol(
//			rel.Column{Table: "listing_locations", Name: "listing_id"},
//			rel.Column{Table: "listings", Name: "id"},
//		)}).
//		Where(rel.Match{Expr: rel.Column{Table: "listings", Name: "title"}, Pattern: "%cottage%"}).
//		Limit(50)
//
//	rows, err := c.Query(ctx, db, "listings.id")
package rel
