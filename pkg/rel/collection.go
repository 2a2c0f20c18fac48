package rel

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"
)

// Join describes an outer join to a related table. Rows lacking the related
// row remain candidates (LEFT JOIN), so optional relations never exclude a
// base row by themselves.
type Join struct {
	Table string
	On    Expr
}

// Queryer is the subset of *sql.DB used to materialize a collection. It is
// satisfied by *sql.DB, *sql.Tx and *sql.Conn.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// Collection is a lazy SELECT over one base table. The zero value is not
// usable; construct with New. All builder methods return a derived copy.
type Collection struct {
	table    string
	joins    []Join
	where    []Expr
	distinct bool
	limit    int
}

// New creates a collection over the given base table.
func New(table string) *Collection {
	return &Collection{table: table}
}

// Table returns the base table name.
func (c *Collection) Table() string {
	return c.table
}

func (c *Collection) clone() *Collection {
	dup := &Collection{
		table:    c.table,
		joins:    make([]Join, len(c.joins)),
		where:    make([]Expr, len(c.where)),
		distinct: c.distinct,
		limit:    c.limit,
	}
	copy(dup.joins, c.joins)
	copy(dup.where, c.where)
	return dup
}

// LeftJoin augments the collection with an outer join. Declaring the same
// join again is a no-op, so independent callers may declare overlapping
// relation paths. Joining a table under a different condition is not
// merged: both joins are rendered and the database rejects the duplicate
// table name, rather than one condition silently winning.
func (c *Collection) LeftJoin(join Join) *Collection {
	for _, existing := range c.joins {
		if existing.Table == join.Table && reflect.DeepEqual(existing.On, join.On) {
			return c
		}
	}
	dup := c.clone()
	dup.joins = append(dup.joins, join)
	return dup
}

// Where narrows the collection by a predicate. Multiple calls are combined
// with AND. A nil predicate is ignored.
func (c *Collection) Where(predicate Expr) *Collection {
	if predicate == nil {
		return c
	}
	dup := c.clone()
	dup.where = append(dup.where, predicate)
	return dup
}

// Distinct enables row de-duplication. Required whenever a join can yield
// multiple matching rows per base row.
func (c *Collection) Distinct() *Collection {
	if c.distinct {
		return c
	}
	dup := c.clone()
	dup.distinct = true
	return dup
}

// Limit bounds the collection to at most n rows. Non-positive values are
// ignored and leave the collection unbounded.
func (c *Collection) Limit(n int) *Collection {
	if n <= 0 {
		return c
	}
	dup := c.clone()
	dup.limit = n
	return dup
}

// SQL renders the collection as a SELECT statement over the given columns.
func (c *Collection) SQL(columns ...string) (string, []interface{}, error) {
	if c.table == "" {
		return "", nil, fmt.Errorf("collection has no base table")
	}
	if len(columns) == 0 {
		columns = []string{c.table + ".*"}
	}

	var b strings.Builder
	args := &Args{}

	b.WriteString("SELECT ")
	if c.distinct {
		b.WriteString("DISTINCT ")
	}
	b.WriteString(strings.Join(columns, ", "))
	b.WriteString(" FROM ")
	b.WriteString(c.table)

	for _, join := range c.joins {
		on, err := Compile(join.On, args)
		if err != nil {
			return "", nil, fmt.Errorf("compile join on %s: %w", join.Table, err)
		}
		b.WriteString(" LEFT JOIN ")
		b.WriteString(join.Table)
		b.WriteString(" ON ")
		b.WriteString(on)
	}

	if len(c.where) > 0 {
		combined, err := compileBoolean(c.where, " AND ", args)
		if err != nil {
			return "", nil, fmt.Errorf("compile where: %w", err)
		}
		b.WriteString(" WHERE ")
		b.WriteString(combined)
	}

	if c.limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(args.Add(c.limit))
	}

	return b.String(), args.Values(), nil
}

// Query materializes the collection against the database.
func (c *Collection) Query(ctx context.Context, db Queryer, columns ...string) (*sql.Rows, error) {
	query, args, err := c.SQL(columns...)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c.table, err)
	}
	return rows, nil
}
