package rel

// Expr is a node in the expression tree compiled into a SQL fragment.
type Expr interface {
	isExpr()
}

// Column references a table-qualified column.
type Column struct {
	Table string
	Name  string
}

// Literal binds a value as a query parameter.
type Literal struct {
	Value interface{}
}

// Concat joins string expressions with the SQL "||" operator.
type Concat struct {
	Parts []Expr
}

// Coalesce returns the first non-NULL expression.
type Coalesce struct {
	Exprs []Expr
}

// Cast renders an expression cast ("expr::type").
type Cast struct {
	Expr Expr
	Type string
}

// Match is a case-insensitive substring match (ILIKE). The pattern is bound
// as a parameter; callers are responsible for escaping LIKE metacharacters.
type Match struct {
	Expr    Expr
	Pattern string
}

// TextMatch is a full-text match: the expression is folded into a tsvector
// and tested against a websearch-style query.
type TextMatch struct {
	Expr  Expr
	Query string
}

// Eq compares an expression against a bound value.
type Eq struct {
	Expr  Expr
	Value interface{}
}

// And is the conjunction of its operands.
type And struct {
	Exprs []Expr
}

// Or is the disjunction of its operands.
type Or struct {
	Exprs []Expr
}

func (Column) isExpr()    {}
func (Literal) isExpr()   {}
func (Concat) isExpr()    {}
func (Coalesce) isExpr()  {}
func (Cast) isExpr()      {}
func (Match) isExpr()     {}
func (TextMatch) isExpr() {}
func (Eq) isExpr()        {}
func (And) isExpr()       {}
func (Or) isExpr()        {}

// EqCol builds a column-to-column equality, used for join conditions.
func EqCol(left, right Column) Expr {
	return columnEq{left: left, right: right}
}

// columnEq compares two columns without binding parameters.
type columnEq struct {
	left  Column
	right Column
}

func (columnEq) isExpr() {}

// ConcatWS builds a single filterable expression joining parts with spaces,
// substituting the empty string for NULL parts. A NULL part must never
// propagate through the concatenation, which would NULL out the whole
// expression and silently drop rows from substring matches.
func ConcatWS(parts ...Expr) Expr {
	if len(parts) == 0 {
		return Literal{Value: ""}
	}

	joined := make([]Expr, 0, len(parts)*2-1)
	for i, part := range parts {
		if i > 0 {
			joined = append(joined, Literal{Value: " "})
		}
		joined = append(joined, Coalesce{Exprs: []Expr{part, Literal{Value: ""}}})
	}
	return Concat{Parts: joined}
}

// AnyOf combines predicates with OR, dropping nil entries. Returns nil when
// nothing remains, which callers treat as "no filter".
func AnyOf(exprs ...Expr) Expr {
	kept := make([]Expr, 0, len(exprs))
	for _, e := range exprs {
		if e != nil {
			kept = append(kept, e)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return Or{Exprs: kept}
	}
}
