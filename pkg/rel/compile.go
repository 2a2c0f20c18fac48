package rel

import (
	"fmt"
	"strings"
)

// Args accumulates bind parameters while an expression tree is compiled.
// Placeholders are numbered in PostgreSQL style ($1, $2, ...).
type Args struct {
	values []interface{}
}

// Add binds a value and returns its placeholder.
func (a *Args) Add(value interface{}) string {
	a.values = append(a.values, value)
	return fmt.Sprintf("$%d", len(a.values))
}

// Values returns the bound values in placeholder order.
func (a *Args) Values() []interface{} {
	return a.values
}

// Compile renders an expression tree into a PostgreSQL fragment, appending
// bind parameters to args.
func Compile(e Expr, args *Args) (string, error) {
	switch node := e.(type) {
	case Column:
		if node.Table == "" || node.Name == "" {
			return "", fmt.Errorf("column reference requires table and name, got %q.%q", node.Table, node.Name)
		}
		return node.Table + "." + node.Name, nil

	case Literal:
		return args.Add(node.Value), nil

	case Concat:
		if len(node.Parts) == 0 {
			return "", fmt.Errorf("concat requires at least one part")
		}
		parts, err := compileAll(node.Parts, args)
		if err != nil {
			return "", err
		}
		return "(" + strings.Join(parts, " || ") + ")", nil

	case Coalesce:
		if len(node.Exprs) == 0 {
			return "", fmt.Errorf("coalesce requires at least one expression")
		}
		parts, err := compileAll(node.Exprs, args)
		if err != nil {
			return "", err
		}
		return "coalesce(" + strings.Join(parts, ", ") + ")", nil

	case Cast:
		inner, err := Compile(node.Expr, args)
		if err != nil {
			return "", err
		}
		return "(" + inner + ")::" + node.Type, nil

	case Match:
		inner, err := Compile(node.Expr, args)
		if err != nil {
			return "", err
		}
		return inner + " ILIKE " + args.Add(node.Pattern), nil

	case TextMatch:
		inner, err := Compile(node.Expr, args)
		if err != nil {
			return "", err
		}
		return "to_tsvector('simple', " + inner + ") @@ websearch_to_tsquery('simple', " + args.Add(node.Query) + ")", nil

	case Eq:
		inner, err := Compile(node.Expr, args)
		if err != nil {
			return "", err
		}
		return inner + " = " + args.Add(node.Value), nil

	case columnEq:
		left, err := Compile(node.left, args)
		if err != nil {
			return "", err
		}
		right, err := Compile(node.right, args)
		if err != nil {
			return "", err
		}
		return left + " = " + right, nil

	case And:
		return compileBoolean(node.Exprs, " AND ", args)

	case Or:
		return compileBoolean(node.Exprs, " OR ", args)

	case nil:
		return "", fmt.Errorf("cannot compile nil expression")

	default:
		return "", fmt.Errorf("unsupported expression node %T", e)
	}
}

func compileAll(exprs []Expr, args *Args) ([]string, error) {
	parts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		part, err := Compile(e, args)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return parts, nil
}

func compileBoolean(exprs []Expr, op string, args *Args) (string, error) {
	if len(exprs) == 0 {
		return "", fmt.Errorf("boolean composition requires at least one operand")
	}
	parts, err := compileAll(exprs, args)
	if err != nil {
		return "", err
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + strings.Join(parts, op) + ")", nil
}
