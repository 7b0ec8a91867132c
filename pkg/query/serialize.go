package query

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Context carries serialization flags. SkipTableName suppresses table
// qualifiers on column references; ReplaceBindableWithQuestion replaces
// literal values with positional placeholders (the form used for
// preparing statements; the literal form is for diagnostics).
type Context struct {
	SkipTableName               bool
	ReplaceBindableWithQuestion bool
}

// QuoteIdent quotes a SQL identifier, doubling embedded quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Serialize renders an expression to SQL text. The placeholder emission
// order equals the Parameters walk order by construction: both use the
// same left-to-right traversal.
func Serialize(e Expr, ctx Context) (string, error) {
	var sb strings.Builder
	if err := writeExpr(&sb, e, ctx); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func writeExpr(sb *strings.Builder, e Expr, ctx Context) error {
	switch n := e.(type) {
	case Column:
		if n.Table != "" && !ctx.SkipTableName {
			sb.WriteString(QuoteIdent(n.Table))
			sb.WriteByte('.')
		}
		sb.WriteString(QuoteIdent(n.Name))
	case Value:
		if ctx.ReplaceBindableWithQuestion {
			sb.WriteByte('?')
		} else {
			sb.WriteString(renderLiteral(n.V))
		}
	case binary:
		if err := writeExpr(sb, n.left, ctx); err != nil {
			return err
		}
		sb.WriteByte(' ')
		sb.WriteString(n.op)
		sb.WriteByte(' ')
		if err := writeExpr(sb, n.right, ctx); err != nil {
			return err
		}
	case junction:
		if len(n.parts) == 0 {
			return fmt.Errorf("empty %s expression", n.op)
		}
		sb.WriteByte('(')
		for i, p := range n.parts {
			if i > 0 {
				sb.WriteString(" " + n.op + " ")
			}
			if err := writeExpr(sb, p, ctx); err != nil {
				return err
			}
		}
		sb.WriteByte(')')
	case inExpr:
		if err := writeExpr(sb, n.col, ctx); err != nil {
			return err
		}
		sb.WriteString(" IN (")
		for i, v := range n.vals {
			if i > 0 {
				sb.WriteString(", ")
			}
			if err := writeExpr(sb, v, ctx); err != nil {
				return err
			}
		}
		sb.WriteByte(')')
	case nullTest:
		if err := writeExpr(sb, n.col, ctx); err != nil {
			return err
		}
		if n.not {
			sb.WriteString(" IS NOT NULL")
		} else {
			sb.WriteString(" IS NULL")
		}
	default:
		return fmt.Errorf("unknown expression node %T", e)
	}
	return nil
}

// SerializeClauses renders clauses in canonical order (WHERE, GROUP BY,
// ORDER BY, LIMIT, OFFSET) with a leading space when non-empty.
func SerializeClauses(clauses []Clause, ctx Context) (string, error) {
	var where []Expr
	var groups []Column
	var orders []orderTerm
	var limit, offset *int64

	for _, c := range clauses {
		switch n := c.(type) {
		case whereClause:
			where = append(where, n.expr)
		case groupClause:
			groups = append(groups, n.cols...)
		case orderClause:
			orders = append(orders, n.terms...)
		case limitClause:
			v := n.n
			limit = &v
		case offsetClause:
			v := n.n
			offset = &v
		default:
			return "", fmt.Errorf("unknown clause %T", c)
		}
	}

	var sb strings.Builder
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		for i, e := range where {
			if i > 0 {
				sb.WriteString(" AND ")
			}
			if err := writeExpr(&sb, e, ctx); err != nil {
				return "", err
			}
		}
	}
	if len(groups) > 0 {
		sb.WriteString(" GROUP BY ")
		for i, g := range groups {
			if i > 0 {
				sb.WriteString(", ")
			}
			if err := writeExpr(&sb, g, ctx); err != nil {
				return "", err
			}
		}
	}
	if len(orders) > 0 {
		sb.WriteString(" ORDER BY ")
		for i, o := range orders {
			if i > 0 {
				sb.WriteString(", ")
			}
			if err := writeExpr(&sb, o.col, ctx); err != nil {
				return "", err
			}
			if o.desc {
				sb.WriteString(" DESC")
			}
		}
	}
	if limit != nil {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.FormatInt(*limit, 10))
	}
	if offset != nil {
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.FormatInt(*offset, 10))
	}
	return sb.String(), nil
}

// Parameters returns the bindable values of an expression in the exact
// order Serialize emits their placeholders.
func Parameters(e Expr) []any {
	var out []any
	collectParams(e, &out)
	return out
}

func collectParams(e Expr, out *[]any) {
	switch n := e.(type) {
	case Value:
		*out = append(*out, n.V)
	case binary:
		collectParams(n.left, out)
		collectParams(n.right, out)
	case junction:
		for _, p := range n.parts {
			collectParams(p, out)
		}
	case inExpr:
		for _, v := range n.vals {
			collectParams(v, out)
		}
	}
}

// ClauseParameters returns the bindable values of a clause list in
// serialization order. Only WHERE expressions carry bindables; limit
// and offset render as literals.
func ClauseParameters(clauses []Clause) []any {
	var out []any
	for _, c := range clauses {
		if w, ok := c.(whereClause); ok {
			collectParams(w.expr, &out)
		}
	}
	return out
}

// renderLiteral renders a value as a SQL literal for diagnostics.
func renderLiteral(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	case []byte:
		return "X'" + strings.ToUpper(hex.EncodeToString(x)) + "'"
	case bool:
		if x {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprintf("%v", x)
	}
}
