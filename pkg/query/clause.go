package query

// Clause is a trailing statement clause: WHERE, GROUP BY, ORDER BY,
// LIMIT, OFFSET. Clauses serialize in that canonical order regardless
// of the order they were passed in.
type Clause interface {
	isClause()
}

type whereClause struct{ expr Expr }

func (whereClause) isClause() {}

// Where attaches a filter expression.
func Where(e Expr) Clause { return whereClause{expr: e} }

type orderTerm struct {
	col  Column
	desc bool
}

type orderClause struct{ terms []orderTerm }

func (orderClause) isClause() {}

// OrderBy sorts ascending by col.
func OrderBy(col string) Clause {
	return orderClause{terms: []orderTerm{{col: C(col)}}}
}

// OrderByDesc sorts descending by col.
func OrderByDesc(col string) Clause {
	return orderClause{terms: []orderTerm{{col: C(col), desc: true}}}
}

type groupClause struct{ cols []Column }

func (groupClause) isClause() {}

// GroupBy groups by the named columns.
func GroupBy(cols ...string) Clause {
	g := groupClause{}
	for _, c := range cols {
		g.cols = append(g.cols, C(c))
	}
	return g
}

// Limit and offset render as integer literals, not placeholders, so
// they contribute nothing to the parameter sequence.

type limitClause struct{ n int64 }

func (limitClause) isClause() {}

// Limit caps the number of rows.
func Limit(n int64) Clause { return limitClause{n: n} }

type offsetClause struct{ n int64 }

func (offsetClause) isClause() {}

// Offset skips the first n rows.
func Offset(n int64) Clause { return offsetClause{n: n} }
