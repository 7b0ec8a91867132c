package query

// Expr is a filter-expression node. Expressions are built with the
// package's combinators and consumed by Serialize and Parameters.
type Expr interface {
	isExpr()
}

// Column references a column, optionally table-qualified.
type Column struct {
	Table string
	Name  string
}

func (Column) isExpr() {}

// C references a column by name.
func C(name string) Column { return Column{Name: name} }

// Value is a bindable literal. Serialize replaces it with a positional
// placeholder when the context asks for one.
type Value struct {
	V any
}

func (Value) isExpr() {}

// V wraps a literal value.
func V(v any) Value { return Value{V: v} }

// binary is an infix comparison between a column and a bindable value.
type binary struct {
	op    string
	left  Expr
	right Expr
}

func (binary) isExpr() {}

func compare(op, col string, v any) Expr {
	return binary{op: op, left: C(col), right: V(v)}
}

// Eq builds "col = ?".
func Eq(col string, v any) Expr { return compare("=", col, v) }

// Ne builds "col != ?".
func Ne(col string, v any) Expr { return compare("!=", col, v) }

// Lt builds "col < ?".
func Lt(col string, v any) Expr { return compare("<", col, v) }

// Le builds "col <= ?".
func Le(col string, v any) Expr { return compare("<=", col, v) }

// Gt builds "col > ?".
func Gt(col string, v any) Expr { return compare(">", col, v) }

// Ge builds "col >= ?".
func Ge(col string, v any) Expr { return compare(">=", col, v) }

// Like builds "col LIKE ?".
func Like(col string, pattern string) Expr { return compare("LIKE", col, pattern) }

// junction joins sub-expressions with AND or OR.
type junction struct {
	op    string
	parts []Expr
}

func (junction) isExpr() {}

// And joins expressions with AND.
func And(parts ...Expr) Expr { return junction{op: "AND", parts: parts} }

// Or joins expressions with OR.
func Or(parts ...Expr) Expr { return junction{op: "OR", parts: parts} }

// inExpr is "col IN (?, ?, ...)".
type inExpr struct {
	col  Column
	vals []Value
}

func (inExpr) isExpr() {}

// In builds "col IN (?, ...)" with one placeholder per value.
func In(col string, vals ...any) Expr {
	e := inExpr{col: C(col)}
	for _, v := range vals {
		e.vals = append(e.vals, V(v))
	}
	return e
}

// nullTest is "col IS [NOT] NULL".
type nullTest struct {
	col Column
	not bool
}

func (nullTest) isExpr() {}

// IsNull builds "col IS NULL".
func IsNull(col string) Expr { return nullTest{col: C(col)} }

// IsNotNull builds "col IS NOT NULL".
func IsNotNull(col string) Expr { return nullTest{col: C(col), not: true} }

// Assignment is one "col = ?" element of an UPDATE SET list.
type Assignment struct {
	Col   Column
	Value Value
}

// Set builds an assignment for UpdateAll.
func Set(col string, v any) Assignment {
	return Assignment{Col: C(col), Value: V(v)}
}
