package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/strata-db/strata/internal/sqlite"
	"github.com/strata-db/strata/pkg/query"
	"github.com/strata-db/strata/pkg/schema"
)

// selectColumnList renders the full declared column list for reads.
// Generated columns are included; the engine computes their values.
func selectColumnList(t *schema.Table) string {
	names := make([]string, len(t.Columns()))
	for i, c := range t.Columns() {
		names[i] = query.QuoteIdent(c.Name)
	}
	return strings.Join(names, ", ")
}

// scanRecord extracts the current row into a fresh record. Columns are
// consumed positionally in declaration order, matching the column list
// the SELECT was built from.
func scanRecord(t *schema.Table, rows *sql.Rows) (any, error) {
	cols := t.Columns()
	raw := make([]any, len(cols))
	targets := make([]any, len(cols))
	for i := range raw {
		targets[i] = &raw[i]
	}
	if err := rows.Scan(targets...); err != nil {
		return nil, fmt.Errorf("scanning row of %q: %w", t.Name(), err)
	}

	rec := t.NewRecord()
	for i, c := range cols {
		if err := c.Field.SetValue(rec, raw[i]); err != nil {
			return nil, fmt.Errorf("setting column %q of %q: %w", c.Name, t.Name(), err)
		}
	}
	return rec, nil
}

// getSQL renders "SELECT cols FROM t WHERE pk = ? AND ..." for a
// primary-key lookup.
func getSQL(t *schema.Table) (string, []schema.Column, error) {
	pks := t.PrimaryKey()
	if len(pks) == 0 {
		return "", nil, fmt.Errorf("table %q has no primary key to look up by", t.Name())
	}
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(selectColumnList(t))
	b.WriteString(" FROM ")
	b.WriteString(query.QuoteIdent(t.Name()))
	b.WriteString(" WHERE ")
	for i, c := range pks {
		if i > 0 {
			b.WriteString(" AND ")
		}
		b.WriteString(query.QuoteIdent(c.Name))
		b.WriteString(" = ?")
	}
	return b.String(), pks, nil
}

// getRow runs a primary-key lookup and extracts at most one record.
// Only the first row is consumed even if the key is not unique in the
// live database.
func getRow[T any](s *Storage, ids []any) (*T, error) {
	t, err := tableForType[T](s)
	if err != nil {
		return nil, err
	}
	stmtText, pks, err := getSQL(t)
	if err != nil {
		return nil, err
	}
	if len(ids) != len(pks) {
		return nil, fmt.Errorf("table %q has %d primary key columns, got %d values",
			t.Name(), len(pks), len(ids))
	}

	stmt, err := sqlite.Prepare(s.conn, stmtText, ids)
	if err != nil {
		return nil, err
	}
	defer stmt.Finalize()

	rows, err := stmt.Query(ids...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	rec, err := scanRecord(t, rows)
	if err != nil {
		return nil, err
	}
	return rec.(*T), nil
}

// Get returns the row of T with the given primary key. A missing row is
// ErrNotFound.
func Get[T any](s *Storage, ids ...any) (T, error) {
	var zero T
	rec, err := getRow[T](s, ids)
	if err != nil {
		return zero, err
	}
	if rec == nil {
		return zero, fmt.Errorf("%w: %T %v", schema.ErrNotFound, zero, ids)
	}
	return *rec, nil
}

// GetPointer returns the row of T with the given primary key, or nil
// when no such row exists.
func GetPointer[T any](s *Storage, ids ...any) (*T, error) {
	return getRow[T](s, ids)
}

// GetOptional returns the row of T with the given primary key; ok is
// false when no such row exists.
func GetOptional[T any](s *Storage, ids ...any) (rec T, ok bool, err error) {
	p, err := getRow[T](s, ids)
	if err != nil || p == nil {
		return rec, false, err
	}
	return *p, true, nil
}

// GetAll returns every row of T matching the clauses, in the order the
// clauses produce.
func GetAll[T any](s *Storage, clauses ...query.Clause) ([]T, error) {
	recs, err := GetAllPointer[T](s, clauses...)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(recs))
	for i, r := range recs {
		out[i] = *r
	}
	return out, nil
}

// GetAllPointer is GetAll returning pointers, sparing the copy for
// large records.
func GetAllPointer[T any](s *Storage, clauses ...query.Clause) ([]*T, error) {
	t, err := tableForType[T](s)
	if err != nil {
		return nil, err
	}
	ctx := query.Context{SkipTableName: true, ReplaceBindableWithQuestion: true}
	tail, err := query.SerializeClauses(clauses, ctx)
	if err != nil {
		return nil, err
	}
	stmtText := "SELECT " + selectColumnList(t) + " FROM " + query.QuoteIdent(t.Name()) + tail

	stmt, err := sqlite.Prepare(s.conn, stmtText, clauses)
	if err != nil {
		return nil, err
	}
	defer stmt.Finalize()

	rows, err := stmt.Query(query.ClauseParameters(clauses)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*T
	for rows.Next() {
		rec, err := scanRecord(t, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec.(*T))
	}
	return out, rows.Err()
}

// SelectColumn returns one column of T as typed values. NULL cells come
// back only when V can hold them; a NULL into a non-nullable V is
// ErrValueNull.
func SelectColumn[V any, T any](s *Storage, col string, clauses ...query.Clause) ([]V, error) {
	t, err := tableForType[T](s)
	if err != nil {
		return nil, err
	}
	if _, ok := t.FindColumn(col); !ok {
		return nil, fmt.Errorf("%w: %q in table %q", schema.ErrColumnNotFound, col, t.Name())
	}
	ctx := query.Context{SkipTableName: true, ReplaceBindableWithQuestion: true}
	tail, err := query.SerializeClauses(clauses, ctx)
	if err != nil {
		return nil, err
	}
	stmtText := "SELECT " + query.QuoteIdent(col) + " FROM " + query.QuoteIdent(t.Name()) + tail

	stmt, err := sqlite.Prepare(s.conn, stmtText, clauses)
	if err != nil {
		return nil, err
	}
	defer stmt.Finalize()

	rows, err := stmt.Query(query.ClauseParameters(clauses)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []V
	for rows.Next() {
		var raw any
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		v, err := convertScalar[V](raw)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Count returns the number of rows of T matching the clauses.
func Count[T any](s *Storage, clauses ...query.Clause) (int64, error) {
	return aggregateInt[T](s, "COUNT(*)", clauses)
}

// CountColumn returns the number of non-NULL values in col.
func CountColumn[T any](s *Storage, col string, clauses ...query.Clause) (int64, error) {
	t, err := tableForType[T](s)
	if err != nil {
		return 0, err
	}
	if _, ok := t.FindColumn(col); !ok {
		return 0, fmt.Errorf("%w: %q in table %q", schema.ErrColumnNotFound, col, t.Name())
	}
	return aggregateInt[T](s, "COUNT("+query.QuoteIdent(col)+")", clauses)
}

// Avg returns the average of col over the matching rows, or nil when no
// non-NULL values exist.
func Avg[T any](s *Storage, col string, clauses ...query.Clause) (*float64, error) {
	return aggregateNullableFloat[T](s, "AVG", col, clauses)
}

// Sum returns the sum of col, or nil when no non-NULL values exist.
// The engine's SUM distinguishes an empty input from a zero sum; Total
// collapses both to 0.
func Sum[T any](s *Storage, col string, clauses ...query.Clause) (*float64, error) {
	return aggregateNullableFloat[T](s, "SUM", col, clauses)
}

// Total returns the engine's TOTAL of col: 0.0 for an empty input.
func Total[T any](s *Storage, col string, clauses ...query.Clause) (float64, error) {
	p, err := aggregateNullableFloat[T](s, "TOTAL", col, clauses)
	if err != nil {
		return 0, err
	}
	if p == nil {
		return 0, nil
	}
	return *p, nil
}

// Min returns the minimum of col as a *V, nil when no rows match.
func Min[V any, T any](s *Storage, col string, clauses ...query.Clause) (*V, error) {
	return aggregateTyped[V, T](s, "MIN", col, clauses)
}

// Max returns the maximum of col as a *V, nil when no rows match.
func Max[V any, T any](s *Storage, col string, clauses ...query.Clause) (*V, error) {
	return aggregateTyped[V, T](s, "MAX", col, clauses)
}

// GroupConcat concatenates the non-NULL values of col with commas, or
// returns nil when no values exist.
func GroupConcat[T any](s *Storage, col string, clauses ...query.Clause) (*string, error) {
	return groupConcat[T](s, col, nil, clauses)
}

// GroupConcatSep is GroupConcat with an explicit separator.
func GroupConcatSep[T any](s *Storage, col, sep string, clauses ...query.Clause) (*string, error) {
	return groupConcat[T](s, col, &sep, clauses)
}

func groupConcat[T any](s *Storage, col string, sep *string, clauses []query.Clause) (*string, error) {
	t, err := tableForType[T](s)
	if err != nil {
		return nil, err
	}
	if _, ok := t.FindColumn(col); !ok {
		return nil, fmt.Errorf("%w: %q in table %q", schema.ErrColumnNotFound, col, t.Name())
	}

	expr := "GROUP_CONCAT(" + query.QuoteIdent(col)
	args := []any{}
	if sep != nil {
		expr += ", ?"
		args = append(args, *sep)
	}
	expr += ")"

	raw, err := aggregateRaw[T](s, expr, args, clauses)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	v, err := convertScalar[string](raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// aggregateRaw runs "SELECT expr FROM t <clauses>" and returns the one
// resulting cell. extra binds before the clause parameters, matching
// placeholder order in expr.
func aggregateRaw[T any](s *Storage, expr string, extra []any, clauses []query.Clause) (any, error) {
	t, err := tableForType[T](s)
	if err != nil {
		return nil, err
	}
	ctx := query.Context{SkipTableName: true, ReplaceBindableWithQuestion: true}
	tail, err := query.SerializeClauses(clauses, ctx)
	if err != nil {
		return nil, err
	}
	stmtText := "SELECT " + expr + " FROM " + query.QuoteIdent(t.Name()) + tail

	stmt, err := sqlite.Prepare(s.conn, stmtText, clauses)
	if err != nil {
		return nil, err
	}
	defer stmt.Finalize()

	args := append(append([]any{}, extra...), query.ClauseParameters(clauses)...)
	rows, err := stmt.Query(args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var raw any
	if err := rows.Scan(&raw); err != nil {
		return nil, err
	}
	return raw, rows.Err()
}

func aggregateInt[T any](s *Storage, expr string, clauses []query.Clause) (int64, error) {
	raw, err := aggregateRaw[T](s, expr, nil, clauses)
	if err != nil {
		return 0, err
	}
	if raw == nil {
		return 0, nil
	}
	return convertScalar[int64](raw)
}

func aggregateNullableFloat[T any](s *Storage, fn, col string, clauses []query.Clause) (*float64, error) {
	t, err := tableForType[T](s)
	if err != nil {
		return nil, err
	}
	if _, ok := t.FindColumn(col); !ok {
		return nil, fmt.Errorf("%w: %q in table %q", schema.ErrColumnNotFound, col, t.Name())
	}
	raw, err := aggregateRaw[T](s, fn+"("+query.QuoteIdent(col)+")", nil, clauses)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	v, err := convertScalar[float64](raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func aggregateTyped[V any, T any](s *Storage, fn, col string, clauses []query.Clause) (*V, error) {
	t, err := tableForType[T](s)
	if err != nil {
		return nil, err
	}
	if _, ok := t.FindColumn(col); !ok {
		return nil, fmt.Errorf("%w: %q in table %q", schema.ErrColumnNotFound, col, t.Name())
	}
	raw, err := aggregateRaw[T](s, fn+"("+query.QuoteIdent(col)+")", nil, clauses)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	v, err := convertScalar[V](raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// convertScalar coerces one database cell into V using the same rules
// record fields use. A NULL cell into a non-nullable V is ErrValueNull.
func convertScalar[V any](raw any) (V, error) {
	var v V
	if raw == nil {
		if !schema.NullableScalar(&v) {
			return v, fmt.Errorf("%w: NULL into %T", schema.ErrValueNull, v)
		}
		return v, nil
	}
	if err := schema.AssignScalar(&v, raw); err != nil {
		return v, err
	}
	return v, nil
}
