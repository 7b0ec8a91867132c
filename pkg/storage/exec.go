package storage

import (
	"fmt"
	"strings"

	"github.com/strata-db/strata/internal/sqlite"
	"github.com/strata-db/strata/pkg/query"
	"github.com/strata-db/strata/pkg/schema"
)

// insertColumns returns the columns a plain insert binds: every
// non-generated column, minus the primary key on rowid tables where the
// engine assigns it.
func insertColumns(t *schema.Table) []schema.Column {
	var cols []schema.Column
	for _, c := range t.Columns() {
		if c.IsGenerated() {
			continue
		}
		if c.PrimaryKey && !t.WithoutRowID() {
			continue
		}
		cols = append(cols, c)
	}
	return cols
}

// replaceColumns returns the columns a replace binds: every
// non-generated column, primary key included.
func replaceColumns(t *schema.Table) []schema.Column {
	var cols []schema.Column
	for _, c := range t.Columns() {
		if !c.IsGenerated() {
			cols = append(cols, c)
		}
	}
	return cols
}

// bindValues extracts the record's values for cols, in column order.
func bindValues(rec any, cols []schema.Column) ([]any, error) {
	args := make([]any, 0, len(cols))
	for _, c := range cols {
		v, err := c.Field.Value(rec)
		if err != nil {
			return nil, fmt.Errorf("reading field for column %q: %w", c.Name, err)
		}
		args = append(args, v)
	}
	return args, nil
}

func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

func columnList(cols []schema.Column) string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = query.QuoteIdent(c.Name)
	}
	return strings.Join(names, ", ")
}

// Insert adds rec as a new row and returns the engine-assigned rowid.
// The primary key on the record is ignored for rowid tables; tables
// whose key layout rules out a plain insert report it here, not at
// registration.
func (s *Storage) Insert(rec any) (int64, error) {
	t, err := s.tableFor(rec)
	if err != nil {
		return 0, err
	}
	if err := t.InsertableErr(); err != nil {
		return 0, err
	}

	cols := insertColumns(t)
	stmtText := insertSQL("INSERT", t.Name(), cols, 1)
	stmt, err := sqlite.Prepare(s.conn, stmtText, rec)
	if err != nil {
		return 0, err
	}
	defer stmt.Finalize()

	args, err := bindValues(rec, cols)
	if err != nil {
		return 0, err
	}
	res, err := stmt.Exec(args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Replace writes rec with INSERT OR REPLACE semantics: a row with the
// same primary key is overwritten, otherwise a new row appears. Always
// available regardless of the table's key layout.
func (s *Storage) Replace(rec any) error {
	t, err := s.tableFor(rec)
	if err != nil {
		return err
	}
	cols := replaceColumns(t)
	stmtText := insertSQL("REPLACE", t.Name(), cols, 1)
	stmt, err := sqlite.Prepare(s.conn, stmtText, rec)
	if err != nil {
		return err
	}
	defer stmt.Finalize()

	args, err := bindValues(rec, cols)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(args...)
	return err
}

// Update rewrites the row whose primary key matches rec. Every
// non-key non-generated column is set; a missing row is not an error.
func (s *Storage) Update(rec any) error {
	t, err := s.tableFor(rec)
	if err != nil {
		return err
	}
	pks := t.PrimaryKey()
	if len(pks) == 0 {
		return fmt.Errorf("table %q has no primary key to update by", t.Name())
	}

	var setCols []schema.Column
	for _, c := range t.Columns() {
		if c.PrimaryKey || c.IsGenerated() {
			continue
		}
		setCols = append(setCols, c)
	}
	if len(setCols) == 0 {
		return fmt.Errorf("table %q has no updatable columns", t.Name())
	}

	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(query.QuoteIdent(t.Name()))
	b.WriteString(" SET ")
	for i, c := range setCols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(query.QuoteIdent(c.Name))
		b.WriteString(" = ?")
	}
	b.WriteString(" WHERE ")
	for i, c := range pks {
		if i > 0 {
			b.WriteString(" AND ")
		}
		b.WriteString(query.QuoteIdent(c.Name))
		b.WriteString(" = ?")
	}

	stmt, err := sqlite.Prepare(s.conn, b.String(), rec)
	if err != nil {
		return err
	}
	defer stmt.Finalize()

	// SET values first, WHERE values after, matching placeholder order.
	args, err := bindValues(rec, setCols)
	if err != nil {
		return err
	}
	keyArgs, err := bindValues(rec, pks)
	if err != nil {
		return err
	}
	_, err = stmt.Exec(append(args, keyArgs...)...)
	return err
}

// Remove deletes the row of T whose primary key equals ids. The number
// of ids must match the key width; deleting an absent row is not an
// error.
func Remove[T any](s *Storage, ids ...any) error {
	t, err := tableForType[T](s)
	if err != nil {
		return err
	}
	pks := t.PrimaryKey()
	if len(ids) != len(pks) {
		return fmt.Errorf("table %q has %d primary key columns, got %d values",
			t.Name(), len(pks), len(ids))
	}

	var b strings.Builder
	b.WriteString("DELETE FROM ")
	b.WriteString(query.QuoteIdent(t.Name()))
	b.WriteString(" WHERE ")
	for i, c := range pks {
		if i > 0 {
			b.WriteString(" AND ")
		}
		b.WriteString(query.QuoteIdent(c.Name))
		b.WriteString(" = ?")
	}

	stmt, err := sqlite.Prepare(s.conn, b.String(), ids)
	if err != nil {
		return err
	}
	defer stmt.Finalize()
	_, err = stmt.Exec(ids...)
	return err
}

// RemoveAll deletes every row of T matching the clauses; with no
// clauses the whole table empties.
func RemoveAll[T any](s *Storage, clauses ...query.Clause) error {
	t, err := tableForType[T](s)
	if err != nil {
		return err
	}
	ctx := query.Context{SkipTableName: true, ReplaceBindableWithQuestion: true}
	tail, err := query.SerializeClauses(clauses, ctx)
	if err != nil {
		return err
	}
	stmtText := "DELETE FROM " + query.QuoteIdent(t.Name()) + tail

	stmt, err := sqlite.Prepare(s.conn, stmtText, clauses)
	if err != nil {
		return err
	}
	defer stmt.Finalize()
	_, err = stmt.Exec(query.ClauseParameters(clauses)...)
	return err
}

// UpdateAll applies the assignments to every row of T matching the
// clauses. Assignment values bind first, clause values after, in the
// order the placeholders appear.
func UpdateAll[T any](s *Storage, sets []query.Assignment, clauses ...query.Clause) error {
	t, err := tableForType[T](s)
	if err != nil {
		return err
	}
	if len(sets) == 0 {
		return fmt.Errorf("update of %q needs at least one assignment", t.Name())
	}
	ctx := query.Context{SkipTableName: true, ReplaceBindableWithQuestion: true}

	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(query.QuoteIdent(t.Name()))
	b.WriteString(" SET ")
	args := make([]any, 0, len(sets))
	for i, a := range sets {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(query.QuoteIdent(a.Col.Name))
		b.WriteString(" = ?")
		args = append(args, a.Value.V)
	}
	tail, err := query.SerializeClauses(clauses, ctx)
	if err != nil {
		return err
	}
	b.WriteString(tail)

	stmt, err := sqlite.Prepare(s.conn, b.String(), sets)
	if err != nil {
		return err
	}
	defer stmt.Finalize()
	_, err = stmt.Exec(append(args, query.ClauseParameters(clauses)...)...)
	return err
}

// InsertRange adds all records in one multi-row statement. The records
// bind left to right, each contributing its insert columns in order.
// An empty slice is a no-op.
func InsertRange[T any](s *Storage, recs []*T) error {
	return execRange(s, recs, "INSERT", insertColumns)
}

// ReplaceRange writes all records in one multi-row INSERT OR REPLACE
// statement. An empty slice is a no-op.
func ReplaceRange[T any](s *Storage, recs []*T) error {
	return execRange(s, recs, "REPLACE", replaceColumns)
}

func execRange[T any](s *Storage, recs []*T, verb string, pick func(*schema.Table) []schema.Column) error {
	if len(recs) == 0 {
		return nil
	}
	t, err := tableForType[T](s)
	if err != nil {
		return err
	}
	if verb == "INSERT" {
		if err := t.InsertableErr(); err != nil {
			return err
		}
	}

	cols := pick(t)
	stmtText := insertSQL(verb, t.Name(), cols, len(recs))
	stmt, err := sqlite.Prepare(s.conn, stmtText, recs)
	if err != nil {
		return err
	}
	defer stmt.Finalize()

	args := make([]any, 0, len(recs)*len(cols))
	for _, rec := range recs {
		vals, err := bindValues(rec, cols)
		if err != nil {
			return err
		}
		args = append(args, vals...)
	}
	_, err = stmt.Exec(args...)
	return err
}

// insertSQL renders "INSERT INTO t (cols) VALUES (?..), (?..)" with
// rows value groups. verb is INSERT or REPLACE.
func insertSQL(verb, table string, cols []schema.Column, rows int) string {
	var b strings.Builder
	b.WriteString(verb)
	b.WriteString(" INTO ")
	b.WriteString(query.QuoteIdent(table))
	if len(cols) == 0 {
		// Only the engine-assigned rowid remains to insert.
		b.WriteString(" DEFAULT VALUES")
		return b.String()
	}
	b.WriteString(" (")
	b.WriteString(columnList(cols))
	b.WriteString(") VALUES ")
	group := "(" + placeholders(len(cols)) + ")"
	for i := 0; i < rows; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(group)
	}
	return b.String()
}
