package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// Table is the static description of one mapped table: name, ordered
// columns, and storage mode. It also owns the record factory used when
// reconstructing rows.
type Table struct {
	name         string
	columns      []Column
	withoutRowid bool
	newRecord    func() any
	recordType   reflect.Type

	// insertableErr is computed once at registration; a plain Insert on
	// this table returns it when non-nil.
	insertableErr error
}

// TableOption adjusts a table at construction time.
type TableOption func(*Table)

// WithoutRowid declares the table as WITHOUT ROWID. Such tables bind
// every non-generated column on insert, primary keys included.
func WithoutRowid() TableOption {
	return func(t *Table) { t.withoutRowid = true }
}

// NewTable builds and validates a table description. newRecord must
// return a pointer to a fresh record; the record's dynamic type is the
// mapping key inside a Storage.
func NewTable(name string, newRecord func() any, columns []Column, opts ...TableOption) (*Table, error) {
	if name == "" {
		return nil, fmt.Errorf("table name must not be empty")
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %q has no columns", name)
	}

	rec := newRecord()
	rt := reflect.TypeOf(rec)
	if rt == nil || rt.Kind() != reflect.Pointer {
		return nil, fmt.Errorf("table %q record factory must return a pointer, got %T", name, rec)
	}

	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if c.Name == "" {
			return nil, fmt.Errorf("table %q has a column with an empty name", name)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("table %q declares column %q twice", name, c.Name)
		}
		seen[c.Name] = true
		if c.IsGenerated() && c.GeneratedExpr == "" {
			return nil, fmt.Errorf("table %q generated column %q has no expression", name, c.Name)
		}
		if c.Field == nil {
			return nil, fmt.Errorf("table %q column %q has no field accessor", name, c.Name)
		}
	}

	t := &Table{
		name:       name,
		columns:    columns,
		newRecord:  newRecord,
		recordType: rt,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.insertableErr = t.checkInsertable()
	return t, nil
}

// checkInsertable decides once whether the table admits a plain insert.
// WITHOUT ROWID tables always do. Otherwise the table may carry at most
// one insertable primary key, and it must be integer-typed; Replace
// remains available for anything else.
func (t *Table) checkInsertable() error {
	if t.withoutRowid {
		return nil
	}
	var pks []Column
	for _, c := range t.columns {
		if c.PrimaryKey {
			pks = append(pks, c)
		}
	}
	if len(pks) > 1 {
		return fmt.Errorf("%w: table %q has %d primary keys; use Replace or explicit column lists",
			ErrNotInsertable, t.name, len(pks))
	}
	if len(pks) == 1 && !isIntegerType(pks[0].Type) {
		return fmt.Errorf("%w: table %q primary key %q is %s, not INTEGER; use Replace",
			ErrNotInsertable, t.name, pks[0].Name, pks[0].Type)
	}
	return nil
}

func isIntegerType(sqlType string) bool {
	return strings.Contains(strings.ToUpper(sqlType), "INT")
}

// Name returns the current in-memory table name.
func (t *Table) Name() string { return t.name }

// Rename changes the table name inside the in-memory model only. It
// never issues SQL against the database.
func (t *Table) Rename(name string) { t.name = name }

// Columns returns the ordered column descriptors.
func (t *Table) Columns() []Column { return t.columns }

// WithoutRowID reports the declared storage mode.
func (t *Table) WithoutRowID() bool { return t.withoutRowid }

// NewRecord returns a pointer to a fresh zero record.
func (t *Table) NewRecord() any { return t.newRecord() }

// RecordType returns the pointer type produced by the record factory.
func (t *Table) RecordType() reflect.Type { return t.recordType }

// InsertableErr returns the configuration error that makes a plain
// Insert unusable, or nil.
func (t *Table) InsertableErr() error { return t.insertableErr }

// PrimaryKey returns the primary-key columns in declaration order.
func (t *Table) PrimaryKey() []Column {
	var pks []Column
	for _, c := range t.columns {
		if c.PrimaryKey {
			pks = append(pks, c)
		}
	}
	return pks
}

// FindColumn returns the column with the given name.
func (t *Table) FindColumn(name string) (Column, bool) {
	for _, c := range t.columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// GeneratedKindOf returns the generated-column kind for name, or
// GeneratedNone with ok=false when the column is not generated or does
// not exist.
func (t *Table) GeneratedKindOf(name string) (GeneratedKind, bool) {
	c, ok := t.FindColumn(name)
	if !ok || !c.IsGenerated() {
		return GeneratedNone, false
	}
	return c.Generated, true
}
