package schema

// GeneratedKind tells how a generated column's value is produced.
type GeneratedKind int

const (
	// GeneratedNone marks an ordinary column.
	GeneratedNone GeneratedKind = iota

	// GeneratedVirtual marks a column recomputed on every read. Virtual
	// columns can be appended to an existing table.
	GeneratedVirtual

	// GeneratedStored marks a column persisted on write. Stored columns
	// cannot be added to an existing table; the table must be recreated.
	GeneratedStored
)

// Column describes one mapped column: its SQL shape plus the accessor
// that connects it to a record field. Columns are immutable after
// declaration.
type Column struct {
	// Name is unique within the table.
	Name string

	// Type is the declared SQL type text, e.g. "INTEGER" or "TEXT".
	Type string

	// NotNull is derived from the field's semantic type: a field that
	// cannot represent an absent value is NOT NULL.
	NotNull bool

	// Default is the default-value text, empty when there is none.
	Default string

	// PrimaryKey marks primary-key membership.
	PrimaryKey bool

	// Generated and GeneratedExpr describe engine-computed columns.
	Generated     GeneratedKind
	GeneratedExpr string

	// Field connects the column to its record field.
	Field Accessor
}

// ColumnOption adjusts a column at construction time.
type ColumnOption func(*Column)

// PrimaryKey marks the column as part of the primary key.
func PrimaryKey() ColumnOption {
	return func(c *Column) { c.PrimaryKey = true }
}

// Default sets the column's default-value text.
func Default(text string) ColumnOption {
	return func(c *Column) { c.Default = text }
}

// GeneratedAlwaysAs marks the column as generated from expr.
func GeneratedAlwaysAs(expr string, kind GeneratedKind) ColumnOption {
	return func(c *Column) {
		c.Generated = kind
		c.GeneratedExpr = expr
	}
}

// Col builds a column. NotNull is derived from the accessor: fields
// that cannot be absent map to NOT NULL columns.
func Col(name, sqlType string, field Accessor, opts ...ColumnOption) Column {
	c := Column{
		Name:    name,
		Type:    sqlType,
		NotNull: !field.Nullable(),
		Field:   field,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// IsGenerated reports whether the column is engine-computed.
func (c Column) IsGenerated() bool {
	return c.Generated != GeneratedNone
}
