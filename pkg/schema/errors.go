package schema

import "errors"

// Standard errors surfaced by the storage engine. Engine-level failures
// (prepare, bind, step, DDL) are not sentinels; they wrap the driver's
// diagnostic message instead.
var (
	// ErrNotFound reports that a read-one query matched zero rows.
	ErrNotFound = errors.New("record not found")

	// ErrValueNull reports that a required scalar read from a record
	// field was absent when a non-null bind was required.
	ErrValueNull = errors.New("value is null")

	// ErrColumnNotFound reports that a named column exists in neither
	// the declared nor the live schema.
	ErrColumnNotFound = errors.New("column not found")

	// ErrMigrationNotFound reports that no migration procedure is
	// registered for the requested version hop.
	ErrMigrationNotFound = errors.New("migration not found")

	// ErrTypeNotMapped reports that a record type has no registered
	// table in the storage it was handed to.
	ErrTypeNotMapped = errors.New("type is not mapped to a storage")

	// ErrNotInsertable reports that a table's primary-key layout does
	// not admit a plain insert; use Replace instead.
	ErrNotInsertable = errors.New("table is not insertable")
)
