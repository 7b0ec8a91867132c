// Package schema defines the declared-schema model for Strata: tables,
// columns, field accessors, the sync outcome enum, and the standard
// errors shared by the storage engine.
//
// A Table describes how one Go record type maps onto a SQLite table.
// The description is static: it is built once, registered with a
// Storage, and never mutated by synchronization. The only mutating
// operation is Rename, which changes the in-memory table name and
// never touches the database.
package schema
