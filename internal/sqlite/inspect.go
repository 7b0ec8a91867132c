package sqlite

import (
	"database/sql"
	"fmt"
)

// LiveColumn is one row of PRAGMA table_xinfo: the live shape of a
// column as the engine reports it. Hidden is nonzero for generated
// columns (2 virtual, 3 stored). Produced fresh on every call; the live
// schema can change out of band, so it is never cached.
type LiveColumn struct {
	CID      int
	Name     string
	Type     string
	NotNull  bool
	Default  string
	HasDflt  bool
	PK       int
	Hidden   int
}

// TableExists reports whether a table with the given name exists in the
// connected database. It checks the live database only, not any
// declared schema.
func TableExists(db *sql.DB, name string) (bool, error) {
	var n int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking table %q: %w", name, err)
	}
	return n > 0, nil
}

// TableInfo returns the live column descriptors for a table, in the
// engine's column order.
func TableInfo(db *sql.DB, name string) ([]LiveColumn, error) {
	rows, err := db.Query(
		`SELECT cid, name, type, "notnull", dflt_value, pk, hidden FROM pragma_table_xinfo(?)`, name)
	if err != nil {
		return nil, fmt.Errorf("reading table_xinfo for %q: %w", name, err)
	}
	defer rows.Close()

	var cols []LiveColumn
	for rows.Next() {
		var c LiveColumn
		var notNull int
		var dflt sql.NullString
		if err := rows.Scan(&c.CID, &c.Name, &c.Type, &notNull, &dflt, &c.PK, &c.Hidden); err != nil {
			return nil, fmt.Errorf("scanning table_xinfo for %q: %w", name, err)
		}
		c.NotNull = notNull != 0
		if dflt.Valid {
			c.Default = dflt.String
			c.HasDflt = true
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}
