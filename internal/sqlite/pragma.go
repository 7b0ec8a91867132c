package sqlite

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// UserVersion reads the engine-native user_version pragma. This is the
// only version state Strata consults; no separate metadata file exists.
func UserVersion(db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRow(`PRAGMA user_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("reading user_version: %w", err)
	}
	return v, nil
}

// SetUserVersion writes the user_version pragma. Pragmas do not accept
// bound parameters, so the value is formatted into the statement.
func SetUserVersion(db *sql.DB, v int) error {
	if _, err := db.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, v)); err != nil {
		return fmt.Errorf("setting user_version: %w", err)
	}
	return nil
}

// Version returns the engine's version string, e.g. "3.46.1".
func Version(db *sql.DB) (string, error) {
	var v string
	if err := db.QueryRow(`SELECT sqlite_version()`).Scan(&v); err != nil {
		return "", fmt.Errorf("reading sqlite_version: %w", err)
	}
	return v, nil
}

// SupportsDropColumn reports whether the given engine version carries
// native ALTER TABLE ... DROP COLUMN (3.35.0 and later).
func SupportsDropColumn(version string) bool {
	parts := strings.SplitN(version, ".", 3)
	nums := make([]int, 3)
	for i := 0; i < len(parts) && i < 3; i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return false
		}
		nums[i] = n
	}
	if nums[0] != 3 {
		return nums[0] > 3
	}
	return nums[1] >= 35
}
