package sqlite

import (
	"database/sql"
	"fmt"

	"go.uber.org/multierr"
)

// Statement is one prepared statement: a compiled engine handle, the
// original query description kept for diagnostics, and the connection
// reference that keeps the handle valid. Finalize must run exactly once
// on every exit path; it is idempotent so defer-based callers are safe.
type Statement struct {
	stmt      *sql.Stmt
	query     string
	desc      any
	lease     *Lease
	finalized bool
}

// Prepare compiles queryText against a fresh connection reference. The
// reference is held until Finalize so the connection outlives the
// statement. desc is the query description the text was serialized
// from; it is retained for SQL/Description only.
func Prepare(conn *Connection, queryText string, desc any) (*Statement, error) {
	lease, err := conn.Lease()
	if err != nil {
		return nil, err
	}
	stmt, err := lease.DB().Prepare(queryText)
	if err != nil {
		_ = lease.Close()
		return nil, fmt.Errorf("preparing %q: %w", queryText, err)
	}
	return &Statement{stmt: stmt, query: queryText, desc: desc, lease: lease}, nil
}

// Query binds args in order and starts stepping rows. Binding and
// stepping errors carry the engine's diagnostic.
func (s *Statement) Query(args ...any) (*sql.Rows, error) {
	if s.finalized {
		return nil, fmt.Errorf("statement already finalized: %q", s.query)
	}
	rows, err := s.stmt.Query(args...)
	if err != nil {
		return nil, fmt.Errorf("executing %q: %w", s.query, err)
	}
	return rows, nil
}

// Exec binds args in order and steps the statement to completion.
func (s *Statement) Exec(args ...any) (sql.Result, error) {
	if s.finalized {
		return nil, fmt.Errorf("statement already finalized: %q", s.query)
	}
	res, err := s.stmt.Exec(args...)
	if err != nil {
		return nil, fmt.Errorf("executing %q: %w", s.query, err)
	}
	return res, nil
}

// SQL returns the compiled statement text.
func (s *Statement) SQL() string { return s.query }

// Description returns the original query description.
func (s *Statement) Description() any { return s.desc }

// Finalize releases the engine handle and the connection reference.
// Safe to call more than once; only the first call does work.
func (s *Statement) Finalize() error {
	if s.finalized {
		return nil
	}
	s.finalized = true
	return multierr.Append(s.stmt.Close(), s.lease.Close())
}
