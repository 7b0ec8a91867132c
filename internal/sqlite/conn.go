package sqlite

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// Connection is the single logical connection of one storage instance.
// It is reference-counted: the engine handle opens lazily when the
// count goes 0 to 1 and closes when it returns to 0. The pool is capped
// at one open engine connection, so statement interleaving is bounded
// the way the engine expects.
type Connection struct {
	mu   sync.Mutex
	path string
	db   *sql.DB
	refs int
}

// NewConnection builds an unopened connection for the database at path.
func NewConnection(path string) *Connection {
	return &Connection{path: path}
}

// Lease acquires a reference. The returned lease exposes the engine
// handle and must be closed exactly once; the handle closes when the
// last lease goes away.
func (c *Connection) Lease() (*Lease, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		db, err := sql.Open("sqlite", c.path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", c.path, err)
		}
		db.SetMaxOpenConns(1)
		c.db = db
	}
	c.refs++
	return &Lease{conn: c, db: c.db}, nil
}

// release drops one reference, closing the engine handle at zero.
func (c *Connection) release() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.refs--
	if c.refs > 0 {
		return nil
	}
	db := c.db
	c.db = nil
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", c.path, err)
	}
	return nil
}

// Path returns the database file path.
func (c *Connection) Path() string { return c.path }

// Refs returns the current reference count.
func (c *Connection) Refs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refs
}

// Lease is one reference to a Connection.
type Lease struct {
	conn   *Connection
	db     *sql.DB
	closed bool
}

// DB returns the engine handle. Valid until Close.
func (l *Lease) DB() *sql.DB { return l.db }

// Close releases the reference. Closing twice is a no-op.
func (l *Lease) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	l.db = nil
	return l.conn.release()
}
