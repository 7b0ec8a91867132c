// Package storage is the user-facing surface of Strata: it owns the
// registered schema, reconciles it against the live database, and runs
// the typed statement pipeline.
package storage

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/strata-db/strata/internal/sqlite"
	"github.com/strata-db/strata/pkg/schema"
)

// Storage maps a set of declared tables onto one SQLite database file.
// All operations are synchronous and run on the calling goroutine; the
// engine's own locking serializes concurrent writers across instances.
type Storage struct {
	conn    *sqlite.Connection
	tables  []*schema.Table
	byType  map[reflect.Type]*schema.Table
	log     *zap.Logger

	migrations map[migrationKey]Migration

	// foreverLease pins one connection reference for the storage
	// lifetime when WithOpenForever is set.
	openForever  bool
	foreverLease *sqlite.Lease

	// dropColumnOverride forces the native DROP COLUMN capability for
	// tests; nil means detect from sqlite_version().
	dropColumnOverride *bool
}

// Option adjusts a Storage at construction time.
type Option func(*Storage)

// WithLogger routes sync and migration decisions through log. The
// default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Storage) { s.log = log }
}

// WithOpenForever keeps the engine connection open for the storage
// lifetime instead of opening and closing around each operation. Close
// releases it.
func WithOpenForever() Option {
	return func(s *Storage) { s.openForever = true }
}

// New builds a Storage for the database at path with the given declared
// tables. Each record type may be mapped at most once.
func New(path string, tables []*schema.Table, opts ...Option) (*Storage, error) {
	s := &Storage{
		conn:       sqlite.NewConnection(path),
		tables:     tables,
		byType:     make(map[reflect.Type]*schema.Table, len(tables)),
		log:        zap.NewNop(),
		migrations: make(map[migrationKey]Migration),
	}
	for _, t := range tables {
		if prev, dup := s.byType[t.RecordType()]; dup {
			return nil, fmt.Errorf("record type %s mapped to both %q and %q",
				t.RecordType(), prev.Name(), t.Name())
		}
		s.byType[t.RecordType()] = t
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.openForever {
		lease, err := s.conn.Lease()
		if err != nil {
			return nil, err
		}
		s.foreverLease = lease
	}
	return s, nil
}

// Close releases the pinned connection reference, if any. Storages
// built without WithOpenForever hold no resources between operations.
func (s *Storage) Close() error {
	if s.foreverLease == nil {
		return nil
	}
	lease := s.foreverLease
	s.foreverLease = nil
	return lease.Close()
}

// tableFor returns the declared table for a record's dynamic type.
func (s *Storage) tableFor(rec any) (*schema.Table, error) {
	t, ok := s.byType[reflect.TypeOf(rec)]
	if !ok {
		return nil, fmt.Errorf("%w: %T", schema.ErrTypeNotMapped, rec)
	}
	return t, nil
}

// tableNamed returns the declared table with the given current name.
func (s *Storage) tableNamed(name string) (*schema.Table, bool) {
	for _, t := range s.tables {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// TableExists checks the live database for a table with the given name.
// The table does not have to be mapped.
func (s *Storage) TableExists(name string) (bool, error) {
	lease, err := s.conn.Lease()
	if err != nil {
		return false, err
	}
	defer lease.Close()
	return sqlite.TableExists(lease.DB(), name)
}

// UserVersion reads the engine's user_version pragma.
func (s *Storage) UserVersion() (int, error) {
	lease, err := s.conn.Lease()
	if err != nil {
		return 0, err
	}
	defer lease.Close()
	return sqlite.UserVersion(lease.DB())
}

// SetUserVersion writes the engine's user_version pragma.
func (s *Storage) SetUserVersion(v int) error {
	lease, err := s.conn.Lease()
	if err != nil {
		return err
	}
	defer lease.Close()
	return sqlite.SetUserVersion(lease.DB(), v)
}

// Tablename returns the in-memory table name for a mapped record type.
func Tablename[T any](s *Storage) (string, error) {
	t, err := tableForType[T](s)
	if err != nil {
		return "", err
	}
	return t.Name(), nil
}

// RenameTable changes the table name in the in-memory model only; it
// never issues SQL against the database.
func RenameTable[T any](s *Storage, name string) error {
	t, err := tableForType[T](s)
	if err != nil {
		return err
	}
	t.Rename(name)
	return nil
}

// tableForType returns the declared table mapped to *T.
func tableForType[T any](s *Storage) (*schema.Table, error) {
	rt := reflect.TypeOf((*T)(nil))
	t, ok := s.byType[rt]
	if !ok {
		var zero T
		return nil, fmt.Errorf("%w: %T", schema.ErrTypeNotMapped, zero)
	}
	return t, nil
}
