package storage

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/strata-db/strata/pkg/schema"
)

// Migration transforms the database between two exact user_version
// values. It runs on one dedicated connection for the whole call, so
// connection-scoped state like temporary tables survives across its
// statements. The migration owns version bookkeeping; MigrateTo does
// not advance user_version by itself.
type Migration func(ctx context.Context, conn *sql.Conn) error

type migrationKey struct {
	from, to int
}

// RegisterMigration records the step from one user_version to another.
// Registering the same pair again replaces the earlier step.
func (s *Storage) RegisterMigration(from, to int, m Migration) {
	s.migrations[migrationKey{from: from, to: to}] = m
}

// MigrateTo looks up the migration from the database's current
// user_version to target and runs it. There is no multi-step planning:
// a missing exact step is ErrMigrationNotFound.
func (s *Storage) MigrateTo(ctx context.Context, target int) error {
	lease, err := s.conn.Lease()
	if err != nil {
		return err
	}
	defer lease.Close()

	conn, err := lease.DB().Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring migration connection: %w", err)
	}
	defer conn.Close()

	var from int
	if err := conn.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&from); err != nil {
		return fmt.Errorf("reading user_version: %w", err)
	}

	m, ok := s.migrations[migrationKey{from: from, to: target}]
	if !ok {
		return fmt.Errorf("%w: %d -> %d", schema.ErrMigrationNotFound, from, target)
	}

	s.log.Info("running migration", zap.Int("from", from), zap.Int("to", target))
	if err := m(ctx, conn); err != nil {
		return fmt.Errorf("migration %d -> %d: %w", from, target, err)
	}
	return nil
}
