package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/strata-db/strata/internal/sqlite"
	"github.com/strata-db/strata/pkg/query"
	"github.com/strata-db/strata/pkg/schema"
)

// SyncSchema reconciles every declared table against the live database
// and reports what was done per table. With preserve set, excess live
// columns are removed through a data-preserving backup cycle instead of
// a destructive recreation where possible. The pass stops at the first
// error; the returned map covers the tables already processed.
func (s *Storage) SyncSchema(preserve bool) (map[string]schema.Outcome, error) {
	lease, err := s.conn.Lease()
	if err != nil {
		return nil, err
	}
	defer lease.Close()

	res := make(map[string]schema.Outcome, len(s.tables))
	for _, t := range s.tables {
		out, err := s.syncTable(lease.DB(), t, preserve)
		if err != nil {
			return res, fmt.Errorf("syncing table %q: %w", t.Name(), err)
		}
		res[t.Name()] = out
	}
	return res, nil
}

// SyncSchemaSimulate classifies every declared table without touching
// the database. Unlike SyncSchema it keeps going after an error so the
// report covers as many tables as possible; the errors come back
// combined.
func (s *Storage) SyncSchemaSimulate(preserve bool) (map[string]schema.Outcome, error) {
	lease, err := s.conn.Lease()
	if err != nil {
		return nil, err
	}
	defer lease.Close()

	res := make(map[string]schema.Outcome, len(s.tables))
	var errs error
	for _, t := range s.tables {
		out, err := s.schemaStatus(lease.DB(), t, preserve, nil)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("table %q: %w", t.Name(), err))
			continue
		}
		res[t.Name()] = out
	}
	return res, errs
}

// syncTable classifies one table and applies the resulting plan.
func (s *Storage) syncTable(db *sql.DB, t *schema.Table, preserve bool) (schema.Outcome, error) {
	var attempt bool
	out, err := s.schemaStatus(db, t, preserve, &attempt)
	if err != nil {
		return out, err
	}

	switch out {
	case schema.AlreadyInSync:

	case schema.NewTableCreated:
		if err := s.createTable(db, t); err != nil {
			return out, err
		}

	case schema.NewColumnsAdded:
		if err := s.addMissingColumns(db, t); err != nil {
			return out, err
		}

	case schema.OldColumnsRemoved, schema.NewColumnsAddedAndOldColumnsRemoved:
		if err := s.removeExcessColumns(db, t, preserve); err != nil {
			return out, err
		}
		if out == schema.NewColumnsAddedAndOldColumnsRemoved {
			// After a backup cycle the table already has the declared
			// shape and this finds nothing left to add.
			if err := s.addMissingColumns(db, t); err != nil {
				return out, err
			}
		}

	case schema.DroppedAndRecreated:
		if preserve && attempt {
			if err := s.backupTable(db, t, nil); err != nil {
				return out, err
			}
		} else {
			if err := s.dropCreate(db, t); err != nil {
				return out, err
			}
		}
	}
	return out, nil
}

// createTable issues CREATE TABLE for the declared shape.
func (s *Storage) createTable(db *sql.DB, t *schema.Table) error {
	ddl := createTableSQL(t, t.Name())
	s.log.Info("creating table", zap.String("table", t.Name()), zap.String("sql", ddl))
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("creating table %q: %w", t.Name(), err)
	}
	return nil
}

// addMissingColumns appends each declared-but-absent column with ALTER
// TABLE ADD COLUMN, in declaration order.
func (s *Storage) addMissingColumns(db *sql.DB, t *schema.Table) error {
	live, err := sqlite.TableInfo(db, t.Name())
	if err != nil {
		return err
	}
	diff := calculateDiff(t, live)
	for _, c := range diff.toAdd {
		ddl := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s",
			query.QuoteIdent(t.Name()), columnDefSQL(c))
		s.log.Info("adding column",
			zap.String("table", t.Name()), zap.String("column", c.Name))
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("adding column %q to %q: %w", c.Name, t.Name(), err)
		}
	}
	return nil
}

// removeExcessColumns drops live-but-undeclared columns. Without
// preserve it uses native DROP COLUMN; under preserve it runs the
// backup cycle, which also handles engines that lack native drops.
func (s *Storage) removeExcessColumns(db *sql.DB, t *schema.Table, preserve bool) error {
	live, err := sqlite.TableInfo(db, t.Name())
	if err != nil {
		return err
	}
	diff := calculateDiff(t, live)
	if len(diff.excess) == 0 {
		return nil
	}

	if preserve || !s.dropColumnAvailable(db) {
		return s.backupTable(db, t, nil)
	}
	for _, lc := range diff.excess {
		ddl := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s",
			query.QuoteIdent(t.Name()), query.QuoteIdent(lc.Name))
		s.log.Info("dropping column",
			zap.String("table", t.Name()), zap.String("column", lc.Name))
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("dropping column %q from %q: %w", lc.Name, t.Name(), err)
		}
	}
	return nil
}

// dropCreate destroys the live table and recreates it empty with the
// declared shape. All rows are lost.
func (s *Storage) dropCreate(db *sql.DB, t *schema.Table) error {
	s.log.Info("dropping and recreating table", zap.String("table", t.Name()))
	ddl := fmt.Sprintf("DROP TABLE %s", query.QuoteIdent(t.Name()))
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("dropping table %q: %w", t.Name(), err)
	}
	return s.createTable(db, t)
}

// backupTable rebuilds a table in place while keeping the rows the new
// shape can still hold: create a backup with the declared shape under a
// free name, copy the common columns over, drop the original, rename
// the backup into place. ignore lists column names excluded from the
// copy in addition to generated columns.
func (s *Storage) backupTable(db *sql.DB, t *schema.Table, ignore []string) error {
	backupName := t.Name() + "_backup"
	if exists, err := sqlite.TableExists(db, backupName); err != nil {
		return err
	} else if exists {
		for i := 1; ; i++ {
			candidate := fmt.Sprintf("%s%d", backupName, i)
			exists, err := sqlite.TableExists(db, candidate)
			if err != nil {
				return err
			}
			if !exists {
				backupName = candidate
				break
			}
		}
	}

	s.log.Info("rebuilding table through backup",
		zap.String("table", t.Name()), zap.String("backup", backupName))

	ddl := createTableSQL(t, backupName)
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("creating backup table %q: %w", backupName, err)
	}
	if err := s.copyTable(db, t, t.Name(), backupName, ignore); err != nil {
		return err
	}
	if _, err := db.Exec(fmt.Sprintf("DROP TABLE %s", query.QuoteIdent(t.Name()))); err != nil {
		return fmt.Errorf("dropping table %q: %w", t.Name(), err)
	}
	if _, err := db.Exec(fmt.Sprintf("ALTER TABLE %s RENAME TO %s",
		query.QuoteIdent(backupName), query.QuoteIdent(t.Name()))); err != nil {
		return fmt.Errorf("renaming %q to %q: %w", backupName, t.Name(), err)
	}
	return nil
}

// copyTable moves rows from src to dst over the columns both tables
// share. Generated and ignored columns never appear in the list; the
// engine recomputes generated values in dst.
func (s *Storage) copyTable(db *sql.DB, t *schema.Table, src, dst string, ignore []string) error {
	live, err := sqlite.TableInfo(db, src)
	if err != nil {
		return err
	}
	skip := make(map[string]bool, len(ignore))
	for _, name := range ignore {
		skip[name] = true
	}

	var cols []string
	for _, c := range t.Columns() {
		if c.IsGenerated() || skip[c.Name] {
			continue
		}
		for _, lc := range live {
			if lc.Name == c.Name {
				cols = append(cols, query.QuoteIdent(c.Name))
				break
			}
		}
	}
	if len(cols) == 0 {
		return nil
	}

	list := strings.Join(cols, ", ")
	stmt := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
		query.QuoteIdent(dst), list, list, query.QuoteIdent(src))
	if _, err := db.Exec(stmt); err != nil {
		return fmt.Errorf("copying rows from %q to %q: %w", src, dst, err)
	}
	return nil
}

// createTableSQL renders the CREATE TABLE statement for the declared
// shape under the given name. A single primary key is declared inline;
// a composite one becomes a table-level constraint.
func createTableSQL(t *schema.Table, name string) string {
	pks := t.PrimaryKey()
	inlinePK := len(pks) == 1

	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(query.QuoteIdent(name))
	b.WriteString(" (")
	for i, c := range t.Columns() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(columnDefSQL(c))
		if inlinePK && c.PrimaryKey {
			b.WriteString(" PRIMARY KEY")
		}
	}
	if len(pks) > 1 {
		b.WriteString(", PRIMARY KEY (")
		for i, c := range pks {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(query.QuoteIdent(c.Name))
		}
		b.WriteString(")")
	}
	b.WriteString(")")
	if t.WithoutRowID() {
		b.WriteString(" WITHOUT ROWID")
	}
	return b.String()
}

// columnDefSQL renders one column definition, without any primary-key
// clause.
func columnDefSQL(c schema.Column) string {
	var b strings.Builder
	b.WriteString(query.QuoteIdent(c.Name))
	b.WriteString(" ")
	b.WriteString(c.Type)
	if c.IsGenerated() {
		b.WriteString(" GENERATED ALWAYS AS (")
		b.WriteString(c.GeneratedExpr)
		b.WriteString(")")
		if c.Generated == schema.GeneratedStored {
			b.WriteString(" STORED")
		} else {
			b.WriteString(" VIRTUAL")
		}
		return b.String()
	}
	if c.NotNull {
		b.WriteString(" NOT NULL")
	}
	if c.Default != "" {
		b.WriteString(" DEFAULT ")
		b.WriteString(c.Default)
	}
	return b.String()
}
