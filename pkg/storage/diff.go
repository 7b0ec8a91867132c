package storage

import (
	"database/sql"
	"strings"

	"go.uber.org/zap"

	"github.com/strata-db/strata/internal/sqlite"
	"github.com/strata-db/strata/pkg/schema"
)

// tableDiff partitions the divergence between a declared table and its
// live counterpart. incompatible is set when a column present in both
// schemas differs in type, not-null, default, or primary-key
// membership; that always forces recreation.
type tableDiff struct {
	toAdd        []schema.Column     // declared but absent live
	excess       []sqlite.LiveColumn // live but not declared
	incompatible bool
}

// calculateDiff compares declared columns against the live shape.
func calculateDiff(t *schema.Table, live []sqlite.LiveColumn) tableDiff {
	byName := make(map[string]sqlite.LiveColumn, len(live))
	for _, lc := range live {
		byName[lc.Name] = lc
	}

	var d tableDiff
	matched := make(map[string]bool, len(live))
	for _, c := range t.Columns() {
		lc, ok := byName[c.Name]
		if !ok {
			d.toAdd = append(d.toAdd, c)
			continue
		}
		matched[c.Name] = true
		if !columnsEqual(c, lc) {
			d.incompatible = true
		}
	}
	for _, lc := range live {
		if !matched[lc.Name] {
			d.excess = append(d.excess, lc)
		}
	}
	return d
}

// columnsEqual compares the four properties whose divergence cannot be
// repaired in place: type, not-null, default text, and primary-key
// membership.
func columnsEqual(c schema.Column, lc sqlite.LiveColumn) bool {
	if !typesEqual(c.Type, lc.Type) {
		return false
	}
	if c.NotNull != lc.NotNull {
		return false
	}
	if c.Default != lc.Default {
		return false
	}
	if c.PrimaryKey != (lc.PK > 0) {
		return false
	}
	return true
}

func typesEqual(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// schemaStatus classifies one table without mutating anything. It
// issues only read queries, so SyncSchemaSimulate shares it verbatim
// with the real synchronization pass. attempt, when non-nil, reports
// whether a data-preserving strategy is viable for the result.
func (s *Storage) schemaStatus(db *sql.DB, t *schema.Table, preserve bool, attempt *bool) (schema.Outcome, error) {
	if attempt != nil {
		*attempt = true
	}

	exists, err := sqlite.TableExists(db, t.Name())
	if err != nil {
		return schema.AlreadyInSync, err
	}
	if !exists {
		return schema.NewTableCreated, nil
	}

	live, err := sqlite.TableInfo(db, t.Name())
	if err != nil {
		return schema.AlreadyInSync, err
	}
	diff := calculateDiff(t, live)

	res := schema.AlreadyInSync
	recreate := diff.incompatible

	if !recreate && len(diff.excess) > 0 {
		// Excess live columns: droppable natively, droppable via the
		// backup cycle under preserve, otherwise only by recreation.
		if !preserve && !s.dropColumnAvailable(db) {
			recreate = true
		} else {
			res = schema.OldColumnsRemoved
		}
	}

	if recreate {
		return schema.DroppedAndRecreated, nil
	}

	if len(diff.toAdd) > 0 {
		for _, c := range diff.toAdd {
			if c.Generated == schema.GeneratedStored {
				// Stored generated columns cannot be appended.
				recreate = true
				break
			}
			if !c.IsGenerated() && c.NotNull && c.Default == "" {
				// Existing rows could never satisfy the constraint, so
				// preservation is impossible no matter what the caller
				// asked for.
				recreate = true
				if attempt != nil {
					*attempt = false
				}
				break
			}
		}
		if recreate {
			return schema.DroppedAndRecreated, nil
		}
		if res == schema.OldColumnsRemoved {
			return schema.NewColumnsAddedAndOldColumnsRemoved, nil
		}
		return schema.NewColumnsAdded, nil
	}

	return res, nil
}

// dropColumnAvailable reports whether the engine carries native ALTER
// TABLE ... DROP COLUMN. Detected from sqlite_version(); tests can pin
// it through dropColumnOverride.
func (s *Storage) dropColumnAvailable(db *sql.DB) bool {
	if s.dropColumnOverride != nil {
		return *s.dropColumnOverride
	}
	v, err := sqlite.Version(db)
	if err != nil {
		s.log.Warn("could not read sqlite version", zap.Error(err))
		return false
	}
	return sqlite.SupportsDropColumn(v)
}
