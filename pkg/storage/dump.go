package storage

import (
	"fmt"
	"strings"

	"github.com/strata-db/strata/pkg/query"
)

// Dump renders a mapped record for diagnostics, one "name : literal"
// pair per declared column in declaration order.
func (s *Storage) Dump(rec any) (string, error) {
	t, err := s.tableFor(rec)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("{ ")
	for i, c := range t.Columns() {
		if i > 0 {
			b.WriteString(", ")
		}
		v, err := c.Field.Value(rec)
		if err != nil {
			return "", fmt.Errorf("reading column %q: %w", c.Name, err)
		}
		b.WriteString(c.Name)
		b.WriteString(" : ")
		b.WriteString(dumpLiteral(v))
	}
	b.WriteString(" }")
	return b.String(), nil
}

// DumpExpr renders a filter expression with its values inlined as
// literals, the form placed in logs and error messages.
func DumpExpr(e query.Expr) (string, error) {
	return query.Serialize(e, query.Context{SkipTableName: true})
}

func dumpLiteral(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	case []byte:
		return fmt.Sprintf("X'%X'", x)
	case bool:
		if x {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprintf("%v", x)
	}
}
