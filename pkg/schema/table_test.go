package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID    int64
	Label string
	Note  *string
}

func widgetColumns() []Column {
	return []Column{
		Col("id", "INTEGER", Direct(func(w *widget) *int64 { return &w.ID }), PrimaryKey()),
		Col("label", "TEXT", Direct(func(w *widget) *string { return &w.Label })),
		Col("note", "TEXT", Direct(func(w *widget) **string { return &w.Note })),
	}
}

func TestNewTableValidation(t *testing.T) {
	newWidget := func() any { return new(widget) }

	tests := []struct {
		name    string
		table   string
		factory func() any
		cols    []Column
		wantErr string
	}{
		{
			name:    "empty name",
			table:   "",
			factory: newWidget,
			cols:    widgetColumns(),
			wantErr: "name must not be empty",
		},
		{
			name:    "no columns",
			table:   "widgets",
			factory: newWidget,
			cols:    nil,
			wantErr: "no columns",
		},
		{
			name:    "non-pointer factory",
			table:   "widgets",
			factory: func() any { return widget{} },
			cols:    widgetColumns(),
			wantErr: "must return a pointer",
		},
		{
			name:    "duplicate column",
			table:   "widgets",
			factory: newWidget,
			cols: append(widgetColumns(),
				Col("id", "INTEGER", Direct(func(w *widget) *int64 { return &w.ID }))),
			wantErr: "twice",
		},
		{
			name:    "generated without expression",
			table:   "widgets",
			factory: newWidget,
			cols: append(widgetColumns(),
				Col("upper_label", "TEXT",
					Direct(func(w *widget) *string { return &w.Label }),
					GeneratedAlwaysAs("", GeneratedVirtual))),
			wantErr: "no expression",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.table, tt.factory, tt.cols)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("valid", func(t *testing.T) {
		tbl, err := NewTable("widgets", newWidget, widgetColumns())
		require.NoError(t, err)
		assert.Equal(t, "widgets", tbl.Name())
		assert.Len(t, tbl.Columns(), 3)
		assert.NoError(t, tbl.InsertableErr())
	})
}

func TestInsertability(t *testing.T) {
	type pair struct {
		A string
		B string
		V int64
	}
	newPair := func() any { return new(pair) }
	pairCols := []Column{
		Col("a", "TEXT", Direct(func(p *pair) *string { return &p.A }), PrimaryKey()),
		Col("b", "TEXT", Direct(func(p *pair) *string { return &p.B }), PrimaryKey()),
		Col("v", "INTEGER", Direct(func(p *pair) *int64 { return &p.V })),
	}

	t.Run("composite key blocks plain insert", func(t *testing.T) {
		tbl, err := NewTable("pairs", newPair, pairCols)
		require.NoError(t, err)
		require.Error(t, tbl.InsertableErr())
		assert.True(t, errors.Is(tbl.InsertableErr(), ErrNotInsertable))
	})

	t.Run("without rowid restores plain insert", func(t *testing.T) {
		tbl, err := NewTable("pairs", newPair, pairCols, WithoutRowid())
		require.NoError(t, err)
		assert.NoError(t, tbl.InsertableErr())
		assert.True(t, tbl.WithoutRowID())
	})

	t.Run("text single key blocks plain insert", func(t *testing.T) {
		type named struct{ Name string }
		tbl, err := NewTable("named", func() any { return new(named) }, []Column{
			Col("name", "TEXT", Direct(func(n *named) *string { return &n.Name }), PrimaryKey()),
		})
		require.NoError(t, err)
		assert.True(t, errors.Is(tbl.InsertableErr(), ErrNotInsertable))
	})

	t.Run("integer single key allows plain insert", func(t *testing.T) {
		tbl, err := NewTable("widgets", func() any { return new(widget) }, widgetColumns())
		require.NoError(t, err)
		assert.NoError(t, tbl.InsertableErr())
	})
}

func TestTableLookups(t *testing.T) {
	tbl, err := NewTable("widgets", func() any { return new(widget) }, widgetColumns())
	require.NoError(t, err)

	pks := tbl.PrimaryKey()
	require.Len(t, pks, 1)
	assert.Equal(t, "id", pks[0].Name)

	c, ok := tbl.FindColumn("note")
	require.True(t, ok)
	assert.False(t, c.NotNull)

	_, ok = tbl.FindColumn("missing")
	assert.False(t, ok)

	_, ok = tbl.GeneratedKindOf("label")
	assert.False(t, ok)
}

func TestRename(t *testing.T) {
	tbl, err := NewTable("widgets", func() any { return new(widget) }, widgetColumns())
	require.NoError(t, err)

	tbl.Rename("gadgets")
	assert.Equal(t, "gadgets", tbl.Name())
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "already in sync", AlreadyInSync.String())
	assert.Equal(t, "dropped and recreated", DroppedAndRecreated.String())
}
