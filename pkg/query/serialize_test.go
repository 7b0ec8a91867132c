package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"name"`, QuoteIdent("name"))
	assert.Equal(t, `"odd""name"`, QuoteIdent(`odd"name`))
}

func TestSerializeExpressions(t *testing.T) {
	prepared := Context{SkipTableName: true, ReplaceBindableWithQuestion: true}
	literal := Context{SkipTableName: true}

	tests := []struct {
		name        string
		expr        Expr
		wantQuery   string
		wantLiteral string
	}{
		{
			name:        "equality",
			expr:        Eq("age", 30),
			wantQuery:   `"age" = ?`,
			wantLiteral: `"age" = 30`,
		},
		{
			name:        "string literal escaping",
			expr:        Eq("name", "O'Brien"),
			wantQuery:   `"name" = ?`,
			wantLiteral: `"name" = 'O''Brien'`,
		},
		{
			name:        "conjunction",
			expr:        And(Gt("age", 18), Lt("age", 65)),
			wantQuery:   `("age" > ? AND "age" < ?)`,
			wantLiteral: `("age" > 18 AND "age" < 65)`,
		},
		{
			name:        "disjunction with like",
			expr:        Or(Like("name", "A%"), IsNull("name")),
			wantQuery:   `("name" LIKE ? OR "name" IS NULL)`,
			wantLiteral: `("name" LIKE 'A%' OR "name" IS NULL)`,
		},
		{
			name:        "membership",
			expr:        In("id", 1, 2, 3),
			wantQuery:   `"id" IN (?, ?, ?)`,
			wantLiteral: `"id" IN (1, 2, 3)`,
		},
		{
			name:        "null test",
			expr:        IsNotNull("age"),
			wantQuery:   `"age" IS NOT NULL`,
			wantLiteral: `"age" IS NOT NULL`,
		},
		{
			name:        "null literal",
			expr:        Eq("age", nil),
			wantQuery:   `"age" = ?`,
			wantLiteral: `"age" = NULL`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Serialize(tt.expr, prepared)
			require.NoError(t, err)
			assert.Equal(t, tt.wantQuery, got)

			got, err = Serialize(tt.expr, literal)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLiteral, got)
		})
	}
}

func TestTableQualifier(t *testing.T) {
	e := binary{op: "=", left: Column{Table: "users", Name: "id"}, right: V(1)}

	got, err := Serialize(e, Context{ReplaceBindableWithQuestion: true})
	require.NoError(t, err)
	assert.Equal(t, `"users"."id" = ?`, got)

	got, err = Serialize(e, Context{SkipTableName: true, ReplaceBindableWithQuestion: true})
	require.NoError(t, err)
	assert.Equal(t, `"id" = ?`, got)
}

// Placeholder emission and parameter collection walk the expression the
// same way, so the n-th '?' always binds the n-th parameter.
func TestParametersMatchPlaceholderOrder(t *testing.T) {
	exprs := []Expr{
		Eq("a", 1),
		And(Eq("a", 1), Or(Gt("b", 2), In("c", 3, 4, 5)), IsNull("d")),
		Or(In("x", "p", "q"), And(Le("y", 9), Ne("z", "r"))),
	}
	for _, e := range exprs {
		text, err := Serialize(e, Context{SkipTableName: true, ReplaceBindableWithQuestion: true})
		require.NoError(t, err)
		params := Parameters(e)
		assert.Equal(t, strings.Count(text, "?"), len(params), "placeholder count for %s", text)
	}

	params := Parameters(And(Eq("a", 1), Or(Gt("b", 2), In("c", 3, 4, 5))))
	assert.Equal(t, []any{1, 2, 3, 4, 5}, params)
}

func TestSerializeClauses(t *testing.T) {
	ctx := Context{SkipTableName: true, ReplaceBindableWithQuestion: true}

	t.Run("canonical order regardless of input order", func(t *testing.T) {
		got, err := SerializeClauses([]Clause{
			Limit(10),
			OrderBy("name"),
			Where(Eq("age", 30)),
			Offset(5),
			GroupBy("city"),
		}, ctx)
		require.NoError(t, err)
		assert.Equal(t, ` WHERE "age" = ? GROUP BY "city" ORDER BY "name" LIMIT 10 OFFSET 5`, got)
	})

	t.Run("multiple wheres conjoin in clause order", func(t *testing.T) {
		got, err := SerializeClauses([]Clause{
			Where(Eq("a", 1)),
			Where(Gt("b", 2)),
		}, ctx)
		require.NoError(t, err)
		assert.Equal(t, ` WHERE "a" = ? AND "b" > ?`, got)
		assert.Equal(t, []any{1, 2}, ClauseParameters([]Clause{
			Where(Eq("a", 1)),
			Where(Gt("b", 2)),
		}))
	})

	t.Run("descending order", func(t *testing.T) {
		got, err := SerializeClauses([]Clause{OrderByDesc("age")}, ctx)
		require.NoError(t, err)
		assert.Equal(t, ` ORDER BY "age" DESC`, got)
	})

	t.Run("limit and offset bind nothing", func(t *testing.T) {
		clauses := []Clause{Where(Eq("a", 1)), Limit(3), Offset(6)}
		assert.Equal(t, []any{1}, ClauseParameters(clauses))
	})

	t.Run("empty clause list is empty text", func(t *testing.T) {
		got, err := SerializeClauses(nil, ctx)
		require.NoError(t, err)
		assert.Equal(t, "", got)
	})
}
