package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/de-tools/tlf-atlas/pkg/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want string
	}{
		{"equality", "adsl:saffl == 'Y'", "SAFFL = 'Y'"},
		{"membership", "adae:aerel in ['A','B']", "AEREL IN ('A','B')"},
		{"membership with spaces", "adae:aerel in ['A', 'B']", "AEREL IN ('A','B')"},
		{"empty", "", "TRUE"},
		{"blank", "   ", "TRUE"},
		{"conjunction", "adsl:saffl == 'Y' and adae:trtemfl == 'Y'", "SAFFL = 'Y' AND TRTEMFL = 'Y'"},
		{"case insensitive keywords", "adsl:saffl == 'Y' AND NOT adae:aeser == 'Y'", "SAFFL = 'Y' AND NOT AESER = 'Y'"},
		{"parentheses", "(adae:aesev == 'MILD' or adae:aesev == 'MODERATE') and adae:aeser != 'Y'",
			"(AESEV = 'MILD' OR AESEV = 'MODERATE') AND AESER <> 'Y'"},
		{"numbers", "adsl:age >= 65", "AGE >= 65"},
		{"none", "adae:aedecod != None", "AEDECOD IS NOT NULL"},
		{"is none", "adae:aedecod is None", "AEDECOD IS NULL"},
		{"not in", "adae:aerel not in ['NONE']", "AEREL NOT IN ('NONE')"},
		{"quote escaping", `adcm:cmtrt == "Crohn's"`, "CMTRT = 'Crohn''s'"},
		{"booleans", "adsl:flag == True", "FLAG = TRUE"},
		{"bare column", "saffl == 'Y'", "SAFFL = 'Y'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Translate(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTranslate_SyntaxErrors(t *testing.T) {
	for _, expr := range []string{
		"adsl:saffl ==",
		"adsl:saffl == 'Y",
		"adsl: == 'Y'",
		"(adsl:saffl == 'Y'",
		"adae:aerel in 'A'",
		"adsl:saffl == 'Y' 'N'",
		"adsl:saffl $ 'Y'",
	} {
		t.Run(expr, func(t *testing.T) {
			_, err := Translate(expr)
			var syntaxErr *SyntaxError
			require.ErrorAs(t, err, &syntaxErr)
			assert.ErrorIs(t, err, ErrSyntax)
		})
	}
}

func TestParse_Columns(t *testing.T) {
	expr, err := Parse("adsl:saffl == 'Y' and (adae:aeser == 'Y' or adsl:saffl == 'N')")
	require.NoError(t, err)
	assert.Equal(t, []string{"SAFFL", "AESER"}, expr.Columns())
}

func events() *dataset.Table {
	return dataset.MustNew(
		[]string{"USUBJID", "AEREL", "AESER", "AGE"},
		[][]any{
			{"1", "A", "Y", 70},
			{"2", "B", nil, 40},
			{"3", nil, "N", nil},
			{"4", "C", "N", 66},
		},
	)
}

func ids(t *testing.T, tbl *dataset.Table) []any {
	t.Helper()
	col, err := tbl.Column("USUBJID")
	require.NoError(t, err)
	return col
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want []any
	}{
		{"membership", "adae:aerel in ['A','B']", []any{"1", "2"}},
		{"null is unknown for comparison", "adae:aeser != 'Y'", []any{"3", "4"}},
		{"not of unknown stays unknown", "not adae:aeser == 'Y'", []any{"3", "4"}},
		{"or with unknown", "adae:aeser == 'Y' or adsl:age > 60", []any{"1", "4"}},
		{"numeric", "adsl:age >= 66", []any{"1", "4"}},
		{"is null", "adae:aerel == None", []any{"3"}},
		{"not in skips nulls", "adae:aerel not in ['A']", []any{"2", "4"}},
		{"unqualified column", "aerel == 'C'", []any{"4"}},
		{"empty", "", []any{"1", "2", "3", "4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Evaluate(events(), tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(t, out))
		})
	}
}

func TestEvaluate_CaseInsensitiveColumns(t *testing.T) {
	tbl := dataset.MustNew([]string{"usubjid", "saffl"}, [][]any{{"1", "Y"}, {"2", "N"}})
	out, err := Evaluate(tbl, "adsl:SAFFL == 'Y'")
	require.NoError(t, err)
	assert.Equal(t, 1, out.Len())
}

func TestEvaluate_UnknownColumn(t *testing.T) {
	empty := dataset.MustNew([]string{"USUBJID"}, nil)
	_, err := Evaluate(empty, "adsl:saffl == 'Y'")

	var colErr *UnknownColumnError
	require.ErrorAs(t, err, &colErr)
	assert.Equal(t, "SAFFL", colErr.Column)
}

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) Where(ctx context.Context, table *dataset.Table, predicate string) ([]int, error) {
	args := m.Called(ctx, table, predicate)
	rows, _ := args.Get(0).([]int)
	return rows, args.Error(1)
}

func TestExecutor_Apply(t *testing.T) {
	ctx := context.Background()

	t.Run("primary path", func(t *testing.T) {
		engine := new(mockEngine)
		tbl := events()
		engine.On("Where", ctx, tbl, "AEREL IN ('A','B')").Return([]int{1}, nil)

		out, err := NewExecutor(engine).Apply(ctx, tbl, "adae:aerel in ['A','B']")
		require.NoError(t, err)
		assert.Equal(t, []any{"2"}, ids(t, out))
		engine.AssertExpectations(t)
	})

	t.Run("falls back when engine fails", func(t *testing.T) {
		engine := new(mockEngine)
		tbl := events()
		engine.On("Where", ctx, tbl, "AEREL IN ('A','B')").Return(nil, errors.New("binder error"))

		out, err := NewExecutor(engine).Apply(ctx, tbl, "adae:aerel in ['A','B']")
		require.NoError(t, err)
		assert.Equal(t, []any{"1", "2"}, ids(t, out))
	})

	t.Run("both paths fail", func(t *testing.T) {
		engine := new(mockEngine)
		tbl := events()
		engine.On("Where", ctx, tbl, "SAFFL = 'Y'").Return(nil, errors.New("column SAFFL not found"))

		_, err := NewExecutor(engine).Apply(ctx, tbl, "adsl:saffl == 'Y'")
		assert.ErrorIs(t, err, ErrFilter)
		assert.ErrorIs(t, err, ErrUnknownColumn)
	})

	t.Run("syntax error skips engine", func(t *testing.T) {
		engine := new(mockEngine)
		_, err := NewExecutor(engine).Apply(ctx, events(), "adae:aerel in")
		assert.ErrorIs(t, err, ErrFilter)
		assert.ErrorIs(t, err, ErrSyntax)
		engine.AssertNotCalled(t, "Where", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("nil engine", func(t *testing.T) {
		out, err := NewExecutor(nil).Apply(ctx, events(), "adae:aeser == 'N'")
		require.NoError(t, err)
		assert.Equal(t, []any{"3", "4"}, ids(t, out))
	})

	t.Run("blank filter", func(t *testing.T) {
		tbl := events()
		out, err := NewExecutor(new(mockEngine)).Apply(ctx, tbl, " ")
		require.NoError(t, err)
		assert.Same(t, tbl, out)
	})
}
