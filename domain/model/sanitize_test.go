package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeColumn(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Region", "Region"},
		{"Total ($)", "Total_$"},
		{"first name", "first_name"},
		{"(a) (b)", "a_b"},
		{"<keep>", "<keep>"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeColumn(tt.in), "SanitizeColumn(%q)", tt.in)
	}
}

func TestSanitizeTableName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Sales Report (Q1)", "Sales_Report_Q1"},
		{"<Summary>", "Summary"},
		{"a-b.c", "a-b.c"},
		{"  ", "__"},
	}

	for _, tt := range tests {
		got := SanitizeTableName(tt.in)
		assert.Equal(t, tt.want, got, "SanitizeTableName(%q)", tt.in)
		assert.False(t, strings.ContainsAny(got, " ()<>"))
	}
}

func TestSheetTableName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Budget_2024_Q1_Totals", SheetTableName("Budget 2024", "Q1 <Totals>"))
	assert.Equal(t, "book_Sheet1", SheetTableName("book", "Sheet1"))
}

func TestSanitizeHeader(t *testing.T) {
	t.Parallel()

	got, err := SanitizeHeader(Header{"id", " ", "Unit Price (EUR)"})
	require.NoError(t, err)
	assert.Equal(t, Header{"id", "Unnamed:_1", "Unit_Price_EUR"}, got)

	_, err = SanitizeHeader(Header{"ID", "id"})
	assert.ErrorIs(t, err, ErrDuplicateColumnName)

	_, err = SanitizeHeader(Header{"x y", "x_y"})
	assert.ErrorIs(t, err, ErrDuplicateColumnName)
}

func TestSanitizeHeader_RepeatedNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   Header
		want Header
	}{
		{"pair", Header{"a", "a"}, Header{"a", "a.1"}},
		{"three times", Header{"a", "b", "a", "a"}, Header{"a", "b", "a.1", "a.2"}},
		{"suffix already taken", Header{"a", "a", "a.1"}, Header{"a", "a.2", "a.1"}},
		{"repeated names with spaces", Header{"unit price", "unit price"}, Header{"unit_price", "unit_price.1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := SanitizeHeader(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
