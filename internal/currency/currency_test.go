package currency

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"dollar amount", "$45.00", "45"},
		{"plain integer", "12", "12"},
		{"thousands separator", "$1,299.99", "1299.99"},
		{"multiple thousands groups", "$1,234,567", "1234567"},
		{"decimal comma", "45,50 €", "45.5"},
		{"european grouping", "1.299,95 €", "1299.95"},
		{"dot grouping without decimals", "1.299.000", "1299000"},
		{"currency code prefix", "USD 19.99", "19.99"},
		{"pound sign", "£7.5", "7.5"},
		{"range takes first amount", "$12.99 - $20.00", "12.99"},
		{"text around amount", "from $30 used", "30"},
		{"trailing separator", "$30.", "30"},
		{"zero is a valid price", "$0.00", "0"},
		{"surrounding whitespace", "  $8.25  ", "8.25"},
		{"no integer part", "$.99", "0.99"},
		{"no integer part with decimal comma", ",50 €", "0.5"},
		{"grouped and decimal with code", "USD 12,345.6", "12345.6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "Parse(%q) = %s, want %s", tt.input, got, tt.want)
		})
	}
}

func TestParse_Failures(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"not available", "N/A", ErrUnparseablePrice},
		{"empty", "", ErrUnparseablePrice},
		{"whitespace only", "   ", ErrUnparseablePrice},
		{"words only", "Call for price", ErrUnparseablePrice},
		{"ambiguous commas", "12,34,5", ErrUnparseablePrice},
		{"two decimal commas", "1,2,3.4,5", ErrUnparseablePrice},
		{"misplaced grouping commas", "1,2,3.4", ErrUnparseablePrice},
		{"misplaced grouping dots", "12.34.5,6", ErrUnparseablePrice},
		{"separator after leading decimal mark", "$.99.5", ErrUnparseablePrice},
		{"negative", "-$5.00", ErrNegativePrice},
		{"negative with code", "USD -3", ErrNegativePrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "error = %v, want %v", err, tt.wantErr)
			assert.True(t, got.IsZero())
		})
	}
}

func TestParseValue(t *testing.T) {
	got, err := ParseValue("45.5")
	require.NoError(t, err)
	assert.Equal(t, "45.5", got.String())

	got, err = ParseValue(`"19.99"`)
	require.NoError(t, err)
	assert.Equal(t, "19.99", got.String())

	for _, bad := range []string{"", "null", `"N/A"`, "abc"} {
		_, err := ParseValue(bad)
		assert.ErrorIs(t, err, ErrUnparseablePrice, bad)
	}

	_, err = ParseValue("-1")
	assert.ErrorIs(t, err, ErrNegativePrice)
}

func TestRoundAndFloat(t *testing.T) {
	assert.Equal(t, "24.67", Round(decimal.RequireFromString("24.666")).String())
	assert.Equal(t, "10", Round(decimal.RequireFromString("9.999")).String())
	assert.Equal(t, 33.33, Float(decimal.NewFromInt(100).Div(decimal.NewFromInt(3))))
}

func TestMean(t *testing.T) {
	t.Run("averages duplicate samples", func(t *testing.T) {
		mean, ok := Mean([]decimal.Decimal{decimal.NewFromInt(20), decimal.NewFromInt(30)})
		require.True(t, ok)
		assert.True(t, mean.Equal(decimal.NewFromInt(25)))
	})

	t.Run("single value", func(t *testing.T) {
		mean, ok := Mean([]decimal.Decimal{decimal.RequireFromString("12.5")})
		require.True(t, ok)
		assert.Equal(t, "12.5", mean.String())
	})

	t.Run("empty", func(t *testing.T) {
		_, ok := Mean(nil)
		assert.False(t, ok)
	})
}
