package numfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		tag   string
		want  Spec
		isErr bool
	}{
		{tag: "currency:USD", want: Spec{Kind: KindCurrency, Currency: "USD", Scale: 2}},
		{tag: "currency:usd", want: Spec{Kind: KindCurrency, Currency: "USD", Scale: 2}},
		{tag: "currency:JPY", want: Spec{Kind: KindCurrency, Currency: "JPY", Scale: 0}},
		{tag: "accounting:EUR", want: Spec{Kind: KindAccounting, Currency: "EUR", Scale: 2}},
		{tag: "percent", want: Spec{Kind: KindPercent, Scale: 0}},
		{tag: "percent:1", want: Spec{Kind: KindPercent, Scale: 1}},
		{tag: "decimal", want: Spec{Kind: KindDecimal, Scale: 2}},
		{tag: "decimal:3", want: Spec{Kind: KindDecimal, Scale: 3}},
		{tag: "integer", want: Spec{Kind: KindInteger}},
		{tag: "currency:XYZ", isErr: true},
		{tag: "currency", isErr: true},
		{tag: "decimal:-1", isErr: true},
		{tag: "decimal:abc", isErr: true},
		{tag: "integer:2", isErr: true},
		{tag: "scientific", isErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, err := Parse(tt.tag)
			if tt.isErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSpec_Format(t *testing.T) {
	tests := []struct {
		tag  string
		raw  string
		want string
	}{
		{"currency:USD", "1250000", "$1,250,000.00"},
		{"currency:USD", "-42.5", "-$42.50"},
		{"currency:EUR", "1000", "€1,000.00"},
		{"currency:CHF", "10", "CHF 10.00"},
		{"accounting:USD", "-1250", "($1,250.00)"},
		{"accounting:USD", "1250", "$1,250.00"},
		{"percent:1", "0.125", "12.5%"},
		{"percent", "0.5", "50%"},
		{"decimal:3", "3.14159", "3.142"},
		{"decimal", "1234.5", "1,234.50"},
		{"integer", "1234.4", "1,234"},
	}

	for _, tt := range tests {
		t.Run(tt.tag+"/"+tt.raw, func(t *testing.T) {
			spec, err := Parse(tt.tag)
			require.NoError(t, err)

			got, ok := spec.Format(tt.raw)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSpec_Format_NonNumeric(t *testing.T) {
	spec, err := Parse("currency:USD")
	require.NoError(t, err)

	got, ok := spec.Format("n/a")
	assert.False(t, ok)
	assert.Equal(t, "n/a", got)
}

func TestSpec_String(t *testing.T) {
	spec, err := Parse("percent")
	require.NoError(t, err)
	assert.Equal(t, "percent:0", spec.String())

	spec, err = Parse("currency:gbp")
	require.NoError(t, err)
	assert.Equal(t, "currency:GBP", spec.String())
}

func TestParseNumber(t *testing.T) {
	v, ok := ParseNumber(" 1,250,000 ")
	assert.True(t, ok)
	assert.Equal(t, 1250000.0, v)

	_, ok = ParseNumber("")
	assert.False(t, ok)

	_, ok = ParseNumber("Q1")
	assert.False(t, ok)

	_, ok = ParseNumber("NaN")
	assert.False(t, ok)
}
