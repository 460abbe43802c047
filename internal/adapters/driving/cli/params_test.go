package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePair(t *testing.T) {
	tests := []struct {
		name  string
		pair  string
		key   string
		value any
	}{
		{"string", "title=Q4 Review", "title", "Q4 Review"},
		{"string keeps equals", "expr=a=b", "expr", "a=b"},
		{"empty string", "author=", "author", ""},
		{"typed bool", "has_header:=true", "has_header", true},
		{"typed int", "level:=2", "level", 2},
		{"typed list", `rows:=[["a","b"]]`, "rows", []any{[]any{"a", "b"}}},
		{"typed map with int key", `number_format:={1: "currency:USD"}`, "number_format", map[string]any{"1": "currency:USD"}},
		{"typed flow map", "sort_by:={column: Rev, order: desc}", "sort_by", map[string]any{"column": "Rev", "order": "desc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, value, err := parsePair(tt.pair)

			require.NoError(t, err)
			assert.Equal(t, tt.key, key)
			assert.Equal(t, tt.value, value)
		})
	}
}

func TestParsePair_Errors(t *testing.T) {
	for _, pair := range []string{"noequals", "=value", ":=1", "rows:=[unclosed"} {
		t.Run(pair, func(t *testing.T) {
			_, _, err := parsePair(pair)
			assert.Error(t, err)
		})
	}
}

func TestNormalise(t *testing.T) {
	in := map[string]any{
		"outer": map[any]any{
			1:      "one",
			"list": []any{map[any]any{true: "yes"}},
		},
	}

	out := normalise(in)

	assert.Equal(t, map[string]any{
		"outer": map[string]any{
			"1":    "one",
			"list": []any{map[string]any{"true": "yes"}},
		},
	}, out)
}
