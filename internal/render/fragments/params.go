package fragments

import (
	"math"
	"sort"
)

// Parameter maps arrive either freshly validated (typed slices, int64) or
// reloaded from storage (JSON shapes, float64). These helpers read both.

func stringParam(params map[string]any, name string) string {
	s, _ := params[name].(string)
	return s
}

func boolParam(params map[string]any, name string) bool {
	b, _ := params[name].(bool)
	return b
}

func intParam(params map[string]any, name string, def int) int {
	switch n := params[name].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(math.Round(n))
	default:
		return def
	}
}

func stringList(v any) []string {
	switch l := v.(type) {
	case []string:
		return l
	case []any:
		out := make([]string, 0, len(l))
		for _, e := range l {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func stringMatrix(v any) [][]string {
	switch rows := v.(type) {
	case [][]string:
		return rows
	case []any:
		out := make([][]string, 0, len(rows))
		for _, r := range rows {
			out = append(out, stringList(r))
		}
		return out
	default:
		return nil
	}
}

// stringMap returns the entries of a string-valued map sorted by key.
func stringMap(v any) [][2]string {
	var out [][2]string
	switch m := v.(type) {
	case map[string]any:
		for k, e := range m {
			if s, ok := e.(string); ok {
				out = append(out, [2]string{k, s})
			}
		}
	case map[string]string:
		for k, s := range m {
			out = append(out, [2]string{k, s})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

func objectList(v any) []map[string]any {
	switch l := v.(type) {
	case []map[string]any:
		return l
	case []any:
		out := make([]map[string]any, 0, len(l))
		for _, e := range l {
			if m, ok := e.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	case map[string]any:
		return []map[string]any{l}
	default:
		return nil
	}
}
