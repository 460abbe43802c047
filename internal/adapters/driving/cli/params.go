package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// addParamFlags registers --param and --file on a mutating command.
func addParamFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("param", "p", nil,
		"parameter as key=value (string) or key:=value (YAML/JSON value); repeatable")
	cmd.Flags().StringP("file", "f", "", "YAML or JSON file holding the parameter map (- for stdin)")
}

// readParams builds a parameter map from --file and then --param, so
// individual --param values override the file.
func readParams(cmd *cobra.Command) (map[string]any, error) {
	params := map[string]any{}

	file, err := cmd.Flags().GetString("file")
	if err != nil {
		return nil, err
	}
	if file != "" {
		data, err := readSource(cmd, file)
		if err != nil {
			return nil, err
		}
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", file, err)
		}
		if doc != nil {
			m, ok := normalise(doc).(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%s must hold a mapping of parameters", file)
			}
			params = m
		}
	}

	pairs, err := cmd.Flags().GetStringArray("param")
	if err != nil {
		return nil, err
	}
	for _, pair := range pairs {
		key, value, err := parsePair(pair)
		if err != nil {
			return nil, err
		}
		params[key] = value
	}
	return params, nil
}

// parsePair parses "key=value" as a string and "key:=value" as a YAML value.
func parsePair(pair string) (string, any, error) {
	i := strings.Index(pair, "=")
	if i <= 0 {
		return "", nil, fmt.Errorf("parameter %q must be key=value or key:=value", pair)
	}
	key, raw := pair[:i], pair[i+1:]
	if !strings.HasSuffix(key, ":") {
		return key, raw, nil
	}

	key = strings.TrimSuffix(key, ":")
	if key == "" {
		return "", nil, fmt.Errorf("parameter %q has no key", pair)
	}
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return "", nil, fmt.Errorf("parameter %s: %w", key, err)
	}
	return key, normalise(v), nil
}

// normalise converts YAML maps with non-string keys to map[string]any so
// that `{1: currency:USD}` addresses column "1".
func normalise(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			t[k] = normalise(item)
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, item := range t {
			m[fmt.Sprint(k)] = normalise(item)
		}
		return m
	case []any:
		for i, item := range t {
			t[i] = normalise(item)
		}
		return t
	default:
		return v
	}
}

func readSource(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
