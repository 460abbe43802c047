package catalog

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// isCatalogFile reports whether name is a file the loader reads.
func isCatalogFile(name string) bool {
	if strings.HasPrefix(filepath.Base(name), ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".cue":
		return true
	default:
		return false
	}
}

// parseYAML decodes one YAML catalog file. Unknown keys are rejected.
func parseYAML(data []byte) (fileDef, error) {
	var def fileDef
	if len(bytes.TrimSpace(data)) == 0 {
		return def, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return fileDef{}, fmt.Errorf("decode yaml: %w", err)
	}
	return def, nil
}

// parseCUE evaluates one CUE catalog file and decodes the result. The file
// must be concrete; CUE constraints inside it are checked on evaluation.
func parseCUE(cctx *cue.Context, path string, data []byte) (fileDef, error) {
	v := cctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return fileDef{}, fmt.Errorf("compile cue: %w", err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fileDef{}, fmt.Errorf("validate cue: %w", err)
	}
	var def fileDef
	if err := v.Decode(&def); err != nil {
		return fileDef{}, fmt.Errorf("decode cue: %w", err)
	}
	return def, nil
}

// loadDir reads every catalog file in dir, in name order.
func loadDir(dir string) ([]namedDef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && isCatalogFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	cctx := cuecontext.New()
	defs := make([]namedDef, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("catalog: read %s: %w", path, err)
		}
		var def fileDef
		if strings.EqualFold(filepath.Ext(name), ".cue") {
			def, err = parseCUE(cctx, path, data)
		} else {
			def, err = parseYAML(data)
		}
		if err != nil {
			return nil, fmt.Errorf("catalog: %s: %w", path, err)
		}
		defs = append(defs, namedDef{source: path, def: def})
	}
	return defs, nil
}

type namedDef struct {
	source string
	def    fileDef
}
