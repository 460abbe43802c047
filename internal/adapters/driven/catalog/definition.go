package catalog

import (
	"encoding/json"
	"fmt"
	"html/template"
	"math"

	"github.com/custodia-labs/docforge/internal/core/domain"
	"github.com/custodia-labs/docforge/internal/render/fragments"
)

// fileDef is the on-disk shape of a catalog file. The json tags are used
// when decoding CUE values.
type fileDef struct {
	Templates []templateDef `yaml:"templates" json:"templates"`
	Styles    []styleDef    `yaml:"styles" json:"styles"`
}

type templateDef struct {
	ID                string        `yaml:"id" json:"id"`
	Group             string        `yaml:"group" json:"group"`
	Title             string        `yaml:"title" json:"title"`
	Skeleton          string        `yaml:"skeleton" json:"skeleton"`
	MinFragments      int           `yaml:"min_fragments" json:"min_fragments"`
	RequiredFragments []string      `yaml:"required_fragments" json:"required_fragments"`
	Globals           []fieldDef    `yaml:"globals" json:"globals"`
	Fragments         []fragmentDef `yaml:"fragments" json:"fragments"`
}

// fragmentDef declares a fragment type. Its schema is the kind's own.
type fragmentDef struct {
	ID          string `yaml:"id" json:"id"`
	Kind        string `yaml:"kind" json:"kind"`
	Description string `yaml:"description" json:"description"`
}

type fieldDef struct {
	Name         string     `yaml:"name" json:"name"`
	Type         string     `yaml:"type" json:"type"`
	Description  string     `yaml:"description" json:"description"`
	Required     bool       `yaml:"required" json:"required"`
	Default      any        `yaml:"default" json:"default"`
	Enum         []string   `yaml:"enum" json:"enum"`
	Min          *float64   `yaml:"min" json:"min"`
	Max          *float64   `yaml:"max" json:"max"`
	MinLength    *int       `yaml:"min_length" json:"min_length"`
	MaxLength    *int       `yaml:"max_length" json:"max_length"`
	Pattern      string     `yaml:"pattern" json:"pattern"`
	Elem         *fieldDef  `yaml:"elem" json:"elem"`
	Fields       []fieldDef `yaml:"fields" json:"fields"`
	AcceptSingle bool       `yaml:"accept_single" json:"accept_single"`
	RequireHTTPS bool       `yaml:"require_https" json:"require_https"`
	Embed        bool       `yaml:"embed" json:"embed"`
	MaxBytes     int64      `yaml:"max_bytes" json:"max_bytes"`
}

type styleDef struct {
	ID               string  `yaml:"id" json:"id"`
	Group            string  `yaml:"group" json:"group"`
	FontFamily       string  `yaml:"font_family" json:"font_family"`
	FontSize         float64 `yaml:"font_size" json:"font_size"`
	TextColor        string  `yaml:"text_color" json:"text_color"`
	HeadingColor     string  `yaml:"heading_color" json:"heading_color"`
	HeaderBackground string  `yaml:"header_background" json:"header_background"`
	HeaderForeground string  `yaml:"header_foreground" json:"header_foreground"`
	BorderColor      string  `yaml:"border_color" json:"border_color"`
	BorderWidth      float64 `yaml:"border_width" json:"border_width"`
	StripeBackground string  `yaml:"stripe_background" json:"stripe_background"`
	AccentColor      string  `yaml:"accent_color" json:"accent_color"`
}

func groupOrPublic(g string) string {
	if g == "" {
		return domain.PublicGroup
	}
	return g
}

func (d templateDef) toDomain() (*domain.Template, error) {
	if d.ID == "" {
		return nil, fmt.Errorf("template without id")
	}
	if d.Skeleton != "" {
		if _, err := template.New(d.ID).Parse(d.Skeleton); err != nil {
			return nil, fmt.Errorf("template %s: skeleton: %w", d.ID, err)
		}
	}

	globals, err := toFields(d.Globals, "globals")
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", d.ID, err)
	}

	t := &domain.Template{
		ID:                d.ID,
		Group:             groupOrPublic(d.Group),
		Title:             d.Title,
		GlobalSchema:      domain.Schema{Fields: globals},
		Fragments:         make(map[string]domain.FragmentType, len(d.Fragments)),
		Skeleton:          d.Skeleton,
		MinFragments:      d.MinFragments,
		RequiredFragments: append([]string(nil), d.RequiredFragments...),
	}
	if t.Title == "" {
		t.Title = d.ID
	}

	for _, fd := range d.Fragments {
		if fd.ID == "" {
			return nil, fmt.Errorf("template %s: fragment without id", d.ID)
		}
		if _, dup := t.Fragments[fd.ID]; dup {
			return nil, fmt.Errorf("template %s: duplicate fragment %s", d.ID, fd.ID)
		}
		kind, ok := fragments.Lookup(fd.Kind)
		if !ok {
			return nil, fmt.Errorf("template %s: fragment %s: unknown kind %q", d.ID, fd.ID, fd.Kind)
		}
		desc := fd.Description
		if desc == "" {
			desc = kind.Description
		}
		t.Fragments[fd.ID] = domain.FragmentType{ID: fd.ID, Kind: kind.Name, Description: desc, Schema: kind.Schema}
	}
	for _, id := range t.RequiredFragments {
		if _, ok := t.Fragments[id]; !ok {
			return nil, fmt.Errorf("template %s: required fragment %s is not declared", d.ID, id)
		}
	}
	return t, nil
}

func toFields(defs []fieldDef, path string) ([]domain.Field, error) {
	out := make([]domain.Field, 0, len(defs))
	seen := make(map[string]bool, len(defs))
	for _, fd := range defs {
		if fd.Name == "" {
			return nil, fmt.Errorf("%s: field without name", path)
		}
		if seen[fd.Name] {
			return nil, fmt.Errorf("%s: duplicate field %s", path, fd.Name)
		}
		seen[fd.Name] = true
		f, err := fd.toDomain(path + "." + fd.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func (d fieldDef) toDomain(path string) (domain.Field, error) {
	ft := domain.FieldType(d.Type)
	if !ft.IsValid() {
		return domain.Field{}, fmt.Errorf("%s: unknown type %q", path, d.Type)
	}
	if ft == domain.FieldEnum && len(d.Enum) == 0 {
		return domain.Field{}, fmt.Errorf("%s: enum without values", path)
	}

	f := domain.Field{
		Name:         d.Name,
		Type:         ft,
		Description:  d.Description,
		Required:     d.Required,
		Default:      normaliseDefault(ft, d.Default),
		Enum:         append([]string(nil), d.Enum...),
		Min:          d.Min,
		Max:          d.Max,
		MinLength:    d.MinLength,
		MaxLength:    d.MaxLength,
		Pattern:      d.Pattern,
		AcceptSingle: d.AcceptSingle,
		RequireHTTPS: d.RequireHTTPS,
		Embed:        d.Embed,
		MaxBytes:     d.MaxBytes,
	}
	if d.Elem != nil {
		elem, err := d.Elem.toDomain(path + "[]")
		if err != nil {
			return domain.Field{}, err
		}
		f.Elem = &elem
	}
	if len(d.Fields) > 0 {
		fields, err := toFields(d.Fields, path)
		if err != nil {
			return domain.Field{}, err
		}
		f.Fields = fields
	}
	return f, nil
}

// normaliseDefault converts decoder-specific numeric types to the types the
// validator produces, so a defaulted value looks like a supplied one.
func normaliseDefault(ft domain.FieldType, v any) any {
	var n float64
	switch x := v.(type) {
	case int:
		n = float64(x)
	case int64:
		n = float64(x)
	case uint64:
		n = float64(x)
	case float64:
		n = x
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return v
		}
		n = f
	default:
		return v
	}
	if ft == domain.FieldInteger && n == math.Trunc(n) {
		return int64(n)
	}
	return n
}

func (d styleDef) toDomain() (*domain.Style, error) {
	if d.ID == "" {
		return nil, fmt.Errorf("style without id")
	}
	for name, c := range map[string]string{
		"text_color": d.TextColor, "heading_color": d.HeadingColor,
		"header_background": d.HeaderBackground, "header_foreground": d.HeaderForeground,
		"border_color": d.BorderColor, "stripe_background": d.StripeBackground, "accent_color": d.AccentColor,
	} {
		if c != "" && !validColor(c) {
			return nil, fmt.Errorf("style %s: %s %q is not #RRGGBB", d.ID, name, c)
		}
	}
	if d.FontSize < 0 || d.BorderWidth < 0 {
		return nil, fmt.Errorf("style %s: sizes must not be negative", d.ID)
	}
	return &domain.Style{
		ID:               d.ID,
		Group:            groupOrPublic(d.Group),
		FontFamily:       d.FontFamily,
		FontSize:         d.FontSize,
		TextColor:        d.TextColor,
		HeadingColor:     d.HeadingColor,
		HeaderBackground: d.HeaderBackground,
		HeaderForeground: d.HeaderForeground,
		BorderColor:      d.BorderColor,
		BorderWidth:      d.BorderWidth,
		StripeBackground: d.StripeBackground,
		AccentColor:      d.AccentColor,
	}, nil
}

func validColor(c string) bool {
	if len(c) != 7 || c[0] != '#' {
		return false
	}
	for _, r := range c[1:] {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f' || r >= 'A' && r <= 'F') {
			return false
		}
	}
	return true
}
