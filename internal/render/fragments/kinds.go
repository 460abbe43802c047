package fragments

import (
	"sort"

	"github.com/custodia-labs/docforge/internal/core/domain"
	"github.com/custodia-labs/docforge/internal/core/ports/driven"
)

// Built-in kind names.
const (
	KindParagraph = "paragraph"
	KindHeading   = "heading"
	KindTable     = "table"
	KindList      = "list"
	KindImage     = "image"
	KindKeyValue  = "key_value"
)

// Kind bundles a fragment kind's schema with its renderer.
type Kind struct {
	Name        string
	Description string
	Schema      domain.Schema
	Renderer    driven.FragmentRenderer
}

var builtin = map[string]func() Kind{
	KindParagraph: func() Kind {
		return Kind{Name: KindParagraph, Description: "Block of body text", Schema: paragraphSchema(), Renderer: Paragraph{}}
	},
	KindHeading: func() Kind {
		return Kind{Name: KindHeading, Description: "Section heading", Schema: headingSchema(), Renderer: Heading{}}
	},
	KindTable: func() Kind {
		return Kind{Name: KindTable, Description: "Data table with sorting and number formats", Schema: tableSchema(), Renderer: Table{}}
	},
	KindList: func() Kind {
		return Kind{Name: KindList, Description: "Bulleted or numbered list", Schema: listSchema(), Renderer: List{}}
	},
	KindImage: func() Kind {
		return Kind{Name: KindImage, Description: "Embedded image", Schema: imageSchema(), Renderer: Image{}}
	},
	KindKeyValue: func() Kind {
		return Kind{Name: KindKeyValue, Description: "Labelled key/value pairs", Schema: keyValueSchema(), Renderer: KeyValue{}}
	},
}

// Lookup returns the built-in kind with the given name.
func Lookup(name string) (Kind, bool) {
	mk, ok := builtin[name]
	if !ok {
		return Kind{}, false
	}
	return mk(), true
}

// Builtin returns every built-in kind ordered by name.
func Builtin() []Kind {
	kinds := make([]Kind, 0, len(builtin))
	for _, mk := range builtin {
		kinds = append(kinds, mk())
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i].Name < kinds[j].Name })
	return kinds
}

func paragraphSchema() domain.Schema {
	return domain.Schema{Fields: []domain.Field{
		{Name: "text", Type: domain.FieldString, Required: true, MinLength: domain.Int(1), MaxLength: domain.Int(20000),
			Description: "Body text; blank lines separate paragraphs"},
	}}
}

func headingSchema() domain.Schema {
	return domain.Schema{Fields: []domain.Field{
		{Name: "text", Type: domain.FieldString, Required: true, MinLength: domain.Int(1), MaxLength: domain.Int(500)},
		{Name: "level", Type: domain.FieldInteger, Default: int64(2), Min: domain.Float(1), Max: domain.Float(4)},
	}}
}

func tableSchema() domain.Schema {
	columnRef := "Column index (0-based) or header text"
	return domain.Schema{Fields: []domain.Field{
		{Name: "rows", Type: domain.FieldTable, Required: true, Min: domain.Float(1), Max: domain.Float(10000),
			Description: "Rows of cells; the first row is the header when has_header is set"},
		{Name: "has_header", Type: domain.FieldBoolean, Default: false},
		{Name: "number_format", Type: domain.FieldMap, Description: columnRef + " -> number format tag",
			Elem: &domain.Field{Type: domain.FieldNumberFormat}},
		{Name: "align", Type: domain.FieldMap, Description: columnRef + " -> alignment",
			Elem: &domain.Field{Type: domain.FieldEnum, Enum: []string{"left", "center", "right"}}},
		{Name: "sort_by", Type: domain.FieldList, AcceptSingle: true, Max: domain.Float(8),
			Elem: &domain.Field{Type: domain.FieldObject, Fields: []domain.Field{
				{Name: "column", Type: domain.FieldString, Required: true, Description: columnRef},
				{Name: "order", Type: domain.FieldEnum, Enum: []string{"asc", "desc"}, Default: "asc"},
			}}},
		{Name: "caption", Type: domain.FieldString, MaxLength: domain.Int(500)},
		{Name: "striped", Type: domain.FieldBoolean, Default: false},
	}}
}

func listSchema() domain.Schema {
	return domain.Schema{Fields: []domain.Field{
		{Name: "items", Type: domain.FieldList, Required: true, AcceptSingle: true, Min: domain.Float(1),
			Elem: &domain.Field{Type: domain.FieldString}},
		{Name: "ordered", Type: domain.FieldBoolean, Default: false},
	}}
}

func imageSchema() domain.Schema {
	return domain.Schema{Fields: []domain.Field{
		{Name: "src", Type: domain.FieldURL, Required: true, Embed: true},
		{Name: "alt", Type: domain.FieldString, Default: "", MaxLength: domain.Int(500)},
		{Name: "caption", Type: domain.FieldString, MaxLength: domain.Int(500)},
		{Name: "width", Type: domain.FieldInteger, Min: domain.Float(1), Max: domain.Float(2000)},
	}}
}

func keyValueSchema() domain.Schema {
	return domain.Schema{Fields: []domain.Field{
		{Name: "title", Type: domain.FieldString, MaxLength: domain.Int(500)},
		{Name: "pairs", Type: domain.FieldList, Required: true, AcceptSingle: true, Min: domain.Float(1),
			Elem: &domain.Field{Type: domain.FieldObject, Fields: []domain.Field{
				{Name: "key", Type: domain.FieldString, Required: true},
				{Name: "value", Type: domain.FieldString, Required: true},
			}}},
	}}
}
