package domain

// FieldType is the declared type of a parameter.
type FieldType string

// Supported field types.
const (
	FieldString       FieldType = "string"
	FieldInteger      FieldType = "integer"
	FieldNumber       FieldType = "number"
	FieldBoolean      FieldType = "boolean"
	FieldEnum         FieldType = "enum"
	FieldURL          FieldType = "url"
	FieldList         FieldType = "list"
	FieldObject       FieldType = "object"
	FieldMap          FieldType = "map"
	FieldTable        FieldType = "table"
	FieldNumberFormat FieldType = "number_format"
)

// IsValid returns true if the field type is recognised.
func (t FieldType) IsValid() bool {
	switch t {
	case FieldString, FieldInteger, FieldNumber, FieldBoolean, FieldEnum, FieldURL,
		FieldList, FieldObject, FieldMap, FieldTable, FieldNumberFormat:
		return true
	default:
		return false
	}
}

// Field declares one parameter: its name, type, constraints and default.
type Field struct {
	// Name is the parameter key.
	Name string

	// Type is the declared type.
	Type FieldType

	// Description is shown by listing surfaces.
	Description string

	// Required fields must be supplied (or defaulted).
	Required bool

	// Default is applied when the field is omitted.
	Default any

	// Enum lists the allowed values for FieldEnum.
	Enum []string

	// Min and Max bound numeric values, and list/table lengths.
	Min *float64
	Max *float64

	// MinLength and MaxLength bound string lengths in runes.
	MinLength *int
	MaxLength *int

	// Pattern is a regular expression a string must match.
	Pattern string

	// Elem describes list elements and map values.
	Elem *Field

	// Fields describes object members.
	Fields []Field

	// AcceptSingle lets a list field accept one bare element.
	AcceptSingle bool

	// RequireHTTPS rejects non-https URLs.
	RequireHTTPS bool

	// Embed fetches the URL and replaces it with a data URI.
	Embed bool

	// MaxBytes bounds the embedded payload; zero uses the validator default.
	MaxBytes int64
}

// Schema is a closed set of declared fields.
type Schema struct {
	Fields []Field
}

// Field returns the declared field with the given name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// RequiredNames returns the names of required fields in declaration order.
func (s Schema) RequiredNames() []string {
	var names []string
	for _, f := range s.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// Float returns a pointer to v, for schema bounds.
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v, for schema lengths.
func Int(v int) *int {
	return &v
}
