package model

// FieldType is the simplified enum for form-friendly field kinds.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeInteger FieldType = "integer"
	FieldTypeNumber  FieldType = "number"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeArray   FieldType = "array"
	FieldTypeObject  FieldType = "object"
)

// Format hints refine how string fields and arrays of strings are edited and
// normalised.
const (
	FormatText     = ""
	FormatTextArea = "textarea"
	FormatLines    = "lines"
	FormatHTML     = "html"
	FormatColor    = "color"
	FormatURL      = "url"
	FormatImage    = "image"
	FormatEmail    = "email"
)

const (
	ValidationRuleMin       = "min"
	ValidationRuleMax       = "max"
	ValidationRuleMinLength = "minLength"
	ValidationRuleMaxLength = "maxLength"
	ValidationRulePattern   = "pattern"
)

// ValidationRule represents a single validation constraint applied to a field.
// Numeric bounds and length limits encode their threshold in Params["value"]
// while pattern rules preserve the expression in Params["pattern"].
type ValidationRule struct {
	Kind   string            `json:"kind" yaml:"kind"`
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// Field describes one node of a form document. Object fields list their
// children in Nested; array fields describe their element shape in Items.
type Field struct {
	Name        string            `json:"name" yaml:"name"`
	Type        FieldType         `json:"type" yaml:"type"`
	Format      string            `json:"format,omitempty" yaml:"format,omitempty"`
	Required    bool              `json:"required,omitempty" yaml:"required,omitempty"`
	Label       string            `json:"label,omitempty" yaml:"label,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Default     any               `json:"default,omitempty" yaml:"default,omitempty"`
	Enum        []any             `json:"enum,omitempty" yaml:"enum,omitempty"`
	Nested      []Field           `json:"nested,omitempty" yaml:"nested,omitempty"`
	Items       *Field            `json:"items,omitempty" yaml:"items,omitempty"`
	MinItems    int               `json:"minItems,omitempty" yaml:"minItems,omitempty"`
	Validations []ValidationRule  `json:"validations,omitempty" yaml:"validations,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// IsScalar reports whether the field holds a single value.
func (f Field) IsScalar() bool {
	return f.Type != FieldTypeArray && f.Type != FieldTypeObject
}

// IsNumeric reports whether the field is parsed into a number on submit.
func (f Field) IsNumeric() bool {
	return f.Type == FieldTypeInteger || f.Type == FieldTypeNumber
}

// Child returns the nested field with the given name.
func (f Field) Child(name string) (Field, bool) {
	for _, child := range f.Nested {
		if child.Name == name {
			return child, true
		}
	}
	return Field{}, false
}

// DisplayLabel returns the label, falling back to the field name.
func (f Field) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// FormSchema is the static description of one form: where it submits and the
// shape and defaults of the document it edits.
type FormSchema struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Endpoint receives POST requests when creating a record.
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	// RecordEndpoint addresses an existing record; "{id}" is replaced with the
	// record identifier for fetches and PUT updates.
	RecordEndpoint string            `json:"recordEndpoint,omitempty" yaml:"recordEndpoint,omitempty"`
	Fields         []Field           `json:"fields" yaml:"fields"`
	Metadata       map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Root returns the schema as an object field so traversal code can treat the
// document root like any other mapping node.
func (s FormSchema) Root() Field {
	return Field{Name: "", Type: FieldTypeObject, Nested: s.Fields}
}
