package model

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	pkgopenapi "github.com/goliatone/go-formstore/pkg/openapi"
)

const (
	formatExtensionKey = "x-formstore-format"
	formIDExtensionKey = "x-formstore-id"
	labelExtensionKey  = "x-formstore-label"
)

// BuilderOptions configures a Builder.
type BuilderOptions struct {
	Labeler func(string) string
}

// Builder converts OpenAPI operations into form schemas.
type Builder struct {
	labeler func(string) string
}

// NewBuilder creates a Builder. A nil Labeler falls back to DefaultLabeler.
func NewBuilder(options BuilderOptions) *Builder {
	labeler := options.Labeler
	if labeler == nil {
		labeler = DefaultLabeler
	}
	return &Builder{labeler: labeler}
}

// Forms builds one FormSchema per create (POST) operation whose request body
// is an object. The matching PUT or PATCH on `<path>/{param}` becomes the
// record endpoint. Results are ordered by form id.
func (b *Builder) Forms(ops map[string]pkgopenapi.Operation) ([]FormSchema, error) {
	updates := make(map[string]string)
	for _, op := range ops {
		if op.Method != http.MethodPut && op.Method != http.MethodPatch {
			continue
		}
		if collection, ok := collectionPath(op.Path); ok {
			updates[collection] = collection + "/{id}"
		}
	}

	var forms []FormSchema
	seen := make(map[string]string)
	for _, id := range sortedOperationIDs(ops) {
		op := ops[id]
		if op.Method != http.MethodPost {
			continue
		}
		form, err := b.Build(op)
		if err != nil {
			return nil, err
		}
		if len(form.Fields) == 0 {
			continue
		}
		if prev, dup := seen[form.ID]; dup {
			return nil, fmt.Errorf("model builder: form id %q produced by %s and %s", form.ID, prev, op.ID)
		}
		seen[form.ID] = op.ID
		form.RecordEndpoint = updates[strings.TrimRight(op.Path, "/")]
		forms = append(forms, form)
	}
	sort.Slice(forms, func(i, j int) bool { return forms[i].ID < forms[j].ID })
	return forms, nil
}

// Build transforms a single operation into a FormSchema.
func (b *Builder) Build(op pkgopenapi.Operation) (FormSchema, error) {
	if op.ID == "" || op.Path == "" {
		return FormSchema{}, fmt.Errorf("model builder: operation requires id and path")
	}
	id := op.ID
	if v, ok := op.Extensions[formIDExtensionKey].(string); ok && v != "" {
		id = v
	}

	form := FormSchema{
		ID:          id,
		Title:       op.Summary,
		Description: op.Description,
		Endpoint:    op.Path,
		Metadata:    map[string]string{"operationId": op.ID},
	}
	if form.Title == "" {
		form.Title = b.labeler(id)
	}

	if op.RequestBody.Type != "" && op.RequestBody.Type != "object" {
		return FormSchema{}, fmt.Errorf("model builder: operation %s: request body must be an object, got %s", op.ID, op.RequestBody.Type)
	}
	fields, err := b.fieldsFromObject(op.RequestBody, op.ID)
	if err != nil {
		return FormSchema{}, err
	}
	form.Fields = fields
	return form, nil
}

func (b *Builder) fieldsFromObject(schema pkgopenapi.Schema, path string) ([]Field, error) {
	requiredSet := make(map[string]struct{}, len(schema.Required))
	for _, name := range schema.Required {
		requiredSet[name] = struct{}{}
	}

	propNames := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		propNames = append(propNames, name)
	}
	sort.Strings(propNames)

	fields := make([]Field, 0, len(propNames))
	for _, name := range propNames {
		_, required := requiredSet[name]
		field, ok, err := b.field(name, schema.Properties[name], required, path+"."+name)
		if err != nil {
			return nil, err
		}
		if ok {
			fields = append(fields, field)
		}
	}
	return fields, nil
}

// field converts one property. Unresolved references and objects without
// properties are skipped since they describe no editable shape.
func (b *Builder) field(name string, schema pkgopenapi.Schema, required bool, path string) (Field, bool, error) {
	if schema.Type == "" && len(schema.Properties) == 0 && schema.Items == nil {
		return Field{}, false, nil
	}

	field := Field{
		Name:        name,
		Type:        mapType(schema),
		Required:    required,
		Label:       b.labeler(name),
		Description: schema.Description,
		Default:     schema.Default,
	}
	if label := schema.Extension(labelExtensionKey); label != "" {
		field.Label = label
	}
	if len(schema.Enum) > 0 {
		field.Enum = append([]any(nil), schema.Enum...)
	}

	switch field.Type {
	case FieldTypeObject:
		nested, err := b.fieldsFromObject(schema, path)
		if err != nil {
			return Field{}, false, err
		}
		if len(nested) == 0 {
			return Field{}, false, nil
		}
		field.Nested = nested
	case FieldTypeArray:
		if schema.Items == nil {
			return Field{}, false, fmt.Errorf("model builder: array field %q missing items", path)
		}
		item, ok, err := b.field(singular(name), *schema.Items, false, path+"[]")
		if err != nil {
			return Field{}, false, err
		}
		if !ok {
			return Field{}, false, nil
		}
		field.Items = &item
		field.MinItems = schema.MinItems
		field.Format = arrayFormat(schema, item)
	default:
		field.Format = scalarFormat(schema)
	}
	applyValidations(&field, schema)
	return field, true, nil
}

func mapType(schema pkgopenapi.Schema) FieldType {
	switch schema.Type {
	case "integer":
		return FieldTypeInteger
	case "number":
		return FieldTypeNumber
	case "boolean":
		return FieldTypeBoolean
	case "array":
		return FieldTypeArray
	case "object":
		return FieldTypeObject
	case "":
		if len(schema.Properties) > 0 {
			return FieldTypeObject
		}
		if schema.Items != nil {
			return FieldTypeArray
		}
		return FieldTypeString
	default:
		return FieldTypeString
	}
}

func scalarFormat(schema pkgopenapi.Schema) string {
	if hint := schema.Extension(formatExtensionKey); hint != "" {
		return hint
	}
	if schema.Type != "string" && schema.Type != "" {
		return FormatText
	}
	switch strings.ToLower(schema.Format) {
	case "uri", "url", "iri":
		return FormatURL
	case "email", "idn-email":
		return FormatEmail
	case "color":
		return FormatColor
	case "html":
		return FormatHTML
	case "textarea":
		return FormatTextArea
	case "image":
		return FormatImage
	default:
		return FormatText
	}
}

func arrayFormat(schema pkgopenapi.Schema, item Field) string {
	hint := schema.Extension(formatExtensionKey)
	if hint == FormatLines && item.Type == FieldTypeString {
		return FormatLines
	}
	return ""
}

func applyValidations(field *Field, schema pkgopenapi.Schema) {
	if schema.Minimum != nil {
		field.Validations = append(field.Validations, ValidationRule{
			Kind:   ValidationRuleMin,
			Params: map[string]string{"value": formatFloat(*schema.Minimum)},
		})
	}
	if schema.Maximum != nil {
		field.Validations = append(field.Validations, ValidationRule{
			Kind:   ValidationRuleMax,
			Params: map[string]string{"value": formatFloat(*schema.Maximum)},
		})
	}
	if schema.MinLength != nil {
		field.Validations = append(field.Validations, ValidationRule{
			Kind:   ValidationRuleMinLength,
			Params: map[string]string{"value": strconv.Itoa(*schema.MinLength)},
		})
	}
	if schema.MaxLength != nil {
		field.Validations = append(field.Validations, ValidationRule{
			Kind:   ValidationRuleMaxLength,
			Params: map[string]string{"value": strconv.Itoa(*schema.MaxLength)},
		})
	}
	if schema.Pattern != "" {
		field.Validations = append(field.Validations, ValidationRule{
			Kind:   ValidationRulePattern,
			Params: map[string]string{"pattern": schema.Pattern},
		})
	}
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// collectionPath strips a trailing path parameter: /products/{id} -> /products.
func collectionPath(path string) (string, bool) {
	trimmed := strings.TrimRight(path, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx <= 0 {
		return "", false
	}
	last := trimmed[idx+1:]
	if !strings.HasPrefix(last, "{") || !strings.HasSuffix(last, "}") {
		return "", false
	}
	return trimmed[:idx], true
}

func singular(name string) string {
	switch {
	case strings.HasSuffix(name, "ies") && len(name) > 3:
		return name[:len(name)-3] + "y"
	case strings.HasSuffix(name, "s") && !strings.HasSuffix(name, "ss") && len(name) > 1:
		return name[:len(name)-1]
	default:
		return name + "Item"
	}
}

func sortedOperationIDs(ops map[string]pkgopenapi.Operation) []string {
	ids := make([]string, 0, len(ops))
	for id := range ops {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
