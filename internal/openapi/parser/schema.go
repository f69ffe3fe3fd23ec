package parser

import (
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	pkgopenapi "github.com/goliatone/go-formstore/pkg/openapi"
)

// extensionNamespace prefixes the vendor extensions the form builder reads,
// e.g. x-formstore-format or x-formstore-id.
const extensionNamespace = "x-formstore"

func convertSchema(ref *openapi3.SchemaRef) pkgopenapi.Schema {
	return convert(ref, make(map[*openapi3.Schema]bool))
}

// convert walks ref, leaving recursive references unresolved so cyclic
// component graphs terminate.
func convert(ref *openapi3.SchemaRef, visiting map[*openapi3.Schema]bool) pkgopenapi.Schema {
	if ref == nil {
		return pkgopenapi.Schema{}
	}
	if ref.Value == nil || visiting[ref.Value] {
		return pkgopenapi.Schema{Ref: ref.Ref}
	}
	src := ref.Value
	visiting[src] = true
	defer delete(visiting, src)

	schema := pkgopenapi.Schema{
		Ref:         ref.Ref,
		Type:        firstSchemaType(src.Type),
		Format:      src.Format,
		Description: src.Description,
		Default:     src.Default,
		Pattern:     src.Pattern,
		MinItems:    int(src.MinItems),
		Extensions:  extractExtensions(src.Extensions),
	}
	if len(src.Required) > 0 {
		schema.Required = append([]string(nil), src.Required...)
	}
	if len(src.Enum) > 0 {
		schema.Enum = append([]any(nil), src.Enum...)
	}
	if src.Min != nil {
		value := *src.Min
		schema.Minimum = &value
	}
	if src.Max != nil {
		value := *src.Max
		schema.Maximum = &value
	}
	if src.MinLength != 0 {
		value := int(src.MinLength)
		schema.MinLength = &value
	}
	if src.MaxLength != nil {
		value := int(*src.MaxLength)
		schema.MaxLength = &value
	}
	if len(src.Properties) > 0 {
		schema.Properties = make(map[string]pkgopenapi.Schema, len(src.Properties))
		for name, property := range src.Properties {
			schema.Properties[name] = convert(property, visiting)
		}
	}
	if src.Items != nil {
		items := convert(src.Items, visiting)
		schema.Items = &items
	}
	mergeAllOf(&schema, src.AllOf, visiting)
	return schema
}

// mergeAllOf folds allOf members into target: properties, required names and
// extensions are unioned; the first member type wins when target has none.
func mergeAllOf(target *pkgopenapi.Schema, refs openapi3.SchemaRefs, visiting map[*openapi3.Schema]bool) {
	for _, ref := range refs {
		member := convert(ref, visiting)
		if target.Type == "" {
			target.Type = member.Type
		}
		for name, prop := range member.Properties {
			if target.Properties == nil {
				target.Properties = make(map[string]pkgopenapi.Schema)
			}
			if _, exists := target.Properties[name]; !exists {
				target.Properties[name] = prop
			}
		}
		target.Required = append(target.Required, member.Required...)
		for key, value := range member.Extensions {
			if target.Extensions == nil {
				target.Extensions = make(map[string]any)
			}
			if _, exists := target.Extensions[key]; !exists {
				target.Extensions[key] = value
			}
		}
	}
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	for _, value := range types.Slice() {
		if value != "null" {
			return value
		}
	}
	return ""
}

func extractExtensions(raw map[string]any) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	result := make(map[string]any)
	for key, value := range raw {
		if strings.HasPrefix(key, extensionNamespace+"-") && value != nil {
			result[key] = value
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
