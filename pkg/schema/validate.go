package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formstore/pkg/model"
)

var (
	errFormIDMissing       = errors.New("schema: form id is required")
	errFormEndpointMissing = errors.New("schema: form endpoint is required")
)

// Validate checks that a form schema is well formed: identifiers present,
// field names unique per object, arrays describe their items and objects list
// their children.
func Validate(form model.FormSchema) error {
	if strings.TrimSpace(form.ID) == "" {
		return errFormIDMissing
	}
	if strings.TrimSpace(form.Endpoint) == "" {
		return fmt.Errorf("%w (form %s)", errFormEndpointMissing, form.ID)
	}
	if err := validateFields(form.Fields, ""); err != nil {
		return fmt.Errorf("schema: form %s: %w", form.ID, err)
	}
	return nil
}

func validateFields(fields []model.Field, prefix string) error {
	seen := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			return fmt.Errorf("field under %q has no name", prefix)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate field %q", joinPath(prefix, name))
		}
		seen[name] = struct{}{}
		if err := validateField(field, joinPath(prefix, name)); err != nil {
			return err
		}
	}
	return nil
}

func validateField(field model.Field, path string) error {
	switch field.Type {
	case model.FieldTypeString, model.FieldTypeInteger, model.FieldTypeNumber, model.FieldTypeBoolean:
		if field.Format == model.FormatLines {
			return fmt.Errorf("field %q: lines format applies to arrays of strings", path)
		}
		return nil
	case model.FieldTypeObject:
		if len(field.Nested) == 0 {
			return fmt.Errorf("object field %q requires nested fields", path)
		}
		return validateFields(field.Nested, path)
	case model.FieldTypeArray:
		if field.Items == nil {
			return fmt.Errorf("array field %q requires items", path)
		}
		if field.MinItems < 0 {
			return fmt.Errorf("array field %q has negative minItems", path)
		}
		if field.Format == model.FormatLines && field.Items.Type != model.FieldTypeString {
			return fmt.Errorf("array field %q: lines format requires string items", path)
		}
		return validateField(*field.Items, path+"[]")
	default:
		return fmt.Errorf("field %q has unsupported type %q", path, field.Type)
	}
}

func joinPath(parent, child string) string {
	if parent == "" {
		return child
	}
	if child == "" {
		return parent
	}
	return parent + "." + child
}
