package formstore

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formstore/pkg/model"
	"github.com/goliatone/go-formstore/pkg/schema"
)

// conform checks that value fits the node described by field and returns the
// canonical copy that will be stored. Scalars are coerced: any scalar becomes
// text on string fields, numeric text is kept raw on number fields until
// Normalize, and boolean text is parsed.
func conform(field model.Field, value any, path Path) (any, error) {
	switch field.Type {
	case model.FieldTypeObject:
		obj, ok := value.(map[string]any)
		if !ok {
			return nil, pathError(path, "shape: expected object, got %s", kindOf(value))
		}
		if len(obj) != len(field.Nested) {
			return nil, pathError(path, "shape: object has %d keys, schema defines %d", len(obj), len(field.Nested))
		}
		out := make(map[string]any, len(field.Nested))
		for _, child := range field.Nested {
			raw, exists := obj[child.Name]
			if !exists {
				return nil, pathError(path, "shape: missing key %q", child.Name)
			}
			conformed, err := conform(child, raw, path.Append(Key(child.Name)))
			if err != nil {
				return nil, err
			}
			out[child.Name] = conformed
		}
		return out, nil

	case model.FieldTypeArray:
		if text, ok := value.(string); ok && field.Format == model.FormatLines {
			return text, nil
		}
		items, ok := toAnySlice(value)
		if !ok {
			return nil, pathError(path, "shape: expected array, got %s", kindOf(value))
		}
		out := make([]any, len(items))
		for i, item := range items {
			conformed, err := conform(itemField(field), item, path.Append(Index(i)))
			if err != nil {
				return nil, err
			}
			out[i] = conformed
		}
		return out, nil

	case model.FieldTypeInteger, model.FieldTypeNumber:
		switch v := value.(type) {
		case nil:
			return "", nil
		case string:
			return v, nil
		case json.Number:
			return v.String(), nil
		}
		if n, ok := schema.NumericValue(value, field.Type == model.FieldTypeInteger); ok {
			return n, nil
		}
		if n, ok := schema.NumericValue(value, false); ok {
			// Fractional value on an integer field stays as text so Normalize
			// can report it.
			return strconv.FormatFloat(n.(float64), 'f', -1, 64), nil
		}
		return nil, pathError(path, "shape: expected number, got %s", kindOf(value))

	case model.FieldTypeBoolean:
		switch v := value.(type) {
		case nil:
			return false, nil
		case bool:
			return v, nil
		case string:
			if b, ok := parseBool(v); ok {
				return b, nil
			}
			return nil, pathError(path, "shape: %q is not a boolean", v)
		}
		return nil, pathError(path, "shape: expected boolean, got %s", kindOf(value))

	default:
		switch v := value.(type) {
		case nil:
			return "", nil
		case string:
			return v, nil
		case bool:
			return strconv.FormatBool(v), nil
		case json.Number:
			return v.String(), nil
		case map[string]any, []any:
			return nil, pathError(path, "shape: expected scalar, got %s", kindOf(value))
		}
		if n, ok := schema.NumericValue(value, false); ok {
			return strconv.FormatFloat(n.(float64), 'f', -1, 64), nil
		}
		return fmt.Sprint(value), nil
	}
}

// merge overlays a fetched record value on the schema default. Missing or
// ill-shaped values fall back to the default; keys unknown to the schema are
// dropped.
func merge(field model.Field, record any, path Path) any {
	if record == nil {
		return schema.Value(field)
	}
	switch field.Type {
	case model.FieldTypeObject:
		obj, ok := record.(map[string]any)
		if !ok {
			return schema.Value(field)
		}
		out := make(map[string]any, len(field.Nested))
		for _, child := range field.Nested {
			out[child.Name] = merge(child, obj[child.Name], path.Append(Key(child.Name)))
		}
		return out

	case model.FieldTypeArray:
		items, ok := toAnySlice(record)
		if !ok {
			if text, isText := record.(string); isText && field.Format == model.FormatLines {
				return text
			}
			return schema.Value(field)
		}
		out := make([]any, 0, len(items))
		for i, item := range items {
			out = append(out, merge(itemField(field), item, path.Append(Index(i))))
		}
		return out

	default:
		conformed, err := conform(field, record, path)
		if err != nil {
			return schema.Value(field)
		}
		return conformed
	}
}

func itemField(array model.Field) model.Field {
	if array.Items == nil {
		return model.Field{Type: model.FieldTypeString}
	}
	return *array.Items
}

func toAnySlice(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out, true
	default:
		return nil, false
	}
}

func parseBool(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "on", "yes":
		return true, true
	case "false", "0", "off", "no", "":
		return false, true
	default:
		return false, false
	}
}

func kindOf(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any, []string, []map[string]any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	default:
		if _, ok := schema.NumericValue(value, false); ok {
			return "number"
		}
		return fmt.Sprintf("%T", value)
	}
}
