package schema

import (
	"fmt"

	"github.com/goliatone/go-formstore/pkg/model"
)

// Defaults builds the empty document for a form: every field present with its
// declared default, arrays seeded with MinItems fresh entries.
func Defaults(form model.FormSchema) map[string]any {
	out := make(map[string]any, len(form.Fields))
	for _, field := range form.Fields {
		out[field.Name] = Value(field)
	}
	return out
}

// Template returns a fresh copy of the default value for one array element.
// Array fields without an items schema yield an empty string entry.
func Template(array model.Field) any {
	if array.Items == nil {
		return ""
	}
	return Value(*array.Items)
}

// Value returns the default value for a single field.
func Value(field model.Field) any {
	switch field.Type {
	case model.FieldTypeObject:
		out := make(map[string]any, len(field.Nested))
		for _, child := range field.Nested {
			out[child.Name] = Value(child)
		}
		return out
	case model.FieldTypeArray:
		if items, ok := field.Default.([]any); ok {
			return CloneValue(items)
		}
		out := make([]any, 0, field.MinItems)
		for i := 0; i < field.MinItems; i++ {
			out = append(out, Template(field))
		}
		return out
	case model.FieldTypeBoolean:
		if b, ok := field.Default.(bool); ok {
			return b
		}
		return false
	case model.FieldTypeInteger, model.FieldTypeNumber:
		if field.Default == nil {
			return ""
		}
		if n, ok := NumericValue(field.Default, field.Type == model.FieldTypeInteger); ok {
			return n
		}
		return fmt.Sprint(field.Default)
	default:
		switch v := field.Default.(type) {
		case nil:
			return ""
		case string:
			return v
		default:
			return fmt.Sprint(v)
		}
	}
}

// NumericValue converts Go numeric kinds into the canonical document
// representation: int64 for integer fields, float64 otherwise. Strings are
// not parsed here.
func NumericValue(value any, integer bool) (any, bool) {
	var f float64
	switch n := value.(type) {
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		if integer {
			return n, true
		}
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	default:
		return nil, false
	}
	if integer {
		if f != float64(int64(f)) {
			return nil, false
		}
		return int64(f), true
	}
	return f, true
}

// CloneValue deep-copies maps and slices of a document value.
func CloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = CloneValue(v)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = CloneValue(v)
		}
		return clone
	default:
		return typed
	}
}
