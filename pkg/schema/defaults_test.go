package schema_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstore/pkg/model"
	"github.com/goliatone/go-formstore/pkg/schema"
)

func TestDefaults(t *testing.T) {
	form := model.FormSchema{
		ID:       "landing",
		Endpoint: "/landing",
		Fields: []model.Field{
			{Name: "template", Type: model.FieldTypeString, Default: "classic"},
			{Name: "rating", Type: model.FieldTypeInteger, Default: 5},
			{Name: "ratio", Type: model.FieldTypeNumber, Default: "not-a-number"},
			{Name: "price", Type: model.FieldTypeNumber},
			{Name: "active", Type: model.FieldTypeBoolean, Default: true},
			{Name: "code", Type: model.FieldTypeString, Default: 42},
			{
				Name:     "benefits",
				Type:     model.FieldTypeArray,
				MinItems: 2,
				Items: &model.Field{
					Name:   "benefit",
					Type:   model.FieldTypeObject,
					Nested: []model.Field{{Name: "text", Type: model.FieldTypeString}},
				},
			},
			{
				Name:    "steps",
				Type:    model.FieldTypeArray,
				Default: []any{"Apply", "Rinse"},
				Items:   &model.Field{Name: "step", Type: model.FieldTypeString},
			},
		},
	}

	want := map[string]any{
		"template": "classic",
		"rating":   int64(5),
		"ratio":    "not-a-number",
		"price":    "",
		"active":   true,
		"code":     "42",
		"benefits": []any{map[string]any{"text": ""}, map[string]any{"text": ""}},
		"steps":    []any{"Apply", "Rinse"},
	}
	if diff := cmp.Diff(want, schema.Defaults(form)); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaults_FreshCopies(t *testing.T) {
	field := model.Field{
		Name:    "steps",
		Type:    model.FieldTypeArray,
		Default: []any{"Apply"},
		Items:   &model.Field{Name: "step", Type: model.FieldTypeString},
	}
	first := schema.Value(field).([]any)
	first[0] = "changed"

	if diff := cmp.Diff([]any{"Apply"}, schema.Value(field)); diff != "" {
		t.Fatalf("default aliased between calls (-want +got):\n%s", diff)
	}
}

func TestTemplate(t *testing.T) {
	if got := schema.Template(model.Field{Type: model.FieldTypeArray}); got != "" {
		t.Fatalf("expected empty string template, got %#v", got)
	}
	field := model.Field{
		Type:  model.FieldTypeArray,
		Items: &model.Field{Type: model.FieldTypeInteger},
	}
	if got := schema.Template(field); got != "" {
		t.Fatalf("numeric template should be empty text, got %#v", got)
	}
}

func TestNumericValue(t *testing.T) {
	cases := []struct {
		in      any
		integer bool
		want    any
		ok      bool
	}{
		{in: 3, integer: true, want: int64(3), ok: true},
		{in: 3.0, integer: true, want: int64(3), ok: true},
		{in: 3.5, integer: true, ok: false},
		{in: int64(7), integer: false, want: float64(7), ok: true},
		{in: float32(1.5), integer: false, want: float64(1.5), ok: true},
		{in: "3", integer: false, ok: false},
	}
	for _, tc := range cases {
		got, ok := schema.NumericValue(tc.in, tc.integer)
		if ok != tc.ok {
			t.Fatalf("NumericValue(%#v, %v) ok=%v, want %v", tc.in, tc.integer, ok, tc.ok)
		}
		if ok && got != tc.want {
			t.Fatalf("NumericValue(%#v, %v) = %#v, want %#v", tc.in, tc.integer, got, tc.want)
		}
	}
}
