package schema_test

import (
	"testing"

	"github.com/goliatone/go-formstore/pkg/model"
	"github.com/goliatone/go-formstore/pkg/schema"
)

func TestRules_CheckString(t *testing.T) {
	field := model.Field{
		Name:     "slug",
		Type:     model.FieldTypeString,
		Required: true,
		Validations: []model.ValidationRule{
			{Kind: model.ValidationRuleMinLength, Params: map[string]string{"value": "3"}},
			{Kind: model.ValidationRuleMaxLength, Params: map[string]string{"value": "8"}},
			{Kind: model.ValidationRulePattern, Params: map[string]string{"pattern": "^[a-z-]+$"}},
		},
	}
	rules := schema.RulesFor(field)

	cases := map[string]string{
		"":          "is required",
		"ab":        "must be at least 3 characters",
		"abcdefghi": "must be at most 8 characters",
		"Abc":       "does not match required pattern",
		"glow-up":   "",
	}
	for input, want := range cases {
		err := rules.CheckString(input)
		if want == "" {
			if err != nil {
				t.Fatalf("CheckString(%q) unexpected error: %v", input, err)
			}
			continue
		}
		if err == nil || err.Error() != want {
			t.Fatalf("CheckString(%q) = %v, want %q", input, err, want)
		}
	}
}

func TestRules_CheckNumber(t *testing.T) {
	rules := schema.RulesFor(model.Field{
		Type: model.FieldTypeInteger,
		Validations: []model.ValidationRule{
			{Kind: model.ValidationRuleMin, Params: map[string]string{"value": "1"}},
			{Kind: model.ValidationRuleMax, Params: map[string]string{"value": "5"}},
			{Kind: model.ValidationRuleMax, Params: map[string]string{"value": "oops"}},
		},
	})

	if err := rules.CheckNumber(int64(3)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := rules.CheckNumber(int64(0)); err == nil || err.Error() != "must be at least 1" {
		t.Fatalf("expected min error, got %v", err)
	}
	if err := rules.CheckNumber(6.5); err == nil || err.Error() != "must be at most 5" {
		t.Fatalf("expected max error, got %v", err)
	}
}

func TestRules_CheckArray(t *testing.T) {
	rules := schema.RulesFor(model.Field{Type: model.FieldTypeArray, Required: true})
	if err := rules.CheckArray(0); err == nil {
		t.Fatalf("expected required error for empty array")
	}
	if err := rules.CheckArray(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseNumber(t *testing.T) {
	if got, err := schema.ParseNumber(" 12 ", true); err != nil || got != int64(12) {
		t.Fatalf("ParseNumber integer = %#v, %v", got, err)
	}
	if got, err := schema.ParseNumber("4.0", true); err != nil || got != int64(4) {
		t.Fatalf("ParseNumber integral float = %#v, %v", got, err)
	}
	if _, err := schema.ParseNumber("4.2", true); err == nil {
		t.Fatalf("expected error for fractional integer")
	}
	if got, err := schema.ParseNumber("10", false); err != nil || got != float64(10) {
		t.Fatalf("ParseNumber number = %#v, %v", got, err)
	}
	if _, err := schema.ParseNumber("abc", false); err == nil {
		t.Fatalf("expected error for non-numeric text")
	}
}
