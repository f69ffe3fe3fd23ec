package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	pkgopenapi "github.com/goliatone/go-formstore/pkg/openapi"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func productOperations() map[string]pkgopenapi.Operation {
	body := pkgopenapi.Schema{
		Type:     "object",
		Required: []string{"name", "price"},
		Properties: map[string]pkgopenapi.Schema{
			"name":        {Type: "string", MaxLength: intPtr(160)},
			"price":       {Type: "number", Minimum: floatPtr(0)},
			"website":     {Type: "string", Format: "uri"},
			"description": {Type: "string", Extensions: map[string]any{"x-formstore-format": "html"}},
			"features": {
				Type:       "array",
				Items:      &pkgopenapi.Schema{Type: "string"},
				Extensions: map[string]any{"x-formstore-format": "lines"},
			},
			"categories": {
				Type:     "array",
				MinItems: 1,
				Items: &pkgopenapi.Schema{
					Type:       "object",
					Required:   []string{"slug"},
					Properties: map[string]pkgopenapi.Schema{"slug": {Type: "string"}},
				},
			},
			"owner": {Ref: "#/components/schemas/User"},
		},
	}
	return map[string]pkgopenapi.Operation{
		"createProduct": {ID: "createProduct", Method: "POST", Path: "/products", Summary: "Product", RequestBody: body,
			Extensions: map[string]any{"x-formstore-id": "product"}},
		"updateProduct": {ID: "updateProduct", Method: "PUT", Path: "/products/{productId}", RequestBody: body},
		"createTag": {ID: "createTag", Method: "POST", Path: "/tags", RequestBody: pkgopenapi.Schema{
			Type:       "object",
			Properties: map[string]pkgopenapi.Schema{"label": {Type: "string"}},
		}},
	}
}

func TestBuilder_Forms(t *testing.T) {
	forms, err := NewBuilder(BuilderOptions{}).Forms(productOperations())
	if err != nil {
		t.Fatalf("forms: %v", err)
	}
	if len(forms) != 2 {
		t.Fatalf("expected 2 forms, got %d", len(forms))
	}

	tag := forms[0]
	if tag.ID != "createTag" || tag.Endpoint != "/tags" || tag.RecordEndpoint != "" {
		t.Fatalf("unexpected tag form: %+v", tag)
	}
	if tag.Title != "Create tag" {
		t.Fatalf("expected derived title, got %q", tag.Title)
	}

	product := forms[1]
	if product.ID != "product" || product.RecordEndpoint != "/products/{id}" {
		t.Fatalf("unexpected product form: %+v", product)
	}

	want := []Field{
		{
			Name: "categories", Type: FieldTypeArray, Label: "Categories", MinItems: 1,
			Items: &Field{
				Name: "category", Type: FieldTypeObject, Label: "Category",
				Nested: []Field{{Name: "slug", Type: FieldTypeString, Required: true, Label: "Slug"}},
			},
		},
		{Name: "description", Type: FieldTypeString, Format: FormatHTML, Label: "Description"},
		{Name: "features", Type: FieldTypeArray, Format: FormatLines, Label: "Features",
			Items: &Field{Name: "feature", Type: FieldTypeString, Label: "Feature"}},
		{Name: "name", Type: FieldTypeString, Required: true, Label: "Name",
			Validations: []ValidationRule{{Kind: ValidationRuleMaxLength, Params: map[string]string{"value": "160"}}}},
		{Name: "price", Type: FieldTypeNumber, Required: true, Label: "Price",
			Validations: []ValidationRule{{Kind: ValidationRuleMin, Params: map[string]string{"value": "0"}}}},
		{Name: "website", Type: FieldTypeString, Format: FormatURL, Label: "Website"},
	}
	if diff := cmp.Diff(want, product.Fields); diff != "" {
		t.Fatalf("product fields mismatch (-want +got):\n%s", diff)
	}
}

func TestBuilder_RejectsNonObjectBody(t *testing.T) {
	_, err := NewBuilder(BuilderOptions{}).Build(pkgopenapi.Operation{
		ID: "upload", Method: "POST", Path: "/upload",
		RequestBody: pkgopenapi.Schema{Type: "string"},
	})
	if err == nil {
		t.Fatalf("expected error for scalar request body")
	}
}

func TestBuilder_DuplicateFormIDs(t *testing.T) {
	ops := productOperations()
	tag := ops["createTag"]
	tag.Extensions = map[string]any{"x-formstore-id": "product"}
	ops["createTag"] = tag

	if _, err := NewBuilder(BuilderOptions{}).Forms(ops); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestDefaultLabeler(t *testing.T) {
	cases := map[string]string{
		"stock_quantity":  "Stock Quantity",
		"backgroundColor": "Background color",
		"howToUse":        "How to use",
		"slide2Title":     "Slide 2 title",
		"hero-image":      "Hero Image",
		"":                "",
	}
	for in, want := range cases {
		if got := DefaultLabeler(in); got != want {
			t.Fatalf("DefaultLabeler(%q) = %q, want %q", in, got, want)
		}
	}
}
