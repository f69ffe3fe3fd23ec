package schema_test

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstore/pkg/model"
	"github.com/goliatone/go-formstore/pkg/schema"
)

func TestLoad_YAMLAndJSONFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"banner.yaml": {Data: []byte(`
id: banner
endpoint: /banners
fields:
  - name: title
    type: string
  - name: image_url
    type: string
    required: true
`)},
		"nested/pair.json": {Data: []byte(`{
  "forms": [
    {"id": "faq", "endpoint": "/faq", "fields": [{"name": "question", "type": "string"}]},
    {"id": "tag", "endpoint": "/tags", "fields": [{"name": "label", "type": "string"}]}
  ]
}`)},
		"README.md": {Data: []byte("ignored")},
	}

	registry, err := schema.Load(fsys)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"banner", "faq", "tag"}, registry.IDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}

	banner, ok := registry.Form("banner")
	if !ok {
		t.Fatalf("banner form missing")
	}
	if got := banner.Fields[1].Label; got != "Image Url" {
		t.Fatalf("expected derived label, got %q", got)
	}
	if !banner.Fields[1].Required {
		t.Fatalf("required flag lost")
	}
}

func TestLoad_RejectsDuplicatesAndInvalidForms(t *testing.T) {
	cases := map[string]fstest.MapFS{
		"duplicate": {
			"a.yaml": {Data: []byte("id: x\nendpoint: /x\nfields:\n  - {name: a, type: string}\n")},
			"b.yaml": {Data: []byte("id: x\nendpoint: /x\nfields:\n  - {name: a, type: string}\n")},
		},
		"missing endpoint": {
			"a.yaml": {Data: []byte("id: x\nfields:\n  - {name: a, type: string}\n")},
		},
		"empty file": {
			"a.json": {Data: []byte("  ")},
		},
		"no forms": {
			"a.yaml": {Data: []byte("title: nothing\n")},
		},
		"garbage": {
			"a.yaml": {Data: []byte("id: [unterminated\n")},
		},
	}

	for name, fsys := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := schema.Load(fsys); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoad_NilFS(t *testing.T) {
	registry, err := schema.Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if registry.Len() != 0 {
		t.Fatalf("expected empty registry")
	}
}

func TestEmbedded_BundledForms(t *testing.T) {
	registry, err := schema.Embedded()
	if err != nil {
		t.Fatalf("embedded: %v", err)
	}
	want := []string{"admin_user", "banner", "blog_post", "landing", "product", "review"}
	if diff := cmp.Diff(want, registry.IDs()); diff != "" {
		t.Fatalf("embedded ids mismatch (-want +got):\n%s", diff)
	}

	landing, _ := registry.Form("landing")
	section, ok := landing.Root().Child("benefitsSection")
	if !ok {
		t.Fatalf("benefitsSection missing")
	}
	benefits, ok := section.Child("benefits")
	if !ok || benefits.MinItems != 1 {
		t.Fatalf("expected benefits with minItems 1, got %+v", benefits)
	}

	product, _ := registry.Form("product")
	if !strings.Contains(product.RecordEndpoint, "{id}") {
		t.Fatalf("product record endpoint lacks placeholder: %q", product.RecordEndpoint)
	}
	features, _ := product.Root().Child("features")
	if features.Format != model.FormatLines {
		t.Fatalf("features should use lines format, got %q", features.Format)
	}
}

func TestRegistry_Merge(t *testing.T) {
	a := schema.NewRegistry()
	b := schema.NewRegistry()
	form := model.FormSchema{ID: "x", Endpoint: "/x", Fields: []model.Field{{Name: "a", Type: model.FieldTypeString}}}
	if err := a.Add(form); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := b.Add(form); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := a.Merge(b); err == nil {
		t.Fatalf("expected duplicate error on merge")
	}

	form.ID = "y"
	c := schema.NewRegistry()
	if err := c.Add(form); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := a.Merge(c); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if a.Len() != 2 {
		t.Fatalf("expected 2 forms, got %d", a.Len())
	}
}
