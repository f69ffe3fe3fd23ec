package formstore_test

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	formstore "github.com/goliatone/go-formstore"
	store "github.com/goliatone/go-formstore/pkg/formstore"
	"github.com/goliatone/go-formstore/pkg/model"
	pkgopenapi "github.com/goliatone/go-formstore/pkg/openapi"
	"github.com/goliatone/go-formstore/pkg/schema"
	"github.com/goliatone/go-formstore/pkg/testsupport"
)

const bannerAPI = `
openapi: 3.0.0
info: {title: Banners, version: "1"}
paths:
  /banners:
    post:
      operationId: banner
      requestBody:
        content:
          application/json:
            schema:
              type: object
              required: [image]
              properties:
                title: {type: string}
                image: {type: string, x-formstore-format: image}
                position: {type: integer}
      responses:
        "201": {description: created}
  /banners/{bannerId}:
    put:
      parameters:
        - {name: bannerId, in: path, required: true, schema: {type: string}}
      requestBody:
        content:
          application/json:
            schema: {type: object, properties: {title: {type: string}}}
      responses:
        "200": {description: ok}
`

func TestImportOpenAPI_BuildsEditableForms(t *testing.T) {
	files := fstest.MapFS{"banners.yaml": {Data: []byte(bannerAPI)}}
	loader := formstore.NewLoader(pkgopenapi.WithFileSystem(files))

	registry, err := formstore.ImportOpenAPI(context.Background(), loader, nil, pkgopenapi.FSSource("banners.yaml"))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if diff := cmp.Diff([]string{"banner"}, registry.IDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}

	form, _ := registry.Form("banner")
	if form.RecordEndpoint != "/banners/{id}" {
		t.Fatalf("unexpected record endpoint %q", form.RecordEndpoint)
	}

	s, err := store.New(form)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	s.Reset()
	if err := s.Set(store.P("image"), "https://cdn.example.com/b.png"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(store.P("position"), "3"); err != nil {
		t.Fatalf("set: %v", err)
	}
	payload, err := s.Normalize()
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := map[string]any{"image": "https://cdn.example.com/b.png", "position": int64(3), "title": ""}
	if diff := cmp.Diff(want, payload); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestEmbeddedProduct_PayloadGolden(t *testing.T) {
	forms, err := schema.Embedded()
	if err != nil {
		t.Fatalf("embedded: %v", err)
	}
	form, ok := forms.Form("product")
	if !ok {
		t.Fatal("product form missing")
	}

	s, err := store.New(form)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := s.Load(testsupport.MustLoadRecord(t, "testdata/product_record.yaml")); err != nil {
		t.Fatalf("load: %v", err)
	}
	payload, err := s.Normalize()
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	testsupport.AssertGolden(t, "testdata/product_payload.golden.json", payload)
}

func TestImportOpenAPI_AppliesLabeler(t *testing.T) {
	files := fstest.MapFS{"banners.yaml": {Data: []byte(bannerAPI)}}
	loader := formstore.NewLoader(pkgopenapi.WithFileSystem(files))

	registry, err := formstore.ImportOpenAPI(context.Background(), loader, nil, pkgopenapi.FSSource("banners.yaml"),
		model.WithLabeler(strings.ToUpper))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	form, _ := registry.Form("banner")
	labels := map[string]string{}
	for _, field := range form.Fields {
		labels[field.Name] = field.Label
	}
	want := map[string]string{"title": "TITLE", "image": "IMAGE", "position": "POSITION"}
	if diff := cmp.Diff(want, labels); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestEmbeddedProduct_VariantWithoutStockIsKept(t *testing.T) {
	forms, err := schema.Embedded()
	if err != nil {
		t.Fatalf("embedded: %v", err)
	}
	form, _ := forms.Form("product")

	cases := map[string]struct {
		stock any
		want  map[string]any
	}{
		"default stock": {
			stock: nil,
			want:  map[string]any{"sku": "A", "name": "", "price": float64(10), "stock_quantity": int64(0)},
		},
		"blank stock": {
			stock: "",
			want:  map[string]any{"sku": "A", "name": "", "price": float64(10)},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			s, err := store.New(form)
			if err != nil {
				t.Fatalf("store: %v", err)
			}
			s.Reset()
			mustSet := func(path store.Path, value any) {
				t.Helper()
				if err := s.Set(path, value); err != nil {
					t.Fatalf("set %s: %v", path, err)
				}
			}
			mustSet(store.P("name"), "Serum")
			mustSet(store.P("price"), "10")

			index, err := s.AppendEntry(store.P("variants"), nil)
			if err != nil {
				t.Fatalf("append: %v", err)
			}
			mustSet(store.P("variants", index, "sku"), "A")
			mustSet(store.P("variants", index, "price"), "10")
			if tc.stock != nil {
				mustSet(store.P("variants", index, "stock_quantity"), tc.stock)
			}

			payload, err := s.Normalize()
			if err != nil {
				t.Fatalf("normalize: %v", err)
			}
			if diff := cmp.Diff([]any{tc.want}, payload["variants"]); diff != "" {
				t.Fatalf("variants mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
