package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("SCHEMA_DIR", "")
	t.Setenv("OPENAPI_SOURCE", "")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestNormalizeCommand(t *testing.T) {
	out, err := run(t, `{"title": "Spring", "image": "https://cdn.example.com/s.png", "position": "3", "extra": 1}`, "normalize", "banner")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	want := map[string]any{
		"title":    "Spring",
		"image":    "https://cdn.example.com/s.png",
		"link":     "",
		"position": float64(3),
		"active":   true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeCommand_ValidationError(t *testing.T) {
	_, err := run(t, "title: Spring\n", "normalize", "banner")
	if err == nil || !strings.Contains(err.Error(), `"image"`) {
		t.Fatalf("expected image validation error, got %v", err)
	}
}

func TestNormalizeCommand_UnknownForm(t *testing.T) {
	if _, err := run(t, "{}", "normalize", "nope"); err == nil {
		t.Fatal("expected unknown form error")
	}
}

func TestSchemasCommand(t *testing.T) {
	out, err := run(t, "", "schemas")
	if err != nil {
		t.Fatalf("schemas: %v", err)
	}
	for _, id := range []string{"product", "landing", "banner"} {
		if !strings.Contains(out, id) {
			t.Errorf("expected %s in listing:\n%s", id, out)
		}
	}

	out, err = run(t, "", "schemas", "show", "banner")
	if err != nil {
		t.Fatalf("schemas show: %v", err)
	}
	if !strings.Contains(out, "endpoint: /banners") {
		t.Fatalf("unexpected schema output:\n%s", out)
	}
}

func TestSchemaDirIsMerged(t *testing.T) {
	dir := t.TempDir()
	schemaFile := "id: coupon\nendpoint: /coupons\nfields:\n  - name: code\n    type: string\n    required: true\n"
	if err := os.WriteFile(filepath.Join(dir, "coupon.yaml"), []byte(schemaFile), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "", "--schemas", dir, "schemas")
	if err != nil {
		t.Fatalf("schemas: %v", err)
	}
	if !strings.Contains(out, "coupon") {
		t.Fatalf("expected coupon form in listing:\n%s", out)
	}
}

func TestOpenAPICommand(t *testing.T) {
	dir := t.TempDir()
	doc := `openapi: 3.0.3
info: {title: Shop, version: "1"}
paths:
  /coupons:
    post:
      operationId: createCoupon
      requestBody:
        content:
          application/json:
            schema:
              type: object
              required: [code]
              properties:
                code: {type: string}
                percent: {type: integer, minimum: 0, maximum: 100}
      responses:
        "201": {description: created}
`
	path := filepath.Join(dir, "shop.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "", "openapi", path)
	if err != nil {
		t.Fatalf("openapi: %v", err)
	}
	for _, want := range []string{"forms:", "endpoint: /coupons", "name: percent"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}
