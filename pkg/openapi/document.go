package openapi

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// SourceKind enumerates the loader modalities.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
	SourceKindURL  SourceKind = "url"
)

// Source identifies where an OpenAPI document comes from.
type Source struct {
	Kind     SourceKind
	Location string
}

// FileSource points at a document on disk.
func FileSource(path string) Source {
	return Source{Kind: SourceKindFile, Location: filepath.Clean(path)}
}

// FSSource points at a document inside the loader's fs.FS.
func FSSource(name string) Source {
	return Source{Kind: SourceKindFS, Location: name}
}

// URLSource points at a document served over HTTP(S).
func URLSource(raw string) (Source, error) {
	if strings.TrimSpace(raw) == "" {
		return Source{}, errors.New("openapi: empty URL source")
	}
	parsed, err := url.ParseRequestURI(raw)
	if err != nil {
		return Source{}, fmt.Errorf("openapi: invalid URL %q: %w", raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return Source{}, fmt.Errorf("openapi: unsupported URL scheme %q", parsed.Scheme)
	}
	return Source{Kind: SourceKindURL, Location: raw}, nil
}

// ParseSource picks the source kind from the shape of raw: http(s) URLs load
// remotely, everything else is a file path.
func ParseSource(raw string) (Source, error) {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return URLSource(raw)
	}
	if strings.TrimSpace(raw) == "" {
		return Source{}, errors.New("openapi: empty source")
	}
	return FileSource(raw), nil
}

// Document wraps the raw OpenAPI payload and its origin.
type Document struct {
	source Source
	raw    []byte
}

// NewDocument copies raw into a Document.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src.Kind == "" {
		return Document{}, errors.New("openapi: source is required")
	}
	if len(raw) == 0 {
		return Document{}, errors.New("openapi: raw document is empty")
	}
	return Document{source: src, raw: append([]byte(nil), raw...)}, nil
}

// Source returns the origin of the document.
func (d Document) Source() Source {
	return d.source
}

// Raw returns a copy of the payload.
func (d Document) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

// Operation is the subset of an OpenAPI operation needed to build a form.
type Operation struct {
	ID          string
	Method      string
	Path        string
	Summary     string
	Description string
	RequestBody Schema
	Extensions  map[string]any
}

// Schema is a request body or one of its nested properties.
type Schema struct {
	Ref         string
	Type        string
	Format      string
	Required    []string
	Properties  map[string]Schema
	Items       *Schema
	Enum        []any
	Description string
	Default     any
	Minimum     *float64
	Maximum     *float64
	MinLength   *int
	MaxLength   *int
	Pattern     string
	MinItems    int
	Extensions  map[string]any
}

// Extension returns the string value of a vendor extension.
func (s Schema) Extension(key string) string {
	if v, ok := s.Extensions[key].(string); ok {
		return v
	}
	return ""
}

// IsEmpty reports whether the schema carries no usable shape.
func (s Schema) IsEmpty() bool {
	return s.Ref == "" && s.Type == "" && s.Items == nil && len(s.Properties) == 0
}
