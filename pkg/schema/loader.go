package schema

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	internalmodel "github.com/goliatone/go-formstore/internal/model"
	"github.com/goliatone/go-formstore/pkg/model"
)

// Registry holds the form schemas known to a process, keyed by form id.
type Registry struct {
	forms map[string]model.FormSchema
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{forms: make(map[string]model.FormSchema)}
}

// Add validates and registers a form. Labels left blank are derived from
// field names.
func (r *Registry) Add(form model.FormSchema) error {
	if err := Validate(form); err != nil {
		return err
	}
	if _, exists := r.forms[form.ID]; exists {
		return fmt.Errorf("schema: duplicate form %q", form.ID)
	}
	form.Fields = applyLabels(form.Fields)
	r.forms[form.ID] = form
	return nil
}

// Form returns the schema registered under id.
func (r *Registry) Form(id string) (model.FormSchema, bool) {
	if r == nil {
		return model.FormSchema{}, false
	}
	form, ok := r.forms[id]
	return form, ok
}

// IDs lists registered form ids in lexical order.
func (r *Registry) IDs() []string {
	if r == nil {
		return nil
	}
	ids := make([]string, 0, len(r.forms))
	for id := range r.forms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len reports the number of registered forms.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.forms)
}

// Merge copies every form of other into r, failing on duplicate ids.
func (r *Registry) Merge(other *Registry) error {
	for _, id := range other.IDs() {
		if _, exists := r.forms[id]; exists {
			return fmt.Errorf("schema: duplicate form %q", id)
		}
		r.forms[id] = other.forms[id]
	}
	return nil
}

// Load walks fsys and parses every JSON/YAML schema file. A file holds either a
// single form or a `forms` list. When fsys is nil the registry is empty.
func Load(fsys fs.FS) (*Registry, error) {
	registry := NewRegistry()
	if fsys == nil {
		return registry, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isSchemaFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("schema: read %s: %w", path, err)
		}

		forms, err := parseFile(data, path)
		if err != nil {
			return err
		}
		for _, form := range forms {
			if err := registry.Add(form); err != nil {
				return fmt.Errorf("%w (file %s)", err, path)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return registry, nil
}

type schemaFile struct {
	model.FormSchema `yaml:",inline"`
	Forms            []model.FormSchema `json:"forms" yaml:"forms"`
}

func parseFile(data []byte, source string) ([]model.FormSchema, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("schema: file %s is empty", source)
	}

	var doc schemaFile
	if err := json.Unmarshal(data, &doc); err != nil {
		doc = schemaFile{}
		if yerr := yaml.Unmarshal(data, &doc); yerr != nil {
			return nil, fmt.Errorf("schema: parse %s: invalid JSON or YAML: %w", source, yerr)
		}
	}

	forms := append([]model.FormSchema(nil), doc.Forms...)
	if doc.ID != "" {
		forms = append(forms, doc.FormSchema)
	}
	if len(forms) == 0 {
		return nil, fmt.Errorf("schema: file %s defines no forms", source)
	}
	return forms, nil
}

func isSchemaFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func applyLabels(fields []model.Field) []model.Field {
	out := make([]model.Field, len(fields))
	for i, field := range fields {
		if field.Label == "" {
			field.Label = internalmodel.DefaultLabeler(field.Name)
		}
		if len(field.Nested) > 0 {
			field.Nested = applyLabels(field.Nested)
		}
		if field.Items != nil {
			items := *field.Items
			if len(items.Nested) > 0 {
				items.Nested = applyLabels(items.Nested)
			}
			field.Items = &items
		}
		out[i] = field
	}
	return out
}
