package formstore

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formstore/pkg/model"
	"github.com/goliatone/go-formstore/pkg/schema"
)

type outcome int

const (
	present outcome = iota
	absent
	invalid
)

// Normalize produces the submission payload: lines fields split into
// sequences, numeric text parsed, html sanitised and array entries missing a
// required scalar dropped. Outside array entries an invalid or missing
// required field fails with *ValidationError. The document is not modified.
func (s *Store) Normalize() (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := normalizer{sanitizer: s.sanitizer}
	out, _, err := n.object(s.root, s.doc, nil, false)
	if err != nil {
		s.logger.Debug("formstore: normalize rejected", zap.Error(err))
		return nil, err
	}
	payload, _ := out.(map[string]any)
	if payload == nil {
		payload = map[string]any{}
	}
	return payload, nil
}

type normalizer struct {
	sanitizer Sanitizer
}

func (n normalizer) value(field model.Field, value any, path Path, inEntry bool) (any, outcome, error) {
	switch field.Type {
	case model.FieldTypeObject:
		return n.object(field, value, path, inEntry)
	case model.FieldTypeArray:
		return n.array(field, value, path, inEntry)
	case model.FieldTypeInteger, model.FieldTypeNumber:
		return n.number(field, value, path, inEntry)
	case model.FieldTypeBoolean:
		b, ok := value.(bool)
		if !ok {
			if text, isText := value.(string); isText {
				b, ok = parseBool(text)
			}
		}
		if !ok {
			return nil, invalid, nil
		}
		return b, present, nil
	default:
		return n.text(field, value, path, inEntry)
	}
}

func (n normalizer) object(field model.Field, value any, path Path, inEntry bool) (any, outcome, error) {
	obj, _ := value.(map[string]any)
	out := make(map[string]any, len(field.Nested))
	for _, child := range field.Nested {
		childPath := path.Append(Key(child.Name))
		normalized, state, err := n.value(child, obj[child.Name], childPath, inEntry)
		if err != nil {
			return nil, invalid, err
		}
		switch state {
		case present:
			out[child.Name] = normalized
		case absent, invalid:
			if inEntry && (child.Required || child.Type == model.FieldTypeObject) {
				return nil, absent, nil
			}
			if child.Type == model.FieldTypeString {
				out[child.Name] = normalized
			}
		}
	}
	return out, present, nil
}

func (n normalizer) array(field model.Field, value any, path Path, inEntry bool) (any, outcome, error) {
	var items []any
	switch v := value.(type) {
	case string:
		items = toAnyStrings(splitLines(v))
	case []any:
		items = v
	}

	item := itemField(field)
	out := make([]any, 0, len(items))
	for i, raw := range items {
		normalized, state, err := n.value(item, raw, path.Append(Index(i)), true)
		if err != nil {
			return nil, invalid, err
		}
		if state != present {
			continue
		}
		out = append(out, normalized)
	}

	if !inEntry {
		if err := schema.RulesFor(field).CheckArray(len(out)); err != nil {
			return nil, invalid, &ValidationError{Field: path.String(), Message: err.Error()}
		}
		if field.MinItems > 0 && len(out) < field.MinItems {
			return nil, invalid, &ValidationError{
				Field:   path.String(),
				Message: fmt.Sprintf("requires at least %d complete entries", field.MinItems),
			}
		}
	}
	return out, present, nil
}

func (n normalizer) number(field model.Field, value any, path Path, inEntry bool) (any, outcome, error) {
	integer := field.Type == model.FieldTypeInteger
	var (
		parsed any
		state  = present
	)
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			state = absent
			break
		}
		num, err := schema.ParseNumber(v, integer)
		if err != nil {
			state = invalid
			break
		}
		parsed = num
	default:
		num, ok := schema.NumericValue(value, integer)
		if !ok {
			state = invalid
			break
		}
		parsed = num
	}

	if inEntry {
		return parsed, state, nil
	}

	switch state {
	case absent:
		if field.Required {
			return nil, absent, &ValidationError{Field: path.String(), Message: "is required"}
		}
		return nil, absent, nil
	case invalid:
		msg := "must be a number"
		if integer {
			msg = "must be a whole number"
		}
		return nil, invalid, &ValidationError{Field: path.String(), Message: msg}
	}
	if err := schema.RulesFor(field).CheckNumber(parsed); err != nil {
		return nil, invalid, &ValidationError{Field: path.String(), Message: err.Error()}
	}
	return parsed, present, nil
}

func (n normalizer) text(field model.Field, value any, path Path, inEntry bool) (any, outcome, error) {
	text, _ := value.(string)
	if field.Format == model.FormatHTML && n.sanitizer != nil && text != "" {
		text = strings.TrimSpace(n.sanitizer.Sanitize(text))
	}
	state := present
	if strings.TrimSpace(text) == "" {
		state = absent
	}
	if !inEntry {
		if err := schema.RulesFor(field).CheckString(text); err != nil {
			return nil, invalid, &ValidationError{Field: path.String(), Message: err.Error()}
		}
	}
	return text, state, nil
}

// splitLines splits textarea input on newlines, trimming carriage returns and
// dropping blank lines.
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
