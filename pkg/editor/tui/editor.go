package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formstore/pkg/formstore"
	"github.com/goliatone/go-formstore/pkg/model"
	"github.com/goliatone/go-formstore/pkg/schema"
	"github.com/goliatone/go-formstore/pkg/session"
)

// Editor walks a form's fields in the terminal and writes each answer into
// the document through the store, so every edit obeys the same shape rules as
// any other client.
type Editor struct {
	driver PromptDriver
	logger *zap.Logger
	open   func(name string) (io.ReadCloser, error)
}

// New constructs an editor with the survey driver unless overridden.
func New(options ...Option) *Editor {
	e := &Editor{
		logger: zap.NewNop(),
		open:   openFile,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	if e.driver == nil {
		e.driver = NewSurveyDriver(nil)
	}
	return e
}

// target is what prompts write to. sess is nil when editing a bare store, in
// which case image fields only accept URLs.
type target struct {
	store *formstore.Store
	sess  *session.Session
}

// Fill prompts for every field of the store's form without submitting.
func (e *Editor) Fill(ctx context.Context, store *formstore.Store) error {
	if ctx == nil {
		return errors.New("tui: context is required")
	}
	if store == nil {
		return errors.New("tui: store is nil")
	}
	return e.fillAll(ctx, target{store: store})
}

// Edit fills the session's document and submits it. Validation failures send
// the user back to the offending field; collaborator failures are shown and
// the submit can be retried with the document intact.
func (e *Editor) Edit(ctx context.Context, sess *session.Session) (map[string]any, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if sess == nil {
		return nil, errors.New("tui: session is nil")
	}
	t := target{store: sess.Store(), sess: sess}
	if err := e.fillAll(ctx, t); err != nil {
		return nil, err
	}

	for {
		submit, err := e.driver.Confirm(ctx, ConfirmConfig{Message: "Submit?", Default: true})
		if err != nil {
			return nil, err
		}
		if !submit {
			return nil, ErrDiscarded
		}

		payload, err := sess.Submit(ctx)
		if err == nil {
			_ = e.driver.Info(ctx, "Saved.")
			return payload, nil
		}

		var validationErr *formstore.ValidationError
		if errors.As(err, &validationErr) {
			_ = e.driver.Info(ctx, fmt.Sprintf("Invalid %s: %s", validationErr.Field, validationErr.Message))
			if err := e.revisit(ctx, t, validationErr.Field); err != nil {
				return nil, err
			}
			continue
		}
		if msg, ok := userMessage(err); ok {
			e.logger.Debug("submit failed", zap.Error(err))
			_ = e.driver.Info(ctx, msg)
			continue
		}
		return nil, err
	}
}

func (e *Editor) fillAll(ctx context.Context, t target) error {
	for _, field := range t.store.Form().Fields {
		if err := e.promptField(ctx, t, field, formstore.P(field.Name)); err != nil {
			return err
		}
	}
	return nil
}

// revisit re-prompts the field a validation error names.
// Names that do not resolve to a field fall back to the whole form.
func (e *Editor) revisit(ctx context.Context, t target, dotted string) error {
	path, err := formstore.ParsePath(dotted)
	if err == nil {
		var field model.Field
		if field, err = t.store.Field(path); err == nil {
			return e.promptField(ctx, t, field, path)
		}
	}
	e.logger.Debug("revisiting whole form", zap.String("field", dotted), zap.Error(err))
	return e.fillAll(ctx, t)
}

func (e *Editor) promptField(ctx context.Context, t target, field model.Field, path formstore.Path) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch field.Type {
	case model.FieldTypeBoolean:
		return e.promptBoolean(ctx, t, field, path)
	case model.FieldTypeInteger, model.FieldTypeNumber:
		return e.promptNumber(ctx, t, field, path)
	case model.FieldTypeArray:
		switch {
		case field.Format == model.FormatLines:
			return e.promptLines(ctx, t, field, path)
		case field.Items != nil && len(field.Items.Enum) > 0:
			return e.promptMultiSelect(ctx, t, field, path)
		default:
			return e.promptEntries(ctx, t, field, path)
		}
	case model.FieldTypeObject:
		for _, child := range field.Nested {
			if err := e.promptField(ctx, t, child, path.Append(formstore.Key(child.Name))); err != nil {
				return err
			}
		}
		return nil
	default:
		if len(field.Enum) > 0 {
			return e.promptEnum(ctx, t, field, path)
		}
		return e.promptString(ctx, t, field, path)
	}
}

func (e *Editor) promptString(ctx context.Context, t target, field model.Field, path formstore.Path) error {
	uploads := field.Format == model.FormatImage && t.sess != nil
	validate := stringValidator(field, uploads)
	current := currentText(t.store, path)
	help := field.Description
	if uploads && help == "" {
		help = "Enter a URL or @path/to/file to upload"
	}

	for {
		var (
			answer string
			err    error
		)
		switch field.Format {
		case model.FormatTextArea, model.FormatHTML:
			answer, err = e.driver.TextArea(ctx, TextAreaConfig{Message: field.DisplayLabel(), Default: current, Help: help})
		default:
			answer, err = e.driver.Input(ctx, InputConfig{
				Message:   field.DisplayLabel(),
				Default:   current,
				Help:      help,
				Validator: validate,
			})
		}
		if err != nil {
			return err
		}

		if uploads && strings.HasPrefix(answer, "@") {
			location, err := e.upload(ctx, t.sess, path, strings.TrimPrefix(answer, "@"))
			if err != nil {
				msg, ok := userMessage(err)
				if !ok {
					msg = err.Error()
				}
				_ = e.driver.Info(ctx, fmt.Sprintf("Upload failed: %s", msg))
				continue
			}
			_ = e.driver.Info(ctx, fmt.Sprintf("Uploaded %s", location))
			return nil
		}

		if err := validate(answer); err != nil {
			_ = e.driver.Info(ctx, fmt.Sprintf("Invalid %s: %v", path, err))
			continue
		}
		return t.store.Set(path, answer)
	}
}

func (e *Editor) upload(ctx context.Context, sess *session.Session, path formstore.Path, name string) (string, error) {
	name = strings.TrimSpace(name)
	file, err := e.open(name)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = file.Close()
	}()
	return sess.Upload(ctx, path, filepath.Base(name), file)
}

func (e *Editor) promptEnum(ctx context.Context, t target, field model.Field, path formstore.Path) error {
	rules := schema.RulesFor(field)
	options := stringifyEnum(field.Enum)
	defaultIdx := indexOf(options, currentText(t.store, path))

	for {
		idx, err := e.driver.Select(ctx, SelectConfig{
			Message:      field.DisplayLabel(),
			Options:      options,
			DefaultIndex: defaultIdx,
			Help:         field.Description,
		})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(options) {
			_ = e.driver.Info(ctx, fmt.Sprintf("Invalid %s selection", path))
			continue
		}
		if err := rules.CheckString(options[idx]); err != nil {
			_ = e.driver.Info(ctx, fmt.Sprintf("Invalid %s: %v", path, err))
			continue
		}
		return t.store.Set(path, options[idx])
	}
}

func (e *Editor) promptBoolean(ctx context.Context, t target, field model.Field, path formstore.Path) error {
	current, _ := t.store.Get(path)
	def, _ := current.(bool)
	answer, err := e.driver.Confirm(ctx, ConfirmConfig{
		Message: field.DisplayLabel(),
		Default: def,
		Help:    field.Description,
	})
	if err != nil {
		return err
	}
	return t.store.Set(path, answer)
}

// promptNumber checks the answer the same way Normalize will but stores the
// trimmed text, leaving conversion to submission.
func (e *Editor) promptNumber(ctx context.Context, t target, field model.Field, path formstore.Path) error {
	validate := numberValidator(field)
	current := currentText(t.store, path)

	for {
		answer, err := e.driver.Input(ctx, InputConfig{
			Message:   field.DisplayLabel(),
			Default:   current,
			Help:      field.Description,
			Validator: validate,
		})
		if err != nil {
			return err
		}
		answer = strings.TrimSpace(answer)
		if err := validate(answer); err != nil {
			_ = e.driver.Info(ctx, fmt.Sprintf("Invalid %s: %v", path, err))
			continue
		}
		return t.store.Set(path, answer)
	}
}

// numberValidator checks numeric text against the field's rules. Blank is
// accepted for optional fields.
func numberValidator(field model.Field) func(string) error {
	rules := schema.RulesFor(field)
	integer := field.Type == model.FieldTypeInteger
	return func(answer string) error {
		answer = strings.TrimSpace(answer)
		if answer == "" {
			if rules.Required {
				return errors.New("is required")
			}
			return nil
		}
		parsed, err := schema.ParseNumber(answer, integer)
		if err != nil {
			if integer {
				return errors.New("must be a whole number")
			}
			return errors.New("must be a number")
		}
		return rules.CheckNumber(parsed)
	}
}

// stringValidator checks text against the field's rules. Upload references
// are left to the upload step.
func stringValidator(field model.Field, uploads bool) func(string) error {
	rules := schema.RulesFor(field)
	return func(answer string) error {
		if uploads && strings.HasPrefix(answer, "@") {
			return nil
		}
		return rules.CheckString(answer)
	}
}

func (e *Editor) promptLines(ctx context.Context, t target, field model.Field, path formstore.Path) error {
	rules := schema.RulesFor(field)
	help := field.Description
	if help == "" {
		help = "One entry per line"
	}

	for {
		answer, err := e.driver.TextArea(ctx, TextAreaConfig{
			Message: field.DisplayLabel(),
			Default: currentText(t.store, path),
			Help:    help,
		})
		if err != nil {
			return err
		}
		if err := rules.CheckArray(countLines(answer)); err != nil {
			_ = e.driver.Info(ctx, fmt.Sprintf("Invalid %s: %v", path, err))
			continue
		}
		return t.store.Set(path, answer)
	}
}

func (e *Editor) promptMultiSelect(ctx context.Context, t target, field model.Field, path formstore.Path) error {
	rules := schema.RulesFor(field)
	options := stringifyEnum(field.Items.Enum)
	current, _ := t.store.Get(path)
	selected, _ := current.([]any)
	defaults := indicesOf(options, stringifyEnum(selected))

	for {
		indices, err := e.driver.MultiSelect(ctx, SelectConfig{
			Message:  field.DisplayLabel(),
			Options:  options,
			Defaults: defaults,
			Help:     field.Description,
		})
		if err != nil {
			return err
		}
		if err := rules.CheckArray(len(indices)); err != nil {
			_ = e.driver.Info(ctx, fmt.Sprintf("Invalid %s: %v", path, err))
			continue
		}
		values := make([]any, 0, len(indices))
		for _, v := range defaultsFromIndices(options, indices) {
			values = append(values, v)
		}
		return t.store.Set(path, values)
	}
}

type entryAction int

const (
	actionAdd entryAction = iota
	actionRemove
	actionDone
)

// promptEntries edits existing entries in order, then offers add and remove
// until the user is done. Remove is only offered while the array stays at or
// above its minimum.
func (e *Editor) promptEntries(ctx context.Context, t target, field model.Field, path formstore.Path) error {
	item := model.Field{Type: model.FieldTypeString}
	if field.Items != nil {
		item = *field.Items
	}
	itemLabel := strings.ToLower(item.DisplayLabel())
	if itemLabel == "" {
		itemLabel = "entry"
	}

	count, err := t.store.Len(path)
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		if err := e.promptField(ctx, t, item, path.Append(formstore.Index(i))); err != nil {
			return err
		}
	}

	for {
		count, err := t.store.Len(path)
		if err != nil {
			return err
		}
		canRemove, err := t.store.CanRemove(path)
		if err != nil {
			return err
		}

		options := []string{"Add " + itemLabel}
		actions := []entryAction{actionAdd}
		if count > 0 && canRemove {
			options = append(options, "Remove "+itemLabel)
			actions = append(actions, actionRemove)
		}
		options = append(options, "Done")
		actions = append(actions, actionDone)

		idx, err := e.driver.Select(ctx, SelectConfig{
			Message:      fmt.Sprintf("%s (%d)", field.DisplayLabel(), count),
			Options:      options,
			DefaultIndex: len(options) - 1,
			Help:         field.Description,
		})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(actions) {
			_ = e.driver.Info(ctx, fmt.Sprintf("Invalid %s selection", path))
			continue
		}

		switch actions[idx] {
		case actionAdd:
			at, err := t.store.AppendEntry(path, nil)
			if err != nil {
				return err
			}
			if err := e.promptField(ctx, t, item, path.Append(formstore.Index(at))); err != nil {
				return err
			}
		case actionRemove:
			if err := e.removeEntry(ctx, t, path, count); err != nil {
				return err
			}
		case actionDone:
			if count < field.MinItems {
				_ = e.driver.Info(ctx, fmt.Sprintf("Invalid %s: requires at least %d entries", path, field.MinItems))
				continue
			}
			return nil
		}
	}
}

func (e *Editor) removeEntry(ctx context.Context, t target, path formstore.Path, count int) error {
	labels := make([]string, count)
	for i := range labels {
		entry, _ := t.store.Get(path.Append(formstore.Index(i)))
		labels[i] = fmt.Sprintf("#%d %s", i+1, summarize(entry))
	}
	idx, err := e.driver.Select(ctx, SelectConfig{Message: "Remove which?", Options: labels, DefaultIndex: -1})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= count {
		_ = e.driver.Info(ctx, fmt.Sprintf("Invalid %s selection", path))
		return nil
	}
	return t.store.RemoveEntry(path, idx)
}

func currentText(store *formstore.Store, path formstore.Path) string {
	value, err := store.Get(path)
	if err != nil || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case []any:
		return strings.Join(stringifyEnum(v), "\n")
	default:
		return fmt.Sprint(v)
	}
}

func summarize(entry any) string {
	switch v := entry.(type) {
	case string:
		return v
	case map[string]any:
		// first non-blank text value by key order
		best := ""
		for k, raw := range v {
			s, ok := raw.(string)
			if !ok || strings.TrimSpace(s) == "" {
				continue
			}
			if best == "" || k < best {
				best = k
			}
		}
		if best != "" {
			return v[best].(string)
		}
	}
	return ""
}

func stringifyEnum(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, fmt.Sprint(v))
	}
	return out
}

func countLines(text string) int {
	n := 0
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

func userMessage(err error) (string, bool) {
	var described interface{ UserMessage() string }
	if errors.As(err, &described) {
		return described.UserMessage(), true
	}
	return "", false
}
