package formstore

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-formstore/pkg/model"
	"github.com/goliatone/go-formstore/pkg/schema"
)

// Status is the lifecycle state of a Store.
type Status string

const (
	StatusEmpty      Status = "empty"
	StatusHydrating  Status = "hydrating"
	StatusReady      Status = "ready"
	StatusSubmitting Status = "submitting"
	StatusSubmitted  Status = "submitted"
)

// ChangeOp names the mutation that produced a Change.
type ChangeOp string

const (
	OpSet    ChangeOp = "set"
	OpAppend ChangeOp = "append"
	OpRemove ChangeOp = "remove"
	OpLoad   ChangeOp = "load"
)

// Change describes one mutation delivered to subscribers.
type Change struct {
	Op    ChangeOp
	Path  Path
	Index int
}

// Store holds one Document shaped by a FormSchema and exposes path-addressed
// reads and writes, entry append/remove and submit-time normalisation. It
// performs no I/O.
type Store struct {
	mu        sync.Mutex
	form      model.FormSchema
	root      model.Field
	doc       map[string]any
	status    Status
	logger    *zap.Logger
	sanitizer Sanitizer

	subs    map[int]subscription
	nextSub int
}

type subscription struct {
	prefix Path
	fn     func(Change)
}

// Option configures a Store.
type Option func(*Store)

// WithLogger routes contract violations and lifecycle events to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSanitizer overrides the sanitizer applied to html-format fields.
func WithSanitizer(sanitizer Sanitizer) Option {
	return func(s *Store) {
		if sanitizer != nil {
			s.sanitizer = sanitizer
		}
	}
}

// New validates form and returns an empty store. Call Reset to start authoring
// from defaults, or BeginHydrate and Load to edit an existing record.
func New(form model.FormSchema, options ...Option) (*Store, error) {
	if err := schema.Validate(form); err != nil {
		return nil, err
	}
	s := &Store{
		form:      form,
		root:      form.Root(),
		doc:       schema.Defaults(form),
		status:    StatusEmpty,
		logger:    zap.NewNop(),
		sanitizer: HTMLSanitizer(),
		subs:      make(map[int]subscription),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	s.logger = s.logger.With(zap.String("form", form.ID))
	return s, nil
}

// Form returns the schema backing the store.
func (s *Store) Form() model.FormSchema {
	return s.form
}

// Status reports the lifecycle state.
func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Reset replaces the document with schema defaults and marks it ready.
func (s *Store) Reset() {
	s.mu.Lock()
	s.doc = schema.Defaults(s.form)
	s.status = StatusReady
	listeners := s.listenersFor(nil)
	s.mu.Unlock()
	notify(listeners, Change{Op: OpLoad})
}

// BeginHydrate marks the store as waiting for an existing record.
func (s *Store) BeginHydrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusEmpty {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.status, StatusHydrating)
	}
	s.status = StatusHydrating
	return nil
}

// Load merges record over the schema defaults and marks the store ready.
// Fields missing from record take their defaults; unknown keys are dropped.
func (s *Store) Load(record map[string]any) error {
	s.mu.Lock()
	switch s.status {
	case StatusEmpty, StatusHydrating, StatusReady:
	default:
		status := s.status
		s.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, status, StatusReady)
	}
	merged, _ := merge(s.root, record, nil).(map[string]any)
	if merged == nil {
		merged = schema.Defaults(s.form)
	}
	s.doc = merged
	s.status = StatusReady
	listeners := s.listenersFor(nil)
	s.mu.Unlock()

	s.logger.Debug("formstore: document loaded", zap.Int("keys", len(record)))
	notify(listeners, Change{Op: OpLoad})
	return nil
}

// AbortHydrate returns a hydrating store to empty after a failed fetch.
func (s *Store) AbortHydrate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusHydrating {
		s.status = StatusEmpty
	}
}

// BeginSubmit moves a ready store to submitting.
func (s *Store) BeginSubmit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusReady {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.status, StatusSubmitting)
	}
	s.status = StatusSubmitting
	return nil
}

// FinishSubmit records the collaborator outcome: submitted on success, back
// to ready on failure. The document is left untouched either way.
func (s *Store) FinishSubmit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusSubmitting {
		return
	}
	if err != nil {
		s.status = StatusReady
		return
	}
	s.status = StatusSubmitted
}

// Document returns a deep copy of the current document.
func (s *Store) Document() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return schema.CloneValue(s.doc).(map[string]any)
}

// Get returns the node at path. Containers are returned as copies.
func (s *Store) Get(path Path) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc, err := s.locate(path, false)
	if err != nil {
		return nil, s.violation("get", path, err)
	}
	return schema.CloneValue(loc.value), nil
}

// Field returns the schema field describing the node at path.
func (s *Store) Field(path Path) (model.Field, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc, err := s.locate(path, false)
	if err != nil {
		return model.Field{}, s.violation("field", path, err)
	}
	return loc.field, nil
}

// Set replaces the scalar or sub-document at path. The value must have the
// same shape as the node it replaces. Setting an entry of a lines field that
// holds raw text first splits the text into entries.
func (s *Store) Set(path Path, value any) error {
	s.mu.Lock()
	if err := s.editable(); err != nil {
		s.mu.Unlock()
		return err
	}
	loc, err := s.locate(path, true)
	if err != nil {
		s.mu.Unlock()
		return s.violation("set", path, err)
	}
	conformed, err := conform(loc.field, value, path)
	if err != nil {
		s.mu.Unlock()
		return s.violation("set", path, err)
	}
	loc.set(conformed)
	listeners := s.listenersFor(path)
	s.mu.Unlock()

	notify(listeners, Change{Op: OpSet, Path: path})
	return nil
}

// AppendEntry appends a deep copy of template to the array at path and
// returns the new index. A nil template uses the schema default for the
// array's element type.
func (s *Store) AppendEntry(path Path, template any) (int, error) {
	s.mu.Lock()
	if err := s.editable(); err != nil {
		s.mu.Unlock()
		return -1, err
	}
	loc, err := s.locateArray(path)
	if err != nil {
		s.mu.Unlock()
		return -1, s.violation("append", path, err)
	}
	if template == nil {
		template = schema.Template(loc.field)
	}
	idx := len(loc.items)
	entry, err := conform(itemField(loc.field), schema.CloneValue(template), path.Append(Index(idx)))
	if err != nil {
		s.mu.Unlock()
		return -1, s.violation("append", path, err)
	}
	next := make([]any, idx, idx+1)
	copy(next, loc.items)
	next = append(next, entry)
	loc.set(next)
	listeners := s.listenersFor(path)
	s.mu.Unlock()

	notify(listeners, Change{Op: OpAppend, Path: path, Index: idx})
	return idx, nil
}

// RemoveEntry deletes the element at index from the array at path, shifting
// later elements down. Minimum cardinality is not enforced here; see
// CanRemove.
func (s *Store) RemoveEntry(path Path, index int) error {
	s.mu.Lock()
	if err := s.editable(); err != nil {
		s.mu.Unlock()
		return err
	}
	loc, err := s.locateArray(path)
	if err != nil {
		s.mu.Unlock()
		return s.violation("remove", path, err)
	}
	if index < 0 || index >= len(loc.items) {
		s.mu.Unlock()
		return s.violation("remove", path, &IndexError{Path: append(Path(nil), path...), Index: index, Len: len(loc.items)})
	}
	next := make([]any, 0, len(loc.items)-1)
	next = append(next, loc.items[:index]...)
	next = append(next, loc.items[index+1:]...)
	loc.set(next)
	listeners := s.listenersFor(path)
	s.mu.Unlock()

	notify(listeners, Change{Op: OpRemove, Path: path, Index: index})
	return nil
}

// Len returns the number of entries in the array at path.
func (s *Store) Len(path Path) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc, err := s.locateArray(path)
	if err != nil {
		return 0, s.violation("len", path, err)
	}
	return len(loc.items), nil
}

// CanRemove reports whether removing one entry from the array at path keeps
// it at or above the field's declared MinItems.
func (s *Store) CanRemove(path Path) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc, err := s.locateArray(path)
	if err != nil {
		return false, s.violation("can-remove", path, err)
	}
	return len(loc.items) > loc.field.MinItems, nil
}

// Subscribe registers fn for changes whose path overlaps prefix: changes at,
// above or below it. An empty prefix observes every change. The returned
// function cancels the subscription.
func (s *Store) Subscribe(prefix Path, fn func(Change)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = subscription{prefix: append(Path(nil), prefix...), fn: fn}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) editable() error {
	switch s.status {
	case StatusReady, StatusSubmitting:
		return nil
	default:
		return fmt.Errorf("%w (status %s)", ErrNotEditable, s.status)
	}
}

func (s *Store) violation(op string, path Path, err error) error {
	if IsContractViolation(err) {
		s.logger.Error("formstore: contract violation",
			zap.String("op", op),
			zap.String("path", path.String()),
			zap.Error(err),
		)
	}
	return err
}

func (s *Store) listenersFor(path Path) []func(Change) {
	var out []func(Change)
	for _, sub := range s.subs {
		if path == nil || sub.prefix.Overlaps(path) {
			out = append(out, sub.fn)
		}
	}
	return out
}

func notify(listeners []func(Change), change Change) {
	for _, fn := range listeners {
		fn(change)
	}
}

type location struct {
	field model.Field
	value any
	set   func(any)
}

type arrayLocation struct {
	field model.Field
	items []any
	set   func(any)
}

// locate walks path. Raw lines text on the way is read as its split entries;
// with write set the split entries replace the text in the document.
func (s *Store) locate(path Path, write bool) (location, error) {
	loc := location{
		field: s.root,
		value: s.doc,
		set: func(v any) {
			if m, ok := v.(map[string]any); ok {
				s.doc = m
			}
		},
	}

	for i, segment := range path {
		walked := path[:i+1]
		switch loc.field.Type {
		case model.FieldTypeObject:
			key := segment.Key
			if segment.IsIndex() {
				key = segment.String()
			}
			child, ok := loc.field.Child(key)
			if !ok {
				return location{}, pathError(walked, "unknown field %q", key)
			}
			obj, ok := loc.value.(map[string]any)
			if !ok {
				return location{}, pathError(walked, "parent is not an object")
			}
			value, exists := obj[key]
			if !exists {
				return location{}, pathError(walked, "missing field %q", key)
			}
			loc = location{
				field: child,
				value: value,
				set:   func(v any) { obj[key] = v },
			}

		case model.FieldTypeArray:
			if !segment.IsIndex() {
				return location{}, pathError(walked, "expected index on array, got key %q", segment.Key)
			}
			var items []any
			switch v := loc.value.(type) {
			case []any:
				items = v
			case string:
				items = toAnyStrings(splitLines(v))
				if write {
					loc.set(items)
				}
			default:
				return location{}, pathError(walked, "array node holds %s", kindOf(v))
			}
			idx := segment.Index
			if idx < 0 || idx >= len(items) {
				return location{}, pathError(walked, "index %d out of range (len %d)", idx, len(items))
			}
			loc = location{
				field: itemField(loc.field),
				value: items[idx],
				set:   func(v any) { items[idx] = v },
			}

		default:
			return location{}, pathError(walked, "cannot descend into %s field", loc.field.Type)
		}
	}
	return loc, nil
}

func (s *Store) locateArray(path Path) (arrayLocation, error) {
	loc, err := s.locate(path, false)
	if err != nil {
		return arrayLocation{}, err
	}
	if loc.field.Type != model.FieldTypeArray {
		return arrayLocation{}, pathError(path, "not an array field")
	}
	switch v := loc.value.(type) {
	case []any:
		return arrayLocation{field: loc.field, items: v, set: loc.set}, nil
	case string:
		// Raw textarea text; split it so entry operations see discrete lines.
		items := toAnyStrings(splitLines(v))
		return arrayLocation{field: loc.field, items: items, set: loc.set}, nil
	default:
		return arrayLocation{}, pathError(path, "array node holds %s", kindOf(v))
	}
}

func toAnyStrings(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
