package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-formstore/pkg/formstore"
	"github.com/goliatone/go-formstore/pkg/model"
	"github.com/goliatone/go-formstore/pkg/remote"
)

var (
	// ErrInFlight is returned when the control's previous request has not
	// completed yet.
	ErrInFlight = errors.New("session: request already in flight")
	// ErrClosed is returned for calls on, or responses arriving after, a closed
	// session.
	ErrClosed = errors.New("session: closed")
	// ErrNoCollaborator is returned when the operation needs a collaborator
	// that was not configured.
	ErrNoCollaborator = errors.New("session: collaborator not configured")
	// ErrNotUploadable is returned when an upload targets a non-text field.
	ErrNotUploadable = errors.New("session: field does not accept uploads")
)

// Mode distinguishes authoring new content from editing an existing record.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// Collaborators are the external services a session delegates I/O to.
type Collaborators struct {
	Submitter remote.Submitter
	Uploader  remote.Uploader
	Fetcher   remote.Fetcher
}

// Option configures a Session.
type Option func(*options)

type options struct {
	logger    *zap.Logger
	storeOpts []formstore.Option
}

// WithLogger attaches a logger to the session and its store.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithStoreOptions forwards options to the underlying formstore.Store.
func WithStoreOptions(opts ...formstore.Option) Option {
	return func(o *options) {
		o.storeOpts = append(o.storeOpts, opts...)
	}
}

// Session binds one open form to its store and collaborators. Each control
// (submit, every upload field) allows a single in-flight request; Close
// cancels whatever is still running.
type Session struct {
	form     model.FormSchema
	recordID string
	store    *formstore.Store
	collab   Collaborators
	logger   *zap.Logger
	latch    formstore.Latch

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// Open starts a session for form. An empty recordID opens the form in create
// mode from schema defaults; otherwise the record is fetched and merged over
// the defaults before the session becomes editable.
func Open(ctx context.Context, form model.FormSchema, recordID string, collab Collaborators, opts ...Option) (*Session, error) {
	cfg := options{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	logger := cfg.logger.With(zap.String("form", form.ID))
	if recordID != "" {
		logger = logger.With(zap.String("record", recordID))
	}

	storeOpts := append([]formstore.Option{formstore.WithLogger(cfg.logger)}, cfg.storeOpts...)
	store, err := formstore.New(form, storeOpts...)
	if err != nil {
		return nil, err
	}

	sessionCtx, cancel := context.WithCancel(context.Background())
	s := &Session{
		form:     form,
		recordID: strings.TrimSpace(recordID),
		store:    store,
		collab:   collab,
		logger:   logger,
		ctx:      sessionCtx,
		cancel:   cancel,
	}

	if s.recordID == "" {
		store.Reset()
		logger.Debug("session opened", zap.String("mode", string(ModeCreate)))
		return s, nil
	}

	if err := s.hydrate(ctx); err != nil {
		cancel()
		return nil, err
	}
	logger.Debug("session opened", zap.String("mode", string(ModeEdit)))
	return s, nil
}

func (s *Session) hydrate(ctx context.Context) error {
	if s.collab.Fetcher == nil {
		return fmt.Errorf("%w: fetcher", ErrNoCollaborator)
	}
	if err := s.store.BeginHydrate(); err != nil {
		return err
	}
	reqCtx, done := s.requestContext(ctx)
	defer done()

	record, err := s.collab.Fetcher.Fetch(reqCtx, s.recordEndpoint())
	if err != nil {
		s.store.AbortHydrate()
		s.logger.Warn("hydrate failed", zap.Error(err))
		return err
	}
	return s.store.Load(record)
}

// Store exposes the document editor.
func (s *Session) Store() *formstore.Store {
	return s.store
}

// Form returns the schema the session edits.
func (s *Session) Form() model.FormSchema {
	return s.form
}

// RecordID returns the edited record id, empty in create mode.
func (s *Session) RecordID() string {
	return s.recordID
}

// Mode reports whether the session creates or edits a record.
func (s *Session) Mode() Mode {
	if s.recordID == "" {
		return ModeCreate
	}
	return ModeEdit
}

// Busy reports whether control has a request in flight.
func (s *Session) Busy(control string) bool {
	return s.latch.Busy(control)
}

// Submit normalizes the document and hands it to the submitter: POST to the
// form endpoint in create mode, PUT to the record endpoint in edit mode.
// Validation failures return before any request is made. On collaborator
// failure the store returns to ready with the document unchanged.
func (s *Session) Submit(ctx context.Context) (map[string]any, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}
	if s.collab.Submitter == nil {
		return nil, fmt.Errorf("%w: submitter", ErrNoCollaborator)
	}
	if !s.latch.TryAcquire(formstore.ControlSubmit) {
		return nil, ErrInFlight
	}
	defer s.latch.Release(formstore.ControlSubmit)

	payload, err := s.store.Normalize()
	if err != nil {
		return nil, err
	}
	if err := s.store.BeginSubmit(); err != nil {
		return nil, err
	}

	req := remote.Request{Method: http.MethodPost, Endpoint: s.form.Endpoint, Body: payload}
	if s.Mode() == ModeEdit {
		req.Method = http.MethodPut
		req.Endpoint = s.recordEndpoint()
	}

	reqCtx, done := s.requestContext(ctx)
	err = s.collab.Submitter.Submit(reqCtx, req)
	done()

	if s.isClosed() {
		s.store.FinishSubmit(ErrClosed)
		return nil, ErrClosed
	}
	s.store.FinishSubmit(err)
	if err != nil {
		s.logger.Warn("submit failed", zap.String("method", req.Method), zap.Error(err))
		return nil, err
	}
	s.logger.Info("submitted", zap.String("method", req.Method), zap.String("endpoint", req.Endpoint))
	return payload, nil
}

// Upload sends the file to the uploader and stores the returned URL at path.
// The document is only written when the upload succeeds.
func (s *Session) Upload(ctx context.Context, path formstore.Path, filename string, r io.Reader) (string, error) {
	if s.isClosed() {
		return "", ErrClosed
	}
	if s.collab.Uploader == nil {
		return "", fmt.Errorf("%w: uploader", ErrNoCollaborator)
	}
	field, err := s.store.Field(path)
	if err != nil {
		return "", err
	}
	if field.Type != model.FieldTypeString {
		return "", fmt.Errorf("%w: %s is %s", ErrNotUploadable, path, field.Type)
	}

	control := formstore.UploadControl(path)
	if !s.latch.TryAcquire(control) {
		return "", ErrInFlight
	}
	defer s.latch.Release(control)

	reqCtx, done := s.requestContext(ctx)
	location, err := s.collab.Uploader.Upload(reqCtx, filename, r)
	done()

	if s.isClosed() {
		return "", ErrClosed
	}
	if err != nil {
		s.logger.Warn("upload failed", zap.String("path", path.String()), zap.Error(err))
		return "", err
	}
	if err := s.store.Set(path, location); err != nil {
		return "", err
	}
	return location, nil
}

// Close discards the session and cancels its in-flight requests. Responses
// that arrive afterwards are dropped.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	s.logger.Debug("session closed")
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// requestContext derives a context cancelled by either the caller or Close.
func (s *Session) requestContext(ctx context.Context) (context.Context, func()) {
	if ctx == nil {
		ctx = context.Background()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	return reqCtx, func() {
		stop()
		cancel()
	}
}

func (s *Session) recordEndpoint() string {
	endpoint := s.form.RecordEndpoint
	if endpoint == "" {
		endpoint = strings.TrimRight(s.form.Endpoint, "/") + "/{id}"
	}
	return strings.ReplaceAll(endpoint, "{id}", url.PathEscape(s.recordID))
}
