package session_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/goliatone/go-formstore/pkg/formstore"
	"github.com/goliatone/go-formstore/pkg/model"
	"github.com/goliatone/go-formstore/pkg/remote"
	"github.com/goliatone/go-formstore/pkg/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func productForm() model.FormSchema {
	return model.FormSchema{
		ID:             "product",
		Endpoint:       "/products",
		RecordEndpoint: "/products/{id}",
		Fields: []model.Field{
			{Name: "name", Type: model.FieldTypeString, Required: true},
			{Name: "image", Type: model.FieldTypeString, Format: model.FormatImage},
			{Name: "thumbnail", Type: model.FieldTypeString, Format: model.FormatImage},
			{Name: "price", Type: model.FieldTypeNumber, Required: true},
			{
				Name:  "images",
				Type:  model.FieldTypeArray,
				Items: &model.Field{Name: "image", Type: model.FieldTypeString, Format: model.FormatImage},
			},
		},
	}
}

type recordingSubmitter struct {
	mu       sync.Mutex
	requests []remote.Request
	err      error
	block    chan struct{}
	started  chan struct{}
}

func (r *recordingSubmitter) Submit(ctx context.Context, req remote.Request) error {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	block, started, err := r.block, r.started, r.err
	r.mu.Unlock()

	if started != nil {
		close(started)
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (r *recordingSubmitter) calls() []remote.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]remote.Request(nil), r.requests...)
}

type fakeUploader struct {
	url     string
	err     error
	block   chan struct{}
	started chan struct{}
}

func (f *fakeUploader) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.url + filename, nil
}

type fakeFetcher struct {
	record   map[string]any
	err      error
	endpoint string
}

func (f *fakeFetcher) Fetch(ctx context.Context, endpoint string) (map[string]any, error) {
	f.endpoint = endpoint
	return f.record, f.err
}

func openCreate(t *testing.T, collab session.Collaborators) *session.Session {
	t.Helper()
	s, err := session.Open(context.Background(), productForm(), "", collab)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func fill(t *testing.T, s *session.Session) {
	t.Helper()
	if err := s.Store().Set(formstore.P("name"), "Serum"); err != nil {
		t.Fatalf("set name: %v", err)
	}
	if err := s.Store().Set(formstore.P("price"), "12.5"); err != nil {
		t.Fatalf("set price: %v", err)
	}
}

func TestSubmit_CreatePostsNormalizedPayload(t *testing.T) {
	submitter := &recordingSubmitter{}
	s := openCreate(t, session.Collaborators{Submitter: submitter})
	fill(t, s)

	payload, err := s.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	want := []remote.Request{{
		Method:   "POST",
		Endpoint: "/products",
		Body:     map[string]any{"name": "Serum", "image": "", "thumbnail": "", "price": 12.5, "images": []any{}},
	}}
	if diff := cmp.Diff(want, submitter.calls()); diff != "" {
		t.Fatalf("requests mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want[0].Body, payload); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
	if got := s.Store().Status(); got != formstore.StatusSubmitted {
		t.Fatalf("expected submitted, got %s", got)
	}
}

func TestOpen_EditHydratesAndPuts(t *testing.T) {
	fetcher := &fakeFetcher{record: map[string]any{"name": "Toner", "price": 8.0, "sku": "ignored"}}
	submitter := &recordingSubmitter{}

	s, err := session.Open(context.Background(), productForm(), "42", session.Collaborators{Fetcher: fetcher, Submitter: submitter})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if fetcher.endpoint != "/products/42" {
		t.Fatalf("unexpected fetch endpoint %q", fetcher.endpoint)
	}
	if s.Mode() != session.ModeEdit {
		t.Fatalf("expected edit mode")
	}
	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	calls := submitter.calls()
	if len(calls) != 1 || calls[0].Method != "PUT" || calls[0].Endpoint != "/products/42" {
		t.Fatalf("unexpected requests: %+v", calls)
	}
	if _, ok := calls[0].Body["sku"]; ok {
		t.Fatalf("unknown record key leaked into payload")
	}
}

func TestOpen_HydrateFailure(t *testing.T) {
	fetchErr := &remote.FetchError{Endpoint: "/products/7", Status: 404}
	_, err := session.Open(context.Background(), productForm(), "7", session.Collaborators{Fetcher: &fakeFetcher{err: fetchErr}})
	if !errors.Is(err, fetchErr) {
		t.Fatalf("expected fetch error, got %v", err)
	}

	_, err = session.Open(context.Background(), productForm(), "7", session.Collaborators{})
	if !errors.Is(err, session.ErrNoCollaborator) {
		t.Fatalf("expected ErrNoCollaborator, got %v", err)
	}
}

func TestSubmit_ValidationBlocksRequest(t *testing.T) {
	submitter := &recordingSubmitter{}
	s := openCreate(t, session.Collaborators{Submitter: submitter})
	if err := s.Store().Set(formstore.P("name"), "Serum"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Store().Set(formstore.P("price"), "twelve"); err != nil {
		t.Fatalf("set: %v", err)
	}

	_, err := s.Submit(context.Background())
	var validationErr *formstore.ValidationError
	if !errors.As(err, &validationErr) || validationErr.Field != "price" {
		t.Fatalf("expected ValidationError on price, got %v", err)
	}
	if len(submitter.calls()) != 0 {
		t.Fatalf("submitter must not be called on validation failure")
	}
	if got := s.Store().Status(); got != formstore.StatusReady {
		t.Fatalf("expected ready, got %s", got)
	}
}

func TestSubmit_FailureKeepsDocumentForRetry(t *testing.T) {
	submitter := &recordingSubmitter{err: &remote.SubmitError{Status: 500}}
	s := openCreate(t, session.Collaborators{Submitter: submitter})
	fill(t, s)
	before := s.Store().Document()

	_, err := s.Submit(context.Background())
	var submitErr *remote.SubmitError
	if !errors.As(err, &submitErr) {
		t.Fatalf("expected SubmitError, got %v", err)
	}
	if got := s.Store().Status(); got != formstore.StatusReady {
		t.Fatalf("expected ready after failure, got %s", got)
	}
	if diff := cmp.Diff(before, s.Store().Document()); diff != "" {
		t.Fatalf("document changed on failure (-want +got):\n%s", diff)
	}

	submitter.mu.Lock()
	submitter.err = nil
	submitter.mu.Unlock()
	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(submitter.calls()) != 2 {
		t.Fatalf("expected two attempts, got %d", len(submitter.calls()))
	}
}

func TestSubmit_SecondCallWhileInFlight(t *testing.T) {
	submitter := &recordingSubmitter{block: make(chan struct{}), started: make(chan struct{})}
	s := openCreate(t, session.Collaborators{Submitter: submitter})
	fill(t, s)

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background())
		done <- err
	}()
	<-submitter.started

	if !s.Busy(formstore.ControlSubmit) {
		t.Fatalf("submit control should be busy")
	}
	if _, err := s.Submit(context.Background()); !errors.Is(err, session.ErrInFlight) {
		t.Fatalf("expected ErrInFlight, got %v", err)
	}

	close(submitter.block)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if s.Busy(formstore.ControlSubmit) {
		t.Fatalf("submit control should be released")
	}
}

func TestClose_CancelsInFlightSubmit(t *testing.T) {
	submitter := &recordingSubmitter{block: make(chan struct{}), started: make(chan struct{})}
	s, err := session.Open(context.Background(), productForm(), "", session.Collaborators{Submitter: submitter})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	fill(t, s)

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background())
		done <- err
	}()
	<-submitter.started

	s.Close()
	if err := <-done; !errors.Is(err, session.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, err := s.Submit(context.Background()); !errors.Is(err, session.ErrClosed) {
		t.Fatalf("expected ErrClosed after close, got %v", err)
	}
}

func TestUpload_StoresURL(t *testing.T) {
	uploader := &fakeUploader{url: "https://cdn.example.com/"}
	s := openCreate(t, session.Collaborators{Uploader: uploader})

	got, err := s.Upload(context.Background(), formstore.P("image"), "hero.png", strings.NewReader("png"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if got != "https://cdn.example.com/hero.png" {
		t.Fatalf("unexpected url %q", got)
	}
	stored, _ := s.Store().Get(formstore.P("image"))
	if stored != got {
		t.Fatalf("url not stored: %#v", stored)
	}

	if _, err := s.Store().AppendEntry(formstore.P("images"), nil); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := s.Upload(context.Background(), formstore.P("images", 0), "a.png", strings.NewReader("png")); err != nil {
		t.Fatalf("upload into entry: %v", err)
	}
	entry, _ := s.Store().Get(formstore.P("images", 0))
	if entry != "https://cdn.example.com/a.png" {
		t.Fatalf("entry url not stored: %#v", entry)
	}
}

func TestUpload_FailureLeavesDocument(t *testing.T) {
	uploader := &fakeUploader{err: &remote.UploadError{Filename: "hero.png", Status: 413}}
	s := openCreate(t, session.Collaborators{Uploader: uploader})
	before := s.Store().Document()

	_, err := s.Upload(context.Background(), formstore.P("image"), "hero.png", strings.NewReader("png"))
	var uploadErr *remote.UploadError
	if !errors.As(err, &uploadErr) {
		t.Fatalf("expected UploadError, got %v", err)
	}
	if diff := cmp.Diff(before, s.Store().Document()); diff != "" {
		t.Fatalf("document changed on failed upload (-want +got):\n%s", diff)
	}
	if s.Busy(formstore.UploadControl(formstore.P("image"))) {
		t.Fatalf("upload control should be released after failure")
	}
}

func TestUpload_RejectsNonTextTarget(t *testing.T) {
	s := openCreate(t, session.Collaborators{Uploader: &fakeUploader{}})

	_, err := s.Upload(context.Background(), formstore.P("images"), "a.png", strings.NewReader("png"))
	if !errors.Is(err, session.ErrNotUploadable) {
		t.Fatalf("expected ErrNotUploadable, got %v", err)
	}

	_, err = s.Upload(context.Background(), formstore.P("missing"), "a.png", strings.NewReader("png"))
	var pathErr *formstore.PathError
	if !errors.As(err, &pathErr) {
		t.Fatalf("expected PathError, got %v", err)
	}
}

func TestUpload_LatchIsPerControl(t *testing.T) {
	blocked := &fakeUploader{url: "u/", block: make(chan struct{}), started: make(chan struct{})}
	s := openCreate(t, session.Collaborators{Uploader: blocked})

	done := make(chan error, 1)
	go func() {
		_, err := s.Upload(context.Background(), formstore.P("image"), "a.png", strings.NewReader("x"))
		done <- err
	}()
	<-blocked.started

	if _, err := s.Upload(context.Background(), formstore.P("image"), "b.png", strings.NewReader("x")); !errors.Is(err, session.ErrInFlight) {
		t.Fatalf("expected ErrInFlight on same control, got %v", err)
	}
	if !s.Busy(formstore.UploadControl(formstore.P("image"))) {
		t.Fatalf("image control should be busy")
	}
	if s.Busy(formstore.UploadControl(formstore.P("thumbnail"))) {
		t.Fatalf("thumbnail control should be free")
	}

	close(blocked.block)
	if err := <-done; err != nil {
		t.Fatalf("first upload: %v", err)
	}
}
