package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/goliatone/go-formstore/pkg/formstore"
	"github.com/goliatone/go-formstore/pkg/session"
)

type formSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title,omitempty"`
	Endpoint string `json:"endpoint"`
}

type sessionView struct {
	ID       string         `json:"id"`
	Form     string         `json:"form"`
	Mode     session.Mode   `json:"mode"`
	RecordID string         `json:"recordId,omitempty"`
	Status   string         `json:"status"`
	Document map[string]any `json:"document"`
}

func (s *Server) handleListForms(w http.ResponseWriter, r *http.Request) {
	forms := make([]formSummary, 0, s.forms.Len())
	for _, id := range s.forms.IDs() {
		form, _ := s.forms.Form(id)
		forms = append(forms, formSummary{ID: form.ID, Title: form.Title, Endpoint: form.Endpoint})
	}
	writeJSON(w, http.StatusOK, map[string]any{"forms": forms})
}

func (s *Server) handleGetForm(w http.ResponseWriter, r *http.Request) {
	form, ok := s.forms.Form(chi.URLParam(r, "formID"))
	if !ok {
		jsonError(w, "form not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

// handleOpenSession opens a form in create mode, or in edit mode when the
// body names a recordId.
func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	form, ok := s.forms.Form(chi.URLParam(r, "formID"))
	if !ok {
		jsonError(w, "form not found", http.StatusNotFound)
		return
	}

	var req struct {
		RecordID string `json:"recordId"`
	}
	if err := decodeOptional(r.Body, &req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	sess, err := session.Open(r.Context(), form, req.RecordID, s.collab, session.WithLogger(s.log))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id := s.sessions.Add(sess)
	s.log.Debug("session registered", zap.String("session", id), zap.String("form", form.ID))
	writeJSON(w, http.StatusCreated, view(id, sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, view(id, sess))
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Remove(chi.URLParam(r, "sessionID")) {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetValue(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	path, ok := queryPath(w, r)
	if !ok {
		return
	}
	value, err := sess.Store().Get(path)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": path.String(), "value": value})
}

func (s *Server) handleSetValue(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	path, ok := queryPath(w, r)
	if !ok {
		return
	}
	var req struct {
		Value any `json:"value"`
	}
	if err := decodeRequired(r.Body, &req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	store := sess.Store()
	if err := store.Set(path, req.Value); err != nil {
		s.writeError(w, r, err)
		return
	}
	value, err := store.Get(path)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": path.String(), "value": value})
}

func (s *Server) handleAppendEntry(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	path, ok := queryPath(w, r)
	if !ok {
		return
	}
	var req struct {
		Template any `json:"template"`
	}
	if err := decodeOptional(r.Body, &req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	index, err := sess.Store().AppendEntry(path, req.Template)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"path": path.String(), "index": index})
}

// handleRemoveEntry refuses to drop an array below its minimum; the store
// itself allows it.
func (s *Server) handleRemoveEntry(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	path, ok := queryPath(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(r.URL.Query().Get("index"))
	if err != nil {
		jsonError(w, "index query parameter must be an integer", http.StatusBadRequest)
		return
	}

	store := sess.Store()
	canRemove, err := store.CanRemove(path)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !canRemove {
		jsonError(w, "entry count is at its minimum", http.StatusConflict)
		return
	}
	if err := store.RemoveEntry(path, index); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	path, ok := queryPath(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "file too large", http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "multipart field \"file\" is required", http.StatusBadRequest)
		return
	}
	defer func() {
		_ = file.Close()
	}()

	location, err := sess.Upload(r.Context(), path, header.Filename, file)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": path.String(), "url": location})
}

// handlePayload previews the normalized document without submitting it.
func (s *Server) handlePayload(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	payload, err := sess.Store().Normalize()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payload": payload})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	payload, err := sess.Submit(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  string(sess.Store().Status()),
		"payload": payload,
	})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (string, *session.Session, bool) {
	id := chi.URLParam(r, "sessionID")
	sess, ok := s.sessions.Get(id)
	if !ok {
		jsonError(w, "session not found", http.StatusNotFound)
		return "", nil, false
	}
	return id, sess, true
}

func view(id string, sess *session.Session) sessionView {
	store := sess.Store()
	return sessionView{
		ID:       id,
		Form:     sess.Form().ID,
		Mode:     sess.Mode(),
		RecordID: sess.RecordID(),
		Status:   string(store.Status()),
		Document: store.Document(),
	}
}

func queryPath(w http.ResponseWriter, r *http.Request) (formstore.Path, bool) {
	path, err := formstore.ParsePath(r.URL.Query().Get("path"))
	if err != nil {
		jsonError(w, "invalid path: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return path, true
}

// decodeRequired decodes a JSON body keeping numbers as json.Number so form
// text survives untouched.
func decodeRequired(body io.Reader, v any) error {
	dec := json.NewDecoder(body)
	dec.UseNumber()
	return dec.Decode(v)
}

// decodeOptional is decodeRequired that accepts an empty body.
func decodeOptional(body io.Reader, v any) error {
	err := decodeRequired(body, v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
