package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/goliatone/go-formstore/pkg/formstore"
	"github.com/goliatone/go-formstore/pkg/session"
)

// errBinding is the only detail clients get for contract violations; the
// real path goes to the log.
const errBinding = "invalid form binding"

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeError maps store, session and collaborator failures to responses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *formstore.ValidationError
		described     interface{ UserMessage() string }
	)
	switch {
	case formstore.IsContractViolation(err):
		s.log.Error("contract violation",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("query", r.URL.RawQuery),
			zap.Error(err),
		)
		jsonError(w, errBinding, http.StatusBadRequest)
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": validationErr.Message,
			"field": validationErr.Field,
		})
	case errors.Is(err, session.ErrInFlight),
		errors.Is(err, formstore.ErrNotEditable),
		errors.Is(err, formstore.ErrInvalidTransition):
		jsonError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, session.ErrClosed):
		jsonError(w, "session closed", http.StatusGone)
	case errors.Is(err, session.ErrNotUploadable):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, session.ErrNoCollaborator):
		jsonError(w, err.Error(), http.StatusNotImplemented)
	case errors.As(err, &described):
		s.log.Warn("collaborator failed", zap.String("path", r.URL.Path), zap.Error(err))
		jsonError(w, described.UserMessage(), http.StatusBadGateway)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		jsonError(w, "request cancelled", http.StatusServiceUnavailable)
	default:
		s.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}
