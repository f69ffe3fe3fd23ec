// Package httpapi exposes form sessions over HTTP so browser front ends can
// drive the document editor remotely.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/goliatone/go-formstore/pkg/schema"
	"github.com/goliatone/go-formstore/pkg/session"
)

const defaultMaxUploadBytes = 10 << 20

// Options configures a Server.
type Options struct {
	Forms          *schema.Registry
	Sessions       *Registry
	Collaborators  session.Collaborators
	Logger         *zap.Logger
	MaxUploadBytes int64
}

// Server is the HTTP API for form sessions.
type Server struct {
	router         chi.Router
	forms          *schema.Registry
	sessions       *Registry
	collab         session.Collaborators
	log            *zap.Logger
	maxUploadBytes int64
}

// NewServer creates and configures the HTTP server.
func NewServer(opts Options) *Server {
	s := &Server{
		forms:          opts.Forms,
		sessions:       opts.Sessions,
		collab:         opts.Collaborators,
		log:            opts.Logger,
		maxUploadBytes: opts.MaxUploadBytes,
	}
	if s.forms == nil {
		s.forms = schema.NewRegistry()
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.sessions == nil {
		s.sessions = NewRegistry(0, s.log)
	}
	if s.maxUploadBytes <= 0 {
		s.maxUploadBytes = defaultMaxUploadBytes
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	s.useMiddleware(r)

	r.Get("/health", s.handleHealth)

	r.Get("/forms", s.handleListForms)
	r.Get("/forms/{formID}", s.handleGetForm)
	r.Post("/forms/{formID}/sessions", s.handleOpenSession)

	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", s.handleGetSession)
		r.Delete("/", s.handleCloseSession)
		r.Get("/value", s.handleGetValue)
		r.Put("/value", s.handleSetValue)
		r.Post("/entries", s.handleAppendEntry)
		r.Delete("/entries", s.handleRemoveEntry)
		r.Post("/uploads", s.handleUpload)
		r.Get("/payload", s.handlePayload)
		r.Post("/submit", s.handleSubmit)
	})

	s.router = r
}

// useMiddleware installs the stack shared by every route. Recoverer sits
// inside the request logger so a panicking request is still logged as a 500.
func (s *Server) useMiddleware(r chi.Router) {
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(middleware.Recoverer)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
