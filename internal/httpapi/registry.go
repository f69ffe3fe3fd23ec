package httpapi

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-formstore/pkg/session"
)

// Registry holds open sessions by id and evicts the ones left idle longer
// than the TTL. Evicted and removed sessions are closed, which cancels their
// in-flight requests.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*registered
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

type registered struct {
	sess    *session.Session
	touched time.Time
}

// NewRegistry returns an empty registry with the given idle TTL.
func NewRegistry(ttl time.Duration, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		sessions: make(map[string]*registered),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// Add stores sess under a fresh id.
func (r *Registry) Add(sess *session.Session) string {
	id := uuid.NewString()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = &registered{sess: sess, touched: r.now()}
	return id
}

// Get returns the session and marks it as used.
func (r *Registry) Get(id string) (*session.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	entry.touched = r.now()
	return entry.sess, true
}

// Remove closes and forgets the session, reporting whether it existed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	entry, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		entry.sess.Close()
	}
	return ok
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Cleanup closes sessions idle past the TTL and returns how many it evicted.
func (r *Registry) Cleanup() int {
	r.mu.Lock()
	now := r.now()
	var expired []*session.Session
	for id, entry := range r.sessions {
		if now.Sub(entry.touched) > r.ttl {
			expired = append(expired, entry.sess)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, sess := range expired {
		sess.Close()
	}
	if len(expired) > 0 {
		r.logger.Debug("expired sessions evicted", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Run evicts expired sessions every interval until ctx is done, then closes
// whatever is still open.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.CloseAll()
			return nil
		case <-ticker.C:
			r.Cleanup()
		}
	}
}

// CloseAll closes and forgets every session.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	open := make([]*session.Session, 0, len(r.sessions))
	for id, entry := range r.sessions {
		open = append(open, entry.sess)
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	for _, sess := range open {
		sess.Close()
	}
}
