package web

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/leapstack-labs/sqlrepl/internal/console"
	"github.com/leapstack-labs/sqlrepl/internal/engine"
	"github.com/leapstack-labs/sqlrepl/internal/metrics"
)

// session is one browser's console. Its mutex serializes edits so the
// console sees them one at a time, in arrival order.
type session struct {
	mu       sync.Mutex
	db       *engine.Database
	console  *console.Console
	initErr  error
	limiter  *rate.Limiter
	lastSeen time.Time
}

// close releases the session's database. The caller holds s.mu.
func (s *session) close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db, s.console = nil, nil
	return err
}

// sessionStore owns every live session. Sessions never share a handle.
type sessionStore struct {
	limit  rate.Limit
	burst  int
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

func newSessionStore(limit float64, burst int, logger *slog.Logger) *sessionStore {
	l := rate.Inf
	if limit > 0 {
		l = rate.Limit(limit)
	}
	return &sessionStore{
		limit:    l,
		burst:    max(burst, 1),
		logger:   logger,
		sessions: make(map[string]*session),
	}
}

// get returns the session for id, creating it on first use.
func (st *sessionStore) get(id string) *session {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		s = &session{limiter: rate.NewLimiter(st.limit, st.burst)}
		st.sessions[id] = s
		metrics.Sessions.Set(float64(len(st.sessions)))
		st.logger.Debug("session created", "session", id)
	}
	s.lastSeen = time.Now()
	return s
}

// len returns the number of sessions.
func (st *sessionStore) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// reset drops every session's database so the next edit loads the
// current image. Limiters survive.
func (st *sessionStore) reset() {
	for _, s := range st.snapshot() {
		s.mu.Lock()
		if err := s.close(); err != nil {
			st.logger.Warn("failed to close session database", "error", err)
		}
		s.initErr = nil
		s.mu.Unlock()
	}
}

// evictIdle removes sessions not seen since before cutoff.
func (st *sessionStore) evictIdle(cutoff time.Time) int {
	st.mu.Lock()
	var idle []*session
	for id, s := range st.sessions {
		if s.lastSeen.Before(cutoff) {
			idle = append(idle, s)
			delete(st.sessions, id)
		}
	}
	metrics.Sessions.Set(float64(len(st.sessions)))
	st.mu.Unlock()

	for _, s := range idle {
		s.mu.Lock()
		_ = s.close()
		s.mu.Unlock()
	}
	return len(idle)
}

// closeAll closes and forgets every session.
func (st *sessionStore) closeAll() {
	st.evictIdle(time.Now().Add(time.Hour))
}

func (st *sessionStore) snapshot() []*session {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]*session, 0, len(st.sessions))
	for _, s := range st.sessions {
		out = append(out, s)
	}
	return out
}

// janitor evicts idle sessions until ctx is done.
func (st *sessionStore) janitor(ctx context.Context, ttl time.Duration) error {
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if n := st.evictIdle(now.Add(-ttl)); n > 0 {
				st.logger.Debug("evicted idle sessions", "count", n)
			}
		}
	}
}
