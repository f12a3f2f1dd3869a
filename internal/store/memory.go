// internal/store/memory.go
//
// In-memory registry of hint sessions.
// Each session owns its own constraint.Engine over the shared word store;
// the engine itself is not safe for concurrent use, so callers go through
// Session.Do, which serializes access per session.
//
// Characteristics:
//   - Sessions keyed by ID in a sharded concurrent map.
//   - Idle sessions are dropped by Sweep (driven by a ticker in Janitor).
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/go-hints/internal/constraint"
	"github.com/robalobadob/wordle/apps/go-hints/internal/words"
)

// ErrNotFound is returned when no session has the requested ID.
var ErrNotFound = errors.New("session not found")

// Session is one player's constraint state.
type Session struct {
	ID string

	mu       sync.Mutex // guards engine and lastUsed
	engine   *constraint.Engine
	lastUsed time.Time
	now      func() time.Time
}

// Do runs fn with exclusive access to the session's engine.
func (s *Session) Do(fn func(e *constraint.Engine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = s.now()
	return fn(s.engine)
}

// LastUsed reports when the session was last accessed through Do.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// Store defines the session registry.
type Store interface {
	// Create starts a new session with an unconstrained engine.
	Create(ctx context.Context) (*Session, error)

	// Get retrieves a session by ID.
	// Returns ErrNotFound if it does not exist or was swept.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// Sweep removes sessions idle for longer than ttl and reports how many.
	Sweep(ttl time.Duration) int

	// Len reports the number of live sessions.
	Len() int
}

// memory is an in-memory Store implementation.
type memory struct {
	words    *words.Store
	sessions cmap.ConcurrentMap[string, *Session]
	now      func() time.Time
}

// NewMemoryStore constructs a registry whose sessions filter ws.
func NewMemoryStore(ws *words.Store) Store {
	return &memory{words: ws, sessions: cmap.New[*Session](), now: time.Now}
}

func (m *memory) Create(ctx context.Context) (*Session, error) {
	now := m.now()
	s := &Session{
		ID:       uuid.NewString(),
		engine:   constraint.New(m.words),
		lastUsed: now,
		now:      m.now,
	}
	m.sessions.Set(s.ID, s)
	return s, nil
}

func (m *memory) Get(ctx context.Context, id string) (*Session, error) {
	if s, ok := m.sessions.Get(id); ok {
		return s, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.sessions.Remove(id)
	return nil
}

func (m *memory) Sweep(ttl time.Duration) int {
	cutoff := m.now().Add(-ttl)
	n := 0
	for _, id := range m.sessions.Keys() {
		m.sessions.RemoveCb(id, func(_ string, s *Session, exists bool) bool {
			if exists && s.LastUsed().Before(cutoff) {
				n++
				return true
			}
			return false
		})
	}
	return n
}

func (m *memory) Len() int { return m.sessions.Count() }

// Janitor sweeps st every interval until ctx is done.
func Janitor(ctx context.Context, st Store, ttl, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := st.Sweep(ttl); n > 0 {
				log.Info().Int("swept", n).Int("live", st.Len()).Msg("expired idle sessions")
			}
		}
	}
}
