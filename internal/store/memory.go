// internal/store/memory.go
//
// In-memory implementation of the Store interface for active game sessions.
//
// Characteristics:
//   - Stores *Session objects keyed by ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Each Session carries its own mutex; handlers lock it around game calls.
//   - State is lost when the process restarts (the per-day cache covers resume).

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/orderlygame/orderly/internal/game"
)

// ErrNotFound is returned by Get for unknown session IDs.
var ErrNotFound = errors.New("session not found")

// Session is one player's game in progress.
type Session struct {
	mu sync.Mutex

	ID      string
	Player  string // cache namespace of the owning player
	Game    *game.Game
	Preview bool // opened through a test link; never cached
	Touched time.Time
}

// Lock serialises operations on the session's game.
func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Store defines the persistence interface for game sessions.
type Store interface {
	// Save persists or updates a session.
	Save(ctx context.Context, s *Session) error

	// Get retrieves a session by ID.
	// Returns ErrNotFound if the session is unknown.
	Get(ctx context.Context, id string) (*Session, error)

	// Prune drops sessions not touched since before.
	Prune(ctx context.Context, before time.Time) int
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex        // guards sessions map
	sessions map[string]*Session // keyed by Session.ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*Session)}
}

// Save adds or updates the session in the map.
func (m *memory) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

// Get looks up a session by ID.
func (m *memory) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

// Prune removes idle sessions and reports how many were dropped.
func (m *memory) Prune(ctx context.Context, before time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		s.Lock()
		idle := s.Touched.Before(before)
		s.Unlock()
		if idle {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}
