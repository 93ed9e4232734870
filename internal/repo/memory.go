// internal/repo/memory.go
//
// In-memory implementation of Store.
// Characteristics:
//   - Records kept in a map keyed by day, guarded by a RWMutex.
//   - Update works on a copy of the map and swaps it in on success, so a
//     failing callback leaves no partial writes.
//   - State is lost when the process restarts.
package repo

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/orderlygame/orderly/internal/puzzle"
)

type memory struct {
	mu       sync.RWMutex
	puzzles  map[int]puzzle.Record
	version  int64
	accounts map[string]Account // keyed by ID
}

// NewMemory constructs an empty in-memory Store.
func NewMemory() Store {
	return &memory{
		puzzles:  make(map[int]puzzle.Record),
		accounts: make(map[string]Account),
	}
}

func (m *memory) List(_ context.Context) ([]puzzle.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedRecords(m.puzzles), nil
}

func (m *memory) Get(_ context.Context, day int) (puzzle.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lookup(m.puzzles, day)
}

func (m *memory) Version(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version, nil
}

func (m *memory) Update(ctx context.Context, expected int64, fn func(Tx) error) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if expected != AnyVersion && expected != m.version {
		return m.version, fmt.Errorf("%w: expected version %d, have %d", puzzle.ErrConcurrentEdit, expected, m.version)
	}
	tx := &memTx{puzzles: maps.Clone(m.puzzles)}
	if err := fn(tx); err != nil {
		return m.version, err
	}
	if err := ctx.Err(); err != nil {
		return m.version, err
	}
	m.puzzles = tx.puzzles
	m.version++
	return m.version, nil
}

func (m *memory) Close() error { return nil }

func (m *memory) CreateAccount(_ context.Context, a Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.accounts {
		if strings.EqualFold(x.Username, a.Username) {
			return ErrUsernameTaken
		}
	}
	m.accounts[a.ID] = a
	return nil
}

func (m *memory) AccountByUsername(_ context.Context, username string) (Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.accounts {
		if strings.EqualFold(a.Username, username) {
			return a, nil
		}
	}
	return Account{}, ErrAccountNotFound
}

func (m *memory) AccountByID(_ context.Context, id string) (Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.accounts[id]; ok {
		return a, nil
	}
	return Account{}, ErrAccountNotFound
}

// memTx operates on a private copy of the puzzle map.
type memTx struct {
	puzzles map[int]puzzle.Record
}

func (t *memTx) List(_ context.Context) ([]puzzle.Record, error) {
	return sortedRecords(t.puzzles), nil
}

func (t *memTx) Get(_ context.Context, day int) (puzzle.Record, error) {
	return lookup(t.puzzles, day)
}

func (t *memTx) Put(_ context.Context, r puzzle.Record) error {
	t.puzzles[r.Day] = r.Clone()
	return nil
}

func (t *memTx) Delete(_ context.Context, day int) error {
	delete(t.puzzles, day)
	return nil
}

func (t *memTx) DeleteAll(_ context.Context) error {
	clear(t.puzzles)
	return nil
}

func lookup(m map[int]puzzle.Record, day int) (puzzle.Record, error) {
	r, ok := m[day]
	if !ok {
		return puzzle.Record{}, fmt.Errorf("%w: day %d", puzzle.ErrNotFound, day)
	}
	return r.Clone(), nil
}

func sortedRecords(m map[int]puzzle.Record) []puzzle.Record {
	days := slices.Sorted(maps.Keys(m))
	out := make([]puzzle.Record, 0, len(days))
	for _, d := range days {
		out = append(out, m[d].Clone())
	}
	return out
}
