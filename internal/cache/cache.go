// Package cache keeps best-effort snapshots of in-progress games so a player
// can resume the same day after the session is lost.
//
// Each namespace (one per player) holds a mapping from day to game.Snapshot.
// Last write wins; nothing here is coordinated across processes.
package cache

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"

	"github.com/orderlygame/orderly/internal/game"
)

// ErrBadNamespace rejects namespaces that are unsafe as file names.
var ErrBadNamespace = errors.New("cache: invalid namespace")

var namespaceRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Store loads and saves per-day snapshots for a namespace.
type Store interface {
	// Load returns the snapshot for day, or ok=false when none is cached.
	Load(namespace string, day int) (snap game.Snapshot, ok bool, err error)
	// Save stores snap under its day, replacing any previous one.
	Save(namespace string, snap game.Snapshot) error
	// Clear drops every snapshot of the namespace.
	Clear(namespace string) error
}

// FileStore keeps one JSON file per namespace under dir.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore returns a FileStore rooted at dir. The directory is created on
// first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (fs *FileStore) path(namespace string) (string, error) {
	if !namespaceRe.MatchString(namespace) {
		return "", fmt.Errorf("%w: %q", ErrBadNamespace, namespace)
	}
	return filepath.Join(fs.dir, namespace+".json"), nil
}

// readAll decodes the namespace file. A missing file is an empty cache.
func (fs *FileStore) readAll(path string) (map[string]game.Snapshot, error) {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return map[string]game.Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error opening cache file for reading: %w", err)
	}
	defer file.Close()

	all := map[string]game.Snapshot{}
	if err := json.NewDecoder(bufio.NewReader(file)).Decode(&all); err != nil {
		return nil, fmt.Errorf("error decoding cache file: %w", err)
	}
	return all, nil
}

func (fs *FileStore) writeAll(path string, all map[string]game.Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating cache directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("error opening cache file for writing: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if err := json.NewEncoder(w).Encode(all); err != nil {
		return fmt.Errorf("error encoding cache file: %w", err)
	}
	return w.Flush()
}

func (fs *FileStore) Load(namespace string, day int) (game.Snapshot, bool, error) {
	path, err := fs.path(namespace)
	if err != nil {
		return game.Snapshot{}, false, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	all, err := fs.readAll(path)
	if err != nil {
		return game.Snapshot{}, false, err
	}
	snap, ok := all[strconv.Itoa(day)]
	return snap, ok, nil
}

func (fs *FileStore) Save(namespace string, snap game.Snapshot) error {
	path, err := fs.path(namespace)
	if err != nil {
		return err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	all, err := fs.readAll(path)
	if err != nil {
		// corrupt file: overwrite it
		all = map[string]game.Snapshot{}
	}
	all[strconv.Itoa(snap.Day)] = snap
	return fs.writeAll(path, all)
}

func (fs *FileStore) Clear(namespace string) error {
	path, err := fs.path(namespace)
	if err != nil {
		return err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("error removing cache file: %w", err)
	}
	return nil
}

// Memory is an in-process Store used when no cache directory is configured.
type Memory struct {
	mu  sync.Mutex
	all map[string]map[int]game.Snapshot
}

func NewMemory() *Memory {
	return &Memory{all: map[string]map[int]game.Snapshot{}}
}

func (m *Memory) Load(namespace string, day int) (game.Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.all[namespace][day]
	return snap, ok, nil
}

func (m *Memory) Save(namespace string, snap game.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	days, ok := m.all[namespace]
	if !ok {
		days = map[int]game.Snapshot{}
		m.all[namespace] = days
	}
	days[snap.Day] = snap
	return nil
}

func (m *Memory) Clear(namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.all, namespace)
	return nil
}
