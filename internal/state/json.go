// Package state persists the library between runs, as a JSON file or a bbolt
// database under XDG_STATE_HOME/folio.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/metcalfc/folio/internal/library"
)

const (
	appName      = "folio"
	jsonFileName = "library.json"
	boltFileName = "library.db"

	fileVersion = 1
)

// Dir returns XDG_STATE_HOME/folio or ~/.local/state/folio
func Dir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", appName)
}

// DefaultPath returns the default location of the library for a backend.
func DefaultPath(backend string) string {
	if backend == Bolt {
		return filepath.Join(Dir(), boltFileName)
	}
	return filepath.Join(Dir(), jsonFileName)
}

type libraryFile struct {
	Version int            `json:"version"`
	Books   []library.Book `json:"books"`
}

// JSONStore keeps the library in a single JSON file.
type JSONStore struct {
	path string
	mu   sync.RWMutex
}

// NewJSONStore returns a store writing to path, creating its directory.
func NewJSONStore(path string) (*JSONStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &JSONStore{path: path}, nil
}

func (s *JSONStore) Path() string { return s.path }

// Load reads the library. A missing file is an empty library.
func (s *JSONStore) Load() ([]library.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var f libraryFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	if f.Version > fileVersion {
		return nil, fmt.Errorf("%s was written by a newer version (format %d)", s.path, f.Version)
	}
	return f.Books, nil
}

// Save replaces the file with books. The new content is written to a
// temporary file first so a failed write leaves the old library intact.
func (s *JSONStore) Save(books []library.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if books == nil {
		books = []library.Book{}
	}
	data, err := json.MarshalIndent(libraryFile{Version: fileVersion, Books: books}, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func (s *JSONStore) Close() error { return nil }
