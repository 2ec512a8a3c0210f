// Package library keeps the user's book records and their reading progress.
package library

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/metcalfc/folio/internal/format"
	"github.com/metcalfc/folio/internal/reader"
)

var (
	ErrNotFound  = errors.New("book not found")
	ErrAmbiguous = errors.New("book reference is ambiguous")
)

// Book is a stored book record.
type Book struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Author   string        `json:"author,omitempty"`
	Format   format.Format `json:"format"`
	Content  string        `json:"content,omitempty"`
	Progress float64       `json:"progress"`
	LastRead *time.Time    `json:"lastRead,omitempty"`
	Cover    string        `json:"cover,omitempty"`

	SourcePath string `json:"sourcePath,omitempty"`
	SourceSize int64  `json:"sourceSize,omitempty"`
	Checksum   string `json:"checksum,omitempty"`
	// Extraction names the diagnostic kind when Content is a fallback text.
	Extraction string    `json:"extraction,omitempty"`
	AddedAt    time.Time `json:"addedAt"`
}

// Draft holds the fields of a book that is about to be added.
type Draft struct {
	Title      string
	Author     string
	Format     format.Format
	Content    string
	Cover      string
	SourcePath string
	SourceSize int64
	Checksum   string
	Extraction string
}

// Query filters the library. Empty fields match every book.
type Query struct {
	// Text matches title or author, ignoring case.
	Text   string
	Format format.Format
}

// Counts is the number of books per format.
type Counts struct {
	Total    int
	ByFormat map[format.Format]int
}

// Persister loads and saves the whole library.
type Persister interface {
	Load() ([]Book, error)
	Save([]Book) error
}

// Store is an in-memory, ordered collection of books, most recently added
// first. It is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	books []Book

	now   func() time.Time
	newID func() string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Add creates a book from d with a new ID, zero progress and the current
// time as last read, and puts it at the front of the library.
func (s *Store) Add(d Draft) Book {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	title := strings.TrimSpace(d.Title)
	if title == "" {
		title = "Untitled"
	}
	b := Book{
		ID:         s.newID(),
		Title:      title,
		Author:     strings.TrimSpace(d.Author),
		Format:     d.Format,
		Content:    d.Content,
		LastRead:   &now,
		Cover:      d.Cover,
		SourcePath: d.SourcePath,
		SourceSize: d.SourceSize,
		Checksum:   d.Checksum,
		Extraction: d.Extraction,
		AddedAt:    now,
	}
	s.books = slices.Insert(s.books, 0, b)
	return clone(b)
}

// UpdateProgress clamps progress to [0, 100] and records it with the current
// time as last read. Unknown IDs are ignored.
func (s *Store) UpdateProgress(id string, progress float64) (Book, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return Book{}, false
	}
	now := s.now()
	s.books[i].Progress = reader.ClampProgress(progress)
	s.books[i].LastRead = &now
	return clone(s.books[i]), true
}

// Delete removes a book. Unknown IDs are ignored.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return false
	}
	s.books = slices.Delete(s.books, i, i+1)
	return true
}

// Get returns the book with the given ID.
func (s *Store) Get(id string) (Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.index(id)
	if i < 0 {
		return Book{}, false
	}
	return clone(s.books[i]), true
}

// Lookup resolves ref as a full ID or as a prefix shared by exactly one ID.
func (s *Store) Lookup(ref string) (Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Book{}, ErrNotFound
	}
	if i := s.index(ref); i >= 0 {
		return clone(s.books[i]), nil
	}
	var found []int
	for i, b := range s.books {
		if strings.HasPrefix(b.ID, ref) {
			found = append(found, i)
		}
	}
	switch len(found) {
	case 0:
		return Book{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	case 1:
		return clone(s.books[found[0]]), nil
	}
	return Book{}, fmt.Errorf("%w: %s matches %d books", ErrAmbiguous, ref, len(found))
}

// FindByChecksum returns the first book imported from a file with the given
// checksum.
func (s *Store) FindByChecksum(sum string) (Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sum == "" {
		return Book{}, false
	}
	for _, b := range s.books {
		if b.Checksum == sum {
			return clone(b), true
		}
	}
	return Book{}, false
}

// List returns every book, most recently added first.
func (s *Store) List() []Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.books)
}

// Filter returns the books matching q, in library order.
func (s *Store) Filter(q Query) []Book {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(q.Text))
	var out []Book
	for _, b := range s.books {
		if q.Format != "" && b.Format != q.Format {
			continue
		}
		if needle != "" &&
			!strings.Contains(fold.String(b.Title), needle) &&
			!strings.Contains(fold.String(b.Author), needle) {
			continue
		}
		out = append(out, clone(b))
	}
	return out
}

// Counts returns the number of books per format.
func (s *Store) Counts() Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := Counts{Total: len(s.books), ByFormat: make(map[format.Format]int)}
	for _, ft := range format.All() {
		c.ByFormat[ft] = 0
	}
	for _, b := range s.books {
		c.ByFormat[b.Format]++
	}
	return c
}

// Len returns the number of books.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books)
}

// Reset empties the store.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books = nil
}

// Restore replaces the contents of the store with books, keeping their order.
func (s *Store) Restore(books []Book) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books = cloneAll(books)
	for i := range s.books {
		s.books[i].Progress = reader.ClampProgress(s.books[i].Progress)
	}
}

// Load restores the store from p.
func (s *Store) Load(p Persister) error {
	books, err := p.Load()
	if err != nil {
		return fmt.Errorf("failed to load library: %w", err)
	}
	s.Restore(books)
	return nil
}

// Save writes the store to p.
func (s *Store) Save(p Persister) error {
	if err := p.Save(s.List()); err != nil {
		return fmt.Errorf("failed to save library: %w", err)
	}
	return nil
}

func (s *Store) index(id string) int {
	return slices.IndexFunc(s.books, func(b Book) bool { return b.ID == id })
}

func clone(b Book) Book {
	if b.LastRead != nil {
		t := *b.LastRead
		b.LastRead = &t
	}
	return b
}

func cloneAll(books []Book) []Book {
	if books == nil {
		return nil
	}
	out := make([]Book, len(books))
	for i, b := range books {
		out[i] = clone(b)
	}
	return out
}
