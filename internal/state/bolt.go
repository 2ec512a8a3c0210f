package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/metcalfc/folio/internal/library"
)

var booksBucket = []byte("books")

// BoltStore keeps the library in a bbolt database, one JSON encoded book per
// key. Keys are the zero-padded position of the book so a cursor walks the
// library in order.
type BoltStore struct {
	path string
	db   *bolt.DB
	mu   sync.RWMutex
}

// OpenBoltStore opens or creates the database at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for BoltDB: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open BoltDB: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(booksBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &BoltStore{path: path, db: db}, nil
}

func (s *BoltStore) Path() string { return s.path }

func bookKey(i int) []byte {
	return []byte(fmt.Sprintf("%08d", i))
}

func (s *BoltStore) Load() ([]library.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var books []library.Book
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(booksBucket).ForEach(func(k, v []byte) error {
			var b library.Book
			if err := json.Unmarshal(v, &b); err != nil {
				return fmt.Errorf("failed to decode book %s: %w", k, err)
			}
			books = append(books, b)
			return nil
		})
	})
	return books, err
}

// Save replaces the bucket contents with books in a single transaction.
func (s *BoltStore) Save(books []library.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(booksBucket); err != nil {
			return err
		}
		bucket, err := tx.CreateBucket(booksBucket)
		if err != nil {
			return err
		}
		for i, b := range books {
			data, err := json.Marshal(b)
			if err != nil {
				return err
			}
			if err := bucket.Put(bookKey(i), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the BoltDB database
func (s *BoltStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
