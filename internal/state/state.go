package state

import (
	"fmt"

	"github.com/metcalfc/folio/internal/library"
)

// Backend names.
const (
	JSON = "json"
	Bolt = "bolt"
)

// Backend is a durable library store.
type Backend interface {
	library.Persister
	Path() string
	Close() error
}

// Open opens the named backend at path, or at its default location when
// path is empty.
func Open(backend, path string) (Backend, error) {
	if path == "" {
		path = DefaultPath(backend)
	}
	switch backend {
	case JSON, "":
		s, err := NewJSONStore(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case Bolt:
		s, err := OpenBoltStore(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown library backend %q", backend)
}
