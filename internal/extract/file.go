package extract

import (
	"fmt"
	"os"
	"path/filepath"
)

// File is the input of an extraction: a named blob with an optional declared
// MIME type.
type File interface {
	Name() string
	Type() string
	Size() int64
	Bytes() ([]byte, error)
	Text() (string, error)
}

// DiskFile is a File backed by a path on disk. Contents are read on demand.
type DiskFile struct {
	path     string
	mimeType string
	size     int64
}

// OpenFile stats path and returns a File reading from it. mimeType may be
// empty when the caller does not know it.
func OpenFile(path, mimeType string) (*DiskFile, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &DiskFile{path: path, mimeType: mimeType, size: fi.Size()}, nil
}

func (f *DiskFile) Name() string { return filepath.Base(f.path) }
func (f *DiskFile) Type() string { return f.mimeType }
func (f *DiskFile) Size() int64  { return f.size }
func (f *DiskFile) Path() string { return f.path }

func (f *DiskFile) Bytes() ([]byte, error) {
	return os.ReadFile(f.path)
}

func (f *DiskFile) Text() (string, error) {
	data, err := f.Bytes()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// MemFile is a File held in memory.
type MemFile struct {
	name     string
	mimeType string
	data     []byte
}

// NewMemFile wraps data as a File.
func NewMemFile(name, mimeType string, data []byte) *MemFile {
	return &MemFile{name: name, mimeType: mimeType, data: data}
}

func (f *MemFile) Name() string           { return f.name }
func (f *MemFile) Type() string           { return f.mimeType }
func (f *MemFile) Size() int64            { return int64(len(f.data)) }
func (f *MemFile) Bytes() ([]byte, error) { return f.data, nil }
func (f *MemFile) Text() (string, error)  { return string(f.data), nil }
