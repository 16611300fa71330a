// Package fsutil abstracts the files the analysis touches: pose tables and
// settings are opened, video folders are globbed and reports are created.
package fsutil

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing/fstest"
)

// FileSystem is the set of operations the pipeline and CLI use.
type FileSystem interface {
	// Open opens the named file for reading.
	Open(name string) (fs.File, error)

	// Create creates or truncates the named file.
	Create(name string) (io.WriteCloser, error)

	// Stat describes the named file or directory.
	Stat(name string) (fs.FileInfo, error)

	// MkdirAll creates a directory and any missing parents.
	MkdirAll(path string, perm os.FileMode) error

	// Glob returns the sorted names matching pattern.
	Glob(pattern string) ([]string, error)
}

// OSFileSystem is the host filesystem.
type OSFileSystem struct{}

func (OSFileSystem) Open(name string) (fs.File, error) { return os.Open(name) }

func (OSFileSystem) Create(name string) (io.WriteCloser, error) { return os.Create(name) }

func (OSFileSystem) Stat(name string) (fs.FileInfo, error) { return os.Stat(name) }

func (OSFileSystem) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }

func (OSFileSystem) Glob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// MemoryFileSystem keeps files in an fstest.MapFS. A leading slash is
// ignored, so "/data/a.csv" and "data/a.csv" name the same file; Glob
// keeps the slash when the pattern had one.
type MemoryFileSystem struct {
	mu    sync.RWMutex
	files fstest.MapFS
}

// NewMemoryFileSystem returns an empty in-memory filesystem.
func NewMemoryFileSystem() *MemoryFileSystem {
	return &MemoryFileSystem{files: fstest.MapFS{}}
}

// key converts an OS-style name to an io/fs path.
func key(name string) string {
	k := strings.TrimPrefix(filepath.ToSlash(filepath.Clean(name)), "/")
	if k == "" {
		return "."
	}
	return k
}

func (m *MemoryFileSystem) Open(name string) (fs.File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.files.Open(key(name))
}

// Create returns a writer whose contents replace the file on Close.
func (m *MemoryFileSystem) Create(name string) (io.WriteCloser, error) {
	return &memWriter{fs: m, key: key(name)}, nil
}

func (m *MemoryFileSystem) Stat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fs.Stat(m.files, key(name))
}

func (m *MemoryFileSystem) MkdirAll(path string, perm os.FileMode) error {
	k := key(path)
	if k == "." {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[k]; !ok {
		m.files[k] = &fstest.MapFile{Mode: fs.ModeDir | perm}
	}
	return nil
}

func (m *MemoryFileSystem) Glob(pattern string) ([]string, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	matches, err := fs.Glob(m.files, key(pattern))
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(pattern, "/") {
		for i := range matches {
			matches[i] = "/" + matches[i]
		}
	}
	sort.Strings(matches)
	return matches, nil
}

// WriteFile stores a copy of data as name. Tests use it to seed fixtures.
func (m *MemoryFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[key(name)] = &fstest.MapFile{Data: bytes.Clone(data), Mode: perm}
	return nil
}

// ReadFile returns a copy of the named file's contents.
func (m *MemoryFileSystem) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fs.ReadFile(m.files, key(name))
}

type memWriter struct {
	fs  *MemoryFileSystem
	key string
	buf bytes.Buffer
}

func (w *memWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *memWriter) Close() error {
	w.fs.mu.Lock()
	defer w.fs.mu.Unlock()
	w.fs.files[w.key] = &fstest.MapFile{Data: w.buf.Bytes(), Mode: 0o644}
	return nil
}
