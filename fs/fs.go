// Package fs is the filesystem collaborator of the dispatcher.
package fs

import (
	"errors"
	"io/fs"
	"time"
)

var (
	ErrNotExist = fs.ErrNotExist
	ErrExist    = fs.ErrExist
	ErrIsDir    = errors.New("is a directory")
)

// Info describes a filesystem entry.
type Info struct {
	Name    string
	Size    int64
	Dir     bool
	ModTime time.Time
}

// Store is the set of filesystem operations the dispatcher performs. Implementations must
// report absent entries with errors satisfying errors.Is(err, ErrNotExist).
type Store interface {
	// Stat describes the entry at the path.
	Stat(path string) (Info, error)
	// Read returns the whole file content.
	Read(path string) ([]byte, error)
	// Write replaces or creates the file. Created reports whether the file didn't exist before.
	Write(path string, data []byte) (created bool, err error)
	// Create stores a new file and fails with ErrExist if the path is already taken.
	Create(path string, data []byte) error
	// Remove deletes the file or the empty directory.
	Remove(path string) error
	// List returns directory entries, sorted by name, dot-files excluded.
	List(path string) ([]Info, error)
	// ListDir renders the HTML listing of the directory. The urlPath is the request path
	// of the directory, used to build the links.
	ListDir(path, urlPath string) ([]byte, error)
}
