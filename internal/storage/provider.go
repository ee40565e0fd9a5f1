// Package storage defines the archive file-system abstraction.
package storage

import "time"

// WalkEntry is one record produced by walking the archive: either a
// directory or a Markdown file, with the stat metadata the index needs.
type WalkEntry struct {
	RelPath string // relative to the archive root
	AbsPath string
	IsDir   bool
	ModTime time.Time
	Size    int64
}

// Provider is the interface for archive file operations. All paths are
// relative to the archive root.
type Provider interface {
	// Walk enumerates dir recursively and returns folders and Markdown
	// files. Hidden entries and version-control metadata are excluded;
	// per-entry IO errors skip the entry rather than failing the walk.
	Walk(dir string) ([]WalkEntry, error)
	// Stat returns metadata for a single path.
	Stat(path string) (WalkEntry, error)
	// Read returns the raw bytes of an archive file.
	Read(path string) ([]byte, error)
	// Write atomically writes content, creating parent directories.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath; it fails with apperr.ErrNameCollision
	// if newPath already exists.
	Move(oldPath, newPath string) error
	// MkdirAll creates a directory (and parents) under the root.
	MkdirAll(path string) error
	// Root returns the absolute archive root.
	Root() string
}
