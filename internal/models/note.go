// Package models defines the domain types for Ansuz.
package models

import "time"

// EntryKind distinguishes folders from notes in mixed listings.
type EntryKind int

const (
	KindFolder EntryKind = iota
	KindNote
)

func (k EntryKind) String() string {
	if k == KindFolder {
		return "folder"
	}
	return "note"
}

// Note represents one Markdown file in the archive. Identity is RelPath;
// a successful in-place rename mutates Path, RelPath, and Title together.
//
// Tags and Body are populated lazily by the index on first access and
// memoized until the next change to the underlying file.
type Note struct {
	Path     string // absolute path on disk
	RelPath  string // path relative to the archive root
	Title    string // rel path sans extension, or first heading when present
	ModTime  time.Time
	Size     int64
	Checksum string // metadata digest, used for refresh change detection

	Tags       []string
	TagsLoaded bool
	Body       string
	BodyLoaded bool
}

// InvalidateCache drops memoized tags and body after the file changed on disk.
func (n *Note) InvalidateCache() {
	n.Tags = nil
	n.TagsLoaded = false
	n.Body = ""
	n.BodyLoaded = false
}

// Folder represents a directory under the archive root. Children are not
// stored on the folder: ordering is computed by the sort engine at query time.
type Folder struct {
	Path    string // absolute path on disk
	RelPath string // path relative to the archive root; "" is the root itself
	Name    string
}

// ChangeKind classifies a filesystem watch notification.
type ChangeKind int

const (
	ChangeCreated ChangeKind = iota
	ChangeModified
	ChangeRemoved
	ChangeRenamedTo
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeCreated:
		return "created"
	case ChangeModified:
		return "modified"
	case ChangeRemoved:
		return "removed"
	case ChangeRenamedTo:
		return "renamed-to"
	default:
		return "unknown"
	}
}

// ChangeEvent is the watcher contract: a kind plus an archive-relative path.
// The core does not depend on any watch library's native event shape.
type ChangeEvent struct {
	Kind ChangeKind
	Path string
}
