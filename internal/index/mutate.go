package index

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/veleda/ansuz/internal/apperr"
	"github.com/veleda/ansuz/internal/models"
	"github.com/veleda/ansuz/internal/storage"
)

// Mutations apply the filesystem change first and touch the arena only on
// confirmed success, so a failed operation never leaves the tree partially
// mutated.

// sanitizeNoteName turns user input into a filename: trimmed, spaces
// replaced with underscores, Markdown extension ensured. Path separators are
// kept so "work/plan" creates the note inside a subfolder.
func sanitizeNoteName(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	if name == "" {
		return name
	}
	if !storage.IsMarkdown(name) {
		name += ".md"
	}
	return name
}

// CreateNote creates an empty note under folder and indexes it. Intermediate
// directories named in name are created as needed.
func (ix *Index) CreateNote(folder, name string) (string, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	fname := sanitizeNoteName(name)
	if fname == "" {
		return "", fmt.Errorf("index: empty note name")
	}
	rel := filepath.Clean(filepath.Join(folder, fname))

	if _, exists := ix.notes[rel]; exists {
		return "", fmt.Errorf("index: create %s: %w", rel, apperr.ErrNameCollision)
	}
	if _, err := ix.store.Stat(rel); err == nil {
		return "", fmt.Errorf("index: create %s: %w", rel, apperr.ErrNameCollision)
	}

	if err := ix.store.Write(rel, nil); err != nil {
		return "", err
	}
	we, err := ix.store.Stat(rel)
	if err != nil {
		return "", err
	}
	ix.upsertNote(we)
	return rel, nil
}

// CreateFolder creates a directory under parent and indexes it.
func (ix *Index) CreateFolder(parent, name string) (string, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("index: empty folder name")
	}
	rel := filepath.Clean(filepath.Join(parent, name))

	if _, exists := ix.folders[rel]; exists {
		return "", fmt.Errorf("index: create folder %s: %w", rel, apperr.ErrNameCollision)
	}
	if _, err := ix.store.Stat(rel); err == nil {
		return "", fmt.Errorf("index: create folder %s: %w", rel, apperr.ErrNameCollision)
	}

	if err := ix.store.MkdirAll(rel); err != nil {
		return "", err
	}
	ix.ensureFolderChain(rel)
	return rel, nil
}

// Rename moves a note to newName, resolved against the note's folder, so
// "sub/plan" moves it into a subfolder and "../plan" moves it up. The note
// keeps its identity: path and title are mutated in place. An existing
// target fails with apperr.ErrNameCollision and leaves filesystem and tree
// unchanged.
func (ix *Index) Rename(rel, newName string) (string, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	n, ok := ix.notes[rel]
	if !ok {
		if _, isFolder := ix.folders[rel]; isFolder {
			return "", apperr.ErrNotANote
		}
		return "", apperr.ErrNotFound
	}

	fname := sanitizeNoteName(newName)
	if fname == "" {
		return "", fmt.Errorf("index: empty target name")
	}
	newRel := filepath.Clean(filepath.Join(parentOf(rel), fname))
	if newRel == rel {
		return rel, nil
	}

	if err := ix.store.Move(rel, newRel); err != nil {
		return "", err
	}

	delete(ix.notes, rel)
	ix.unlink(rel)
	n.RelPath = newRel
	n.Path = filepath.Join(ix.store.Root(), newRel)
	n.Title = defaultTitle(newRel)
	n.Checksum = ""
	n.InvalidateCache()
	ix.notes[newRel] = n
	ix.link(newRel)
	// Refresh stat metadata; a rename may update the directory entry.
	if we, err := ix.store.Stat(newRel); err == nil {
		ix.upsertNote(we)
	}
	return newRel, nil
}

// Delete removes a note from disk and from the tree.
func (ix *Index) Delete(rel string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, ok := ix.notes[rel]; !ok {
		if _, isFolder := ix.folders[rel]; isFolder {
			return apperr.ErrNotANote
		}
		return apperr.ErrNotFound
	}
	if err := ix.store.Delete(rel); err != nil {
		return err
	}
	ix.removeNote(rel)
	return nil
}

// Apply absorbs one filesystem-watch notification, keeping the tree
// consistent with disk. Unknown or irrelevant paths are ignored.
func (ix *Index) Apply(ev models.ChangeEvent) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	rel := filepath.Clean(ev.Path)
	switch ev.Kind {
	case models.ChangeRemoved:
		if _, ok := ix.folders[rel]; ok {
			ix.removeSubtree(rel)
			return
		}
		ix.removeNote(rel)

	case models.ChangeCreated, models.ChangeModified, models.ChangeRenamedTo:
		we, err := ix.store.Stat(rel)
		if err != nil {
			// Gone again already; treat as removal.
			if _, ok := ix.folders[rel]; ok {
				ix.removeSubtree(rel)
			} else {
				ix.removeNote(rel)
			}
			return
		}
		if we.IsDir {
			if err := ix.refreshLocked(rel); err != nil {
				ix.logger.Warn("index: subtree refresh failed",
					slog.String("path", rel), slog.String("error", err.Error()))
			}
			return
		}
		if storage.IsMarkdown(rel) {
			ix.upsertNote(we)
		}
	}
}
