package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/veleda/ansuz/internal/apperr"
)

// Markdown extensions the walker indexes; everything else is ignored.
var markdownExts = map[string]struct{}{
	".md":       {},
	".markdown": {},
}

// IsMarkdown reports whether name carries a recognised Markdown extension.
func IsMarkdown(name string) bool {
	_, ok := markdownExts[strings.ToLower(filepath.Ext(name))]
	return ok
}

// FS implements Provider backed by the local file system.
type FS struct {
	root   string // absolute path to the archive root
	logger *slog.Logger
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string, logger *slog.Logger) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FS{root: abs, logger: logger}, nil
}

// Root returns the absolute archive root.
func (f *FS) Root() string { return f.root }

// safePath resolves a relative path against the archive root and rejects
// any result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	joined := filepath.Join(f.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	// Ensure the resolved path is still under root.
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path escapes archive root: %s", rel)
	}
	return abs, nil
}

// excluded reports whether a directory entry is outside the tree's scope:
// hidden names (leading dot) and the git metadata directory.
func excluded(name string) bool {
	return strings.HasPrefix(name, ".")
}

// Walk enumerates dir recursively, following symlinks at most once: every
// directory's resolved real path is recorded, and revisiting one stops that
// branch. Per-entry stat errors are logged and the entry skipped, so one
// unreadable file never aborts the whole walk.
func (f *FS) Walk(dir string) ([]WalkEntry, error) {
	base, err := f.safePath(dir)
	if err != nil {
		return nil, err
	}
	visited := make(map[string]struct{})
	var out []WalkEntry
	if err := f.walkDir(base, visited, &out); err != nil {
		return nil, fmt.Errorf("storage: walk: %w", err)
	}
	return out, nil
}

func (f *FS) walkDir(abs string, visited map[string]struct{}, out *[]WalkEntry) error {
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		f.logger.Warn("walk: resolve failed", slog.String("path", abs), slog.String("error", err.Error()))
		return nil
	}
	if _, seen := visited[real]; seen {
		f.logger.Warn("walk: skipping revisited dir", slog.String("path", abs), slog.String("error", apperr.ErrSymlinkCycle.Error()))
		return nil
	}
	visited[real] = struct{}{}

	entries, err := os.ReadDir(abs)
	if err != nil {
		if abs == f.root {
			return err
		}
		f.logger.Warn("walk: read dir failed", slog.String("path", abs), slog.String("error", err.Error()))
		return nil
	}

	for _, e := range entries {
		if excluded(e.Name()) {
			continue
		}
		child := filepath.Join(abs, e.Name())

		info, err := os.Stat(child) // follows symlinks
		if err != nil {
			f.logger.Warn("walk: stat failed", slog.String("path", child), slog.String("error", err.Error()))
			continue
		}

		if info.IsDir() {
			rel, relErr := filepath.Rel(f.root, child)
			if relErr != nil {
				continue
			}
			*out = append(*out, WalkEntry{
				RelPath: rel,
				AbsPath: child,
				IsDir:   true,
				ModTime: info.ModTime(),
			})
			if err := f.walkDir(child, visited, out); err != nil {
				return err
			}
			continue
		}

		if !IsMarkdown(e.Name()) {
			continue
		}
		rel, relErr := filepath.Rel(f.root, child)
		if relErr != nil {
			continue
		}
		*out = append(*out, WalkEntry{
			RelPath: rel,
			AbsPath: child,
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}
	return nil
}

// Stat returns metadata for a single archive path.
func (f *FS) Stat(path string) (WalkEntry, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return WalkEntry{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return WalkEntry{}, fmt.Errorf("storage: stat %s: %w", path, err)
	}
	return WalkEntry{
		RelPath: filepath.Clean(path),
		AbsPath: abs,
		IsDir:   info.IsDir(),
		ModTime: info.ModTime(),
		Size:    info.Size(),
	}, nil
}

// Read returns the raw bytes of an archive file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// Write atomically writes content: tmp file → fsync → rename.
func (f *FS) Write(path string, content []byte) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".ansuz-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Delete removes a file from the archive.
func (f *FS) Delete(path string) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("storage: delete %s: %w", path, err)
	}
	return nil
}

// Move renames a file within the archive. An existing target is a collision,
// never an overwrite.
func (f *FS) Move(oldPath, newPath string) error {
	absOld, err := f.safePath(oldPath)
	if err != nil {
		return err
	}
	absNew, err := f.safePath(newPath)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(absNew); err == nil {
		return fmt.Errorf("storage: move to %s: %w", newPath, apperr.ErrNameCollision)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: move check %s: %w", newPath, err)
	}
	dir := filepath.Dir(absNew)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir for move: %w", err)
	}
	if err := os.Rename(absOld, absNew); err != nil {
		return fmt.Errorf("storage: move: %w", err)
	}
	return nil
}

// MkdirAll creates a directory (and parents) under the archive root.
func (f *FS) MkdirAll(path string) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir %s: %w", path, err)
	}
	return nil
}
