package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/veleda/ansuz/internal/events"
	"github.com/veleda/ansuz/internal/models"
	"github.com/veleda/ansuz/internal/storage"
)

// Watch starts an fsnotify watcher on the archive root and feeds change
// notifications into the index until ctx is cancelled. It publishes a bus
// event after each successful mutation (if bus is non-nil).
//
// New directories created at runtime are added to the watch list. Rename
// events fire on the old path only, so a debounced reconciliation pass
// re-walks the archive shortly afterwards to pick up the new path.
func Watch(ctx context.Context, ix *Index, root string, logger *slog.Logger, bus *events.Bus) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	// reconcileTimer debounces the post-rename reconciliation pass.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	publish := func(kind events.Kind, rel string) {
		if bus != nil {
			bus.PublishNoteEvent(kind, rel)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			before := ix.Len()
			if err := ix.Refresh(""); err != nil {
				logger.Warn("watcher: reconcile failed", slog.String("error", err.Error()))
			} else if bus != nil && ix.Len() != before {
				bus.Publish(events.Event{Kind: events.ArchiveChanged})
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name
			rel, relErr := filepath.Rel(root, absPath)
			if relErr != nil || hasHiddenSegment(rel) {
				continue
			}

			// New directories: start watching and index their contents.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					ix.Apply(models.ChangeEvent{Kind: models.ChangeCreated, Path: rel})
					if bus != nil {
						bus.Publish(events.Event{Kind: events.ArchiveChanged, Path: rel})
					}
					continue
				}
			}

			// Only Markdown files from here on.
			if !storage.IsMarkdown(absPath) {
				continue
			}

			switch {
			case ev.Op&fsnotify.Create != 0:
				ix.Apply(models.ChangeEvent{Kind: models.ChangeCreated, Path: rel})
				logger.Debug("watcher: created", slog.String("path", rel))
				publish(events.NoteCreated, rel)

			case ev.Op&fsnotify.Write != 0:
				ix.Apply(models.ChangeEvent{Kind: models.ChangeModified, Path: rel})
				logger.Debug("watcher: updated", slog.String("path", rel))
				publish(events.NoteUpdated, rel)

			case ev.Op&fsnotify.Remove != 0:
				ix.Apply(models.ChangeEvent{Kind: models.ChangeRemoved, Path: rel})
				logger.Debug("watcher: removed", slog.String("path", rel))
				publish(events.NoteDeleted, rel)

			case ev.Op&fsnotify.Rename != 0:
				// Rename fires on the OLD path; the new path arrives as a
				// separate Create (when it stays inside a watched dir).
				// Drop the old entry now and reconcile for stragglers.
				ix.Apply(models.ChangeEvent{Kind: models.ChangeRemoved, Path: rel})
				logger.Debug("watcher: rename old removed", slog.String("path", rel))
				publish(events.NoteDeleted, rel)
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// hasHiddenSegment reports whether any path segment is hidden; events under
// .git or other dot-directories are never indexed.
func hasHiddenSegment(rel string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(seg, ".") && seg != "." && seg != ".." {
			return true
		}
	}
	return false
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the
// watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
