// Package index owns the in-memory model of the note archive: a path-keyed
// arena of folders and notes mirroring the filesystem, plus the navigation
// cursor and the active search and sort modes.
//
// Concurrency model: the index has a single logical owner at a time. Every
// public operation takes the one mutex, so user-driven calls and
// watcher-driven refreshes are processed turn by turn, never interleaved.
package index

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/veleda/ansuz/internal/apperr"
	"github.com/veleda/ansuz/internal/checksum"
	"github.com/veleda/ansuz/internal/models"
	"github.com/veleda/ansuz/internal/parser"
	"github.com/veleda/ansuz/internal/search"
	"github.com/veleda/ansuz/internal/storage"
)

// Entry is one row of a renderer-facing listing.
type Entry struct {
	Kind    models.EntryKind
	Title   string
	RelPath string
	ModTime time.Time
	Size    int64
	Tags    []string
}

// View is the pull-based snapshot the renderer draws from. The core never
// pushes rendering instructions.
type View struct {
	FolderPath string
	Entries    []Entry
	SearchMode search.Mode
	Query      string
	SortKey    search.SortKey
	SyncStatus string
}

// Index is the root aggregate over the archive tree.
type Index struct {
	mu     sync.Mutex
	store  storage.Provider
	logger *slog.Logger
	eng    *search.Engine

	notes    map[string]*models.Note
	folders  map[string]*models.Folder
	children map[string]map[string]struct{} // folder rel → child rel set; "" is root

	cursor     string
	searchMode search.Mode
	query      string
	sortKey    search.SortKey
	syncStatus string
}

// New builds an index over the archive behind store. The tree mirrors the
// filesystem immediately after construction.
func New(store storage.Provider, logger *slog.Logger, sortKey search.SortKey) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ix := &Index{
		store:    store,
		logger:   logger,
		notes:    make(map[string]*models.Note),
		folders:  make(map[string]*models.Folder),
		children: map[string]map[string]struct{}{"": {}},
		sortKey:  sortKey,
	}
	ix.eng = search.NewEngine(&lazySource{ix: ix})
	if err := ix.Refresh(""); err != nil {
		return nil, fmt.Errorf("index: initial build: %w", err)
	}
	return ix, nil
}

// lazySource adapts the index to search.Source. Its methods run inside an
// index turn (the caller already holds the mutex), so they must not lock.
type lazySource struct {
	ix *Index
}

func (s *lazySource) Tags(n *models.Note) []string {
	s.ix.ensureParsed(n)
	return n.Tags
}

func (s *lazySource) Body(n *models.Note) (string, error) {
	return s.ix.ensureBody(n)
}

// ensureParsed loads frontmatter tags (and a heading-derived title, when the
// file has one) on first access and memoizes until the next file change.
// A read failure degrades to an empty tag set.
func (ix *Index) ensureParsed(n *models.Note) {
	if n.TagsLoaded {
		return
	}
	n.TagsLoaded = true
	data, err := ix.store.Read(n.RelPath)
	if err != nil {
		ix.logger.Warn("index: tag load failed", slog.String("path", n.RelPath), slog.String("error", err.Error()))
		return
	}
	res := parser.Parse(data)
	n.Tags = res.Tags
	if res.Title != "" {
		n.Title = res.Title
	}
}

func (ix *Index) ensureBody(n *models.Note) (string, error) {
	if n.BodyLoaded {
		return n.Body, nil
	}
	data, err := ix.store.Read(n.RelPath)
	if err != nil {
		return "", err
	}
	n.Body = string(data)
	n.BodyLoaded = true
	return n.Body, nil
}

// defaultTitle is the display title before any heading override: the
// relative path without its extension.
func defaultTitle(rel string) string {
	return strings.TrimSuffix(rel, filepath.Ext(rel))
}

// parentOf returns the folder containing rel; "" is the root.
func parentOf(rel string) string {
	d := filepath.Dir(rel)
	if d == "." || d == "/" {
		return ""
	}
	return d
}

// --- arena maintenance (callers hold ix.mu) ---

func (ix *Index) link(rel string) {
	parent := parentOf(rel)
	ix.ensureFolderChain(parent)
	ix.children[parent][rel] = struct{}{}
}

func (ix *Index) unlink(rel string) {
	if set, ok := ix.children[parentOf(rel)]; ok {
		delete(set, rel)
	}
}

// ensureFolderChain materialises rel and all its ancestors as folders.
func (ix *Index) ensureFolderChain(rel string) {
	if rel == "" {
		return
	}
	if _, ok := ix.folders[rel]; ok {
		return
	}
	ix.folders[rel] = &models.Folder{
		Path:    filepath.Join(ix.store.Root(), rel),
		RelPath: rel,
		Name:    filepath.Base(rel),
	}
	if _, ok := ix.children[rel]; !ok {
		ix.children[rel] = make(map[string]struct{})
	}
	ix.link(rel)
}

func (ix *Index) upsertNote(we storage.WalkEntry) {
	cs := checksum.Meta(we.RelPath, we.ModTime, we.Size)
	if n, ok := ix.notes[we.RelPath]; ok {
		if n.Checksum == cs {
			return
		}
		n.ModTime = we.ModTime
		n.Size = we.Size
		n.Checksum = cs
		n.Title = defaultTitle(we.RelPath)
		n.InvalidateCache()
		return
	}
	n := &models.Note{
		Path:     we.AbsPath,
		RelPath:  we.RelPath,
		Title:    defaultTitle(we.RelPath),
		ModTime:  we.ModTime,
		Size:     we.Size,
		Checksum: cs,
	}
	ix.notes[we.RelPath] = n
	ix.link(we.RelPath)
}

func (ix *Index) removeNote(rel string) {
	if _, ok := ix.notes[rel]; !ok {
		return
	}
	delete(ix.notes, rel)
	ix.unlink(rel)
}

// removeSubtree removes a folder and everything beneath it.
func (ix *Index) removeSubtree(rel string) {
	set := ix.children[rel]
	for child := range set {
		if _, ok := ix.folders[child]; ok {
			ix.removeSubtree(child)
		} else {
			ix.removeNote(child)
		}
	}
	delete(ix.children, rel)
	delete(ix.folders, rel)
	ix.unlink(rel)
	if strings.HasPrefix(ix.cursor+"/", rel+"/") {
		ix.cursor = parentOf(rel)
	}
}

// Refresh re-walks dir ("" for the whole archive) and reconciles the arena
// against the filesystem: additions inserted, changed notes updated with
// caches invalidated, stale entries removed. Refreshing with no actual
// filesystem change is a no-op, which makes the operation idempotent.
func (ix *Index) Refresh(dir string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.refreshLocked(dir)
}

func (ix *Index) refreshLocked(dir string) error {
	dir = filepath.Clean(dir)
	if dir == "." {
		dir = ""
	}

	entries, err := ix.store.Walk(dir)
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(entries))
	for _, we := range entries {
		seen[we.RelPath] = struct{}{}
		if we.IsDir {
			ix.ensureFolderChain(we.RelPath)
		} else {
			ix.upsertNote(we)
		}
	}

	// Drop entries under dir that the walk no longer reports.
	underDir := func(rel string) bool {
		return dir == "" || rel == dir || strings.HasPrefix(rel, dir+"/")
	}
	for rel := range ix.notes {
		if underDir(rel) && rel != dir {
			if _, ok := seen[rel]; !ok {
				ix.removeNote(rel)
			}
		}
	}
	for rel := range ix.folders {
		if underDir(rel) && rel != dir {
			if _, ok := seen[rel]; !ok {
				ix.removeSubtree(rel)
			}
		}
	}

	// The walk emits only children, so the subtree root itself needs its
	// own stat: gone means drop the subtree, present means the folder must
	// exist in the arena even when it has no children yet.
	if dir != "" {
		we, err := ix.store.Stat(dir)
		switch {
		case err != nil:
			if _, ok := ix.folders[dir]; ok {
				ix.removeSubtree(dir)
			}
		case we.IsDir:
			ix.ensureFolderChain(dir)
		}
	}

	if _, ok := ix.folders[ix.cursor]; !ok && ix.cursor != "" {
		ix.cursor = ""
	}
	return nil
}

// --- navigation ---

// Enter moves the cursor into a child folder.
func (ix *Index) Enter(rel string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, ok := ix.folders[rel]; !ok {
		if _, isNote := ix.notes[rel]; isNote {
			return apperr.ErrNotAFolder
		}
		return apperr.ErrNotFound
	}
	ix.cursor = rel
	return nil
}

// Up moves the cursor to the parent folder; at the root it stays put.
func (ix *Index) Up() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.cursor != "" {
		ix.cursor = parentOf(ix.cursor)
	}
}

// CurrentFolder returns the cursor's archive-relative path ("" at the root).
func (ix *Index) CurrentFolder() string {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.cursor
}

// CurrentChildren returns the sort-engine-ordered children of the cursor
// folder: folders first by name, then notes by the active sort key.
func (ix *Index) CurrentChildren() []Entry {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.childrenLocked(ix.cursor)
}

func (ix *Index) childrenLocked(folder string) []Entry {
	var fs []*models.Folder
	var ns []*models.Note
	for rel := range ix.children[folder] {
		if f, ok := ix.folders[rel]; ok {
			fs = append(fs, f)
		} else if n, ok := ix.notes[rel]; ok {
			ns = append(ns, n)
		}
	}
	search.SortFolders(fs)
	search.SortNotes(ns, ix.sortKey)

	out := make([]Entry, 0, len(fs)+len(ns))
	for _, f := range fs {
		out = append(out, Entry{Kind: models.KindFolder, Title: f.Name, RelPath: f.RelPath})
	}
	for _, n := range ns {
		out = append(out, ix.noteEntry(n))
	}
	return out
}

func (ix *Index) noteEntry(n *models.Note) Entry {
	ix.ensureParsed(n)
	return Entry{
		Kind:    models.KindNote,
		Title:   n.Title,
		RelPath: n.RelPath,
		ModTime: n.ModTime,
		Size:    n.Size,
		Tags:    n.Tags,
	}
}

// --- search ---

// Search evaluates query over the full flattened note set, global across
// folders. While a query is active its ranking is authoritative; the sort
// engine orders only the empty-query set.
func (ix *Index) Search(mode search.Mode, query string) []Entry {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.searchMode = mode
	ix.query = query

	flat := ix.flatNotesLocked()
	if query == "" {
		search.SortNotes(flat, ix.sortKey)
	} else {
		flat = ix.eng.Query(flat, mode, query)
	}

	out := make([]Entry, len(flat))
	for i, n := range flat {
		out[i] = ix.noteEntry(n)
	}
	return out
}

// ClearSearch drops the active query, returning the index to browse mode.
func (ix *Index) ClearSearch() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.query = ""
}

// flatNotesLocked returns all notes in natural order (path ascending), and
// guarantees titles are settled before title-mode matching sees them.
func (ix *Index) flatNotesLocked() []*models.Note {
	out := make([]*models.Note, 0, len(ix.notes))
	for _, n := range ix.notes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RelPath < out[j].RelPath })
	for _, n := range out {
		ix.ensureParsed(n)
	}
	return out
}

// --- renderer contract ---

// SetSortKey switches the active sort mode.
func (ix *Index) SetSortKey(k search.SortKey) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.sortKey = k
}

// SetSyncStatus records the last sync outcome for the snapshot.
func (ix *Index) SetSyncStatus(status string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.syncStatus = status
}

// Snapshot returns everything the renderer needs for one frame: search
// results when a query is active, the cursor folder's children otherwise.
func (ix *Index) Snapshot() View {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	v := View{
		FolderPath: ix.cursor,
		SearchMode: ix.searchMode,
		Query:      ix.query,
		SortKey:    ix.sortKey,
		SyncStatus: ix.syncStatus,
	}
	if ix.query != "" {
		flat := ix.eng.Query(ix.flatNotesLocked(), ix.searchMode, ix.query)
		v.Entries = make([]Entry, len(flat))
		for i, n := range flat {
			v.Entries[i] = ix.noteEntry(n)
		}
		return v
	}
	v.Entries = ix.childrenLocked(ix.cursor)
	return v
}

// NoteBody returns a note's body text (for preview or clipboard copy).
func (ix *Index) NoteBody(rel string) (string, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	n, ok := ix.notes[rel]
	if !ok {
		return "", apperr.ErrNotFound
	}
	return ix.ensureBody(n)
}

// NotePath returns a note's absolute path (for clipboard copy or editing).
func (ix *Index) NotePath(rel string) (string, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	n, ok := ix.notes[rel]
	if !ok {
		return "", apperr.ErrNotFound
	}
	return n.Path, nil
}

// Len returns the number of indexed notes.
func (ix *Index) Len() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.notes)
}

// Paths returns every indexed note path, sorted. Primarily a test and
// diagnostics aid.
func (ix *Index) Paths() []string {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	out := make([]string, 0, len(ix.notes))
	for rel := range ix.notes {
		out = append(out, rel)
	}
	sort.Strings(out)
	return out
}
