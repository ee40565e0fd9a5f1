package storage

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/veleda/ansuz/internal/apperr"
)

func tempArchive(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fs, err := NewFS(dir, logger)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempArchive(t)
	content := []byte("# Hello\nWorld\n")
	if err := s.Write("note.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("note.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempArchive(t)
	if err := s.Write("a/b/c.md", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("a/b/c.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestDelete(t *testing.T) {
	s := tempArchive(t)
	_ = s.Write("del.md", []byte("bye"))
	if err := s.Delete("del.md"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("del.md"); err == nil {
		t.Error("expected error reading deleted file")
	}
}

func TestMove(t *testing.T) {
	s := tempArchive(t)
	_ = s.Write("old.md", []byte("data"))
	if err := s.Move("old.md", "sub/new.md"); err != nil {
		t.Fatalf("Move: %v", err)
	}
	got, err := s.Read("sub/new.md")
	if err != nil {
		t.Fatalf("Read after move: %v", err)
	}
	if string(got) != "data" {
		t.Errorf("content = %q", got)
	}
	if _, err := s.Read("old.md"); err == nil {
		t.Error("old path should not exist")
	}
}

func TestMoveCollision(t *testing.T) {
	s := tempArchive(t)
	_ = s.Write("a.md", []byte("a"))
	_ = s.Write("b.md", []byte("b"))
	err := s.Move("a.md", "b.md")
	if !errors.Is(err, apperr.ErrNameCollision) {
		t.Fatalf("err = %v, want ErrNameCollision", err)
	}
	// Both files untouched.
	if got, _ := s.Read("a.md"); string(got) != "a" {
		t.Errorf("a.md = %q", got)
	}
	if got, _ := s.Read("b.md"); string(got) != "b" {
		t.Errorf("b.md = %q", got)
	}
}

func TestWalk_MarkdownOnlyAndExclusions(t *testing.T) {
	s := tempArchive(t)
	_ = s.Write("a.md", []byte("a"))
	_ = s.Write("sub/b.markdown", []byte("b"))
	_ = os.WriteFile(filepath.Join(s.Root(), "readme.txt"), []byte("not md"), 0o644)
	_ = os.MkdirAll(filepath.Join(s.Root(), ".git", "objects"), 0o755)
	_ = os.WriteFile(filepath.Join(s.Root(), ".git", "x.md"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(s.Root(), ".hidden.md"), []byte("h"), 0o644)

	entries, err := s.Walk("")
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	var notes, dirs int
	for _, e := range entries {
		if e.IsDir {
			dirs++
			if e.RelPath != "sub" {
				t.Errorf("unexpected dir %q", e.RelPath)
			}
		} else {
			notes++
		}
	}
	if notes != 2 {
		t.Errorf("notes = %d, want 2", notes)
	}
	if dirs != 1 {
		t.Errorf("dirs = %d, want 1", dirs)
	}
}

func TestWalk_SymlinkCycleBounded(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks not reliable on windows")
	}
	s := tempArchive(t)
	_ = s.Write("sub/n.md", []byte("n"))
	// sub/loop → root: revisits an already-walked directory.
	if err := os.Symlink(s.Root(), filepath.Join(s.Root(), "sub", "loop")); err != nil {
		t.Skipf("symlink: %v", err)
	}

	entries, err := s.Walk("")
	if err != nil {
		t.Fatalf("Walk must terminate on symlink cycles: %v", err)
	}
	count := 0
	for _, e := range entries {
		if !e.IsDir && e.RelPath == "sub/n.md" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("sub/n.md walked %d times, want 1", count)
	}
}

func TestSafePath_RejectsTraversal(t *testing.T) {
	s := tempArchive(t)
	if _, err := s.Read("../outside.md"); err == nil {
		t.Error("expected traversal rejection")
	}
	if _, err := s.Read("/etc/passwd"); err == nil {
		t.Error("expected absolute path rejection")
	}
}

func TestStat(t *testing.T) {
	s := tempArchive(t)
	_ = s.Write("x.md", []byte("12345"))
	e, err := s.Stat("x.md")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if e.IsDir || e.Size != 5 {
		t.Errorf("entry = %+v", e)
	}
}
