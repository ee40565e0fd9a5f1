package search

import (
	"testing"
	"time"

	"github.com/veleda/ansuz/internal/models"
)

// fakeSource serves tags and bodies from maps keyed by rel path.
type fakeSource struct {
	tags   map[string][]string
	bodies map[string]string
}

func (f *fakeSource) Tags(n *models.Note) []string { return f.tags[n.RelPath] }

func (f *fakeSource) Body(n *models.Note) (string, error) { return f.bodies[n.RelPath], nil }

func note(rel, title string, mod time.Time, size int64) *models.Note {
	return &models.Note{RelPath: rel, Title: title, ModTime: mod, Size: size}
}

func titles(notes []*models.Note) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.Title
	}
	return out
}

func TestFuzzyScore_Subsequence(t *testing.T) {
	if _, ok := fuzzyScore("Meeting Notes", "mtg"); !ok {
		t.Error("mtg should match Meeting Notes")
	}
	if _, ok := fuzzyScore("Budget Report", "mtg"); ok {
		t.Error("mtg should not match Budget Report")
	}
	if _, ok := fuzzyScore("short", "shortest"); ok {
		t.Error("query longer than any subsequence must not match")
	}
}

func TestFuzzyScore_Bonuses(t *testing.T) {
	contiguous, _ := fuzzyScore("meeting", "mee")
	scattered, _ := fuzzyScore("marble tree", "mee")
	if contiguous <= scattered {
		t.Errorf("contiguous run %d should outscore scattered %d", contiguous, scattered)
	}
	boundary, _ := fuzzyScore("daily notes", "n")
	interior, _ := fuzzyScore("morning", "n")
	if boundary <= interior {
		t.Errorf("word-boundary hit %d should outscore interior hit %d", boundary, interior)
	}
}

func TestQuery_TitleRankingAndExclusion(t *testing.T) {
	now := time.Now()
	notes := []*models.Note{
		note("a.md", "Meeting Notes", now, 1),
		note("b.md", "Budget Report", now, 1),
		note("c.md", "mtg", now, 1),
	}
	e := NewEngine(&fakeSource{})
	got := e.Query(notes, ModeTitle, "mtg")
	if len(got) != 2 {
		t.Fatalf("matches = %v, want 2", titles(got))
	}
	// Exact contiguous short title ranks first.
	if got[0].Title != "mtg" {
		t.Errorf("first = %q, want mtg", got[0].Title)
	}
	for _, n := range got {
		if n.Title == "Budget Report" {
			t.Error("non-subsequence note must be excluded entirely")
		}
	}
}

func TestQuery_EmptyReturnsAllNaturalOrder(t *testing.T) {
	now := time.Now()
	notes := []*models.Note{
		note("z.md", "z", now, 1),
		note("a.md", "a", now, 1),
	}
	e := NewEngine(&fakeSource{})
	for _, mode := range []Mode{ModeTitle, ModeContent, ModeTag} {
		got := e.Query(notes, mode, "")
		if len(got) != 2 || got[0].RelPath != "z.md" || got[1].RelPath != "a.md" {
			t.Errorf("mode %v: empty query changed set or order: %v", mode, titles(got))
		}
	}
}

func TestQuery_ContentRankByPositionThenModTime(t *testing.T) {
	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := old.Add(time.Hour)
	notes := []*models.Note{
		note("late.md", "late", newer, 1),
		note("early.md", "early", old, 1),
		note("tie-old.md", "tie old", old, 1),
		note("tie-new.md", "tie new", newer, 1),
		note("none.md", "none", newer, 1),
	}
	src := &fakeSource{bodies: map[string]string{
		"late.md":    "xxxxx needle",
		"early.md":   "needle first",
		"tie-old.md": "ab needle",
		"tie-new.md": "cd needle",
		"none.md":    "nothing here",
	}}
	got := NewEngine(src).Query(notes, ModeContent, "NEEDLE")
	want := []string{"early", "tie new", "tie old", "late"}
	if len(got) != len(want) {
		t.Fatalf("matches = %v, want %v", titles(got), want)
	}
	for i, w := range want {
		if got[i].Title != w {
			t.Errorf("rank %d = %q, want %q (all: %v)", i, got[i].Title, w, titles(got))
		}
	}
}

func TestQuery_TagPartialAndExactRanking(t *testing.T) {
	now := time.Now()
	notes := []*models.Note{
		note("a.md", "a", now, 1),
		note("b.md", "b", now, 1),
		note("c.md", "c", now, 1),
	}
	src := &fakeSource{tags: map[string][]string{
		"a.md": {"work", "urgent"},
		"b.md": {"homework"},
		"c.md": {"play"},
	}}
	got := NewEngine(src).Query(notes, ModeTag, "work")
	if len(got) != 2 {
		t.Fatalf("matches = %v, want 2", titles(got))
	}
	if got[0].RelPath != "a.md" {
		t.Errorf("exact tag must outrank partial, got %v", titles(got))
	}
}

func TestQuery_ModeIsolation(t *testing.T) {
	// Tag search for "wor" must match a [work, urgent] note and must not
	// surface a note that merely contains "wor" in title or body.
	now := time.Now()
	tagged := note("tagged.md", "plain", now, 1)
	wordy := note("wordy.md", "world affairs", now, 1)
	src := &fakeSource{
		tags:   map[string][]string{"tagged.md": {"work", "urgent"}},
		bodies: map[string]string{"wordy.md": "sword words"},
	}
	got := NewEngine(src).Query([]*models.Note{tagged, wordy}, ModeTag, "wor")
	if len(got) != 1 || got[0].RelPath != "tagged.md" {
		t.Errorf("tag mode matches = %v, want only tagged.md", titles(got))
	}
}

func TestSortNotes_Date(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	notes := []*models.Note{
		note("b.md", "b", t0, 1),
		note("a.md", "a", t0.Add(time.Hour), 1),
		note("c.md", "c", t0, 1),
	}
	SortNotes(notes, SortDate)
	if notes[0].RelPath != "a.md" {
		t.Errorf("newest first, got %v", titles(notes))
	}
	// Equal timestamps resolve by path.
	if notes[1].RelPath != "b.md" || notes[2].RelPath != "c.md" {
		t.Errorf("tie-break by path, got %v", titles(notes))
	}
}

func TestSortNotes_NameCaseInsensitive(t *testing.T) {
	now := time.Now()
	notes := []*models.Note{
		note("1.md", "banana", now, 1),
		note("2.md", "Apple", now, 1),
		note("3.md", "cherry", now, 1),
	}
	SortNotes(notes, SortName)
	want := []string{"Apple", "banana", "cherry"}
	for i, w := range want {
		if notes[i].Title != w {
			t.Errorf("pos %d = %q, want %q", i, notes[i].Title, w)
		}
	}
}

func TestSortNotes_SizeNonIncreasing(t *testing.T) {
	now := time.Now()
	notes := []*models.Note{
		note("m.md", "m", now, 10),
		note("a.md", "a", now, 30),
		note("z.md", "z", now, 10),
		note("k.md", "k", now, 20),
	}
	SortNotes(notes, SortSize)
	for i := 1; i < len(notes); i++ {
		if notes[i].Size > notes[i-1].Size {
			t.Fatalf("size order not non-increasing at %d: %v", i, titles(notes))
		}
		if notes[i].Size == notes[i-1].Size && notes[i].RelPath < notes[i-1].RelPath {
			t.Fatalf("size ties must resolve by path ascending at %d", i)
		}
	}
}

func TestSortFolders(t *testing.T) {
	folders := []*models.Folder{
		{RelPath: "b", Name: "Beta"},
		{RelPath: "a", Name: "alpha"},
	}
	SortFolders(folders)
	if folders[0].Name != "alpha" {
		t.Errorf("folders = %v", folders)
	}
}
