package parser

import (
	"strings"
	"testing"
)

func TestParse_BlockSequenceTags(t *testing.T) {
	input := []byte("---\ntags:\n  - work\n  - urgent\n---\n# Standup\nBody.\n")
	r := Parse(input)
	if len(r.Tags) != 2 || r.Tags[0] != "work" || r.Tags[1] != "urgent" {
		t.Errorf("tags = %v, want [work urgent]", r.Tags)
	}
	if r.Title != "Standup" {
		t.Errorf("title = %q, want %q", r.Title, "Standup")
	}
}

func TestParse_FlowListTags(t *testing.T) {
	input := []byte("---\ntags: [work, \"deep focus\", 'q3']\n---\ntext\n")
	r := Parse(input)
	want := []string{"work", "deep focus", "q3"}
	if len(r.Tags) != len(want) {
		t.Fatalf("tags = %v, want %v", r.Tags, want)
	}
	for i := range want {
		if r.Tags[i] != want[i] {
			t.Errorf("tags[%d] = %q, want %q", i, r.Tags[i], want[i])
		}
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	r := Parse([]byte("# Just a heading\nSome text.\n"))
	if r.Tags != nil {
		t.Errorf("expected no tags, got %v", r.Tags)
	}
	if r.Title != "Just a heading" {
		t.Errorf("title = %q", r.Title)
	}
}

func TestParse_MissingTagsKey(t *testing.T) {
	r := Parse([]byte("---\ntitle: whatever\n---\nbody\n"))
	if r.Tags != nil {
		t.Errorf("expected no tags, got %v", r.Tags)
	}
}

func TestParse_MalformedYAMLDegrades(t *testing.T) {
	r := Parse([]byte("---\n: tags: {{{\n---\nbody\n"))
	if r.Tags != nil {
		t.Errorf("malformed frontmatter must degrade to no tags, got %v", r.Tags)
	}
}

func TestParse_UnterminatedBlock(t *testing.T) {
	r := Parse([]byte("---\ntags:\n  - work\n# not a heading, a yaml comment\n"))
	if r.Tags != nil {
		t.Errorf("unterminated block must yield no tags, got %v", r.Tags)
	}
	if r.Title != "" {
		t.Errorf("unterminated block must yield no title, got %q", r.Title)
	}
}

func TestParse_ScanWindowBound(t *testing.T) {
	// Opening delimiter, then filler far beyond the window, then a closing
	// delimiter the scanner must never reach.
	var b strings.Builder
	b.WriteString("---\n")
	for b.Len() < maxScanWindow*2 {
		b.WriteString("filler: line\n")
	}
	b.WriteString("---\ntags: [late]\n")
	r := Parse([]byte(b.String()))
	if r.Tags != nil {
		t.Errorf("tags beyond the scan window must not be found, got %v", r.Tags)
	}
}

func TestParse_EmptyAndBlankTags(t *testing.T) {
	r := Parse([]byte("---\ntags:\n  - \"  \"\n  - ok\n---\n"))
	if len(r.Tags) != 1 || r.Tags[0] != "ok" {
		t.Errorf("tags = %v, want [ok]", r.Tags)
	}
	if r := Parse(nil); r.Tags != nil || r.Title != "" {
		t.Errorf("empty input must yield empty result, got %+v", r)
	}
}

func TestParse_HeadingAfterFrontmatter(t *testing.T) {
	r := Parse([]byte("---\ntags: [a]\n---\n\nintro paragraph\n\n# Real Title\n"))
	if r.Title != "Real Title" {
		t.Errorf("title = %q, want %q", r.Title, "Real Title")
	}
}
