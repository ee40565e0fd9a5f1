// Package search implements the three retrieval modes over the flattened
// note set, plus the sort engine for browse listings.
//
// Every query is a pure function of (note set, query): no incremental state
// is kept between keystrokes.
package search

import (
	"sort"
	"strings"
	"unicode"

	"github.com/veleda/ansuz/internal/models"
)

// Mode selects how a query is matched.
type Mode int

const (
	// ModeTitle matches the query as a fuzzy subsequence of the title.
	ModeTitle Mode = iota
	// ModeContent matches the query as a case-insensitive substring of the body.
	ModeContent
	// ModeTag matches the query against the tag set, partial tags included.
	ModeTag
)

func (m Mode) String() string {
	switch m {
	case ModeTitle:
		return "title"
	case ModeContent:
		return "content"
	case ModeTag:
		return "tag"
	default:
		return "unknown"
	}
}

// Source provides lazy access to note tags and bodies. The index implements
// it with memoized loads, so tag and content search only pay for file reads
// the first time a note is inspected.
type Source interface {
	Tags(n *models.Note) []string
	Body(n *models.Note) (string, error)
}

// Engine evaluates queries against a note set.
type Engine struct {
	src Source
}

// NewEngine creates an engine reading tags and bodies through src.
func NewEngine(src Source) *Engine {
	return &Engine{src: src}
}

// Query returns the ranked matches for query under mode. An empty query
// returns a copy of notes in their natural order, leaving final ordering to
// the sort engine.
func (e *Engine) Query(notes []*models.Note, mode Mode, query string) []*models.Note {
	if query == "" {
		out := make([]*models.Note, len(notes))
		copy(out, notes)
		return out
	}
	switch mode {
	case ModeContent:
		return e.byContent(notes, query)
	case ModeTag:
		return e.byTag(notes, query)
	default:
		return e.byTitle(notes, query)
	}
}

type scored struct {
	note *models.Note
	// primary is mode-specific: fuzzy score (higher wins), first-occurrence
	// position (lower wins, stored negated), or tag rank (lower wins, negated).
	primary int
}

func (e *Engine) byTitle(notes []*models.Note, query string) []*models.Note {
	var matches []scored
	for _, n := range notes {
		if s, ok := fuzzyScore(n.Title, query); ok {
			matches = append(matches, scored{note: n, primary: s})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.primary != b.primary {
			return a.primary > b.primary
		}
		if len(a.note.Title) != len(b.note.Title) {
			return len(a.note.Title) < len(b.note.Title)
		}
		return a.note.RelPath < b.note.RelPath
	})
	return collect(matches)
}

func (e *Engine) byContent(notes []*models.Note, query string) []*models.Note {
	q := strings.ToLower(query)
	var matches []scored
	for _, n := range notes {
		body, err := e.src.Body(n)
		if err != nil {
			continue
		}
		pos := strings.Index(strings.ToLower(body), q)
		if pos < 0 {
			continue
		}
		matches = append(matches, scored{note: n, primary: -pos})
	}
	sortWithModTime(matches)
	return collect(matches)
}

func (e *Engine) byTag(notes []*models.Note, query string) []*models.Note {
	q := strings.ToLower(query)
	var matches []scored
	for _, n := range notes {
		rank := -1
		for _, tag := range e.src.Tags(n) {
			lt := strings.ToLower(tag)
			if lt == q {
				rank = 0
				break
			}
			if strings.Contains(lt, q) && rank < 0 {
				rank = 1
			}
		}
		if rank < 0 {
			continue
		}
		matches = append(matches, scored{note: n, primary: -rank})
	}
	sortWithModTime(matches)
	return collect(matches)
}

// sortWithModTime orders by primary descending, then newer notes first,
// then path for determinism.
func sortWithModTime(matches []scored) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.primary != b.primary {
			return a.primary > b.primary
		}
		if !a.note.ModTime.Equal(b.note.ModTime) {
			return a.note.ModTime.After(b.note.ModTime)
		}
		return a.note.RelPath < b.note.RelPath
	})
}

func collect(matches []scored) []*models.Note {
	out := make([]*models.Note, len(matches))
	for i, m := range matches {
		out[i] = m.note
	}
	return out
}

// Fuzzy scoring bonuses. Matching runes score matchBase each; a rune adjacent
// to the previous match earns runBonus, and a rune starting a word earns
// boundaryBonus.
const (
	matchBase     = 1
	runBonus      = 5
	boundaryBonus = 10
)

// fuzzyScore matches query as a case-insensitive subsequence of title.
// ok is false when any query rune cannot be placed, which excludes the note
// entirely rather than ranking it low.
func fuzzyScore(title, query string) (score int, ok bool) {
	t := []rune(strings.ToLower(title))
	q := []rune(strings.ToLower(query))
	if len(q) == 0 {
		return 0, true
	}

	qi := 0
	prevMatch := -2
	for ti := 0; ti < len(t) && qi < len(q); ti++ {
		if t[ti] != q[qi] {
			continue
		}
		score += matchBase
		if ti == prevMatch+1 {
			score += runBonus
		}
		if ti == 0 || isBoundary(t[ti-1]) {
			score += boundaryBonus
		}
		prevMatch = ti
		qi++
	}
	if qi < len(q) {
		return 0, false
	}
	return score, true
}

func isBoundary(r rune) bool {
	return unicode.IsSpace(r) || r == '_' || r == '-' || r == '/' || r == '.'
}
