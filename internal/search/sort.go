package search

import (
	"sort"
	"strings"

	"github.com/veleda/ansuz/internal/models"
)

// SortKey selects the ordering applied to browse listings and to
// empty-query search results.
type SortKey int

const (
	// SortDate orders by modification time, newest first.
	SortDate SortKey = iota
	// SortName orders by title, case-insensitive ascending.
	SortName
	// SortSize orders by byte size, largest first.
	SortSize
)

func (k SortKey) String() string {
	switch k {
	case SortName:
		return "name"
	case SortSize:
		return "size"
	default:
		return "date"
	}
}

// ParseSortKey maps a config string to a SortKey. Unknown values fall back
// to SortDate.
func ParseSortKey(s string) SortKey {
	switch strings.ToLower(s) {
	case "name":
		return SortName
	case "size":
		return SortSize
	default:
		return SortDate
	}
}

// SortNotes stably orders notes in place by key. All ties resolve by
// relative path ascending so orderings are deterministic.
func SortNotes(notes []*models.Note, key SortKey) {
	sort.SliceStable(notes, func(i, j int) bool {
		a, b := notes[i], notes[j]
		switch key {
		case SortName:
			an, bn := strings.ToLower(a.Title), strings.ToLower(b.Title)
			if an != bn {
				return an < bn
			}
		case SortSize:
			if a.Size != b.Size {
				return a.Size > b.Size
			}
		default:
			if !a.ModTime.Equal(b.ModTime) {
				return a.ModTime.After(b.ModTime)
			}
		}
		return a.RelPath < b.RelPath
	})
}

// SortFolders orders folders by name, case-insensitive ascending. Browse
// listings show folders before notes regardless of the active key.
func SortFolders(folders []*models.Folder) {
	sort.SliceStable(folders, func(i, j int) bool {
		an, bn := strings.ToLower(folders[i].Name), strings.ToLower(folders[j].Name)
		if an != bn {
			return an < bn
		}
		return folders[i].RelPath < folders[j].RelPath
	})
}
