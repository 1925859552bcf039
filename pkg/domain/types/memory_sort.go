package types

import "fmt"

// MemorySort selects the ordering of memory listings
type MemorySort string

const (
	// MemorySortRecent orders by UpdatedAt, newest first
	MemorySortRecent MemorySort = "recent"
	// MemorySortTitle orders by title, ascending
	MemorySortTitle MemorySort = "title"
)

// IsValid checks if the sort key is valid
func (s MemorySort) IsValid() bool {
	switch s {
	case MemorySortRecent, MemorySortTitle:
		return true
	default:
		return false
	}
}

// Normalize returns the sort key, treating empty as MemorySortRecent.
func (s MemorySort) Normalize() MemorySort {
	if s == "" {
		return MemorySortRecent
	}
	return s
}

func (s MemorySort) String() string {
	return string(s)
}

// ParseMemorySort parses a string into a MemorySort. Empty input yields MemorySortRecent.
func ParseMemorySort(s string) (MemorySort, error) {
	sort := MemorySort(s).Normalize()
	if !sort.IsValid() {
		return "", fmt.Errorf("invalid memory sort: %s", s)
	}
	return sort, nil
}
