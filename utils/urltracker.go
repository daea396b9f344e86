package utils

import "strings"

// URLTracker remembers which listing position first linked to each URL
type URLTracker struct {
	first      map[string]int
	duplicates int
}

// NewURLTracker creates an empty tracker
func NewURLTracker() *URLTracker {
	return &URLTracker{first: make(map[string]int)}
}

// Add records url at listing position idx. For a repeat it returns the position
// the URL was first seen at and false.
func (t *URLTracker) Add(url string, idx int) (int, bool) {
	key := strings.TrimSpace(url)
	if first, ok := t.first[key]; ok {
		t.duplicates++
		return first, false
	}
	t.first[key] = idx
	return idx, true
}

// Len is the number of distinct URLs seen
func (t *URLTracker) Len() int {
	return len(t.first)
}

// Duplicates is the number of Add calls that repeated an earlier URL
func (t *URLTracker) Duplicates() int {
	return t.duplicates
}
