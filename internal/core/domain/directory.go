package domain

import (
	"strings"
	"time"
)

// DirectoryEntry is one row of the reference feed, resolved to named fields.
type DirectoryEntry struct {
	Regional  string
	Store     string
	Leader    string
	ValidDate time.Time
}

// Directory is an immutable snapshot of the reference feed. A nil *Directory
// behaves as an empty one.
type Directory struct {
	entries  []DirectoryEntry
	loadedAt time.Time
}

// NewDirectory trims every value and reduces dates to their calendar day.
// Feed order is preserved.
func NewDirectory(entries []DirectoryEntry, loadedAt time.Time) *Directory {
	normalized := make([]DirectoryEntry, 0, len(entries))
	for _, e := range entries {
		normalized = append(normalized, DirectoryEntry{
			Regional:  strings.TrimSpace(e.Regional),
			Store:     strings.TrimSpace(e.Store),
			Leader:    strings.TrimSpace(e.Leader),
			ValidDate: DateOf(e.ValidDate),
		})
	}
	return &Directory{entries: normalized, loadedAt: loadedAt}
}

// Len returns the number of rows in the snapshot.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// LoadedAt returns when the snapshot was built.
func (d *Directory) LoadedAt() time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.loadedAt
}

// RegionsInRange returns the distinct regionals valid within [start, end],
// in first-appearance order.
func (d *Directory) RegionsInRange(start, end time.Time) []string {
	return d.distinct(start, end, func(e DirectoryEntry) (string, bool) {
		return e.Regional, true
	})
}

// StoresInRange returns the distinct stores of regional valid within [start, end].
func (d *Directory) StoresInRange(regional string, start, end time.Time) []string {
	regional = strings.TrimSpace(regional)
	return d.distinct(start, end, func(e DirectoryEntry) (string, bool) {
		return e.Store, e.Regional == regional
	})
}

// LeaderFor returns the leader of the first row matching regional, store and
// the date window.
func (d *Directory) LeaderFor(regional, store string, start, end time.Time) (string, bool) {
	if d == nil {
		return "", false
	}
	regional = strings.TrimSpace(regional)
	store = strings.TrimSpace(store)
	window := dateWindow(start, end)
	for _, e := range d.entries {
		if e.Regional == regional && e.Store == store && window.Contains(e.ValidDate) {
			return e.Leader, true
		}
	}
	return "", false
}

func (d *Directory) distinct(start, end time.Time, pick func(DirectoryEntry) (string, bool)) []string {
	set := newOrderedSet()
	if d == nil {
		return set.values()
	}
	window := dateWindow(start, end)
	for _, e := range d.entries {
		if !window.Contains(e.ValidDate) {
			continue
		}
		if v, ok := pick(e); ok {
			set.add(v)
		}
	}
	return set.values()
}

// dateWindow builds the inclusive window without rejecting inverted bounds;
// an inverted window simply matches nothing.
func dateWindow(start, end time.Time) DateRange {
	return DateRange{Start: DateOf(start), End: DateOf(end)}
}
