package engine

import (
	"sort"
	"time"
)

// rankKeyLayout is a fixed-width, zero-padded UTC timestamp form, so that
// lexicographic order on keys is chronological order on instants.
const rankKeyLayout = "2006-01-02T15:04:05.000000000"

func rankKey(e Entry) string {
	return e.Modified.UTC().Format(rankKeyLayout)
}

// rankEntries orders resolved entries most recent first. The sort is stable:
// entries with equal instants keep their discovery order (files before
// folders, listing order within each). The input slice is not modified.
func rankEntries(entries []Entry) []Entry {
	ranked := make([]Entry, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return rankKey(ranked[i]) > rankKey(ranked[j])
	})
	return ranked
}

// olderThan reports whether the entry's effective instant is strictly
// before cutoff.
func olderThan(e Entry, cutoff time.Time) bool {
	return e.Modified.Before(cutoff)
}
