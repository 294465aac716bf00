// Package draw implements the weighted historical draw of traceur committees.
package draw

import "github.com/mlfcnt/tracer-picker/internal/model"

// Stats are the history statistics of one committee.
type Stats struct {
	Occurrences                int
	CompetitionsSinceLastTrace int
}

// Index holds per-committee statistics derived from a selection history.
type Index struct {
	stats map[model.Committee]Stats
	size  int
}

// BuildIndex derives occurrence counts and recency for the given committees.
func BuildIndex(history model.SelectionHistory, committees []model.Committee) Index {
	idx := Index{
		stats: make(map[model.Committee]Stats, len(committees)),
		size:  history.Len(),
	}
	for _, c := range committees {
		idx.stats[c] = Stats{CompetitionsSinceLastTrace: idx.size}
	}

	entries := history.Entries()
	seen := make(map[model.Committee]bool, len(committees))
	// Walk backward so the first sighting of a committee is its most recent one.
	for i := len(entries) - 1; i >= 0; i-- {
		since := len(entries) - 1 - i
		for _, c := range entries[i].Record.Traceurs.All() {
			st, tracked := idx.stats[c]
			if !tracked {
				continue
			}
			st.Occurrences++
			if !seen[c] {
				seen[c] = true
				st.CompetitionsSinceLastTrace = since
			}
			idx.stats[c] = st
		}
	}
	return idx
}

// Stats returns the statistics of a committee. Untracked committees are
// reported as never drawn.
func (idx Index) Stats(c model.Committee) Stats {
	if st, ok := idx.stats[c]; ok {
		return st
	}
	return Stats{CompetitionsSinceLastTrace: idx.size}
}

// Len returns the number of history entries the index was built from.
func (idx Index) Len() int {
	return idx.size
}
