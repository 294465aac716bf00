package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mlfcnt/tracer-picker/internal/draw"
	"github.com/mlfcnt/tracer-picker/internal/model"
)

const (
	stripChars = " .:-=+*#%@"
	stripLen   = 20
)

// RecencyStrip renders one cell per recent history entry, oldest first. The
// glyph grows with the number of manches the committee traced in that entry.
func RecencyStrip(history model.SelectionHistory, c model.Committee, width int) string {
	entries := history.Entries()
	if width > 0 && len(entries) > width {
		entries = entries[len(entries)-width:]
	}
	var b strings.Builder
	for _, e := range entries {
		n := 0
		for _, traced := range e.Record.Traceurs.All() {
			if traced == c {
				n++
			}
		}
		idx := n * (len(stripChars) - 1) / model.NumManches
		b.WriteByte(stripChars[idx])
	}
	return b.String()
}

// CommitteeStat summarizes the history of one committee.
type CommitteeStat struct {
	Committee   model.Committee
	Occurrences int
	// Since is "never" when the committee has not traced yet.
	Since  string
	Factor float64
	Recent string
}

// CommitteeStats computes the history statistics of committees and the weight
// factor each one would get from them, on a unit share.
func CommitteeStats(history model.SelectionHistory, committees []model.Committee, cfg model.WeightConfig) []CommitteeStat {
	if len(committees) == 0 {
		committees = model.Committees
	}
	idx := draw.BuildIndex(history, committees)
	unitEntries := make([]model.Entry, len(committees))
	for i, c := range committees {
		unitEntries[i] = model.Entry{Committee: c, Percentage: 1}
	}
	unit := cfg
	unit.BasePercentageWeight = 1
	weighted := draw.ApplyWeights(unitEntries, idx, unit, "")

	out := make([]CommitteeStat, 0, len(weighted))
	for _, e := range weighted {
		since := fmt.Sprintf("%d", e.CompetitionsSinceLastTrace)
		if e.Occurrences == 0 {
			since = "never"
		}
		out = append(out, CommitteeStat{
			Committee:   e.Committee,
			Occurrences: e.Occurrences,
			Since:       since,
			Factor:      e.Weight,
			Recent:      RecencyStrip(history, e.Committee, stripLen),
		})
	}
	return out
}

// RenderHistory prints per-committee history statistics.
func RenderHistory(w io.Writer, history model.SelectionHistory, committees []model.Committee, cfg model.WeightConfig) error {
	if _, err := fmt.Fprintf(w, "History: %d competitions\n", history.Len()); err != nil {
		return err
	}
	headers := []string{"Comité", "Occurrences", "Since last", "Factor", "Recent"}
	var rows [][]string
	for _, s := range CommitteeStats(history, committees, cfg) {
		rows = append(rows, []string{
			string(s.Committee),
			fmt.Sprintf("%d", s.Occurrences),
			s.Since,
			fmt.Sprintf("%.3f", s.Factor),
			"|" + s.Recent + "|",
		})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderSelections prints the stored history, one competition per line.
func RenderSelections(w io.Writer, history model.SelectionHistory) error {
	if history.Len() == 0 {
		_, err := fmt.Fprintln(w, "No selections recorded.")
		return err
	}
	headers := []string{"#", "Compétition", "M1", "M2", "M3", "M4"}
	var rows [][]string
	for i, e := range history.Entries() {
		t := e.Record.Traceurs
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			e.Key,
			string(t.Manche1), string(t.Manche2), string(t.Manche3), string(t.Manche4),
		})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{0: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
