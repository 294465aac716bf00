package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mlfcnt/tracer-picker/internal/model"
)

// Manche markers.
const (
	MarkNone   = "·"
	MarkHome   = "🏠"
	MarkDrawn  = "🎲"
	MarkForced = "✋"
)

// Row is one committee line of the results table.
type Row struct {
	Committee  model.Committee
	Home       bool
	Marks      [model.NumManches]string
	Count      int
	Percentage float64
}

// Rows flattens results into one row per committee, highest share first.
func Rows(results model.Results) []Row {
	byCommittee := map[model.Committee]*Row{}
	var order []model.Committee
	row := func(c model.Committee) *Row {
		r, ok := byCommittee[c]
		if !ok {
			r = &Row{Committee: c}
			for i := range r.Marks {
				r.Marks[i] = MarkNone
			}
			byCommittee[c] = r
			order = append(order, c)
		}
		return r
	}

	// Count and share come from the first list holding the committee, home lists first.
	seen := map[model.Committee]bool{}
	for _, m := range []model.Manche{model.Manche1, model.Manche2, model.Manche3, model.Manche4} {
		for _, e := range results.Entries(m) {
			r := row(e.Committee)
			if e.IsHomeCommittee {
				r.Home = true
			}
			if !seen[e.Committee] {
				seen[e.Committee] = true
				r.Count = e.Count
				r.Percentage = e.Percentage
			}
			if e.IsPicked {
				r.Marks[m-1] = mark(e)
			}
		}
	}

	out := make([]Row, 0, len(order))
	for _, c := range order {
		out = append(out, *byCommittee[c])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Percentage != out[j].Percentage {
			return out[i].Percentage > out[j].Percentage
		}
		if out[i].Home != out[j].Home {
			return out[i].Home
		}
		return model.CommitteeLess(out[i].Committee, out[j].Committee)
	})
	return out
}

func mark(e model.Entry) string {
	switch {
	case e.IsHandpicked:
		return MarkForced
	case e.IsHomeCommittee:
		return MarkHome
	default:
		return MarkDrawn
	}
}

// RenderTable prints the competition header and the results table.
func RenderTable(w io.Writer, results model.Results) error {
	if title := competitionTitle(results.Competition); title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	headers := []string{"Comité", "M1", "M2", "M3", "M4", "Nb", "%"}
	var tableRows [][]string
	for _, r := range Rows(results) {
		name := string(r.Committee)
		if r.Home {
			name += " *"
		}
		tableRows = append(tableRows, []string{
			name,
			r.Marks[0], r.Marks[1], r.Marks[2], r.Marks[3],
			fmt.Sprintf("%d", r.Count),
			fmt.Sprintf("%.0f", r.Percentage),
		})
	}
	for _, line := range formatTable(headers, tableRows, map[int]bool{5: true, 6: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if len(results.Pending) > 0 {
		names := make([]string, len(results.Pending))
		for i, m := range results.Pending {
			names[i] = m.String()
		}
		if _, err := fmt.Fprintf(w, "No eligible committee for %s: choose one by hand.\n", strings.Join(names, ", ")); err != nil {
			return err
		}
	}
	return nil
}

func competitionTitle(c model.Competition) string {
	var parts []string
	for _, p := range []string{c.Discipline, c.Date, c.Location} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	title := strings.Join(parts, " - ")
	if c.Home != "" {
		if title != "" {
			title += " "
		}
		title += fmt.Sprintf("(organizer %s)", c.Home)
	}
	return title
}

// RenderWeights prints the audit of the drawn manches: history statistics,
// weight and probability of every candidate.
func RenderWeights(w io.Writer, results model.Results) error {
	headers := []string{"Manche", "Comité", "Nb", "%", "Occ", "Since", "Weight", "Prob", ""}
	var rows [][]string
	for _, m := range []model.Manche{model.Manche2, model.Manche4} {
		for _, e := range results.Entries(m) {
			picked := ""
			switch {
			case e.IsPicked:
				picked = mark(e)
			case e.Excluded:
				picked = "excluded"
			}
			rows = append(rows, []string{
				m.String(),
				string(e.Committee),
				fmt.Sprintf("%d", e.Count),
				fmt.Sprintf("%.0f", e.Percentage),
				fmt.Sprintf("%d", e.Occurrences),
				fmt.Sprintf("%d", e.CompetitionsSinceLastTrace),
				fmt.Sprintf("%.2f", e.Weight),
				fmt.Sprintf("%.1f%%", e.Probability),
				picked,
			})
		}
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No candidate committee.")
		return err
	}
	for _, line := range formatTable(headers, rows, map[int]bool{2: true, 3: true, 4: true, 5: true, 6: true, 7: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
