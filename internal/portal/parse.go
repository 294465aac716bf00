package portal

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mlfcnt/tracer-picker/internal/model"
)

const (
	committeeCellSelector = "td.text-center:nth-child(8)"
	logoutSelector        = "#btn_ffs_logout"
)

func loggedIn(doc *goquery.Document) bool {
	return doc.Find(logoutSelector).Length() > 0
}

// parseCommittees collects the committee column. Blank cells are counted, not returned.
func parseCommittees(doc *goquery.Document) ([]string, int) {
	committees := []string{}
	blank := 0
	doc.Find(committeeCellSelector).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			blank++
			return
		}
		committees = append(committees, text)
	})
	return committees, blank
}

// parseCompetition reads the competition header. Dedicated fields win; the
// page title "date - location - discipline" fills the gaps.
func parseCompetition(doc *goquery.Document, code string) (model.Competition, error) {
	comp := model.Competition{
		Code:       code,
		Date:       fieldText(doc, "#competition_date"),
		Location:   fieldText(doc, "#competition_lieu"),
		Discipline: fieldText(doc, "#competition_discipline"),
	}
	if comp.Date == "" || comp.Location == "" || comp.Discipline == "" {
		parts := strings.Split(fieldText(doc, "h1"), " - ")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) >= 3 {
			if comp.Date == "" {
				comp.Date = parts[0]
			}
			if comp.Location == "" {
				comp.Location = strings.Join(parts[1:len(parts)-1], " - ")
			}
			if comp.Discipline == "" {
				comp.Discipline = parts[len(parts)-1]
			}
		}
	}
	if comp.Date == "" || comp.Location == "" || comp.Discipline == "" {
		return model.Competition{}, fmt.Errorf("competition %s: page has no date, location and discipline", code)
	}
	if raw := fieldText(doc, "#competition_comite"); raw != "" {
		home, err := model.ParseCommittee(raw)
		if err != nil {
			return model.Competition{}, fmt.Errorf("competition %s: organizer: %w", code, err)
		}
		comp.Home = home
	}
	return comp, nil
}

func fieldText(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().Text())
}
