package report

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mlfcnt/tracer-picker/internal/model"
)

var disciplineColors = map[string]string{
	"GS": "pink",
	"SL": "blue",
	"SG": "green",
	"DH": "yellow",
}

// HeaderColor returns the report header colour of a discipline.
func HeaderColor(discipline string) string {
	if c, ok := disciplineColors[strings.ToUpper(strings.TrimSpace(discipline))]; ok {
		return c
	}
	return "blue"
}

type htmlManche struct {
	Number      int
	Selected    []model.Entry
	NotSelected []model.Entry
}

type htmlPage struct {
	Competition model.Competition
	HeaderColor string
	GeneratedAt string
	Year        int
	Manches     []htmlManche
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Résultats Traceurs</title>
<style>
body { font-family: sans-serif; margin: 0; background: #f4f6f8; }
.header { background-color: {{.HeaderColor}}; padding: 1.5rem; text-align: center; }
.general-info, .manches-grid { margin: 1rem auto; max-width: 1100px; }
.info-card, .committee-card { background: #fff; border-radius: 8px; padding: 0.75rem 1rem; margin: 0.5rem 0; }
.manches-grid { display: grid; grid-template-columns: repeat(4, 1fr); gap: 1rem; }
.committee-name { font-weight: bold; font-size: 1.3rem; }
.stats { display: flex; justify-content: space-between; color: #555; }
.not-selected { opacity: 0.6; }
.handpicked { border: 2px dashed #d33; }
.timestamp { text-align: center; color: #888; margin: 2rem 0; }
</style>
</head>
<body>
<div class="header">
<h1>🎿 Attribution des Manches</h1>
<div class="competition-info"><p>{{.Competition.Discipline}} - {{.Competition.Date}} - {{.Competition.Location}}</p></div>
<p>Généré le {{.GeneratedAt}}</p>
</div>
<div class="general-info">
<h2>Informations Générales</h2>
<div class="info-card">
<p><strong>Comité Organisateur:</strong> {{.Competition.Home}}</p>
<p><strong>Discipline:</strong> {{.Competition.Discipline}}</p>
<p><strong>Date:</strong> {{.Competition.Date}}</p>
<p><strong>Lieu:</strong> {{.Competition.Location}}</p>
{{if .Competition.Code}}<p><strong>Code:</strong> {{.Competition.Code}}</p>{{end}}
</div>
</div>
<div class="manches-grid">
{{range .Manches}}<div class="manche-column">
<h2>Manche {{.Number}}</h2>
<div class="selected-committees">
{{range .Selected}}<div class="committee-card{{if .IsHandpicked}} handpicked{{end}}">
<div class="committee-name">{{.Committee}}</div>
<div class="stats"><span>{{.Count}} coureurs</span><span>{{printf "%.0f" .Percentage}}%</span></div>
</div>
{{end}}</div>
{{if .NotSelected}}<details class="not-selected-committees">
<summary>Voir les comités non sélectionnés</summary>
{{range .NotSelected}}<div class="committee-card not-selected">
<div class="committee-name">{{.Committee}}</div>
<div class="stats"><span>{{.Count}} coureurs</span><span>{{printf "%.0f" .Percentage}}%</span></div>
</div>
{{end}}</details>{{end}}
</div>
{{end}}</div>
<div class="timestamp"><p>tracer-picker - {{.Year}}</p></div>
</body>
</html>
`))

// RenderHTML writes the standalone HTML report of confirmed results.
func RenderHTML(w io.Writer, results model.Results, generatedAt time.Time) error {
	page := htmlPage{
		Competition: results.Competition,
		HeaderColor: HeaderColor(results.Competition.Discipline),
		GeneratedAt: generatedAt.Format("02/01/2006 15:04:05"),
		Year:        generatedAt.Year(),
	}
	for _, m := range model.AllManches {
		hm := htmlManche{Number: int(m)}
		for _, e := range results.Entries(m) {
			if e.IsPicked {
				hm.Selected = append(hm.Selected, e)
			} else {
				hm.NotSelected = append(hm.NotSelected, e)
			}
		}
		sort.SliceStable(hm.NotSelected, func(i, j int) bool {
			return hm.NotSelected[i].Percentage > hm.NotSelected[j].Percentage
		})
		page.Manches = append(page.Manches, hm)
	}
	return reportTemplate.Execute(w, page)
}

// ReportFileName derives the report file name from the competition key.
func ReportFileName(c model.Competition) string {
	key := c.Key()
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '\'':
			return '-'
		}
		return r
	}, key)
	if strings.Trim(name, "_-") == "" {
		name = "results"
	}
	return name + ".html"
}

// WriteHTMLFile renders the report into dir and returns its path.
func WriteHTMLFile(dir string, results model.Results, generatedAt time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	path := filepath.Join(dir, ReportFileName(results.Competition))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := RenderHTML(f, results, generatedAt); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}
