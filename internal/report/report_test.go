package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mlfcnt/tracer-picker/internal/model"
)

func sampleResults() model.Results {
	home := model.Entry{Committee: model.EQ, Count: 10, Percentage: 100, IsHomeCommittee: true, IsPicked: true}
	return model.Results{
		Competition: model.Competition{Date: "12/01/2025", Location: "Tignes", Discipline: "GS", Home: model.EQ},
		Manches: [model.NumManches][]model.Entry{
			{home},
			{
				{Committee: model.SA, Count: 3, Percentage: 30, IsPicked: true},
				{Committee: model.MB, Count: 7, Percentage: 70},
			},
			{home},
			{
				{Committee: model.MB, Count: 7, Percentage: 70, IsPicked: true, IsHandpicked: true},
				{Committee: model.SA, Count: 3, Percentage: 30},
			},
		},
	}
}

func TestFormatTableAlignsColumns(t *testing.T) {
	lines := formatTable(
		[]string{"Comité", "M1", "Nb"},
		[][]string{{"EQ", "🏠", "10"}, {"APEX", "·", "3"}},
		map[int]bool{2: true},
	)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Comité  M1  Nb" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "EQ      🏠  10" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "APEX    ·    3" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestRowsSortedByShare(t *testing.T) {
	rows := Rows(sampleResults())
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %+v", rows)
	}
	if rows[0].Committee != model.EQ || !rows[0].Home || rows[0].Marks[0] != MarkHome || rows[0].Marks[2] != MarkHome {
		t.Fatalf("unexpected home row %+v", rows[0])
	}
	if rows[1].Committee != model.MB || rows[1].Marks[3] != MarkForced || rows[1].Marks[1] != MarkNone {
		t.Fatalf("unexpected MB row %+v", rows[1])
	}
	if rows[2].Committee != model.SA || rows[2].Marks[1] != MarkDrawn || rows[2].Count != 3 {
		t.Fatalf("unexpected SA row %+v", rows[2])
	}
}

func TestRenderTableListsPending(t *testing.T) {
	results := sampleResults()
	results.Manches[model.Manche4-1] = nil
	results.Pending = []model.Manche{model.Manche4}
	var buf bytes.Buffer
	if err := RenderTable(&buf, results); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "GS - 12/01/2025 - Tignes (organizer EQ)\n") {
		t.Fatalf("unexpected title:\n%s", out)
	}
	if !strings.Contains(out, "No eligible committee for M4") {
		t.Fatalf("expected pending notice:\n%s", out)
	}
}

func TestHeaderColor(t *testing.T) {
	cases := map[string]string{"GS": "pink", "sl": "blue", "SG": "green", "DH": "yellow", "SC": "blue", "": "blue"}
	for in, want := range cases {
		if got := HeaderColor(in); got != want {
			t.Fatalf("%q: expected %s, got %s", in, want, got)
		}
	}
}

func TestRenderHTML(t *testing.T) {
	var buf bytes.Buffer
	at := time.Date(2025, 1, 12, 9, 30, 0, 0, time.UTC)
	if err := RenderHTML(&buf, sampleResults(), at); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"background-color: pink",
		"Généré le 12/01/2025 09:30:00",
		"<strong>Comité Organisateur:</strong> EQ",
		"Manche 4",
		"committee-card handpicked",
		"70%",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in report", want)
		}
	}
}

func TestRenderHTMLEscapesMetadata(t *testing.T) {
	results := sampleResults()
	results.Competition.Location = "<script>alert(1)</script>"
	var buf bytes.Buffer
	if err := RenderHTML(&buf, results, time.Now()); err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(buf.String(), "<script>alert") {
		t.Fatalf("location not escaped")
	}
}

func TestWriteHTMLFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	path, err := WriteHTMLFile(dir, sampleResults(), time.Now())
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if filepath.Base(path) != "12-01-2025_tignes_gs.html" {
		t.Fatalf("unexpected file name %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat: %v", err)
	}
}

func TestRecencyStrip(t *testing.T) {
	rec := func(m1, m2, m3, m4 model.Committee) model.HistoryEntry {
		return model.HistoryEntry{Record: model.HistoryRecord{Traceurs: model.Traceurs{Manche1: m1, Manche2: m2, Manche3: m3, Manche4: m4}}}
	}
	e1, e2, e3 := rec(model.EQ, model.SA, model.EQ, model.MB), rec(model.SA, model.MB, model.SA, model.AP), rec(model.DA, model.AP, model.DA, model.CA)
	e1.Key, e2.Key, e3.Key = "a", "b", "c"
	h := model.NewSelectionHistory(e1, e2, e3)
	if got := RecencyStrip(h, model.SA, 0); got != ":= " {
		t.Fatalf("unexpected strip %q", got)
	}
	if got := RecencyStrip(h, model.SA, 2); got != "= " {
		t.Fatalf("unexpected truncated strip %q", got)
	}
}

func TestRenderHistory(t *testing.T) {
	h := model.NewSelectionHistory(model.HistoryEntry{
		Key:    "a",
		Record: model.HistoryRecord{Traceurs: model.Traceurs{Manche1: model.EQ, Manche2: model.SA, Manche3: model.EQ, Manche4: model.MB}},
	})
	var buf bytes.Buffer
	if err := RenderHistory(&buf, h, []model.Committee{model.SA, model.CA}, model.DefaultWeightConfig()); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "History: 1 competitions") {
		t.Fatalf("missing header:\n%s", out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header and 2 rows, got:\n%s", out)
	}
	if !strings.Contains(lines[3], "never") || !strings.HasPrefix(lines[3], "CA") {
		t.Fatalf("expected CA never drawn, got %q", lines[3])
	}
}

func TestRenderWeights(t *testing.T) {
	results := sampleResults()
	results.Manches[model.Manche4-1][1].Excluded = true
	var buf bytes.Buffer
	if err := RenderWeights(&buf, results); err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header and 4 candidate rows, got:\n%s", buf.String())
	}
	if !strings.HasSuffix(lines[1], MarkDrawn) || !strings.HasSuffix(lines[3], MarkForced) || !strings.HasSuffix(lines[4], "excluded") {
		t.Fatalf("unexpected markers:\n%s", buf.String())
	}
}
