package historyui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mlfcnt/tracer-picker/internal/model"
)

func sampleHistory() model.SelectionHistory {
	return model.NewSelectionHistory(model.HistoryEntry{
		Key:    "12/01/2025_tignes_gs",
		Record: model.HistoryRecord{Traceurs: model.Traceurs{Manche1: model.EQ, Manche2: model.SA, Manche3: model.EQ, Manche4: model.MB}},
	})
}

func TestTabsSwitchContent(t *testing.T) {
	m := NewModel(sampleHistory(), []model.Committee{model.SA, model.CA}, model.DefaultWeightConfig())
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})

	view := m.View()
	if !strings.Contains(view, "History: 1 competitions") || !strings.Contains(view, "never") {
		t.Fatalf("expected committee stats:\n%s", view)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabDraws {
		t.Fatalf("expected draws tab, got %d", m.activeTab)
	}
	if !strings.Contains(m.View(), "12/01/2025_tignes_gs") {
		t.Fatalf("expected draw list:\n%s", m.View())
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabCommittees {
		t.Fatalf("expected wrap to committees tab, got %d", m.activeTab)
	}
}

func TestEmptyHistory(t *testing.T) {
	m := NewModel(model.SelectionHistory{}, nil, model.DefaultWeightConfig())
	if m.View() != "" {
		t.Fatalf("expected empty view before sizing")
	}
	m.Update(tea.WindowSizeMsg{Width: 60, Height: 10})
	if !strings.Contains(m.View(), "No selections recorded.") {
		t.Fatalf("expected empty notice:\n%s", m.View())
	}
}

func TestQuit(t *testing.T) {
	m := NewModel(sampleHistory(), nil, model.DefaultWeightConfig())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected quit message")
	}
}
