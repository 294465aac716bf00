package review

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mlfcnt/tracer-picker/internal/draw"
	"github.com/mlfcnt/tracer-picker/internal/model"
)

type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

func drawn(t *testing.T, counts model.Counts) model.Results {
	t.Helper()
	results, err := draw.NewBuilder(draw.WithSource(fixedSource(0.3))).Generate(
		counts,
		model.Competition{Date: "12/01/2025", Location: "Tignes", Discipline: "GS", Home: model.EQ},
		model.SelectionHistory{},
	)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return results
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m *Model, msgs ...tea.KeyMsg) tea.Cmd {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		if next != m {
			t.Fatalf("update returned a different model")
		}
	}
	return cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestConfirmProposal(t *testing.T) {
	m := NewModel(drawn(t, model.Counts{model.EQ: 10, model.SA: 5, model.MB: 5}))
	if !strings.Contains(m.View(), "Ces traceurs sont-ils ok ?") {
		t.Fatalf("expected proposal view")
	}
	cmd := send(t, m, runes("y"))
	if !isQuit(cmd) {
		t.Fatalf("expected quit after confirm")
	}
	entry, ok := m.Confirmed()
	if !ok {
		t.Fatalf("expected confirmed review")
	}
	if entry.Key != "12/01/2025_tignes_gs" || entry.Record.Traceurs.Manche2 != model.SA {
		t.Fatalf("unexpected entry %+v", entry)
	}
}

func TestReviseThenConfirm(t *testing.T) {
	m := NewModel(drawn(t, model.Counts{model.EQ: 10, model.SA: 5, model.MB: 5}))
	down := tea.KeyMsg{Type: tea.KeyDown}
	enter := tea.KeyMsg{Type: tea.KeyEnter}

	// Manche 2, then the committee after SA in the list (MB).
	send(t, m, runes("n"), down, enter)
	if m.step != stepCommittee || m.manche != model.Manche2 {
		t.Fatalf("expected committee step for manche 2, got step %d manche %d", m.step, m.manche)
	}
	if !strings.Contains(m.View(), "> SA") {
		t.Fatalf("expected cursor on current pick:\n%s", m.View())
	}
	send(t, m, down, enter)
	if m.step != stepProposal {
		t.Fatalf("expected proposal after force, got step %d", m.step)
	}
	picked, ok := m.Results().Picked(model.Manche2)
	if !ok || picked.Committee != model.MB || !picked.IsHandpicked {
		t.Fatalf("expected MB forced on manche 2, got %+v", picked)
	}

	if !isQuit(send(t, m, runes("y"))) {
		t.Fatalf("expected quit after confirm")
	}
	entry, _ := m.Confirmed()
	if entry.Record.Traceurs.Manche2 != model.MB || entry.Record.Traceurs.Manche4 != model.MB {
		t.Fatalf("unexpected traceurs %+v", entry.Record.Traceurs)
	}
}

func TestRepeatedCommitteeWarning(t *testing.T) {
	m := NewModel(drawn(t, model.Counts{model.EQ: 10, model.SA: 5, model.MB: 5}))
	if strings.Contains(m.View(), "Attention") {
		t.Fatalf("unexpected warning on a fresh draw:\n%s", m.View())
	}
	down := tea.KeyMsg{Type: tea.KeyDown}
	enter := tea.KeyMsg{Type: tea.KeyEnter}
	// Manche 2, cursor starts on SA; MB is next.
	send(t, m, runes("n"), down, enter, down, enter)
	if !strings.Contains(m.View(), "Attention : MB trace les manches 2 et 4.") {
		t.Fatalf("expected repeated committee warning:\n%s", m.View())
	}
	if !isQuit(send(t, m, runes("y"))) {
		t.Fatalf("warning must not block confirmation")
	}
}

func TestEscapeReturnsToProposal(t *testing.T) {
	m := NewModel(drawn(t, model.Counts{model.EQ: 10, model.SA: 5, model.MB: 5}))
	esc := tea.KeyMsg{Type: tea.KeyEsc}
	send(t, m, runes("n"), tea.KeyMsg{Type: tea.KeyEnter}, esc)
	if m.step != stepManche || m.cursor != 0 {
		t.Fatalf("expected manche step on manche 1, got step %d cursor %d", m.step, m.cursor)
	}
	send(t, m, esc)
	if m.step != stepProposal {
		t.Fatalf("expected proposal step, got %d", m.step)
	}
	if isQuit(send(t, m, runes("y"))) == false {
		t.Fatalf("expected confirm to work after cancel")
	}
}

func TestPendingMancheBlocksConfirm(t *testing.T) {
	m := NewModel(drawn(t, model.Counts{model.EQ: 10, model.SA: 5}))
	if cmd := send(t, m, runes("y")); isQuit(cmd) {
		t.Fatalf("confirm must fail while manche 4 is pending")
	}
	if !strings.Contains(m.View(), "incomplete results") {
		t.Fatalf("expected error in view:\n%s", m.View())
	}
	send(t, m, runes("n"))
	if m.cursor != int(model.Manche4)-1 {
		t.Fatalf("expected cursor on pending manche 4, got %d", m.cursor)
	}
	send(t, m, tea.KeyMsg{Type: tea.KeyEnter}, tea.KeyMsg{Type: tea.KeyEnter})
	if !isQuit(send(t, m, runes("y"))) {
		t.Fatalf("expected confirm after override")
	}
	entry, _ := m.Confirmed()
	if entry.Record.Traceurs.Manche4 != model.EQ {
		t.Fatalf("expected first committee forced on manche 4, got %+v", entry.Record.Traceurs)
	}
}

func TestQuitAborts(t *testing.T) {
	m := NewModel(drawn(t, model.Counts{model.EQ: 10, model.SA: 5, model.MB: 5}))
	if !isQuit(send(t, m, runes("q"))) {
		t.Fatalf("expected quit")
	}
	if !m.aborted {
		t.Fatalf("expected aborted review")
	}
	if _, ok := m.Confirmed(); ok {
		t.Fatalf("aborted review must not be confirmed")
	}
}

func TestWrapIndex(t *testing.T) {
	if wrapIndex(-1, 4) != 3 || wrapIndex(4, 4) != 0 || wrapIndex(2, 4) != 2 {
		t.Fatalf("unexpected wrap results")
	}
}
