// Package review provides the Bubble Tea confirmation loop for draw results.
package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mlfcnt/tracer-picker/internal/draw"
	"github.com/mlfcnt/tracer-picker/internal/model"
	"github.com/mlfcnt/tracer-picker/internal/report"
)

// ErrAborted is returned when the operator quits without confirming.
var ErrAborted = errors.New("review aborted")

type step int

const (
	stepProposal step = iota
	stepManche
	stepCommittee
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	itemStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E0A030"))
	frameStyle  = lipgloss.NewStyle().Padding(1, 2)
)

// Model implements the review UI over a draw.Review.
type Model struct {
	review *draw.Review
	keys   keyMap
	help   help.Model

	step    step
	cursor  int
	manche  model.Manche
	errMsg  string
	aborted bool
	entry   model.HistoryEntry
}

// NewModel constructs a review model for freshly drawn results.
func NewModel(results model.Results) *Model {
	return &Model{
		review: draw.NewReview(results),
		keys:   newKeyMap(),
		help:   help.New(),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.aborted = true
			return m, tea.Quit
		}
		switch m.step {
		case stepProposal:
			return m.updateProposal(msg)
		case stepManche:
			return m.updateManche(msg)
		case stepCommittee:
			return m.updateCommittee(msg)
		}
	}
	return m, nil
}

func (m *Model) updateProposal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		entry, err := m.review.Confirm()
		if err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.entry = entry
		return m, tea.Quit
	case key.Matches(msg, m.keys.Revise):
		if err := m.review.Reject(); err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.step = stepManche
		m.cursor = 0
		if pending := m.review.Results().Pending; len(pending) > 0 {
			m.cursor = int(pending[0]) - 1
		}
	}
	return m, nil
}

func (m *Model) updateManche(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor = wrapIndex(m.cursor-1, model.NumManches)
	case key.Matches(msg, m.keys.Down):
		m.cursor = wrapIndex(m.cursor+1, model.NumManches)
	case key.Matches(msg, m.keys.Select):
		m.manche = model.AllManches[m.cursor]
		m.step = stepCommittee
		m.cursor = 0
		if picked, ok := m.review.Results().Picked(m.manche); ok {
			for i, c := range model.Committees {
				if c == picked.Committee {
					m.cursor = i
				}
			}
		}
	case key.Matches(msg, m.keys.Back):
		if err := m.review.Cancel(); err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.step = stepProposal
	}
	return m, nil
}

func (m *Model) updateCommittee(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor = wrapIndex(m.cursor-1, len(model.Committees))
	case key.Matches(msg, m.keys.Down):
		m.cursor = wrapIndex(m.cursor+1, len(model.Committees))
	case key.Matches(msg, m.keys.Select):
		if err := m.review.Force(m.manche, model.Committees[m.cursor]); err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.step = stepProposal
	case key.Matches(msg, m.keys.Back):
		m.step = stepManche
		m.cursor = int(m.manche) - 1
	}
	return m, nil
}

func wrapIndex(i, n int) int {
	return ((i % n) + n) % n
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder
	switch m.step {
	case stepProposal:
		b.WriteString(titleStyle.Render("Ces traceurs sont-ils ok ?"))
		b.WriteString("\n\n")
		var table strings.Builder
		if err := report.RenderTable(&table, m.review.Results()); err != nil {
			table.WriteString(errorStyle.Render(err.Error()))
		}
		b.WriteString(table.String())
		if c, ok := draw.RepeatedDraw(m.review.Results()); ok {
			b.WriteString(warnStyle.Render(fmt.Sprintf("Attention : %s trace les manches 2 et 4.", c)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(m.help.View(helpKeys{m.keys.Confirm, m.keys.Revise, m.keys.Quit}))
	case stepManche:
		b.WriteString(titleStyle.Render("Quelle manche modifier ?"))
		b.WriteString("\n\n")
		results := m.review.Results()
		for i, mc := range model.AllManches {
			current := "-"
			if picked, ok := results.Picked(mc); ok {
				current = string(picked.Committee)
			}
			b.WriteString(m.renderItem(i, fmt.Sprintf("Manche %d (%s)", int(mc), current)))
		}
		b.WriteString("\n")
		b.WriteString(m.help.View(helpKeys{m.keys.Up, m.keys.Down, m.keys.Select, m.keys.Back, m.keys.Quit}))
	case stepCommittee:
		b.WriteString(titleStyle.Render(fmt.Sprintf("Comité pour la manche %d", int(m.manche))))
		b.WriteString("\n\n")
		for i, c := range model.Committees {
			b.WriteString(m.renderItem(i, string(c)))
		}
		b.WriteString("\n")
		b.WriteString(m.help.View(helpKeys{m.keys.Up, m.keys.Down, m.keys.Select, m.keys.Back, m.keys.Quit}))
	}
	if m.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.errMsg))
	}
	return frameStyle.Render(b.String())
}

func (m *Model) renderItem(i int, label string) string {
	if i == m.cursor {
		return cursorStyle.Render("> "+label) + "\n"
	}
	return itemStyle.Render("  "+label) + "\n"
}

// Results returns the results under review.
func (m *Model) Results() model.Results {
	return m.review.Results()
}

// Confirmed returns the history entry once the operator confirmed.
func (m *Model) Confirmed() (model.HistoryEntry, bool) {
	return m.entry, m.review.State() == draw.Confirmed
}

// Outcome is the result of a completed review.
type Outcome struct {
	Results model.Results
	Entry   model.HistoryEntry
}

// Run shows the review UI until the operator confirms or aborts.
func Run(ctx context.Context, results model.Results, opts ...tea.ProgramOption) (Outcome, error) {
	m := NewModel(results)
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to run review UI: %w", err)
	}
	fm, ok := final.(*Model)
	if !ok {
		return Outcome{}, fmt.Errorf("unexpected review model %T", final)
	}
	entry, confirmed := fm.Confirmed()
	if fm.aborted || !confirmed {
		return Outcome{}, ErrAborted
	}
	return Outcome{Results: fm.Results(), Entry: entry}, nil
}
