// Package historyui provides the Bubble Tea history browser.
package historyui

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mlfcnt/tracer-picker/internal/model"
	"github.com/mlfcnt/tracer-picker/internal/report"
)

const (
	tabCommittees = iota
	tabDraws
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the history browser.
type Model struct {
	history    model.SelectionHistory
	committees []model.Committee
	cfg        model.WeightConfig

	tabs      []string
	activeTab int
	table     table.Model
	draws     viewport.Model

	width  int
	height int
}

// NewModel constructs a browser over history.
func NewModel(history model.SelectionHistory, committees []model.Committee, cfg model.WeightConfig) *Model {
	m := &Model{
		history:    history,
		committees: committees,
		cfg:        cfg,
		tabs:       []string{"Comités", "Tirages"},
		draws:      viewport.New(0, 0),
	}
	m.table = buildTable(report.CommitteeStats(history, committees, cfg))
	m.table.Focus()
	m.draws.SetContent(renderDraws(history))
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l", "tab":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "g", "home":
			if m.activeTab == tabCommittees {
				m.table.GotoTop()
			} else {
				m.draws.GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabCommittees {
				m.table.GotoBottom()
			} else {
				m.draws.GotoBottom()
			}
			return m, nil
		}
		var cmd tea.Cmd
		if m.activeTab == tabCommittees {
			m.table, cmd = m.table.Update(msg)
		} else {
			m.draws, cmd = m.draws.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	var body string
	switch {
	case m.history.Len() == 0:
		body = "No selections recorded."
	case m.activeTab == tabCommittees:
		body = tableMutedStyle.Render(m.table.View())
	default:
		body = m.draws.View()
	}
	footer := headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Quit: q")
	return strings.Join([]string{header, fitLines(body, m.width, bodyHeight), footer}, "\n")
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight int) {
	headerHeight = lipgloss.Height(activeNavStyle.Render("X")) + 1
	bodyHeight = m.height - headerHeight - 1
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight := m.layoutHeights()
	m.draws.Width = m.width
	m.draws.Height = bodyHeight
	m.table.SetWidth(m.width)
	m.table.SetHeight(maxInt(1, bodyHeight-1))
}

func (m *Model) moveTab(delta int) {
	m.activeTab = (m.activeTab + delta + len(m.tabs)) % len(m.tabs)
	if m.activeTab == tabCommittees {
		m.table.Focus()
	} else {
		m.table.Blur()
	}
}

func (m *Model) renderHeader() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	tabs := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	summary := fmt.Sprintf("History: %d competitions  occurrence=%t  recency=%t",
		m.history.Len(), m.cfg.OccurrenceWeightEnabled, m.cfg.CompetitionsSinceLastTraceWeightEnabled)
	return tabs + "\n" + headerStyle.Render(summary)
}

func buildTable(stats []report.CommitteeStat) table.Model {
	columns := []table.Column{
		{Title: "Comité", Width: 6},
		{Title: "Occurrences", Width: 11},
		{Title: "Since last", Width: 10},
		{Title: "Factor", Width: 8},
		{Title: "Recent", Width: 22},
	}
	rows := make([]table.Row, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, table.Row{
			string(s.Committee),
			fmt.Sprintf("%d", s.Occurrences),
			s.Since,
			fmt.Sprintf("%.3f", s.Factor),
			"|" + s.Recent + "|",
		})
	}
	t := table.New(table.WithColumns(columns), table.WithRows(rows), table.WithHeight(len(rows)+1))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		BorderBottom(true).
		Bold(false)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#F0F0F0")).
		Background(lipgloss.Color("#5A4A2A")).
		Bold(false)
	t.SetStyles(styles)
	return t
}

func renderDraws(history model.SelectionHistory) string {
	var buf bytes.Buffer
	if err := report.RenderSelections(&buf, history); err != nil {
		return fmt.Sprintf("Failed to render draws: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

// Run starts the browser and blocks until the user quits.
func Run(ctx context.Context, history model.SelectionHistory, committees []model.Committee, cfg model.WeightConfig) error {
	p := tea.NewProgram(NewModel(history, committees, cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if w := lipgloss.Width(line); w < width {
			lines[i] = line + strings.Repeat(" ", width-w)
		}
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
