// Package browse is a small terminal viewer over the applications table,
// for checking what the pipeline extracted without starting the report server.
package browse

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amitkr/jobmail/internal/status"
	"github.com/amitkr/jobmail/internal/store"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("39"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	rowStyle = lipgloss.NewStyle()

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Width(12)
)

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

// statusFilters cycles "" (all) followed by each canonical status.
var statusFilters = func() []string {
	fs := []string{""}
	for _, s := range status.All {
		fs = append(fs, s.String())
	}
	return fs
}()

type model struct {
	rows      []store.ApplicationView
	visible   []store.ApplicationView
	cursor    int
	filterIdx int
	view      viewState
	vp        viewport.Model
	width     int
	height    int
}

// Run loads stored applications and starts the interactive viewer.
func Run(ctx context.Context, st *store.SQLiteStore) error {
	rows, _, err := st.ListApplications(ctx, store.ApplicationFilter{PageSize: 200})
	if err != nil {
		return fmt.Errorf("loading applications: %w", err)
	}

	m := model{rows: rows, vp: viewport.New(0, 0)}
	m.applyFilter()

	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m model) Init() tea.Cmd { return nil }

func (m *model) applyFilter() {
	want := statusFilters[m.filterIdx]
	if want == "" {
		m.visible = m.rows
	} else {
		m.visible = nil
		for _, r := range m.rows {
			if r.Status == want {
				m.visible = append(m.visible, r)
			}
		}
	}
	if m.cursor >= len(m.visible) {
		m.cursor = 0
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.vp.Width = msg.Width - 2
		m.vp.Height = msg.Height - 4
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.view == viewDetail {
				m.view = viewList
				return m, nil
			}
			return m, tea.Quit
		case "esc":
			m.view = viewList
			return m, nil
		case "up", "k":
			if m.view == viewList && m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.view == viewList && m.cursor < len(m.visible)-1 {
				m.cursor++
			}
		case "s":
			if m.view == viewList {
				m.filterIdx = (m.filterIdx + 1) % len(statusFilters)
				m.applyFilter()
			}
		case "enter":
			if m.view == viewList && len(m.visible) > 0 {
				m.vp.SetContent(m.detailContent())
				m.vp.GotoTop()
				m.view = viewDetail
			}
		}
	}

	if m.view == viewDetail {
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	if m.view == viewDetail {
		return headerStyle.Render("application") + "\n" + m.vp.View() + "\n" +
			statusBarStyle.Render("esc back · q quit")
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("applications (%d)", len(m.visible))))
	b.WriteString("\n")

	visibleLines := m.height - 4
	if visibleLines < 1 {
		visibleLines = 10
	}
	start := 0
	if m.cursor >= visibleLines {
		start = m.cursor - visibleLines + 1
	}
	for i := start; i < len(m.visible) && i < start+visibleLines; i++ {
		r := m.visible[i]
		line := fmt.Sprintf("%-24s %-32s %-10s %s",
			clip(r.Company, 24), clip(r.JobTitle, 32), r.Status, r.DateEmailISO)
		if i == m.cursor {
			b.WriteString(selectedRowStyle.Render(line))
		} else {
			b.WriteString(rowStyle.Render(line))
		}
		b.WriteString("\n")
	}
	if len(m.visible) == 0 {
		b.WriteString(dimStyle.Render("no applications"))
		b.WriteString("\n")
	}

	filterLabel := statusFilters[m.filterIdx]
	if filterLabel == "" {
		filterLabel = "all"
	}
	b.WriteString(statusBarStyle.Render(
		fmt.Sprintf("filter: %s · s cycle status · enter detail · q quit", filterLabel)))
	return b.String()
}

func (m model) detailContent() string {
	r := m.visible[m.cursor]
	var b strings.Builder
	write := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(" ")
		b.WriteString(value)
		b.WriteString("\n")
	}
	write("company", r.Company)
	write("title", r.JobTitle)
	write("status", r.Status)
	write("email date", r.DateEmail)
	write("iso date", r.DateEmailISO)
	return b.String()
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
