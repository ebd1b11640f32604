package ui

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/trawl/internal/prefs"
)

func (m *Model) openFilterInput() {
	m.editingFilter = true
	m.filterInput.SetValue(m.snapshot.View.Filter)
	m.filterInput.CursorEnd()
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.editingFilter = false
		m.filterInput.Blur()
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		m.editingFilter = false
		m.filterInput.Blur()
		m.applyFilter(m.filterInput.Value())
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	return m, cmd
}

// applyFilter restarts the tail with filter and remembers it for next launch.
func (m *Model) applyFilter(filter string) {
	filter = strings.TrimSpace(filter)
	m.filterInput.SetValue(filter)
	if m.ctl != nil {
		m.ctl.SetFilter(filter)
	}
	m.list = listState{
		follow:    true,
		jumpSeq:   m.list.jumpSeq,
		anchorSeq: m.list.anchorSeq,
	}
	m.detailID = -1
	if filter != "" {
		m.recent = slices.DeleteFunc(m.recent, func(f string) bool { return f == filter })
		m.recent = slices.Insert(m.recent, 0, filter)
		if len(m.recent) > prefs.MaxRecentFilters {
			m.recent = m.recent[:prefs.MaxRecentFilters]
		}
		m.filterInput.SetSuggestions(m.recent)
	}
	m.savePrefs(func(p *prefs.Prefs) { p.RememberFilter(filter) })
}

func (m Model) renderFilterInput() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Filter"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 40)))
	b.WriteString("\n\n")
	b.WriteString(styles.MutedText.Render("Applying a filter restarts the tail from an empty list."))
	b.WriteString("\n\n")
	b.WriteString(m.filterInput.View())
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("Enter: Apply  •  Tab: Complete  •  Ctrl+N/P: History  •  Esc: Cancel"))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(min(max(m.width-8, 30), 90))

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}
