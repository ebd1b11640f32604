package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/trawl/internal/hub"
)

// focusedEntry returns the entry the list cursor is on.
func (m Model) focusedEntry() (hub.Entry, bool) {
	v := m.snapshot.View
	v.HasFocus = m.list.hasFocus
	v.FocusedID = m.list.focusID
	return v.Focused()
}

// updateDetailViewport resizes the detail pane and reloads it when the focus
// moved to another entry.
func (m *Model) updateDetailViewport() {
	if !m.ready || !m.showDetail {
		return
	}
	_, height := m.tailLayout()
	width := max(m.width-4, 10)
	innerHeight := max(height-2, 1)
	if m.detailViewport.Width == 0 {
		m.detailViewport = viewport.New(width, innerHeight)
		m.detailID = -1
	}
	m.detailViewport.Width = width
	m.detailViewport.Height = innerHeight

	e, ok := m.focusedEntry()
	id := int64(-1)
	if ok {
		id = e.ID
	}
	if id == m.detailID {
		return
	}
	m.detailID = id
	if !ok {
		m.detailViewport.SetContent(m.theme.Styles().MutedText.Render("No entry focused"))
		return
	}
	m.detailViewport.SetContent(detailContent(e))
	m.detailViewport.GotoTop()
}

// detailContent renders the entry's raw payload as indented JSON, falling
// back to the decoded fields when the payload is not kept.
func detailContent(e hub.Entry) string {
	if len(e.Raw) > 0 {
		var buf bytes.Buffer
		if err := json.Indent(&buf, e.Raw, "", "  "); err == nil {
			return buf.String()
		}
		return string(e.Raw)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "id:        %d\n", e.ID)
	if t := e.Time(); !t.IsZero() {
		fmt.Fprintf(&b, "time:      %s\n", t.Format("2006-01-02 15:04:05.000"))
	}
	fmt.Fprintf(&b, "protocol:  %s\n", e.Protocol)
	fmt.Fprintf(&b, "method:    %s\n", e.Method)
	fmt.Fprintf(&b, "path:      %s\n", e.Path)
	fmt.Fprintf(&b, "status:    %d\n", e.Status)
	fmt.Fprintf(&b, "src:       %s\n", e.Src)
	fmt.Fprintf(&b, "dst:       %s\n", e.Dst)
	if e.Summary != "" {
		fmt.Fprintf(&b, "summary:   %s\n", e.Summary)
	}
	return b.String()
}

func (m Model) renderDetail(height int) string {
	title := "Detail"
	if e, ok := m.focusedEntry(); ok {
		title = fmt.Sprintf("Entry #%d", e.ID)
	}
	return m.renderBox(title, m.detailViewport.View(), m.width, height, true)
}

// renderBox draws content in a rounded border with title in the top edge.
func (m Model) renderBox(title, content string, width, height int, focused bool) string {
	borderColor := m.theme.Border
	if focused {
		borderColor = m.theme.BorderFocus
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(borderColor)).
		Width(max(width-2, 1)).
		Height(max(height-2, 1)).
		MaxHeight(height).
		Render(content)

	if title == "" {
		return box
	}
	// Splice the title into the top border.
	lines := strings.SplitN(box, "\n", 2)
	label := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Accent)).Bold(true).Render(" " + title + " ")
	edge := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColor))
	fill := max(width-lipgloss.Width(label)-3, 0)
	lines[0] = edge.Render("╭─") + label + edge.Render(strings.Repeat("─", fill)+"╮")
	return strings.Join(lines, "\n")
}
