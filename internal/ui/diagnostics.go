package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/trawl/internal/logtail"
)

// diagState holds the diagnostics screen, a tail of trawl's own log file.
type diagState struct {
	viewport    viewport.Model
	lines       []string
	follow      bool
	minLevel    string
	err         error
	lastRefresh time.Time
}

var diagLevels = []string{"", logtail.LevelInfo, logtail.LevelWarn, logtail.LevelError}

type diagLinesMsg struct {
	lines []string
}

type diagErrorMsg struct {
	err error
}

// refreshDiagnostics reads the log tail off the update loop.
func (m *Model) refreshDiagnostics() tea.Cmd {
	if m.logPath == "" {
		return nil
	}
	if time.Since(m.diag.lastRefresh) < diagRefreshInterval {
		return nil
	}
	m.diag.lastRefresh = time.Now()

	path := m.logPath
	return func() tea.Msg {
		lines, err := logtail.Read(path, diagLineLimit)
		if err != nil {
			return diagErrorMsg{err: err}
		}
		return diagLinesMsg{lines: lines}
	}
}

func (m *Model) handleDiagLines(msg diagLinesMsg) {
	m.diag.err = nil
	m.diag.lines = msg.lines
	m.updateDiagViewport()
}

func (m *Model) updateDiagViewport() {
	if !m.ready {
		return
	}
	width := max(m.width-4, 10)
	height := max(m.height-5, 1)
	if m.diag.viewport.Width == 0 {
		m.diag.viewport = viewport.New(width, height)
	}
	m.diag.viewport.Width = width
	m.diag.viewport.Height = height
	m.diag.viewport.SetContent(m.renderDiagContent())
	if m.diag.follow {
		m.diag.viewport.GotoBottom()
	}
}

func (m Model) renderDiagContent() string {
	styles := m.theme.Styles()
	lines := logtail.Filter(m.diag.lines, m.diag.minLevel)
	if len(lines) == 0 {
		if m.logPath == "" {
			return styles.MutedText.Render("Logging to file is disabled")
		}
		return styles.MutedText.Render("No log entries")
	}

	var b strings.Builder
	for i, line := range lines {
		b.WriteString(m.colorizeLogLine(line, styles))
		if i < len(lines)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// colorizeLogLine styles a tint line: faint timestamp, colored level, plain
// message and muted attributes.
func (m Model) colorizeLogLine(line string, styles Styles) string {
	level := logtail.Level(line)
	if level == "" {
		return styles.MutedText.Render(line)
	}
	idx := strings.Index(line, " "+level+" ")
	if idx < 0 {
		return styles.Text.Render(line)
	}
	ts := line[:idx]
	rest := line[idx+len(level)+2:]

	var levelStyle lipgloss.Style
	switch level {
	case logtail.LevelError:
		levelStyle = styles.DangerText
	case logtail.LevelWarn:
		levelStyle = styles.WarningText.Bold(true)
	case logtail.LevelDebug:
		levelStyle = styles.InfoText
	default:
		levelStyle = styles.SuccessText
	}

	msg, attrs := splitAttrs(rest)
	out := styles.FaintText.Render(ts) + " " + levelStyle.Render(level) + " " + styles.Text.Render(msg)
	if attrs != "" {
		out += " " + styles.MutedText.Render(attrs)
	}
	return out
}

// splitAttrs separates a message from its trailing key=value attributes.
func splitAttrs(s string) (msg, attrs string) {
	fields := strings.Fields(s)
	for i, f := range fields {
		if strings.Contains(f, "=") {
			return strings.Join(fields[:i], " "), strings.Join(fields[i:], " ")
		}
	}
	return s, ""
}

func (m Model) handleDiagKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.screen = screenTail
	case msg.String() == " ":
		m.diag.follow = !m.diag.follow
		if m.diag.follow {
			m.diag.viewport.GotoBottom()
		}
	case key.Matches(msg, m.keys.CycleLevel):
		m.diag.minLevel = nextLevel(m.diag.minLevel)
		m.updateDiagViewport()
	case key.Matches(msg, m.keys.Up):
		m.diag.viewport.ScrollUp(1)
		m.diag.follow = false
	case key.Matches(msg, m.keys.Down):
		m.diag.viewport.ScrollDown(1)
	case key.Matches(msg, m.keys.HalfPageUp):
		m.diag.viewport.HalfPageUp()
		m.diag.follow = false
	case key.Matches(msg, m.keys.HalfPageDown):
		m.diag.viewport.HalfPageDown()
	case key.Matches(msg, m.keys.PageUp):
		m.diag.viewport.PageUp()
		m.diag.follow = false
	case key.Matches(msg, m.keys.PageDown):
		m.diag.viewport.PageDown()
	case key.Matches(msg, m.keys.Top):
		m.diag.viewport.GotoTop()
		m.diag.follow = false
	case key.Matches(msg, m.keys.SnapToLive):
		m.diag.viewport.GotoBottom()
		m.diag.follow = true
	}
	return m, nil
}

func nextLevel(current string) string {
	for i, l := range diagLevels {
		if l == current {
			return diagLevels[(i+1)%len(diagLevels)]
		}
	}
	return diagLevels[0]
}

func (m Model) renderDiagnostics() string {
	styles := m.theme.Styles()
	contentHeight := m.height - 3

	box := m.renderBox("Diagnostics Log", m.diag.viewport.View(), m.width, contentHeight, true)

	status := fmt.Sprintf("%d lines", len(m.diag.lines))
	if m.diag.minLevel != "" {
		status += " • level ≥ " + levelLabel(m.diag.minLevel)
	}
	if m.logPath != "" {
		status += " • " + truncateMiddle(m.logPath, 60)
	}
	if m.diag.err != nil {
		return box + "\n" + styles.DangerText.Render(truncate(m.diag.err.Error(), m.width))
	}
	return box + "\n" + styles.FaintText.Render(status)
}
