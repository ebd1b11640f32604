package ui

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/trawl/internal/hub"
	"github.com/five82/trawl/internal/tail"
)

// listState tracks the entry list window. Positions are kept by id so
// evictions below and prepends above do not move what the user is reading.
type listState struct {
	offset int
	topID  int64

	// follow keeps the newest entry in view. It is the local copy of the
	// snap state; the view catches up a tick later.
	follow bool

	focusID  int64
	hasFocus bool

	anchorSeq uint64
	jumpSeq   uint64

	reported  bool
	atTop     bool
	scrollbar bool
}

func (m Model) entries() []hub.Entry {
	return m.snapshot.View.Entries
}

func indexOf(entries []hub.Entry, id int64) int {
	i, found := slices.BinarySearchFunc(entries, id, func(e hub.Entry, target int64) int {
		return cmp.Compare(e.ID, target)
	})
	if !found {
		return -1
	}
	return i
}

// syncList reconciles the window with the latest view and reports viewport
// changes back to the actor.
func (m *Model) syncList() {
	if !m.ready {
		return
	}
	v := m.snapshot.View
	n := len(v.Entries)
	h, _ := m.tailLayout()

	switch {
	case v.JumpToBottom != m.list.jumpSeq:
		m.list.jumpSeq = v.JumpToBottom
		m.list.follow = true
		m.list.offset = bottomOffset(n, h)
	case v.ScrollAnchor.Seq != m.list.anchorSeq && !m.list.follow:
		m.list.offset = v.ScrollAnchor.Index
	case m.list.follow:
		m.list.offset = bottomOffset(n, h)
	case m.list.atTop:
		// A page without an anchor (the last one) leaves the window at the
		// top so the end-of-history indicator stays up.
		m.list.offset = 0
	default:
		if i := indexOf(v.Entries, m.list.topID); i >= 0 {
			m.list.offset = i
		} else {
			m.list.offset = 0
		}
	}
	m.list.anchorSeq = v.ScrollAnchor.Seq

	if m.list.hasFocus && indexOf(v.Entries, m.list.focusID) < 0 {
		m.list.hasFocus = false
	}
	if !m.list.hasFocus && v.HasFocus {
		m.list.focusID = v.FocusedID
		m.list.hasFocus = true
	}

	m.clampList()
	m.reportViewport()
}

func bottomOffset(n, height int) int {
	return max(n-height, 0)
}

func (m *Model) clampList() {
	entries := m.entries()
	h, _ := m.tailLayout()
	m.list.offset = min(max(m.list.offset, 0), bottomOffset(len(entries), h))
	if len(entries) > 0 {
		m.list.topID = entries[m.list.offset].ID
	} else {
		m.list.topID = 0
	}
}

// reportViewport tells the actor about top-of-list and scrollbar changes.
// Being at the top only counts when the list can scroll at all.
func (m *Model) reportViewport() {
	if m.ctl == nil {
		return
	}
	h, _ := m.tailLayout()
	scrollbar := len(m.entries()) > h
	atTop := scrollbar && m.list.offset == 0

	if !m.list.reported || scrollbar != m.list.scrollbar {
		m.ctl.ObserveViewport(scrollbar)
	}
	if !m.list.reported || atTop != m.list.atTop {
		if atTop {
			m.ctl.ScrollTop()
		} else {
			m.ctl.ScrollAway()
		}
	}
	m.list.reported = true
	m.list.scrollbar = scrollbar
	m.list.atTop = atTop
}

// scrollBy moves the window. Moving up breaks the snap to live.
func (m *Model) scrollBy(delta int) {
	if delta < 0 {
		m.breakFollow()
	}
	m.list.offset += delta
	m.clampList()
	m.reportViewport()
}

func (m *Model) breakFollow() {
	if !m.list.follow {
		return
	}
	m.list.follow = false
	if m.ctl != nil {
		m.ctl.BreakSnap()
	}
}

// moveFocus shifts the focused entry by delta rows and keeps it visible.
func (m *Model) moveFocus(delta int) {
	entries := m.entries()
	if len(entries) == 0 {
		return
	}
	idx := len(entries) - 1
	if m.list.hasFocus {
		if i := indexOf(entries, m.list.focusID); i >= 0 {
			idx = i
		}
	}
	target := min(max(idx+delta, 0), len(entries)-1)
	if target == idx && m.list.hasFocus {
		if delta < 0 {
			m.scrollBy(delta)
		}
		return
	}
	m.setFocus(entries[target].ID)

	h, _ := m.tailLayout()
	switch {
	case target < m.list.offset:
		m.scrollBy(target - m.list.offset)
	case target >= m.list.offset+h:
		m.scrollBy(target - (m.list.offset + h - 1))
	case delta < 0:
		m.breakFollow()
	}
}

func (m *Model) setFocus(id int64) {
	m.list.focusID = id
	m.list.hasFocus = true
	if m.ctl != nil {
		m.ctl.Focus(id)
	}
	m.updateDetailViewport()
}

func (m *Model) snapToLive() {
	m.list.follow = true
	if m.ctl != nil {
		m.ctl.SnapToBottom()
	}
	h, _ := m.tailLayout()
	m.list.offset = bottomOffset(len(m.entries()), h)
	m.clampList()
	m.reportViewport()
}

func (m Model) handleTailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	h, _ := m.tailLayout()
	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveFocus(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveFocus(1)
	case key.Matches(msg, m.keys.HalfPageUp):
		m.scrollBy(-max(h/2, 1))
	case key.Matches(msg, m.keys.HalfPageDown):
		m.scrollBy(max(h/2, 1))
	case key.Matches(msg, m.keys.PageUp):
		m.scrollBy(-h)
	case key.Matches(msg, m.keys.PageDown):
		m.scrollBy(h)
	case key.Matches(msg, m.keys.Top):
		m.scrollBy(-m.list.offset)
	case key.Matches(msg, m.keys.SnapToLive):
		m.snapToLive()
	case key.Matches(msg, m.keys.LoadOlder):
		if m.snapshot.View.ShowLoadOlderButton && m.ctl != nil {
			m.ctl.LoadOlder()
		}
	case key.Matches(msg, m.keys.Pause):
		if m.ctl != nil && m.snapshot.View.ConnState != tail.Disconnected {
			m.ctl.Close()
		}
	case key.Matches(msg, m.keys.Filter):
		m.openFilterInput()
		cmd := m.filterInput.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.ClearFilter):
		m.applyFilter("")
	case key.Matches(msg, m.keys.ToggleDetail):
		m.showDetail = !m.showDetail
		m.clampList()
		m.reportViewport()
		m.updateDetailViewport()
	case key.Matches(msg, m.keys.Escape):
		if m.showDetail {
			m.showDetail = false
			m.clampList()
			m.reportViewport()
		}
	case key.Matches(msg, m.keys.DismissToast):
		if toasts := m.snapshot.Toasts; len(toasts) > 0 && m.store != nil {
			m.store.Dismiss(toasts[len(toasts)-1].ID)
			m.snapshot.Toasts = toasts[:len(toasts)-1]
		}
	default:
		if m.showDetail {
			var cmd tea.Cmd
			m.detailViewport, cmd = m.detailViewport.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// renderTail draws the indicator line, the list, the optional detail pane,
// the toast line and the footer.
func (m Model) renderTail() string {
	listHeight, detailHeight := m.tailLayout()
	parts := []string{m.renderTopIndicator(), m.renderList(listHeight)}
	if detailHeight > 0 {
		parts = append(parts, m.renderDetail(detailHeight))
	}
	parts = append(parts, m.renderToastLine(), m.renderFooter())
	return strings.Join(parts, "\n")
}

func (m Model) renderTopIndicator() string {
	bg := newBgStyle(m.theme.Background)
	styles := m.theme.Styles()
	v := m.snapshot.View

	var content string
	switch {
	case v.IsLoadingTop:
		content = bg.render(m.spinner.View(), styles.AccentText) + bg.spaces(1) +
			bg.render("Loading older entries", styles.MutedText)
	case v.NoMoreDataTop:
		content = bg.render("No more data available", styles.FaintText)
	case v.ShowLoadOlderButton:
		content = bg.render("o", styles.AccentText) + bg.render(":", styles.FaintText) +
			bg.render("Load older entries", styles.MutedText)
	case m.list.offset > 0:
		content = bg.render(fmt.Sprintf("↑ %d more", m.list.offset), styles.FaintText)
	}
	return bg.fill(content, m.width)
}

func (m Model) renderList(height int) string {
	bg := newBgStyle(m.theme.Background)
	entries := m.entries()
	lines := make([]string, 0, height)

	if len(entries) == 0 {
		msg := "Waiting for traffic..."
		if m.snapshot.IsOffline() {
			msg = "Live feed paused. Press G to resume."
		}
		lines = append(lines, bg.fill(bg.render(msg, m.theme.Styles().MutedText), m.width))
	}

	end := min(m.list.offset+height, len(entries))
	for i := m.list.offset; i < end && len(entries) > 0; i++ {
		e := entries[i]
		focused := m.list.hasFocus && e.ID == m.list.focusID
		lines = append(lines, m.renderRow(e, focused))
	}
	for len(lines) < height {
		lines = append(lines, bg.spaces(m.width))
	}
	return strings.Join(lines, "\n")
}

// entryCells splits an entry into its display columns.
func entryCells(e hub.Entry) (ts, proto, method, status, route, summary string) {
	if t := e.Time(); !t.IsZero() {
		ts = t.Format("15:04:05.000")
	} else {
		ts = "--:--:--.---"
	}
	proto = strings.ToUpper(e.Protocol)
	method = e.Method
	if e.Status > 0 {
		status = strconv.Itoa(e.Status)
	}
	route = e.Src.String() + " → " + e.Dst.String()
	summary = e.Path
	if summary == "" {
		summary = e.Summary
	}
	return ts, proto, method, status, route, summary
}

func (m Model) renderRow(e hub.Entry, focused bool) string {
	bgColor := m.theme.Background
	if focused {
		bgColor = m.theme.SelectionBg
	}
	bg := newBgStyle(bgColor)
	styles := m.theme.Styles()

	ts, proto, method, status, route, summary := entryCells(e)
	protoStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ProtocolColor(strings.ToLower(e.Protocol)))).Bold(true)
	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StatusColor(e.Status)))
	textStyle := styles.Text
	if focused {
		textStyle = styles.Selected
	}

	cells := []string{
		bg.render(fmt.Sprintf("%-12s", ts), styles.FaintText),
		bg.render(fmt.Sprintf("%-6s", truncate(proto, 6)), protoStyle),
		bg.render(fmt.Sprintf("%-7s", truncate(method, 7)), textStyle),
		bg.render(fmt.Sprintf("%3s", status), statusStyle),
	}
	if m.width >= LayoutWideWidth {
		cells = append(cells, bg.render(truncateMiddle(route, 48), styles.MutedText))
	}
	cells = append(cells, bg.render(summary, textStyle))

	return bg.fill(" "+bg.join(cells, "  "), m.width)
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := newBgStyle(m.theme.Surface)
	v := m.snapshot.View

	parts := []string{
		bg.render(displayingText(v.EntryCount, v.Total), styles.MutedText),
	}
	if v.ShowSnapToLiveButton {
		parts = append(parts, bg.render("G", styles.AccentText)+bg.render(":", styles.FaintText)+
			bg.render("Snap to live", styles.WarningText))
	}
	if started := startedText(v.DisplayedStartTime); started != "" {
		parts = append(parts, bg.render(started, styles.FaintText))
	}
	return styles.Header.Width(m.width).Render(bg.join(parts, "  •  "))
}

// displayingText is the result counter shown in the footer.
func displayingText(count int, total int64) string {
	return fmt.Sprintf("Displaying %d results out of %d total", count, total)
}
