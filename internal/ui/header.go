package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/trawl/internal/hub"
	"github.com/five82/trawl/internal/protocol"
	"github.com/five82/trawl/internal/tail"
)

// LayoutWideWidth is the width from which the src → dst column is shown.
const LayoutWideWidth = 120

// renderHeader renders the status bar: feed state, tapping, filter and the
// last tail error.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := newBgStyle(m.theme.Surface)
	compact := m.width < LayoutWideWidth

	parts := []string{bg.render("trawl", styles.Logo)}

	if !m.snapshot.HasView {
		parts = append(parts, bg.render("Starting...", styles.WarningText.Bold(true)))
		return styles.Header.Width(m.width).Render(bg.join(parts, "  "))
	}
	v := m.snapshot.View

	label, style := connLabel(v.ConnState, styles)
	parts = append(parts, bg.render(label, style))

	if tapping := tappingText(v.TappingStatus); tapping != "" {
		tappingStyle := styles.Text
		if tappedCount(v.TappingStatus) == 0 {
			tappingStyle = styles.WarningText
		}
		parts = append(parts, bg.render("Tapping:", styles.MutedText)+bg.spaces(1)+bg.render(tapping, tappingStyle))
	}

	filter := v.Filter
	if filter == "" {
		filter = "none"
	}
	maxFilter := 60
	if compact {
		maxFilter = 24
	}
	parts = append(parts, bg.render("Filter:", styles.MutedText)+bg.spaces(1)+
		bg.render(truncate(filter, maxFilter), styles.AccentText))

	if v.LastError != nil {
		maxErr := 80
		if compact {
			maxErr = 40
		}
		parts = append(parts, bg.render("ERROR", styles.DangerText)+bg.spaces(1)+
			bg.render(truncate(v.LastError.Error(), maxErr), styles.DangerText))
	}

	return styles.Header.Width(m.width).Render(bg.join(parts, "  "))
}

func connLabel(state tail.ConnState, styles Styles) (string, lipgloss.Style) {
	switch state {
	case tail.Connected:
		return "● LIVE", styles.SuccessText
	case tail.Connecting:
		return "● CONNECTING", styles.WarningText.Bold(true)
	default:
		return "● PAUSED", styles.DangerText
	}
}

func tappedCount(pods []hub.PodStatus) int {
	n := 0
	for _, p := range pods {
		if p.IsTapped {
			n++
		}
	}
	return n
}

// tappingText summarizes tapping status as "tapped/total pods".
func tappingText(pods []hub.PodStatus) string {
	if len(pods) == 0 {
		return ""
	}
	return fmt.Sprintf("%d/%d pods", tappedCount(pods), len(pods))
}

// renderCommandBar renders the key hints for the active screen.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := newBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.screen {
	case screenDiagnostics:
		followLabel := "Pause"
		if !m.diag.follow {
			followLabel = "Follow"
		}
		commands = []cmd{
			{"Space", followLabel},
			{"f", "Level " + levelLabel(m.diag.minLevel)},
			{"j/k", "Scroll"},
			{"L", "Back"},
			{"?", "More"},
		}
	default:
		v := m.snapshot.View
		commands = []cmd{
			{"j/k", "Navigate"},
			{"/", "Filter"},
			{"enter", "Detail"},
		}
		if v.ShowLoadOlderButton {
			commands = append(commands, cmd{"o", "Load older"})
		}
		if v.ShowSnapToLiveButton {
			commands = append(commands, cmd{"G", "Snap to live"})
		}
		if v.ConnState != tail.Disconnected {
			commands = append(commands, cmd{"p", "Pause"})
		}
		commands = append(commands, cmd{"L", "Diagnostics"}, cmd{"?", "More"})
	}

	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.render(c.key, styles.AccentText)+bg.render(":", styles.FaintText)+bg.render(c.desc, styles.MutedText))
	}
	segments = append(segments,
		bg.render("T", styles.AccentText)+bg.render(":", styles.FaintText)+bg.render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(bg.join(segments, "  "))
}

// renderToastLine shows the newest hub notification.
func (m Model) renderToastLine() string {
	bg := newBgStyle(m.theme.Background)
	toasts := m.snapshot.Toasts
	if len(toasts) == 0 {
		return bg.spaces(m.width)
	}
	styles := m.theme.Styles()
	t := toasts[len(toasts)-1]

	var style lipgloss.Style
	switch t.Kind {
	case protocol.KindError:
		style = styles.DangerText
	case protocol.KindWarning:
		style = styles.WarningText
	case protocol.KindSuccess:
		style = styles.SuccessText
	default:
		style = styles.InfoText
	}

	content := bg.render("▌ "+t.Text, style)
	if more := len(toasts) - 1; more > 0 {
		content += bg.render(fmt.Sprintf("  +%d more", more), styles.FaintText)
	}
	content += bg.render("  x:dismiss", styles.FaintText)
	return bg.fill(content, m.width)
}

// startedText renders the listening start time in UTC, or "" when unknown.
func startedText(unixMillis int64) string {
	if unixMillis == 0 {
		return ""
	}
	t := time.UnixMilli(unixMillis).UTC()
	return "Started listening at " + t.Format("01/02/2006, 3:04:05.000 PM")
}

// truncate truncates a string to max runes with an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// truncateMiddle keeps both ends of s, favouring the end.
func truncateMiddle(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 5 {
		return string(r[:max])
	}
	endLen := (max - 3) * 2 / 3
	startLen := max - 3 - endLen
	return string(r[:startLen]) + "..." + string(r[len(r)-endLen:])
}

func levelLabel(level string) string {
	if level == "" {
		return "all"
	}
	return strings.ToLower(level)
}
