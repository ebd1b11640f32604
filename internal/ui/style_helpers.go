package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// bgStyle paints every cell of a line, spaces included, on one background.
// lipgloss resets between styled segments otherwise leave gaps.
type bgStyle struct {
	bg    lipgloss.Color
	space string
}

func newBgStyle(color string) bgStyle {
	bg := lipgloss.Color(color)
	return bgStyle{bg: bg, space: lipgloss.NewStyle().Background(bg).Render(" ")}
}

func (b bgStyle) render(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	style = style.Background(b.bg)
	if !strings.Contains(text, " ") {
		return style.Render(text)
	}
	words := strings.Split(text, " ")
	for i, w := range words {
		if w != "" {
			words[i] = style.Render(w)
		}
	}
	return strings.Join(words, b.space)
}

func (b bgStyle) spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return lipgloss.NewStyle().Background(b.bg).Render(strings.Repeat(" ", n))
}

func (b bgStyle) join(parts []string, sep string) string {
	return strings.Join(parts, lipgloss.NewStyle().Background(b.bg).Render(sep))
}

func (b bgStyle) fill(content string, width int) string {
	return lipgloss.NewStyle().Background(b.bg).Width(width).MaxWidth(width).Render(content)
}
