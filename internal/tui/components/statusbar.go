package components

import (
	"strings"

	"github.com/theirongolddev/fcast/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Status carries the right-hand indicators of the status bar.
type Status struct {
	DataAge     string
	Window      string // zoom/pan summary for chart tabs
	Refreshing  bool
	AutoRefresh bool
	Pending     bool // a scenario edit is waiting for its projection
	Message     string
	IsError     bool
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, s Status) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	warn := lipgloss.NewStyle().Foreground(t.Warn).Background(t.Surface)
	errStyle := lipgloss.NewStyle().Foreground(t.Loss).Background(t.Surface)

	left := base.Render(" [?]help  [q]uit")
	if s.Message != "" {
		style := accent
		if s.IsError {
			style = errStyle
		}
		left += base.Render("  ") + style.Render(s.Message)
	}

	var right []string
	if s.Pending {
		right = append(right, warn.Render("projecting…"))
	}
	if s.Window != "" {
		right = append(right, base.Render(s.Window))
	}
	switch {
	case s.Refreshing:
		right = append(right, accent.Render("↻ refreshing"))
	case s.AutoRefresh:
		right = append(right, base.Render("auto"))
	}
	if s.DataAge != "" {
		right = append(right, base.Render("Data: "+s.DataAge))
	}
	rightStr := strings.Join(right, base.Render("  ")) + base.Render(" ")

	padding := width - lipgloss.Width(left) - lipgloss.Width(rightStr)
	if padding < 0 {
		padding = 0
	}

	return left + base.Render(strings.Repeat(" ", padding)) + rightStr
}
