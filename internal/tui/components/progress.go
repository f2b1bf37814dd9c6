package components

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/fcast/internal/model"
	"github.com/theirongolddev/fcast/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ProgressBar renders a block progress bar with percentage. pct is 0..1.
func ProgressBar(pct float64, width int) string {
	t := theme.Active
	pct = clamp01(pct)
	filled := min(width, max(0, int(pct*float64(width))))

	var barColor lipgloss.Color
	switch {
	case pct >= 0.8:
		barColor = t.AccentBright
	default:
		barColor = t.Accent
	}

	filledStyle := lipgloss.NewStyle().Foreground(barColor).Background(t.Surface)
	emptyStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(barColor).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	b.WriteString(filledStyle.Render(strings.Repeat("█", filled)))
	b.WriteString(emptyStyle.Render(strings.Repeat("░", width-filled)))

	return b.String() + spaceStyle.Render(" ") + pctStyle.Render(fmt.Sprintf("%.0f%%", pct*100))
}

// ColorForState maps a goal state to its theme color.
func ColorForState(s model.GoalState) lipgloss.Color {
	t := theme.Active
	switch s {
	case model.GoalCompleted:
		return t.AccentBright
	case model.GoalOnTrack:
		return t.Gain
	case model.GoalAtRisk:
		return t.Warn
	default:
		return t.Loss
	}
}

// GoalBar renders a labeled goal progress bar colored by tracking state.
func GoalBar(st model.GoalStatus, labelW, barWidth int) string {
	t := theme.Active
	color := ColorForState(st.State)
	pct := clamp01(st.Progress / 100)

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	stateStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	label := st.Goal.Name
	if lipgloss.Width(label) > labelW {
		label = truncate(label, labelW)
	}

	state := string(st.State)
	if st.Overdue && st.State != model.GoalCompleted {
		state = "overdue"
	}

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) +
		spaceStyle.Render(" ") +
		bar.ViewAs(pct) +
		spaceStyle.Render(" ") +
		pctStyle.Render(fmt.Sprintf("%3.0f%%", st.Progress)) +
		spaceStyle.Render("  ") +
		stateStyle.Render(state)
}

// AdjustmentBar renders a scenario percentage on a centered -50..+100 scale.
func AdjustmentBar(pct float64, width int, inverse bool) string {
	t := theme.Active
	if width < 6 {
		width = 6
	}
	// zero sits a third of the way in since the scale is asymmetric
	zero := width / 3
	pos := zero + int(pct/150*float64(width))
	pos = max(0, min(pos, width-1))

	color := t.Gain
	if (pct < 0) != inverse && pct != 0 {
		color = t.Loss
	}
	if pct == 0 {
		color = t.TextMuted
	}

	track := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	fill := lipgloss.NewStyle().Foreground(color).Background(t.Surface)

	var b strings.Builder
	lo, hi := min(zero, pos), max(zero, pos)
	for i := range width {
		switch {
		case i == pos:
			b.WriteString(fill.Bold(true).Render("●"))
		case i == zero:
			b.WriteString(track.Render("┼"))
		case i > lo && i < hi:
			b.WriteString(fill.Render("━"))
		default:
			b.WriteString(track.Render("─"))
		}
	}
	return b.String()
}

func clamp01(v float64) float64 {
	return max(0, min(v, 1))
}

func truncate(s string, w int) string {
	if w <= 1 {
		return "…"
	}
	r := []rune(s)
	if len(r) <= w {
		return s
	}
	return string(r[:w-1]) + "…"
}
