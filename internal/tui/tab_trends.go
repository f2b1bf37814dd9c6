package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/fcast/internal/cli"
	"github.com/theirongolddev/fcast/internal/model"
	"github.com/theirongolddev/fcast/internal/tui/components"
	"github.com/theirongolddev/fcast/internal/tui/theme"
	"github.com/theirongolddev/fcast/internal/window"

	"github.com/charmbracelet/lipgloss"
)

const maxAnomalyRows = 6

func (a App) renderTrendsTab(cw int) string {
	t := theme.Active
	cur := a.comparison.Current
	prev := a.comparison.Previous

	trendColor := t.TextDim
	switch cur.Trend {
	case model.TrendIncreasing:
		trendColor = t.Loss
	case model.TrendDecreasing:
		trendColor = t.Gain
	}

	totalDelta := ""
	if prev.Days > 0 {
		totalDelta = cli.FormatDelta(cur.TotalAmount, prev.TotalAmount) + " vs prev"
	}
	avgDelta := ""
	if prev.Days > 0 {
		avgDelta = cli.FormatDelta(cur.AverageDaily, prev.AverageDaily) + "/day"
	}

	var b strings.Builder
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Total Spend", Value: cli.FormatCurrency(cur.TotalAmount), Delta: totalDelta},
		{Label: "Daily Average", Value: cli.FormatCurrency(cur.AverageDaily), Delta: avgDelta},
		{Label: "Trend", Value: cli.FormatTrend(cur), DeltaColor: trendColor,
			Delta: fmt.Sprintf("%s → %s", cli.FormatCompactCurrency(cur.FirstMean), cli.FormatCompactCurrency(cur.SecondMean))},
		{Label: "Anomalies", Value: cli.FormatNumber(int64(cur.AnomalyCount)), DeltaColor: t.Anomaly,
			Delta: fmt.Sprintf("of %s days", cli.FormatNumber(int64(cur.Days)))},
	}, cw))
	b.WriteString("\n")

	if a.aggErr != nil {
		warn := lipgloss.NewStyle().Foreground(t.Loss).Background(t.Surface)
		b.WriteString(components.ContentCard("Invalid Data", warn.Render(a.aggErr.Error()), cw))
		return b.String()
	}

	b.WriteString(a.renderSpendChart(cw))

	var cards []string
	if a.isCompactLayout() {
		b.WriteString("\n")
		b.WriteString(a.renderCategories(cw))
		b.WriteString("\n")
		b.WriteString(a.renderAnomalies(cw))
		b.WriteString("\n")
		b.WriteString(a.renderIncome(cw))
		return b.String()
	}

	ws := components.LayoutRow(cw, 3)
	cards = append(cards, a.renderCategories(ws[0]), a.renderAnomalies(ws[1]), a.renderIncome(ws[2]))
	b.WriteString("\n")
	b.WriteString(components.CardRow(cards))
	return b.String()
}

func (a App) renderSpendChart(cw int) string {
	visible := window.Slice(a.daily, a.ctrl.Range())

	title := "Daily Spend"
	if len(visible) > 0 {
		title = fmt.Sprintf("Daily Spend · %s – %s",
			cli.FormatShortDate(visible[0].Date), cli.FormatShortDate(visible[len(visible)-1].Date))
	}
	if len(visible) == 0 {
		return components.ContentCard(title, "No spending in this period", cw)
	}

	values := make([]float64, len(visible))
	marked := make([]bool, len(visible))
	dates := make([]time.Time, len(visible))
	for i, d := range visible {
		values[i] = d.Total
		marked[i] = d.IsAnomaly
		dates[i] = d.Date
	}

	chart := components.BarChartMarked(values, marked, chartDateLabels(dates), theme.Active.Accent,
		components.CardInnerWidth(cw), 10)
	return components.ContentCard(title, chart+"\n"+a.windowHint(), cw)
}

// windowHint lists the available zoom and pan moves.
func (a App) windowHint() string {
	t := theme.Active
	on := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	off := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	sep := lipgloss.NewStyle().Background(t.Surface).Render("  ")

	n := a.chartLen()
	w := a.ctrl.Window()
	pick := func(enabled bool, s string) string {
		if enabled {
			return on.Render(s)
		}
		return off.Render(s)
	}
	return pick(w.CanPanLeft(n), "← earlier") + sep +
		pick(w.CanPanRight(n), "later →") + sep +
		pick(w.CanZoomIn(), "[+] zoom in") + sep +
		pick(w.CanZoomOut(), "[-] zoom out") + sep +
		off.Render("[0] reset")
}

func (a App) renderCategories(w int) string {
	t := theme.Active
	inner := components.CardInnerWidth(w)
	if len(a.categories) == 0 {
		return components.ContentCard("Categories", "No categories", w)
	}

	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	barStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	nameW := min(14, inner/3)
	barW := max(4, inner-nameW-8)
	limit := min(len(a.categories), 8)

	var b strings.Builder
	for i, c := range a.categories[:limit] {
		filled := int(c.SharePercent / 100 * float64(barW))
		b.WriteString(nameStyle.Render(fmt.Sprintf("%-*s ", nameW, truncStr(c.Category, nameW))))
		b.WriteString(barStyle.Render(strings.Repeat("█", filled)))
		b.WriteString(pctStyle.Render(strings.Repeat(" ", barW-filled)))
		b.WriteString(pctStyle.Render(fmt.Sprintf(" %5.1f%%", c.SharePercent)))
		if i < limit-1 {
			b.WriteString("\n")
		}
	}
	return components.ContentCard("Categories", b.String(), w)
}

func (a App) renderAnomalies(w int) string {
	t := theme.Active
	inner := components.CardInnerWidth(w)

	dateStyle := lipgloss.NewStyle().Foreground(t.Anomaly).Background(t.Surface)
	amtStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	reasonStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var rows []string
	for i := len(a.daily) - 1; i >= 0 && len(rows) < maxAnomalyRows; i-- {
		d := a.daily[i]
		if !d.IsAnomaly {
			continue
		}
		head := dateStyle.Render(cli.FormatShortDate(d.Date)) + amtStyle.Render(" "+cli.FormatCurrency(d.Total))
		reasonW := max(4, inner-lipgloss.Width(head)-1)
		rows = append(rows, head+reasonStyle.Render(" "+truncStr(d.AnomalyReason, reasonW)))
	}
	if len(rows) == 0 {
		return components.ContentCard("Anomalies", reasonStyle.Render("None flagged"), w)
	}
	return components.ContentCard("Anomalies", strings.Join(rows, "\n"), w)
}

func (a App) renderIncome(w int) string {
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	ins := a.incomeInsight
	if ins.TotalSources == 0 {
		return components.ContentCard("Income", labelStyle.Render("No income sources"), w)
	}

	score := "n/a (single source)"
	if ins.Defined {
		score = fmt.Sprintf("%.0f / 100", ins.DiversificationScore)
	}

	var b strings.Builder
	b.WriteString(labelStyle.Render("Primary     ") + valueStyle.Render(ins.Primary.Name) + "\n")
	b.WriteString(labelStyle.Render("            ") + valueStyle.Render(cli.FormatCurrency(ins.Primary.Amount)) + "\n")
	b.WriteString(labelStyle.Render("Diversity   ") + valueStyle.Render(score) + "\n")
	b.WriteString(labelStyle.Render("Sources     ") + valueStyle.Render(fmt.Sprintf("%d", ins.TotalSources)) + "\n")
	b.WriteString(labelStyle.Render("Stable      ") + valueStyle.Render(fmt.Sprintf("%d", ins.StableSources)) + "\n")
	b.WriteString(labelStyle.Render("Growing     ") + valueStyle.Render(fmt.Sprintf("%d", ins.GrowingSources)))
	return components.ContentCard("Income", b.String(), w)
}
