package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/fcast/internal/cli"
	"github.com/theirongolddev/fcast/internal/tui/components"
	"github.com/theirongolddev/fcast/internal/tui/theme"
	"github.com/theirongolddev/fcast/internal/window"

	"github.com/charmbracelet/lipgloss"
)

const maxVarianceRows = 8

func (a App) renderForecastTab(cw int) string {
	t := theme.Active
	acc := a.accuracy

	mape := "n/a"
	if acc.WithActual > 0 {
		mape = cli.FormatPercent(acc.MeanAbsPctErr)
	}
	bandDelta := ""
	if acc.WithActual > 0 {
		bandDelta = fmt.Sprintf("%.0f%% of actuals", float64(acc.WithinBand)/float64(acc.WithActual)*100)
	}
	invalidColor := t.TextDim
	if acc.Invalid > 0 {
		invalidColor = t.Loss
	}

	var b strings.Builder
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Forecast Points", Value: cli.FormatNumber(int64(acc.Points)),
			Delta: fmt.Sprintf("%d with actuals", acc.WithActual)},
		{Label: "Mean Abs Error", Value: cli.FormatCurrency(acc.MeanAbsError), Delta: "MAPE " + mape},
		{Label: "Within Band", Value: cli.FormatNumber(int64(acc.WithinBand)), Delta: bandDelta},
		{Label: "Invalid Bands", Value: cli.FormatNumber(int64(acc.Invalid)), DeltaColor: invalidColor,
			Delta: "lower ≤ predicted ≤ upper"},
	}, cw))
	b.WriteString("\n")

	b.WriteString(a.renderForecastChart(cw))
	b.WriteString("\n")
	b.WriteString(a.renderVariance(cw))
	return b.String()
}

func (a App) renderForecastChart(cw int) string {
	t := theme.Active
	visible := window.Slice(a.points, a.ctrl.Range())
	if len(visible) == 0 {
		return components.ContentCard("Forecast", "No forecast data", cw)
	}

	cols := make([]components.Column, len(visible))
	dates := make([]time.Time, len(visible))
	for i, p := range visible {
		cols[i] = components.Column{
			Value: p.Predicted,
			Low:   p.ConfidenceLower,
			High:  p.ConfidenceUpper,
		}
		if p.Actual != nil {
			cols[i].Marker = *p.Actual
			cols[i].HasMarker = true
		}
		if p.Validate() != nil {
			cols[i].Color = t.Loss
		}
		dates[i] = p.Date
	}

	legendDim := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	legend := lipgloss.NewStyle().Foreground(t.Predicted).Background(t.Surface).Render("█") + legendDim.Render(" predicted  ") +
		lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Band).Render("░") + legendDim.Render(" confidence  ") +
		lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Render("━") + legendDim.Render(" actual")

	chart := components.ColumnChart(cols, chartDateLabels(dates), t.Predicted, components.CardInnerWidth(cw), 10)
	title := fmt.Sprintf("Forecast · %s – %s",
		cli.FormatShortDate(visible[0].Date), cli.FormatShortDate(visible[len(visible)-1].Date))
	return components.ContentCard(title, chart+"\n"+legend+"\n"+a.windowHint(), cw)
}

// renderVariance lists the visible points that have actuals, newest first.
func (a App) renderVariance(cw int) string {
	t := theme.Active
	visible := window.Slice(a.points, a.ctrl.Range())

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-12s%14s%14s%14s%24s", "Date", "Predicted", "Actual", "Variance", "Band")))
	rows := 0
	for i := len(visible) - 1; i >= 0 && rows < maxVarianceRows; i-- {
		p := visible[i]
		v, ok := p.Variance()
		if !ok {
			continue
		}
		rows++
		b.WriteString("\n")
		b.WriteString(rowStyle.Render(fmt.Sprintf("%-12s%14s%14s",
			cli.FormatDate(p.Date), cli.FormatCurrency(p.Predicted), cli.FormatCurrency(*p.Actual))))
		// Overspend against the prediction is a loss.
		b.WriteString(signedMoney(v, 14, true))
		b.WriteString(dimStyle.Render(fmt.Sprintf("%24s",
			cli.FormatCompactCurrency(p.ConfidenceLower)+" – "+cli.FormatCompactCurrency(p.ConfidenceUpper))))
	}
	if rows == 0 {
		return components.ContentCard("Variance", dimStyle.Render("No actuals in view yet"), cw)
	}
	return components.ContentCard("Variance", b.String(), cw)
}
