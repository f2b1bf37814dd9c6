package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/theirongolddev/fcast/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Column is one x-position in a column chart.
type Column struct {
	Value float64
	Color lipgloss.Color // overrides the chart color when set

	// Band draws a shaded range behind the bar when High > Low.
	Low, High float64

	// Marker draws a tick at a second value, e.g. the actual spend on a forecast day.
	Marker    float64
	HasMarker bool
}

// Sparkline renders a unicode sparkline from values.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	peak := values[0]
	for _, v := range values[1:] {
		if v > peak {
			peak = v
		}
	}
	if peak == 0 {
		peak = 1
	}

	style := lipgloss.NewStyle().Foreground(color).Background(t.Surface)

	var buf strings.Builder
	buf.Grow(len(values) * 4)
	for _, v := range values {
		idx := int(v / peak * float64(len(blocks)-1))
		idx = max(0, min(idx, len(blocks)-1))
		buf.WriteRune(blocks[idx])
	}

	return style.Render(buf.String())
}

// BarChart renders a bar chart of values in a single color.
func BarChart(values []float64, labels []string, color lipgloss.Color, width, height int) string {
	cols := make([]Column, len(values))
	for i, v := range values {
		cols[i] = Column{Value: v}
	}
	return ColumnChart(cols, labels, color, width, height)
}

// BarChartMarked renders a bar chart where marked bars use the anomaly color.
func BarChartMarked(values []float64, marked []bool, labels []string, color lipgloss.Color, width, height int) string {
	t := theme.Active
	cols := make([]Column, len(values))
	for i, v := range values {
		cols[i] = Column{Value: v}
		if i < len(marked) && marked[i] {
			cols[i].Color = t.Anomaly
		}
	}
	return ColumnChart(cols, labels, color, width, height)
}

// ColumnChart renders columns with an auto-scaled y axis and sparse x labels.
// Narrow charts fall back to a sparkline; too many columns are sampled.
func ColumnChart(cols []Column, labels []string, color lipgloss.Color, width, height int) string {
	if len(cols) == 0 {
		return ""
	}
	if width < 15 || height < 3 {
		values := make([]float64, len(cols))
		for i, c := range cols {
			values[i] = c.Value
		}
		return Sparkline(values, color)
	}

	t := theme.Active

	maxVal := 0.0
	for _, c := range cols {
		maxVal = math.Max(maxVal, c.Value)
		if c.High > c.Low {
			maxVal = math.Max(maxVal, c.High)
		}
		if c.HasMarker {
			maxVal = math.Max(maxVal, c.Marker)
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	// Y-axis: compute tick step and ceiling
	tickStep := chartTickStep(maxVal)
	maxIntervals := max(2, height/2)
	for int(math.Ceil(maxVal/tickStep)) > maxIntervals {
		tickStep *= 2
	}
	ceiling := math.Ceil(maxVal/tickStep) * tickStep
	numIntervals := max(1, int(math.Round(ceiling/tickStep)))

	rowsPerTick := max(2, height/numIntervals)
	chartH := rowsPerTick * numIntervals

	yLabelW := max(4, len(formatChartLabel(ceiling))+1)
	tickLabels := make(map[int]string)
	for i := 1; i <= numIntervals; i++ {
		tickLabels[i*rowsPerTick] = formatChartLabel(tickStep * float64(i))
	}

	chartW := max(5, width-yLabelW-1)

	n := len(cols)
	gap := 1
	if n <= 1 {
		gap = 0
	}
	barW := chartW
	if n > 1 {
		barW = (chartW - (n - 1)) / n
	}
	if barW < 2 && n > 1 {
		maxN := max(2, (chartW+1)/3)
		sampled := make([]Column, maxN)
		var sampledLabels []string
		if len(labels) == n {
			sampledLabels = make([]string, maxN)
		}
		for i := range sampled {
			srcIdx := i * (n - 1) / (maxN - 1)
			sampled[i] = cols[srcIdx]
			if sampledLabels != nil {
				sampledLabels[i] = labels[srcIdx]
			}
		}
		cols = sampled
		labels = sampledLabels
		n = maxN
		barW = 2
	}
	barW = min(barW, 6)
	axisLen := n*barW + max(0, n-1)*gap

	blocks := []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	blankStyle := lipgloss.NewStyle().Background(t.Surface)
	bandStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Band)
	markerStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)

	var b strings.Builder

	for row := chartH; row >= 1; row-- {
		rowTop := ceiling * float64(row) / float64(chartH)
		rowBottom := ceiling * float64(row-1) / float64(chartH)

		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", yLabelW, tickLabels[row])))
		b.WriteString(axisStyle.Render("│"))

		for i, c := range cols {
			if i > 0 && gap > 0 {
				b.WriteString(blankStyle.Render(strings.Repeat(" ", gap)))
			}
			barColor := color
			if c.Color != "" {
				barColor = c.Color
			}
			barStyle := lipgloss.NewStyle().Foreground(barColor).Background(t.Surface)
			inBand := c.High > c.Low && c.High > rowBottom && c.Low <= rowTop

			switch {
			case c.HasMarker && c.Marker > rowBottom && c.Marker <= rowTop:
				b.WriteString(markerStyle.Render(strings.Repeat("━", barW)))
			case c.Value >= rowTop:
				b.WriteString(barStyle.Render(strings.Repeat("█", barW)))
			case c.Value > rowBottom:
				frac := (c.Value - rowBottom) / (rowTop - rowBottom)
				idx := max(1, min(int(frac*8), 8))
				if inBand {
					barStyle = barStyle.Background(t.Band)
				}
				b.WriteString(barStyle.Render(strings.Repeat(string(blocks[idx]), barW)))
			case inBand:
				b.WriteString(bandStyle.Render(strings.Repeat("░", barW)))
			default:
				b.WriteString(blankStyle.Render(strings.Repeat(" ", barW)))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", yLabelW, "0")))
	b.WriteString(axisStyle.Render("└"))
	b.WriteString(axisStyle.Render(strings.Repeat("─", axisLen)))

	if len(labels) == n && n > 0 {
		b.WriteString("\n")
		labelStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
		b.WriteString(blankStyle.Render(strings.Repeat(" ", yLabelW+1)))
		b.WriteString(labelStyle.Render(xAxisLabels(labels, barW, gap, axisLen)))
	}

	return b.String()
}

// xAxisLabels spreads labels under their bars without overlap, always
// trying to show the last one.
func xAxisLabels(labels []string, barW, gap, axisLen int) string {
	n := len(labels)
	buf := make([]byte, axisLen)
	for i := range buf {
		buf[i] = ' '
	}

	labelStep := max(1, (n*8)/(axisLen+1))

	lastEnd := -1
	for i := 0; i < n; i += labelStep {
		pos := i * (barW + gap)
		lbl := labels[i]
		end := pos + len(lbl)
		if pos <= lastEnd {
			continue
		}
		if end > axisLen {
			end = axisLen
			if end-pos < 3 {
				continue
			}
			lbl = lbl[:end-pos]
		}
		copy(buf[pos:end], lbl)
		lastEnd = end + 1
	}
	if n > 1 {
		lbl := labels[n-1]
		pos := (n - 1) * (barW + gap)
		end := pos + len(lbl)
		if end > axisLen {
			pos = axisLen - len(lbl)
			end = axisLen
		}
		if pos >= 0 && pos > lastEnd {
			copy(buf[pos:end], lbl)
		}
	}
	return strings.TrimRight(string(buf), " ")
}

// chartTickStep computes a nice tick interval targeting ~5 ticks.
func chartTickStep(maxVal float64) float64 {
	if maxVal <= 0 {
		return 1
	}
	rough := maxVal / 5
	exp := math.Floor(math.Log10(rough))
	base := math.Pow(10, exp)
	frac := rough / base

	switch {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}

func formatChartLabel(v float64) string {
	switch {
	case v >= 1e6:
		if v == math.Trunc(v/1e6)*1e6 {
			return fmt.Sprintf("%.0fM", v/1e6)
		}
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e3:
		if v == math.Trunc(v/1e3)*1e3 {
			return fmt.Sprintf("%.0fk", v/1e3)
		}
		return fmt.Sprintf("%.1fk", v/1e3)
	case v >= 1:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
