// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/fcast/internal/model"
)

// FormatCurrency formats a dollar amount with separators and cents.
// e.g., 1234.5 -> "$1,234.50", -20 -> "-$20.00"
func FormatCurrency(v float64) string {
	if v < 0 {
		return "-" + FormatCurrency(-v)
	}
	cents := int64(math.Round(v * 100))
	return fmt.Sprintf("$%s.%02d", FormatNumber(cents/100), cents%100)
}

// FormatCompactCurrency formats a dollar amount with human-readable suffixes.
// e.g., 1234 -> "$1.2K", 2500000 -> "$2.5M", 12.34 -> "$12"
func FormatCompactCurrency(v float64) string {
	if v < 0 {
		return "-" + FormatCompactCurrency(-v)
	}

	switch {
	case v >= 1_000_000_000:
		return fmt.Sprintf("$%.1fB", v/1_000_000_000)
	case v >= 1_000_000:
		return fmt.Sprintf("$%.1fM", v/1_000_000)
	case v >= 10_000:
		return fmt.Sprintf("$%.0fK", v/1_000)
	case v >= 1_000:
		return fmt.Sprintf("$%.1fK", v/1_000)
	default:
		return fmt.Sprintf("$%.0f", v)
	}
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a value already expressed in percent.
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatSignedPercent formats an adjustment with an explicit sign.
// e.g., 10 -> "+10.0%", -5 -> "-5.0%", 0 -> "0.0%"
func FormatSignedPercent(pct float64) string {
	if pct > 0 {
		return fmt.Sprintf("+%.1f%%", pct)
	}
	return FormatPercent(pct)
}

// FormatDelta formats the difference between two amounts with a sign.
func FormatDelta(current, previous float64) string {
	delta := current - previous
	if delta >= 0 {
		return "+" + FormatCurrency(delta)
	}
	return FormatCurrency(delta)
}

// FormatTrend renders a trend with its direction arrow and change.
// Undefined percentages are named rather than shown as a number.
func FormatTrend(ins model.Insight) string {
	switch ins.Trend {
	case model.TrendNone:
		return "not enough data"
	case model.TrendIncreasing, model.TrendDecreasing:
	default:
		return string(ins.Trend)
	}

	arrow := "▼"
	if ins.Trend == model.TrendIncreasing {
		arrow = "▲"
	}
	if ins.Undefined != model.Defined {
		return fmt.Sprintf("%s %s (%s)", arrow, ins.Trend, ins.Undefined)
	}
	return fmt.Sprintf("%s %s %s", arrow, ins.Trend, FormatPercent(ins.ChangePercent))
}

// FormatDate formats a calendar date, or "-" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(model.DateLayout)
}

// FormatShortDate formats a date as "Jan 02" for chart axes.
func FormatShortDate(t time.Time) string {
	return t.Format("Jan 02")
}

// FormatDays formats a remaining-day count.
func FormatDays(n int) string {
	switch {
	case n < 0:
		return fmt.Sprintf("%dd overdue", -n)
	case n == 1:
		return "1 day"
	default:
		return fmt.Sprintf("%d days", n)
	}
}
