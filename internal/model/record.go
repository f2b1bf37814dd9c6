// Package model defines the domain types shared by the forecasting engine,
// the record sources, and the presentation layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-day layout used for keys and display.
const DateLayout = "2006-01-02"

// localDateTimeLayout is an ISO-8601 date-time without a zone offset.
const localDateTimeLayout = "2006-01-02T15:04:05"

// ParseDate accepts a calendar date, an RFC 3339 timestamp, or an ISO-8601
// date-time without an offset (read as UTC).
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(localDateTimeLayout, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// SpendingRecord is a single categorized spend entry as it arrives from a source.
// Date is kept verbatim because it is the grouping key.
type SpendingRecord struct {
	Date          string  `json:"date"`
	Category      string  `json:"category"`
	Amount        float64 `json:"amount"`
	IsAnomaly     bool    `json:"isAnomaly,omitempty"`
	AnomalyReason string  `json:"anomalyReason,omitempty"`
}

// AggregatedDay is the per-date rollup produced by the aggregator.
type AggregatedDay struct {
	Date          time.Time
	Key           string
	Total         float64
	PerCategory   map[string]float64
	IsAnomaly     bool
	AnomalyReason string
}

// CategoryTotal holds the spend for one category across a range of records.
type CategoryTotal struct {
	Category     string
	Amount       float64
	SharePercent float64
}

// ForecastDataPoint is one dated forecast value with its confidence band.
// Actual is nil for dates that have not happened yet.
type ForecastDataPoint struct {
	Date            time.Time `json:"date"`
	Actual          *float64  `json:"actual,omitempty"`
	Predicted       float64   `json:"predicted"`
	ConfidenceLower float64   `json:"confidenceLower"`
	ConfidenceUpper float64   `json:"confidenceUpper"`
}

// Validate checks that the confidence band brackets the prediction.
func (p ForecastDataPoint) Validate() error {
	if p.ConfidenceLower > p.Predicted || p.Predicted > p.ConfidenceUpper {
		return fmt.Errorf("forecast point %s: band [%.2f, %.2f] does not contain %.2f",
			p.Date.Format(DateLayout), p.ConfidenceLower, p.ConfidenceUpper, p.Predicted)
	}
	return nil
}

// Variance returns Actual - Predicted, and false when no actual is known.
func (p ForecastDataPoint) Variance() (float64, bool) {
	if p.Actual == nil {
		return 0, false
	}
	return *p.Actual - p.Predicted, true
}
