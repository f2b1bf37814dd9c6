// Package pipeline loads spending data and derives the daily rollups and
// insights the charts and cards are drawn from.
package pipeline

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/theirongolddev/fcast/internal/model"
)

// DefaultAnomalyReason labels a flagged day whose records gave no reason.
const DefaultAnomalyReason = "Unusual spending pattern detected"

// ErrInvalidRecord is returned for records with an unparseable date or a
// negative or non-finite amount.
var ErrInvalidRecord = errors.New("invalid record")

// RecordError identifies the offending record. It matches ErrInvalidRecord.
type RecordError struct {
	Index int
	Field string
	Value string
	Err   error
}

func (e *RecordError) Error() string {
	msg := fmt.Sprintf("record %d: invalid %s %q", e.Index, e.Field, e.Value)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RecordError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidRecord}
	}
	return []error{ErrInvalidRecord, e.Err}
}

// Aggregate groups records by their exact date string and returns one entry
// per distinct date, ascending. A day is anomalous if any of its records is,
// and keeps the first non-empty reason it saw.
func Aggregate(records []model.SpendingRecord) ([]model.AggregatedDay, error) {
	dayMap := make(map[string]*model.AggregatedDay)

	for i, r := range records {
		if err := validateRecord(i, r); err != nil {
			return nil, err
		}

		d, ok := dayMap[r.Date]
		if !ok {
			t, _ := model.ParseDate(r.Date)
			d = &model.AggregatedDay{
				Date:        t,
				Key:         r.Date,
				PerCategory: make(map[string]float64),
			}
			dayMap[r.Date] = d
		}

		d.Total += r.Amount
		d.PerCategory[r.Category] += r.Amount

		if r.IsAnomaly {
			d.IsAnomaly = true
			if d.AnomalyReason == "" && r.AnomalyReason != "" {
				d.AnomalyReason = r.AnomalyReason
			}
		}
	}

	days := make([]model.AggregatedDay, 0, len(dayMap))
	for _, d := range dayMap {
		if d.IsAnomaly && d.AnomalyReason == "" {
			d.AnomalyReason = DefaultAnomalyReason
		}
		days = append(days, *d)
	}
	sort.Slice(days, func(i, j int) bool {
		if !days[i].Date.Equal(days[j].Date) {
			return days[i].Date.Before(days[j].Date)
		}
		return days[i].Key < days[j].Key
	})

	return days, nil
}

func validateRecord(i int, r model.SpendingRecord) error {
	if _, err := model.ParseDate(r.Date); err != nil {
		return &RecordError{Index: i, Field: "date", Value: r.Date}
	}
	if r.Amount < 0 || math.IsNaN(r.Amount) || math.IsInf(r.Amount, 0) {
		return &RecordError{Index: i, Field: "amount", Value: fmt.Sprintf("%g", r.Amount)}
	}
	return nil
}

// AggregateCategories totals spend per category, sorted by amount descending.
func AggregateCategories(records []model.SpendingRecord) []model.CategoryTotal {
	catMap := make(map[string]float64)
	var grand float64
	for _, r := range records {
		catMap[r.Category] += r.Amount
		grand += r.Amount
	}

	cats := make([]model.CategoryTotal, 0, len(catMap))
	for name, amt := range catMap {
		ct := model.CategoryTotal{Category: name, Amount: amt}
		if grand > 0 {
			ct.SharePercent = amt / grand * 100
		}
		cats = append(cats, ct)
	}
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].Amount != cats[j].Amount {
			return cats[i].Amount > cats[j].Amount
		}
		return cats[i].Category < cats[j].Category
	})
	return cats
}

// FilterByTime returns days whose date falls within [since, until).
// Zero bounds are open.
func FilterByTime(days []model.AggregatedDay, since, until time.Time) []model.AggregatedDay {
	if since.IsZero() && until.IsZero() {
		return days
	}

	var result []model.AggregatedDay
	for _, d := range days {
		if !since.IsZero() && d.Date.Before(since) {
			continue
		}
		if !until.IsZero() && !d.Date.Before(until) {
			continue
		}
		result = append(result, d)
	}
	return result
}

// FilterByCategory returns records whose category contains substr, case-insensitively.
func FilterByCategory(records []model.SpendingRecord, substr string) []model.SpendingRecord {
	if substr == "" {
		return records
	}
	var result []model.SpendingRecord
	for _, r := range records {
		if containsIgnoreCase(r.Category, substr) {
			result = append(result, r)
		}
	}
	return result
}

// FilterRecords returns records dated within [since, until). Records with an
// unparseable date are dropped.
func FilterRecords(records []model.SpendingRecord, since, until time.Time) []model.SpendingRecord {
	var result []model.SpendingRecord
	for _, r := range records {
		t, err := model.ParseDate(r.Date)
		if err != nil {
			continue
		}
		if !t.Before(since) && t.Before(until) {
			result = append(result, r)
		}
	}
	return result
}

// FilterPoints returns forecast points within [since, until).
func FilterPoints(points []model.ForecastDataPoint, since, until time.Time) []model.ForecastDataPoint {
	if since.IsZero() && until.IsZero() {
		return points
	}
	var result []model.ForecastDataPoint
	for _, p := range points {
		if !since.IsZero() && p.Date.Before(since) {
			continue
		}
		if !until.IsZero() && !p.Date.Before(until) {
			continue
		}
		result = append(result, p)
	}
	return result
}

// Totals extracts the per-day totals, in order.
func Totals(days []model.AggregatedDay) []float64 {
	out := make([]float64, len(days))
	for i, d := range days {
		out[i] = d.Total
	}
	return out
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
