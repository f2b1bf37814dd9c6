package pipeline

import (
	"math"
	"sort"

	"github.com/theirongolddev/fcast/internal/model"
)

// ForecastAccuracy compares predictions with the actuals known so far.
type ForecastAccuracy struct {
	Points        int
	WithActual    int
	MeanAbsError  float64
	MeanAbsPctErr float64 // over points with a non-zero actual
	WithinBand    int
	Invalid       int // points whose band does not contain the prediction
}

// SortPoints orders forecast points by date and drops later duplicates of a date.
func SortPoints(points []model.ForecastDataPoint) []model.ForecastDataPoint {
	out := make([]model.ForecastDataPoint, len(points))
	copy(out, points)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	deduped := out[:0]
	for _, p := range out {
		if n := len(deduped); n > 0 && p.Date.Equal(deduped[n-1].Date) {
			continue
		}
		deduped = append(deduped, p)
	}
	return deduped
}

// SummarizeForecast computes error metrics for points with a known actual.
func SummarizeForecast(points []model.ForecastDataPoint) ForecastAccuracy {
	acc := ForecastAccuracy{Points: len(points)}

	var absSum, pctSum float64
	pctN := 0
	for _, p := range points {
		if p.Validate() != nil {
			acc.Invalid++
		}
		v, ok := p.Variance()
		if !ok {
			continue
		}
		acc.WithActual++
		absSum += math.Abs(v)
		if *p.Actual != 0 {
			pctSum += math.Abs(v / *p.Actual * 100)
			pctN++
		}
		if *p.Actual >= p.ConfidenceLower && *p.Actual <= p.ConfidenceUpper {
			acc.WithinBand++
		}
	}

	if acc.WithActual > 0 {
		acc.MeanAbsError = absSum / float64(acc.WithActual)
	}
	if pctN > 0 {
		acc.MeanAbsPctErr = pctSum / float64(pctN)
	}
	return acc
}
