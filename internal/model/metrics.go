package model

// Trend is the direction of change between the two halves of a series.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendNone       Trend = "none"
)

// UndefinedReason explains why a trend percentage could not be computed.
type UndefinedReason string

const (
	Defined                   UndefinedReason = ""
	UndefinedInsufficientData UndefinedReason = "insufficient data"
	UndefinedZeroBaseline     UndefinedReason = "zero baseline"
)

// Insight holds the summary derived from a sequence of aggregated days.
type Insight struct {
	Days          int
	Trend         Trend
	ChangePercent float64
	Undefined     UndefinedReason
	FirstMean     float64
	SecondMean    float64
	AnomalyCount  int
	TotalAmount   float64
	AverageDaily  float64
}

// HasTrend reports whether a direction could be derived.
func (i Insight) HasTrend() bool {
	return i.Trend != TrendNone
}

// IncomeSource is one stream of income with its share of the total.
type IncomeSource struct {
	Name       string  `json:"name"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
	GrowthRate float64 `json:"growthRate"`
	Stability  string  `json:"stability"`
}

// IncomeInsight summarizes a set of income sources.
type IncomeInsight struct {
	Primary              IncomeSource
	DiversificationScore float64
	Defined              bool
	TotalSources         int
	StableSources        int
	GrowingSources       int
}

// PeriodComparison holds current and previous period insights for delta display.
type PeriodComparison struct {
	Current  Insight
	Previous Insight
}
