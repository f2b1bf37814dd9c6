package analyticsapi

import "time"

// SpendingTrend is one row of the spending-trends endpoint.
type SpendingTrend struct {
	Date          string  `json:"date"`
	Amount        float64 `json:"amount"`
	Category      string  `json:"category"`
	CategoryID    string  `json:"categoryId,omitempty"`
	IsAnomaly     bool    `json:"isAnomaly,omitempty"`
	AnomalyReason string  `json:"anomalyReason,omitempty"`
}

// IncomeSource is one row of the income endpoint.
type IncomeSource struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Amount      float64 `json:"amount"`
	Percentage  float64 `json:"percentage"`
	Stability   string  `json:"stability"`
	GrowthRate  float64 `json:"growthRate"`
	LastUpdated string  `json:"lastUpdated,omitempty"`
}

// ForecastPoint is one row of the forecasts endpoint.
type ForecastPoint struct {
	Date            string   `json:"date"`
	Actual          *float64 `json:"actual,omitempty"`
	Predicted       float64  `json:"predicted"`
	ConfidenceLower float64  `json:"confidenceLower"`
	ConfidenceUpper float64  `json:"confidenceUpper"`
}

// Filters narrows a query by date range and categories.
type Filters struct {
	Since      time.Time
	Until      time.Time
	Categories []string
}

// Snapshot is everything fetched in one pass. Partial data is kept when some
// requests fail; Error holds the first failure.
type Snapshot struct {
	Spending  []SpendingTrend
	Income    []IncomeSource
	Forecast  []ForecastPoint
	FetchedAt time.Time
	Error     error
}
