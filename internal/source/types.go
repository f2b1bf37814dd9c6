package source

// Kind identifies what a discovered file contains.
type Kind string

const (
	KindSpending Kind = "spending"
	KindForecast Kind = "forecast"
	KindIncome   Kind = "income"
)

// DiscoveredFile represents a data file found during directory scanning.
type DiscoveredFile struct {
	Path    string
	Kind    Kind
	Account string // first directory under the kind dir, or the file stem
	Format  string // "jsonl", "json" or "csv"
}

// rawForecastPoint mirrors the on-disk forecast point; dates are plain strings.
type rawForecastPoint struct {
	Date            string   `json:"date"`
	Actual          *float64 `json:"actual,omitempty"`
	Predicted       float64  `json:"predicted"`
	ConfidenceLower float64  `json:"confidenceLower"`
	ConfidenceUpper float64  `json:"confidenceUpper"`
}

// envelope is the object form of a JSON data file.
type envelope struct {
	Records []rawSpendingRecord `json:"records,omitempty"`
	Points  []rawForecastPoint  `json:"points,omitempty"`
	Sources []rawIncomeSource   `json:"sources,omitempty"`
}

type rawSpendingRecord struct {
	Date          string  `json:"date"`
	Category      string  `json:"category"`
	Amount        float64 `json:"amount"`
	IsAnomaly     bool    `json:"isAnomaly,omitempty"`
	AnomalyReason string  `json:"anomalyReason,omitempty"`
}

type rawIncomeSource struct {
	Name       string  `json:"name"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
	GrowthRate float64 `json:"growthRate"`
	Stability  string  `json:"stability"`
}
