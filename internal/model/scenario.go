package model

import "time"

// ForecastScenario is a named pair of percentage adjustments applied to a baseline.
type ForecastScenario struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Description          string    `json:"description,omitempty"`
	IncomeAdjustmentPct  float64   `json:"incomeAdjustment"`
	ExpenseAdjustmentPct float64   `json:"expenseAdjustment"`
	IsDefault            bool      `json:"isDefault"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// ScenarioPatch is a partial update. Nil fields are left unchanged.
type ScenarioPatch struct {
	Name                 *string  `json:"name,omitempty"`
	Description          *string  `json:"description,omitempty"`
	IncomeAdjustmentPct  *float64 `json:"incomeAdjustment,omitempty"`
	ExpenseAdjustmentPct *float64 `json:"expenseAdjustment,omitempty"`
}

// Baseline is the unadjusted monthly income and expenses.
type Baseline struct {
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
}

// Projection is the result of applying a scenario to a baseline.
// NetSavings is floored at zero; Deficit carries the shortfall.
type Projection struct {
	ProjectedIncome   float64 `json:"projectedIncome"`
	ProjectedExpenses float64 `json:"projectedExpenses"`
	NetSavings        float64 `json:"netSavings"`
	Deficit           float64 `json:"deficit"`
}

// ProjectionDelta compares two projections of the same baseline.
type ProjectionDelta struct {
	Income     float64
	Expenses   float64
	NetSavings float64
}
