package config

import "github.com/theirongolddev/fcast/internal/model"

// daysPerMonth converts average daily spend to a monthly figure.
const daysPerMonth = 30

// ResolveBaseline returns the scenario baseline. Configured values win; a
// zero income falls back to the sum of income sources and zero expenses
// fall back to average daily spend over a month.
func ResolveBaseline(cfg Config, income []model.IncomeSource, averageDaily float64) model.Baseline {
	b := model.Baseline{
		Income:   cfg.Forecast.MonthlyIncome,
		Expenses: cfg.Forecast.MonthlyExpenses,
	}
	if b.Income == 0 {
		for _, s := range income {
			b.Income += s.Amount
		}
	}
	if b.Expenses == 0 {
		b.Expenses = averageDaily * daysPerMonth
	}
	return b
}
