// Package scenario applies percentage adjustments to a baseline and works out
// the contributions needed to reach savings goals.
package scenario

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/theirongolddev/fcast/internal/model"
)

const (
	// MinAdjustmentPct and MaxAdjustmentPct bound both scenario percentages.
	MinAdjustmentPct = -50.0
	MaxAdjustmentPct = 100.0
)

// IDs of the built-in scenarios.
const (
	BaselineID     = "baseline"
	OptimisticID   = "optimistic"
	ConservativeID = "conservative"
)

// ErrInvalidScenario is returned when a scenario has no name or an
// adjustment outside [MinAdjustmentPct, MaxAdjustmentPct].
var ErrInvalidScenario = errors.New("invalid scenario")

// Project applies the scenario's adjustments to the baseline.
func Project(base model.Baseline, s model.ForecastScenario) model.Projection {
	return ProjectPct(base, s.IncomeAdjustmentPct, s.ExpenseAdjustmentPct)
}

// ProjectPct is Project with the two percentages given directly.
func ProjectPct(base model.Baseline, incomePct, expensePct float64) model.Projection {
	income := base.Income * (1 + incomePct/100)
	expenses := base.Expenses * (1 + expensePct/100)
	return model.Projection{
		ProjectedIncome:   income,
		ProjectedExpenses: expenses,
		NetSavings:        math.Max(0, income-expenses),
		Deficit:           math.Max(0, expenses-income),
	}
}

// Compare returns b's projection minus a's for the same baseline.
func Compare(base model.Baseline, a, b model.ForecastScenario) model.ProjectionDelta {
	pa, pb := Project(base, a), Project(base, b)
	return model.ProjectionDelta{
		Income:     pb.ProjectedIncome - pa.ProjectedIncome,
		Expenses:   pb.ProjectedExpenses - pa.ProjectedExpenses,
		NetSavings: (pb.ProjectedIncome - pb.ProjectedExpenses) - (pa.ProjectedIncome - pa.ProjectedExpenses),
	}
}

// Validate checks the name and both adjustment ranges.
func Validate(s model.ForecastScenario) error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidScenario)
	}
	if err := validatePct("income adjustment", s.IncomeAdjustmentPct); err != nil {
		return err
	}
	return validatePct("expense adjustment", s.ExpenseAdjustmentPct)
}

func validatePct(field string, v float64) error {
	if math.IsNaN(v) || v < MinAdjustmentPct || v > MaxAdjustmentPct {
		return fmt.Errorf("%w: %s %.1f%% outside [%.0f, %.0f]",
			ErrInvalidScenario, field, v, MinAdjustmentPct, MaxAdjustmentPct)
	}
	return nil
}

// ClampPct limits v to the allowed adjustment range. NaN becomes 0.
func ClampPct(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(MinAdjustmentPct, math.Min(MaxAdjustmentPct, v))
}

// Apply merges a partial update into s and validates the result.
func Apply(s model.ForecastScenario, p model.ScenarioPatch, now time.Time) (model.ForecastScenario, error) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.IncomeAdjustmentPct != nil {
		s.IncomeAdjustmentPct = *p.IncomeAdjustmentPct
	}
	if p.ExpenseAdjustmentPct != nil {
		s.ExpenseAdjustmentPct = *p.ExpenseAdjustmentPct
	}
	if err := Validate(s); err != nil {
		return model.ForecastScenario{}, err
	}
	s.UpdatedAt = now
	return s, nil
}

// Duplicate copies s under a new ID. The copy is never a default.
func Duplicate(s model.ForecastScenario, id string, now time.Time) model.ForecastScenario {
	s.ID = id
	s.Name = s.Name + " (copy)"
	s.IsDefault = false
	s.CreatedAt = now
	s.UpdatedAt = now
	return s
}

// Defaults returns the built-in scenarios every store starts with.
func Defaults(now time.Time) []model.ForecastScenario {
	mk := func(id, name, desc string, inc, exp float64) model.ForecastScenario {
		return model.ForecastScenario{
			ID:                   id,
			Name:                 name,
			Description:          desc,
			IncomeAdjustmentPct:  inc,
			ExpenseAdjustmentPct: exp,
			IsDefault:            true,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
	}
	return []model.ForecastScenario{
		mk(BaselineID, "Current Trajectory", "No changes to income or expenses", 0, 0),
		mk(OptimisticID, "Optimistic", "Raise and tighter spending", 10, -5),
		mk(ConservativeID, "Conservative", "Income dip with rising costs", -5, 10),
	}
}
