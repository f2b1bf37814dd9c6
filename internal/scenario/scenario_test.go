package scenario

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/theirongolddev/fcast/internal/model"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestProject(t *testing.T) {
	base := model.Baseline{Income: 5000, Expenses: 3500}
	p := ProjectPct(base, 10, -5)

	if !approx(p.ProjectedIncome, 5500) {
		t.Fatalf("ProjectedIncome = %.2f, want 5500", p.ProjectedIncome)
	}
	if !approx(p.ProjectedExpenses, 3325) {
		t.Fatalf("ProjectedExpenses = %.2f, want 3325", p.ProjectedExpenses)
	}
	if !approx(p.NetSavings, 2175) {
		t.Fatalf("NetSavings = %.2f, want 2175", p.NetSavings)
	}
	if p.Deficit != 0 {
		t.Fatalf("Deficit = %.2f, want 0", p.Deficit)
	}
}

func TestProjectDeficitFloorsSavings(t *testing.T) {
	base := model.Baseline{Income: 3000, Expenses: 3500}
	p := Project(base, model.ForecastScenario{Name: "flat"})

	if p.NetSavings != 0 {
		t.Fatalf("NetSavings = %.2f, want 0", p.NetSavings)
	}
	if !approx(p.Deficit, 500) {
		t.Fatalf("Deficit = %.2f, want 500", p.Deficit)
	}
}

func TestProjectMonotonic(t *testing.T) {
	base := model.Baseline{Income: 4200, Expenses: 3900}
	prevInc, prevNet := math.Inf(-1), math.Inf(-1)
	for pct := MinAdjustmentPct; pct <= MaxAdjustmentPct; pct += 2.5 {
		p := ProjectPct(base, pct, 0)
		if p.ProjectedIncome < prevInc {
			t.Fatalf("income decreased at %.1f%%", pct)
		}
		if p.NetSavings < prevNet {
			t.Fatalf("net savings decreased at %.1f%%", pct)
		}
		prevInc, prevNet = p.ProjectedIncome, p.NetSavings
	}

	prevExp, prevNet := math.Inf(-1), math.Inf(1)
	for pct := MinAdjustmentPct; pct <= MaxAdjustmentPct; pct += 2.5 {
		p := ProjectPct(base, 0, pct)
		if p.ProjectedExpenses < prevExp {
			t.Fatalf("expenses decreased at %.1f%%", pct)
		}
		if p.NetSavings > prevNet {
			t.Fatalf("net savings increased with expenses at %.1f%%", pct)
		}
		prevExp, prevNet = p.ProjectedExpenses, p.NetSavings
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		s    model.ForecastScenario
		ok   bool
	}{
		{"valid", model.ForecastScenario{Name: "x", IncomeAdjustmentPct: 100, ExpenseAdjustmentPct: -50}, true},
		{"no name", model.ForecastScenario{Name: "  "}, false},
		{"income too high", model.ForecastScenario{Name: "x", IncomeAdjustmentPct: 100.5}, false},
		{"expense too low", model.ForecastScenario{Name: "x", ExpenseAdjustmentPct: -51}, false},
		{"nan", model.ForecastScenario{Name: "x", IncomeAdjustmentPct: math.NaN()}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.s)
			if tt.ok && err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidScenario) {
				t.Fatalf("Validate error = %v, want ErrInvalidScenario", err)
			}
		})
	}
}

func TestApplyPartial(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	s := model.ForecastScenario{ID: "a", Name: "Plan", IncomeAdjustmentPct: 5, ExpenseAdjustmentPct: 3}

	inc := 20.0
	got, err := Apply(s, model.ScenarioPatch{IncomeAdjustmentPct: &inc}, now)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.IncomeAdjustmentPct != 20 || got.ExpenseAdjustmentPct != 3 || got.Name != "Plan" {
		t.Fatalf("Apply = %+v", got)
	}
	if !got.UpdatedAt.Equal(now) {
		t.Fatalf("UpdatedAt = %v, want %v", got.UpdatedAt, now)
	}

	bad := 150.0
	if _, err := Apply(s, model.ScenarioPatch{ExpenseAdjustmentPct: &bad}, now); !errors.Is(err, ErrInvalidScenario) {
		t.Fatalf("Apply out of range error = %v, want ErrInvalidScenario", err)
	}
}

func TestDuplicate(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	s := Defaults(now)[1]
	d := Duplicate(s, "new-id", now.Add(time.Hour))
	if d.ID != "new-id" || d.IsDefault || d.Name != "Optimistic (copy)" {
		t.Fatalf("Duplicate = %+v", d)
	}
	if d.IncomeAdjustmentPct != s.IncomeAdjustmentPct {
		t.Fatal("Duplicate changed adjustments")
	}
}

func TestCompare(t *testing.T) {
	base := model.Baseline{Income: 1000, Expenses: 800}
	a := model.ForecastScenario{Name: "a"}
	b := model.ForecastScenario{Name: "b", IncomeAdjustmentPct: 10, ExpenseAdjustmentPct: 10}
	d := Compare(base, a, b)
	if !approx(d.Income, 100) || !approx(d.Expenses, 80) || !approx(d.NetSavings, 20) {
		t.Fatalf("Compare = %+v", d)
	}
}

func TestDefaultsAreValid(t *testing.T) {
	for _, s := range Defaults(time.Now()) {
		if err := Validate(s); err != nil {
			t.Fatalf("default %q: %v", s.Name, err)
		}
		if !s.IsDefault {
			t.Fatalf("default %q not marked IsDefault", s.Name)
		}
	}
}

func TestClampPct(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{25, 25},
		{-80, MinAdjustmentPct},
		{250, MaxAdjustmentPct},
		{math.Inf(1), MaxAdjustmentPct},
		{math.Inf(-1), MinAdjustmentPct},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := ClampPct(tt.in); got != tt.want {
			t.Errorf("ClampPct(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
