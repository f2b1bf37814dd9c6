package pipeline

import (
	"math"
	"testing"
	"time"

	"github.com/theirongolddev/fcast/internal/model"
)

func daysOf(totals ...float64) []model.AggregatedDay {
	out := make([]model.AggregatedDay, len(totals))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range totals {
		out[i] = model.AggregatedDay{Date: start.AddDate(0, 0, i), Total: v}
	}
	return out
}

func TestSummarizeIncreasing(t *testing.T) {
	ins := Summarize(daysOf(100, 100, 200, 200))
	if ins.Trend != model.TrendIncreasing {
		t.Fatalf("Trend = %s, want increasing", ins.Trend)
	}
	if ins.ChangePercent != 100 {
		t.Fatalf("ChangePercent = %.2f, want 100", ins.ChangePercent)
	}
	if ins.TotalAmount != 600 || ins.AverageDaily != 150 {
		t.Fatalf("Total/Average = %.2f/%.2f, want 600/150", ins.TotalAmount, ins.AverageDaily)
	}
	if ins.Undefined != model.Defined {
		t.Fatalf("Undefined = %q, want empty", ins.Undefined)
	}
}

func TestSummarizeDecreasingIsAbsolute(t *testing.T) {
	ins := Summarize(daysOf(200, 200, 100, 100))
	if ins.Trend != model.TrendDecreasing {
		t.Fatalf("Trend = %s, want decreasing", ins.Trend)
	}
	if ins.ChangePercent != 50 {
		t.Fatalf("ChangePercent = %.2f, want 50", ins.ChangePercent)
	}
}

func TestSummarizeOddLengthMidpoint(t *testing.T) {
	// mid = 1: first half [10], second half [20, 30]
	ins := Summarize(daysOf(10, 20, 30))
	if ins.FirstMean != 10 || ins.SecondMean != 25 {
		t.Fatalf("means = %.2f/%.2f, want 10/25", ins.FirstMean, ins.SecondMean)
	}
	if math.Abs(ins.ChangePercent-150) > 1e-9 {
		t.Fatalf("ChangePercent = %.2f, want 150", ins.ChangePercent)
	}
}

func TestSummarizeEqualMeansIsDecreasing(t *testing.T) {
	ins := Summarize(daysOf(50, 50))
	if ins.Trend != model.TrendDecreasing || ins.ChangePercent != 0 {
		t.Fatalf("Summarize = %+v, want decreasing 0%%", ins)
	}
}

func TestSummarizeZeroBaseline(t *testing.T) {
	ins := Summarize(daysOf(0, 0, 10, 10))
	if ins.Undefined != model.UndefinedZeroBaseline {
		t.Fatalf("Undefined = %q, want zero baseline", ins.Undefined)
	}
	if ins.ChangePercent != 0 || math.IsInf(ins.ChangePercent, 0) || math.IsNaN(ins.ChangePercent) {
		t.Fatalf("ChangePercent = %v, want 0", ins.ChangePercent)
	}
	if ins.Trend != model.TrendIncreasing {
		t.Fatalf("Trend = %s, want increasing", ins.Trend)
	}
}

func TestSummarizeInsufficientData(t *testing.T) {
	for _, days := range [][]model.AggregatedDay{nil, daysOf(42)} {
		ins := Summarize(days)
		if ins.HasTrend() {
			t.Fatalf("len %d: HasTrend = true", len(days))
		}
		if ins.Undefined != model.UndefinedInsufficientData {
			t.Fatalf("len %d: Undefined = %q", len(days), ins.Undefined)
		}
	}
	if got := Summarize(daysOf(42)).AverageDaily; got != 42 {
		t.Fatalf("AverageDaily = %.2f, want 42", got)
	}
}

func TestSummarizeCountsAnomalies(t *testing.T) {
	days := daysOf(1, 2, 3, 4)
	days[1].IsAnomaly = true
	days[3].IsAnomaly = true
	if n := Summarize(days).AnomalyCount; n != 2 {
		t.Fatalf("AnomalyCount = %d, want 2", n)
	}
}

func TestComparePeriods(t *testing.T) {
	days := daysOf(1, 1, 1, 1, 5, 5, 5, 5)
	since := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	until := time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)
	cmp := ComparePeriods(days, since, until)
	if cmp.Current.TotalAmount != 20 || cmp.Previous.TotalAmount != 4 {
		t.Fatalf("current/previous = %.0f/%.0f, want 20/4", cmp.Current.TotalAmount, cmp.Previous.TotalAmount)
	}
}

func TestDiversification(t *testing.T) {
	score, ok := Diversification([]model.IncomeSource{
		{Name: "Salary", Percentage: 70},
		{Name: "Freelance", Percentage: 20},
		{Name: "Dividends", Percentage: 10},
	})
	if !ok || math.Abs(score-30) > 1e-9 {
		t.Fatalf("Diversification = %.2f/%v, want 30/true", score, ok)
	}

	if _, ok := Diversification([]model.IncomeSource{{Name: "Salary", Percentage: 100}}); ok {
		t.Fatal("single source should be undefined")
	}

	score, ok = Diversification([]model.IncomeSource{{Amount: 300}, {Amount: 100}})
	if !ok || math.Abs(score-25) > 1e-9 {
		t.Fatalf("amount-based Diversification = %.2f/%v, want 25/true", score, ok)
	}
}

func TestSummarizeIncome(t *testing.T) {
	ins := SummarizeIncome([]model.IncomeSource{
		{Name: "Freelance", Amount: 1000, Percentage: 20, GrowthRate: 8, Stability: "variable"},
		{Name: "Salary", Amount: 4000, Percentage: 80, Stability: "Stable"},
	})
	if ins.Primary.Name != "Salary" {
		t.Fatalf("Primary = %s, want Salary", ins.Primary.Name)
	}
	if ins.StableSources != 1 || ins.GrowingSources != 1 || ins.TotalSources != 2 {
		t.Fatalf("counts = %+v", ins)
	}
	if math.Abs(ins.DiversificationScore-20) > 1e-9 {
		t.Fatalf("DiversificationScore = %.2f, want 20", ins.DiversificationScore)
	}
}

func TestSummarizeGoals(t *testing.T) {
	today := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	goals := []model.SavingsGoal{
		{Name: "done", TargetAmount: 1000, CurrentAmount: 1200, TargetDate: today.AddDate(0, 1, 0)},
		{Name: "fine", TargetAmount: 3000, CurrentAmount: 0, MonthlyContribution: 1000, TargetDate: today.AddDate(0, 0, 90)},
		{Name: "late", TargetAmount: 1000, CurrentAmount: 0, TargetDate: today.AddDate(0, 0, -1)},
	}
	sum := SummarizeGoals(goals, today)
	if sum.Goals != 3 || sum.Completed != 1 || sum.OnTrack != 1 || sum.OffTrack != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if sum.TotalTarget != 5000 || sum.TotalCurrent != 1200 {
		t.Fatalf("totals = %.0f/%.0f, want 5000/1200", sum.TotalTarget, sum.TotalCurrent)
	}
	if math.Abs(sum.OverallProgress-24) > 1e-9 {
		t.Fatalf("OverallProgress = %.2f, want 24", sum.OverallProgress)
	}
	if math.Abs(sum.AverageProgress-100.0/3) > 1e-9 {
		t.Fatalf("AverageProgress = %.4f, want 33.33", sum.AverageProgress)
	}
}

func TestSummarizeForecast(t *testing.T) {
	a1, a2 := 110.0, 50.0
	points := []model.ForecastDataPoint{
		{Actual: &a1, Predicted: 100, ConfidenceLower: 90, ConfidenceUpper: 120},
		{Actual: &a2, Predicted: 100, ConfidenceLower: 90, ConfidenceUpper: 120},
		{Predicted: 100, ConfidenceLower: 110, ConfidenceUpper: 120},
	}
	acc := SummarizeForecast(points)
	if acc.WithActual != 2 || acc.WithinBand != 1 || acc.Invalid != 1 {
		t.Fatalf("accuracy = %+v", acc)
	}
	if acc.MeanAbsError != 30 {
		t.Fatalf("MeanAbsError = %.2f, want 30", acc.MeanAbsError)
	}
}

func TestSortPointsDedupes(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC) }
	got := SortPoints([]model.ForecastDataPoint{
		{Date: d(3), Predicted: 3}, {Date: d(1), Predicted: 1}, {Date: d(3), Predicted: 99},
	})
	if len(got) != 2 || got[0].Predicted != 1 || got[1].Predicted != 3 {
		t.Fatalf("SortPoints = %+v", got)
	}
}

func TestSummarizeSeventyFivePercentRise(t *testing.T) {
	ins := Summarize(daysOf(100, 100, 150, 200))
	if ins.Trend != model.TrendIncreasing {
		t.Fatalf("Trend = %s, want increasing", ins.Trend)
	}
	if ins.FirstMean != 100 || ins.SecondMean != 175 {
		t.Fatalf("means = %.2f/%.2f, want 100/175", ins.FirstMean, ins.SecondMean)
	}
	if math.Abs(ins.ChangePercent-75) > 1e-9 {
		t.Fatalf("ChangePercent = %.4f, want 75", ins.ChangePercent)
	}
}
