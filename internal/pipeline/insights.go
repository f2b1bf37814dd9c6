package pipeline

import (
	"math"
	"strings"
	"time"

	"github.com/theirongolddev/fcast/internal/model"
	"github.com/theirongolddev/fcast/internal/scenario"
)

// Summarize derives trend, anomaly count and totals from days in order.
// The series is split at its midpoint and the half means compared; fewer
// than two days gives TrendNone rather than an error.
func Summarize(days []model.AggregatedDay) model.Insight {
	ins := model.Insight{Days: len(days), Trend: model.TrendNone}

	for _, d := range days {
		ins.TotalAmount += d.Total
		if d.IsAnomaly {
			ins.AnomalyCount++
		}
	}
	if len(days) > 0 {
		ins.AverageDaily = ins.TotalAmount / float64(len(days))
	}

	if len(days) < 2 {
		ins.Undefined = model.UndefinedInsufficientData
		return ins
	}

	mid := len(days) / 2
	ins.FirstMean = meanTotal(days[:mid])
	ins.SecondMean = meanTotal(days[mid:])

	if ins.SecondMean > ins.FirstMean {
		ins.Trend = model.TrendIncreasing
	} else {
		ins.Trend = model.TrendDecreasing
	}

	if ins.FirstMean == 0 {
		ins.Undefined = model.UndefinedZeroBaseline
		return ins
	}
	ins.ChangePercent = math.Abs((ins.SecondMean - ins.FirstMean) / ins.FirstMean * 100)
	return ins
}

func meanTotal(days []model.AggregatedDay) float64 {
	if len(days) == 0 {
		return 0
	}
	var sum float64
	for _, d := range days {
		sum += d.Total
	}
	return sum / float64(len(days))
}

// ComparePeriods summarizes [since, until) and the equally long period before it.
func ComparePeriods(days []model.AggregatedDay, since, until time.Time) model.PeriodComparison {
	span := until.Sub(since)
	return model.PeriodComparison{
		Current:  Summarize(FilterByTime(days, since, until)),
		Previous: Summarize(FilterByTime(days, since.Add(-span), since)),
	}
}

// Diversification scores how evenly income is spread: (1 - largest share) * 100.
// It is only defined for more than one source. Shares come from the
// sources' Percentage fields, or from their amounts when no percentages are set.
func Diversification(sources []model.IncomeSource) (float64, bool) {
	if len(sources) <= 1 {
		return 0, false
	}

	var pctSum, amtSum, maxPct, maxAmt float64
	for _, s := range sources {
		pctSum += s.Percentage
		amtSum += s.Amount
		maxPct = math.Max(maxPct, s.Percentage)
		maxAmt = math.Max(maxAmt, s.Amount)
	}

	var maxShare float64
	switch {
	case pctSum > 0:
		maxShare = maxPct / 100
	case amtSum > 0:
		maxShare = maxAmt / amtSum
	default:
		return 0, false
	}
	return (1 - maxShare) * 100, true
}

// SummarizeIncome picks the primary source and counts stable and growing ones.
func SummarizeIncome(sources []model.IncomeSource) model.IncomeInsight {
	ins := model.IncomeInsight{TotalSources: len(sources)}
	ins.DiversificationScore, ins.Defined = Diversification(sources)

	for i, s := range sources {
		if i == 0 || s.Amount > ins.Primary.Amount {
			ins.Primary = s
		}
		if isStable(s.Stability) {
			ins.StableSources++
		}
		if s.GrowthRate > 0 {
			ins.GrowingSources++
		}
	}
	return ins
}

func isStable(s string) bool {
	return strings.EqualFold(s, "stable") || strings.EqualFold(s, "high")
}

// SummarizeGoals rolls up a set of goals as of today.
func SummarizeGoals(goals []model.SavingsGoal, today time.Time) model.GoalSummary {
	sum := model.GoalSummary{Goals: len(goals)}
	if len(goals) == 0 {
		return sum
	}

	var progressSum float64
	for _, g := range goals {
		sum.TotalTarget += g.TargetAmount
		sum.TotalCurrent += g.CurrentAmount
		progressSum += g.DisplayProgress()

		switch scenario.GoalProgress(g, today).State {
		case model.GoalCompleted:
			sum.Completed++
		case model.GoalOnTrack:
			sum.OnTrack++
		case model.GoalAtRisk:
			sum.AtRisk++
		case model.GoalOffTrack:
			sum.OffTrack++
		}
	}

	if sum.TotalTarget > 0 {
		sum.OverallProgress = sum.TotalCurrent / sum.TotalTarget * 100
	}
	sum.AverageProgress = progressSum / float64(len(goals))
	return sum
}
