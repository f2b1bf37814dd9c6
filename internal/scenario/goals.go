package scenario

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/theirongolddev/fcast/internal/model"
)

// ErrInvalidGoalParameters is returned when a goal target is not positive or
// its date cannot be used.
var ErrInvalidGoalParameters = errors.New("invalid goal parameters")

const day = 24 * time.Hour

// AutoContribution returns the weekly, monthly and quarterly amounts needed to
// reach targetAmount by targetDate. Each amount is rounded up to a whole unit
// so that paying it every period reaches the target.
func AutoContribution(targetAmount float64, targetDate, today time.Time) (model.ContributionSchedule, error) {
	if targetAmount <= 0 || math.IsNaN(targetAmount) || math.IsInf(targetAmount, 0) {
		return model.ContributionSchedule{}, fmt.Errorf("%w: target amount must be positive", ErrInvalidGoalParameters)
	}
	if targetDate.IsZero() {
		return model.ContributionSchedule{}, fmt.Errorf("%w: target date is required", ErrInvalidGoalParameters)
	}

	days := int(math.Ceil(float64(targetDate.Sub(today)) / float64(day)))
	if days < 1 {
		days = 1
	}

	return model.ContributionSchedule{
		DaysRemaining: days,
		Weekly:        perPeriod(targetAmount, days, 7),
		Monthly:       perPeriod(targetAmount, days, 30),
		Quarterly:     perPeriod(targetAmount, days, 90),
	}, nil
}

// AutoContributionFromStrings parses the target date before calling AutoContribution.
func AutoContributionFromStrings(targetAmount float64, targetDate string, today time.Time) (model.ContributionSchedule, error) {
	if strings.TrimSpace(targetDate) == "" {
		return model.ContributionSchedule{}, fmt.Errorf("%w: target date is required", ErrInvalidGoalParameters)
	}
	d, err := model.ParseDate(targetDate)
	if err != nil {
		return model.ContributionSchedule{}, fmt.Errorf("%w: %v", ErrInvalidGoalParameters, err)
	}
	return AutoContribution(targetAmount, d, today)
}

// perPeriod is ceil(target / max(1, ceil(days/period))).
func perPeriod(target float64, days, period int) float64 {
	periods := (days + period - 1) / period
	if periods < 1 {
		periods = 1
	}
	return math.Ceil(target / float64(periods))
}

// ValidateGoal checks the stored fields of a goal.
func ValidateGoal(g model.SavingsGoal) error {
	switch {
	case strings.TrimSpace(g.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidGoalParameters)
	case !finite(g.TargetAmount, g.CurrentAmount, g.MonthlyContribution):
		return fmt.Errorf("%w: amounts must be finite", ErrInvalidGoalParameters)
	case g.TargetAmount <= 0:
		return fmt.Errorf("%w: target amount must be positive", ErrInvalidGoalParameters)
	case g.TargetDate.IsZero():
		return fmt.Errorf("%w: target date is required", ErrInvalidGoalParameters)
	case g.CurrentAmount < 0:
		return fmt.Errorf("%w: current amount cannot be negative", ErrInvalidGoalParameters)
	case g.MonthlyContribution < 0:
		return fmt.Errorf("%w: monthly contribution cannot be negative", ErrInvalidGoalParameters)
	}
	return nil
}

// GoalProgress derives the time-dependent status of g as of today.
// Contribution needs are based on the amount still remaining, spread over
// whole-day months and weeks with a floor of one period.
func GoalProgress(g model.SavingsGoal, today time.Time) model.GoalStatus {
	st := model.GoalStatus{
		Goal:      g,
		Remaining: math.Max(0, g.TargetAmount-g.CurrentAmount),
		Progress:  g.DisplayProgress(),
	}

	days := int(g.TargetDate.Sub(today) / day)
	if days > 0 {
		st.DaysRemaining = days
		st.MonthlyNeeded = st.Remaining / math.Max(float64(days)/30, 1)
		st.WeeklyNeeded = st.Remaining / math.Max(float64(days)/7, 1)
	}

	switch {
	case g.CurrentAmount >= g.TargetAmount:
		st.State = model.GoalCompleted
	case days <= 0:
		st.State = model.GoalOffTrack
		st.Overdue = true
	case g.MonthlyContribution >= st.MonthlyNeeded:
		st.State = model.GoalOnTrack
	case g.MonthlyContribution >= st.MonthlyNeeded/2:
		st.State = model.GoalAtRisk
	default:
		st.State = model.GoalOffTrack
	}
	return st
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
