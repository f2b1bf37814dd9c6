package model

import "time"

// SavingsGoal is a target amount to reach by a date.
type SavingsGoal struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	TargetAmount        float64   `json:"targetAmount"`
	TargetDate          time.Time `json:"targetDate"`
	CurrentAmount       float64   `json:"currentAmount"`
	MonthlyContribution float64   `json:"monthlyContribution"`
	CreatedAt           time.Time `json:"createdAt"`
}

// Progress returns the unclamped percent of the target reached.
func (g SavingsGoal) Progress() float64 {
	if g.TargetAmount <= 0 {
		return 0
	}
	return g.CurrentAmount / g.TargetAmount * 100
}

// DisplayProgress is Progress capped at 100.
func (g SavingsGoal) DisplayProgress() float64 {
	p := g.Progress()
	if p > 100 {
		return 100
	}
	return p
}

// ContributionSchedule is the per-period amount needed to reach a target on time.
type ContributionSchedule struct {
	DaysRemaining int
	Weekly        float64
	Monthly       float64
	Quarterly     float64
}

// GoalState classifies how a goal is tracking against its deadline.
type GoalState string

const (
	GoalCompleted GoalState = "completed"
	GoalOnTrack   GoalState = "on-track"
	GoalAtRisk    GoalState = "at-risk"
	GoalOffTrack  GoalState = "off-track"
)

// GoalStatus is the derived, time-dependent state of a single goal.
type GoalStatus struct {
	Goal          SavingsGoal
	Remaining     float64
	Progress      float64 // clamped to 100
	DaysRemaining int
	MonthlyNeeded float64
	WeeklyNeeded  float64
	State         GoalState
	Overdue       bool
}

// GoalSummary rolls up a set of goals.
type GoalSummary struct {
	TotalTarget     float64
	TotalCurrent    float64
	OverallProgress float64
	AverageProgress float64
	Goals           int
	Completed       int
	OnTrack         int
	AtRisk          int
	OffTrack        int
}
