package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/fcast/internal/cli"
	"github.com/theirongolddev/fcast/internal/model"
	"github.com/theirongolddev/fcast/internal/pipeline"
	"github.com/theirongolddev/fcast/internal/planner"
	"github.com/theirongolddev/fcast/internal/scenario"
	"github.com/theirongolddev/fcast/internal/tui/components"
	"github.com/theirongolddev/fcast/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

type goalsState struct {
	cursor       int
	contributing bool
	input        textinput.Model
}

type goalFormValues struct {
	name         string
	target       string
	targetDate   string
	current      string
	contribution string
}

func (a App) selectedGoal() (model.SavingsGoal, bool) {
	if a.goal.cursor < 0 || a.goal.cursor >= len(a.goals) {
		return model.SavingsGoal{}, false
	}
	return a.goals[a.goal.cursor], true
}

func (a App) updateGoalsKey(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "j", "down":
		if a.goal.cursor < len(a.goals)-1 {
			a.goal.cursor++
		}
		return a, nil, true
	case "k", "up":
		if a.goal.cursor > 0 {
			a.goal.cursor--
		}
		return a, nil, true
	case "n":
		*a.goalVals = goalFormValues{
			targetDate: a.now().AddDate(1, 0, 0).Format(model.DateLayout),
		}
		a.form = newGoalForm(a.goalVals, a.now())
		a.formKind = formGoal
		return a, a.form.Init(), true
	case "c":
		if _, ok := a.selectedGoal(); !ok {
			return a, nil, true
		}
		ti := textinput.New()
		ti.Placeholder = "amount"
		ti.CharLimit = 20
		ti.Width = 20
		ti.Focus()
		a.goal.input = ti
		a.goal.contributing = true
		return a, ti.Cursor.BlinkCmd(), true
	case "D":
		g, ok := a.selectedGoal()
		if !ok {
			return a, nil, true
		}
		return a, plannerOp(a.planner, func(ctx context.Context, svc *planner.Service) (plannerOpMsg, error) {
			if err := svc.DeleteGoal(ctx, g.ID); err != nil {
				return plannerOpMsg{}, err
			}
			return plannerOpMsg{status: "deleted " + g.Name}, nil
		}), true
	}
	return a, nil, false
}

func (a App) updateContributeInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.goal.contributing = false
		return a, nil
	case "enter":
		a.goal.contributing = false
		g, ok := a.selectedGoal()
		if !ok {
			return a, nil
		}
		amount, err := parseOptionalAmount(a.goal.input.Value())
		if err != nil {
			a.setStatus(err.Error(), true)
			return a, nil
		}
		return a, plannerOp(a.planner, func(ctx context.Context, svc *planner.Service) (plannerOpMsg, error) {
			updated, err := svc.Contribute(ctx, g.ID, amount)
			if err != nil {
				return plannerOpMsg{}, err
			}
			return plannerOpMsg{status: fmt.Sprintf("%s: %s saved", updated.Name, cli.FormatCurrency(updated.CurrentAmount))}, nil
		})
	}

	var cmd tea.Cmd
	a.goal.input, cmd = a.goal.input.Update(msg)
	return a, cmd
}

func newGoalForm(v *goalFormValues, today time.Time) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Goal name").
				Value(&v.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Target amount").
				Value(&v.target).
				Validate(func(s string) error {
					amt, err := parseOptionalAmount(s)
					if err != nil {
						return err
					}
					if amt <= 0 {
						return fmt.Errorf("target must be positive")
					}
					return nil
				}),
			huh.NewInput().
				Title("Target date").
				Description("YYYY-MM-DD").
				Value(&v.targetDate).
				Validate(func(s string) error {
					d, err := time.Parse(model.DateLayout, strings.TrimSpace(s))
					if err != nil {
						return fmt.Errorf("use YYYY-MM-DD")
					}
					if !d.After(today) {
						return fmt.Errorf("target date must be in the future")
					}
					return nil
				}),
			huh.NewInput().
				Title("Already saved").
				Value(&v.current).
				Validate(validateOptionalAmount),
			huh.NewInput().
				Title("Monthly contribution").
				Value(&v.contribution).
				Validate(validateOptionalAmount),
		).Title("New savings goal"),
	).WithShowHelp(true)
}

func createGoalCmd(svc *planner.Service, v goalFormValues) tea.Cmd {
	return plannerOp(svc, func(ctx context.Context, svc *planner.Service) (plannerOpMsg, error) {
		target, err := parseOptionalAmount(v.target)
		if err != nil {
			return plannerOpMsg{}, err
		}
		date, err := time.Parse(model.DateLayout, strings.TrimSpace(v.targetDate))
		if err != nil {
			return plannerOpMsg{}, fmt.Errorf("%w: target date %q", scenario.ErrInvalidGoalParameters, v.targetDate)
		}
		current, err := parseOptionalAmount(v.current)
		if err != nil {
			return plannerOpMsg{}, err
		}
		monthly, err := parseOptionalAmount(v.contribution)
		if err != nil {
			return plannerOpMsg{}, err
		}
		g, err := svc.CreateGoal(ctx, model.SavingsGoal{
			Name:                v.name,
			TargetAmount:        target,
			TargetDate:          date,
			CurrentAmount:       current,
			MonthlyContribution: monthly,
		})
		if err != nil {
			return plannerOpMsg{}, err
		}
		return plannerOpMsg{status: "created goal " + g.Name}, nil
	})
}

func (a App) renderGoalsTab(cw int) string {
	t := theme.Active
	today := a.now()

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	sum := pipeline.SummarizeGoals(a.goals, today)

	var b strings.Builder
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Saved", Value: cli.FormatCurrency(sum.TotalCurrent), Delta: "of " + cli.FormatCurrency(sum.TotalTarget)},
		{Label: "Overall", Value: cli.FormatPercent(sum.OverallProgress), Delta: "avg " + cli.FormatPercent(sum.AverageProgress)},
		{Label: "On Track", Value: fmt.Sprintf("%d / %d", sum.OnTrack+sum.Completed, sum.Goals), DeltaColor: t.Gain,
			Delta: fmt.Sprintf("%d completed", sum.Completed)},
		{Label: "Needs Attention", Value: fmt.Sprintf("%d", sum.AtRisk+sum.OffTrack), DeltaColor: t.Warn,
			Delta: fmt.Sprintf("%d at risk, %d off track", sum.AtRisk, sum.OffTrack)},
	}, cw))
	b.WriteString("\n")

	inner := components.CardInnerWidth(cw)
	labelW := min(24, inner/4)
	barW := max(10, inner-labelW-20)

	var list strings.Builder
	if len(a.goals) == 0 {
		list.WriteString(dimStyle.Render("No goals yet. Press n to add one."))
	}
	for i, g := range a.goals {
		marker := spaceStyle.Render("  ")
		if i == a.goal.cursor {
			marker = markerStyle.Render("▸ ")
		}
		list.WriteString(marker)
		list.WriteString(components.GoalBar(scenario.GoalProgress(g, today), labelW, barW))
		if i < len(a.goals)-1 {
			list.WriteString("\n")
		}
	}
	b.WriteString(components.ContentCard("Goals", list.String(), cw))

	g, ok := a.selectedGoal()
	if !ok {
		return b.String()
	}

	st := scenario.GoalProgress(g, today)
	var detail strings.Builder
	kv := func(label, value string) {
		detail.WriteString(labelStyle.Render(fmt.Sprintf("%-22s", label)))
		detail.WriteString(valueStyle.Render(value))
		detail.WriteString("\n")
	}
	kv("Target", fmt.Sprintf("%s by %s", cli.FormatCurrency(g.TargetAmount), cli.FormatDate(g.TargetDate)))
	kv("Saved", fmt.Sprintf("%s (%s)", cli.FormatCurrency(g.CurrentAmount), cli.FormatPercent(g.Progress())))
	kv("Remaining", cli.FormatCurrency(st.Remaining))
	kv("Contributing", cli.FormatCurrency(g.MonthlyContribution)+"/mo")
	if st.State != model.GoalCompleted {
		if sched, err := scenario.AutoContribution(st.Remaining, g.TargetDate, today); err == nil {
			kv("Time left", cli.FormatDays(sched.DaysRemaining))
			kv("Needed weekly", cli.FormatCurrency(sched.Weekly))
			kv("Needed monthly", cli.FormatCurrency(sched.Monthly))
			kv("Needed quarterly", cli.FormatCurrency(sched.Quarterly))
		} else {
			kv("Time left", cli.FormatDays(st.DaysRemaining))
			detail.WriteString(lipgloss.NewStyle().Foreground(t.Loss).Background(t.Surface).Render(err.Error()))
			detail.WriteString("\n")
		}
	}

	detail.WriteString("\n")
	if a.goal.contributing {
		detail.WriteString(labelStyle.Render("Contribute: "))
		detail.WriteString(a.goal.input.View())
	} else {
		detail.WriteString(dimStyle.Render("[c]ontribute  [n]ew  [D]elete"))
	}

	b.WriteString("\n")
	b.WriteString(components.FocusedCard(g.Name, detail.String(), cw))
	return b.String()
}
