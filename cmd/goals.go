package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/fcast/internal/cli"
	"github.com/theirongolddev/fcast/internal/model"
	"github.com/theirongolddev/fcast/internal/pipeline"
	"github.com/theirongolddev/fcast/internal/planner"
	"github.com/theirongolddev/fcast/internal/scenario"

	"github.com/spf13/cobra"
)

var (
	flagGoalTarget  float64
	flagGoalBy      string
	flagGoalCurrent float64
	flagGoalMonthly float64
)

var goalsCmd = &cobra.Command{
	Use:     "goals",
	Aliases: []string{"goal"},
	Short:   "Track savings goals",
	RunE:    runGoalsList,
}

var goalsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List goals with progress",
	RunE:  runGoalsList,
}

var goalsAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a savings goal",
	Args:  cobra.ExactArgs(1),
	RunE:  runGoalsAdd,
}

var goalsContributeCmd = &cobra.Command{
	Use:   "contribute ID AMOUNT",
	Short: "Record money put toward a goal",
	Args:  cobra.ExactArgs(2),
	RunE:  runGoalsContribute,
}

var goalsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a goal",
	Args:  cobra.ExactArgs(1),
	RunE:  runGoalsDelete,
}

var goalsPlanCmd = &cobra.Command{
	Use:   "plan AMOUNT DATE",
	Short: "Weekly, monthly and quarterly amounts needed to save AMOUNT by DATE",
	Args:  cobra.ExactArgs(2),
	RunE:  runGoalsPlan,
}

func init() {
	goalsAddCmd.Flags().Float64Var(&flagGoalTarget, "target", 0, "Target amount")
	goalsAddCmd.Flags().StringVar(&flagGoalBy, "by", "", "Target date (YYYY-MM-DD)")
	goalsAddCmd.Flags().Float64Var(&flagGoalCurrent, "current", 0, "Amount already saved")
	goalsAddCmd.Flags().Float64Var(&flagGoalMonthly, "monthly", 0, "Planned monthly contribution")
	_ = goalsAddCmd.MarkFlagRequired("target")
	_ = goalsAddCmd.MarkFlagRequired("by")

	goalsCmd.AddCommand(goalsListCmd, goalsAddCmd, goalsContributeCmd, goalsDeleteCmd, goalsPlanCmd)
	rootCmd.AddCommand(goalsCmd)
}

func runGoalsList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	svc, closeFn, err := openPlanner(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	goals, err := svc.ListGoals(ctx)
	if err != nil {
		return err
	}
	if len(goals) == 0 {
		fmt.Println("\n  No goals yet. Add one with `fcast goals add NAME --target 5000 --by 2027-06-30`.")
		return nil
	}

	today := time.Now()
	sum := pipeline.SummarizeGoals(goals, today)

	fmt.Println()
	fmt.Println(cli.RenderTitle("SAVINGS GOALS"))
	fmt.Println()

	rows := make([][]string, 0, len(goals))
	for _, g := range goals {
		st := scenario.GoalProgress(g, today)
		due := cli.FormatDays(st.DaysRemaining)
		if st.Overdue {
			due = "overdue"
		}
		rows = append(rows, []string{
			shortID(g.ID),
			g.Name,
			cli.FormatCurrency(g.CurrentAmount) + " / " + cli.FormatCurrency(g.TargetAmount),
			cli.RenderProgressBar(st.Progress, 16),
			cli.FormatDate(g.TargetDate),
			due,
			cli.FormatCurrency(st.MonthlyNeeded) + "/mo",
			string(st.State),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"ID", "Goal", "Saved", "Progress", "Target date", "Left", "Needed", "Status"},
		Rows:    rows,
	}))

	fmt.Println()
	fmt.Print(cli.RenderKeyValues([][2]string{
		{"Saved", fmt.Sprintf("%s of %s (%s)", cli.FormatCurrency(sum.TotalCurrent),
			cli.FormatCurrency(sum.TotalTarget), cli.FormatPercent(sum.OverallProgress))},
		{"Average progress", cli.FormatPercent(sum.AverageProgress)},
		{"Status", fmt.Sprintf("%d completed, %d on track, %d at risk, %d off track",
			sum.Completed, sum.OnTrack, sum.AtRisk, sum.OffTrack)},
	}))
	return nil
}

func runGoalsAdd(cmd *cobra.Command, args []string) error {
	by, err := parseDateFlag(flagGoalBy)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	svc, closeFn, err := openPlanner(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	g, err := svc.CreateGoal(ctx, model.SavingsGoal{
		Name:                args[0],
		TargetAmount:        flagGoalTarget,
		TargetDate:          by,
		CurrentAmount:       flagGoalCurrent,
		MonthlyContribution: flagGoalMonthly,
	})
	if err != nil {
		return err
	}

	fmt.Printf("  Created %s (%s)\n", g.Name, g.ID)
	if remaining := g.TargetAmount - g.CurrentAmount; remaining > 0 {
		if plan, err := scenario.AutoContribution(remaining, g.TargetDate, time.Now()); err == nil {
			fmt.Printf("  Save %s a month (%s a week) to reach it on time.\n",
				cli.FormatCurrency(plan.Monthly), cli.FormatCurrency(plan.Weekly))
		}
	}
	return nil
}

func runGoalsContribute(cmd *cobra.Command, args []string) error {
	amount, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("amount must be a number: %w", err)
	}

	ctx := cmd.Context()
	svc, closeFn, err := openPlanner(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	id, err := resolveGoalID(ctx, svc, args[0])
	if err != nil {
		return err
	}
	g, err := svc.Contribute(ctx, id, amount)
	if err != nil {
		return err
	}
	fmt.Printf("  %s: %s of %s (%s)\n", g.Name, cli.FormatCurrency(g.CurrentAmount),
		cli.FormatCurrency(g.TargetAmount), cli.FormatPercent(g.DisplayProgress()))
	return nil
}

func runGoalsDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, closeFn, err := openPlanner(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	id, err := resolveGoalID(ctx, svc, args[0])
	if err != nil {
		return err
	}
	if err := svc.DeleteGoal(ctx, id); err != nil {
		return err
	}
	fmt.Printf("  Deleted goal %s\n", shortID(id))
	return nil
}

func runGoalsPlan(_ *cobra.Command, args []string) error {
	amount, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("amount must be a number: %w", err)
	}
	plan, err := scenario.AutoContributionFromStrings(amount, args[1], time.Now())
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Print(cli.RenderKeyValues([][2]string{
		{"Days remaining", cli.FormatDays(plan.DaysRemaining)},
		{"Weekly", cli.FormatCurrency(plan.Weekly)},
		{"Monthly", cli.FormatCurrency(plan.Monthly)},
		{"Quarterly", cli.FormatCurrency(plan.Quarterly)},
	}))
	return nil
}

// resolveGoalID accepts a full ID or the short prefix shown by `goals list`.
func resolveGoalID(ctx context.Context, svc *planner.Service, ref string) (string, error) {
	goals, err := svc.ListGoals(ctx)
	if err != nil {
		return "", err
	}
	var match string
	for _, g := range goals {
		if g.ID == ref {
			return g.ID, nil
		}
		if len(ref) >= 4 && strings.HasPrefix(g.ID, ref) {
			if match != "" {
				return "", fmt.Errorf("goal prefix %q is ambiguous", ref)
			}
			match = g.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("goal %q not found", ref)
	}
	return match, nil
}
