package cmd

import (
	"fmt"

	"github.com/theirongolddev/fcast/internal/cli"
	"github.com/theirongolddev/fcast/internal/model"
	"github.com/theirongolddev/fcast/internal/scenario"

	"github.com/spf13/cobra"
)

var (
	flagScenarioDesc    string
	flagScenarioIncome  float64
	flagScenarioExpense float64
	flagScenarioName    string
)

var scenarioCmd = &cobra.Command{
	Use:     "scenario",
	Aliases: []string{"scenarios"},
	Short:   "Manage and project what-if scenarios",
	RunE:    runScenarioList,
}

var scenarioListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scenarios with their projections",
	RunE:  runScenarioList,
}

var scenarioCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a scenario",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenarioCreate,
}

var scenarioUpdateCmd = &cobra.Command{
	Use:   "update ID|NAME",
	Short: "Change a scenario's name, description or adjustments",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenarioUpdate,
}

var scenarioDeleteCmd = &cobra.Command{
	Use:   "delete ID|NAME",
	Short: "Delete a user scenario",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenarioDelete,
}

var scenarioDuplicateCmd = &cobra.Command{
	Use:   "duplicate ID|NAME",
	Short: "Copy a scenario",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenarioDuplicate,
}

var scenarioProjectCmd = &cobra.Command{
	Use:   "project ID|NAME",
	Short: "Project a scenario against the current baseline",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenarioProject,
}

var scenarioCompareCmd = &cobra.Command{
	Use:   "compare A B",
	Short: "Show how scenario B differs from scenario A",
	Args:  cobra.ExactArgs(2),
	RunE:  runScenarioCompare,
}

func init() {
	for _, c := range []*cobra.Command{scenarioCreateCmd, scenarioUpdateCmd} {
		c.Flags().StringVar(&flagScenarioDesc, "description", "", "Scenario description")
		c.Flags().Float64Var(&flagScenarioIncome, "income", 0, "Income adjustment in percent (-50 to 100)")
		c.Flags().Float64Var(&flagScenarioExpense, "expenses", 0, "Expense adjustment in percent (-50 to 100)")
	}
	scenarioUpdateCmd.Flags().StringVar(&flagScenarioName, "name", "", "New scenario name")

	scenarioCmd.AddCommand(
		scenarioListCmd,
		scenarioCreateCmd,
		scenarioUpdateCmd,
		scenarioDeleteCmd,
		scenarioDuplicateCmd,
		scenarioProjectCmd,
		scenarioCompareCmd,
	)
	rootCmd.AddCommand(scenarioCmd)
}

func runScenarioList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	svc, closeFn, err := openPlanner(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	list, err := svc.ListScenarios(ctx)
	if err != nil {
		return err
	}
	base, err := resolveBaseline(ctx)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("SCENARIOS"))
	fmt.Println()

	rows := make([][]string, 0, len(list))
	for _, sc := range list {
		p := scenario.Project(base, sc)
		name := sc.Name
		if sc.IsDefault {
			name += " *"
		}
		rows = append(rows, []string{
			shortID(sc.ID),
			name,
			cli.FormatSignedPercent(sc.IncomeAdjustmentPct),
			cli.FormatSignedPercent(sc.ExpenseAdjustmentPct),
			cli.FormatCurrency(p.ProjectedIncome),
			cli.FormatCurrency(p.ProjectedExpenses),
			savingsCell(p),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"ID", "Name", "Income", "Expenses", "Proj. income", "Proj. expenses", "Net savings"},
		Rows:    rows,
	}))
	fmt.Printf("\n  Baseline: %s income, %s expenses per month.  * built-in\n",
		cli.FormatCurrency(base.Income), cli.FormatCurrency(base.Expenses))
	return nil
}

func runScenarioCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, closeFn, err := openPlanner(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	sc, err := svc.CreateScenario(ctx, args[0], flagScenarioDesc, flagScenarioIncome, flagScenarioExpense)
	if err != nil {
		return err
	}
	fmt.Printf("  Created %s (%s)\n", sc.Name, sc.ID)
	return nil
}

func runScenarioUpdate(cmd *cobra.Command, args []string) error {
	var patch model.ScenarioPatch
	flags := cmd.Flags()
	if flags.Changed("name") {
		patch.Name = &flagScenarioName
	}
	if flags.Changed("description") {
		patch.Description = &flagScenarioDesc
	}
	if flags.Changed("income") {
		patch.IncomeAdjustmentPct = &flagScenarioIncome
	}
	if flags.Changed("expenses") {
		patch.ExpenseAdjustmentPct = &flagScenarioExpense
	}
	if patch == (model.ScenarioPatch{}) {
		return fmt.Errorf("nothing to update: pass --name, --description, --income or --expenses")
	}

	ctx := cmd.Context()
	svc, closeFn, err := openPlanner(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	sc, err := svc.UpdateScenario(ctx, args[0], patch)
	if err != nil {
		return err
	}
	fmt.Printf("  Updated %s: income %s, expenses %s\n", sc.Name,
		cli.FormatSignedPercent(sc.IncomeAdjustmentPct), cli.FormatSignedPercent(sc.ExpenseAdjustmentPct))
	return nil
}

func runScenarioDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, closeFn, err := openPlanner(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := svc.DeleteScenario(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("  Deleted %s\n", args[0])
	return nil
}

func runScenarioDuplicate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, closeFn, err := openPlanner(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	dup, err := svc.DuplicateScenario(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("  Created %s (%s)\n", dup.Name, dup.ID)
	return nil
}

func runScenarioProject(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, closeFn, err := openPlanner(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	sc, err := svc.GetScenario(ctx, args[0])
	if err != nil {
		return err
	}
	base, err := resolveBaseline(ctx)
	if err != nil {
		return err
	}
	p := scenario.Project(base, sc)

	fmt.Println()
	fmt.Println(cli.RenderTitle("PROJECTION  " + sc.Name))
	fmt.Println()
	fmt.Print(cli.RenderKeyValues([][2]string{
		{"Income", fmt.Sprintf("%s  (%s of %s)", cli.FormatCurrency(p.ProjectedIncome),
			cli.FormatSignedPercent(sc.IncomeAdjustmentPct), cli.FormatCurrency(base.Income))},
		{"Expenses", fmt.Sprintf("%s  (%s of %s)", cli.FormatCurrency(p.ProjectedExpenses),
			cli.FormatSignedPercent(sc.ExpenseAdjustmentPct), cli.FormatCurrency(base.Expenses))},
		{"Net savings", savingsCell(p)},
	}))
	if p.Deficit > 0 {
		fmt.Println(cli.RenderWarning(fmt.Sprintf("expenses exceed income by %s a month", cli.FormatCurrency(p.Deficit))))
	}
	return nil
}

func runScenarioCompare(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, closeFn, err := openPlanner(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	a, err := svc.GetScenario(ctx, args[0])
	if err != nil {
		return err
	}
	b, err := svc.GetScenario(ctx, args[1])
	if err != nil {
		return err
	}
	base, err := resolveBaseline(ctx)
	if err != nil {
		return err
	}

	pa, pb := scenario.Project(base, a), scenario.Project(base, b)
	d := scenario.Compare(base, a, b)

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("%s vs %s", b.Name, a.Name),
		Headers: []string{"", a.Name, b.Name, "Change"},
		Rows: [][]string{
			{"Income", cli.FormatCurrency(pa.ProjectedIncome), cli.FormatCurrency(pb.ProjectedIncome), cli.FormatDelta(d.Income, 0)},
			{"Expenses", cli.FormatCurrency(pa.ProjectedExpenses), cli.FormatCurrency(pb.ProjectedExpenses), cli.FormatDelta(d.Expenses, 0)},
			{"Net", cli.FormatCurrency(pa.ProjectedIncome - pa.ProjectedExpenses), cli.FormatCurrency(pb.ProjectedIncome - pb.ProjectedExpenses), cli.FormatDelta(d.NetSavings, 0)},
		},
	}))
	return nil
}

// savingsCell shows net savings, or the deficit when expenses win.
func savingsCell(p model.Projection) string {
	if p.Deficit > 0 {
		return "-" + cli.FormatCurrency(p.Deficit) + " deficit"
	}
	return cli.FormatCurrency(p.NetSavings)
}

// shortID trims generated IDs for table display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
