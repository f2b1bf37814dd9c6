package cmd

import (
	"fmt"

	"github.com/theirongolddev/fcast/internal/cli"
	"github.com/theirongolddev/fcast/internal/pipeline"

	"github.com/spf13/cobra"
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Spending trend, anomalies, categories and income",
	RunE:  runInsights,
}

func init() {
	rootCmd.AddCommand(insightsCmd)
}

func runInsights(cmd *cobra.Command, _ []string) error {
	result, err := loadForCLI(cmd.Context())
	if err != nil {
		return err
	}
	if len(result.Records) == 0 {
		fmt.Println("\n  No spending records found.")
		fmt.Printf("  Put CSV, JSON or JSONL files under %s/spending and try again.\n", flagDataDir)
		return nil
	}

	records, since, until := applyFilters(result.Records)
	all, err := pipeline.Aggregate(records)
	if err != nil {
		return fmt.Errorf("aggregating records: %w", err)
	}
	cmp := pipeline.ComparePeriods(all, since, until)
	cur, prev := cmp.Current, cmp.Previous

	if cur.Days == 0 {
		fmt.Println("\n  No spending in the selected time range.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("SPENDING INSIGHTS  Last %dd", flagDays)))
	fmt.Println()

	delta := func(c, p float64) string {
		if prev.Days == 0 {
			return cli.FormatCurrency(c)
		}
		return fmt.Sprintf("%s  (%s vs prev %dd)", cli.FormatCurrency(c), cli.FormatDelta(c, p), flagDays)
	}

	rows := [][]string{
		{"Days with spend", cli.FormatNumber(int64(cur.Days))},
		{"Total", delta(cur.TotalAmount, prev.TotalAmount)},
		{"Daily average", delta(cur.AverageDaily, prev.AverageDaily)},
		{"Trend", cli.FormatTrend(cur)},
		{"First half mean", cli.FormatCurrency(cur.FirstMean)},
		{"Second half mean", cli.FormatCurrency(cur.SecondMean)},
		{"Anomalies", cli.FormatNumber(int64(cur.AnomalyCount))},
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	days := pipeline.FilterByTime(all, since, until)
	fmt.Printf("\n  %s\n", cli.RenderSparkline(pipeline.Totals(days)))

	cats := pipeline.AggregateCategories(pipeline.FilterRecords(records, since, until))
	if len(cats) > 0 {
		fmt.Println()
		top := cats
		if len(top) > 8 {
			top = top[:8]
		}
		catRows := make([][]string, 0, len(top))
		for _, c := range top {
			catRows = append(catRows, []string{c.Category, cli.FormatCurrency(c.Amount), cli.FormatPercent(c.SharePercent)})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Categories",
			Headers: []string{"Category", "Amount", "Share"},
			Rows:    catRows,
		}))
	}

	var anomalies [][]string
	for i := len(days) - 1; i >= 0 && len(anomalies) < 5; i-- {
		if days[i].IsAnomaly {
			anomalies = append(anomalies, []string{days[i].Key, cli.FormatCurrency(days[i].Total), days[i].AnomalyReason})
		}
	}
	if len(anomalies) > 0 {
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Recent anomalies",
			Headers: []string{"Date", "Spend", "Reason"},
			Rows:    anomalies,
		}))
	}

	if len(result.Income) > 0 {
		ins := pipeline.SummarizeIncome(result.Income)
		score := "n/a (single source)"
		if ins.Defined {
			score = fmt.Sprintf("%.0f / 100", ins.DiversificationScore)
		}
		fmt.Println()
		fmt.Print(cli.RenderKeyValues([][2]string{
			{"Primary income", fmt.Sprintf("%s (%s)", ins.Primary.Name, cli.FormatCurrency(ins.Primary.Amount))},
			{"Diversification", score},
			{"Sources", fmt.Sprintf("%d (%d stable, %d growing)", ins.TotalSources, ins.StableSources, ins.GrowingSources)},
		}))
	}

	return nil
}
