package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/theirongolddev/fcast/internal/cli"
	"github.com/theirongolddev/fcast/internal/model"
	"github.com/theirongolddev/fcast/internal/pipeline"
	"github.com/theirongolddev/fcast/internal/window"

	"github.com/spf13/cobra"
)

var (
	flagDaysJSON bool
	flagZoom     float64
	flagPan      int
)

var daysCmd = &cobra.Command{
	Use:   "days",
	Short: "Daily spending table",
	RunE:  runDays,
}

// dayJSON is the --json row shape.
type dayJSON struct {
	Date          string             `json:"date"`
	Total         float64            `json:"total"`
	Categories    map[string]float64 `json:"categories"`
	IsAnomaly     bool               `json:"isAnomaly,omitempty"`
	AnomalyReason string             `json:"anomalyReason,omitempty"`
}

func init() {
	daysCmd.Flags().BoolVar(&flagDaysJSON, "json", false, "Print days as JSON")
	addWindowFlags(daysCmd)
	rootCmd.AddCommand(daysCmd)
}

// addWindowFlags registers --zoom and --pan on a chart-style command.
func addWindowFlags(c *cobra.Command) {
	c.Flags().Float64Var(&flagZoom, "zoom", window.MinZoom, "Zoom factor (1 shows every point, max 5)")
	c.Flags().IntVar(&flagPan, "pan", 0, "Index of the first visible point")
}

// windowFor resolves --zoom/--pan against a series of total points.
func windowFor(total int) (window.State, window.Range) {
	st := window.State{Zoom: flagZoom, Pan: flagPan}.Clamp(total)
	return st, st.Range(total)
}

func runDays(cmd *cobra.Command, _ []string) error {
	result, err := loadForCLI(cmd.Context())
	if err != nil {
		return err
	}

	records, since, until := applyFilters(result.Records)
	all, err := pipeline.Aggregate(records)
	if err != nil {
		return fmt.Errorf("aggregating records: %w", err)
	}
	days := pipeline.FilterByTime(all, since, until)
	st, r := windowFor(len(days))
	visible := window.Slice(days, r)

	if flagDaysJSON {
		rows := make([]dayJSON, len(visible))
		for i, d := range visible {
			rows[i] = dayJSON{
				Date:          d.Key,
				Total:         d.Total,
				Categories:    d.PerCategory,
				IsAnomaly:     d.IsAnomaly,
				AnomalyReason: d.AnomalyReason,
			}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(visible) == 0 {
		fmt.Println("\n  No spending in the selected period.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("DAILY SPEND  Last %dd", flagDays)))
	fmt.Println()

	rows := make([][]string, 0, len(visible))
	for _, d := range visible {
		flag := ""
		if d.IsAnomaly {
			flag = "⚠ " + d.AnomalyReason
		}
		rows = append(rows, []string{
			d.Key,
			d.Date.Weekday().String()[:3],
			cli.FormatCurrency(d.Total),
			topCategory(d),
			flag,
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Date", "Day", "Total", "Top category", "Anomaly"},
		Rows:    rows,
	}))
	fmt.Printf("\n  Showing %d-%d of %d days at %.2fx\n", r.Start+1, r.End, len(days), st.Zoom)
	return nil
}

// topCategory names the day's largest category, ties broken by name.
func topCategory(d model.AggregatedDay) string {
	names := make([]string, 0, len(d.PerCategory))
	for name := range d.PerCategory {
		names = append(names, name)
	}
	if len(names) == 0 {
		return "-"
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := d.PerCategory[names[i]], d.PerCategory[names[j]]
		if a != b {
			return a > b
		}
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return fmt.Sprintf("%s (%s)", names[0], cli.FormatCurrency(d.PerCategory[names[0]]))
}
