package cmd

import (
	"fmt"
	"time"

	"github.com/theirongolddev/fcast/internal/cli"
	"github.com/theirongolddev/fcast/internal/pipeline"
	"github.com/theirongolddev/fcast/internal/window"

	"github.com/spf13/cobra"
)

var (
	flagForecastFrom string
	flagForecastTo   string
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Forecast points with confidence bands and variance",
	RunE:  runForecast,
}

func init() {
	forecastCmd.Flags().StringVar(&flagForecastFrom, "from", "", "First date to include (YYYY-MM-DD)")
	forecastCmd.Flags().StringVar(&flagForecastTo, "to", "", "Date to stop before (YYYY-MM-DD)")
	addWindowFlags(forecastCmd)
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(cmd *cobra.Command, _ []string) error {
	var from, to time.Time
	var err error
	if flagForecastFrom != "" {
		if from, err = parseDateFlag(flagForecastFrom); err != nil {
			return err
		}
	}
	if flagForecastTo != "" {
		if to, err = parseDateFlag(flagForecastTo); err != nil {
			return err
		}
	}

	result, err := loadForCLI(cmd.Context())
	if err != nil {
		return err
	}
	points := pipeline.FilterPoints(result.Points, from, to)
	if len(points) == 0 {
		fmt.Println("\n  No forecast points found.")
		return nil
	}

	st, r := windowFor(len(points))
	visible := window.Slice(points, r)
	acc := pipeline.SummarizeForecast(points)

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("FORECAST  %s to %s",
		cli.FormatDate(points[0].Date), cli.FormatDate(points[len(points)-1].Date))))
	fmt.Println()

	rows := make([][]string, 0, len(visible))
	predicted := make([]float64, 0, len(visible))
	for _, p := range visible {
		actual, variance := "-", "-"
		if v, ok := p.Variance(); ok {
			actual = cli.FormatCurrency(*p.Actual)
			variance = cli.FormatDelta(v, 0)
		}
		band := cli.FormatCurrency(p.ConfidenceLower) + " - " + cli.FormatCurrency(p.ConfidenceUpper)
		if err := p.Validate(); err != nil {
			band += "  (invalid)"
			log.WithError(err).Debug("forecast point outside its band")
		}
		rows = append(rows, []string{
			cli.FormatDate(p.Date),
			cli.FormatCurrency(p.Predicted),
			band,
			actual,
			variance,
		})
		predicted = append(predicted, p.Predicted)
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Date", "Predicted", "Band", "Actual", "Variance"},
		Rows:    rows,
	}))
	fmt.Printf("\n  %s\n", cli.RenderSparkline(predicted))
	fmt.Printf("  Showing %d-%d of %d points at %.2fx\n\n", r.Start+1, r.End, len(points), st.Zoom)

	pairs := [][2]string{
		{"Points with actuals", fmt.Sprintf("%d of %d", acc.WithActual, acc.Points)},
	}
	if acc.WithActual > 0 {
		pairs = append(pairs,
			[2]string{"Mean abs error", cli.FormatCurrency(acc.MeanAbsError)},
			[2]string{"Mean abs % error", cli.FormatPercent(acc.MeanAbsPctErr)},
			[2]string{"Actuals within band", fmt.Sprintf("%d", acc.WithinBand)},
		)
	}
	fmt.Print(cli.RenderKeyValues(pairs))
	if acc.Invalid > 0 {
		fmt.Println(cli.RenderWarning(fmt.Sprintf("%d points have a prediction outside their confidence band", acc.Invalid)))
	}
	return nil
}
