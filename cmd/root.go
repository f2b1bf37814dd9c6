package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/theirongolddev/fcast/internal/analyticsapi"
	"github.com/theirongolddev/fcast/internal/cli"
	"github.com/theirongolddev/fcast/internal/config"
	"github.com/theirongolddev/fcast/internal/model"
	"github.com/theirongolddev/fcast/internal/pipeline"
	"github.com/theirongolddev/fcast/internal/planner"
	"github.com/theirongolddev/fcast/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagDays     int
	flagCategory string
	flagNoCache  bool
	flagDataDir  string
	flagQuiet    bool
	flagAPIURL   string
	flagLogLevel string
	flagLogJSON  bool
)

// log is shared by every command. It writes to stderr so tables on stdout
// stay clean.
var log = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "fcast",
	Short: "Spending forecasts and what-if scenarios",
	Long:  "Analyze spending trends, inspect forecasts, and project income and expense scenarios.",
	RunE:  runInsights,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return setupLogging()
	},
	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cfg, _ := config.Load()
	defaultDataDir := cfg.General.DataDir
	if defaultDataDir == "" {
		defaultDataDir = config.DefaultDataDir()
	}
	defaultDays := cfg.General.DefaultDays
	if defaultDays <= 0 {
		defaultDays = 90
	}

	rootCmd.PersistentFlags().IntVarP(&flagDays, "days", "n", defaultDays, "Time window in days")
	rootCmd.PersistentFlags().StringVarP(&flagCategory, "category", "c", "", "Filter to category (substring match)")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip SQLite cache, reparse everything")
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", defaultDataDir, "Spending data directory")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", cfg.API.BaseURL, "Analytics API base URL (overrides local files)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flagLogJSON, "log-json", cfg.Log.JSON, "Emit logs as JSON")
}

// setupLogging applies --log-level, then FCAST_LOG_LEVEL, then the config file.
func setupLogging() error {
	log.SetOutput(os.Stderr)
	if flagLogJSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}

	level := flagLogLevel
	if level == "" {
		level = os.Getenv("FCAST_LOG_LEVEL")
	}
	if level == "" {
		cfg, _ := config.Load()
		level = cfg.Log.Level
	}
	if level == "" {
		level = "warn"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetLevel(lvl)
	return nil
}

// loadData is the shared data loading path used by all commands.
// A configured analytics API wins; otherwise local files are read through
// the SQLite cache when available.
func loadData(ctx context.Context, progressFn pipeline.ProgressFunc) (*pipeline.LoadResult, error) {
	if flagAPIURL != "" {
		cfg, _ := config.Load()
		res, err := loadRemote(ctx, flagAPIURL, config.GetAPIToken(cfg))
		if err == nil {
			return res, nil
		}
		log.WithError(err).WithField("url", flagAPIURL).Warn("analytics API unavailable, reading local files")
	}

	if !flagNoCache {
		cache, err := store.Open(pipeline.DBPath())
		if err != nil {
			log.WithError(err).Debug("cache unavailable, doing full parse")
		} else {
			defer func() { _ = cache.Close() }()

			cr, err := pipeline.LoadWithCache(flagDataDir, cache, progressFn)
			if err == nil {
				log.WithFields(logrus.Fields{
					"cached":   cr.CacheHits,
					"reparsed": cr.Reparsed,
					"removed":  cr.Removed,
				}).Debug("loaded from cache")
				return &cr.LoadResult, nil
			}
			log.WithError(err).Warn("cache error, falling back to full parse")
		}
	}

	return pipeline.Load(flagDataDir, progressFn)
}

// loadRemote fetches one snapshot from the analytics API.
func loadRemote(ctx context.Context, baseURL, token string) (*pipeline.LoadResult, error) {
	client := analyticsapi.NewClient(baseURL, token)
	now := time.Now()
	// Twice the window so insights can compare against the previous period.
	snap := client.FetchAll(ctx, analyticsapi.Filters{
		Since:      now.AddDate(0, 0, -2*flagDays),
		Until:      now,
		Categories: categoryFilter(),
	})
	if snap.Error != nil && len(snap.Spending) == 0 {
		return nil, snap.Error
	}
	if snap.Error != nil {
		log.WithError(snap.Error).Warn("partial analytics data")
	}

	points, skipped := snap.Points()
	return &pipeline.LoadResult{
		Records:     snap.Records(),
		Points:      pipeline.SortPoints(points),
		Income:      snap.IncomeSources(),
		ParseErrors: skipped,
	}, nil
}

func categoryFilter() []string {
	if flagCategory == "" {
		return nil
	}
	return []string{flagCategory}
}

// loadForCLI wraps loadData with terminal progress output.
func loadForCLI(ctx context.Context) (*pipeline.LoadResult, error) {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Scanning data files...\n")
	}

	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		if current%50 == 0 || current == total {
			fmt.Fprintf(os.Stderr, "\r  Parsing [%d/%d]", current, total)
		}
	}

	result, err := loadData(ctx, progressFn)
	if err != nil {
		return nil, err
	}

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "\r  Loaded %s records, %s forecast points    \n",
			cli.FormatNumber(int64(len(result.Records))),
			cli.FormatNumber(int64(len(result.Points))),
		)
		if n := result.ParseErrors + result.FileErrors; n > 0 {
			fmt.Fprintf(os.Stderr, "  %d entries could not be parsed\n", n)
		}
	}
	return result, nil
}

// applyFilters returns the category-filtered records and the time range.
func applyFilters(records []model.SpendingRecord) ([]model.SpendingRecord, time.Time, time.Time) {
	now := time.Now()
	since := now.AddDate(0, 0, -flagDays)

	filtered := records
	if flagCategory != "" {
		filtered = pipeline.FilterByCategory(filtered, flagCategory)
	}
	return filtered, since, now
}

// openPlanner opens the scenario and goal store. If the database can't be
// opened the planner runs in memory and changes are not kept.
func openPlanner(ctx context.Context) (*planner.Service, func(), error) {
	var (
		st      store.Store
		closeFn = func() {}
	)
	db, err := store.Open(pipeline.DBPath())
	if err != nil {
		log.WithError(err).Warn("database unavailable, scenarios and goals will not be saved")
		st = store.NewMemoryStore()
	} else {
		st = db
		closeFn = func() { _ = db.Close() }
	}

	svc := planner.NewService(st, log)
	if err := svc.EnsureDefaults(ctx); err != nil {
		closeFn()
		return nil, nil, err
	}
	return svc, closeFn, nil
}

// resolveBaseline loads data and derives the scenario baseline for the window.
func resolveBaseline(ctx context.Context) (model.Baseline, error) {
	cfg, err := config.Load()
	if err != nil {
		return model.Baseline{}, err
	}
	if cfg.Forecast.MonthlyIncome > 0 && cfg.Forecast.MonthlyExpenses > 0 {
		return config.ResolveBaseline(cfg, nil, 0), nil
	}

	result, err := loadForCLI(ctx)
	if err != nil {
		return model.Baseline{}, err
	}
	records, since, until := applyFilters(result.Records)
	days, err := pipeline.Aggregate(records)
	if err != nil {
		return model.Baseline{}, err
	}
	ins := pipeline.Summarize(pipeline.FilterByTime(days, since, until))
	return config.ResolveBaseline(cfg, result.Income, ins.AverageDaily), nil
}

func parseDateFlag(s string) (time.Time, error) {
	t, err := model.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("date must look like 2026-12-31: %w", err)
	}
	return t, nil
}
