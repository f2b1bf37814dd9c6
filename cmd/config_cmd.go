// Package cmd implements the fcast CLI commands.
package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/fcast/internal/cli"
	"github.com/theirongolddev/fcast/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	orDerived := func(v float64) string {
		if v == 0 {
			return "derived from data"
		}
		return cli.FormatCurrency(v)
	}

	fmt.Println("  [General]")
	fmt.Printf("    Default days:      %d\n", cfg.General.DefaultDays)
	fmt.Printf("    Data directory:    %s\n", flagDataDir)
	fmt.Println()

	fmt.Println("  [Forecast]")
	fmt.Printf("    Monthly income:    %s\n", orDerived(cfg.Forecast.MonthlyIncome))
	fmt.Printf("    Monthly expenses:  %s\n", orDerived(cfg.Forecast.MonthlyExpenses))
	fmt.Printf("    Debounce:          %s\n", cfg.DebounceDelay())
	if cfg.Forecast.DefaultScenario != "" {
		fmt.Printf("    Default scenario:  %s\n", cfg.Forecast.DefaultScenario)
	}
	fmt.Println()

	fmt.Println("  [API]")
	if cfg.API.BaseURL != "" {
		fmt.Printf("    Base URL: %s\n", cfg.API.BaseURL)
	} else {
		fmt.Println("    Base URL: not configured")
	}
	if tok := config.GetAPIToken(cfg); tok != "" {
		fmt.Printf("    Token:    %s\n", maskToken(tok))
	} else {
		fmt.Println("    Token:    not configured")
	}
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %s\n", cfg.PollInterval())
	if len(cfg.Daemon.AllowedOrigins) > 0 {
		fmt.Printf("    CORS:     %s\n", strings.Join(cfg.Daemon.AllowedOrigins, ", "))
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Printf("    Auto refresh: %v (every %ds)\n", cfg.TUI.AutoRefresh, cfg.TUI.RefreshIntervalSec)
	fmt.Println()

	fmt.Println("  Run `fcast setup` to reconfigure.")
	return nil
}
