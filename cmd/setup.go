package cmd

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/fcast/internal/cli"
	"github.com/theirongolddev/fcast/internal/config"
	"github.com/theirongolddev/fcast/internal/tui"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Warn("existing config unreadable, starting from defaults")
		cfg = config.DefaultConfig()
	}

	records := 0
	if res, err := loadData(cmd.Context(), nil); err == nil {
		records = len(res.Records)
	} else {
		log.WithError(err).Debug("no data found for setup summary")
	}

	cfg, err = tui.RunSetup(records, flagDataDir, cfg)
	if errors.Is(err, huh.ErrUserAborted) {
		fmt.Println("  Setup cancelled, nothing saved.")
		return nil
	}
	if err != nil {
		return err
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	if cfg.Forecast.MonthlyIncome > 0 {
		fmt.Printf("  Baseline income: %s\n", cli.FormatCurrency(cfg.Forecast.MonthlyIncome))
	}
	fmt.Println("  Run `fcast setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}

func maskToken(key string) string {
	if len(key) > 16 {
		return key[:8] + "..." + key[len(key)-4:]
	}
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return "****"
}
