package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/fcast/internal/cli"
	"github.com/theirongolddev/fcast/internal/config"
	"github.com/theirongolddev/fcast/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// setupValues holds the first-run form's bound fields.
type setupValues struct {
	days     int
	theme    string
	income   string
	expenses string
	apiURL   string
}

func newSetupForm(recordCount int, dataDir string, cfg config.Config, vals *setupValues) *huh.Form {
	vals.days = cfg.General.DefaultDays
	if vals.days == 0 {
		vals.days = 90
	}
	vals.theme = cfg.Appearance.Theme
	if !theme.Valid(vals.theme) {
		vals.theme = theme.FlexokiDark.Name
	}
	vals.income = optionalAmount(cfg.Forecast.MonthlyIncome)
	vals.expenses = optionalAmount(cfg.Forecast.MonthlyExpenses)
	vals.apiURL = cfg.API.BaseURL

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	welcome := "Let's set up a few things."
	if recordCount > 0 {
		welcome = fmt.Sprintf("Found %s spending records in %s.\n%s",
			cli.FormatNumber(int64(recordCount)), dataDir, welcome)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to fcast").
				Description(welcome),
			huh.NewSelect[int]().
				Title("Default time range").
				Options(
					huh.NewOption("30 days", 30),
					huh.NewOption("90 days", 90),
					huh.NewOption("180 days", 180),
					huh.NewOption("365 days", 365),
				).
				Value(&vals.days),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.theme),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Monthly income").
				Description("Scenario baseline. Leave empty to derive it from income sources.").
				Value(&vals.income).
				Validate(validateOptionalAmount),
			huh.NewInput().
				Title("Monthly expenses").
				Description("Leave empty to use average daily spend over a month.").
				Value(&vals.expenses).
				Validate(validateOptionalAmount),
			huh.NewInput().
				Title("Analytics API URL").
				Description("Optional remote source for records and forecasts.").
				Placeholder("https://example.com").
				Value(&vals.apiURL),
		),
	).WithShowHelp(true)
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		if err := a.saveSetupConfig(); err != nil {
			a.setStatus("could not save config: "+err.Error(), true)
		} else {
			a.setStatus("saved "+a.opts.ConfigPath, false)
		}
		a.recompute()
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}

	return a, cmd
}

func (a *App) saveSetupConfig() error {
	a.cfg = a.setupVals.apply(a.cfg)
	a.dayRange = a.cfg.General.DefaultDays
	theme.SetActive(a.cfg.Appearance.Theme)
	return config.SaveTo(a.opts.ConfigPath, a.cfg)
}

// apply copies the form answers into cfg. Amounts were validated by the form.
func (v *setupValues) apply(cfg config.Config) config.Config {
	cfg.General.DefaultDays = v.days
	cfg.Appearance.Theme = v.theme
	cfg.Forecast.MonthlyIncome, _ = parseOptionalAmount(v.income)
	cfg.Forecast.MonthlyExpenses, _ = parseOptionalAmount(v.expenses)
	cfg.API.BaseURL = strings.TrimSpace(v.apiURL)
	return cfg
}

// RunSetup runs the setup form on the terminal outside the dashboard and
// returns cfg with the answers applied.
func RunSetup(recordCount int, dataDir string, cfg config.Config) (config.Config, error) {
	vals := &setupValues{}
	if err := newSetupForm(recordCount, dataDir, cfg, vals).Run(); err != nil {
		return cfg, err
	}
	return vals.apply(cfg), nil
}

func optionalAmount(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseOptionalAmount(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return v, nil
}

func validateOptionalAmount(s string) error {
	_, err := parseOptionalAmount(s)
	return err
}
