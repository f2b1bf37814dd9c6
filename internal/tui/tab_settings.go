package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/fcast/internal/cli"
	"github.com/theirongolddev/fcast/internal/config"
	"github.com/theirongolddev/fcast/internal/tui/components"
	"github.com/theirongolddev/fcast/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	settingsFieldTheme = iota
	settingsFieldDays
	settingsFieldIncome
	settingsFieldExpenses
	settingsFieldDebounce
	settingsFieldAutoRefresh
	settingsFieldRefreshInterval
	settingsFieldAPIURL
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool
	saveErr error
}

func newSettingsInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50
	return ti
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	a.settings.editing = true
	a.settings.saved = false
	a.settings.saveErr = nil

	ti := newSettingsInput()
	switch a.settings.cursor {
	case settingsFieldTheme:
		ti.Placeholder = strings.Join(theme.Names(), ", ")
		ti.SetValue(a.cfg.Appearance.Theme)
	case settingsFieldDays:
		ti.Placeholder = "90"
		ti.SetValue(strconv.Itoa(a.dayRange))
	case settingsFieldIncome:
		ti.Placeholder = "monthly, leave empty to derive from income sources"
		ti.SetValue(optionalAmount(a.cfg.Forecast.MonthlyIncome))
	case settingsFieldExpenses:
		ti.Placeholder = "monthly, leave empty to derive from spending"
		ti.SetValue(optionalAmount(a.cfg.Forecast.MonthlyExpenses))
	case settingsFieldDebounce:
		ti.Placeholder = "300"
		ti.SetValue(strconv.Itoa(int(a.cfg.DebounceDelay() / time.Millisecond)))
	case settingsFieldAutoRefresh:
		ti.Placeholder = "true or false"
		ti.SetValue(strconv.FormatBool(a.autoRefresh))
	case settingsFieldRefreshInterval:
		ti.Placeholder = "60 (seconds, minimum 10)"
		ti.SetValue(strconv.Itoa(int(a.refreshInterval.Seconds())))
	case settingsFieldAPIURL:
		ti.Placeholder = "https://example.com"
		ti.SetValue(a.cfg.API.BaseURL)
	}

	ti.Focus()
	a.settings.input = ti
	return a, ti.Cursor.BlinkCmd()
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.settingsSave()
		a.settings.editing = false
		a.settings.saved = a.settings.saveErr == nil
		return a, nil
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsSave validates the edited field, applies it to the running
// dashboard and persists the config.
func (a *App) settingsSave() {
	val := strings.TrimSpace(a.settings.input.Value())

	switch a.settings.cursor {
	case settingsFieldTheme:
		if !theme.Valid(val) {
			a.settings.saveErr = fmt.Errorf("unknown theme %q", val)
			return
		}
		a.cfg.Appearance.Theme = val
		theme.SetActive(val)
	case settingsFieldDays:
		d, err := strconv.Atoi(val)
		if err != nil || d <= 0 {
			a.settings.saveErr = fmt.Errorf("days must be a positive number")
			return
		}
		a.cfg.General.DefaultDays = d
		a.dayRange = d
		a.recompute()
	case settingsFieldIncome, settingsFieldExpenses:
		v, err := parseOptionalAmount(val)
		if err != nil {
			a.settings.saveErr = err
			return
		}
		if a.settings.cursor == settingsFieldIncome {
			a.cfg.Forecast.MonthlyIncome = v
		} else {
			a.cfg.Forecast.MonthlyExpenses = v
		}
		a.recompute()
	case settingsFieldDebounce:
		ms, err := strconv.Atoi(val)
		if err != nil || ms <= 0 {
			a.settings.saveErr = fmt.Errorf("debounce must be a positive number of milliseconds")
			return
		}
		a.cfg.Forecast.DebounceMs = ms
		a.rebuildController()
	case settingsFieldAutoRefresh:
		b, err := strconv.ParseBool(val)
		if err != nil {
			b = val == "yes" || val == "on"
		}
		a.cfg.TUI.AutoRefresh = b
		a.autoRefresh = b
	case settingsFieldRefreshInterval:
		sec, err := strconv.Atoi(val)
		if err != nil || time.Duration(sec)*time.Second < minRefresh {
			a.settings.saveErr = fmt.Errorf("interval must be at least %d seconds", int(minRefresh.Seconds()))
			return
		}
		a.cfg.TUI.RefreshIntervalSec = sec
		a.refreshInterval = time.Duration(sec) * time.Second
	case settingsFieldAPIURL:
		a.cfg.API.BaseURL = val
	}

	a.settings.saveErr = config.SaveTo(a.opts.ConfigPath, a.cfg)
}

// rebuildController swaps in a controller with the new debounce delay,
// carrying over the working adjustments.
func (a *App) rebuildController() {
	adj := a.ctrl.Adjustment()
	a.ctrl.Stop()
	a.ctrl = a.newController()
	a.ctrl.SetBaseline(a.baseline)
	a.ctrl.LoadScenario(scenarioFromAdjustment(adj))
	a.syncWindow()
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	gainStyle := lipgloss.NewStyle().Foreground(t.Gain).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)

	orDerived := func(v, derived float64) string {
		if v == 0 {
			return cli.FormatCurrency(derived) + " (derived)"
		}
		return cli.FormatCurrency(v)
	}
	apiURL := a.cfg.API.BaseURL
	if apiURL == "" {
		apiURL = "(not set)"
	}

	fields := [settingsFieldCount][2]string{
		{"Theme", a.cfg.Appearance.Theme},
		{"Default Days", strconv.Itoa(a.dayRange)},
		{"Monthly Income", orDerived(a.cfg.Forecast.MonthlyIncome, a.baseline.Income)},
		{"Monthly Expenses", orDerived(a.cfg.Forecast.MonthlyExpenses, a.baseline.Expenses)},
		{"Debounce", fmt.Sprintf("%dms", a.cfg.DebounceDelay()/time.Millisecond)},
		{"Auto Refresh", strconv.FormatBool(a.autoRefresh)},
		{"Refresh Interval", fmt.Sprintf("%ds", int(a.refreshInterval.Seconds()))},
		{"Analytics API", apiURL},
	}

	innerW := components.CardInnerWidth(cw)
	var form strings.Builder
	for i, f := range fields {
		if a.settings.editing && i == a.settings.cursor {
			form.WriteString(markerStyle.Render("▸ "))
			form.WriteString(accentStyle.Render(fmt.Sprintf("%-18s ", f[0])))
			form.WriteString(a.settings.input.View())
			form.WriteString("\n")
			continue
		}

		if i == a.settings.cursor {
			marker := markerStyle.Render("▸ ")
			label := selectedLabelStyle.Render(fmt.Sprintf("%-18s ", f[0]+":"))
			value := selectedStyle.Render(f[1])
			form.WriteString(marker + label + value)
			if pad := innerW - lipgloss.Width(marker) - lipgloss.Width(label) - lipgloss.Width(value); pad > 0 {
				form.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", pad)))
			}
		} else {
			form.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			form.WriteString(labelStyle.Render(fmt.Sprintf("%-18s ", f[0]+":")))
			form.WriteString(valueStyle.Render(f[1]))
		}
		form.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		warnStyle := lipgloss.NewStyle().Foreground(t.Warn).Background(t.Surface)
		form.WriteString("\n")
		form.WriteString(warnStyle.Render(fmt.Sprintf("Save failed: %s", a.settings.saveErr)))
	} else if a.settings.saved {
		form.WriteString("\n")
		form.WriteString(gainStyle.Render("Saved!"))
	}
	form.WriteString("\n")
	form.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit  [Esc] cancel"))

	var info strings.Builder
	kv := func(label, value string) {
		info.WriteString(labelStyle.Render(fmt.Sprintf("%-17s", label)) + valueStyle.Render(value) + "\n")
	}
	kv("Data directory:", a.opts.DataDir)
	kv("Records loaded:", cli.FormatNumber(int64(len(a.records))))
	kv("Forecast points:", cli.FormatNumber(int64(len(a.points))))
	kv("Income sources:", cli.FormatNumber(int64(len(a.income))))
	if a.parseErrors > 0 {
		kv("Parse errors:", cli.FormatNumber(int64(a.parseErrors)))
	}
	kv("Load time:", fmt.Sprintf("%.1fs", a.loadTime.Seconds()))
	info.WriteString(labelStyle.Render(fmt.Sprintf("%-17s", "Config file:")) + valueStyle.Render(a.opts.ConfigPath))

	var b strings.Builder
	b.WriteString(components.ContentCard("Settings", form.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("General", info.String(), cw))
	return b.String()
}
