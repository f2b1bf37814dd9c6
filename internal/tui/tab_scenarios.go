package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/fcast/internal/cli"
	"github.com/theirongolddev/fcast/internal/interact"
	"github.com/theirongolddev/fcast/internal/model"
	"github.com/theirongolddev/fcast/internal/planner"
	"github.com/theirongolddev/fcast/internal/scenario"
	"github.com/theirongolddev/fcast/internal/tui/components"
	"github.com/theirongolddev/fcast/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// nudgeStep is the percentage moved by one h/l/H/L press.
const nudgeStep = 5

type formKind int

const (
	formNone formKind = iota
	formScenario
	formGoal
)

type scenariosState struct {
	cursor     int
	selectedID string
	loadedID   string // scenario whose values are in the controller
}

type scenarioFormValues struct {
	name        string
	description string
	incomePct   string
	expensePct  string
}

func (a App) selectedScenario() (model.ForecastScenario, bool) {
	if a.scen.cursor < 0 || a.scen.cursor >= len(a.scenarios) {
		return model.ForecastScenario{}, false
	}
	return a.scenarios[a.scen.cursor], true
}

// dirty reports whether the working adjustments differ from the stored scenario.
func (a App) dirty() bool {
	sc, ok := a.selectedScenario()
	if !ok {
		return false
	}
	adj := a.ctrl.Adjustment()
	return adj.IncomePct != sc.IncomeAdjustmentPct || adj.ExpensePct != sc.ExpenseAdjustmentPct
}

func (a *App) afterPlannerLoad() {
	a.goal.cursor = max(0, min(a.goal.cursor, len(a.goals)-1))

	if len(a.scenarios) == 0 {
		a.scen = scenariosState{}
		return
	}

	if a.scen.selectedID == "" {
		ref := a.cfg.Forecast.DefaultScenario
		for _, sc := range a.scenarios {
			if sc.ID == ref || strings.EqualFold(sc.Name, ref) {
				a.scen.selectedID = sc.ID
				break
			}
		}
	}

	idx := -1
	for i, sc := range a.scenarios {
		if sc.ID == a.scen.selectedID {
			idx = i
			break
		}
	}
	if idx < 0 {
		idx = max(0, min(a.scen.cursor, len(a.scenarios)-1))
	}
	a.scen.cursor = idx
	a.scen.selectedID = a.scenarios[idx].ID

	if a.scen.loadedID != a.scen.selectedID {
		a.loadSelected()
	}
}

// loadSelected copies the selected scenario into the controller and
// projects it immediately.
func (a *App) loadSelected() {
	sc, ok := a.selectedScenario()
	if !ok {
		return
	}
	a.ctrl.LoadScenario(sc)
	a.scen.selectedID = sc.ID
	a.scen.loadedID = sc.ID
	a.projection = a.ctrl.Preview()
}

func (a App) updateScenariosKey(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "j", "down":
		if a.scen.cursor < len(a.scenarios)-1 {
			a.scen.cursor++
			a.loadSelected()
		}
		return a, nil, true
	case "k", "up":
		if a.scen.cursor > 0 {
			a.scen.cursor--
			a.loadSelected()
		}
		return a, nil, true
	case "h":
		a.ctrl.NudgeIncome(-nudgeStep)
		return a, nil, true
	case "l":
		a.ctrl.NudgeIncome(nudgeStep)
		return a, nil, true
	case "H":
		a.ctrl.NudgeExpense(-nudgeStep)
		return a, nil, true
	case "L":
		a.ctrl.NudgeExpense(nudgeStep)
		return a, nil, true
	case "u":
		a.loadSelected()
		a.setStatus("reverted", false)
		return a, nil, true
	case "enter":
		sc, ok := a.selectedScenario()
		if !ok || !a.dirty() {
			return a, nil, true
		}
		adj := a.ctrl.Adjustment()
		return a, saveScenarioCmd(a.planner, sc.ID, adj), true
	case "n":
		*a.scenVals = scenarioFormValues{incomePct: "0", expensePct: "0"}
		if sc, ok := a.selectedScenario(); ok {
			adj := a.ctrl.Adjustment()
			a.scenVals.incomePct = formatPctInput(adj.IncomePct)
			a.scenVals.expensePct = formatPctInput(adj.ExpensePct)
			a.scenVals.description = "Based on " + sc.Name
		}
		a.form = newScenarioForm(a.scenVals)
		a.formKind = formScenario
		return a, a.form.Init(), true
	case "y":
		sc, ok := a.selectedScenario()
		if !ok {
			return a, nil, true
		}
		return a, plannerOp(a.planner, func(ctx context.Context, svc *planner.Service) (plannerOpMsg, error) {
			dup, err := svc.DuplicateScenario(ctx, sc.ID)
			if err != nil {
				return plannerOpMsg{}, err
			}
			return plannerOpMsg{status: "created " + dup.Name, selectID: dup.ID}, nil
		}), true
	case "D":
		sc, ok := a.selectedScenario()
		if !ok {
			return a, nil, true
		}
		return a, plannerOp(a.planner, func(ctx context.Context, svc *planner.Service) (plannerOpMsg, error) {
			if err := svc.DeleteScenario(ctx, sc.ID); err != nil {
				return plannerOpMsg{}, err
			}
			return plannerOpMsg{status: "deleted " + sc.Name}, nil
		}), true
	}
	return a, nil, false
}

func saveScenarioCmd(svc *planner.Service, id string, adj interact.Adjustment) tea.Cmd {
	return plannerOp(svc, func(ctx context.Context, svc *planner.Service) (plannerOpMsg, error) {
		inc, exp := adj.IncomePct, adj.ExpensePct
		sc, err := svc.UpdateScenario(ctx, id, model.ScenarioPatch{
			IncomeAdjustmentPct:  &inc,
			ExpenseAdjustmentPct: &exp,
		})
		if err != nil {
			return plannerOpMsg{}, err
		}
		return plannerOpMsg{status: "saved " + sc.Name, selectID: sc.ID}, nil
	})
}

func newScenarioForm(v *scenarioFormValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Scenario name").
				Value(&v.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Description").
				Value(&v.description),
			huh.NewInput().
				Title("Income adjustment %").
				Description("-50 to 100").
				Value(&v.incomePct).
				Validate(validatePctInput),
			huh.NewInput().
				Title("Expense adjustment %").
				Description("-50 to 100").
				Value(&v.expensePct).
				Validate(validatePctInput),
		).Title("New scenario"),
	).WithShowHelp(true)
}

// updateForm routes input to the scenario or goal form. Esc cancels.
func (a App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		a.form = nil
		a.formKind = formNone
		return a, nil
	}

	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}

	switch a.form.State {
	case huh.StateCompleted:
		kind := a.formKind
		a.form = nil
		a.formKind = formNone
		switch kind {
		case formScenario:
			return a, createScenarioCmd(a.planner, *a.scenVals)
		case formGoal:
			return a, createGoalCmd(a.planner, *a.goalVals)
		}
		return a, nil
	case huh.StateAborted:
		a.form = nil
		a.formKind = formNone
		return a, nil
	}
	return a, cmd
}

func createScenarioCmd(svc *planner.Service, v scenarioFormValues) tea.Cmd {
	return plannerOp(svc, func(ctx context.Context, svc *planner.Service) (plannerOpMsg, error) {
		inc, err := parsePctInput(v.incomePct)
		if err != nil {
			return plannerOpMsg{}, err
		}
		exp, err := parsePctInput(v.expensePct)
		if err != nil {
			return plannerOpMsg{}, err
		}
		sc, err := svc.CreateScenario(ctx, v.name, strings.TrimSpace(v.description), inc, exp)
		if err != nil {
			return plannerOpMsg{}, err
		}
		return plannerOpMsg{status: "created " + sc.Name, selectID: sc.ID}, nil
	})
}

func parsePctInput(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return v, nil
}

func validatePctInput(s string) error {
	v, err := parsePctInput(s)
	if err != nil {
		return err
	}
	if v < scenario.MinAdjustmentPct || v > scenario.MaxAdjustmentPct {
		return fmt.Errorf("must be between %.0f and %.0f", scenario.MinAdjustmentPct, scenario.MaxAdjustmentPct)
	}
	return nil
}

func formatPctInput(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (a App) renderScenariosTab(cw int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)
	warnStyle := lipgloss.NewStyle().Foreground(t.Warn).Background(t.Surface)

	listW, detailW := cw, cw
	if !a.isCompactLayout() {
		ws := components.LayoutRow(cw, 2)
		listW, detailW = ws[0], ws[1]
	}
	listInner := components.CardInnerWidth(listW)

	// Scenario list
	var list strings.Builder
	if len(a.scenarios) == 0 {
		list.WriteString(dimStyle.Render("No scenarios"))
	}
	for i, sc := range a.scenarios {
		name := sc.Name
		if sc.IsDefault {
			name += " •"
		}
		adj := fmt.Sprintf("%s / %s",
			cli.FormatSignedPercent(sc.IncomeAdjustmentPct),
			cli.FormatSignedPercent(sc.ExpenseAdjustmentPct))
		nameW := max(8, listInner-lipgloss.Width(adj)-3)
		row := fmt.Sprintf("%-*s %s", nameW, truncStr(name, nameW), adj)

		if i == a.scen.cursor {
			line := markerStyle.Render("▸ ") + selectedStyle.Render(row)
			if pad := listInner - lipgloss.Width(line); pad > 0 {
				line += selectedStyle.Render(strings.Repeat(" ", pad))
			}
			list.WriteString(line)
		} else {
			list.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  ") + valueStyle.Render(row))
		}
		if i < len(a.scenarios)-1 {
			list.WriteString("\n")
		}
	}
	list.WriteString("\n\n")
	list.WriteString(dimStyle.Render("• built-in  [n]ew [y]dup [D]elete"))

	// Working adjustments and projection
	adj := a.ctrl.Adjustment()
	barW := max(10, components.CardInnerWidth(detailW)-26)
	var detail strings.Builder
	if sc, ok := a.selectedScenario(); ok && sc.Description != "" {
		detail.WriteString(dimStyle.Render(sc.Description))
		detail.WriteString("\n\n")
	}
	detail.WriteString(labelStyle.Render(fmt.Sprintf("%-10s", "Income")))
	detail.WriteString(valueStyle.Render(fmt.Sprintf("%8s ", cli.FormatSignedPercent(adj.IncomePct))))
	detail.WriteString(components.AdjustmentBar(adj.IncomePct, barW, false))
	detail.WriteString("\n")
	detail.WriteString(labelStyle.Render(fmt.Sprintf("%-10s", "Expenses")))
	detail.WriteString(valueStyle.Render(fmt.Sprintf("%8s ", cli.FormatSignedPercent(adj.ExpensePct))))
	detail.WriteString(components.AdjustmentBar(adj.ExpensePct, barW, true))
	detail.WriteString("\n\n")

	p := a.projection
	rows := [][2]string{
		{"Baseline income", cli.FormatCurrency(a.baseline.Income)},
		{"Baseline expenses", cli.FormatCurrency(a.baseline.Expenses)},
		{"Projected income", cli.FormatCurrency(p.ProjectedIncome)},
		{"Projected expenses", cli.FormatCurrency(p.ProjectedExpenses)},
	}
	for _, r := range rows {
		detail.WriteString(labelStyle.Render(fmt.Sprintf("%-20s", r[0])))
		detail.WriteString(valueStyle.Render(r[1]))
		detail.WriteString("\n")
	}
	detail.WriteString(labelStyle.Render(fmt.Sprintf("%-20s", "Net savings")))
	if p.Deficit > 0 {
		detail.WriteString(lipgloss.NewStyle().Foreground(t.Loss).Background(t.Surface).Bold(true).
			Render(cli.FormatCurrency(0) + "  deficit " + cli.FormatCurrency(p.Deficit)))
	} else {
		detail.WriteString(lipgloss.NewStyle().Foreground(t.Gain).Background(t.Surface).Bold(true).
			Render(cli.FormatCurrency(p.NetSavings)))
	}
	detail.WriteString("\n\n")

	switch {
	case a.ctrl.Pending():
		detail.WriteString(warnStyle.Render("recalculating…"))
	case a.dirty():
		detail.WriteString(warnStyle.Render("unsaved  [Enter] save  [u] undo"))
	default:
		detail.WriteString(dimStyle.Render("[h/l] income  [H/L] expenses"))
	}

	listCard := components.ContentCard("Scenarios", list.String(), listW)
	detailCard := components.FocusedCard("Projection", detail.String(), detailW)

	var b strings.Builder
	if a.isCompactLayout() {
		b.WriteString(listCard)
		b.WriteString("\n")
		b.WriteString(detailCard)
	} else {
		b.WriteString(components.CardRow([]string{listCard, detailCard}))
	}

	if comp := a.renderComparison(cw); comp != "" {
		b.WriteString("\n")
		b.WriteString(comp)
	}
	return b.String()
}

// renderComparison shows every scenario against the baseline scenario.
func (a App) renderComparison(cw int) string {
	t := theme.Active
	var base model.ForecastScenario
	found := false
	for _, sc := range a.scenarios {
		if sc.ID == scenario.BaselineID {
			base, found = sc, true
			break
		}
	}
	if !found || len(a.scenarios) < 2 {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	inner := components.CardInnerWidth(cw)
	nameW := max(10, inner-3*14)

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-*s%14s%14s%14s", nameW, "vs Baseline", "Income", "Expenses", "Net")))
	for _, sc := range a.scenarios {
		if sc.ID == base.ID {
			continue
		}
		d := scenario.Compare(a.baseline, base, sc)
		b.WriteString("\n")
		b.WriteString(rowStyle.Render(fmt.Sprintf("%-*s", nameW, truncStr(sc.Name, nameW))))
		b.WriteString(signedMoney(d.Income, 14, false))
		b.WriteString(signedMoney(d.Expenses, 14, true))
		b.WriteString(signedMoney(d.NetSavings, 14, false))
	}
	return components.ContentCard("Comparison", b.String(), cw)
}

// signedMoney renders a right-aligned delta; inverse flips gain/loss colors.
func signedMoney(v float64, w int, inverse bool) string {
	t := theme.Active
	color := t.TextMuted
	switch {
	case v > 0 && !inverse, v < 0 && inverse:
		color = t.Gain
	case v != 0:
		color = t.Loss
	}
	s := cli.FormatCurrency(v)
	if v > 0 {
		s = "+" + s
	}
	return lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render(fmt.Sprintf("%*s", w, s))
}

func scenarioFromAdjustment(adj interact.Adjustment) model.ForecastScenario {
	return model.ForecastScenario{
		IncomeAdjustmentPct:  adj.IncomePct,
		ExpenseAdjustmentPct: adj.ExpensePct,
	}
}
