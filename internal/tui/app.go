// Package tui provides the interactive Bubble Tea dashboard for fcast.
package tui

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/fcast/internal/cli"
	"github.com/theirongolddev/fcast/internal/config"
	"github.com/theirongolddev/fcast/internal/interact"
	"github.com/theirongolddev/fcast/internal/model"
	"github.com/theirongolddev/fcast/internal/pipeline"
	"github.com/theirongolddev/fcast/internal/planner"
	"github.com/theirongolddev/fcast/internal/store"
	"github.com/theirongolddev/fcast/internal/tui/components"
	"github.com/theirongolddev/fcast/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
)

// LoadFunc produces the dashboard's records, forecast points and income.
type LoadFunc func(ctx context.Context, progress pipeline.ProgressFunc) (*pipeline.LoadResult, error)

// Options configures a dashboard.
type Options struct {
	DataDir    string
	Days       int
	Category   string
	Config     config.Config
	ConfigPath string // where settings are saved; defaults to config.ConfigPath()
	NeedSetup  bool

	Load      LoadFunc
	Planner   *planner.Service
	Scheduler interact.Scheduler // defaults to the wall clock
	Log       *logrus.Logger
}

// DataLoadedMsg is sent when the data pipeline finishes.
type DataLoadedMsg struct {
	Result   *pipeline.LoadResult
	Err      error
	LoadTime time.Duration
}

// ProgressMsg reports file parsing progress.
type ProgressMsg struct {
	Current int
	Total   int
}

// RefreshDataMsg is sent when a background data refresh completes.
type RefreshDataMsg struct {
	Result   *pipeline.LoadResult
	Err      error
	LoadTime time.Duration
}

// ProjectionMsg carries a settled scenario projection from the debouncer.
type ProjectionMsg struct {
	Update interact.ProjectionUpdate
}

type plannerLoadedMsg struct {
	scenarios []model.ForecastScenario
	goals     []model.SavingsGoal
	err       error
}

type plannerOpMsg struct {
	status   string
	selectID string
	err      error
}

// App is the root Bubble Tea model.
type App struct {
	opts    Options
	cfg     config.Config
	log     *logrus.Logger
	planner *planner.Service
	now     func() time.Time

	// Data
	records     []model.SpendingRecord
	points      []model.ForecastDataPoint
	income      []model.IncomeSource
	parseErrors int
	loaded      bool
	loadTime    time.Duration
	loadErr     error

	// Auto-refresh state
	autoRefresh     bool
	refreshInterval time.Duration
	lastRefresh     time.Time
	refreshing      bool

	// Pre-computed for current filter
	daily         []model.AggregatedDay
	categories    []model.CategoryTotal
	comparison    model.PeriodComparison
	incomeInsight model.IncomeInsight
	accuracy      pipeline.ForecastAccuracy
	baseline      model.Baseline
	aggErr        error

	// Chart window and working scenario
	ctrl       *interact.Controller
	projSub    chan interact.ProjectionUpdate
	projection model.Projection

	// Planner
	scenarios []model.ForecastScenario
	goals     []model.SavingsGoal
	scen      scenariosState
	goal      goalsState
	form      *huh.Form
	formKind  formKind
	scenVals  *scenarioFormValues
	goalVals  *goalFormValues

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	status    string
	statusErr bool

	// Filter state
	dayRange int
	category string

	settings settingsState

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals *setupValues
	needSetup bool

	// Loading, channel-based progress subscription
	spinner     spinner.Model
	progress    int
	progressMax int
	loadSub     chan tea.Msg
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	minContentHeight = 5
	minRefresh       = 10 * time.Second
	plannerTimeout   = 10 * time.Second
)

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	log := opts.Log
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = config.ConfigPath()
	}
	if opts.Days <= 0 {
		opts.Days = opts.Config.General.DefaultDays
	}
	if opts.Days <= 0 {
		opts.Days = 90
	}
	if opts.Load == nil {
		dir := opts.DataDir
		opts.Load = func(_ context.Context, progress pipeline.ProgressFunc) (*pipeline.LoadResult, error) {
			return pipeline.Load(dir, progress)
		}
	}
	svc := opts.Planner
	if svc == nil {
		svc = planner.NewService(store.NewMemoryStore(), log)
	}
	if opts.Scheduler == nil {
		opts.Scheduler = interact.ClockScheduler{}
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	refreshInterval := time.Duration(opts.Config.TUI.RefreshIntervalSec) * time.Second
	if refreshInterval < minRefresh {
		refreshInterval = 60 * time.Second
	}

	a := App{
		opts:            opts,
		cfg:             opts.Config,
		log:             log,
		planner:         svc,
		now:             time.Now,
		dayRange:        opts.Days,
		category:        opts.Category,
		needSetup:       opts.NeedSetup,
		autoRefresh:     opts.Config.TUI.AutoRefresh,
		refreshInterval: refreshInterval,
		spinner:         sp,
		loadSub:         make(chan tea.Msg, 1),
		projSub:         make(chan interact.ProjectionUpdate, 1),
		setupVals:       &setupValues{},
		scenVals:        &scenarioFormValues{},
		goalVals:        &goalFormValues{},
	}
	a.ctrl = a.newController()
	return a
}

func (a App) newController() *interact.Controller {
	sub := a.projSub
	return interact.NewController(a.baseline, a.opts.Scheduler, a.cfg.DebounceDelay(), func(u interact.ProjectionUpdate) {
		pushLatest(sub, u)
	})
}

// pushLatest delivers u, replacing an undelivered older update.
func pushLatest(ch chan interact.ProjectionUpdate, u interact.ProjectionUpdate) {
	for {
		select {
		case ch <- u:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.opts.Load, a.loadSub),
		loadPlannerCmd(a.planner),
		waitForProjection(a.projSub),
		a.spinner.Tick,
		tickCmd(),
	)
}

func (a *App) recompute() {
	now := a.now()
	since := now.AddDate(0, 0, -a.dayRange)

	records := a.records
	if a.category != "" {
		records = pipeline.FilterByCategory(records, a.category)
	}

	all, err := pipeline.Aggregate(records)
	a.aggErr = err
	if err != nil {
		a.log.WithError(err).Warn("aggregating records")
	}
	a.daily = pipeline.FilterByTime(all, since, now)
	a.comparison = pipeline.ComparePeriods(all, since, now)
	a.categories = pipeline.AggregateCategories(pipeline.FilterRecords(records, since, now))
	a.incomeInsight = pipeline.SummarizeIncome(a.income)
	a.accuracy = pipeline.SummarizeForecast(a.points)

	a.baseline = config.ResolveBaseline(a.cfg, a.income, a.comparison.Current.AverageDaily)
	a.ctrl.SetBaseline(a.baseline)
	a.projection = a.ctrl.Preview()
	a.syncWindow()
}

// chartLen returns the length of the series shown on the active tab, or -1.
func (a App) chartLen() int {
	switch a.activeTab {
	case components.TabTrends:
		return len(a.daily)
	case components.TabForecast:
		return len(a.points)
	}
	return -1
}

// syncWindow points the controller at the active tab's series.
func (a *App) syncWindow() {
	if n := a.chartLen(); n >= 0 {
		a.ctrl.SetTotal(n)
	}
}

func (a *App) setTab(i int) {
	if i == a.activeTab {
		return
	}
	a.activeTab = i
	a.syncWindow()
}

func (a *App) applyData(res *pipeline.LoadResult) {
	a.records = res.Records
	a.points = res.Points
	a.income = res.Income
	a.parseErrors = res.ParseErrors + res.FileErrors
	a.recompute()
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		if a.form != nil {
			a.form = a.form.WithWidth(min(msg.Width, 70))
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupForm != nil || a.form != nil {
			return a, nil
		}
		if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress && msg.Y <= 1 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.setTab(tab)
			}
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)

	case DataLoadedMsg:
		a.loaded = true
		a.loadTime = msg.LoadTime
		a.lastRefresh = a.now()
		if msg.Err != nil {
			a.loadErr = msg.Err
			a.log.WithError(msg.Err).Error("loading data")
		} else if msg.Result != nil {
			a.applyData(msg.Result)
		}

		if a.needSetup {
			a.setupForm = newSetupForm(len(a.records), a.opts.DataDir, a.cfg, a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case ProgressMsg:
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case RefreshDataMsg:
		a.refreshing = false
		a.lastRefresh = a.now()
		if msg.Err != nil {
			a.setStatus("refresh failed: "+msg.Err.Error(), true)
			return a, nil
		}
		if msg.Result != nil {
			a.loadErr = nil
			a.loadTime = msg.LoadTime
			a.applyData(msg.Result)
		}
		return a, nil

	case ProjectionMsg:
		// A stale update for a scenario we've since moved away from is dropped.
		if msg.Update.Adjustment == a.ctrl.Adjustment() {
			a.projection = msg.Update.Projection
		}
		return a, waitForProjection(a.projSub)

	case plannerLoadedMsg:
		if msg.err != nil {
			a.setStatus(msg.err.Error(), true)
			return a, nil
		}
		a.scenarios = msg.scenarios
		a.goals = msg.goals
		a.afterPlannerLoad()
		return a, nil

	case plannerOpMsg:
		if msg.err != nil {
			a.setStatus(msg.err.Error(), true)
			return a, nil
		}
		if msg.selectID != "" {
			a.scen.selectedID = msg.selectID
			a.scen.loadedID = ""
		}
		a.setStatus(msg.status, false)
		return a, loadPlannerCmd(a.planner)

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.loaded && a.autoRefresh && !a.refreshing && a.now().Sub(a.lastRefresh) >= a.refreshInterval {
			a.refreshing = true
			cmds = append(cmds, refreshDataCmd(a.opts.Load))
		}
		return a, tea.Batch(cmds...)
	}

	// Forward unhandled messages to the active form (cursor blinks, etc.)
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.form != nil {
		return a.updateForm(msg)
	}

	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		a.ctrl.Stop()
		return a, tea.Quit
	}

	if !a.loaded {
		return a, nil
	}

	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.form != nil {
		return a.updateForm(msg)
	}
	if a.activeTab == components.TabSettings && a.settings.editing {
		return a.updateSettingsInput(msg)
	}
	if a.activeTab == components.TabGoals && a.goal.contributing {
		return a.updateContributeInput(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	// Chart tabs: zoom and pan
	if a.chartLen() >= 0 && interact.ActionForKey(key) != interact.ActionNone {
		a.ctrl.HandleKey(key, false)
		return a, nil
	}

	switch a.activeTab {
	case components.TabScenarios:
		if m, cmd, ok := a.updateScenariosKey(key); ok {
			return m, cmd
		}
	case components.TabGoals:
		if m, cmd, ok := a.updateGoalsKey(key); ok {
			return m, cmd
		}
	case components.TabSettings:
		switch key {
		case "j", "down":
			if a.settings.cursor < settingsFieldCount-1 {
				a.settings.cursor++
			}
			return a, nil
		case "k", "up":
			if a.settings.cursor > 0 {
				a.settings.cursor--
			}
			return a, nil
		case "enter":
			return a.settingsStartEdit()
		}
	}

	switch key {
	case "q":
		a.ctrl.Stop()
		return a, tea.Quit
	case "r":
		if !a.refreshing {
			a.refreshing = true
			return a, refreshDataCmd(a.opts.Load)
		}
		return a, nil
	case "R":
		a.autoRefresh = !a.autoRefresh
		a.cfg.TUI.AutoRefresh = a.autoRefresh
		if err := config.SaveTo(a.opts.ConfigPath, a.cfg); err != nil {
			a.log.WithError(err).Warn("saving auto-refresh setting")
		}
		return a, nil
	case "tab":
		a.setTab((a.activeTab + 1) % len(components.Tabs))
		return a, nil
	case "shift+tab":
		a.setTab((a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs))
		return a, nil
	}

	if r := []rune(key); len(r) == 1 {
		if idx := components.TabIdxByKey(r[0]); idx >= 0 {
			a.setTab(idx)
		}
	}
	return a, nil
}

func (a *App) setStatus(msg string, isErr bool) {
	a.status = msg
	a.statusErr = isErr
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  fcast needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spinnerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	countStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ fcast"))
	b.WriteString(subtitleStyle.Render(" · Spending Forecasts"))
	b.WriteString("\n\n")

	if a.progressMax > 0 {
		barW := max(20, min(40, a.width-30))
		pct := float64(a.progress) / float64(a.progressMax)
		b.WriteString(spinnerStyle.Render(a.spinner.View()))
		b.WriteString(subtitleStyle.Render(" Parsing data files\n\n"))
		b.WriteString(components.ProgressBar(pct, barW))
		b.WriteString("\n")
		b.WriteString(countStyle.Render(cli.FormatNumber(int64(a.progress))))
		b.WriteString(subtitleStyle.Render(" / "))
		b.WriteString(countStyle.Render(cli.FormatNumber(int64(a.progressMax))))
	} else {
		b.WriteString(spinnerStyle.Render(a.spinner.View()))
		b.WriteString(subtitleStyle.Render(" Loading spending data..."))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Predicted).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings [][2]string
	}{
		{"Navigation", [][2]string{
			{"t f s g x", "Jump to tab"},
			{"tab S-tab", "Next / Previous tab"},
			{"j k", "Navigate lists"},
		}},
		{"Charts", [][2]string{
			{"+ -", "Zoom in / out"},
			{"← →", "Pan earlier / later"},
			{"0", "Reset view"},
		}},
		{"Scenarios & Goals", [][2]string{
			{"h l", "Income -5% / +5%"},
			{"H L", "Expenses -5% / +5%"},
			{"Enter", "Save adjustments"},
			{"u", "Undo unsaved edits"},
			{"n y D", "New / Duplicate / Delete"},
			{"c", "Contribute to goal"},
		}},
		{"General", [][2]string{
			{"r", "Refresh data"},
			{"R", "Toggle auto-refresh"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, s := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(s.title))
		b.WriteString("\n")
		for _, bind := range s.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind[0])),
				descStyle.Render(bind[1]))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	pill := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pillAccent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	filterStr := pill.Render(" ") + pillAccent.Render(fmt.Sprintf("%dd", a.dayRange))
	if a.category != "" {
		filterStr += pill.Render(" │ ") + pillAccent.Render(a.category)
	}
	filterStr += pill.Render(" │ baseline ") +
		pillAccent.Render(cli.FormatCompactCurrency(a.baseline.Income)) +
		pill.Render(" in / ") +
		pillAccent.Render(cli.FormatCompactCurrency(a.baseline.Expenses)) +
		pill.Render(" out ")

	header := components.RenderTabBar(a.activeTab, w) +
		lipgloss.NewStyle().Background(t.Surface).Width(w).Render(filterStr)

	status := components.Status{
		DataAge:     fmt.Sprintf("%.1fs", a.loadTime.Seconds()),
		Refreshing:  a.refreshing,
		AutoRefresh: a.autoRefresh,
		Pending:     a.ctrl.Pending(),
		Message:     a.status,
		IsError:     a.statusErr,
	}
	if a.chartLen() >= 0 {
		status.Window = a.windowSummary()
	}
	statusBar := components.RenderStatusBar(w, status)

	contentH := max(minContentHeight, h-lipgloss.Height(header)-lipgloss.Height(statusBar))

	var content string
	switch {
	case a.loadErr != nil:
		content = components.ContentCard("Error", "Could not load data: "+a.loadErr.Error(), cw)
	case a.form != nil:
		content = a.form.View()
	default:
		switch a.activeTab {
		case components.TabTrends:
			content = a.renderTrendsTab(cw)
		case components.TabForecast:
			content = a.renderForecastTab(cw)
		case components.TabScenarios:
			content = a.renderScenariosTab(cw)
		case components.TabGoals:
			content = a.renderGoalsTab(cw)
		case components.TabSettings:
			content = a.renderSettingsTab(cw)
		}
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// windowSummary describes the visible slice, e.g. "1.5x 12-41/90".
func (a App) windowSummary() string {
	n := a.chartLen()
	if n == 0 {
		return ""
	}
	r := a.ctrl.Range()
	return fmt.Sprintf("%sx %d-%d/%d", strconv.FormatFloat(a.ctrl.Window().Zoom, 'f', -1, 64), r.Start+1, r.End, n)
}

// ─── Commands ───────────────────────────────────────────────────

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// loadDataCmd starts the loader in a background goroutine.
// It streams ProgressMsg updates and a final DataLoadedMsg through sub.
func loadDataCmd(load LoadFunc, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			start := time.Now()

			// Non-blocking so workers aren't stalled; the next update catches up.
			progressFn := func(current, total int) {
				select {
				case sub <- ProgressMsg{Current: current, Total: total}:
				default:
				}
			}

			res, err := load(context.Background(), progressFn)
			sub <- DataLoadedMsg{Result: res, Err: err, LoadTime: time.Since(start)}
		}()

		return <-sub
	}
}

// waitForLoadMsg blocks until the next message arrives from the loader goroutine.
func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// refreshDataCmd reloads data in the background without progress UI.
func refreshDataCmd(load LoadFunc) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		res, err := load(context.Background(), nil)
		return RefreshDataMsg{Result: res, Err: err, LoadTime: time.Since(start)}
	}
}

// waitForProjection blocks until the debouncer settles an edit.
func waitForProjection(sub chan interact.ProjectionUpdate) tea.Cmd {
	return func() tea.Msg {
		return ProjectionMsg{Update: <-sub}
	}
}

func loadPlannerCmd(svc *planner.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), plannerTimeout)
		defer cancel()

		if err := svc.EnsureDefaults(ctx); err != nil {
			return plannerLoadedMsg{err: err}
		}
		scenarios, err := svc.ListScenarios(ctx)
		if err != nil {
			return plannerLoadedMsg{err: err}
		}
		goals, err := svc.ListGoals(ctx)
		if err != nil {
			return plannerLoadedMsg{err: err}
		}
		return plannerLoadedMsg{scenarios: scenarios, goals: goals}
	}
}

// plannerOp runs fn against the planner and reports its outcome.
func plannerOp(svc *planner.Service, fn func(ctx context.Context, svc *planner.Service) (plannerOpMsg, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), plannerTimeout)
		defer cancel()
		msg, err := fn(ctx, svc)
		if err != nil {
			return plannerOpMsg{err: err}
		}
		return msg
	}
}

// ─── Helpers ────────────────────────────────────────────────────

// chartDateLabels builds compact X-axis labels for a chronological date series.
// The first label and month boundaries show the month, everything else the day.
func chartDateLabels(dates []time.Time) []string {
	labels := make([]string, len(dates))
	prevMonth := time.Month(0)
	for i, dt := range dates {
		if i == 0 || dt.Month() != prevMonth {
			labels[i] = dt.Format("Jan")
		} else {
			labels[i] = strconv.Itoa(dt.Day())
		}
		prevMonth = dt.Month()
	}
	return labels
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	var result strings.Builder
	for i, line := range lines {
		result.WriteString(lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg)))
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes use the same width rules as RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW
		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}
