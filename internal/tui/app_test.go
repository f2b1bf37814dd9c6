package tui

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/theirongolddev/fcast/internal/config"
	"github.com/theirongolddev/fcast/internal/interact"
	"github.com/theirongolddev/fcast/internal/model"
	"github.com/theirongolddev/fcast/internal/pipeline"
	"github.com/theirongolddev/fcast/internal/planner"
	"github.com/theirongolddev/fcast/internal/scenario"
	"github.com/theirongolddev/fcast/internal/store"
	"github.com/theirongolddev/fcast/internal/tui/components"
)

var testNow = time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)

// manualScheduler runs scheduled funcs only when fire is called.
type manualScheduler struct {
	mu      sync.Mutex
	pending []*scheduled
}

type scheduled struct {
	fn      func()
	stopped bool
}

func (m *manualScheduler) AfterFunc(_ time.Duration, fn func()) func() bool {
	s := &scheduled{fn: fn}
	m.mu.Lock()
	m.pending = append(m.pending, s)
	m.mu.Unlock()
	return func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		if s.stopped {
			return false
		}
		s.stopped = true
		return true
	}
}

func (m *manualScheduler) fire() {
	m.mu.Lock()
	due := m.pending
	m.pending = nil
	m.mu.Unlock()
	for _, s := range due {
		m.mu.Lock()
		run := !s.stopped
		s.stopped = true
		m.mu.Unlock()
		if run {
			s.fn()
		}
	}
}

// sixtyDays returns one 100.00 record per day for the 60 days before testNow.
func sixtyDays() []model.SpendingRecord {
	var recs []model.SpendingRecord
	for i := 60; i >= 1; i-- {
		recs = append(recs, model.SpendingRecord{
			Date:     testNow.AddDate(0, 0, -i).Format(model.DateLayout),
			Category: "groceries",
			Amount:   100,
		})
	}
	recs[10].IsAnomaly = true
	return recs
}

func newTestApp(t *testing.T) (App, *manualScheduler) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Forecast.MonthlyIncome = 5000
	sched := &manualScheduler{}
	a := NewApp(Options{
		Days:       90,
		Config:     cfg,
		ConfigPath: filepath.Join(t.TempDir(), "config.toml"),
		Planner:    planner.NewService(store.NewMemoryStore(), nil),
		Scheduler:  sched,
		Load: func(context.Context, pipeline.ProgressFunc) (*pipeline.LoadResult, error) {
			return &pipeline.LoadResult{Records: sixtyDays()}, nil
		},
	})
	a.now = func() time.Time { return testNow }
	a.width, a.height = 140, 50
	return a, sched
}

func update(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	m, cmd := a.Update(msg)
	app, ok := m.(App)
	if !ok {
		t.Fatalf("Update returned %T, want App", m)
	}
	return app, cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, a App, keys ...string) App {
	t.Helper()
	for _, k := range keys {
		a, _ = update(t, a, key(k))
	}
	return a
}

// loaded returns an app with data and planner state applied.
func loaded(t *testing.T) (App, *manualScheduler) {
	t.Helper()
	a, sched := newTestApp(t)
	res, _ := a.opts.Load(context.Background(), nil)
	a, _ = update(t, a, DataLoadedMsg{Result: res})
	a, _ = update(t, a, loadPlannerCmd(a.planner)())
	return a, sched
}

func TestTabAtXMatchesTabWidths(t *testing.T) {
	for active := range components.Tabs {
		a := App{activeTab: active}
		pos := 0
		for i, tab := range components.Tabs {
			w := components.TabVisualWidth(tab, i == active)
			x := pos + w/2
			if got := a.tabAtX(x); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, x, got, i)
			}
			pos += w + 1
		}
	}
}

func TestKeysIgnoredUntilLoaded(t *testing.T) {
	a, _ := newTestApp(t)
	a = press(t, a, "f")
	if a.activeTab != components.TabTrends {
		t.Fatalf("activeTab = %d before load, want %d", a.activeTab, components.TabTrends)
	}
}

func TestDataLoadedDerivesBaseline(t *testing.T) {
	a, _ := loaded(t)

	if !a.loaded {
		t.Fatal("app not marked loaded")
	}
	if len(a.daily) != 60 {
		t.Fatalf("daily = %d days, want 60", len(a.daily))
	}
	if a.comparison.Current.AnomalyCount != 1 {
		t.Fatalf("anomalies = %d, want 1", a.comparison.Current.AnomalyCount)
	}
	want := model.Baseline{Income: 5000, Expenses: 3000}
	if a.baseline != want {
		t.Fatalf("baseline = %+v, want %+v", a.baseline, want)
	}
}

func TestChartKeysZoomAndPan(t *testing.T) {
	a, _ := loaded(t)

	a = press(t, a, "+")
	if z := a.ctrl.Window().Zoom; z != 1.5 {
		t.Fatalf("zoom = %v, want 1.5", z)
	}
	if r := a.ctrl.Range(); r.Len() != 40 {
		t.Fatalf("visible = %d, want 40", r.Len())
	}

	a = press(t, a, "right")
	if r := a.ctrl.Range(); r.Start != 3 {
		t.Fatalf("after pan right start = %d, want 3", r.Start)
	}
	a = press(t, a, "left", "left")
	if r := a.ctrl.Range(); r.Start != 0 {
		t.Fatalf("after pan left start = %d, want 0", r.Start)
	}
	a = press(t, a, "0")
	if w := a.ctrl.Window(); w.Zoom != 1 || w.Pan != 0 {
		t.Fatalf("after reset window = %+v", w)
	}
}

func TestTabSwitchReclampsWindow(t *testing.T) {
	a, _ := loaded(t)
	a = press(t, a, "+", "right", "right")

	// No forecast points: the window collapses to an empty range.
	a = press(t, a, "f")
	if a.activeTab != components.TabForecast {
		t.Fatalf("activeTab = %d, want forecast", a.activeTab)
	}
	if r := a.ctrl.Range(); r.Len() != 0 {
		t.Fatalf("forecast range = %+v, want empty", r)
	}
}

func TestScenarioNudgeIsDebounced(t *testing.T) {
	a, sched := loaded(t)
	a = press(t, a, "s")

	sc, ok := a.selectedScenario()
	if !ok || sc.ID != scenario.BaselineID {
		t.Fatalf("selected = %+v, want baseline", sc)
	}
	if a.projection.ProjectedIncome != 5000 {
		t.Fatalf("initial income = %v, want 5000", a.projection.ProjectedIncome)
	}

	a = press(t, a, "l", "l")
	if !a.ctrl.Pending() {
		t.Fatal("edit should be pending before the quiet period ends")
	}
	if a.projection.ProjectedIncome != 5000 {
		t.Fatalf("projection moved before settle: %v", a.projection.ProjectedIncome)
	}

	sched.fire()
	msg := waitForProjection(a.projSub)()
	a, _ = update(t, a, msg)

	p := a.projection
	if p.ProjectedIncome != 5500 || p.ProjectedExpenses != 3000 || p.NetSavings != 2500 {
		t.Fatalf("projection = %+v, want 5500/3000/2500", p)
	}
	if !a.dirty() {
		t.Fatal("scenario should be dirty after nudging")
	}
}

func TestStaleProjectionDropped(t *testing.T) {
	a, _ := loaded(t)
	a = press(t, a, "s")
	before := a.projection

	stale := ProjectionMsg{Update: interact.ProjectionUpdate{
		Adjustment: interact.Adjustment{IncomePct: 40},
		Projection: model.Projection{ProjectedIncome: 7000},
	}}
	a, _ = update(t, a, stale)
	if a.projection != before {
		t.Fatalf("stale projection applied: %+v", a.projection)
	}
}

func TestScenarioSaveAndUndo(t *testing.T) {
	a, _ := loaded(t)
	a = press(t, a, "s", "j") // conservative: -5% / +10%

	a = press(t, a, "L")
	a, cmd := update(t, a, key("enter"))
	if cmd == nil {
		t.Fatal("enter on a dirty scenario should save")
	}
	a, cmd = update(t, a, cmd())
	if a.statusErr {
		t.Fatalf("save failed: %s", a.status)
	}
	a, _ = update(t, a, cmd())

	saved, err := a.planner.GetScenario(context.Background(), scenario.ConservativeID)
	if err != nil {
		t.Fatal(err)
	}
	if saved.ExpenseAdjustmentPct != 15 {
		t.Fatalf("saved expense pct = %v, want 15", saved.ExpenseAdjustmentPct)
	}
	if a.dirty() {
		t.Fatal("scenario still dirty after save")
	}

	a = press(t, a, "h", "u")
	if a.dirty() {
		t.Fatal("undo should restore stored adjustments")
	}
}

func TestDeleteDefaultScenarioReportsError(t *testing.T) {
	a, _ := loaded(t)
	a = press(t, a, "s")
	a, cmd := update(t, a, key("D"))
	a, _ = update(t, a, cmd())
	if !a.statusErr {
		t.Fatal("deleting a built-in scenario should report an error")
	}
	if len(a.scenarios) != 3 {
		t.Fatalf("scenarios = %d, want 3", len(a.scenarios))
	}
}

func TestContributeToGoal(t *testing.T) {
	a, _ := loaded(t)
	g, err := a.planner.CreateGoal(context.Background(), model.SavingsGoal{
		Name:         "Trip",
		TargetAmount: 1000,
		TargetDate:   time.Now().AddDate(1, 0, 0),
	})
	if err != nil {
		t.Fatal(err)
	}
	a, _ = update(t, a, loadPlannerCmd(a.planner)())

	a = press(t, a, "g", "c")
	if !a.goal.contributing {
		t.Fatal("c should open the contribution input")
	}
	a = press(t, a, "2", "5", "0")
	a, cmd := update(t, a, key("enter"))
	if cmd == nil {
		t.Fatal("enter should submit the contribution")
	}
	a, _ = update(t, a, cmd())

	got, err := a.planner.GetGoal(context.Background(), g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.CurrentAmount != 250 {
		t.Fatalf("current = %v, want 250", got.CurrentAmount)
	}
}

func TestSettingsRejectsUnknownTheme(t *testing.T) {
	a, _ := loaded(t)
	a = press(t, a, "x")
	a, _ = update(t, a, key("enter"))
	if !a.settings.editing {
		t.Fatal("enter should start editing")
	}
	a.settings.input.SetValue("neon")
	a, _ = update(t, a, key("enter"))
	if a.settings.saveErr == nil {
		t.Fatal("unknown theme should fail to save")
	}
	if a.cfg.Appearance.Theme != "flexoki-dark" {
		t.Fatalf("theme = %q, want unchanged", a.cfg.Appearance.Theme)
	}
}

func TestSettingsIncomeUpdatesBaseline(t *testing.T) {
	a, _ := loaded(t)
	a = press(t, a, "x", "j", "j")
	a, _ = update(t, a, key("enter"))
	a.settings.input.SetValue("6000")
	a, _ = update(t, a, key("enter"))

	if a.settings.saveErr != nil {
		t.Fatal(a.settings.saveErr)
	}
	if a.baseline.Income != 6000 {
		t.Fatalf("baseline income = %v, want 6000", a.baseline.Income)
	}
	cfg, err := config.LoadFrom(a.opts.ConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Forecast.MonthlyIncome != 6000 {
		t.Fatalf("saved income = %v, want 6000", cfg.Forecast.MonthlyIncome)
	}
}

func TestViewRendersEveryTab(t *testing.T) {
	a, _ := loaded(t)
	for _, k := range []string{"t", "f", "s", "g", "x"} {
		a = press(t, a, k)
		if v := a.View(); v == "" {
			t.Fatalf("tab %q rendered empty view", k)
		}
	}
}

func TestChartDateLabels(t *testing.T) {
	dates := []time.Time{
		time.Date(2026, 1, 30, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
	}
	got := chartDateLabels(dates)
	want := []string{"Jan", "31", "Feb", "2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("labels = %v, want %v", got, want)
		}
	}
}
