package interact

import (
	"sync"
	"time"

	"github.com/theirongolddev/fcast/internal/model"
	"github.com/theirongolddev/fcast/internal/scenario"
	"github.com/theirongolddev/fcast/internal/window"
)

// Adjustment is a pending pair of scenario percentages.
type Adjustment struct {
	IncomePct  float64
	ExpensePct float64
}

// ProjectionUpdate is delivered after a debounced scenario edit settles.
type ProjectionUpdate struct {
	Adjustment Adjustment
	Projection model.Projection
}

// Controller owns the chart window state and the working scenario
// adjustments. Window changes apply immediately; adjustment edits are
// debounced and projected once they settle.
type Controller struct {
	mu       sync.Mutex
	win      window.State
	total    int
	adj      Adjustment
	baseline model.Baseline
	debounce *Debouncer[Adjustment]
}

// NewController creates a controller. onProjection receives settled edits
// on the scheduler's goroutine.
func NewController(baseline model.Baseline, sched Scheduler, delay time.Duration, onProjection func(ProjectionUpdate)) *Controller {
	c := &Controller{win: window.Initial(), baseline: baseline}
	c.debounce = NewDebouncer(sched, delay, func(a Adjustment) {
		c.mu.Lock()
		base := c.baseline
		c.mu.Unlock()
		if onProjection != nil {
			onProjection(ProjectionUpdate{
				Adjustment: a,
				Projection: scenario.ProjectPct(base, a.IncomePct, a.ExpensePct),
			})
		}
	})
	return c
}

// SetTotal sets the series length and re-clamps the pan offset.
func (c *Controller) SetTotal(total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total = total
	c.win = c.win.Clamp(total)
}

// HandleKey applies the action bound to key. Keys typed into a text input
// are ignored. It reports whether the window changed.
func (c *Controller) HandleKey(key string, inTextInput bool) bool {
	if inTextInput {
		return false
	}
	return c.Press(ActionForKey(key))
}

// Press applies a window action, as from a toolbar button.
func (c *Controller) Press(a Action) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	before := c.win
	switch a {
	case ActionZoomIn:
		c.win = c.win.ZoomIn(c.total)
	case ActionZoomOut:
		c.win = c.win.ZoomOut(c.total)
	case ActionReset:
		c.win = c.win.Reset()
	case ActionPanLeft:
		c.win = c.win.PanLeft(c.total)
	case ActionPanRight:
		c.win = c.win.PanRight(c.total)
	default:
		return false
	}
	return c.win != before
}

// Window returns the current zoom/pan state.
func (c *Controller) Window() window.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.win
}

// Range returns the visible index range.
func (c *Controller) Range() window.Range {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.win.Range(c.total)
}

// LoadScenario replaces the working adjustments without scheduling a recompute.
func (c *Controller) LoadScenario(s model.ForecastScenario) {
	c.debounce.Cancel()
	c.mu.Lock()
	c.adj = Adjustment{IncomePct: s.IncomeAdjustmentPct, ExpensePct: s.ExpenseAdjustmentPct}
	c.mu.Unlock()
}

// SetBaseline changes the baseline used by later projections.
func (c *Controller) SetBaseline(b model.Baseline) {
	c.mu.Lock()
	c.baseline = b
	c.mu.Unlock()
}

// Adjustment returns the working adjustments.
func (c *Controller) Adjustment() Adjustment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.adj
}

// Preview projects the working adjustments immediately.
func (c *Controller) Preview() model.Projection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return scenario.ProjectPct(c.baseline, c.adj.IncomePct, c.adj.ExpensePct)
}

// SetIncomeAdjustment sets the income percentage and schedules a recompute.
func (c *Controller) SetIncomeAdjustment(pct float64) {
	c.edit(func(a *Adjustment) { a.IncomePct = scenario.ClampPct(pct) })
}

// SetExpenseAdjustment sets the expense percentage and schedules a recompute.
func (c *Controller) SetExpenseAdjustment(pct float64) {
	c.edit(func(a *Adjustment) { a.ExpensePct = scenario.ClampPct(pct) })
}

// NudgeIncome moves the income percentage by delta.
func (c *Controller) NudgeIncome(delta float64) {
	c.edit(func(a *Adjustment) { a.IncomePct = scenario.ClampPct(a.IncomePct + delta) })
}

// NudgeExpense moves the expense percentage by delta.
func (c *Controller) NudgeExpense(delta float64) {
	c.edit(func(a *Adjustment) { a.ExpensePct = scenario.ClampPct(a.ExpensePct + delta) })
}

func (c *Controller) edit(fn func(*Adjustment)) {
	c.mu.Lock()
	fn(&c.adj)
	adj := c.adj
	c.mu.Unlock()
	c.debounce.Trigger(adj)
}

// Pending reports whether an edit is waiting to be projected.
func (c *Controller) Pending() bool {
	return c.debounce.Pending()
}

// Stop cancels any pending recompute.
func (c *Controller) Stop() {
	c.debounce.Cancel()
}
