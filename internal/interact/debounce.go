// Package interact maps user input onto chart window changes and debounced
// scenario recomputation.
package interact

import (
	"sync"
	"time"
)

// DefaultDelay is the quiet period before a scenario edit is recomputed.
const DefaultDelay = 300 * time.Millisecond

// Scheduler runs fn once after d. The returned stop func cancels a pending
// run and reports whether it did so.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) (stop func() bool)
}

// ClockScheduler schedules on the real clock.
type ClockScheduler struct{}

// AfterFunc wraps time.AfterFunc.
func (ClockScheduler) AfterFunc(d time.Duration, fn func()) func() bool {
	return time.AfterFunc(d, fn).Stop
}

// Debouncer delivers the most recent value once no new value has arrived for
// the configured delay. Each Trigger cancels the pending delivery; a timer
// that already fired but was superseded is dropped by generation check.
type Debouncer[T any] struct {
	mu      sync.Mutex
	sched   Scheduler
	delay   time.Duration
	deliver func(T)
	gen     uint64
	stop    func() bool
	pending bool
}

// NewDebouncer creates a debouncer calling deliver on the scheduler's goroutine.
func NewDebouncer[T any](sched Scheduler, delay time.Duration, deliver func(T)) *Debouncer[T] {
	if sched == nil {
		sched = ClockScheduler{}
	}
	return &Debouncer[T]{sched: sched, delay: delay, deliver: deliver}
}

// Trigger records v as the latest value and restarts the quiet period.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stop != nil {
		d.stop()
	}
	d.gen++
	gen := d.gen
	d.pending = true
	d.stop = d.sched.AfterFunc(d.delay, func() { d.fire(gen, v) })
}

func (d *Debouncer[T]) fire(gen uint64, v T) {
	d.mu.Lock()
	if gen != d.gen || !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.stop = nil
	d.mu.Unlock()

	d.deliver(v)
}

// Cancel drops any pending delivery.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		d.stop()
		d.stop = nil
	}
	d.gen++
	d.pending = false
}

// Pending reports whether a delivery is scheduled.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}
