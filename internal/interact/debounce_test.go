package interact

import (
	"sort"
	"sync"
	"testing"
	"time"
)

// fakeScheduler runs timers when the test advances its clock.
type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (f *fakeScheduler) AfterFunc(d time.Duration, fn func()) func() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{at: f.now + d, fn: fn}
	f.timers = append(f.timers, t)
	return func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		if t.stopped || t.fired {
			return false
		}
		t.stopped = true
		return true
	}
}

func (f *fakeScheduler) Advance(d time.Duration) {
	f.mu.Lock()
	f.now += d
	var due []*fakeTimer
	for _, t := range f.timers {
		if !t.stopped && !t.fired && t.at <= f.now {
			t.fired = true
			due = append(due, t)
		}
	}
	f.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.fn()
	}
}

// fireAll runs every timer ever scheduled, stopped or not, to simulate a
// timer that fired just before it was superseded.
func (f *fakeScheduler) fireAll() {
	f.mu.Lock()
	all := append([]*fakeTimer(nil), f.timers...)
	f.mu.Unlock()
	for _, t := range all {
		t.fn()
	}
}

func TestDebouncerSingleDeliveryWithLatestValue(t *testing.T) {
	sched := &fakeScheduler{}
	var got []int
	d := NewDebouncer(sched, DefaultDelay, func(v int) { got = append(got, v) })

	d.Trigger(5)
	sched.Advance(100 * time.Millisecond)
	d.Trigger(10)
	sched.Advance(100 * time.Millisecond)
	d.Trigger(15)

	if !d.Pending() {
		t.Fatal("Pending = false after Trigger")
	}
	sched.Advance(299 * time.Millisecond)
	if len(got) != 0 {
		t.Fatalf("delivered early: %v", got)
	}
	sched.Advance(time.Millisecond)
	if len(got) != 1 || got[0] != 15 {
		t.Fatalf("deliveries = %v, want [15]", got)
	}
	if d.Pending() {
		t.Fatal("Pending = true after delivery")
	}

	sched.Advance(time.Second)
	if len(got) != 1 {
		t.Fatalf("extra deliveries: %v", got)
	}
}

func TestDebouncerSupersededTimerIsDropped(t *testing.T) {
	sched := &fakeScheduler{}
	var got []string
	d := NewDebouncer(sched, DefaultDelay, func(v string) { got = append(got, v) })

	d.Trigger("old")
	d.Trigger("new")
	sched.fireAll()

	if len(got) != 1 || got[0] != "new" {
		t.Fatalf("deliveries = %v, want [new]", got)
	}
}

func TestDebouncerCancel(t *testing.T) {
	sched := &fakeScheduler{}
	calls := 0
	d := NewDebouncer(sched, DefaultDelay, func(int) { calls++ })

	d.Trigger(1)
	d.Cancel()
	sched.Advance(time.Second)
	if calls != 0 {
		t.Fatalf("calls = %d after Cancel, want 0", calls)
	}
}

func TestDebouncerSeparateQuietPeriods(t *testing.T) {
	sched := &fakeScheduler{}
	var got []int
	d := NewDebouncer(sched, DefaultDelay, func(v int) { got = append(got, v) })

	d.Trigger(1)
	sched.Advance(DefaultDelay)
	d.Trigger(2)
	sched.Advance(DefaultDelay)

	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("deliveries = %v, want [1 2]", got)
	}
}

func TestDebouncerRealClock(t *testing.T) {
	done := make(chan int, 4)
	d := NewDebouncer[int](nil, 10*time.Millisecond, func(v int) { done <- v })

	for i := 1; i <= 3; i++ {
		d.Trigger(i)
	}
	select {
	case v := <-done:
		if v != 3 {
			t.Fatalf("delivered %d, want 3", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no delivery within 2s")
	}
	select {
	case v := <-done:
		t.Fatalf("unexpected second delivery %d", v)
	case <-time.After(50 * time.Millisecond):
	}
}
