package app

import (
	"sync"
	"time"
)

// Timer is a pending scheduled call.
type Timer interface {
	// Stop prevents the call from running. It reports whether the call was
	// still pending.
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemScheduler schedules on the runtime timer.
type SystemScheduler struct{}

// AfterFunc implements Scheduler with time.AfterFunc.
func (SystemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Debouncer coalesces bursts of values into a single trailing call. Each
// Trigger restarts the window; when the window elapses without another
// Trigger, fire runs once with the last value. At most one call is pending.
type Debouncer[T any] struct {
	window time.Duration
	sched  Scheduler
	fire   func(T)

	mu      sync.Mutex
	pending Timer
	gen     uint64
	closed  bool
}

// NewDebouncer creates a debouncer. A nil scheduler means SystemScheduler.
// A non-positive window fires synchronously on every Trigger.
func NewDebouncer[T any](window time.Duration, sched Scheduler, fire func(T)) *Debouncer[T] {
	if sched == nil {
		sched = SystemScheduler{}
	}

	return &Debouncer[T]{window: window, sched: sched, fire: fire}
}

// Trigger schedules fire(v), replacing any pending call.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()

	if d.closed {
		d.mu.Unlock()
		return
	}

	d.stopLocked()

	if d.window <= 0 {
		d.mu.Unlock()
		d.fire(v)

		return
	}

	d.gen++
	gen := d.gen
	d.pending = d.sched.AfterFunc(d.window, func() {
		d.mu.Lock()
		// A stopped timer can still run if it fired concurrently with Stop.
		if d.closed || gen != d.gen {
			d.mu.Unlock()
			return
		}

		d.pending = nil
		d.mu.Unlock()

		d.fire(v)
	})
	d.mu.Unlock()
}

// Cancel drops the pending call, if any, and reports whether there was one.
func (d *Debouncer[T]) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	had := d.pending != nil
	d.stopLocked()

	return had
}

// Pending reports whether a call is scheduled.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.pending != nil
}

// Close cancels the pending call. Later Triggers are ignored.
func (d *Debouncer[T]) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.closed = true
}

func (d *Debouncer[T]) stopLocked() {
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}

	d.gen++
}
