package exam

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of Trigger calls into one fn call after delay of quiet.
// Each Trigger cancels and reschedules the pending call instead of stacking timers.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	fn    func()
	timer *time.Timer
	gen   uint64
}

func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger (re)starts the quiet window.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Cancel drops the pending call and reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer == nil {
		return false
	}
	// A timer that already fired but has not taken the lock sees timer == nil and
	// skips fn, so the call counts as dropped either way.
	d.timer.Stop()
	d.timer = nil
	return true
}

// Flush runs the pending call immediately, if any.
func (d *Debouncer) Flush() {
	if d.Cancel() {
		d.fn()
	}
}

// fire runs fn for the timer scheduled as gen. A timer that was superseded while
// waiting for the lock leaves the newer one pending and does nothing.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.timer == nil {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()
	d.fn()
}
