package exam

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerCoalesces(t *testing.T) {
	var calls atomic.Int32
	fired := make(chan struct{}, 4)
	d := NewDebouncer(30*time.Millisecond, func() {
		calls.Add(1)
		fired <- struct{}{}
	})

	for range 5 {
		d.Trigger()
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("debounced call never ran")
	}
	time.Sleep(60 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestDebouncerCancel(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(20*time.Millisecond, func() { calls.Add(1) })

	if d.Cancel() {
		t.Error("Cancel with nothing pending reported true")
	}
	d.Trigger()
	if !d.Cancel() {
		t.Error("Cancel with a pending call reported false")
	}
	time.Sleep(50 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("cancelled call ran %d times", n)
	}
}

func TestDebouncerFlush(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(time.Hour, func() { calls.Add(1) })

	d.Flush()
	if n := calls.Load(); n != 0 {
		t.Errorf("Flush with nothing pending ran fn %d times", n)
	}

	d.Trigger()
	d.Flush()
	if n := calls.Load(); n != 1 {
		t.Errorf("calls after Flush = %d, want 1", n)
	}
	d.Flush()
	if n := calls.Load(); n != 1 {
		t.Errorf("second Flush ran fn again: %d", n)
	}
}

func TestDebouncerStaleFireKeepsPendingCall(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(time.Hour, func() { calls.Add(1) })

	d.Trigger()
	d.mu.Lock()
	stale := d.gen
	d.mu.Unlock()
	d.Trigger()

	// The first timer fired just before the second Trigger stopped it.
	d.fire(stale)
	if n := calls.Load(); n != 0 {
		t.Fatalf("superseded timer ran fn %d times", n)
	}

	d.Flush()
	if n := calls.Load(); n != 1 {
		t.Errorf("calls after Flush = %d, want 1", n)
	}
}

func TestDebouncerFlushClaimsFiredTimer(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(time.Hour, func() { calls.Add(1) })

	d.Trigger()
	d.mu.Lock()
	current := d.gen
	d.mu.Unlock()

	// Flush wins the lock against a timer that has already fired.
	d.Flush()
	d.fire(current)
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want exactly 1", n)
	}
}
