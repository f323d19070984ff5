package mdlive

import (
	"testing"
	"time"
)

func TestPassSchedulerCoalescesRequests(t *testing.T) {
	clk := newManualClock()
	runs := 0
	s := &passScheduler{clock: clk, interval: 80 * time.Millisecond, run: func() { runs++ }}
	s.request()
	s.request()
	s.request()
	if runs != 0 {
		t.Fatalf("throttle fired early: %d runs", runs)
	}
	clk.Advance(80 * time.Millisecond)
	if runs != 1 {
		t.Fatalf("expected one coalesced run, got %d", runs)
	}
	clk.Advance(time.Second)
	if runs != 1 {
		t.Fatalf("timer fired again without a request: %d runs", runs)
	}
}

func TestPassSchedulerFlushCancelsPendingTimer(t *testing.T) {
	clk := newManualClock()
	runs := 0
	s := &passScheduler{clock: clk, interval: 80 * time.Millisecond, run: func() { runs++ }}
	s.request()
	s.flush()
	if runs != 1 {
		t.Fatalf("flush did not run synchronously: %d runs", runs)
	}
	clk.Advance(time.Second)
	if runs != 1 {
		t.Fatalf("canceled timer still fired: %d runs", runs)
	}
}

func TestPassSchedulerRequestAfterFire(t *testing.T) {
	clk := newManualClock()
	runs := 0
	s := &passScheduler{clock: clk, interval: 80 * time.Millisecond, run: func() { runs++ }}
	s.request()
	clk.Advance(80 * time.Millisecond)
	s.request()
	if s.isPending() != true {
		t.Fatalf("expected pending after new request")
	}
	clk.Advance(80 * time.Millisecond)
	if runs != 2 {
		t.Fatalf("expected two runs, got %d", runs)
	}
}

func TestPassSchedulerStop(t *testing.T) {
	clk := newManualClock()
	runs := 0
	s := &passScheduler{clock: clk, interval: 80 * time.Millisecond, run: func() { runs++ }}
	s.request()
	s.stop()
	clk.Advance(time.Second)
	s.request()
	s.flush()
	if runs != 0 {
		t.Fatalf("stopped scheduler ran %d times", runs)
	}
}

func TestSubSchedulerDebounceRestarts(t *testing.T) {
	clk := newManualClock()
	runs := 0
	s := &subScheduler{clock: clk, interval: 300 * time.Millisecond, run: func() { runs++ }}
	s.restart()
	clk.Advance(200 * time.Millisecond)
	s.restart()
	clk.Advance(200 * time.Millisecond)
	if runs != 0 {
		t.Fatalf("debounce fired before a full quiet interval: %d runs", runs)
	}
	clk.Advance(100 * time.Millisecond)
	if runs != 1 {
		t.Fatalf("expected one firing, got %d", runs)
	}
}

func TestSubSchedulerReentrancyGuard(t *testing.T) {
	clk := newManualClock()
	runs := 0
	s := &subScheduler{clock: clk, interval: 300 * time.Millisecond}
	s.run = func() {
		runs++
		// a reentrant firing must be a no-op
		s.fire()
	}
	s.restart()
	clk.Advance(300 * time.Millisecond)
	if runs != 1 {
		t.Fatalf("reentrant firing not guarded: %d runs", runs)
	}
}

func TestSubSchedulerFlushRunsImmediately(t *testing.T) {
	clk := newManualClock()
	runs := 0
	s := &subScheduler{clock: clk, interval: 300 * time.Millisecond, run: func() { runs++ }}
	s.restart()
	s.flush()
	if runs != 1 {
		t.Fatalf("flush did not fire: %d runs", runs)
	}
	clk.Advance(time.Second)
	if runs != 1 {
		t.Fatalf("canceled debounce timer still fired: %d runs", runs)
	}
}
