package mdlive

import (
	"sync"
	"time"
)

// passScheduler is a coalescing trailing-edge throttle for full render
// passes. While a pass is pending no second timer is armed; the pass that
// eventually fires always reads the latest source. flush cancels any pending
// timer and runs the pass immediately, which is what end-of-stream needs so
// stale output is never left displayed behind a timer.
//
// The mutex guards only scheduler state and is never held while run
// executes; run serializes tree access on the Renderer's own lock.
type passScheduler struct {
	mu       sync.Mutex
	clock    Clock
	interval time.Duration
	run      func()
	timer    Timer
	pending  bool
	stopped  bool
}

func (s *passScheduler) request() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.pending {
		return
	}
	s.pending = true
	s.timer = s.clock.AfterFunc(s.interval, s.fire)
}

func (s *passScheduler) fire() {
	s.mu.Lock()
	if s.stopped || !s.pending {
		s.mu.Unlock()
		return
	}
	s.pending = false
	s.timer = nil
	s.mu.Unlock()
	s.run()
}

func (s *passScheduler) flush() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = false
	s.mu.Unlock()
	s.run()
}

func (s *passScheduler) isPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

func (s *passScheduler) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = false
}

// subScheduler is a trailing debounce for expensive sub-render work. Every
// completed pass restarts the timer, so sub-rendering waits for a lull in the
// stream. The firing flag guards against reentrant firings; idempotence
// across firings comes from the materialized markers on the nodes themselves,
// not from timing.
type subScheduler struct {
	mu       sync.Mutex
	clock    Clock
	interval time.Duration
	run      func()
	timer    Timer
	firing   bool
	stopped  bool
}

func (s *subScheduler) restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = s.clock.AfterFunc(s.interval, s.fire)
}

func (s *subScheduler) fire() {
	s.mu.Lock()
	if s.stopped || s.firing {
		s.mu.Unlock()
		return
	}
	s.firing = true
	s.mu.Unlock()
	s.run()
	s.mu.Lock()
	s.firing = false
	s.mu.Unlock()
}

// flush runs the debounced work immediately, canceling any pending timer.
func (s *subScheduler) flush() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	s.fire()
}

func (s *subScheduler) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
