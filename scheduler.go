package vfx

import (
	"sync"
	"time"
)

// Scheduler drives the engine at a fixed tick rate with drift
// correction: each deadline advances by exactly one interval rather than
// re-arming after execution, so tick N fires at start + N×interval.
// When the loop falls more than two intervals behind, the deadline
// re-bases to now instead of bursting to catch up.
//
// The scheduler never sleeps or blocks; every tick is a scheduled
// callback on the configured Clock.
type Scheduler struct {
	engine  *Engine
	clk     Clock
	onFrame func(EffectState)

	mu       sync.Mutex
	timer    Timer
	running  bool
	deadline time.Time
}

// NewScheduler creates a scheduler for the given engine. The tick
// interval comes from the engine's configuration.
func NewScheduler(engine *Engine, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		engine: engine,
		clk:    SystemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the tick loop. Calling Start on a running scheduler is a
// no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.deadline = s.clk.Now().Add(s.engine.TickInterval())
	s.armLocked()

	Logger().Info("scheduler started", "interval", s.engine.TickInterval())
}

// Stop halts the tick loop and cancels the pending timer. It is safe to
// call Stop multiple times; a stopped scheduler can be started again.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Running reports whether the tick loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// armLocked schedules the next tick callback. Caller holds s.mu.
func (s *Scheduler) armLocked() {
	wait := s.deadline.Sub(s.clk.Now())
	if wait < 0 {
		wait = 0
	}
	s.timer = s.clk.AfterFunc(wait, s.tick)
}

// tick runs one engine cycle and re-arms with drift correction.
func (s *Scheduler) tick() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}

	now := s.clk.Now()
	s.engine.Tick(now)

	// Advance by exactly one interval; re-base only when hopelessly
	// behind so a stall does not produce a burst of catch-up ticks.
	interval := s.engine.TickInterval()
	s.deadline = s.deadline.Add(interval)
	if now.Sub(s.deadline) > 2*interval {
		s.deadline = now.Add(interval)
	}

	onFrame := s.onFrame
	snapshot := s.engine.State()
	s.armLocked()
	s.mu.Unlock()

	if onFrame != nil {
		onFrame(snapshot)
	}
}
