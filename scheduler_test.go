package vfx_test

import (
	"testing"
	"time"

	"github.com/gogpu/vfx"
	"github.com/gogpu/vfx/internal/clocktest"
)

func newTestScheduler(t *testing.T, opts ...vfx.SchedulerOption) (*vfx.Engine, *vfx.Scheduler, *clocktest.Fake) {
	t.Helper()
	clk := clocktest.NewFake(time.Unix(0, 0))
	engine := vfx.NewEngine(vfx.WithTickInterval(10 * time.Millisecond))
	opts = append([]vfx.SchedulerOption{vfx.WithClock(clk)}, opts...)
	sched := vfx.NewScheduler(engine, opts...)
	t.Cleanup(sched.Stop)
	return engine, sched, clk
}

func TestSchedulerFixedCadence(t *testing.T) {
	engine, sched, clk := newTestScheduler(t)

	sched.Start()
	if !sched.Running() {
		t.Fatal("scheduler not running after Start")
	}

	clk.Advance(100 * time.Millisecond)
	if got := engine.TickCount(); got != 10 {
		t.Errorf("TickCount after 100ms at 10ms interval = %d, want 10", got)
	}

	clk.Advance(55 * time.Millisecond)
	if got := engine.TickCount(); got != 15 {
		t.Errorf("TickCount after 155ms = %d, want 15", got)
	}
}

func TestSchedulerStartIdempotent(t *testing.T) {
	engine, sched, clk := newTestScheduler(t)

	sched.Start()
	sched.Start()
	sched.Start()

	clk.Advance(30 * time.Millisecond)
	if got := engine.TickCount(); got != 3 {
		t.Errorf("TickCount = %d, want 3 (duplicate Start must not double-tick)", got)
	}
}

func TestSchedulerStopCancelsPending(t *testing.T) {
	engine, sched, clk := newTestScheduler(t)

	sched.Start()
	clk.Advance(25 * time.Millisecond)
	sched.Stop()

	if sched.Running() {
		t.Error("Running after Stop")
	}
	before := engine.TickCount()
	clk.Advance(time.Second)
	if engine.TickCount() != before {
		t.Errorf("ticks continued after Stop: %d -> %d", before, engine.TickCount())
	}
	if clk.PendingTimers() != 0 {
		t.Errorf("pending timers after Stop = %d, want 0", clk.PendingTimers())
	}
}

func TestSchedulerRestart(t *testing.T) {
	engine, sched, clk := newTestScheduler(t)

	sched.Start()
	clk.Advance(20 * time.Millisecond)
	sched.Stop()
	sched.Start()
	clk.Advance(20 * time.Millisecond)

	if got := engine.TickCount(); got != 4 {
		t.Errorf("TickCount = %d, want 4", got)
	}
}

func TestSchedulerFrameCallback(t *testing.T) {
	var frames []vfx.EffectState
	_, sched, clk := newTestScheduler(t, vfx.WithFrameCallback(func(s vfx.EffectState) {
		frames = append(frames, s)
	}))

	sched.Start()
	clk.Advance(30 * time.Millisecond)

	if len(frames) != 3 {
		t.Fatalf("frame callbacks = %d, want 3", len(frames))
	}
	for i := 1; i < len(frames); i++ {
		if !frames[i].Timestamp.After(frames[i-1].Timestamp) {
			t.Errorf("frame %d timestamp not increasing", i)
		}
	}
}

// offsetClock lets a test inject a sudden jump between what the timers
// fire on and what Now reports, simulating a long stall (GC pause,
// suspended tab) discovered mid-loop.
type offsetClock struct {
	*clocktest.Fake
	offset *time.Duration
}

func (c offsetClock) Now() time.Time {
	return c.Fake.Now().Add(*c.offset)
}

func TestSchedulerRebasesWhenBehind(t *testing.T) {
	fake := clocktest.NewFake(time.Unix(0, 0))
	var offset time.Duration
	clk := offsetClock{Fake: fake, offset: &offset}

	engine := vfx.NewEngine(vfx.WithTickInterval(10 * time.Millisecond))
	sched := vfx.NewScheduler(engine, vfx.WithClock(clk))
	t.Cleanup(sched.Stop)

	sched.Start()
	fake.Advance(10 * time.Millisecond)
	if got := engine.TickCount(); got != 1 {
		t.Fatalf("TickCount = %d, want 1", got)
	}

	// The loop wakes up half a second behind its deadline. Re-basing
	// means one tick per interval from here on; without it every re-arm
	// would compute a negative wait and burst to catch up. The stalled
	// tick rebases and fires at 20ms, then one tick per 10ms through
	// 60ms: five more ticks, not fifty.
	offset = 500 * time.Millisecond
	fake.Advance(50 * time.Millisecond)

	if got := engine.TickCount(); got != 6 {
		t.Errorf("TickCount after stall = %d, want 6 (no catch-up burst)", got)
	}
}
