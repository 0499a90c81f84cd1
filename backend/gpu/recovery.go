package gpu

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/gogpu/vfx"
)

// RecoveryPolicy controls what happens when the retry budget runs out.
type RecoveryPolicy uint8

const (
	// PolicyFallback gives up after the retry budget and signals
	// permanent fallback exactly once. This is the default.
	PolicyFallback RecoveryPolicy = iota

	// PolicyPersistent keeps retrying at the backoff ceiling forever.
	// Suited to kiosk-style hosts where a degraded display beats none.
	PolicyPersistent
)

// String returns a human-readable policy name.
func (p RecoveryPolicy) String() string {
	if p == PolicyPersistent {
		return "persistent"
	}
	return "fallback"
}

// Recovery schedule parameters. RandomizationFactor is zero so the
// schedule is reproducible: 100ms, 200ms, 400ms, ... capped at 3.2s.
const (
	recoveryInitialInterval = 100 * time.Millisecond
	recoveryMaxInterval     = 3200 * time.Millisecond
	maxRecoveryAttempts     = 5
)

// recovery schedules context re-acquisition attempts after a loss.
// Attempts run on the owner's clock; nothing here blocks.
type recovery struct {
	clk      vfx.Clock
	policy   RecoveryPolicy
	attempt  func(attempt int) bool
	fallback func()

	mu       sync.Mutex
	bo       *backoff.ExponentialBackOff
	timer    vfx.Timer
	attempts int
	active   bool
	fellBack bool
}

func newRecovery(clk vfx.Clock, policy RecoveryPolicy, attempt func(int) bool, fallback func()) *recovery {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = recoveryInitialInterval
	bo.MaxInterval = recoveryMaxInterval
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0
	bo.Reset()

	return &recovery{
		clk:      clk,
		policy:   policy,
		attempt:  attempt,
		fallback: fallback,
		bo:       bo,
	}
}

// OnLoss starts the recovery schedule. A loss signal while recovery is
// already running is absorbed; the schedule in flight continues.
func (r *recovery) OnLoss() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fellBack || r.active {
		return
	}
	r.active = true
	r.attempts = 0
	r.bo.Reset()
	r.scheduleLocked(r.bo.NextBackOff())
}

// OnRestored short-circuits the backoff: the platform says the context
// is back, so the pending wait is cancelled and an attempt runs now.
func (r *recovery) OnRestored() {
	r.mu.Lock()
	if !r.active || r.fellBack {
		r.mu.Unlock()
		return
	}
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.mu.Unlock()
	r.run()
}

// Active reports whether a recovery schedule is in flight.
func (r *recovery) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Stop cancels any pending attempt. Used on teardown.
func (r *recovery) Stop() {
	r.mu.Lock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.active = false
	r.mu.Unlock()
}

// scheduleLocked arms the next attempt. Caller holds r.mu.
func (r *recovery) scheduleLocked(wait time.Duration) {
	if wait == backoff.Stop {
		wait = recoveryMaxInterval
	}
	r.timer = r.clk.AfterFunc(wait, r.run)
}

// run executes one recovery attempt and decides what comes next.
func (r *recovery) run() {
	r.mu.Lock()
	if !r.active || r.fellBack {
		r.mu.Unlock()
		return
	}
	r.attempts++
	n := r.attempts
	r.timer = nil
	r.mu.Unlock()

	if r.attempt(n) {
		r.mu.Lock()
		r.active = false
		r.attempts = 0
		r.bo.Reset()
		r.mu.Unlock()
		return
	}

	r.mu.Lock()
	if !r.active || r.fellBack {
		r.mu.Unlock()
		return
	}

	if n >= maxRecoveryAttempts {
		if r.policy == PolicyFallback {
			// Exactly one fallback signal, ever.
			r.fellBack = true
			r.active = false
			r.mu.Unlock()
			vfx.Logger().Error("context recovery budget exhausted, falling back",
				"attempts", n)
			r.fallback()
			return
		}
		// Persistent hosts keep retrying at the ceiling.
		vfx.Logger().Warn("context recovery budget exhausted, persisting",
			"attempts", n, "interval", recoveryMaxInterval)
		r.scheduleLocked(recoveryMaxInterval)
		r.mu.Unlock()
		return
	}

	r.scheduleLocked(r.bo.NextBackOff())
	r.mu.Unlock()
}
