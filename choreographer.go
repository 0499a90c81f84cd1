package vfx

import (
	"fmt"
	"sync"
	"time"
)

// RegisterResult reports the outcome of a Register call.
type RegisterResult struct {
	// Success is false when registration was rejected (duplicate or
	// invalid name); the registry is left untouched in that case.
	Success bool

	// ErrorMessage explains a rejection.
	ErrorMessage string

	// ContributionReceived is true when the initial Contribution call
	// made on successful registration yielded a usable proposal. A false
	// value with Success true signals the partial outcome: the
	// participant is registered, its first contribution failed.
	ContributionReceived bool
}

// BroadcastReport summarizes one broadcast or event dispatch cycle.
type BroadcastReport struct {
	// ParticipantsNotified is the number of participants that received
	// the delivery without error.
	ParticipantsNotified int

	// ErrorCount is the number of participants whose callback failed or
	// panicked. Failures never prevent delivery to the remainder.
	ErrorCount int

	// Duration is the wall time the cycle took.
	Duration time.Duration
}

// member is one registered participant plus its pending contribution.
type member struct {
	participant Participant
	pending     Contribution
	hasPending  bool
}

// Choreographer owns the participant registry, the per-tick contribution
// collection, the periodic state broadcast, and the out-of-band event
// dispatch.
//
// Delivery order is stable registration order. All participant callbacks
// are panic-isolated: one misbehaving participant never prevents
// delivery to the others and never faults the engine loop.
type Choreographer struct {
	mu     sync.Mutex
	order  []string
	byName map[string]*member
}

// NewChoreographer creates an empty choreographer.
func NewChoreographer() *Choreographer {
	return &Choreographer{
		byName: make(map[string]*member),
	}
}

// Register adds a participant. Duplicate or empty names are rejected
// without mutating the registry. On success the participant's
// Contribution method is called once immediately; a failure there is
// isolated and surfaces as ContributionReceived=false.
func (c *Choreographer) Register(p Participant) RegisterResult {
	if p == nil {
		return RegisterResult{ErrorMessage: "participant is nil"}
	}
	name := p.Name()
	if name == "" {
		return RegisterResult{ErrorMessage: "participant name is empty"}
	}

	c.mu.Lock()
	if _, exists := c.byName[name]; exists {
		c.mu.Unlock()
		return RegisterResult{
			ErrorMessage: fmt.Sprintf("participant %q already registered", name),
		}
	}
	m := &member{participant: p}
	c.byName[name] = m
	c.order = append(c.order, name)
	c.mu.Unlock()

	result := RegisterResult{Success: true}

	contribution, err := safeContribution(p)
	if err != nil {
		Logger().Warn("initial contribution failed",
			"participant", name, "error", err)
	} else {
		c.mu.Lock()
		// Registration may have been raced by Unregister; tolerate it.
		if m2, ok := c.byName[name]; ok {
			m2.pending = contribution
			m2.hasPending = !contribution.IsZero()
		}
		c.mu.Unlock()
		result.ContributionReceived = !contribution.IsZero()
	}

	Logger().Info("participant registered",
		"participant", name, "contribution", result.ContributionReceived)
	return result
}

// Unregister removes a participant by name. It is idempotent: removing
// an unknown name is a no-op. Unregistering mid-cycle never faults an
// in-progress broadcast.
func (c *Choreographer) Unregister(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byName[name]; !ok {
		return
	}
	delete(c.byName, name)
	for i, n := range c.order {
		if n == name {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// UpdateContribution overlays a partial proposal onto the named
// participant's pending contribution, last-write-wins per field. Returns
// false when the name is not registered.
func (c *Choreographer) UpdateContribution(name string, partial Contribution) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.byName[name]
	if !ok {
		return false
	}
	m.pending = m.pending.Overlay(partial)
	m.hasPending = !m.pending.IsZero()
	return true
}

// Count returns the number of registered participants.
func (c *Choreographer) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// Names returns the participant names in stable registration order.
func (c *Choreographer) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, len(c.order))
	copy(names, c.order)
	return names
}

// collect polls every participant for a fresh contribution and merges it
// over any pending one, returning the proposals in registration order.
// Called by the engine before each blend; failures contribute nothing.
func (c *Choreographer) collect() []Contribution {
	for _, m := range c.snapshot() {
		fresh, err := safeContribution(m.participant)
		if err != nil {
			Logger().Debug("contribution poll failed",
				"participant", m.participant.Name(), "error", err)
			continue
		}
		if fresh.IsZero() {
			continue
		}
		c.UpdateContribution(m.participant.Name(), fresh)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Contribution, 0, len(c.order))
	for _, name := range c.order {
		m := c.byName[name]
		if m.hasPending {
			out = append(out, m.pending)
		}
	}
	return out
}

// BroadcastState delivers the state snapshot to every participant in
// stable registration order. A failing participant is counted and
// skipped; delivery to the remainder continues.
func (c *Choreographer) BroadcastState(state EffectState) BroadcastReport {
	start := time.Now()
	report := BroadcastReport{}

	for _, m := range c.snapshot() {
		if err := safeNotify(m.participant, state); err != nil {
			report.ErrorCount++
			Logger().Warn("state broadcast failed",
				"participant", m.participant.Name(), "error", err)
			continue
		}
		report.ParticipantsNotified++
	}

	report.Duration = time.Since(start)
	return report
}

// ChoreographEvent dispatches a discrete out-of-band event to every
// participant, independent of the periodic tick, with the same
// per-participant isolation as BroadcastState.
func (c *Choreographer) ChoreographEvent(event EventType, payload any) BroadcastReport {
	start := time.Now()
	report := BroadcastReport{}

	for _, m := range c.snapshot() {
		if err := safeEvent(m.participant, event, payload); err != nil {
			report.ErrorCount++
			Logger().Warn("event dispatch failed",
				"participant", m.participant.Name(), "event", event, "error", err)
			continue
		}
		report.ParticipantsNotified++
	}

	report.Duration = time.Since(start)
	return report
}

// snapshot returns the members in registration order without holding the
// lock during callbacks, so Unregister from inside a callback cannot
// deadlock or fault the cycle.
func (c *Choreographer) snapshot() []*member {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*member, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.byName[name])
	}
	return out
}

// safeContribution calls p.Contribution with panic recovery.
func safeContribution(p Participant) (contribution Contribution, err error) {
	defer func() {
		if r := recover(); r != nil {
			contribution = Contribution{}
			err = fmt.Errorf("%w: panic: %v", ErrParticipantCallback, r)
		}
	}()
	contribution, err = p.Contribution()
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrParticipantCallback, err)
	}
	return contribution, err
}

// safeNotify calls p.OnStateUpdate with panic recovery.
func safeNotify(p Participant, state EffectState) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrParticipantCallback, r)
		}
	}()
	p.OnStateUpdate(state)
	return nil
}

// safeEvent calls p.OnEvent with panic recovery.
func safeEvent(p Participant, event EventType, payload any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrParticipantCallback, r)
		}
	}()
	p.OnEvent(event, payload)
	return nil
}
