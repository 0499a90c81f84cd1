package vfx

import "errors"

// Error categories raised inside the engine loop. Both are caught at
// their origin, logged, and degraded; they never escape Tick.
var (
	// ErrProviderRead wraps a failed or panicking signal-provider read.
	// The engine keeps the last good sample when this occurs.
	ErrProviderRead = errors.New("vfx: provider read failed")

	// ErrParticipantCallback wraps a failed or panicking participant
	// callback. The offending participant is isolated; delivery to the
	// remaining participants continues.
	ErrParticipantCallback = errors.New("vfx: participant callback failed")
)
