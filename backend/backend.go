package backend

import (
	"errors"
	"fmt"

	"github.com/gogpu/vfx"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")

	// ErrDestroyed is returned when operations are called after Close.
	ErrDestroyed = errors.New("backend: destroyed")

	// ErrContextLost marks a transient GPU context loss. Recovery is
	// retried with exponential backoff.
	ErrContextLost = errors.New("backend: gpu context lost")

	// ErrResourceCreation marks a failed texture or buffer creation.
	// The backend retries, then degrades.
	ErrResourceCreation = errors.New("backend: resource creation failed")
)

// InitError reports a failed backend initialization (capability probe or
// shader compilation). It is reported upward and triggers fallback; it is
// never fatal to the host process.
type InitError struct {
	// Stage names the initialization step that failed
	// (e.g. "capability-probe", "vertex-shader").
	Stage string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *InitError) Error() string {
	return fmt.Sprintf("backend: initialization failed at %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying cause.
func (e *InitError) Unwrap() error { return e.Err }

// Backend is the interface every render backend implements. It extends
// the participant contract with an explicit lifecycle: hosts initialize
// a backend, register it with the choreographer, and observe its Phase.
type Backend interface {
	vfx.Participant

	// Init takes the backend from PhaseUninitialized through capability
	// probing and compilation to PhaseReady. A returned *InitError means
	// the backend cannot run and the host should use the next backend in
	// priority order.
	Init() error

	// Close tears the backend down, cancelling all pending timers and
	// releasing every owned resource. The backend ends in PhaseDestroyed
	// and must not be used afterwards.
	Close()

	// Phase returns the current lifecycle phase.
	Phase() Phase
}
