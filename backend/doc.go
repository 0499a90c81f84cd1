// Package backend provides a pluggable render backend abstraction for
// the vfx coordination engine.
//
// A Backend is a vfx.Participant that owns a drawable surface: it
// consumes the broadcast EffectState and renders it. Backends go through
// an explicit lifecycle (see Phase) so hosts can observe capability
// probing, shader compilation, context loss, recovery, and the terminal
// fallen-back condition.
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime:
//
//	import (
//	    _ "github.com/gogpu/vfx/backend/gpu"      // GPU gradient backend
//	    _ "github.com/gogpu/vfx/backend/software" // CPU fallback
//	)
//
// # Backend Selection
//
// Use Default() to get the best available backend, or Get() to request a
// specific backend by name:
//
//	b, err := backend.InitDefault()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Close()
//	engine.Choreographer().Register(b)
//
// When the GPU backend cannot initialize (no adapter, vertex shader
// failure) it reports the error and hosts fall back to the software
// backend; Default() encodes that priority.
//
// # Available Backends
//
//   - "gpu": gradient renderer on gogpu/wgpu with shader fallback ladder,
//     context-loss recovery, and adaptive quality tiers
//   - "software": CPU gradient renderer (always available)
package backend
