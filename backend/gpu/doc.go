// Package gpu provides the resilient GPU gradient backend on gogpu/wgpu.
//
// The backend is a vfx participant that renders the coordinated
// animation state as a flowing gradient. It is built to survive hostile
// environments:
//
//   - Capability probe: a required adapter and limits are tested first;
//     a reduced-capability probe runs before giving up, and total failure
//     reports fallback instead of erroring the host.
//   - Shader fallback ladder: four fragment tiers (full, simplified,
//     basic, emergency) are compiled in order and the first success wins.
//     The vertex stage has no fallback; its failure aborts initialization.
//   - Context-loss recovery: on a loss signal every handle is invalidated
//     and recovery retries on an exponential backoff schedule, bounded by
//     a retry budget and governed by a persistence policy.
//   - Adaptive quality: a discrete tier ladder maps deterministically to
//     frame-rate caps, texture update intervals, resolution scale, and
//     the enabled feature set.
//   - Texture resilience: gradient lookup texture rebuilds are throttled
//     and debounced, and a missing texture at frame time synthesizes an
//     emergency replacement rather than presenting an undefined surface.
//
// All timing (frame throttle, rebuild debounce, recovery backoff) is
// expressed through the vfx.Clock so nothing blocks and tests run
// deterministically.
package gpu
