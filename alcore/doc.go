// Package alcore implements the device/context lifecycle, attribute
// negotiation, and concurrent update-commit protocol that sits between an
// application's API calls and a real-time mixing callback.
//
// It does not implement a mixing/DSP algorithm, an HRTF convolution engine,
// or a wire-format C API layer: those are external collaborators consumed
// through narrow interfaces (Renderer, Backend, HRTFSource). What it does
// own is the hard part: multiple mutable object graphs reachable both from
// arbitrary caller goroutines and from one real-time backend callback that
// must never block or allocate, a format-negotiation algorithm
// (UpdateDeviceParams) that re-plumbs a running device without tearing
// surviving playback, and a deferred/atomic commit protocol that publishes
// a batch of property writes to the mixer in exactly one tick.
package alcore
