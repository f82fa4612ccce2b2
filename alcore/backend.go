package alcore

import ierrors "github.com/HuxyUK/openal-soft/internal/errors"

// Backend is the adaptor interface spec.md §4.C describes: alcore knows
// nothing about ALSA, WASAPI, CoreAudio, or PulseAudio directly, only this
// narrow surface, matching the teacher's `audiocore.AudioSource`
// abstraction (`sources/factory.go`) generalized from capture-only to
// bidirectional playback/capture/loopback.
type Backend interface {
	// Name identifies the backend for driver-list matching (spec.md §4.C's
	// ALSOFT_DRIVERS reordering) and diagnostics.
	Name() string

	// Enumerate lists available device specifier strings for the given
	// device type, first entry is the platform default.
	Enumerate(kind DeviceType) ([]string, *ierrors.EnhancedError)

	// Open negotiates the closest supported format to requested and
	// prepares the underlying audio stream without starting it; once the
	// returned handle's Start is called, pull runs each time the backend
	// needs updateSize frames of interleaved output (or, for Capture,
	// captured frames are delivered via the returned handle's Read).
	Open(spec string, kind DeviceType, requested AudioFormat, updateSize, numUpdates int, pull PullFunc) (BackendHandle, *ierrors.EnhancedError)
}

// PullFunc is called by a backend's realtime callback to render one
// update's worth of frames into out (interleaved, requested.SampleType
// width). It must never block or allocate, matching spec.md §5's mixer
// constraints — pull is expected to be, or to wrap, the mixer's render
// entry point.
type PullFunc func(out []byte, frames int)

// BackendHandle is a live stream/device handle returned by Backend.Open.
type BackendHandle interface {
	// Format returns the format the backend actually negotiated, which may
	// differ from what was requested (spec.md §4.F step 1).
	Format() AudioFormat

	// Start/Stop control the underlying stream without releasing it,
	// backing Device Pause/Resume (spec.md §4.D).
	Start() *ierrors.EnhancedError
	Stop() *ierrors.EnhancedError

	// Read pulls captured frames for a Capture-kind handle; unused for
	// Playback/Loopback handles.
	Read(out []byte, frames int) (int, *ierrors.EnhancedError)

	// Close releases the backend resource permanently.
	Close() *ierrors.EnhancedError

	// Disconnected reports whether the backend detected device removal
	// asynchronously (spec.md §8 scenario 6).
	Disconnected() bool
}

// backendFactory constructs a Backend by name, mirroring the teacher's
// `sources/factory.go` switch-on-config-kind shape (spec.md §4.C).
type backendFactory func() Backend

// backendTable is the compile-time list of available backends, ordered by
// default preference. OpenDevice filters it by a driver name list (built by
// ApplyDriverOverride in internal/config from the "drivers" config key);
// an empty list offers every backend in this order.
var backendTable = []backendFactory{
	newMalgoBackend,
	newLoopbackBackend,
	newNullBackend,
}

// AvailableBackends returns freshly constructed Backend instances in
// compile-time table order.
func AvailableBackends() []Backend {
	out := make([]Backend, len(backendTable))
	for i, f := range backendTable {
		out[i] = f()
	}
	return out
}

// SelectBackend returns every backend from AvailableBackends whose Name
// appears in order, in the order the names are listed; names with no
// matching backend are skipped. If order is empty every backend is offered
// in table order. Implements the driver-list walk of spec.md §4.C.
func SelectBackend(order []string) []Backend {
	all := AvailableBackends()
	if len(order) == 0 {
		return all
	}
	byName := make(map[string]Backend, len(all))
	for _, b := range all {
		byName[b.Name()] = b
	}
	out := make([]Backend, 0, len(order))
	for _, name := range order {
		if b, ok := byName[name]; ok {
			out = append(out, b)
		}
	}
	return out
}
