package alcore

import (
	"sync"

	ierrors "github.com/HuxyUK/openal-soft/internal/errors"
)

// loopbackBackend implements spec.md's ALC_LOOPBACK_SOFT device type: no
// real audio hardware is touched. RenderSamples drives pull synchronously
// from the caller's goroutine instead of a realtime callback, matching the
// C implementation's "application calls alcRenderSamplesSOFT to pull
// frames on demand" contract (spec.md §4.D, §8 scenario 2).
type loopbackBackend struct{}

func newLoopbackBackend() Backend { return &loopbackBackend{} }

func (b *loopbackBackend) Name() string { return "loopback" }

func (b *loopbackBackend) Enumerate(kind DeviceType) ([]string, *ierrors.EnhancedError) {
	return []string{"OpenAL Soft Loopback"}, nil
}

func (b *loopbackBackend) Open(spec string, kind DeviceType, requested AudioFormat, updateSize, numUpdates int, pull PullFunc) (BackendHandle, *ierrors.EnhancedError) {
	if kind != Loopback {
		return nil, ierrors.New(nil).
			Component("alcore").
			Category(ierrors.CategoryValidation).
			Context("reason", "loopback backend opened for non-loopback device type").
			Build()
	}
	return &loopbackHandle{format: requested, pull: pull}, nil
}

// loopbackHandle never runs its own thread; RenderSamples runs pull on
// the goroutine that calls it on the handle.
type loopbackHandle struct {
	mu      sync.Mutex
	format  AudioFormat
	pull    PullFunc
	stopped bool
}

func (h *loopbackHandle) Format() AudioFormat { return h.format }

func (h *loopbackHandle) Start() *ierrors.EnhancedError {
	h.mu.Lock()
	h.stopped = false
	h.mu.Unlock()
	return nil
}

func (h *loopbackHandle) Stop() *ierrors.EnhancedError {
	h.mu.Lock()
	h.stopped = true
	h.mu.Unlock()
	return nil
}

func (h *loopbackHandle) Read(out []byte, frames int) (int, *ierrors.EnhancedError) {
	return 0, ierrors.New(nil).
		Component("alcore").
		Category(ierrors.CategoryValidation).
		Context("reason", "loopback devices are not capture sources").
		Build()
}

// RenderSamples pulls exactly frames frames of output into out, per
// alcRenderSamplesSOFT semantics; it is exported on the concrete type
// because it is not part of the general BackendHandle contract.
func (h *loopbackHandle) RenderSamples(out []byte, frames int) *ierrors.EnhancedError {
	h.mu.Lock()
	stopped := h.stopped
	h.mu.Unlock()
	if stopped {
		return ierrors.New(nil).
			Component("alcore").
			Category(ierrors.CategoryState).
			Context("reason", "loopback device not started").
			Build()
	}
	h.pull(out, frames)
	return nil
}

func (h *loopbackHandle) Close() *ierrors.EnhancedError { return nil }

func (h *loopbackHandle) Disconnected() bool { return false }
