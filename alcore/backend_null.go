package alcore

import (
	"sync"
	"time"

	ierrors "github.com/HuxyUK/openal-soft/internal/errors"
)

// nullBackend discards playback output on a wall-clock ticker and yields
// silence for capture, matching OpenAL Soft's "Null" backend: useful for
// headless tests and as a last-resort fallback in the driver list
// (spec.md §4.C).
type nullBackend struct{}

func newNullBackend() Backend { return &nullBackend{} }

func (b *nullBackend) Name() string { return "null" }

func (b *nullBackend) Enumerate(kind DeviceType) ([]string, *ierrors.EnhancedError) {
	return []string{"Null Device"}, nil
}

func (b *nullBackend) Open(spec string, kind DeviceType, requested AudioFormat, updateSize, numUpdates int, pull PullFunc) (BackendHandle, *ierrors.EnhancedError) {
	h := &nullHandle{format: requested, updateSize: updateSize, pull: pull, stop: make(chan struct{})}
	return h, nil
}

type nullHandle struct {
	mu         sync.Mutex
	format     AudioFormat
	updateSize int
	pull       PullFunc
	stop       chan struct{}
	running    bool
}

func (h *nullHandle) Format() AudioFormat { return h.format }

func (h *nullHandle) Start() *ierrors.EnhancedError {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return nil
	}
	h.running = true
	h.stop = make(chan struct{})
	stop := h.stop
	h.mu.Unlock()

	frameBytes := h.format.SampleType.BytesPerSample() * h.format.ChannelCount()
	scratch := make([]byte, h.updateSize*frameBytes)
	interval := time.Second * time.Duration(h.updateSize) / time.Duration(h.format.Frequency)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				h.pull(scratch, h.updateSize)
			}
		}
	}()
	return nil
}

func (h *nullHandle) Stop() *ierrors.EnhancedError {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running {
		return nil
	}
	close(h.stop)
	h.running = false
	return nil
}

func (h *nullHandle) Read(out []byte, frames int) (int, *ierrors.EnhancedError) {
	for i := range out {
		out[i] = 0
	}
	return frames, nil
}

func (h *nullHandle) Close() *ierrors.EnhancedError {
	return h.Stop()
}

func (h *nullHandle) Disconnected() bool { return false }
