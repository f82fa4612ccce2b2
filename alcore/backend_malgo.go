package alcore

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	ierrors "github.com/HuxyUK/openal-soft/internal/errors"
)

// malgoBackend is the real cross-platform backend adaptor, grounded on
// sources/malgo/device.go and malgo.go's getBackendForPlatform/
// EnumerateDevices/device-open shape (spec.md §4.C).
type malgoBackend struct{}

func newMalgoBackend() Backend { return &malgoBackend{} }

func (b *malgoBackend) Name() string { return "malgo" }

func platformBackend() (malgo.Backend, *ierrors.EnhancedError) {
	switch runtime.GOOS {
	case "linux":
		return malgo.BackendAlsa, nil
	case "windows":
		return malgo.BackendWasapi, nil
	case "darwin":
		return malgo.BackendCoreaudio, nil
	default:
		return malgo.BackendNull, ierrors.New(nil).
			Component("alcore").
			Category(ierrors.CategoryBackend).
			Context("os", runtime.GOOS).
			Context("reason", "unsupported operating system").
			Build()
	}
}

func (b *malgoBackend) Enumerate(kind DeviceType) ([]string, *ierrors.EnhancedError) {
	backend, cerr := platformBackend()
	if cerr != nil {
		return nil, cerr
	}
	ctx, err := malgo.InitContext([]malgo.Backend{backend}, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, ierrors.New(err).
			Component("alcore").
			Category(ierrors.CategoryBackend).
			Context("operation", "init_context").
			Build()
	}
	defer func() { _ = ctx.Uninit() }()

	deviceType := malgo.Playback
	if kind == Capture {
		deviceType = malgo.Capture
	}
	infos, err := ctx.Devices(deviceType)
	if err != nil {
		return nil, ierrors.New(err).
			Component("alcore").
			Category(ierrors.CategoryBackend).
			Context("operation", "enumerate_devices").
			Build()
	}
	out := make([]string, 0, len(infos))
	for i := range infos {
		out = append(out, infos[i].Name())
	}
	return out, nil
}

func (b *malgoBackend) Open(spec string, kind DeviceType, requested AudioFormat, updateSize, numUpdates int, pull PullFunc) (BackendHandle, *ierrors.EnhancedError) {
	backend, cerr := platformBackend()
	if cerr != nil {
		return nil, cerr
	}
	mctx, err := malgo.InitContext([]malgo.Backend{backend}, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, ierrors.New(err).
			Component("alcore").
			Category(ierrors.CategoryBackend).
			Context("operation", "init_context").
			Build()
	}

	deviceType := malgo.Playback
	if kind == Capture {
		deviceType = malgo.Capture
	}
	deviceConfig := malgo.DefaultDeviceConfig(deviceType)
	deviceConfig.SampleRate = uint32(requested.Frequency)
	deviceConfig.PeriodSizeInFrames = uint32(updateSize)
	deviceConfig.Periods = uint32(numUpdates)

	channels := uint32(requested.ChannelCount())
	sampleFmt := malgoFormat(requested.SampleType)
	if kind == Capture {
		deviceConfig.Capture.Channels = channels
		deviceConfig.Capture.Format = sampleFmt
	} else {
		deviceConfig.Playback.Channels = channels
		deviceConfig.Playback.Format = sampleFmt
	}

	h := &malgoHandle{format: requested}

	var callbacks malgo.DeviceCallbacks
	if kind == Capture {
		callbacks.Data = func(_, in []byte, frameCount uint32) {
			h.deliverCapture(in, int(frameCount))
		}
	} else {
		callbacks.Data = func(out, _ []byte, frameCount uint32) {
			pull(out, int(frameCount))
		}
	}
	callbacks.Stop = func() { h.disconnected.Store(true) }

	dev, err := malgo.InitDevice(mctx.Context, deviceConfig, callbacks)
	if err != nil {
		_ = mctx.Uninit()
		return nil, ierrors.New(err).
			Component("alcore").
			Category(ierrors.CategoryBackend).
			Context("operation", "init_device").
			Context("spec", spec).
			Build()
	}
	h.ctx = mctx
	h.dev = dev
	return h, nil
}

func malgoFormat(t SampleType) malgo.FormatType {
	switch t {
	case SampleUByte:
		return malgo.FormatU8
	case SampleShort:
		return malgo.FormatS16
	case SampleInt:
		return malgo.FormatS32
	case SampleFloat:
		return malgo.FormatF32
	default:
		return malgo.FormatS16
	}
}

type malgoHandle struct {
	mu           sync.Mutex
	ctx          *malgo.AllocatedContext
	dev          *malgo.Device
	format       AudioFormat
	disconnected atomic.Bool

	captureMu  sync.Mutex
	captureBuf []byte
}

func (h *malgoHandle) Format() AudioFormat { return h.format }

func (h *malgoHandle) Start() *ierrors.EnhancedError {
	if err := h.dev.Start(); err != nil {
		return ierrors.New(err).Component("alcore").Category(ierrors.CategoryBackend).Build()
	}
	return nil
}

func (h *malgoHandle) Stop() *ierrors.EnhancedError {
	if err := h.dev.Stop(); err != nil {
		return ierrors.New(err).Component("alcore").Category(ierrors.CategoryBackend).Build()
	}
	return nil
}

func (h *malgoHandle) deliverCapture(in []byte, frames int) {
	h.captureMu.Lock()
	h.captureBuf = append(h.captureBuf, in[:frames*h.format.SampleType.BytesPerSample()*h.format.ChannelCount()]...)
	h.captureMu.Unlock()
}

func (h *malgoHandle) Read(out []byte, frames int) (int, *ierrors.EnhancedError) {
	h.captureMu.Lock()
	defer h.captureMu.Unlock()
	n := copy(out, h.captureBuf)
	h.captureBuf = h.captureBuf[n:]
	frameBytes := h.format.SampleType.BytesPerSample() * h.format.ChannelCount()
	if frameBytes == 0 {
		return 0, nil
	}
	return n / frameBytes, nil
}

func (h *malgoHandle) Close() *ierrors.EnhancedError {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.dev != nil {
		h.dev.Uninit()
	}
	if h.ctx != nil {
		_ = h.ctx.Uninit()
	}
	return nil
}

func (h *malgoHandle) Disconnected() bool { return h.disconnected.Load() }
