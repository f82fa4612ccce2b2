package alcore

import (
	"sync"

	"github.com/google/uuid"

	"github.com/HuxyUK/openal-soft/internal/config"
	ierrors "github.com/HuxyUK/openal-soft/internal/errors"
	"github.com/HuxyUK/openal-soft/internal/logging"
	"github.com/HuxyUK/openal-soft/internal/metrics"
)

// Device is the process-visible handle spec.md §4.D describes: one open
// backend stream plus every Context created against it. All fields below
// are producer-thread state; the mixer thread only ever touches the
// Format/UpdateSize/NumUpdates it captured at the last successful
// UpdateDeviceParams and the voice pools of its contexts.
type Device struct {
	DiagnosticID string // uuid, for logs/metrics labels only

	mu sync.Mutex

	Specifier string
	Type      DeviceType
	backend   Backend
	handle    BackendHandle

	Format     AudioFormat
	UpdateSize int
	NumUpdates int

	contexts []*Context

	clock *deviceClock
	errs  errorLatch

	connected bool
	paused    bool
	capturing bool

	hrtf *hrtfResolver

	cfg    *config.Global
	devCfg *config.DeviceOverride
}

// SetConfig attaches the resolved config-file values that CreateContext and
// ResetDevice thread into UpdateDeviceParams (spec.md §6's per-device
// override chain over §4.F step 3). Grounded on alc.cpp's pattern of
// re-reading ConfigValueXxx(devname, ...) fresh at every device reset:
// callers are expected to call SetConfig again after a config reload,
// before the next reset, rather than this module watching a file itself.
func (d *Device) SetConfig(global *config.Global, override *config.DeviceOverride) {
	d.mu.Lock()
	d.cfg = global
	d.devCfg = override
	d.mu.Unlock()
}

// resolvedConfig returns the config pair last installed by SetConfig, for
// UpdateDeviceParams to read under its own call (not d.mu, which
// UpdateDeviceParams does not hold).
func (d *Device) resolvedConfig() (*config.Global, *config.DeviceOverride) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg, d.devCfg
}

// ClockNanos implements alcGetInteger64vSOFT's ALC_DEVICE_CLOCK_SOFT query:
// the device clock extrapolated from the last committed sample count
// (alc.cpp:3174-3220 computes basecount + samplecount/frequency; this
// module's deviceClock.NowNanos does the equivalent in nanoseconds).
func (d *Device) ClockNanos() int64 {
	d.mu.Lock()
	clock := d.clock
	d.mu.Unlock()
	if clock == nil {
		return 0
	}
	return clock.NowNanos()
}

// LatencyNanos implements alcGetInteger64vSOFT's ALC_DEVICE_LATENCY_SOFT
// query, approximated as the buffered duration of the device's update
// queue (alc.cpp:3221-3260 reports the backend's fixed reported latency;
// this module has no per-backend latency report, so it uses the
// numUpdates*updateSize/frequency size of the buffer it itself manages).
func (d *Device) LatencyNanos() int64 {
	d.mu.Lock()
	frequency := d.Format.Frequency
	updateSize := d.UpdateSize
	numUpdates := d.NumUpdates
	d.mu.Unlock()
	if frequency == 0 {
		return 0
	}
	totalFrames := int64(updateSize) * int64(numUpdates)
	return totalFrames * 1_000_000_000 / int64(frequency)
}

// HRTFSpecifierAt implements alcGetStringiSOFT's ALC_HRTF_SPECIFIER_SOFT
// query: alc.cpp indexes device->HrtfList by the caller-supplied index,
// not a general device-name list (that's alcGetString's job).
func (d *Device) HRTFSpecifierAt(index int) (string, bool) {
	d.mu.Lock()
	resolver := d.hrtf
	frequency := d.Format.Frequency
	d.mu.Unlock()
	if resolver == nil || index < 0 {
		return "", false
	}
	datasets, err := resolver.enumerate(frequency)
	if err != nil || index >= len(datasets) {
		return "", false
	}
	return datasets[index].Name, true
}

// LastError implements alcGetError for this device: reads and clears the
// device-scoped error latch (spec.md §7).
func (d *Device) LastError() ErrCode {
	return d.errs.Get()
}

// SetErrorTrap configures the developer trap for this device's latch
// (spec.md §7).
func (d *Device) SetErrorTrap(enabled bool) {
	d.errs.SetTrap(enabled)
}

// ProcessLastError implements alcGetError(nil): reads and clears the
// process-scoped latch used when no device is available to latch against.
func ProcessLastError() ErrCode {
	return processLatch.Get()
}

// OpenDevice implements alcOpenDevice: pick a backend by driver-list
// order (the first one whose Enumerate succeeds), resolve an empty
// specifier to that backend's first enumerated name (a non-empty specifier
// is used as given, without checking it against the enumeration), and
// leave the device closed for I/O until the first UpdateDeviceParams call
// (spec.md §4.D, §4.F). A failure to open latches onto the process-scoped
// error, since no device handle exists yet to latch against.
func OpenDevice(specifier string, kind DeviceType, driverOrder []string, ownerGoroutine int64) (*Device, *ierrors.EnhancedError) {
	backends := SelectBackend(driverOrder)
	if len(backends) == 0 {
		err := ierrors.New(nil).
			Component("alcore").
			Category(ierrors.CategoryBackend).
			Context("reason", "no backend available for driver order").
			Build()
		processLatch.Set(err)
		return nil, err
	}

	var lastErr *ierrors.EnhancedError
	for _, b := range backends {
		names, err := b.Enumerate(kind)
		if err != nil {
			lastErr = err
			continue
		}
		resolved := specifier
		if resolved == "" && len(names) > 0 {
			resolved = names[0]
		}
		d := &Device{
			DiagnosticID: uuid.NewString(),
			Specifier:    resolved,
			Type:         kind,
			backend:      b,
			connected:    true,
			hrtf:         newHRTFResolver(nullHRTFSource{}),
		}
		globalRegistry.register(d, ownerGoroutine)
		logging.ForComponent("alcore.device").Info("device opened",
			"device", d.DiagnosticID, "specifier", resolved, "backend", b.Name(), "type", kind.String())
		return d, nil
	}
	if lastErr == nil {
		lastErr = ierrors.New(nil).
			Component("alcore").
			Category(ierrors.CategoryBackend).
			Context("reason", "specifier not found on any backend").
			Context("specifier", specifier).
			Build()
	}
	processLatch.Set(lastErr)
	return nil, lastErr
}

// CloseDevice implements alcCloseDevice: every context must already have
// been destroyed by the caller (spec.md §4.D invariant); this only tears
// down the backend stream and removes the device from the registry.
func (d *Device) CloseDevice(ownerGoroutine int64) *ierrors.EnhancedError {
	d.mu.Lock()
	if len(d.contexts) > 0 {
		d.mu.Unlock()
		return d.fail(ierrors.New(nil).
			Component("alcore").
			Category(ierrors.CategoryState).
			Context("reason", "device has live contexts").
			Build())
	}
	handle := d.handle
	d.handle = nil
	d.connected = false
	d.mu.Unlock()

	globalRegistry.unregister(d, ownerGoroutine)

	if handle != nil {
		if err := handle.Close(); err != nil {
			return d.fail(err)
		}
	}
	logging.ForComponent("alcore.device").Info("device closed", "device", d.DiagnosticID)
	return nil
}

// hasContext reports whether ctx belongs to this device (used by
// registry.verifyContext).
func (d *Device) hasContext(ctx *Context) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range d.contexts {
		if c == ctx {
			return true
		}
	}
	return false
}

func (d *Device) addContext(ctx *Context) {
	d.mu.Lock()
	d.contexts = append(d.contexts, ctx)
	d.mu.Unlock()
}

func (d *Device) removeContext(ctx *Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, c := range d.contexts {
		if c == ctx {
			d.contexts = append(d.contexts[:i], d.contexts[i+1:]...)
			return
		}
	}
}

// Contexts returns a snapshot of the device's current context list.
func (d *Device) Contexts() []*Context {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Context, len(d.contexts))
	copy(out, d.contexts)
	return out
}

// Pause implements alcDevicePauseSOFT: stop pulling from the backend
// without releasing it, so Resume can restart quickly (spec.md §4.D).
func (d *Device) Pause() *ierrors.EnhancedError {
	d.mu.Lock()
	handle := d.handle
	d.paused = true
	d.mu.Unlock()
	if handle == nil {
		return nil
	}
	if err := handle.Stop(); err != nil {
		return d.fail(err)
	}
	return nil
}

// Resume implements alcDeviceResumeSOFT.
func (d *Device) Resume() *ierrors.EnhancedError {
	d.mu.Lock()
	handle := d.handle
	d.paused = false
	d.mu.Unlock()
	if handle == nil {
		return d.fail(ierrors.New(nil).
			Component("alcore").
			Category(ierrors.CategoryState).
			Context("reason", "device has no active backend stream").
			Build())
	}
	if err := handle.Start(); err != nil {
		return d.fail(err)
	}
	return nil
}

// IsConnected reports whether the device is still attached, per spec.md
// §8 scenario 6 (ALC_CONNECTED query / disconnect event).
func (d *Device) IsConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.handle != nil && d.handle.Disconnected() {
		d.connected = false
	}
	return d.connected
}

func (d *Device) markDisconnected(reason string) {
	d.mu.Lock()
	d.connected = false
	d.mu.Unlock()
	metrics.Global().RecordDisconnect(d.DiagnosticID, reason)
	logging.ForComponent("alcore.device").Warn("device disconnected", "device", d.DiagnosticID, "reason", reason)
	for _, ctx := range d.Contexts() {
		ctx.notifyDisconnected()
	}
}

// CaptureSamples implements alcCaptureSamples for Capture-kind devices.
func (d *Device) CaptureSamples(out []byte, frames int) (int, *ierrors.EnhancedError) {
	d.mu.Lock()
	handle := d.handle
	kind := d.Type
	d.mu.Unlock()
	if kind != Capture {
		return 0, d.fail(ierrors.New(nil).
			Component("alcore").
			Category(ierrors.CategoryValidation).
			Context("reason", "device is not a capture device").
			Build())
	}
	if handle == nil {
		return 0, d.fail(ierrors.New(nil).
			Component("alcore").
			Category(ierrors.CategoryState).
			Context("reason", "capture device not started").
			Build())
	}
	n, err := handle.Read(out, frames)
	if err != nil {
		return n, d.fail(err)
	}
	return n, nil
}

// fail latches err onto this device's error slot and returns it unchanged,
// so call sites can write `return d.fail(err)` at every error return.
func (d *Device) fail(err *ierrors.EnhancedError) *ierrors.EnhancedError {
	d.errs.Set(err)
	return err
}

// setHandle installs the backend handle produced by UpdateDeviceParams,
// replacing (and closing) any previous one.
func (d *Device) setHandle(h BackendHandle, format AudioFormat, updateSize, numUpdates int) *ierrors.EnhancedError {
	d.mu.Lock()
	old := d.handle
	d.handle = h
	d.Format = format
	d.UpdateSize = updateSize
	d.NumUpdates = numUpdates
	if d.clock == nil {
		d.clock = newDeviceClock(format.Frequency)
	}
	d.mu.Unlock()

	if old != nil {
		return old.Close()
	}
	return nil
}
