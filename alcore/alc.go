package alcore

import ierrors "github.com/HuxyUK/openal-soft/internal/errors"

// CreateContext implements alcCreateContext: registers a new Context
// against d and re-runs UpdateDeviceParams with attrs on every call,
// whether or not the device was parameterized before (spec.md §4.D, §4.E).
func CreateContext(d *Device, attrs AttrList, now int64) (*Context, *ierrors.EnhancedError) {
	if !globalRegistry.verifyDevice(d, 0) {
		return nil, d.fail(ierrors.New(nil).
			Component("alcore").
			Category(ierrors.CategoryHandle).
			Context("reason", "device handle not registered").
			Build())
	}

	sends := MaxAuxSends / 4
	if v, ok := attrs.Get(TokenMaxAuxiliarySends); ok {
		sends = clampInt(int(v), 0, MaxAuxSends)
	}

	ctx := NewContext(d, sends)
	global, device := d.resolvedConfig()
	if err := UpdateDeviceParams(d, UpdateParams{Global: global, Device: device, Attrs: attrs, WallNanos: now}); err != nil {
		ctx.DestroyContext()
		return nil, d.fail(err)
	}
	return ctx, nil
}

// ResetDevice implements alcResetDeviceSOFT: re-runs the negotiation and
// backend-reconfiguration algorithm of UpdateDeviceParams against a device
// that may already have contexts attached, without creating a new one — the
// distinct entry point alc.cpp exposes alongside alcCreateContext for
// reconfiguring a device in place (e.g. after a config file reload).
func ResetDevice(d *Device, attrs AttrList, now int64) *ierrors.EnhancedError {
	if !globalRegistry.verifyDevice(d, 0) {
		return d.fail(ierrors.New(nil).
			Component("alcore").
			Category(ierrors.CategoryHandle).
			Context("reason", "device handle not registered").
			Build())
	}
	global, device := d.resolvedConfig()
	return UpdateDeviceParams(d, UpdateParams{Global: global, Device: device, Attrs: attrs, WallNanos: now})
}

// DestroyContext implements alcDestroyContext with the handle-verification
// step of spec.md §4.A folded in.
func DestroyContext(ctx *Context, ownerGoroutine int64) *ierrors.EnhancedError {
	if !globalRegistry.verifyContext(ctx, ownerGoroutine) {
		err := ierrors.New(nil).
			Component("alcore").
			Category(ierrors.CategoryHandle).
			Context("reason", "context handle not registered").
			Build()
		processLatch.Set(err)
		return err
	}
	ctx.DestroyContext()
	return nil
}

// QueryAllAttributes implements the ALC_ALL_ATTRIBUTES query of spec.md
// §6, re-encoding the device's live negotiated parameters back into
// (token, value) wire form.
func QueryAllAttributes(d *Device) []int32 {
	d.mu.Lock()
	format := d.Format
	d.mu.Unlock()

	attrs := AttrList{
		{Token: TokenFrequency, Value: int32(format.Frequency)},
	}
	if d.Type == Loopback {
		attrs = append(attrs,
			AttrPair{Token: TokenFormatChannels, Value: int32(format.Channels)},
			AttrPair{Token: TokenFormatType, Value: int32(format.SampleType)},
		)
		if format.IsAmbisonic {
			attrs = append(attrs,
				AttrPair{Token: TokenAmbisonicLayout, Value: int32(format.AmbiLayout)},
				AttrPair{Token: TokenAmbisonicScaling, Value: int32(format.AmbiScaling)},
				AttrPair{Token: TokenAmbisonicOrder, Value: int32(format.AmbiOrder)},
			)
		}
	}
	return attrs.Encode()
}

// DefaultDeviceSpecifier returns only the first entry of a device's
// multi-string specifier list, matching the literal (and, per spec.md's
// Open Questions, intentionally preserved) truncating behaviour of the
// original alcAllDevicesList-backed query.
func DefaultDeviceSpecifier(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return names[0]
}
