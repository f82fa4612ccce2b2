package alcore

import (
	"math"
	"strings"
	"time"

	"github.com/klauspost/cpuid/v2"

	"github.com/HuxyUK/openal-soft/internal/config"
	ierrors "github.com/HuxyUK/openal-soft/internal/errors"
	"github.com/HuxyUK/openal-soft/internal/logging"
	"github.com/HuxyUK/openal-soft/internal/metrics"
)

// UpdateParams collects everything UpdateDeviceParams needs beyond the
// device itself and the parsed attribute list: the resolved global config
// and an optional per-device override fragment, both already loaded by the
// caller (spec.md §4.F step 3's priority chain is attrs < device config <
// global config).
type UpdateParams struct {
	Global *config.Global
	Device *config.DeviceOverride
	Attrs  AttrList

	// WallNanos is the current time, supplied by the caller since this
	// package never reads the system clock directly on the mixer's behalf.
	WallNanos int64
}

// UpdateDeviceParams implements spec.md §4.F: the critical-path attribute
// negotiation and backend reconfiguration algorithm. If the device's
// backend is running, this function stops it itself first (step 1).
func UpdateDeviceParams(d *Device, p UpdateParams) *ierrors.EnhancedError {
	d.mu.Lock()
	wasRunning := d.handle != nil && !d.paused
	oldHandle := d.handle
	d.mu.Unlock()

	// Step 1: stop the backend if running.
	if wasRunning && oldHandle != nil {
		if err := oldHandle.Stop(); err != nil {
			return d.fail(err)
		}
	}

	// Step 2: rebase the clock.
	if d.clock == nil {
		d.clock = newDeviceClock(d.Format.Frequency)
	}
	d.clock.UpdateClockBase(p.WallNanos, d.Format.Frequency)

	// Step 3: resolve non-loopback configuration overrides, priority
	// attrs < device config < global config (later entries win).
	format, numUpdates, updateSize, err := resolveFormatAndTiming(d, p)
	if err != nil {
		metrics.Global().RecordDeviceReset(d.DiagnosticID, "invalid_value")
		return d.fail(err)
	}

	// Step 3b: trap-alc-error is a developer-facing latch behaviour rather
	// than a format/timing input, but alc.cpp resolves it at the same
	// config-driven init point (alc.cpp:1033); applied here so every reset
	// picks up a config change without requiring the caller to call
	// SetErrorTrap separately. trap-al-error has no home: this module
	// implements only the ALC layer (spec.md §1), so there is no AL-context
	// error latch for it to trap.
	if p.Global != nil {
		d.SetErrorTrap(p.Global.TrapALCError)
	}

	// Step 4: voice budget.
	numMono, numStereo := resolveVoiceBudget(p)
	maxVoices := numMono + numStereo
	if maxVoices <= 0 {
		maxVoices = DefaultVoices
	}

	// Step 5: HRTF resolution.
	format = resolveHRTF(d, p, format)

	dither := resolveDither(p, format)
	volumeAdjust := resolveVolumeAdjust(p)
	reverbBoost := resolveReverbBoost(p)
	excluded := resolveExcludedEffects(p)

	// Step 6: backend reset.
	handle, resetErr := d.backend.Open(d.Specifier, d.Type, format, updateSize, numUpdates, func(out []byte, frames int) {
		mixCallback(d, out, frames)
	})
	if resetErr != nil {
		metrics.Global().RecordDeviceReset(d.DiagnosticID, "backend_reset_failed")
		return d.fail(resetErr)
	}
	format = handle.Format()

	// Step 7-10: channel-buffer sizing, post-process, dither, limiter
	// selection. The reference renderer/postprocess/limiter operate on
	// interleaved bytes directly rather than a separate MixBuffer
	// allocation, so steps 7 and 9 collapse into format bookkeeping here.
	wantLimiter := resolveOutputLimiter(p, format)

	if err := d.setHandle(handle, format, updateSize, numUpdates); err != nil {
		return d.fail(err)
	}
	// Step 2 rebased the clock before the new rate was known; the new
	// handle has not started yet, so rebase again at the negotiated rate.
	d.clock.UpdateClockBase(p.WallNanos, format.Frequency)

	// Step 11-13: re-wire every context.
	updateFailed := false
	for _, ctx := range d.Contexts() {
		ctx.mu.Lock()
		slots := make([]*EffectSlot, 0, len(ctx.slots))
		for _, s := range ctx.slots {
			slots = append(slots, s)
		}
		oldSends := ctx.numSends
		ctx.mu.Unlock()

		dry := &MixBufferView{Format: format}
		for _, slot := range slots {
			if !slot.deviceUpdate(dry) {
				updateFailed = true
			}
		}

		newSends := oldSends
		if sendsAttr, ok := p.Attrs.Get(TokenMaxAuxiliarySends); ok {
			newSends = clampInt(int(sendsAttr), 0, MaxAuxSends)
		} else if p.Device != nil && p.Device.Sends != 0 {
			newSends = clampInt(p.Device.Sends, 0, MaxAuxSends)
		} else if p.Global != nil && p.Global.Sends != 0 {
			newSends = clampInt(p.Global.Sends, 0, MaxAuxSends)
		}
		if newSends != oldSends {
			ctx.resizeSends(newSends)
		}

		ctx.postProc = selectPostProcess(format, false)
		ctx.limiter = newOutputLimiter(wantLimiter)
		ctx.dither = dither
		ctx.volumeAdjust = volumeAdjust
		ctx.reverbBoost = reverbBoost
		ctx.mu.Lock()
		ctx.excludedEffects = excluded
		ctx.mu.Unlock()
		if p.Global != nil && p.Global.DefaultReverb != "" {
			ctx.ensureDefaultReverb()
		}

		// Voice pool reallocation (§4.H), then re-publish everything.
		if ctx.voices.Len() != maxVoices {
			ctx.voices.AllocateVoices(maxVoices)
			metrics.Global().RecordVoicePoolResize(ctx.DiagnosticID)
		}
		for _, u := range ctx.updatables() {
			if s, ok := u.(*Source); ok {
				s.forcePublish()
				continue
			}
			u.publishIfDirty()
		}
	}

	if updateFailed {
		metrics.Global().RecordDeviceReset(d.DiagnosticID, "context_update_failed")
		return d.fail(ierrors.New(nil).
			Component("alcore").
			Category(ierrors.CategoryState).
			Context("reason", "one or more effect slots rejected the new device format").
			Build())
	}

	// Step 14: restart unless paused.
	d.mu.Lock()
	paused := d.paused
	d.mu.Unlock()
	if !paused {
		if err := handle.Start(); err != nil {
			metrics.Global().RecordDeviceReset(d.DiagnosticID, "restart_failed")
			return d.fail(err)
		}
	}

	metrics.Global().RecordDeviceReset(d.DiagnosticID, "ok")
	logging.ForComponent("alcore.negotiate").Info("device params updated",
		"device", d.DiagnosticID, "frequency", format.Frequency, "channels", format.Channels,
		"update_size", updateSize, "num_updates", numUpdates, "max_voices", maxVoices)
	return nil
}

// mixCallback is the backend's realtime entry point; it fans out to every
// context sharing this device, one after another, since a single backend
// stream mixes all of its contexts' output.
func mixCallback(d *Device, out []byte, frames int) {
	for _, ctx := range d.Contexts() {
		ctx.mixTick(out, frames)
	}
}

func mustAttr(attrs AttrList, tok Token) int32 {
	v, _ := attrs.Get(tok)
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// resolveFormatAndTiming implements spec.md §4.F step 3: attrs < device
// config < global config priority, clamped to [MinNumUpdates,MaxNumUpdates]
// and [MinUpdateSize,MaxUpdateSize], with UpdateSize rounded up to a
// multiple of 4 when SSE or NEON is available.
func resolveFormatAndTiming(d *Device, p UpdateParams) (AudioFormat, int, int, *ierrors.EnhancedError) {
	format := d.Format
	if format.Frequency == 0 {
		format.Frequency = 48000
	}
	if format.SampleType == 0 && format.Channels == 0 {
		format.Channels = ChannelStereo
		format.SampleType = SampleFloat
	}

	numUpdates := d.NumUpdates
	if numUpdates == 0 {
		numUpdates = 3
	}
	updateSize := d.UpdateSize
	if updateSize == 0 {
		updateSize = 1024
	}

	if freq, ok := p.Attrs.Get(TokenFrequency); ok {
		format.Frequency = int(freq)
	}
	if d.Type == Loopback {
		if err := applyLoopbackAttrs(p.Attrs, &format); err != nil {
			return format, 0, 0, err
		}
	}

	if p.Device != nil {
		if p.Device.Frequency > 0 {
			format.Frequency = p.Device.Frequency
		}
		if p.Device.Periods > 0 {
			numUpdates = p.Device.Periods
		}
		if p.Device.PeriodSize > 0 {
			updateSize = p.Device.PeriodSize
		}
	}
	if p.Global != nil {
		if p.Global.Frequency > 0 {
			format.Frequency = p.Global.Frequency
		}
		if p.Global.Periods > 0 {
			numUpdates = p.Global.Periods
		}
		if p.Global.PeriodSize > 0 {
			updateSize = p.Global.PeriodSize
		}

		// "channels"/"sample-type"/"ambi-format" only apply to a real
		// (non-loopback) device's own output format; a loopback device's
		// format is entirely attribute-driven by the caller (alc.cpp:3653,
		// 3685, 3767 resolve these only in the non-loopback reset path).
		if d.Type != Loopback {
			if ch, ok := parseChannelConfigName(p.Global.Channels); ok {
				format.Channels = ch
				format.IsAmbisonic = ch == ChannelBFormat3D
			}
			if st, ok := parseSampleTypeName(p.Global.SampleType); ok {
				format.SampleType = st
			}
			if layout, scaling, ok := parseAmbiFormatName(p.Global.AmbiFormat); ok {
				format.AmbiLayout = layout
				format.AmbiScaling = scaling
			}
		}
	}

	if format.Frequency < MinOutputRate {
		return format, 0, 0, ierrors.New(nil).
			Component("alcore").
			Category(ierrors.CategoryValidation).
			Context("reason", "frequency below MIN_OUTPUT_RATE").
			Context("frequency", format.Frequency).
			Build()
	}

	numUpdates = clampInt(numUpdates, MinNumUpdates, MaxNumUpdates)
	updateSize = clampInt(updateSize, MinUpdateSize, MaxUpdateSize)
	if cpuid.CPU.Supports(cpuid.SSE) || cpuid.CPU.Supports(cpuid.ASIMD) {
		if rem := updateSize % 4; rem != 0 {
			updateSize += 4 - rem
		}
	}

	return format, numUpdates, updateSize, nil
}

func applyLoopbackAttrs(attrs AttrList, format *AudioFormat) *ierrors.EnhancedError {
	chVal, chOK := attrs.Get(TokenFormatChannels)
	typeVal, typeOK := attrs.Get(TokenFormatType)
	freqVal, freqOK := attrs.Get(TokenFrequency)
	if !chOK || !typeOK || !freqOK {
		return ierrors.New(nil).
			Component("alcore").
			Category(ierrors.CategoryValidation).
			Context("reason", "loopback device requires FORMAT_CHANNELS, FORMAT_TYPE, and FREQUENCY").
			Build()
	}
	format.Channels = ChannelConfig(chVal)
	format.SampleType = SampleType(typeVal)
	format.Frequency = int(freqVal)

	if format.Channels == ChannelBFormat3D {
		format.IsAmbisonic = true
		layoutVal, layoutOK := attrs.Get(TokenAmbisonicLayout)
		scalingVal, scalingOK := attrs.Get(TokenAmbisonicScaling)
		orderVal, orderOK := attrs.Get(TokenAmbisonicOrder)
		if !layoutOK || !scalingOK || !orderOK {
			return ierrors.New(nil).
				Component("alcore").
				Category(ierrors.CategoryValidation).
				Context("reason", "BFORMAT3D loopback requires ambisonic layout, scaling, and order").
				Build()
		}
		format.AmbiLayout = AmbisonicLayout(layoutVal)
		format.AmbiScaling = AmbisonicScaling(scalingVal)
		format.AmbiOrder = int(orderVal)
		if (format.AmbiLayout == AmbiLayoutFuMa || format.AmbiScaling == AmbiScalingFuMa) && format.AmbiOrder > MaxAmbisonicOrderFuMa {
			return ierrors.New(nil).
				Component("alcore").
				Category(ierrors.CategoryValidation).
				Context("reason", "FuMa layout/scaling caps ambisonic order at 3").
				Context("requested_order", format.AmbiOrder).
				Build()
		}
	}
	return nil
}

// resolveVoiceBudget implements spec.md §4.F step 4, extended with the
// "sources" config key exactly as alc.cpp:1788-1806 resolves it: the key
// overrides the combined mono+stereo total outright (flooring at
// DefaultVoices if set to a non-positive value), and if unset the
// attribute-requested total is itself floored at DefaultVoices. Stereo
// count is then capped to the resolved total and mono takes the remainder.
func resolveVoiceBudget(p UpdateParams) (mono, stereo int) {
	if v, ok := p.Attrs.Get(TokenMonoSources); ok {
		mono = int(v)
	}
	if v, ok := p.Attrs.Get(TokenStereoSources); ok {
		stereo = int(v)
	}
	if mono < 0 {
		mono = 0
	}
	if stereo < 0 {
		stereo = 0
	}
	total := mono + stereo

	if p.Global != nil && p.Global.Sources != 0 {
		if p.Global.Sources <= 0 {
			total = DefaultVoices
		} else {
			total = p.Global.Sources
		}
	} else if total < DefaultVoices {
		total = DefaultVoices
	}

	stereo = clampInt(stereo, 0, total)
	mono = total - stereo
	return mono, stereo
}

// resolveHRTF implements spec.md §4.F step 5: on success, forces stereo
// output and locks the frequency to the dataset's rate; on failure, HRTF
// stays disabled and format is returned unchanged. The "hrtf" config key
// (alc.cpp:1836-1845: "true"/"false"/"auto") only takes effect when the
// caller's attribute list left ALC_HRTF_SOFT unspecified.
func resolveHRTF(d *Device, p UpdateParams, format AudioFormat) AudioFormat {
	requestedVal, requested := p.Attrs.Get(TokenHRTF)
	wantHRTF := requested && requestedVal != 0
	if !requested && p.Global != nil {
		switch strings.ToLower(strings.TrimSpace(p.Global.HRTF)) {
		case "true":
			wantHRTF = true
		case "false":
			wantHRTF = false
		}
	}
	idVal, _ := p.Attrs.Get(TokenHRTFID)

	dataset, enabled, err := d.hrtf.Resolve(format.Frequency, wantHRTF, idVal)
	if err != nil || !enabled {
		if wantHRTF {
			metrics.Global().RecordHRTFResolution(d.DiagnosticID, "unsupported_format")
		}
		return format
	}
	metrics.Global().RecordHRTFResolution(d.DiagnosticID, "ok")
	format.Channels = ChannelStereo
	format.IsAmbisonic = false
	format.Frequency = dataset.Frequency
	return format
}

// resolveOutputLimiter implements spec.md §4.F step 10's DONT_CARE rule:
// enabled by default for integer output, disabled for float, unless the
// caller forces it either way via OUTPUT_LIMITER.
func resolveOutputLimiter(p UpdateParams, format AudioFormat) bool {
	if v, ok := p.Attrs.Get(TokenOutputLimiter); ok {
		return v != 0
	}
	if p.Global != nil {
		switch p.Global.OutputLimiter {
		case "true":
			return true
		case "false":
			return false
		}
	}
	return format.SampleType.IsInteger()
}

// resolveDither implements the "dither"/"dither-depth" config keys exactly
// as alc.cpp:1960-1985 resolves them: dithering defaults on, and its bit
// depth defaults per output sample type when the config leaves it at 0 (no
// depth applies to Int/Float output, which alc.cpp leaves undithered).
func resolveDither(p UpdateParams, format AudioFormat) ditherState {
	if p.Global == nil || !p.Global.Dither {
		return ditherState{}
	}
	depth := p.Global.DitherDepth
	if depth <= 0 {
		switch format.SampleType {
		case SampleUByte:
			depth = 8
		case SampleShort:
			depth = 16
		default:
			depth = 0
		}
	}
	if depth <= 0 {
		return ditherState{}
	}
	return ditherState{Enabled: true, Depth: depth}
}

// resolveVolumeAdjust converts the "volume-adjust" config key (a dB trim,
// alc.cpp:3451) to a linear gain multiplier; unset (0dB) yields unity gain.
func resolveVolumeAdjust(p UpdateParams) float32 {
	if p.Global == nil || p.Global.VolumeAdjustDB == 0 {
		return 1
	}
	return float32(math.Pow(10, p.Global.VolumeAdjustDB/20))
}

// resolveReverbBoost converts the "reverb"/"boost" config key (a dB trim on
// reverb effect gain, alc.cpp:1036) to a linear multiplier.
func resolveReverbBoost(p UpdateParams) float32 {
	if p.Global == nil || p.Global.ReverbBoost == 0 {
		return 1
	}
	return float32(math.Pow(10, p.Global.ReverbBoost/20))
}

// resolveExcludedEffects implements the "excludefx" config key (alc.cpp:
// 1139-1150): a comma-separated list of effect type names rejected at
// effect-type-assignment time (Context.BindEffectKind).
func resolveExcludedEffects(p UpdateParams) map[EffectType]bool {
	if p.Global == nil || len(p.Global.ExcludeFX) == 0 {
		return nil
	}
	out := make(map[EffectType]bool, len(p.Global.ExcludeFX))
	for _, name := range p.Global.ExcludeFX {
		if kind, ok := effectTypeByName(name); ok {
			out[kind] = true
		}
	}
	return out
}

func parseChannelConfigName(name string) (ChannelConfig, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mono":
		return ChannelMono, true
	case "stereo":
		return ChannelStereo, true
	case "quad":
		return ChannelQuad, true
	case "surround51", "5.1":
		return Channel51, true
	case "surround61", "6.1":
		return Channel61, true
	case "surround71", "7.1":
		return Channel71, true
	case "ambi1", "bformat2d":
		return ChannelBFormat2D, true
	case "ambi3d", "bformat3d":
		return ChannelBFormat3D, true
	default:
		return 0, false
	}
}

func parseSampleTypeName(name string) (SampleType, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "uint8", "ubyte":
		return SampleUByte, true
	case "int16", "short":
		return SampleShort, true
	case "int32", "int":
		return SampleInt, true
	case "float32", "float":
		return SampleFloat, true
	default:
		return 0, false
	}
}

// parseAmbiFormatName implements the "ambi-format" config key
// (alc.cpp:3767): a combined layout+normalization name such as "fuma",
// "acn+sn3d", or "acn+n3d".
func parseAmbiFormatName(name string) (AmbisonicLayout, AmbisonicScaling, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "fuma":
		return AmbiLayoutFuMa, AmbiScalingFuMa, true
	case "acn+sn3d":
		return AmbiLayoutACN, AmbiScalingSN3D, true
	case "acn+n3d":
		return AmbiLayoutACN, AmbiScalingN3D, true
	default:
		return 0, 0, false
	}
}

// nowNanos returns the current wall-clock time in nanoseconds, a value
// suitable for UpdateParams.WallNanos; nothing in this package calls it,
// and tests set WallNanos directly.
func nowNanos() int64 {
	return time.Now().UnixNano()
}
