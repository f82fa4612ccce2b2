package alcore

// DeviceType classifies what a Device is for (spec.md §3).
type DeviceType int

const (
	Playback DeviceType = iota
	Capture
	Loopback
)

func (t DeviceType) String() string {
	switch t {
	case Playback:
		return "playback"
	case Capture:
		return "capture"
	case Loopback:
		return "loopback"
	default:
		return "unknown"
	}
}

// ChannelConfig is a channel layout, used for both real device output and
// loopback FORMAT_CHANNELS negotiation.
type ChannelConfig int

const (
	ChannelMono ChannelConfig = iota
	ChannelStereo
	ChannelQuad
	Channel51
	Channel61
	Channel71
	ChannelBFormat2D
	ChannelBFormat3D
)

// SampleType is the PCM sample representation.
type SampleType int

const (
	SampleUByte SampleType = iota
	SampleShort
	SampleInt
	SampleFloat
)

// BytesPerSample returns the storage width for one sample of t.
func (t SampleType) BytesPerSample() int {
	switch t {
	case SampleUByte:
		return 1
	case SampleShort:
		return 2
	case SampleInt, SampleFloat:
		return 4
	default:
		return 0
	}
}

func (t SampleType) IsInteger() bool {
	return t == SampleUByte || t == SampleShort || t == SampleInt
}

// AmbisonicLayout selects channel ordering for BFORMAT3D output.
type AmbisonicLayout int

const (
	AmbiLayoutFuMa AmbisonicLayout = iota
	AmbiLayoutACN
)

// AmbisonicScaling selects spherical-harmonic normalization.
type AmbisonicScaling int

const (
	AmbiScalingFuMa AmbisonicScaling = iota
	AmbiScalingSN3D
	AmbiScalingN3D
)

// MaxAmbisonicOrderFuMa is the order cap for FuMa layout/scaling (spec §4.F).
const MaxAmbisonicOrderFuMa = 3

// AudioFormat is a device's negotiated output (or loopback-requested)
// format.
type AudioFormat struct {
	Channels     ChannelConfig
	SampleType   SampleType
	Frequency    int
	AmbiOrder    int
	AmbiLayout   AmbisonicLayout
	AmbiScaling  AmbisonicScaling
	IsAmbisonic  bool
	NumOutputChs int // resolved channel count for Channels
}

// ChannelCount returns the number of interleaved channels for a non-ambisonic
// layout, or the ambisonic channel count for BFORMAT3D at AmbiOrder.
func (f AudioFormat) ChannelCount() int {
	if f.IsAmbisonic {
		return (f.AmbiOrder + 1) * (f.AmbiOrder + 1)
	}
	switch f.Channels {
	case ChannelMono:
		return 1
	case ChannelStereo:
		return 2
	case ChannelQuad:
		return 4
	case Channel51:
		return 6
	case Channel61:
		return 7
	case Channel71:
		return 8
	default:
		return 2
	}
}

// Limits from spec.md §4.F and §3.
const (
	MinOutputRate = 8000
	MaxAuxSends   = 16
	MinNumUpdates = 2
	MaxNumUpdates = 16
	MinUpdateSize = 64
	MaxUpdateSize = 8192
	DefaultVoices = 256
	BufferSize    = 8192 // per-tick scratch capacity for MixBuffer views
)

// IsRenderFormatSupported implements alcIsRenderFormatSupportedSOFT
// (original_source/Alc/alc.cpp:4096-4113): only loopback devices can be
// queried this way, and the requested rate/channel/type combination must be
// individually valid and the rate at least MIN_OUTPUT_RATE.
func IsRenderFormatSupported(d *Device, freq int, channels ChannelConfig, sampleType SampleType) bool {
	if d == nil || d.Type != Loopback || freq <= 0 {
		return false
	}
	if freq < MinOutputRate {
		return false
	}
	if !isValidChannelConfig(channels) || !isValidSampleType(sampleType) {
		return false
	}
	return true
}

func isValidChannelConfig(c ChannelConfig) bool {
	return c >= ChannelMono && c <= ChannelBFormat3D
}

func isValidSampleType(t SampleType) bool {
	return t >= SampleUByte && t <= SampleFloat
}

// PostProcessKind selects the final-stage processor chosen in
// aluSelectPostProcess (spec.md §4.F step 8).
type PostProcessKind int

const (
	PostProcessNone PostProcessKind = iota
	PostProcessUHJ
	PostProcessBS2B
)
