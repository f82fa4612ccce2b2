package alcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HuxyUK/openal-soft/internal/config"
)

func TestUpdateDeviceParamsClampsUpdateSizeAndNumUpdates(t *testing.T) {
	d, err := OpenDevice("", Playback, []string{"null"}, 0)
	require.Nil(t, err)
	defer func() { _ = d.CloseDevice(0) }()

	p := UpdateParams{
		Global: &config.Global{Periods: 100, PeriodSize: 1},
	}
	uerr := UpdateDeviceParams(d, p)
	require.Nil(t, uerr)

	assert.LessOrEqual(t, d.NumUpdates, MaxNumUpdates)
	assert.GreaterOrEqual(t, d.UpdateSize, MinUpdateSize)
}

func TestUpdateDeviceParamsRejectsBelowMinRate(t *testing.T) {
	d, err := OpenDevice("", Playback, []string{"null"}, 0)
	require.Nil(t, err)
	defer func() { _ = d.CloseDevice(0) }()

	attrs := AttrList{{Token: TokenFrequency, Value: 1000}}
	uerr := UpdateDeviceParams(d, UpdateParams{Attrs: attrs})
	require.NotNil(t, uerr)
	assert.Equal(t, InvalidValue, d.LastError())
}

func TestUpdateDeviceParamsRewiresContextVoicePool(t *testing.T) {
	d, err := OpenDevice("", Playback, []string{"null"}, 0)
	require.Nil(t, err)
	defer func() { _ = d.CloseDevice(0) }()

	ctx, cerr := CreateContext(d, nil, 0)
	require.Nil(t, cerr)
	defer ctx.DestroyContext()

	attrs := AttrList{
		{Token: TokenMonoSources, Value: 4},
		{Token: TokenStereoSources, Value: 2},
	}
	uerr := UpdateDeviceParams(d, UpdateParams{Attrs: attrs, Global: &config.Global{Sources: 6}})
	require.Nil(t, uerr)
	assert.Equal(t, 6, ctx.voices.Len())
}

func TestUpdateDeviceParamsVoiceBudgetFloorsAtDefaultVoicesWithoutSourcesConfig(t *testing.T) {
	d, err := OpenDevice("", Playback, []string{"null"}, 0)
	require.Nil(t, err)
	defer func() { _ = d.CloseDevice(0) }()

	ctx, cerr := CreateContext(d, nil, 0)
	require.Nil(t, cerr)
	defer ctx.DestroyContext()

	attrs := AttrList{
		{Token: TokenMonoSources, Value: 4},
		{Token: TokenStereoSources, Value: 2},
	}
	uerr := UpdateDeviceParams(d, UpdateParams{Attrs: attrs})
	require.Nil(t, uerr)
	assert.Equal(t, DefaultVoices, ctx.voices.Len(), "alc.cpp floors the combined mono+stereo total at 256 when \"sources\" is unset")
}

func TestUpdateDeviceParamsSourcesConfigOverridesRequestedTotal(t *testing.T) {
	d, err := OpenDevice("", Playback, []string{"null"}, 0)
	require.Nil(t, err)
	defer func() { _ = d.CloseDevice(0) }()

	ctx, cerr := CreateContext(d, nil, 0)
	require.Nil(t, cerr)
	defer ctx.DestroyContext()

	uerr := UpdateDeviceParams(d, UpdateParams{Global: &config.Global{Sources: 10}})
	require.Nil(t, uerr)
	assert.Equal(t, 10, ctx.voices.Len())
}

func TestUpdateDeviceParamsSourcesConfigNonPositiveFallsBackToDefault(t *testing.T) {
	d, err := OpenDevice("", Playback, []string{"null"}, 0)
	require.Nil(t, err)
	defer func() { _ = d.CloseDevice(0) }()

	ctx, cerr := CreateContext(d, nil, 0)
	require.Nil(t, cerr)
	defer ctx.DestroyContext()

	uerr := UpdateDeviceParams(d, UpdateParams{Global: &config.Global{Sources: -1}})
	require.Nil(t, uerr)
	assert.Equal(t, DefaultVoices, ctx.voices.Len())
}

func TestUpdateDeviceParamsHRTFDisabledByDefault(t *testing.T) {
	d, err := OpenDevice("", Playback, []string{"null"}, 0)
	require.Nil(t, err)
	defer func() { _ = d.CloseDevice(0) }()

	uerr := UpdateDeviceParams(d, UpdateParams{})
	require.Nil(t, uerr)
	// No HRTF datasets are registered by nullHRTFSource, so an explicit
	// request must fail closed rather than crash.
	attrs := AttrList{{Token: TokenHRTF, Value: 1}}
	uerr = UpdateDeviceParams(d, UpdateParams{Attrs: attrs})
	require.Nil(t, uerr)
	assert.Equal(t, ChannelStereo, d.Format.Channels, "null HRTF source leaves format alone")
}

func TestLoopbackRequiresChannelsTypeAndFrequency(t *testing.T) {
	d, err := OpenDevice("", Loopback, []string{"null"}, 0)
	require.Nil(t, err)
	defer func() { _ = d.CloseDevice(0) }()

	uerr := UpdateDeviceParams(d, UpdateParams{Attrs: nil})
	require.NotNil(t, uerr)
}

func TestResolveDitherDefaultsOffWithoutGlobalConfig(t *testing.T) {
	got := resolveDither(UpdateParams{}, AudioFormat{SampleType: SampleShort})
	assert.False(t, got.Enabled)
}

func TestResolveDitherDefaultsDepthPerSampleType(t *testing.T) {
	got := resolveDither(UpdateParams{Global: &config.Global{Dither: true}}, AudioFormat{SampleType: SampleUByte})
	assert.True(t, got.Enabled)
	assert.Equal(t, 8, got.Depth)

	got = resolveDither(UpdateParams{Global: &config.Global{Dither: true}}, AudioFormat{SampleType: SampleShort})
	assert.True(t, got.Enabled)
	assert.Equal(t, 16, got.Depth)
}

func TestResolveDitherDisabledForFloatOutputWithNoExplicitDepth(t *testing.T) {
	got := resolveDither(UpdateParams{Global: &config.Global{Dither: true}}, AudioFormat{SampleType: SampleFloat})
	assert.False(t, got.Enabled, "alc.cpp leaves Float/Int32 output undithered without an explicit depth")
}

func TestResolveDitherHonorsExplicitDepth(t *testing.T) {
	got := resolveDither(UpdateParams{Global: &config.Global{Dither: true, DitherDepth: 4}}, AudioFormat{SampleType: SampleShort})
	assert.True(t, got.Enabled)
	assert.Equal(t, 4, got.Depth)
}

func TestResolveVolumeAdjustUnityWithoutConfig(t *testing.T) {
	assert.Equal(t, float32(1), resolveVolumeAdjust(UpdateParams{}))
}

func TestResolveVolumeAdjustConvertsDBToLinear(t *testing.T) {
	got := resolveVolumeAdjust(UpdateParams{Global: &config.Global{VolumeAdjustDB: 20}})
	assert.InDelta(t, 10.0, got, 0.001)
}

func TestResolveReverbBoostUnityWithoutConfig(t *testing.T) {
	assert.Equal(t, float32(1), resolveReverbBoost(UpdateParams{}))
}

func TestResolveReverbBoostConvertsDBToLinear(t *testing.T) {
	got := resolveReverbBoost(UpdateParams{Global: &config.Global{ReverbBoost: -20}})
	assert.InDelta(t, 0.1, got, 0.001)
}

func TestResolveExcludedEffectsNilWithoutConfig(t *testing.T) {
	assert.Nil(t, resolveExcludedEffects(UpdateParams{}))
}

func TestResolveExcludedEffectsMapsKnownNames(t *testing.T) {
	got := resolveExcludedEffects(UpdateParams{Global: &config.Global{ExcludeFX: []string{"reverb", "bogus", "echo"}}})
	assert.True(t, got[EffectReverb])
	assert.True(t, got[EffectEcho])
	assert.False(t, got[EffectChorus])
}

func TestParseChannelConfigNameKnownAndUnknown(t *testing.T) {
	ch, ok := parseChannelConfigName("Stereo")
	require.True(t, ok)
	assert.Equal(t, ChannelStereo, ch)

	_, ok = parseChannelConfigName("nonsense")
	assert.False(t, ok)
}

func TestParseSampleTypeNameKnownAndUnknown(t *testing.T) {
	st, ok := parseSampleTypeName("Float32")
	require.True(t, ok)
	assert.Equal(t, SampleFloat, st)

	_, ok = parseSampleTypeName("nonsense")
	assert.False(t, ok)
}

func TestParseAmbiFormatNameKnownAndUnknown(t *testing.T) {
	layout, scaling, ok := parseAmbiFormatName("acn+sn3d")
	require.True(t, ok)
	assert.Equal(t, AmbiLayoutACN, layout)
	assert.Equal(t, AmbiScalingSN3D, scaling)

	_, _, ok = parseAmbiFormatName("nonsense")
	assert.False(t, ok)
}

func TestUpdateDeviceParamsSendsConfigResizesWithoutAttribute(t *testing.T) {
	d, err := OpenDevice("", Playback, []string{"null"}, 0)
	require.Nil(t, err)
	defer func() { _ = d.CloseDevice(0) }()

	ctx, cerr := CreateContext(d, nil, 0)
	require.Nil(t, cerr)
	defer ctx.DestroyContext()

	uerr := UpdateDeviceParams(d, UpdateParams{Global: &config.Global{Sends: 3}})
	require.Nil(t, uerr)
	assert.Equal(t, 3, ctx.numSends)
}

func TestUpdateDeviceParamsTrapALCErrorFromConfig(t *testing.T) {
	d, err := OpenDevice("", Playback, []string{"null"}, 0)
	require.Nil(t, err)
	defer func() { _ = d.CloseDevice(0) }()

	uerr := UpdateDeviceParams(d, UpdateParams{Global: &config.Global{TrapALCError: true}})
	require.Nil(t, uerr)
	assert.True(t, d.errs.trapped.Load())
}
