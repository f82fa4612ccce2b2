package alcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateContextRejectsUnregisteredDevice(t *testing.T) {
	d, err := OpenDevice("", Playback, []string{"null"}, 0)
	require.Nil(t, err)
	require.NoError(t, d.CloseDevice(0))

	ctx, cerr := CreateContext(d, nil, 0)
	assert.Nil(t, ctx)
	require.NotNil(t, cerr)
	assert.Equal(t, InvalidDevice, d.LastError())
}

func TestDestroyContextRejectsUnregisteredContext(t *testing.T) {
	d, err := OpenDevice("", Playback, []string{"null"}, 0)
	require.Nil(t, err)
	defer func() { _ = d.CloseDevice(0) }()

	ctx, cerr := CreateContext(d, nil, 0)
	require.Nil(t, cerr)
	ctx.DestroyContext()

	dcerr := DestroyContext(ctx, 0)
	require.NotNil(t, dcerr)
}

func TestDestroyContextSucceedsForRegisteredContext(t *testing.T) {
	d, err := OpenDevice("", Playback, []string{"null"}, 0)
	require.Nil(t, err)
	defer func() { _ = d.CloseDevice(0) }()

	ctx, cerr := CreateContext(d, nil, 0)
	require.Nil(t, cerr)

	assert.Nil(t, DestroyContext(ctx, 0))
}

func TestQueryAllAttributesIncludesFrequencyAlways(t *testing.T) {
	d, err := OpenDevice("", Playback, []string{"null"}, 0)
	require.Nil(t, err)
	defer func() { _ = d.CloseDevice(0) }()

	ctx, cerr := CreateContext(d, nil, 0)
	require.Nil(t, cerr)
	defer ctx.DestroyContext()

	attrs := QueryAllAttributes(d)
	require.NotEmpty(t, attrs)

	found := false
	for i := 0; i+1 < len(attrs); i += 2 {
		if attrs[i] == int32(TokenFrequency) {
			found = true
			assert.Equal(t, int32(48000), attrs[i+1])
		}
	}
	assert.True(t, found, "encoded attribute list must carry a frequency pair")
}

func TestQueryAllAttributesIncludesFormatForLoopbackOnly(t *testing.T) {
	d, cerr := OpenDevice("", Loopback, []string{"null"}, 0)
	require.Nil(t, cerr)
	defer func() { _ = d.CloseDevice(0) }()

	attrs := AttrList{
		{Token: TokenFormatChannels, Value: int32(ChannelStereo)},
		{Token: TokenFormatType, Value: int32(SampleFloat)},
		{Token: TokenFrequency, Value: 48000},
	}
	ctx, err := CreateContext(d, attrs, 0)
	require.Nil(t, err)
	defer ctx.DestroyContext()

	encoded := QueryAllAttributes(d)
	hasChannels := false
	for i := 0; i+1 < len(encoded); i += 2 {
		if encoded[i] == int32(TokenFormatChannels) {
			hasChannels = true
		}
	}
	assert.True(t, hasChannels, "loopback devices must report their negotiated format")
}

func TestDefaultDeviceSpecifierReturnsFirstEntry(t *testing.T) {
	assert.Equal(t, "alpha", DefaultDeviceSpecifier([]string{"alpha", "beta"}))
}

func TestDefaultDeviceSpecifierEmptyListReturnsEmptyString(t *testing.T) {
	assert.Equal(t, "", DefaultDeviceSpecifier(nil))
}

func TestContextDeviceReturnsOwningDevice(t *testing.T) {
	d, err := OpenDevice("", Playback, []string{"null"}, 0)
	require.Nil(t, err)
	defer func() { _ = d.CloseDevice(0) }()

	ctx, cerr := CreateContext(d, nil, 0)
	require.Nil(t, cerr)
	defer ctx.DestroyContext()

	assert.Same(t, d, ctx.Device())
}

func TestResetDeviceRejectsUnregisteredDevice(t *testing.T) {
	d, err := OpenDevice("", Playback, []string{"null"}, 0)
	require.Nil(t, err)
	require.NoError(t, d.CloseDevice(0))

	rerr := ResetDevice(d, nil, 0)
	require.NotNil(t, rerr)
}

func TestResetDeviceReappliesConfig(t *testing.T) {
	d, err := OpenDevice("", Playback, []string{"null"}, 0)
	require.Nil(t, err)
	defer func() { _ = d.CloseDevice(0) }()

	ctx, cerr := CreateContext(d, nil, 0)
	require.Nil(t, cerr)
	defer ctx.DestroyContext()

	attrs := AttrList{{Token: TokenMonoSources, Value: 8}, {Token: TokenStereoSources, Value: 2}}
	rerr := ResetDevice(d, attrs, 1)
	require.Nil(t, rerr)
	assert.Equal(t, DefaultVoices, ctx.voices.Len())
}
