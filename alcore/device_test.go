package alcore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HuxyUK/openal-soft/internal/config"
)

func TestOpenDeviceResolvesDefaultSpecifier(t *testing.T) {
	d, err := OpenDevice("", Playback, []string{"null"}, 0)
	require.Nil(t, err)
	defer func() { _ = d.CloseDevice(0) }()

	assert.Equal(t, "Null Device", d.Specifier)
	assert.True(t, d.IsConnected())
}

func TestOpenDeviceUnknownDriverLatchesProcessError(t *testing.T) {
	_, err := OpenDevice("", Playback, []string{"nonexistent-driver"}, 0)
	require.NotNil(t, err)
	assert.Equal(t, InvalidDevice, ProcessLastError())
}

func TestCloseDeviceRefusesWithLiveContexts(t *testing.T) {
	d, err := OpenDevice("", Playback, []string{"null"}, 0)
	require.Nil(t, err)

	ctx, cerr := CreateContext(d, nil, 0)
	require.Nil(t, cerr)

	closeErr := d.CloseDevice(0)
	require.NotNil(t, closeErr)
	assert.Equal(t, InvalidDevice, d.LastError(), "the refused close latches InvalidDevice on the device")

	ctx.DestroyContext()
	require.Nil(t, d.CloseDevice(0))
}

func TestLastErrorReadsAndClearsLatch(t *testing.T) {
	d, err := OpenDevice("", Playback, []string{"null"}, 0)
	require.Nil(t, err)
	defer func() { _ = d.CloseDevice(0) }()

	// Resume with no backend handle open yet is an invalid-state error.
	rerr := d.Resume()
	require.NotNil(t, rerr)

	assert.Equal(t, InvalidDevice, d.LastError())
	assert.Equal(t, NoError, d.LastError(), "second read must observe the latch already cleared")
}

func TestPauseResumeRoundTrip(t *testing.T) {
	d, err := OpenDevice("", Playback, []string{"null"}, 0)
	require.Nil(t, err)
	defer func() { _ = d.CloseDevice(0) }()

	uerr := UpdateDeviceParams(d, UpdateParams{})
	require.Nil(t, uerr)

	require.Nil(t, d.Pause())
	require.Nil(t, d.Resume())
}

func TestMarkDisconnectedNotifiesEveryContext(t *testing.T) {
	d, err := OpenDevice("", Playback, []string{"null"}, 0)
	require.Nil(t, err)
	defer func() { _ = d.CloseDevice(0) }()

	ctx, cerr := CreateContext(d, nil, 0)
	require.Nil(t, cerr)
	defer ctx.DestroyContext()

	received := make(chan Event, 1)
	ctx.StartEventConsumer(func(e Event) {
		received <- e
	})

	assert.True(t, d.IsConnected())
	d.markDisconnected("backend gone")
	assert.False(t, d.IsConnected())

	select {
	case e := <-received:
		assert.Equal(t, EventDisconnected, e.Type)
	case <-time.After(time.Second):
		t.Fatal("expected a disconnect event to be delivered")
	}
}

func TestSetConfigIsThreadedIntoCreateContext(t *testing.T) {
	d, err := OpenDevice("", Playback, []string{"null"}, 0)
	require.Nil(t, err)
	defer func() { _ = d.CloseDevice(0) }()

	d.SetConfig(&config.Global{TrapALCError: true}, nil)

	ctx, cerr := CreateContext(d, nil, 0)
	require.Nil(t, cerr)
	defer ctx.DestroyContext()

	assert.True(t, d.errs.trapped.Load())
}

func TestClockNanosAdvancesWithSamples(t *testing.T) {
	d, err := OpenDevice("", Playback, []string{"null"}, 0)
	require.Nil(t, err)
	defer func() { _ = d.CloseDevice(0) }()

	uerr := UpdateDeviceParams(d, UpdateParams{WallNanos: 1000})
	require.Nil(t, uerr)

	before := d.ClockNanos()
	d.clock.Advance(d.Format.Frequency)
	after := d.ClockNanos()
	assert.Greater(t, after, before)
}

func TestLatencyNanosZeroWithoutFormat(t *testing.T) {
	d, err := OpenDevice("", Playback, []string{"null"}, 0)
	require.Nil(t, err)
	defer func() { _ = d.CloseDevice(0) }()

	assert.Equal(t, int64(0), d.LatencyNanos())
}

func TestLatencyNanosReflectsBufferDepthAfterUpdate(t *testing.T) {
	d, err := OpenDevice("", Playback, []string{"null"}, 0)
	require.Nil(t, err)
	defer func() { _ = d.CloseDevice(0) }()

	uerr := UpdateDeviceParams(d, UpdateParams{})
	require.Nil(t, uerr)

	assert.Greater(t, d.LatencyNanos(), int64(0))
}

func TestHRTFSpecifierAtOutOfRangeReturnsFalse(t *testing.T) {
	d, err := OpenDevice("", Playback, []string{"null"}, 0)
	require.Nil(t, err)
	defer func() { _ = d.CloseDevice(0) }()

	uerr := UpdateDeviceParams(d, UpdateParams{})
	require.Nil(t, uerr)

	_, ok := d.HRTFSpecifierAt(0)
	assert.False(t, ok, "nullHRTFSource enumerates no datasets")
}
