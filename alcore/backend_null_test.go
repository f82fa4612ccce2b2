package alcore

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullBackendEnumerateReturnsOneDevice(t *testing.T) {
	b := newNullBackend()
	names, err := b.Enumerate(Playback)
	require.Nil(t, err)
	assert.Equal(t, []string{"Null Device"}, names)
}

func TestNullBackendStartPullsOnATicker(t *testing.T) {
	b := newNullBackend()
	var calls atomic.Int32
	handle, err := b.Open("", Playback, AudioFormat{Channels: ChannelStereo, SampleType: SampleFloat, Frequency: 48000}, 480, 3, func(out []byte, frames int) {
		calls.Add(1)
	})
	require.Nil(t, err)

	require.Nil(t, handle.Start())
	defer func() { _ = handle.Stop() }()

	require.Eventually(t, func() bool { return calls.Load() > 0 }, time.Second, 5*time.Millisecond)
}

func TestNullBackendStopIsIdempotent(t *testing.T) {
	b := newNullBackend()
	handle, err := b.Open("", Playback, AudioFormat{Channels: ChannelStereo, SampleType: SampleFloat, Frequency: 48000}, 480, 3, func([]byte, int) {})
	require.Nil(t, err)

	require.Nil(t, handle.Start())
	require.Nil(t, handle.Stop())
	require.Nil(t, handle.Stop())
}

func TestNullBackendReadYieldsSilence(t *testing.T) {
	b := newNullBackend()
	handle, err := b.Open("", Capture, AudioFormat{}, 480, 3, func([]byte, int) {})
	require.Nil(t, err)

	out := []byte{1, 2, 3, 4}
	n, rerr := handle.Read(out, 1)
	require.Nil(t, rerr)
	assert.Equal(t, 1, n)
	assert.Equal(t, []byte{0, 0, 0, 0}, out)
}

func TestNullBackendDisconnectedAlwaysFalse(t *testing.T) {
	b := newNullBackend()
	handle, err := b.Open("", Playback, AudioFormat{}, 480, 3, func([]byte, int) {})
	require.Nil(t, err)
	assert.False(t, handle.Disconnected())
}
