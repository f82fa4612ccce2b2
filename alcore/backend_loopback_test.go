package alcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopbackBackendRejectsNonLoopbackKind(t *testing.T) {
	b := newLoopbackBackend()
	_, err := b.Open("", Playback, AudioFormat{}, 1024, 3, nil)
	require.NotNil(t, err)
}

func TestLoopbackBackendRenderSamplesDrivesPullSynchronously(t *testing.T) {
	b := newLoopbackBackend()
	var pulled int
	handle, err := b.Open("", Loopback, AudioFormat{Channels: ChannelStereo, SampleType: SampleFloat, Frequency: 48000}, 512, 3, func(out []byte, frames int) {
		pulled = frames
	})
	require.Nil(t, err)

	lh, ok := handle.(*loopbackHandle)
	require.True(t, ok)

	require.Nil(t, lh.Start())
	require.Nil(t, lh.RenderSamples(make([]byte, 512*2*4), 512))
	assert.Equal(t, 512, pulled)
}

func TestLoopbackBackendRenderSamplesFailsWhenStopped(t *testing.T) {
	b := newLoopbackBackend()
	handle, err := b.Open("", Loopback, AudioFormat{}, 512, 3, func([]byte, int) {})
	require.Nil(t, err)

	lh := handle.(*loopbackHandle)
	require.Nil(t, lh.Stop())
	rerr := lh.RenderSamples(make([]byte, 16), 4)
	assert.NotNil(t, rerr)
}

func TestLoopbackBackendReadAlwaysFails(t *testing.T) {
	b := newLoopbackBackend()
	handle, err := b.Open("", Loopback, AudioFormat{}, 512, 3, func([]byte, int) {})
	require.Nil(t, err)

	_, rerr := handle.Read(make([]byte, 16), 4)
	assert.NotNil(t, rerr)
}
