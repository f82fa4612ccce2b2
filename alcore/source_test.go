package alcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSourceDefaultSendsHaveUnityGain(t *testing.T) {
	s := newSource(1, 2)
	s.forcePublish()
	require.True(t, s.consume())

	committed := s.Committed()
	require.Len(t, committed.Sends, 2)
	for _, send := range committed.Sends {
		assert.Equal(t, float32(1), send.Gain)
		assert.Equal(t, float32(1), send.GainHF)
		assert.Equal(t, uint64(0), send.SlotID)
	}
}

func TestSourceSetStateIsVisibleBeforeCommit(t *testing.T) {
	s := newSource(1, 0)
	s.SetState(SourcePlaying)
	assert.Equal(t, SourcePlaying, s.State())
	assert.Equal(t, SourceInitial, s.Committed().State, "State() reads staged, Committed() reads the last published image")
}

func TestSourcePublishIfDirtyCarriesGainPitchAndPosition(t *testing.T) {
	s := newSource(1, 0)
	s.SetGain(0.25)
	s.SetPitch(1.5)
	s.SetPosition(1, -2, 3)

	s.publishIfDirty()
	require.True(t, s.consume())

	committed := s.Committed()
	assert.Equal(t, float32(0.25), committed.Gain)
	assert.Equal(t, float32(1.5), committed.Pitch)
	assert.Equal(t, [3]float32{1, -2, 3}, committed.Position)
}

func TestResizeSendsGrowsAndDefaultsNewSlots(t *testing.T) {
	s := newSource(1, 1)
	s.forcePublish()
	require.True(t, s.consume())

	s.resizeSends(3)
	s.forcePublish()
	require.True(t, s.consume())

	committed := s.Committed()
	require.Len(t, committed.Sends, 3)
	for _, send := range committed.Sends {
		assert.Equal(t, float32(1), send.Gain)
	}
}

func TestResizeSendsShrinkTruncatesTail(t *testing.T) {
	s := newSource(1, 3)
	s.forcePublish()
	require.True(t, s.consume())

	s.resizeSends(1)
	s.forcePublish()
	require.True(t, s.consume())

	assert.Len(t, s.Committed().Sends, 1)
}

func TestSourcePublishIfDirtyReusesSendCapacityAcrossPublishes(t *testing.T) {
	s := newSource(1, 4)
	s.SetGain(0.5)
	s.publishIfDirty()
	require.True(t, s.consume())
	first := s.Committed().Sends

	s.SetGain(0.6)
	s.publishIfDirty()
	require.True(t, s.consume())

	assert.Len(t, s.Committed().Sends, len(first))
}
