package alcore

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectPostProcessRoutesAmbisonicStereoToUHJ(t *testing.T) {
	format := AudioFormat{Channels: ChannelStereo, SampleType: SampleFloat, IsAmbisonic: true}
	p := selectPostProcess(format, false)
	assert.Equal(t, PostProcessUHJ, p.Kind())
}

func TestSelectPostProcessRoutesBS2BRequestToBS2B(t *testing.T) {
	format := AudioFormat{Channels: ChannelStereo, SampleType: SampleFloat}
	p := selectPostProcess(format, true)
	assert.Equal(t, PostProcessBS2B, p.Kind())
}

func TestSelectPostProcessDefaultsToPassthrough(t *testing.T) {
	format := AudioFormat{Channels: ChannelQuad, SampleType: SampleFloat}
	p := selectPostProcess(format, false)
	assert.Equal(t, PostProcessNone, p.Kind())
}

func TestInterleaveFloatWritesLittleEndianSamples(t *testing.T) {
	format := AudioFormat{Channels: ChannelStereo, SampleType: SampleFloat}
	mix := [][]float32{{0.5, -0.5}, {1, -1}}
	out := make([]byte, 2*2*4)

	interleaveFloat(mix, out, format, 2, ditherState{})

	left0 := math.Float32frombits(binary.LittleEndian.Uint32(out[0:4]))
	right0 := math.Float32frombits(binary.LittleEndian.Uint32(out[4:8]))
	assert.Equal(t, float32(0.5), left0)
	assert.Equal(t, float32(1), right0)
}

func TestInterleaveFloatDitherDisabledLeavesIntegerSamplesExact(t *testing.T) {
	format := AudioFormat{Channels: ChannelMono, SampleType: SampleShort}
	mix := [][]float32{{0.5}}
	out := make([]byte, 2)

	interleaveFloat(mix, out, format, 1, ditherState{})

	got := int16(binary.LittleEndian.Uint16(out))
	assert.Equal(t, int16(16383), got)
}

func TestDitherAmplitudeZeroWhenDisabled(t *testing.T) {
	assert.Equal(t, float64(0), ditherState{}.ditherAmplitude())
	assert.Equal(t, float64(0), ditherState{Enabled: true, Depth: 0}.ditherAmplitude())
}

func TestDitherAmplitudeHalvesPerBit(t *testing.T) {
	d16 := ditherState{Enabled: true, Depth: 16}
	d8 := ditherState{Enabled: true, Depth: 8}
	assert.InDelta(t, d16.ditherAmplitude()*256, d8.ditherAmplitude(), 1e-12)
}

func TestWriteSampleUByteAndIntRoundTrip(t *testing.T) {
	dstByte := make([]byte, 1)
	writeSample(dstByte, 1, SampleUByte, 0)
	assert.Equal(t, byte(255), dstByte[0])

	dstInt := make([]byte, 4)
	writeSample(dstInt, -1, SampleInt, 0)
	got := int32(binary.LittleEndian.Uint32(dstInt))
	assert.Equal(t, int32(-2147483647), got)
}

func TestPeakLimiterClampsAboveThreshold(t *testing.T) {
	l := newOutputLimiter(true)
	mix := [][]float32{{1.5, -1.5, 0.1}}
	l.Limit(mix, 3)

	assert.InDelta(t, 0.999, mix[0][0], 1e-6)
	assert.InDelta(t, -0.999, mix[0][1], 1e-6)
	assert.Equal(t, float32(0.1), mix[0][2])
}

func TestPeakLimiterDisabledIsNoOp(t *testing.T) {
	l := newOutputLimiter(false)
	mix := [][]float32{{2.0}}
	l.Limit(mix, 1)
	assert.Equal(t, float32(2.0), mix[0][0])
}
