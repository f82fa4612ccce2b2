package alcore

import (
	"math"
	"math/rand"
)


// ditherState carries the resolved "dither"/"dither-depth" config keys
// (spec.md §6) into the sample-writing layer, grounded on
// original_source/Alc/alc.cpp:1960-1985: dithering is enabled by default
// and its depth defaults per output sample type when unset.
type ditherState struct {
	Enabled bool
	Depth   int
}

// ditherAmplitude returns the triangular-PDF dither noise half-amplitude in
// normalized [-1,1] sample units for the resolved bit depth, or 0 if
// dithering is disabled or the format has no integer quantization step
// (alc.cpp only dithers Byte/UByte/Short/UShort output; Int/Float pass
// through with DitherDepth left at 0).
func (s ditherState) ditherAmplitude() float64 {
	if !s.Enabled || s.Depth <= 0 {
		return 0
	}
	return 1.0 / float64(int64(1)<<uint(s.Depth-1))
}

// PostProcessor is the aluSelectPostProcess external collaborator of
// spec.md §4.F step 8: after the mixer renders into the ambisonic/direct
// mix buffer, one post-processing stage (none, UHJ, or BS2B) runs before
// the result reaches the backend. Out of scope per §1 for its DSP
// internals; alcore only needs to select and invoke one.
type PostProcessor interface {
	Kind() PostProcessKind
	Process(mix [][]float32, out []byte, format AudioFormat, numFrames int, dither ditherState)
}

// selectPostProcess implements the selection rule of spec.md §4.F step 8:
// ambisonic output with stereo down-mix requested gets UHJ, an explicit
// BS2B request is honored for stereo speaker output, everything else gets
// a pass-through.
func selectPostProcess(format AudioFormat, wantBS2B bool) PostProcessor {
	switch {
	case format.IsAmbisonic && format.Channels == ChannelStereo:
		return &uhjPostProcess{}
	case wantBS2B && format.Channels == ChannelStereo:
		return &bs2bPostProcess{}
	default:
		return &passthroughPostProcess{}
	}
}

type passthroughPostProcess struct{}

func (p *passthroughPostProcess) Kind() PostProcessKind { return PostProcessNone }

func (p *passthroughPostProcess) Process(mix [][]float32, out []byte, format AudioFormat, numFrames int, dither ditherState) {
	interleaveFloat(mix, out, format, numFrames, dither)
}

// uhjPostProcess is a minimal stand-in for OpenAL Soft's UHJ ambisonic-to-
// stereo downmix: it takes the W/X channels of the ambisonic mix as a
// simple sum, without the full UHJ phase-matrix filter, since the filter
// coefficients are a DSP-internals concern out of scope per spec.md §1.
type uhjPostProcess struct{}

func (p *uhjPostProcess) Kind() PostProcessKind { return PostProcessUHJ }

func (p *uhjPostProcess) Process(mix [][]float32, out []byte, format AudioFormat, numFrames int, dither ditherState) {
	if len(mix) < 2 {
		interleaveFloat(mix, out, format, numFrames, dither)
		return
	}
	stereo := [][]float32{make([]float32, numFrames), make([]float32, numFrames)}
	w, x := mix[0], mix[1]
	for i := 0; i < numFrames; i++ {
		stereo[0][i] = w[i] + x[i]
		stereo[1][i] = w[i] - x[i]
	}
	interleaveFloat(stereo, out, format, numFrames, dither)
}

// bs2bPostProcess is a minimal stand-in for a Bauer stereophonic-to-
// binaural crossfeed filter: pass-through shape retained so the selection
// rule and interface are exercised, with the actual crossfeed coefficients
// left as DSP internals out of scope per spec.md §1.
type bs2bPostProcess struct{}

func (p *bs2bPostProcess) Kind() PostProcessKind { return PostProcessBS2B }

func (p *bs2bPostProcess) Process(mix [][]float32, out []byte, format AudioFormat, numFrames int, dither ditherState) {
	interleaveFloat(mix, out, format, numFrames, dither)
}

func interleaveFloat(mix [][]float32, out []byte, format AudioFormat, numFrames int, dither ditherState) {
	channels := len(mix)
	if channels == 0 {
		return
	}
	amplitude := dither.ditherAmplitude()
	bytesPer := format.SampleType.BytesPerSample()
	for frame := 0; frame < numFrames; frame++ {
		for ch := 0; ch < channels; ch++ {
			offset := (frame*channels + ch) * bytesPer
			if offset+bytesPer > len(out) {
				return
			}
			writeSample(out[offset:offset+bytesPer], mix[ch][frame], format.SampleType, amplitude)
		}
	}
}

func writeSample(dst []byte, v float32, t SampleType, ditherAmplitude float64) {
	if ditherAmplitude > 0 && t.IsInteger() {
		v += float32(triangularNoise() * ditherAmplitude)
	}
	switch t {
	case SampleFloat:
		bits := math.Float32bits(v)
		dst[0] = byte(bits)
		dst[1] = byte(bits >> 8)
		dst[2] = byte(bits >> 16)
		dst[3] = byte(bits >> 24)
	case SampleShort:
		s := int16(clampFloat(v) * 32767)
		dst[0] = byte(s)
		dst[1] = byte(s >> 8)
	case SampleUByte:
		dst[0] = byte(clampFloat(v)*127 + 128)
	case SampleInt:
		s := int32(float64(clampFloat(v)) * 2147483647)
		dst[0] = byte(s)
		dst[1] = byte(s >> 8)
		dst[2] = byte(s >> 16)
		dst[3] = byte(s >> 24)
	}
}

// triangularNoise sums two uniform draws for a zero-mean triangular-PDF
// dither kernel, the same shape alc.cpp's dither generator produces by
// summing two RNG outputs before scaling by DitherDepth.
func triangularNoise() float64 {
	return rand.Float64() + rand.Float64() - 1
}

func clampFloat(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
