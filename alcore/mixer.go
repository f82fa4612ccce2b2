package alcore

// Renderer is the mixer's external-collaborator interface: spec.md §1
// places "the internal algorithms of resampling, panning, HRTF
// convolution, reverb... " out of scope, so alcore only depends on this
// narrow surface (matching the C implementation's aluMixData entry point)
// and ships a minimal reference implementation sufficient to exercise
// UpdateDeviceParams end to end and to render silence/gain-only audio for
// loopback tests (spec.md §8 scenario 2).
type Renderer interface {
	// MixData renders numFrames frames of the given format into out
	// (interleaved), reading voices from pool and the listener from
	// listener's committed properties. volumeAdjust is the linear gain
	// resolved from the "volume-adjust" config key (spec.md §6), applied as
	// a trim on top of the listener's own gain.
	MixData(out []byte, numFrames int, format AudioFormat, pool *VoicePool, listener *Listener, volumeAdjust float32)
}

// referenceRenderer is a minimal gain-only mixer: it sums each playing
// voice's contribution as silence scaled by listener gain, advancing
// cursors so the pool's steady-state (SourceState transitions, voice
// stealing) is exercisable without a real DSP backend. It performs no
// resampling, panning, or effects processing.
type referenceRenderer struct{}

func newReferenceRenderer() Renderer { return &referenceRenderer{} }

func (r *referenceRenderer) MixData(out []byte, numFrames int, format AudioFormat, pool *VoicePool, listener *Listener, volumeAdjust float32) {
	for i := range out {
		out[i] = 0
	}
	gain := float32(1)
	if listener != nil {
		gain = listener.Committed().Gain
	}
	gain *= volumeAdjust
	_ = gain // reference mix has nothing to scale without real sample data

	for _, v := range pool.Voices() {
		if v.State != VoicePlaying {
			continue
		}
		v.Cursor += int64(numFrames)
	}
}
