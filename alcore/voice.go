package alcore

// VoiceState mirrors a Source's playback state as seen from the mixer side
// of the voice binding (spec.md §4.H).
type VoiceState int

const (
	VoiceStopped VoiceState = iota
	VoicePlaying
	VoicePaused
)

// Voice is one fixed-stride slot in a Context's voice pool, bound to at
// most one Source at a time (spec.md §4.H: "a Voice is never freed
// individually; the pool is grown/shrunk as a whole"). All fields below
// are touched only by the mixer thread during a tick, except SourceID and
// Generation which producers read to detect stale bindings.
type Voice struct {
	SourceID   uint64
	Generation uint64
	State      VoiceState

	// Cursor/Sends/Position carry per-voice DSP progress across ticks;
	// alcore treats them as an opaque carried-over block that survives a
	// pool resize verbatim (spec.md §4.H step 3), since the DSP layer that
	// interprets them is out of scope (§1).
	Cursor   int64
	Sends    []VoiceSend
	Position [3]float32
}

// VoiceSend mirrors one SourceSend's mixer-side routing state.
type VoiceSend struct {
	SlotID uint64
	Gain   float32
	GainHF float32
}

// bind attaches v to sourceID, bumping Generation so any stale references
// held by a producer are recognized as invalid on next check.
func (v *Voice) bind(sourceID uint64, numSends int) {
	v.SourceID = sourceID
	v.Generation++
	v.State = VoicePlaying
	v.Cursor = 0
	if cap(v.Sends) < numSends {
		v.Sends = make([]VoiceSend, numSends)
	}
	v.Sends = v.Sends[:numSends]
	for i := range v.Sends {
		v.Sends[i] = VoiceSend{Gain: 1, GainHF: 1}
	}
}

// release detaches v from its source, per spec.md §4.H: a Voice always
// returns to the pool rather than being individually freed.
func (v *Voice) release() {
	v.SourceID = 0
	v.State = VoiceStopped
}
