package alcore

import "sync"

// SourceState is a Source's playback state.
type SourceState int

const (
	SourceInitial SourceState = iota
	SourcePlaying
	SourcePaused
	SourceStopped
)

// SourceSend is one auxiliary routing slot on a Source, targeting an
// EffectSlot by handle (spec.md §3, §4.F step 11).
type SourceSend struct {
	SlotID   uint64 // 0 = unrouted
	Gain     float32
	GainHF   float32
	FilterID uint64
}

func defaultSend() SourceSend {
	return SourceSend{Gain: 1, GainHF: 1}
}

// SourceProps is the property image committed to the mixer for a Source.
type SourceProps struct {
	Gain      float32
	Pitch     float32
	Position  [3]float32
	Velocity  [3]float32
	Looping   bool
	State     SourceState
	BufferID  uint64
	Sends     []SourceSend
}

var sourcePool = NewPool[SourceProps]()

// Source is an application-visible playback node living in its owning
// Context's source pool (spec.md §3). Its Send array length always equals
// the owning device's NumAuxSends (invariant checked in §8).
type Source struct {
	ID uint64

	// ctx is nil for sources built directly via newSource in unit tests
	// that exercise publishIfDirty/consume by hand; every source obtained
	// through Context.CreateSource has it set, enabling self-publish and
	// voice-pool binding on Set* calls (spec.md §4.G, §4.H).
	ctx *Context

	mu     sync.Mutex
	staged SourceProps

	props *PropSlot[SourceProps]
}

func newSource(id uint64, numSends int) *Source {
	s := &Source{ID: id, props: NewPropSlot[SourceProps](sourcePool)}
	s.staged.Gain = 1
	s.staged.Pitch = 1
	s.staged.Sends = make([]SourceSend, numSends)
	for i := range s.staged.Sends {
		s.staged.Sends[i] = defaultSend()
	}
	return s
}

// SetGain stages a new source gain and, unless the owning context is
// suspended, publishes it immediately (spec.md §4.G).
func (s *Source) SetGain(gain float32) {
	s.mu.Lock()
	s.staged.Gain = gain
	s.mu.Unlock()
	s.props.MarkDirty()
	if s.ctx != nil {
		s.ctx.selfPublish(s)
	}
}

// SetPitch stages a new pitch multiplier and self-publishes.
func (s *Source) SetPitch(pitch float32) {
	s.mu.Lock()
	s.staged.Pitch = pitch
	s.mu.Unlock()
	s.props.MarkDirty()
	if s.ctx != nil {
		s.ctx.selfPublish(s)
	}
}

// SetPosition stages a new 3D position and self-publishes.
func (s *Source) SetPosition(x, y, z float32) {
	s.mu.Lock()
	s.staged.Position = [3]float32{x, y, z}
	s.mu.Unlock()
	s.props.MarkDirty()
	if s.ctx != nil {
		s.ctx.selfPublish(s)
	}
}

// SetState transitions playback state (Play/Pause/Stop in the public API),
// self-publishes the new state, and binds/releases this source's voice so
// spec.md §3's "Playing implies bound to at most one voice" invariant
// actually holds (spec.md §4.H).
func (s *Source) SetState(state SourceState) {
	s.mu.Lock()
	s.staged.State = state
	s.mu.Unlock()
	s.props.MarkDirty()
	if s.ctx != nil {
		s.ctx.selfPublish(s)
		s.ctx.syncVoiceState(s, state)
	}
}

// State returns the last staged (not necessarily committed) state, used by
// callers that need to know whether a source is non-stopped without
// waiting for a mix tick (e.g. voice binding at Play time).
func (s *Source) State() SourceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.staged.State
}

// resizeSends implements the send-array resize of spec.md §4.F step 11:
// on NumAuxSends change, release references on unused sends and default-
// initialize new ones, then force a republish.
func (s *Source) resizeSends(newCount int) {
	s.mu.Lock()
	old := s.staged.Sends
	resized := make([]SourceSend, newCount)
	copy(resized, old)
	for i := len(old); i < newCount; i++ {
		resized[i] = defaultSend()
	}
	s.staged.Sends = resized
	s.mu.Unlock()
	s.props.MarkDirty()
}

func (s *Source) publishIfDirty() {
	s.props.PublishIfDirty(func(dst *SourceProps) {
		s.mu.Lock()
		dst.Gain = s.staged.Gain
		dst.Pitch = s.staged.Pitch
		dst.Position = s.staged.Position
		dst.Velocity = s.staged.Velocity
		dst.Looping = s.staged.Looping
		dst.State = s.staged.State
		dst.BufferID = s.staged.BufferID
		if cap(dst.Sends) < len(s.staged.Sends) {
			dst.Sends = make([]SourceSend, len(s.staged.Sends))
		}
		dst.Sends = dst.Sends[:len(s.staged.Sends)]
		copy(dst.Sends, s.staged.Sends)
		s.mu.Unlock()
	})
}

// forcePublish republishes unconditionally, used right after resizeSends so
// the mixer sees the new send array even if nothing else has been staged.
func (s *Source) forcePublish() {
	s.props.ForcePublish(func(dst *SourceProps) {
		s.mu.Lock()
		*dst = SourceProps{
			Gain: s.staged.Gain, Pitch: s.staged.Pitch,
			Position: s.staged.Position, Velocity: s.staged.Velocity,
			Looping: s.staged.Looping, State: s.staged.State, BufferID: s.staged.BufferID,
			Sends: append([]SourceSend(nil), s.staged.Sends...),
		}
		s.mu.Unlock()
	})
}

func (s *Source) consume() bool { return s.props.Consume() }

// Committed returns the mixer-visible source properties.
func (s *Source) Committed() *SourceProps { return s.props.Committed() }
