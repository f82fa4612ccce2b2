package alcore

import "sync"

// EffectSlotProps is the property image committed to the mixer for an
// EffectSlot (spec.md §3).
type EffectSlotProps struct {
	EffectID  uint64
	Gain      float32
	AuxSendAuto bool
	// DryBufferGen counts how many times deviceUpdate has rebound this
	// slot's DSP state to a new Dry buffer (spec.md §4.F step 11); the
	// mixer compares this against its own last-seen generation to know
	// whether its cached state pointer is stale.
	DryBufferGen uint64
}

var slotPool = NewPool[EffectSlotProps]()

// EffectSlot is a stateful DSP unit shared across sources via their sends
// (spec.md §3, glossary "Effect slot").
type EffectSlot struct {
	ID uint64

	// ctx is set by Context.createEffectSlotLocked; nil only for slots
	// built directly via newEffectSlot in unit tests.
	ctx *Context

	mu     sync.Mutex
	staged EffectSlotProps

	props *PropSlot[EffectSlotProps]

	// state is the opaque DSP state object bound to this slot, rebuilt by
	// deviceUpdate on every UpdateDeviceParams pass (spec.md §4.F step 11).
	// alcore treats it as opaque; the mixer/DSP layer owns its contents.
	state EffectState
}

// EffectState is the narrow interface a DSP effect implementation exposes
// to alcore, matching spec.md §1's "internal algorithms of reverb, HRTF
// convolution... are out of scope" — alcore only needs to be able to
// rebind an effect's state to a new Dry buffer on reconfiguration.
type EffectState interface {
	DeviceUpdate(dry *MixBufferView) bool
}

func newEffectSlot(id uint64) *EffectSlot {
	e := &EffectSlot{ID: id, props: NewPropSlot[EffectSlotProps](slotPool)}
	e.staged.Gain = 1
	return e
}

// SetGain stages a new slot gain and self-publishes unless suspended.
func (e *EffectSlot) SetGain(gain float32) {
	e.mu.Lock()
	e.staged.Gain = gain
	e.mu.Unlock()
	e.props.MarkDirty()
	if e.ctx != nil {
		e.ctx.selfPublish(e)
	}
}

// BindEffect stages a new effect id and DSP state for this slot and
// self-publishes.
func (e *EffectSlot) BindEffect(effectID uint64, state EffectState) {
	e.mu.Lock()
	e.staged.EffectID = effectID
	e.state = state
	e.mu.Unlock()
	e.props.MarkDirty()
	if e.ctx != nil {
		e.ctx.selfPublish(e)
	}
}

// deviceUpdate rebinds this slot's DSP state to a new Dry buffer view, per
// spec.md §4.F step 11. Returns false if the effect state rejected the new
// format, which the caller folds into update_failed.
func (e *EffectSlot) deviceUpdate(dry *MixBufferView) bool {
	e.mu.Lock()
	state := e.state
	e.mu.Unlock()
	if state == nil {
		return true
	}
	ok := state.DeviceUpdate(dry)
	if ok {
		e.mu.Lock()
		e.staged.DryBufferGen++
		e.mu.Unlock()
		e.props.MarkDirty()
	}
	return ok
}

func (e *EffectSlot) publishIfDirty() {
	e.props.PublishIfDirty(func(dst *EffectSlotProps) {
		e.mu.Lock()
		*dst = e.staged
		e.mu.Unlock()
	})
}

func (e *EffectSlot) consume() bool { return e.props.Consume() }

// Committed returns the mixer-visible effect slot properties.
func (e *EffectSlot) Committed() *EffectSlotProps { return e.props.Committed() }
