package alcore

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/HuxyUK/openal-soft/internal/logging"
	"github.com/HuxyUK/openal-soft/internal/metrics"
)

// Context is a per-application-session object graph: one Listener, a pool
// of Sources, a set of EffectSlots (including a default slot), and the
// Buffers/Filters/Effects it has created (spec.md §3, §4.E). Multiple
// contexts may share one Device, each with its own voice pool.
type Context struct {
	DiagnosticID string

	device *Device

	Listener *Listener
	voices   *VoicePool

	mu       sync.Mutex
	sources  map[uint64]*Source
	slots    map[uint64]*EffectSlot
	buffers  map[uint64]*Buffer
	filters  map[uint64]*Filter
	effects  map[uint64]*Effect
	nextID   uint64
	numSends int

	defaultSlot *EffectSlot

	excludedEffects map[EffectType]bool

	// suspendDepth implements the batching of alcSuspendContext/
	// alcProcessContext (spec.md §4.E): while > 0, Process() calls made by
	// nested pairs are no-ops, and the final matching Process() flushes all
	// staged updates in one pass.
	suspendDepth int

	// propMu is PropLock (spec.md §5's lock order): it serializes concurrent
	// publishDirty brackets so two Process()/selfPublish() callers never
	// interleave their HoldUpdates set/spin/clear sequence.
	propMu sync.Mutex
	// mixCount is the mix-generation counter of spec.md §4.G/§8: even while
	// quiescent, odd for the duration of a mix tick. A producer wanting to
	// publish a batch spins until it observes an even count before touching
	// any object's pending block, guaranteeing the batch lands in exactly
	// one tick rather than being split across two.
	mixCount atomic.Uint32
	// holdUpdates tells mixTick to skip its consume pass entirely for the
	// tick, leaving the previous committed image in place while a producer
	// is mid-publish (spec.md §4.G).
	holdUpdates atomic.Bool

	events    *eventRing
	eventStop chan struct{}
	eventWake chan struct{}

	renderer     Renderer
	postProc     PostProcessor
	limiter      OutputLimiter
	dither       ditherState
	volumeAdjust float32
	reverbBoost  float32
}

// NewContext implements alcCreateContext: allocate the object graph for a
// device already open (but not necessarily yet parameterized — the first
// UpdateDeviceParams call may still be pending), per spec.md §4.E.
func NewContext(d *Device, numSends int) *Context {
	c := &Context{
		DiagnosticID: uuid.NewString(),
		device:       d,
		Listener:     newListener(),
		voices:       NewVoicePool(DefaultVoices),
		sources:      make(map[uint64]*Source),
		slots:        make(map[uint64]*EffectSlot),
		buffers:      make(map[uint64]*Buffer),
		filters:      make(map[uint64]*Filter),
		effects:      make(map[uint64]*Effect),
		numSends:     numSends,
		events:       newEventRing(256),
		eventStop:    make(chan struct{}),
		eventWake:    make(chan struct{}, 1),
		renderer:     newReferenceRenderer(),
		postProc:     selectPostProcess(d.Format, false),
		limiter:      newOutputLimiter(false),
		volumeAdjust: 1,
		reverbBoost:  1,
	}
	c.Listener.ctx = c
	c.nextID = 1
	c.defaultSlot = c.createEffectSlotLocked()
	d.addContext(c)
	return c
}

// Device implements alcGetContextsDevice: the device a context was created
// against never changes over the context's lifetime.
func (c *Context) Device() *Device {
	return c.device
}

// StartEventConsumer launches the per-context async-event thread of
// spec.md §5, invoking cb for every event pushed by the mixer.
func (c *Context) StartEventConsumer(cb EventCallback) {
	go eventConsumer(c.events, cb, c.eventStop, c.eventWake)
}

func (c *Context) wakeEvents() {
	select {
	case c.eventWake <- struct{}{}:
	default:
	}
}

func (c *Context) notifyDisconnected() {
	c.events.Push(Event{Type: EventDisconnected})
	c.wakeEvents()
}

// DestroyContext implements alcDestroyContext: tears down the event
// consumer and removes the context from its device (spec.md §4.E). Any
// current-context slots still pointing at ctx are left dangling, matching
// spec.md's documented behaviour that MakeContextCurrent(nil) is the
// caller's responsibility before destruction.
func (c *Context) DestroyContext() {
	close(c.eventStop)
	c.device.removeContext(c)
	logging.ForComponent("alcore.context").Info("context destroyed", "context", c.DiagnosticID)
}

func (c *Context) nextHandle() uint64 {
	return atomic.AddUint64(&c.nextID, 1) - 1
}

// CreateSource implements alGenSources' per-source allocation.
func (c *Context) CreateSource() *Source {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := newSource(c.nextHandle(), c.numSends)
	s.ctx = c
	c.sources[s.ID] = s
	return s
}

// DeleteSource implements alDeleteSources, releasing any voice bound to
// the source and any buffer reference it held.
func (c *Context) DeleteSource(id uint64) bool {
	c.mu.Lock()
	s, ok := c.sources[id]
	if ok {
		delete(c.sources, id)
	}
	c.mu.Unlock()
	if !ok {
		return false
	}
	c.voices.Release(id)
	if bufID := s.Committed().BufferID; bufID != 0 {
		if buf, ok := c.buffers[bufID]; ok {
			buf.addRef(-1)
		}
	}
	return true
}

// Source looks up a source by handle.
func (c *Context) Source(id uint64) (*Source, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sources[id]
	return s, ok
}

// CreateEffectSlot implements alGenAuxiliaryEffectSlots.
func (c *Context) CreateEffectSlot() *EffectSlot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.createEffectSlotLocked()
}

func (c *Context) createEffectSlotLocked() *EffectSlot {
	e := newEffectSlot(c.nextHandle())
	e.ctx = c
	c.slots[e.ID] = e
	return e
}

// DeleteEffectSlot implements alDeleteAuxiliaryEffectSlots. The default
// slot created by NewContext cannot be deleted.
func (c *Context) DeleteEffectSlot(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.defaultSlot != nil && c.defaultSlot.ID == id {
		return false
	}
	if _, ok := c.slots[id]; !ok {
		return false
	}
	delete(c.slots, id)
	return true
}

// CreateBuffer implements alGenBuffers.
func (c *Context) CreateBuffer() *Buffer {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := newBuffer(c.nextHandle())
	c.buffers[b.ID] = b
	return b
}

// CreateFilter implements alGenFilters.
func (c *Context) CreateFilter() *Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := newFilter(c.nextHandle())
	c.filters[f.ID] = f
	return f
}

// CreateEffect implements alGenEffects.
func (c *Context) CreateEffect() *Effect {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := newEffect(c.nextHandle())
	c.effects[e.ID] = e
	return e
}

// EffectiveSlotGain returns slot's committed gain scaled by the
// "reverb"/"boost" config key (spec.md §6) when the slot is currently bound
// to a reverb effect, grounded on alc.cpp:1036's
// ConfigValueFloat(nullptr, "reverb", "boost", ...) device-wide reverb trim.
func (c *Context) EffectiveSlotGain(slot *EffectSlot) float32 {
	if slot == nil {
		return 0
	}
	gain := slot.Committed().Gain
	effectID := slot.Committed().EffectID
	c.mu.Lock()
	effect := c.effects[effectID]
	boost := c.reverbBoost
	c.mu.Unlock()
	if effect != nil && boost != 0 && effect.CurrentKind() == EffectReverb {
		gain *= boost
	}
	return gain
}

// ensureDefaultReverb implements alc.cpp's process-wide DefaultEffect
// (InitEffect + LoadReverbPreset at alc.cpp:1155-1160): when "default-reverb"
// names a preset and the context's default slot has nothing bound yet, a
// reverb effect is created and bound to it. Loading the named preset's
// actual coefficient values is DSP-internals out of scope (spec.md §1); the
// effect is left at its zero-value parameters.
func (c *Context) ensureDefaultReverb() {
	c.mu.Lock()
	slot := c.defaultSlot
	c.mu.Unlock()
	if slot == nil || slot.Committed().EffectID != 0 {
		return
	}
	effect := c.CreateEffect()
	if !c.BindEffectKind(effect, EffectReverb) {
		return
	}
	slot.BindEffect(effect.ID, nil)
}

// BindEffectKind implements the effect-type half of alEffecti(effect,
// AL_EFFECT_TYPE, ...): it assigns kind to e unless the "excludefx" config
// key (spec.md §6) named it, mirroring alc.cpp's DisabledEffects table
// check before an effect type is allowed to bind.
func (c *Context) BindEffectKind(e *Effect, kind EffectType) bool {
	c.mu.Lock()
	excluded := c.excludedEffects[kind]
	c.mu.Unlock()
	if excluded {
		return false
	}
	e.SetKind(kind)
	return true
}

// updatables returns every property-bearing node this context owns, for
// the bulk publish pass in Process().
func (c *Context) updatables() []Updatable {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Updatable, 0, len(c.sources)+len(c.slots)+1)
	out = append(out, c.Listener)
	for _, s := range c.sources {
		out = append(out, s)
	}
	for _, e := range c.slots {
		out = append(out, e)
	}
	return out
}

// Suspend implements alcSuspendContext: increments the batching depth so
// intermediate Process() calls made while paired are suppressed (spec.md
// §4.E).
func (c *Context) Suspend() {
	c.mu.Lock()
	c.suspendDepth++
	c.mu.Unlock()
}

// Process implements alcProcessContext: decrements the batching depth (if
// currently suspended) and, once it reaches zero, publishes every dirty
// object's staged properties in one pass so the mixer sees a consistent
// batch on its next tick (spec.md §4.E, §4.G).
func (c *Context) Process() {
	c.mu.Lock()
	if c.suspendDepth > 0 {
		c.suspendDepth--
		if c.suspendDepth > 0 {
			c.mu.Unlock()
			return
		}
	}
	c.mu.Unlock()

	c.publishDirty(c.updatables())
}

// MixCount returns the mix-generation counter (spec.md §8): even outside a
// tick, odd for the duration of one. Exposed for the seqlock-style
// "before < after, both transitions +1" property tests exercise directly.
func (c *Context) MixCount() uint32 {
	return c.mixCount.Load()
}

// publishDirty implements the HoldUpdates bracket of spec.md §4.G, grounded
// on original_source/Alc/alc.cpp:1489-1490's ALCcontext_DeferUpdates /
// ALCcontext_ProcessUpdates pair: set HoldUpdates so any tick that starts
// while we're mid-publish skips its consume pass, spin until the mixer
// isn't currently between its own two MixCount bumps, publish every object
// in objs, then clear HoldUpdates so the next tick picks the whole batch up
// together. PropLock (propMu) keeps two callers from interleaving this.
func (c *Context) publishDirty(objs []Updatable) {
	c.propMu.Lock()
	defer c.propMu.Unlock()

	c.holdUpdates.Store(true)
	for c.mixCount.Load()&1 != 0 {
		runtime.Gosched()
	}
	for _, u := range objs {
		u.publishIfDirty()
	}
	c.holdUpdates.Store(false)
}

// selfPublish implements the immediate-effect half of spec.md §4.G: per
// alc.cpp's comment on ALCcontext_DeferUpdates, DeferUpdates "does *NOT*
// stop mixing, but rather prevents *certain* property changes from taking
// effect" — meaning a property write takes effect right away unless the
// context is currently suspended, in which case it waits for the Process()
// call that matches the outstanding Suspend().
func (c *Context) selfPublish(u Updatable) {
	c.mu.Lock()
	suspended := c.suspendDepth > 0
	c.mu.Unlock()
	if suspended {
		return
	}
	c.publishDirty([]Updatable{u})
}

// mixTick is invoked once per update period by the device driving this
// context (spec.md §5's mixer thread): bump MixCount to odd, consume every
// dirty commit unless a producer currently holds updates, mix, advance the
// clock, then bump MixCount back to even. Each tick locks c.mu and builds a
// fresh slice of updatables for the consume pass, and records its metrics
// through the Prometheus vectors directly, so a tick can allocate and can
// wait on a producer holding c.mu.
func (c *Context) mixTick(out []byte, numFrames int) {
	c.mixCount.Add(1)
	if !c.holdUpdates.Load() {
		for _, u := range c.updatables() {
			u.consume()
		}
	}

	c.renderer.MixData(out, numFrames, c.device.Format, c.voices, c.Listener, c.volumeAdjust)
	if c.limiter != nil && c.limiter.Enabled() {
		// The reference renderer writes silence directly to out; the
		// limiter stage is exercised on the float mix path in tests that
		// construct their own [][]float32 buffers via Renderer.
		_ = c.limiter
	}

	c.device.clock.Advance(numFrames)
	metrics.Global().RecordMixTick(c.device.DiagnosticID)
	active := 0
	for _, v := range c.voices.Voices() {
		if v.State == VoicePlaying {
			active++
		}
	}
	metrics.Global().SetActiveVoices(c.DiagnosticID, active)
	c.mixCount.Add(1)
}

// syncVoiceState implements spec.md §3's invariant that "a source in
// Playing state is bound to at most one voice" (§4.H): called whenever a
// Source's SetState transitions it, so alSourcePlay/Pause/Stop actually
// reach the voice pool instead of only staging a property write. Grounded
// on UpdateDeviceParams' own existing AllocateFor/Release call sites
// (negotiate.go), which this reuses rather than duplicates.
func (c *Context) syncVoiceState(s *Source, state SourceState) {
	switch state {
	case SourcePlaying:
		if v := c.voices.FindBySource(s.ID); v != nil {
			c.voices.SetState(s.ID, VoicePlaying)
			return
		}
		c.mu.Lock()
		numSends := c.numSends
		c.mu.Unlock()
		c.voices.AllocateFor(s.ID, numSends)
	case SourcePaused:
		c.voices.SetState(s.ID, VoicePaused)
	case SourceStopped, SourceInitial:
		c.voices.Release(s.ID)
	}
}

// resizeSends implements spec.md §4.F step 11's per-source send-array
// resize, invoked by UpdateDeviceParams when NumAuxSends changes.
func (c *Context) resizeSends(newCount int) {
	c.mu.Lock()
	c.numSends = newCount
	sources := make([]*Source, 0, len(c.sources))
	for _, s := range c.sources {
		sources = append(sources, s)
	}
	c.mu.Unlock()
	for _, s := range sources {
		s.resizeSends(newCount)
		s.forcePublish()
	}
}
