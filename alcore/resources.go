package alcore

import (
	"strings"
	"sync"
)

// MixBufferView exposes the per-channel scratch buffers an EffectSlot's DSP
// state renders into, without exposing the mixer's internal allocation
// bookkeeping (spec.md §4.F step 11, §1 boundary: DSP algorithms are out of
// scope, but the buffer they render into is alcore's to own).
type MixBufferView struct {
	Channels [][]float32
	Format   AudioFormat
}

// Buffer holds decoded PCM samples an application has uploaded, referenced
// by Source.BufferID (spec.md §3). alcore only tracks metadata and a
// reference count; sample storage/decoding is out of scope (§1).
type Buffer struct {
	ID uint64

	mu       sync.Mutex
	frames   int
	format   AudioFormat
	data     []byte
	refCount int
}

func newBuffer(id uint64) *Buffer {
	return &Buffer{ID: id}
}

// SetData stages new PCM data and format, rejecting the call while the
// buffer is in use by a source (mirrors AL_INVALID_OPERATION on a bound
// buffer in the original API).
func (b *Buffer) SetData(data []byte, format AudioFormat, frames int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.refCount > 0 {
		return false
	}
	b.data = data
	b.format = format
	b.frames = frames
	return true
}

func (b *Buffer) addRef(delta int) {
	b.mu.Lock()
	b.refCount += delta
	b.mu.Unlock()
}

// RefCount returns the number of sources currently bound to this buffer.
func (b *Buffer) RefCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refCount
}

// Frames returns the decoded frame count.
func (b *Buffer) Frames() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames
}

// FilterType selects the two-pole filter shape applied on a Source's send
// path (spec.md §3, glossary "Filter").
type FilterType int

const (
	FilterNone FilterType = iota
	FilterLowpass
	FilterHighpass
	FilterBandpass
)

// Filter is a lightweight parameter block referenced by SourceSend.FilterID.
// Unlike Source/Listener/EffectSlot it has no mixer-visible commit protocol
// of its own: its values are copied wholesale into the owning SourceSend
// entry when staged, so it rides that object's PropSlot instead of needing
// one of its own (spec.md §4.G note on "small, copyable parameter blocks").
type Filter struct {
	ID uint64

	mu     sync.Mutex
	Kind   FilterType
	Gain   float32
	GainHF float32
	GainLF float32
}

func newFilter(id uint64) *Filter {
	return &Filter{ID: id, Gain: 1, GainHF: 1, GainLF: 1}
}

// Snapshot returns a value copy safe to embed in a staged SourceSend.
func (f *Filter) Snapshot() Filter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Filter{ID: f.ID, Kind: f.Kind, Gain: f.Gain, GainHF: f.GainHF, GainLF: f.GainLF}
}

// EffectType names the DSP algorithm an Effect resource configures. The
// algorithms themselves are out of scope (spec.md §1); alcore only needs
// enough of a type tag to route CreateEffectState's construction and to
// reject slot/effect kind mismatches the way AL_INVALID_OPERATION does.
type EffectType int

const (
	EffectNull EffectType = iota
	EffectReverb
	EffectChorus
	EffectEcho
	EffectDistortion
)

// Effect is a parameter block describing one DSP algorithm instance,
// bound into an EffectSlot via EffectSlot.BindEffect.
type Effect struct {
	ID uint64

	mu     sync.Mutex
	Kind   EffectType
	Params map[Token]float32
}

func newEffect(id uint64) *Effect {
	return &Effect{ID: id, Params: make(map[Token]float32)}
}

// CurrentKind reads back the effect's DSP algorithm type under the same
// lock SetKind writes through.
func (e *Effect) CurrentKind() EffectType {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Kind
}

// SetKind stages the effect's DSP algorithm type directly, with no
// exclusion check; Context.BindEffectKind is the entry point that enforces
// the "excludefx" config key (spec.md §6) before calling this.
func (e *Effect) SetKind(kind EffectType) {
	e.mu.Lock()
	e.Kind = kind
	e.mu.Unlock()
}

// effectTypeByName maps the config-file effect names alc.cpp's
// EffectList table uses (alc.cpp:1139-1150) to this module's EffectType
// enum, for resolving the "excludefx" and "default-reverb" config keys.
func effectTypeByName(name string) (EffectType, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "reverb", "eaxreverb":
		return EffectReverb, true
	case "chorus":
		return EffectChorus, true
	case "echo":
		return EffectEcho, true
	case "distortion":
		return EffectDistortion, true
	default:
		return EffectNull, false
	}
}

// SetParam stages one named effect parameter.
func (e *Effect) SetParam(tok Token, val float32) {
	e.mu.Lock()
	e.Params[tok] = val
	e.mu.Unlock()
}

// Param reads back a staged parameter, defaulting to 0 if unset.
func (e *Effect) Param(tok Token) float32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Params[tok]
}
