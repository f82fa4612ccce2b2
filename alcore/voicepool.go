package alcore

import (
	"sync"
	"sync/atomic"
)

// VoicePool is the fixed-stride voice array described in spec.md §4.H: the
// mixer thread indexes it directly by position each tick, while
// AllocateVoices (called only from UpdateDeviceParams, never from the mix
// callback) grows or shrinks it via an allocate-copy-swap so the mixer
// never observes a partially-resized array.
//
// The mixer reads the current slice via atomic.Pointer with no lock; a
// resize builds an entirely new backing array, copies forward whatever
// voices still fit, and swaps the pointer — matching spec.md §5's
// requirement that the mix callback never blocks on a producer-side lock.
type VoicePool struct {
	mu      sync.Mutex // serializes concurrent AllocateVoices callers only
	current atomic.Pointer[[]*Voice]
}

// NewVoicePool creates a pool with n freshly allocated, unbound voices.
func NewVoicePool(n int) *VoicePool {
	p := &VoicePool{}
	voices := make([]*Voice, n)
	for i := range voices {
		voices[i] = &Voice{}
	}
	p.current.Store(&voices)
	return p
}

// Voices returns the live voice slice for the mixer to range over. Safe to
// call without locking from the mix thread.
func (p *VoicePool) Voices() []*Voice {
	return *p.current.Load()
}

// Len reports the current pool size.
func (p *VoicePool) Len() int {
	return len(*p.current.Load())
}

// AllocateVoices implements spec.md §4.H step 3's allocate-copy-swap
// resize: build a new array of size n, copy min(old, n) voice pointers
// across so already-bound voices keep their carried-over state, fill any
// newly grown slots with fresh unbound voices, then atomically publish the
// new array. Shrinking silently drops the trailing voices (and whatever
// they were bound to); the caller is responsible for having already
// stopped/reassigned sources bound to a voice about to be dropped, per
// spec.md's invariant that AllocateVoices runs only during a device reset
// with the device already stopped.
func (p *VoicePool) AllocateVoices(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	old := *p.current.Load()
	resized := make([]*Voice, n)
	copyLen := len(old)
	if n < copyLen {
		copyLen = n
	}
	copy(resized, old[:copyLen])
	for i := copyLen; i < n; i++ {
		resized[i] = &Voice{}
	}
	p.current.Store(&resized)
}

// FindBySource returns the voice currently bound to sourceID, if any.
func (p *VoicePool) FindBySource(sourceID uint64) *Voice {
	for _, v := range p.Voices() {
		if v.SourceID == sourceID {
			return v
		}
	}
	return nil
}

// AllocateFor binds the first free (or, failing that, stopped) voice to
// sourceID, matching the C implementation's "steal a stopped voice before
// giving up" allocation order. Returns nil if the pool is fully occupied
// by playing/paused voices.
func (p *VoicePool) AllocateFor(sourceID uint64, numSends int) *Voice {
	voices := p.Voices()
	for _, v := range voices {
		if v.State == VoiceStopped {
			v.bind(sourceID, numSends)
			return v
		}
	}
	return nil
}

// SetState updates the state of the voice already bound to sourceID, used
// by Pause/Resume transitions that don't need a fresh AllocateFor bind.
// It is a no-op if sourceID has no bound voice.
func (p *VoicePool) SetState(sourceID uint64, state VoiceState) {
	if v := p.FindBySource(sourceID); v != nil {
		v.State = state
	}
}

// Release detaches any voice bound to sourceID back to the free pool.
func (p *VoicePool) Release(sourceID uint64) {
	if v := p.FindBySource(sourceID); v != nil {
		v.release()
	}
}
