package alcore

import (
	"sync"
	"sync/atomic"
)

// PropSlot implements the deferred-update/commit protocol of spec.md §4.G
// for one property-bearing object. Producer goroutines mutate the owning
// object's staged copy under its lock and call MarkDirty, then PublishIfDirty to
// hand a snapshot to the mixer; the mixer calls Consume once per tick to
// pull any pending snapshot into the committed image it reads from.
//
// The free-list required by spec.md §5 ("lock-free MPSC stack per object
// class, push by mixer on commit, pop by producer on next publish") is a
// *sync.Pool[*T]: Put/Get on sync.Pool do not block and do not allocate on
// the fast path, which is exactly the property the mixer side needs.
type PropSlot[T any] struct {
	pending   atomic.Pointer[T]
	committed atomic.Pointer[T]
	clean     atomic.Bool
	pool      *sync.Pool
}

// NewPropSlot creates a slot backed by pool, with no pending update and an
// initial committed image of zero.
func NewPropSlot[T any](pool *sync.Pool) *PropSlot[T] {
	s := &PropSlot[T]{pool: pool}
	s.clean.Store(true)
	s.committed.Store(new(T))
	return s
}

// NewPool returns a sync.Pool of *T for use with PropSlot[T].
func NewPool[T any]() *sync.Pool {
	return &sync.Pool{New: func() any { return new(T) }}
}

// MarkDirty clears PropsClean, per spec.md §3/§4.G, so the next Process
// call republishes this object.
func (s *PropSlot[T]) MarkDirty() {
	s.clean.Store(false)
}

// IsClean reports whether a publish is not pending.
func (s *PropSlot[T]) IsClean() bool {
	return s.clean.Load()
}

// publish allocates a fresh block from the pool, fills it, and exchanges it
// into the pending slot, returning the previous pending block (if any) to
// the pool.
func (s *PropSlot[T]) publish(fill func(*T)) {
	block, _ := s.pool.Get().(*T)
	fill(block)
	if old := s.pending.Swap(block); old != nil {
		s.pool.Put(old)
	}
}

// PublishIfDirty performs the test-and-set described in spec.md §4.G step
// 3: if PropsClean was false, atomically mark it clean and publish a fresh
// snapshot built by fill. Returns whether a publish occurred.
func (s *PropSlot[T]) PublishIfDirty(fill func(*T)) bool {
	if !s.clean.CompareAndSwap(false, true) {
		return false
	}
	s.publish(fill)
	return true
}

// ForcePublish publishes unconditionally, used when a structural change
// (send-array resize, device reset) requires a republish regardless of the
// clean flag (spec.md §4.F step 11).
func (s *PropSlot[T]) ForcePublish(fill func(*T)) {
	s.clean.Store(true)
	s.publish(fill)
}

// Consume is called once per mix tick by the mixer thread (spec.md §4.G,
// mixer step 3): atomically take any pending block and, if present, make it
// the committed image, returning the old committed block to the pool.
func (s *PropSlot[T]) Consume() bool {
	next := s.pending.Swap(nil)
	if next == nil {
		return false
	}
	if old := s.committed.Swap(next); old != nil {
		s.pool.Put(old)
	}
	return true
}

// Committed returns the last applied properties, safe to call from the
// mixer thread without locking.
func (s *PropSlot[T]) Committed() *T {
	return s.committed.Load()
}

// Updatable is implemented by every property-bearing node so a Context can
// walk them generically during Process() and during the mixer's per-tick
// consumption pass (spec.md §4.G).
type Updatable interface {
	// publishIfDirty republishes staged properties if PropsClean is false.
	publishIfDirty()
	// consume pulls any pending publish into the committed image.
	consume() bool
}
