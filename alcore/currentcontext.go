package alcore

import (
	"sync"
	"sync/atomic"
)

// GoroutineID is an opaque per-logical-worker token a caller obtains once
// (e.g. at the top of a worker goroutine) and threads through subsequent
// SetThreadContext/GetContextRef calls. Go exposes no goroutine-local
// storage, so this module substitutes an explicit token for the thread-local
// slot spec.md §4.B describes (documented in DESIGN.md's Open Question
// decisions).
type GoroutineID int64

var goroutineIDSeq atomic.Int64

// NewGoroutineID mints a fresh token; call once per logical worker.
func NewGoroutineID() GoroutineID {
	return GoroutineID(goroutineIDSeq.Add(1))
}

// currentContextState implements spec.md §4.B's two current-context slots:
// a single process-wide slot and a per-"thread" slot consulted first.
type currentContextState struct {
	global atomic.Pointer[Context]

	mu      sync.Mutex
	perGoroutine map[GoroutineID]*Context
}

var currentCtx = currentContextState{perGoroutine: make(map[GoroutineID]*Context)}

// MakeContextCurrent implements alcMakeContextCurrent: it sets the global
// current-context slot and, per spec.md's Open Question decision, always
// clears the calling goroutine's thread-local slot so the global slot takes
// over for that goroutine on its next lookup.
func MakeContextCurrent(gid GoroutineID, ctx *Context) bool {
	currentCtx.global.Store(ctx)
	currentCtx.mu.Lock()
	delete(currentCtx.perGoroutine, gid)
	currentCtx.mu.Unlock()
	return true
}

// SetThreadContext implements alcSetThreadContext: binds ctx to gid's
// thread-local slot without touching the global slot. A nil ctx clears the
// slot, falling back to the global context for that goroutine.
func SetThreadContext(gid GoroutineID, ctx *Context) bool {
	currentCtx.mu.Lock()
	defer currentCtx.mu.Unlock()
	if ctx == nil {
		delete(currentCtx.perGoroutine, gid)
		return true
	}
	currentCtx.perGoroutine[gid] = ctx
	return true
}

// GetContextRef implements alcGetCurrentContext's resolution order: thread-local slot first, falling back to the global
// slot (spec.md §4.B).
func GetContextRef(gid GoroutineID) *Context {
	currentCtx.mu.Lock()
	if c, ok := currentCtx.perGoroutine[gid]; ok {
		currentCtx.mu.Unlock()
		return c
	}
	currentCtx.mu.Unlock()
	return currentCtx.global.Load()
}

// GetThreadContext returns only the thread-local slot's value, or nil if
// unset, without falling back to the global slot.
func GetThreadContext(gid GoroutineID) *Context {
	currentCtx.mu.Lock()
	defer currentCtx.mu.Unlock()
	return currentCtx.perGoroutine[gid]
}
