package alcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetContextRefFallsBackToGlobalWhenNoThreadLocal(t *testing.T) {
	gid := NewGoroutineID()
	ctx := &Context{DiagnosticID: "global-ctx"}
	MakeContextCurrent(gid, ctx)

	assert.Same(t, ctx, GetContextRef(gid))
	assert.Nil(t, GetThreadContext(gid), "MakeContextCurrent must not populate the thread-local slot")
}

func TestSetThreadContextTakesPriorityOverGlobal(t *testing.T) {
	gid := NewGoroutineID()
	globalCtx := &Context{DiagnosticID: "global"}
	localCtx := &Context{DiagnosticID: "local"}

	MakeContextCurrent(gid, globalCtx)
	SetThreadContext(gid, localCtx)

	assert.Same(t, localCtx, GetContextRef(gid))
	assert.Same(t, globalCtx, currentCtx.global.Load())
}

func TestSetThreadContextNilClearsSlotFallingBackToGlobal(t *testing.T) {
	gid := NewGoroutineID()
	globalCtx := &Context{DiagnosticID: "global"}
	localCtx := &Context{DiagnosticID: "local"}

	MakeContextCurrent(gid, globalCtx)
	SetThreadContext(gid, localCtx)
	SetThreadContext(gid, nil)

	assert.Same(t, globalCtx, GetContextRef(gid))
}

func TestMakeContextCurrentClearsCallingGoroutinesThreadLocal(t *testing.T) {
	gid := NewGoroutineID()
	first := &Context{DiagnosticID: "first"}
	second := &Context{DiagnosticID: "second"}

	SetThreadContext(gid, first)
	MakeContextCurrent(gid, second)

	assert.Nil(t, GetThreadContext(gid))
	assert.Same(t, second, GetContextRef(gid))
}

func TestNewGoroutineIDsAreUnique(t *testing.T) {
	a := NewGoroutineID()
	b := NewGoroutineID()
	assert.NotEqual(t, a, b)
}
