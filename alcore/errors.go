package alcore

import (
	"sync"
	"sync/atomic"

	ierrors "github.com/HuxyUK/openal-soft/internal/errors"
	"github.com/HuxyUK/openal-soft/internal/logging"
)

// ErrCode is one of the five wire-level codes from spec.md §6/§7.
type ErrCode int

const (
	NoError ErrCode = iota
	InvalidDevice
	InvalidContext
	InvalidEnum
	InvalidValue
	OutOfMemory
)

func (c ErrCode) String() string {
	switch c {
	case NoError:
		return "NO_ERROR"
	case InvalidDevice:
		return "INVALID_DEVICE"
	case InvalidContext:
		return "INVALID_CONTEXT"
	case InvalidEnum:
		return "INVALID_ENUM"
	case InvalidValue:
		return "INVALID_VALUE"
	case OutOfMemory:
		return "OUT_OF_MEMORY"
	default:
		return "UNKNOWN_ERROR"
	}
}

// classify maps an *ierrors.EnhancedError category to one of the five wire
// codes. Anything uncategorized collapses to InvalidValue, matching the
// teacher's own "unknown falls back to a safe generic bucket" convention.
func classify(err *ierrors.EnhancedError) ErrCode {
	if err == nil {
		return NoError
	}
	switch err.Category {
	case ierrors.CategoryHandle:
		return InvalidDevice
	case ierrors.CategoryValidation:
		return InvalidValue
	case ierrors.CategoryResource, ierrors.CategoryLimit:
		return OutOfMemory
	case ierrors.CategoryBackend, ierrors.CategoryState:
		return InvalidDevice
	default:
		return InvalidValue
	}
}

// errorLatch is a per-device (or process-wide) LastError slot, per spec.md
// §7: "Errors are latched per device (or per process if no device) in
// LastError; GetError reads-and-clears."
type errorLatch struct {
	mu      sync.Mutex
	code    ErrCode
	enh     *ierrors.EnhancedError
	trapped atomic.Bool
}

// SetTrap configures whether setting a non-NoError code should also invoke a
// developer trap (spec.md §7's "optional developer trap paths").
func (l *errorLatch) SetTrap(enabled bool) {
	l.trapped.Store(enabled)
}

// Set latches err (wrapped in an EnhancedError for logging/context) and
// returns the wire code assigned.
func (l *errorLatch) Set(err *ierrors.EnhancedError) ErrCode {
	code := classify(err)
	l.mu.Lock()
	l.code = code
	l.enh = err
	l.mu.Unlock()

	if err != nil {
		logging.ForComponent(err.Component).Warn("alc error latched",
			"code", code.String(), "category", string(err.Category), "context", err.GetContext())
	}
	if code != NoError && l.trapped.Load() {
		debugTrap()
	}
	return code
}

// Get reads and clears the latch, per spec.md §7.
func (l *errorLatch) Get() ErrCode {
	l.mu.Lock()
	defer l.mu.Unlock()
	code := l.code
	l.code = NoError
	l.enh = nil
	return code
}

// Peek reads without clearing, used internally for diagnostics/tests.
func (l *errorLatch) Peek() ErrCode {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.code
}

// processLatch is used when there is no device to latch against (e.g. a
// nil-device call), per spec.md §7.
var processLatch errorLatch

// debugTrap is a no-op hook a debug build can replace to break into a
// debugger when a trapped error fires.
var debugTrap = func() {}
