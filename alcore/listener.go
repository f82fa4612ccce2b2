package alcore

import "sync"

// ListenerProps is the property image committed to the mixer for the
// context's single Listener object (spec.md §3).
type ListenerProps struct {
	Position    [3]float32
	Velocity    [3]float32
	OrientAt    [3]float32
	OrientUp    [3]float32
	Gain        float32
	MetersPerUn float32
}

var listenerPool = NewPool[ListenerProps]()

// Listener owns staged state mutated by the application and a committed
// snapshot the mixer reads (spec.md §3, §4.G).
type Listener struct {
	// ctx is set by NewContext right after construction; nil only for
	// listeners built directly via newListener in unit tests.
	ctx *Context

	mu     sync.Mutex // guards staged fields below; producer-side only
	staged ListenerProps

	props *PropSlot[ListenerProps]
}

func newListener() *Listener {
	l := &Listener{props: NewPropSlot[ListenerProps](listenerPool)}
	l.staged.Gain = 1
	l.staged.MetersPerUn = 1
	l.staged.OrientAt = [3]float32{0, 0, -1}
	l.staged.OrientUp = [3]float32{0, 1, 0}
	return l
}

// SetGain stages a new master gain and self-publishes unless suspended.
func (l *Listener) SetGain(gain float32) {
	l.mu.Lock()
	l.staged.Gain = gain
	l.mu.Unlock()
	l.props.MarkDirty()
	if l.ctx != nil {
		l.ctx.selfPublish(l)
	}
}

// SetPosition stages a new listener position and self-publishes.
func (l *Listener) SetPosition(x, y, z float32) {
	l.mu.Lock()
	l.staged.Position = [3]float32{x, y, z}
	l.mu.Unlock()
	l.props.MarkDirty()
	if l.ctx != nil {
		l.ctx.selfPublish(l)
	}
}

// SetOrientation stages the at/up vectors and self-publishes.
func (l *Listener) SetOrientation(at, up [3]float32) {
	l.mu.Lock()
	l.staged.OrientAt = at
	l.staged.OrientUp = up
	l.mu.Unlock()
	l.props.MarkDirty()
	if l.ctx != nil {
		l.ctx.selfPublish(l)
	}
}

func (l *Listener) publishIfDirty() {
	l.props.PublishIfDirty(func(dst *ListenerProps) {
		l.mu.Lock()
		*dst = l.staged
		l.mu.Unlock()
	})
}

func (l *Listener) consume() bool { return l.props.Consume() }

// Committed returns the mixer-visible listener properties.
func (l *Listener) Committed() *ListenerProps { return l.props.Committed() }
