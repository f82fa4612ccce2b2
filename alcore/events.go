package alcore

import (
	"encoding/binary"
	"sync"

	"github.com/smallnest/ringbuffer"
)

// EventType classifies an async notification delivered to a context's
// event consumer (spec.md §3/§5's "async-event thread").
type EventType uint8

const (
	EventDisconnected EventType = iota
	EventSourceStateChanged
	EventBufferCompleted
	EventError
)

// Event is one fixed-width record placed on a context's event ring.
type Event struct {
	Type     EventType
	SourceID uint64
	State    SourceState
	Code     ErrCode
}

const eventRecordSize = 1 + 8 + 8 + 8 // Type, SourceID, State(as int64), Code(as int64)

// eventRing is the per-context single-producer/single-consumer async
// event queue: the mixer thread (producer) enqueues without blocking, and
// a dedicated consumer goroutine drains it and invokes the application's
// callback, matching spec.md §5's constraint that the mixer never blocks
// on application code. Grounded on pkg/myaudio/ringbuffer.go's
// ringbuffer.New(capacity)/Write/Read usage.
type eventRing struct {
	mu  sync.Mutex
	buf *ringbuffer.RingBuffer
}

func newEventRing(capacity int) *eventRing {
	return &eventRing{buf: ringbuffer.New(capacity * eventRecordSize)}
}

// Push encodes and enqueues ev, silently dropping it if the ring is full
// rather than blocking the producer (spec.md §5).
func (r *eventRing) Push(ev Event) {
	var rec [eventRecordSize]byte
	rec[0] = byte(ev.Type)
	binary.LittleEndian.PutUint64(rec[1:9], ev.SourceID)
	binary.LittleEndian.PutUint64(rec[9:17], uint64(ev.State))
	binary.LittleEndian.PutUint64(rec[17:25], uint64(ev.Code))

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.buf.Free() < eventRecordSize {
		return
	}
	_, _ = r.buf.Write(rec[:])
}

// Pop dequeues one event, returning ok=false if the ring is empty.
func (r *eventRing) Pop() (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.buf.Length() < eventRecordSize {
		return Event{}, false
	}
	var rec [eventRecordSize]byte
	if _, err := r.buf.Read(rec[:]); err != nil {
		return Event{}, false
	}
	return Event{
		Type:     EventType(rec[0]),
		SourceID: binary.LittleEndian.Uint64(rec[1:9]),
		State:    SourceState(binary.LittleEndian.Uint64(rec[9:17])),
		Code:     ErrCode(binary.LittleEndian.Uint64(rec[17:25])),
	}, true
}

// EventCallback receives events drained from a context's ring on its
// dedicated consumer goroutine.
type EventCallback func(Event)

// eventConsumer runs the per-context async-event thread of spec.md §5,
// draining ring and invoking cb until stop is closed.
func eventConsumer(ring *eventRing, cb EventCallback, stop <-chan struct{}, wake <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-wake:
		}
		for {
			ev, ok := ring.Pop()
			if !ok {
				break
			}
			if cb != nil {
				cb(ev)
			}
		}
	}
}
