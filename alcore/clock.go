package alcore

import "sync/atomic"

// deviceClock implements the seqlock-based clock of spec.md §4.F step 2 /
// §5: the mixer thread updates base+samples once per tick with a plain
// atomic swap (single writer, no contention on the write side), and any
// number of reader goroutines can read a consistent (base, samples,
// frequency) triple without blocking the mixer.
//
// A true seqlock (odd/even sequence counter, retry-on-torn-read) is
// unnecessary here because base and samples are packed into one struct and
// published behind a single atomic.Pointer swap: readers either see the
// old struct or the new one, never a torn mix of both.
type deviceClock struct {
	state atomic.Pointer[clockState]
}

type clockState struct {
	baseNanos int64 // wall-clock nanoseconds corresponding to samplesAtBase
	samples   int64 // total frames rendered as of baseNanos
	frequency int
}

func newDeviceClock(frequency int) *deviceClock {
	c := &deviceClock{}
	c.state.Store(&clockState{frequency: frequency})
	return c
}

// UpdateClockBase rebases the clock at a device reset or resume, per
// spec.md §4.F step 2: nowNanos becomes the new zero point for future
// sample-count-derived timestamps.
func (c *deviceClock) UpdateClockBase(nowNanos int64, frequency int) {
	c.state.Store(&clockState{baseNanos: nowNanos, samples: 0, frequency: frequency})
}

// Advance is called once per mix tick with the number of frames just
// rendered, keeping the readable sample count current.
func (c *deviceClock) Advance(frames int) {
	old := c.state.Load()
	next := &clockState{baseNanos: old.baseNanos, samples: old.samples + int64(frames), frequency: old.frequency}
	c.state.Store(next)
}

// NowNanos returns the current device-clock time, extrapolated from the
// last committed sample count at the device's sample rate (spec.md §5's
// "device clock" query).
func (c *deviceClock) NowNanos() int64 {
	s := c.state.Load()
	if s.frequency == 0 {
		return s.baseNanos
	}
	elapsedNanos := s.samples * 1_000_000_000 / int64(s.frequency)
	return s.baseNanos + elapsedNanos
}

// SampleCount returns the total number of frames rendered since the last
// UpdateClockBase call.
func (c *deviceClock) SampleCount() int64 {
	return c.state.Load().samples
}
