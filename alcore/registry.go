package alcore

import (
	"sync"
	"sync/atomic"
)

// registry is the process-wide device list of spec.md §4.A: every open
// Device is tracked here so that a Context/Device handle received from a
// caller can be verified before use, and so the live device list can be
// enumerated (snapshot) without a caller having kept its own list.
//
// Go's sync.Mutex is not reentrant, unlike the recursive ListLock spec.md
// describes; ownerGoroutine lets a goroutine that already holds the lock
// re-enter without deadlocking (documented in DESIGN.md's Open Question
// decisions).
type registry struct {
	mu            sync.Mutex
	ownerGoroutine atomic.Int64 // 0 = unheld; goroutine ids are opaque tokens the caller supplies
	depth         int

	devices []*Device
}

var globalRegistry registry

// lock acquires the list lock, tolerating re-entry by the same logical
// owner token (spec.md §4.A "recursive ListLock").
func (r *registry) lock(owner int64) {
	if owner != 0 && r.ownerGoroutine.Load() == owner {
		r.depth++
		return
	}
	r.mu.Lock()
	r.ownerGoroutine.Store(owner)
	r.depth = 1
}

func (r *registry) unlock() {
	r.depth--
	if r.depth > 0 {
		return
	}
	r.ownerGoroutine.Store(0)
	r.mu.Unlock()
}

// register adds a newly opened device to the process-wide list.
func (r *registry) register(d *Device, owner int64) {
	r.lock(owner)
	defer r.unlock()
	r.devices = append(r.devices, d)
}

// unregister removes a device (on CloseDevice) from the process-wide list.
func (r *registry) unregister(d *Device, owner int64) {
	r.lock(owner)
	defer r.unlock()
	for i, dev := range r.devices {
		if dev == d {
			r.devices = append(r.devices[:i], r.devices[i+1:]...)
			return
		}
	}
}

// verifyDevice reports whether d is still a live, registered device,
// implementing the handle-verification half of spec.md §4.A.
func (r *registry) verifyDevice(d *Device, owner int64) bool {
	if d == nil {
		return false
	}
	r.lock(owner)
	defer r.unlock()
	for _, dev := range r.devices {
		if dev == d {
			return true
		}
	}
	return false
}

// verifyContext reports whether c is a context belonging to some live
// registered device, by scanning every device's context list — spec.md
// §4.A: "a context is verified by checking it is present in one of the
// verified devices' context lists."
func (r *registry) verifyContext(c *Context, owner int64) bool {
	if c == nil {
		return false
	}
	r.lock(owner)
	defer r.unlock()
	for _, dev := range r.devices {
		if dev.hasContext(c) {
			return true
		}
	}
	return false
}

// snapshot returns a copy of the current device list, so a caller can walk
// every device without holding the list lock while taking per-device locks.
// Nothing in this package calls it.
func (r *registry) snapshot(owner int64) []*Device {
	r.lock(owner)
	defer r.unlock()
	out := make([]*Device, len(r.devices))
	copy(out, r.devices)
	return out
}
