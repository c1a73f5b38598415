// Package clock implements the per-room logical clock: a Lamport-style
// counter used to order causally related events deterministically,
// independent of client wall-clock skew.
package clock

import "sync"

// Clock is a monotonic Lamport counter. It is safe for concurrent use,
// though in practice every call happens while the owning room's lock
// is held.
type Clock struct {
	mu      sync.Mutex
	current uint64
}

// New returns a Clock starting at zero.
func New() *Clock {
	return &Clock{}
}

// Tick advances the clock by one and returns the new value.
func (c *Clock) Tick() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current++
	return c.current
}

// Observe merges a client-supplied timestamp: the clock becomes
// max(current, t)+1, and that new value is returned.
func (c *Clock) Observe(t uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t > c.current {
		c.current = t
	}
	c.current++
	return c.current
}

// Current returns the current value without advancing the clock.
func (c *Clock) Current() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}
