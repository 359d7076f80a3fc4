package lamport

import "sync"

// LamportClock is an in-memory implementation of the Clock interface.
//
// Every read and update happens under the same lock, so Tick and Observe
// never interleave and no caller sees a value that is being replaced.
type LamportClock struct {
	mu   sync.Mutex
	time Time
}

// NewLamportClock creates a new Clock starting at time 0.
func NewLamportClock() Clock {
	return &LamportClock{}
}

func (c *LamportClock) Time() Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.time
}

func (c *LamportClock) Tick() Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.time++
	return c.time
}

func (c *LamportClock) Observe(remote Time) Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.time = max(c.time, remote) + 1
	return c.time
}
