package testutil

import "sync"

// DeterministicClock is a resettable seq source for store tests. The first
// Next after construction or Reset returns 1, so the same scenario always
// stamps the same seq values.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the last value handed out.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
