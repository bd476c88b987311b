package store

import "sync/atomic"

// SeqClock is the default Clock: an atomic counter.
type SeqClock struct {
	seq atomic.Int64
}

// NewClockAt returns a clock whose next value is start+1.
func NewClockAt(start int64) *SeqClock {
	c := &SeqClock{}
	c.seq.Store(start)
	return c
}

func (c *SeqClock) Next() int64 {
	return c.seq.Add(1)
}
