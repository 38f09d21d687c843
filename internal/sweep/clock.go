package sweep

import "sync/atomic"

// Clock is a monotonic logical clock. Every persisted record is stamped
// with a strictly increasing seq number from it, so replay reproduces the
// exact recording order without wall-clock races.
//
// Thread-safety: atomic; though the runner is single-threaded by design,
// the CLI and tests may share one clock across sweeps.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at a specific sequence number. Used
// when appending to an existing store.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
