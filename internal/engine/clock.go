package engine

import "sync/atomic"

// Clock is the monotonic logical clock that orders events.
//
// Every emitted event is stamped with a strictly increasing seq number
// from this clock. This ensures:
// - Deterministic ordering (no wall-clock race conditions)
// - Replayed runs produce identical event order
// - Causal relationships are explicit in traces
//
// Thread-safety: Clock is safe for concurrent use (atomic operations),
// so events may be stamped from any goroutine even though the engine
// itself is single-threaded.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
// Calls are linearizable - each call returns a unique, increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
