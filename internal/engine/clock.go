package engine

import (
	"sync/atomic"
	"time"
)

// Clock is the monotonic logical clock that stamps journal receipts.
//
// Every committed call receives the next seq. Rejected calls never consume
// a seq, so replaying the journal reproduces identical seq values.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
// However, the Engine serializes calls, so only one goroutine advances it
// at a time.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
// Used on reopen to resume from the last journaled receipt.
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

// TimeSource reports the current ledger time in seconds.
//
// The engine never sleeps or polls. It reads the time once per call and
// compares it with the stored schedule.
type TimeSource interface {
	Now() int64
}

// TimeFunc adapts a function to TimeSource.
type TimeFunc func() int64

// Now implements TimeSource.
func (f TimeFunc) Now() int64 { return f() }

// SystemTime reads wall-clock unix seconds. Used by the CLI when no
// explicit ledger time is given.
type SystemTime struct{}

// Now implements TimeSource.
func (SystemTime) Now() int64 { return time.Now().Unix() }
