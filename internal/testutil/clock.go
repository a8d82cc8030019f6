package testutil

import (
	"fmt"
	"sync"
	"time"
)

// ManualClock is a ledger time source advanced explicitly by tests.
//
// Time never moves on its own, so a scenario that sets t=6d and calls
// endRound observes exactly t=6d.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ManualClock struct {
	mu  sync.Mutex
	now int64
}

// NewManualClock creates a clock reading start (seconds).
func NewManualClock(start int64) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current ledger time in seconds.
//
// Implements engine.TimeSource.
func (c *ManualClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t. Ledger time is monotonic, so moving backwards
// is an error.
func (c *ManualClock) Set(t int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t < c.now {
		return fmt.Errorf("clock cannot move backwards: %d -> %d", c.now, t)
	}
	c.now = t
	return nil
}

// Advance moves the clock forward by d, truncated to whole seconds.
// Negative durations are an error.
func (c *ManualClock) Advance(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("cannot advance by negative duration %s", d)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += int64(d / time.Second)
	return nil
}
