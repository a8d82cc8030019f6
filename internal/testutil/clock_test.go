package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/idauction/internal/engine"
)

var _ engine.TimeSource = (*ManualClock)(nil)

func TestManualClock_SetAndAdvance(t *testing.T) {
	c := NewManualClock(100)
	assert.Equal(t, int64(100), c.Now())

	require.NoError(t, c.Set(500))
	assert.Equal(t, int64(500), c.Now())

	require.NoError(t, c.Advance(6*24*time.Hour))
	assert.Equal(t, int64(500+6*86400), c.Now())

	// Sub-second durations truncate.
	require.NoError(t, c.Advance(1500*time.Millisecond))
	assert.Equal(t, int64(500+6*86400+1), c.Now())
}

func TestManualClock_Monotonic(t *testing.T) {
	c := NewManualClock(100)

	assert.Error(t, c.Set(99))
	assert.Error(t, c.Advance(-time.Second))
	assert.Equal(t, int64(100), c.Now(), "failed moves leave the clock alone")

	assert.NoError(t, c.Set(100), "setting the same time is allowed")
}

func TestManualClock_ThreadSafe(t *testing.T) {
	c := NewManualClock(0)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = c.Advance(time.Second)
				_ = c.Now()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1000), c.Now())
}
