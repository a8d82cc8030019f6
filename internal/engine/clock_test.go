package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClock_StartsAt(t *testing.T) {
	assert.Equal(t, int64(0), NewClock().Current(), "new clock should start at 0")
	assert.Equal(t, int64(42), NewClockAt(42).Current(), "reopened clock resumes at journal seq")
}

func TestClock_NextIncrements(t *testing.T) {
	c := NewClockAt(7)

	assert.Equal(t, int64(8), c.Next())
	assert.Equal(t, int64(9), c.Next())

	// Current never advances the clock
	assert.Equal(t, int64(9), c.Current())
	assert.Equal(t, int64(9), c.Current())
}

func TestClock_ConcurrentNextIsUnique(t *testing.T) {
	c := NewClock()
	const goroutines = 50
	const perGoroutine = 40

	var wg sync.WaitGroup
	seqs := make(chan int64, goroutines*perGoroutine)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				seqs <- c.Next()
			}
		}()
	}
	wg.Wait()
	close(seqs)

	seen := make(map[int64]bool)
	for seq := range seqs {
		assert.False(t, seen[seq], "seq %d generated twice", seq)
		seen[seq] = true
	}
	assert.Len(t, seen, goroutines*perGoroutine)
}

func TestTimeFunc(t *testing.T) {
	now := int64(100)
	ts := TimeFunc(func() int64 { return now })

	assert.Equal(t, int64(100), ts.Now())
	now = 250
	assert.Equal(t, int64(250), ts.Now())
}

func TestSystemTime_IsUnixSeconds(t *testing.T) {
	// Any time after 2020-01-01 and before year 3000 in seconds.
	now := SystemTime{}.Now()
	assert.Greater(t, now, int64(1577836800))
	assert.Less(t, now, int64(32503680000))
}
