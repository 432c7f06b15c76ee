package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sync/errgroup"
)

func TestClock_StartsAtZero(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current(), "Current does not advance")
}

func TestClock_ResumesAfterJournal(t *testing.T) {
	c := NewClockAt(41)
	assert.Equal(t, int64(42), c.Next())
}

func TestClock_ConcurrentNextIsUnique(t *testing.T) {
	c := NewClock()
	const goroutines, calls = 50, 100

	results := make([][]int64, goroutines)
	var g errgroup.Group
	for i := 0; i < goroutines; i++ {
		results[i] = make([]int64, calls)
		g.Go(func() error {
			for j := 0; j < calls; j++ {
				results[i][j] = c.Next()
			}
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[int64]bool, goroutines*calls)
	for _, r := range results {
		for _, seq := range r {
			assert.False(t, seen[seq], "seq %d generated twice", seq)
			seen[seq] = true
		}
	}
	assert.Len(t, seen, goroutines*calls)
}
