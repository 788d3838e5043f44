package timer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/kiln/internal/adapters/timer"
)

// fakeClock advances only when told to.
type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func (c *fakeClock) frame(tm *timer.Timer, d, gap time.Duration) {
	tm.Tick()
	tm.Start()
	c.Advance(d)
	tm.End()
	c.Advance(gap)
	tm.Tock()
}

func TestTimer_RollingAverage(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	tm := timer.New(4, clock.Now)

	clock.frame(tm, 8*time.Millisecond, 2*time.Millisecond)
	assert.Equal(t, 8*time.Millisecond, tm.Average(), "the first sample seeds the average")

	clock.frame(tm, 4*time.Millisecond, 6*time.Millisecond)
	// 8 - 8/4 + 4/4 = 7
	assert.Equal(t, 7*time.Millisecond, tm.Average())

	stats := tm.Stats()
	assert.Equal(t, 2, stats.Ticks)
	assert.Equal(t, 4*time.Millisecond, stats.Last)
	assert.Equal(t, 10*time.Millisecond, stats.FrameToFrame)
}

func TestTimer_SumsBrackets(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	tm := timer.New(0, clock.Now)

	tm.Tick()
	for range 3 {
		tm.Start()
		clock.Advance(time.Millisecond)
		tm.End()
		clock.Advance(time.Second)
	}
	tm.Tock()

	assert.Equal(t, 3*time.Millisecond, tm.Stats().Last)
	assert.Zero(t, tm.Stats().FrameToFrame, "a single tock has no frame to frame delta")
}
