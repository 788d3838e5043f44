// Package timer keeps rolling averages of frame timings.
package timer

import (
	"sync"
	"time"
)

// DefaultSamples is the rolling window used when none is given.
const DefaultSamples = 16

// Stats is a snapshot of a Timer.
type Stats struct {
	Ticks int
	// InFrame is the rolling average of time spent between Start and End within a tick.
	InFrame time.Duration
	// FrameToFrame is the rolling average of the time between consecutive Tocks.
	FrameToFrame time.Duration
	// Last is the measured time of the most recent tick.
	Last time.Duration
}

// Timer measures work inside ticks. Tick opens a tick, Start and End bracket measured
// work (several brackets may be summed), and Tock closes the tick.
type Timer struct {
	mu      sync.Mutex
	now     func() time.Time
	samples float64

	ticks     int
	started   time.Time
	inTick    time.Duration
	last      time.Duration
	lastTock  time.Time
	haveTock  bool
	rollingIn float64
	rollingTT float64
}

// New creates a Timer averaging over samples ticks, reading the clock from now.
// A nil now uses time.Now.
func New(samples int, now func() time.Time) *Timer {
	if samples <= 0 {
		samples = DefaultSamples
	}
	if now == nil {
		now = time.Now
	}
	return &Timer{now: now, samples: float64(samples)}
}

// rolling folds sample into an approximate rolling average over n samples.
// The first sample seeds the average.
func rolling(avg, sample, n float64, first bool) float64 {
	if first {
		return sample
	}
	avg -= avg / n
	avg += sample / n
	return avg
}

// Tick opens a new tick.
func (t *Timer) Tick() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ticks++
	t.inTick = 0
	t.started = t.now()
}

// Start begins a measured bracket.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started = t.now()
}

// End closes the bracket opened by Start and adds it to the current tick.
func (t *Timer) End() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inTick += t.now().Sub(t.started)
}

// Tock closes the current tick and updates the rolling averages.
func (t *Timer) Tock() {
	t.mu.Lock()
	defer t.mu.Unlock()

	end := t.now()
	first := t.ticks <= 1
	t.last = t.inTick
	t.rollingIn = rolling(t.rollingIn, float64(t.inTick), t.samples, first)
	if t.haveTock {
		t.rollingTT = rolling(t.rollingTT, float64(end.Sub(t.lastTock)), t.samples, t.rollingTT == 0)
	}
	t.lastTock = end
	t.haveTock = true
}

// Average returns the rolling average of measured time per tick.
func (t *Timer) Average() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return time.Duration(t.rollingIn)
}

// Stats returns the current counters and averages.
func (t *Timer) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Stats{
		Ticks:        t.ticks,
		InFrame:      time.Duration(t.rollingIn),
		FrameToFrame: time.Duration(t.rollingTT),
		Last:         t.last,
	}
}
