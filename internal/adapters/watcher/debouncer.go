package watcher

import (
	"sync"
	"time"
)

// DefaultDebounceWindow is the time window used to coalesce bursts of saves.
const DefaultDebounceWindow = 100 * time.Millisecond

// Debouncer coalesces bursts of events into a single callback.
type Debouncer struct {
	mu       sync.Mutex
	pending  bool
	timer    *time.Timer
	window   time.Duration
	callback func()
}

// NewDebouncer creates a debouncer that calls callback once per quiet window.
func NewDebouncer(window time.Duration, callback func()) *Debouncer {
	return &Debouncer{
		window:   window,
		callback: callback,
	}
}

// Trigger records an event and restarts the window.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	pending := d.pending
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	if pending && d.callback != nil {
		d.callback()
	}
}

// Flush runs the callback now if an event is pending. It blocks until the callback returns.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		if !d.timer.Stop() {
			// Already firing.
			d.mu.Unlock()
			return
		}
		d.timer = nil
	}
	pending := d.pending
	d.pending = false
	d.mu.Unlock()

	if pending && d.callback != nil {
		d.callback()
	}
}
