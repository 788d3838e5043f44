package watcher_test

import (
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/kiln/internal/adapters/watcher"
)

func TestDebouncer(t *testing.T) {
	tests := []struct {
		name      string
		triggers  []time.Duration
		wait      time.Duration
		wantCalls int32
	}{
		{name: "single event fires after the window", triggers: []time.Duration{0}, wait: 150 * time.Millisecond, wantCalls: 1},
		{name: "burst coalesces", triggers: []time.Duration{0, 30 * time.Millisecond, 30 * time.Millisecond}, wait: 150 * time.Millisecond, wantCalls: 1},
		{name: "nothing before the window", triggers: []time.Duration{0}, wait: 50 * time.Millisecond, wantCalls: 0},
		{name: "separated events fire twice", triggers: []time.Duration{0, 200 * time.Millisecond}, wait: 150 * time.Millisecond, wantCalls: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synctest.Test(t, func(t *testing.T) {
				var calls atomic.Int32
				d := watcher.NewDebouncer(100*time.Millisecond, func() { calls.Add(1) })

				for _, gap := range tt.triggers {
					time.Sleep(gap)
					d.Trigger()
				}
				time.Sleep(tt.wait)
				synctest.Wait()

				assert.Equal(t, tt.wantCalls, calls.Load())
			})
		})
	}
}

func TestDebouncer_Flush(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var calls atomic.Int32
		d := watcher.NewDebouncer(100*time.Millisecond, func() { calls.Add(1) })

		d.Flush()
		assert.Zero(t, calls.Load(), "flush without a pending event is a no-op")

		d.Trigger()
		d.Flush()
		assert.Equal(t, int32(1), calls.Load())

		time.Sleep(200 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, int32(1), calls.Load(), "a flushed event must not fire again")
	})
}

func TestDebouncer_NilCallback(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		d := watcher.NewDebouncer(10*time.Millisecond, nil)
		d.Trigger()
		time.Sleep(20 * time.Millisecond)
		synctest.Wait()
		d.Flush()
	})
}
