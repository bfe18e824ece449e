// Package clock provides the timers that drive the overlay engines.
package clock

import (
	"context"
	"sync"
	"time"
)

// Timer is a handle to a scheduled callback.
// Stop is synchronous and idempotent: once it returns, the timer will not
// start another invocation of its callback.
type Timer interface {
	Stop()
}

// Scheduler schedules interval and one-shot callbacks.
type Scheduler interface {
	// Every invokes fn every d until the returned timer is stopped.
	Every(d time.Duration, fn func()) Timer
	// After invokes fn once after d unless the returned timer is stopped first.
	After(d time.Duration, fn func()) Timer
}

// Wall is a Scheduler backed by the runtime timers.
type Wall struct{}

// NewWall creates a wall-clock scheduler.
func NewWall() *Wall {
	return &Wall{}
}

// Every starts a ticker goroutine that calls fn on each tick.
func (w *Wall) Every(d time.Duration, fn func()) Timer {
	ctx, cancel := context.WithCancel(context.Background())
	ticker := time.NewTicker(minInterval(d))

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				// Stop may have raced with the tick.
				if ctx.Err() != nil {
					return
				}
				fn()
			}
		}
	}()

	return &cancelTimer{cancel: cancel}
}

// After schedules fn with time.AfterFunc.
func (w *Wall) After(d time.Duration, fn func()) Timer {
	t := time.AfterFunc(d, fn)
	return &afterTimer{t: t}
}

type cancelTimer struct {
	once   sync.Once
	cancel context.CancelFunc
}

func (t *cancelTimer) Stop() {
	t.once.Do(t.cancel)
}

type afterTimer struct {
	t *time.Timer
}

func (t *afterTimer) Stop() {
	t.t.Stop()
}

// minInterval keeps interval timers from spinning on non-positive periods.
func minInterval(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Millisecond
	}
	return d
}
