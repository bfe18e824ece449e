package overlay

import (
	"sync"
	"testing"
	"time"

	"github.com/osa030/deathscreen/internal/app/clock"
	"github.com/osa030/deathscreen/internal/domain/message"
)

// recorder captures rendered frames and outbound requests.
type recorder struct {
	mu        sync.Mutex
	frames    []Frame
	endpoints []message.Endpoint
}

func (r *recorder) Render(f Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
}

func (r *recorder) Notify(e message.Endpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpoints = append(r.endpoints, e)
}

func (r *recorder) renderCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func (r *recorder) last() Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames[len(r.frames)-1]
}

func (r *recorder) count(e message.Endpoint) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, got := range r.endpoints {
		if got == e {
			n++
		}
	}
	return n
}

func (r *recorder) framesSince(i int) []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Frame, len(r.frames)-i)
	copy(out, r.frames[i:])
	return out
}

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestOverlay(t *testing.T) (*Overlay, *clock.Manual, *recorder) {
	t.Helper()
	sched := clock.NewManual(epoch)
	rec := &recorder{}
	o := New(Config{}, sched, rec, rec)
	t.Cleanup(o.Close)
	return o, sched, rec
}

func seconds(v float64) *float64 {
	return &v
}

func showConfig(deathTimer float64) message.DeathConfig {
	return message.DeathConfig{DeathTimer: seconds(deathTimer)}
}

func newManualForTest() *clock.Manual {
	return clock.NewManual(epoch)
}
