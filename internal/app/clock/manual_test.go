package clock

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestManual_Every(t *testing.T) {
	m := NewManual(epoch)
	count := 0
	timer := m.Every(time.Second, func() { count++ })

	m.Advance(999 * time.Millisecond)
	assert.Equal(t, 0, count)

	m.Advance(time.Millisecond)
	assert.Equal(t, 1, count)

	m.Advance(5 * time.Second)
	assert.Equal(t, 6, count)

	timer.Stop()
	m.Advance(10 * time.Second)
	assert.Equal(t, 6, count)
	assert.Equal(t, 0, m.Pending())
}

func TestManual_After(t *testing.T) {
	m := NewManual(epoch)
	fired := 0
	m.After(3*time.Second, func() { fired++ })

	m.Advance(2 * time.Second)
	assert.Equal(t, 0, fired)

	m.Advance(10 * time.Second)
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, m.Pending())
	assert.Equal(t, epoch.Add(12*time.Second), m.Now())
}

func TestManual_StopInsideCallback(t *testing.T) {
	m := NewManual(epoch)
	count := 0
	var timer Timer
	timer = m.Every(100*time.Millisecond, func() {
		count++
		if count == 3 {
			timer.Stop()
		}
	})

	m.Advance(time.Second)
	assert.Equal(t, 3, count)
}

func TestManual_OrderAndNowDuringCallback(t *testing.T) {
	m := NewManual(epoch)
	var order []string
	var seenAt []time.Duration

	m.After(200*time.Millisecond, func() {
		order = append(order, "b")
		seenAt = append(seenAt, m.Now().Sub(epoch))
	})
	m.After(100*time.Millisecond, func() {
		order = append(order, "a")
		seenAt = append(seenAt, m.Now().Sub(epoch))
	})
	m.After(200*time.Millisecond, func() {
		order = append(order, "c")
		seenAt = append(seenAt, m.Now().Sub(epoch))
	})

	m.Advance(time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 200 * time.Millisecond}, seenAt)
}

func TestManual_ScheduleInsideCallback(t *testing.T) {
	m := NewManual(epoch)
	fired := false
	m.After(time.Second, func() {
		m.After(time.Second, func() { fired = true })
	})

	m.Advance(1500 * time.Millisecond)
	assert.False(t, fired)
	m.Advance(500 * time.Millisecond)
	assert.True(t, fired)
}

func TestWall_EveryStops(t *testing.T) {
	w := NewWall()
	var count atomic.Int32
	timer := w.Every(5*time.Millisecond, func() { count.Add(1) })

	require.Eventually(t, func() bool { return count.Load() >= 2 }, time.Second, time.Millisecond)
	timer.Stop()
	timer.Stop()

	// Allow an in-flight tick to settle, then verify no further ticks.
	time.Sleep(20 * time.Millisecond)
	settled := count.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, count.Load())
}

func TestWall_AfterStopped(t *testing.T) {
	w := NewWall()
	var fired atomic.Bool
	timer := w.After(20*time.Millisecond, func() { fired.Store(true) })
	timer.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.False(t, fired.Load())
}
