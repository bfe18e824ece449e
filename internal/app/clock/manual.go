package clock

import (
	"sort"
	"sync"
	"time"
)

// Manual is a Scheduler whose time only moves when Advance is called.
// Callbacks run synchronously on the goroutine calling Advance, in due-time
// order; callbacks due at the same instant run in scheduling order.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	seq     uint64
	entries map[uint64]*manualEntry
}

type manualEntry struct {
	id       uint64
	due      time.Time
	interval time.Duration // zero for one-shot entries
	fn       func()
}

// NewManual creates a manual scheduler starting at the given time.
func NewManual(start time.Time) *Manual {
	return &Manual{
		now:     start,
		entries: make(map[uint64]*manualEntry),
	}
}

// Now returns the current simulated time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Every registers an interval callback.
func (m *Manual) Every(d time.Duration, fn func()) Timer {
	d = minInterval(d)
	return m.add(d, d, fn)
}

// After registers a one-shot callback.
func (m *Manual) After(d time.Duration, fn func()) Timer {
	return m.add(d, 0, fn)
}

// Pending returns the number of live timers.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Advance moves time forward by d, firing every callback that becomes due.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.nextDueLocked(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = next.due
		if next.interval > 0 {
			next.due = next.due.Add(next.interval)
		} else {
			delete(m.entries, next.id)
		}
		fn := next.fn
		m.mu.Unlock()

		fn()
	}
}

func (m *Manual) add(d, interval time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	if d < 0 {
		d = 0
	}

	m.seq++
	e := &manualEntry{
		id:       m.seq,
		due:      m.now.Add(d),
		interval: interval,
		fn:       fn,
	}
	m.entries[e.id] = e
	return &manualTimer{m: m, id: e.id}
}

// nextDueLocked returns the earliest entry due at or before target.
// Must be called with m.mu held.
func (m *Manual) nextDueLocked(target time.Time) *manualEntry {
	due := make([]*manualEntry, 0, len(m.entries))
	for _, e := range m.entries {
		if !e.due.After(target) {
			due = append(due, e)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due.Equal(due[j].due) {
			return due[i].id < due[j].id
		}
		return due[i].due.Before(due[j].due)
	})
	return due[0]
}

type manualTimer struct {
	m  *Manual
	id uint64
}

func (t *manualTimer) Stop() {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	delete(t.m.entries, t.id)
}
