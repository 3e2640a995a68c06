// Package schedule provides logical timers for the workflow's simulated latency.
//
// Callbacks scheduled here never run concurrently with each other: Manual runs
// them from Advance, Loop runs them on its own goroutine one at a time.
package schedule

import (
	"sort"
	"sync"
	"time"
)

// Timer is a pending callback.
type Timer interface {
	// Stop cancels the callback. It reports whether the callback was still pending.
	Stop() bool
}

// Scheduler runs a callback after a delay.
type Scheduler interface {
	After(d time.Duration, fn func()) Timer
}

// Manual is a logical clock. Time only moves when Advance is called, which
// makes timer-driven flows deterministic in tests and headless runs.
type Manual struct {
	now    time.Duration
	timers []*manualTimer
	seq    int
	mu     sync.Mutex
}

type manualTimer struct {
	fn      func()
	owner   *Manual
	due     time.Duration
	seq     int
	stopped bool
	fired   bool
}

// NewManual returns a logical clock at time zero.
func NewManual() *Manual {
	return &Manual{}
}

// After schedules fn to run once the clock has advanced by d.
func (m *Manual) After(d time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	if d < 0 {
		d = 0
	}
	m.seq++
	t := &manualTimer{fn: fn, owner: m, due: m.now + d, seq: m.seq}
	m.timers = append(m.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()

	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Now returns the logical time elapsed since creation.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending returns the number of timers that have neither fired nor been stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d, firing due timers in order. Timers
// scheduled by a firing callback run in the same call if they fall due.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		t := m.nextDue(target)
		if t == nil {
			break
		}
		t.fn()
	}

	m.mu.Lock()
	m.now = target
	m.compact()
	m.mu.Unlock()
}

// RunUntilIdle advances until no timers remain, up to limit.
func (m *Manual) RunUntilIdle(limit time.Duration) {
	step := 10 * time.Millisecond
	for elapsed := time.Duration(0); elapsed < limit && m.Pending() > 0; elapsed += step {
		m.Advance(step)
	}
}

func (m *Manual) nextDue(target time.Duration) *manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()

	var live []*manualTimer
	for _, t := range m.timers {
		if !t.stopped && !t.fired && t.due <= target {
			live = append(live, t)
		}
	}
	if len(live) == 0 {
		return nil
	}
	sort.Slice(live, func(i, j int) bool {
		if live[i].due == live[j].due {
			return live[i].seq < live[j].seq
		}
		return live[i].due < live[j].due
	})
	t := live[0]
	t.fired = true
	m.now = t.due
	return t
}

func (m *Manual) compact() {
	kept := m.timers[:0]
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			kept = append(kept, t)
		}
	}
	m.timers = kept
}
