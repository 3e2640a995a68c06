package schedule

import (
	"context"
	"sync"
	"time"
)

// Loop is a real-time scheduler whose callbacks all run on the goroutine
// executing Run, one at a time.
type Loop struct {
	events chan *loopTimer
	done   chan struct{}
	once   sync.Once
}

type loopTimer struct {
	fn      func()
	timer   *time.Timer
	mu      sync.Mutex
	stopped bool
	fired   bool
}

// NewLoop creates a loop. Callbacks do not run until Run is called.
func NewLoop() *Loop {
	return &Loop{
		events: make(chan *loopTimer, 64),
		done:   make(chan struct{}),
	}
}

// After schedules fn on the loop goroutine after d.
func (l *Loop) After(d time.Duration, fn func()) Timer {
	t := &loopTimer{fn: fn}
	t.timer = time.AfterFunc(d, func() {
		select {
		case l.events <- t:
		case <-l.done:
		}
	})
	return t
}

// Post runs fn on the loop goroutine as soon as possible.
func (l *Loop) Post(fn func()) Timer {
	return l.After(0, fn)
}

func (t *loopTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	t.timer.Stop()
	return true
}

// claim marks the timer fired unless it was stopped after being queued.
func (t *loopTimer) claim() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped || t.fired {
		return false
	}
	t.fired = true
	return true
}

// Run executes callbacks until ctx is done or Close is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			l.Close()
			return ctx.Err()
		case <-l.done:
			return nil
		case t := <-l.events:
			if t.claim() {
				t.fn()
			}
		}
	}
}

// Close stops the loop. Pending callbacks are dropped.
func (l *Loop) Close() {
	l.once.Do(func() { close(l.done) })
}
