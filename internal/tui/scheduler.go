package tui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/arktecher/Micro-sub000/internal/schedule"
)

// timerFiredMsg carries a due timer into Update, so scheduled callbacks run
// on the program's event loop.
type timerFiredMsg struct {
	timer *teaTimer
}

// Scheduler is a schedule.Scheduler whose firings are delivered as
// messages to a bubbletea program. Firings that arrive before Attach are
// queued and flushed on attach.
type Scheduler struct {
	send   func(tea.Msg)
	queued []tea.Msg
	mu     sync.Mutex
}

// NewScheduler creates an unattached scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Attach routes firings to send, typically (*tea.Program).Send.
func (s *Scheduler) Attach(send func(tea.Msg)) {
	s.mu.Lock()
	s.send = send
	queued := s.queued
	s.queued = nil
	s.mu.Unlock()

	for _, msg := range queued {
		send(msg)
	}
}

// After implements schedule.Scheduler.
func (s *Scheduler) After(d time.Duration, fn func()) schedule.Timer {
	t := &teaTimer{fn: fn}
	t.timer = time.AfterFunc(d, func() { s.deliver(timerFiredMsg{timer: t}) })
	return t
}

func (s *Scheduler) deliver(msg tea.Msg) {
	s.mu.Lock()
	send := s.send
	if send == nil {
		s.queued = append(s.queued, msg)
	}
	s.mu.Unlock()

	if send != nil {
		send(msg)
	}
}

type teaTimer struct {
	timer   *time.Timer
	fn      func()
	mu      sync.Mutex
	stopped bool
	fired   bool
}

// Stop implements schedule.Timer.
func (t *teaTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	t.timer.Stop()
	return true
}

// fire runs the callback unless the timer was stopped after its message
// was queued.
func (t *teaTimer) fire() {
	t.mu.Lock()
	if t.stopped || t.fired {
		t.mu.Unlock()
		return
	}
	t.fired = true
	t.mu.Unlock()

	t.fn()
}
