// Package history is a platform back-stack abstraction with browser-like
// push/pop semantics.
package history

import (
	"fmt"
	"sync"
)

// Entry is the state attached to a pushed history entry.
type Entry struct {
	SessionID string
	Step      string
	Seq       int
}

// String formats the entry for logs.
func (e Entry) String() string {
	return fmt.Sprintf("%s#%d(%s)", e.SessionID, e.Seq, e.Step)
}

// History is the platform navigation stack a workflow session pushes onto.
type History interface {
	// Push adds an entry on top of the stack.
	Push(e Entry)
	// Back asks the platform to pop the top entry. The platform reports the
	// result asynchronously or synchronously through its pop listener.
	Back()
	// Unwind silently removes up to n entries pushed by the caller, without
	// notifying the pop listener.
	Unwind(n int)
}

// PopListener receives the entry that became current after a pop. A nil
// entry means the stack is now below any pushed entry.
type PopListener func(top *Entry)

// Stack is an in-memory History. A pop notifies the listener synchronously.
type Stack struct {
	listener PopListener
	entries  []Entry
	mu       sync.Mutex
}

// NewStack creates an empty stack.
func NewStack() *Stack {
	return &Stack{}
}

// OnPop registers the listener notified after every Back.
func (s *Stack) OnPop(l PopListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = l
}

// Push implements History.
func (s *Stack) Push(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
}

// Back implements History. Popping an empty stack still notifies the
// listener with nil, the way a platform back action leaves the page.
func (s *Stack) Back() {
	s.mu.Lock()
	if len(s.entries) > 0 {
		s.entries = s.entries[:len(s.entries)-1]
	}
	top := s.topLocked()
	l := s.listener
	s.mu.Unlock()

	if l != nil {
		l(top)
	}
}

// Unwind implements History.
func (s *Stack) Unwind(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n > len(s.entries) {
		n = len(s.entries)
	}
	if n > 0 {
		s.entries = s.entries[:len(s.entries)-n]
	}
}

// Len returns the number of entries.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Top returns the current entry, or nil when the stack is empty.
func (s *Stack) Top() *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topLocked()
}

// Entries returns a copy of the stack, bottom first.
func (s *Stack) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Stack) topLocked() *Entry {
	if len(s.entries) == 0 {
		return nil
	}
	e := s.entries[len(s.entries)-1]
	return &e
}
