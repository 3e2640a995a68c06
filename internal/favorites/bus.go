package favorites

import "sync"

// Change is a best-effort notification that the persisted set changed.
type Change struct {
	ID        CanonicalID
	Origin    SurfaceKind
	Revision  int64
	Favorited bool
	// External is set when the change was detected in persistence rather
	// than made through this process.
	External bool
}

// Bus fans change notifications out to subscribers.
type Bus struct {
	subs map[int]func(Change)
	next int
	mu   sync.Mutex
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(Change))}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn func(Change)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	b.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
		})
	}
}

// Publish delivers c to every subscriber, outside the bus lock.
func (b *Bus) Publish(c Change) {
	b.mu.Lock()
	fns := make([]func(Change), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

// Subscribers returns the number of subscribers.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
