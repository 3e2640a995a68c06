package favorites

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Watcher detects writes made by other processes by polling the persisted
// revision, and republishes them on the local bus.
type Watcher struct {
	backend     Backend
	bus         *Bus
	cron        *cron.Cron
	unsubscribe func()
	interval    time.Duration
	lastSeen    int64
	mu          sync.Mutex
}

// NewWatcher creates a watcher polling every interval (minimum one second,
// the cron scheduler's resolution).
func NewWatcher(backend Backend, bus *Bus, interval time.Duration) *Watcher {
	if interval < time.Second {
		interval = time.Second
	}
	return &Watcher{
		backend:  backend,
		bus:      bus,
		interval: interval,
	}
}

// Start records the current revision and begins polling.
func (w *Watcher) Start(ctx context.Context) error {
	rev, err := w.backend.FavoritesRevision(ctx)
	if err != nil {
		return fmt.Errorf("failed to read favorites revision: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.lastSeen = rev
	// Local writes are already published; track them so they are not echoed.
	w.unsubscribe = w.bus.Subscribe(func(c Change) {
		if !c.External {
			w.observe(c.Revision)
		}
	})

	w.cron = cron.New()
	spec := fmt.Sprintf("@every %s", w.interval)
	if _, err := w.cron.AddFunc(spec, func() {
		pollCtx, cancel := context.WithTimeout(context.Background(), w.interval)
		defer cancel()
		if _, err := w.Poll(pollCtx); err != nil {
			slog.Warn("Favorites poll failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule favorites poll: %w", err)
	}
	w.cron.Start()

	slog.Debug("Started favorites watcher", "interval", w.interval, "revision", rev)
	return nil
}

// Stop ends polling and waits for a running poll to finish.
func (w *Watcher) Stop() {
	w.mu.Lock()
	c := w.cron
	unsub := w.unsubscribe
	w.cron = nil
	w.unsubscribe = nil
	w.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	if c != nil {
		<-c.Stop().Done()
	}
}

// Poll checks the persisted revision once. It publishes an external change
// and returns true when the revision moved since the last observation.
func (w *Watcher) Poll(ctx context.Context) (bool, error) {
	rev, err := w.backend.FavoritesRevision(ctx)
	if err != nil {
		return false, err
	}
	if !w.observe(rev) {
		return false, nil
	}

	slog.Debug("Detected external favorites change", "revision", rev)
	w.bus.Publish(Change{Revision: rev, External: true})
	return true, nil
}

// observe records rev and reports whether it differs from the last one seen.
func (w *Watcher) observe(rev int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if rev == w.lastSeen {
		return false
	}
	w.lastSeen = rev
	return true
}
