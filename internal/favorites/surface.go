package favorites

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/arktecher/Micro-sub000/internal/model"
)

// SurfaceKind names an independently rendered view of the favorites.
type SurfaceKind string

const (
	SurfaceWorkflow       SurfaceKind = "workflow"
	SurfaceVenueDashboard SurfaceKind = "venue_dashboard"
	SurfaceBuyerAccount   SurfaceKind = "buyer_account"
)

// ErrNotMounted is returned when an unmounted surface is used.
var ErrNotMounted = errors.New("surface is not mounted")

const rereadTimeout = 5 * time.Second

// Lookup resolves a canonical id to its catalog record.
type Lookup func(id string) (model.Artwork, error)

// Surface is one view of the favorites. It reads from persistence on mount
// and again on every change notification.
type Surface struct {
	store       *Store
	onChange    func(Set)
	unsubscribe func()
	current     Set
	lastErr     error
	kind        SurfaceKind
	mu          sync.Mutex
	mounted     bool
}

// NewSurface creates an unmounted surface. onChange, if set, is called with
// the freshly read set after mount and after every re-read.
func NewSurface(kind SurfaceKind, store *Store, onChange func(Set)) *Surface {
	return &Surface{kind: kind, store: store, onChange: onChange}
}

// Kind returns the surface kind.
func (s *Surface) Kind() SurfaceKind {
	return s.kind
}

// Mount reads the set and subscribes to change notifications. Reading on
// mount is what lets a surface that missed notifications while unmounted
// catch up.
func (s *Surface) Mount(ctx context.Context) error {
	s.mu.Lock()
	if s.mounted {
		s.mu.Unlock()
		return s.Refresh(ctx)
	}
	s.mounted = true
	s.unsubscribe = s.store.Bus().Subscribe(s.handleChange)
	s.mu.Unlock()

	if err := s.Refresh(ctx); err != nil {
		s.Unmount()
		return err
	}
	return nil
}

// Unmount stops listening for changes.
func (s *Surface) Unmount() {
	s.mu.Lock()
	unsub := s.unsubscribe
	s.unsubscribe = nil
	s.mounted = false
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// Mounted reports whether the surface is mounted.
func (s *Surface) Mounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mounted
}

func (s *Surface) handleChange(c Change) {
	ctx, cancel := context.WithTimeout(context.Background(), rereadTimeout)
	defer cancel()

	if err := s.Refresh(ctx); err != nil {
		slog.Warn("Failed to re-read favorites after change",
			"surface", s.kind,
			"revision", c.Revision,
			"error", err)
	}
}

// Refresh re-reads the set from persistence.
func (s *Surface) Refresh(ctx context.Context) error {
	set, err := s.store.ReadAll(ctx)

	s.mu.Lock()
	if !s.mounted {
		s.mu.Unlock()
		return ErrNotMounted
	}
	s.lastErr = err
	if err == nil {
		s.current = set
	}
	onChange := s.onChange
	s.mu.Unlock()

	if err != nil {
		return err
	}
	if onChange != nil {
		onChange(set)
	}
	return nil
}

// Favorites returns the set as of the last read.
func (s *Surface) Favorites() Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Has reports whether id was a favorite as of the last read.
func (s *Surface) Has(id any) bool {
	canonical, err := Canonicalize(id)
	if err != nil {
		return false
	}
	return s.Favorites().Has(canonical)
}

// Toggle flips a favorite from this surface.
func (s *Surface) Toggle(ctx context.Context, id any) (bool, error) {
	if !s.Mounted() {
		return false, ErrNotMounted
	}
	return s.store.Toggle(ctx, id, s.kind)
}

// Artworks re-joins the favorite ids with catalog records. Ids missing from
// the catalog are skipped.
func (s *Surface) Artworks(lookup Lookup) []model.Artwork {
	set := s.Favorites()
	out := make([]model.Artwork, 0, set.Len())
	for _, id := range set.IDs() {
		a, err := lookup(string(id))
		if err != nil {
			slog.Debug("Favorite not in catalog", "id", id, "error", err)
			continue
		}
		out = append(out, a)
	}
	return out
}
