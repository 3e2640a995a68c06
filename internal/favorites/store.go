package favorites

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Backend persists the full favorites set. Writes always replace the whole
// set; there is no delta or transaction log.
type Backend interface {
	LoadFavorites(ctx context.Context) (ids []string, revision int64, err error)
	SaveFavorites(ctx context.Context, ids []string) (revision int64, err error)
	FavoritesRevision(ctx context.Context) (int64, error)
}

// Store is the read/toggle/notify front of the persisted set.
type Store struct {
	backend Backend
	bus     *Bus
	mu      sync.Mutex
}

// NewStore creates a store. A nil bus gets a private one.
func NewStore(backend Backend, bus *Bus) *Store {
	if bus == nil {
		bus = NewBus()
	}
	return &Store{backend: backend, bus: bus}
}

// Bus returns the store's notification bus.
func (s *Store) Bus() *Bus {
	return s.bus
}

// ReadAll reads the current set from persistence.
func (s *Store) ReadAll(ctx context.Context) (Set, error) {
	ids, rev, err := s.backend.LoadFavorites(ctx)
	if err != nil {
		return Set{}, fmt.Errorf("failed to read favorites: %w", err)
	}
	return NewSet(ids, rev), nil
}

// Toggle flips membership of id and writes the full set back. An
// unparseable id is a no-op: nothing is read or written and the error is
// returned. It reports whether id is a favorite afterwards.
func (s *Store) Toggle(ctx context.Context, id any, origin SurfaceKind) (bool, error) {
	canonical, err := Canonicalize(id)
	if err != nil {
		slog.Warn("Ignoring favorite toggle for unparseable id",
			"id", fmt.Sprint(id),
			"origin", origin)
		return false, err
	}

	s.mu.Lock()
	current, err := s.ReadAll(ctx)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}
	next, favorited := current.toggled(canonical)
	rev, err := s.backend.SaveFavorites(ctx, next.Strings())
	s.mu.Unlock()
	if err != nil {
		return false, fmt.Errorf("failed to write favorites: %w", err)
	}

	slog.Debug("Toggled favorite",
		"id", canonical,
		"favorited", favorited,
		"origin", origin,
		"revision", rev)

	s.bus.Publish(Change{
		ID:        canonical,
		Favorited: favorited,
		Origin:    origin,
		Revision:  rev,
	})
	return favorited, nil
}

// IsUnparseable reports whether err came from identifier normalization.
func IsUnparseable(err error) bool {
	return errors.Is(err, ErrUnparseableID)
}

// MemoryBackend keeps the set in process memory. It stands in for
// persistence in tests and single-process demos.
type MemoryBackend struct {
	ids      []string
	revision int64
	writes   int
	mu       sync.Mutex
}

// NewMemoryBackend creates an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// LoadFavorites implements Backend.
func (m *MemoryBackend) LoadFavorites(ctx context.Context) ([]string, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.ids))
	copy(out, m.ids)
	return out, m.revision, nil
}

// SaveFavorites implements Backend.
func (m *MemoryBackend) SaveFavorites(ctx context.Context, ids []string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = append([]string(nil), ids...)
	m.revision++
	m.writes++
	return m.revision, nil
}

// FavoritesRevision implements Backend.
func (m *MemoryBackend) FavoritesRevision(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revision, nil
}

// Writes returns how many full-set writes happened.
func (m *MemoryBackend) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
