package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arktecher/Micro-sub000/internal/favorites"
	"github.com/arktecher/Micro-sub000/internal/model"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

func TestMigrate_Idempotent(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Migrate(ctx))

	var version int
	require.NoError(t, store.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, ExpectedSchemaVersion, version)

	for _, table := range []string{"favorites", "favorites_meta", "spaces", "exhibition_requests"} {
		var count int
		err := store.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s", table)
	}
}

func TestSchemaVersion(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, version)

	require.NoError(t, store.Migrate(ctx))
	version, err = store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("  ")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestFavorites_FullSetReplace(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	ids, rev, err := store.LoadFavorites(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Equal(t, int64(0), rev)

	rev, err = store.SaveFavorites(ctx, []string{"WRK-003", "WRK-001"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rev)

	rev, err = store.SaveFavorites(ctx, []string{"WRK-001"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), rev)

	ids, rev, err = store.LoadFavorites(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"WRK-001"}, ids)
	assert.Equal(t, int64(2), rev)

	current, err := store.FavoritesRevision(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), current)

	_, err = store.SaveFavorites(ctx, []string{"WRK-002", ""})
	assert.ErrorIs(t, err, ErrEmptyString)
	ids, _, err = store.LoadFavorites(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"WRK-001"}, ids, "failed write leaves the set untouched")
}

func TestFavorites_SurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "favorites.db")
	ctx := context.Background()

	first, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	require.NoError(t, first.Migrate(ctx))
	_, err = favorites.NewStore(first, nil).Toggle(ctx, 7, favorites.SurfaceWorkflow)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = second.Close() }()
	require.NoError(t, second.Migrate(ctx))

	set, err := favorites.NewStore(second, nil).ReadAll(ctx)
	require.NoError(t, err)
	assert.True(t, set.Has("WRK-007"))
	assert.Equal(t, int64(1), set.Revision)
}

func TestFavorites_ConcurrentTogglesAreSerialized(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	fs := favorites.NewStore(store, nil)

	var wg sync.WaitGroup
	for i := 1; i <= 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := fs.Toggle(ctx, n, favorites.SurfaceVenueDashboard)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	set, err := fs.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, set.Len())
	assert.Equal(t, int64(10), set.Revision)
}

func TestSpaces_CRUD(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	lobby := &model.Space{ID: "lobby", Name: "Main Lobby", ReferenceImage: "/tmp/lobby.jpg"}
	require.NoError(t, store.SaveSpace(ctx, lobby))
	require.NoError(t, store.SaveSpace(ctx, &model.Space{
		ID:        "board",
		Name:      "Boardroom",
		SavedArea: &model.SavedArea{X: 10, Y: 20, Width: 30, Height: 40},
	}))

	got, err := store.GetSpace(ctx, "lobby")
	require.NoError(t, err)
	assert.Equal(t, "Main Lobby", got.Name)
	assert.Equal(t, "/tmp/lobby.jpg", got.ReferenceImage)
	assert.Nil(t, got.SavedArea)
	assert.WithinDuration(t, time.Now(), got.CreatedAt, time.Minute)

	spaces, err := store.ListSpaces(ctx)
	require.NoError(t, err)
	require.Len(t, spaces, 2)
	assert.Equal(t, "board", spaces[0].ID)
	require.NotNil(t, spaces[0].SavedArea)
	assert.Equal(t, model.SavedArea{X: 10, Y: 20, Width: 30, Height: 40}, *spaces[0].SavedArea)

	require.NoError(t, store.SaveSpaceArea(ctx, "lobby", &model.SavedArea{X: 5, Y: 5, Width: 50, Height: 25}))
	got, err = store.GetSpace(ctx, "lobby")
	require.NoError(t, err)
	require.NotNil(t, got.SavedArea)
	assert.Equal(t, 50.0, got.SavedArea.Width)

	require.NoError(t, store.SaveSpaceArea(ctx, "lobby", nil))
	got, err = store.GetSpace(ctx, "lobby")
	require.NoError(t, err)
	assert.Nil(t, got.SavedArea)

	lobby.Name = "Renamed Lobby"
	require.NoError(t, store.SaveSpace(ctx, lobby))
	got, err = store.GetSpace(ctx, "lobby")
	require.NoError(t, err)
	assert.Equal(t, "Renamed Lobby", got.Name)

	require.NoError(t, store.DeleteSpace(ctx, "board"))
	_, err = store.GetSpace(ctx, "board")
	assert.ErrorIs(t, err, ErrSpaceNotFound)
	assert.ErrorIs(t, store.DeleteSpace(ctx, "board"), ErrSpaceNotFound)
}

func TestSpaces_Validation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	tests := []struct {
		space   *model.Space
		wantErr error
		name    string
	}{
		{name: "nil", space: nil, wantErr: ErrNilParameter},
		{name: "missing id", space: &model.Space{Name: "x"}, wantErr: ErrInvalidSpace},
		{name: "missing name", space: &model.Space{ID: "x"}, wantErr: ErrInvalidSpace},
		{
			name:    "area out of bounds",
			space:   &model.Space{ID: "x", Name: "x", SavedArea: &model.SavedArea{X: 80, Y: 0, Width: 30, Height: 10}},
			wantErr: ErrInvalidArea,
		},
		{
			name:    "zero width",
			space:   &model.Space{ID: "x", Name: "x", SavedArea: &model.SavedArea{Width: 0, Height: 10}},
			wantErr: ErrInvalidArea,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, store.SaveSpace(ctx, tt.space), tt.wantErr)
		})
	}

	assert.ErrorIs(t, store.SaveSpaceArea(ctx, "missing", &model.SavedArea{Width: 10, Height: 10}), ErrSpaceNotFound)
}

func TestExhibitions(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	first, err := store.ConfirmExhibition(ctx, model.Exhibition{CandidateID: "WRK-007", SpaceID: "lobby"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.RequestID)
	assert.False(t, first.RequestedAt.IsZero())

	_, err = store.ConfirmExhibition(ctx, model.Exhibition{
		CandidateID: "WRK-002",
		SpaceID:     "lobby",
		RequestedAt: first.RequestedAt.Add(time.Minute),
	})
	require.NoError(t, err)
	_, err = store.ConfirmExhibition(ctx, model.Exhibition{CandidateID: "WRK-003", SpaceID: "board"})
	require.NoError(t, err)

	lobby, err := store.ListExhibitions(ctx, "lobby")
	require.NoError(t, err)
	require.Len(t, lobby, 2)
	assert.Equal(t, "WRK-002", lobby[0].CandidateID)
	assert.Equal(t, first.RequestID, lobby[1].RequestID)

	all, err := store.ListExhibitions(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = store.ConfirmExhibition(ctx, model.Exhibition{SpaceID: "lobby"})
	assert.ErrorIs(t, err, ErrInvalidExhibition)
}
