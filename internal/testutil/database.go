// Package testutil provides shared test helpers for the arktecher packages.
package testutil

import (
	"context"
	"testing"

	"github.com/arktecher/Micro-sub000/internal/model"
	"github.com/arktecher/Micro-sub000/internal/service"
	"github.com/arktecher/Micro-sub000/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database, migrated and seeded with
// the given spaces. It automatically handles cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t, model.Space{ID: "lobby", Name: "Lobby"})
func SetupTestDB(t *testing.T, spaces ...model.Space) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	for i := range spaces {
		if err := store.SaveSpace(ctx, &spaces[i]); err != nil {
			t.Fatalf("failed to seed space %q: %v", spaces[i].ID, err)
		}
	}

	return &TestDB{
		Storage: store,
		t:       t,
	}
}

// MustGetSpace returns the space with the given id or fails the test.
func (db *TestDB) MustGetSpace(id string) *model.Space {
	db.t.Helper()
	space, err := db.Storage.GetSpace(context.Background(), id)
	if err != nil {
		db.t.Fatalf("space %q not found: %v", id, err)
	}
	return space
}

// MustSaveFavorites writes the given ids as the favorites set or fails the test.
func (db *TestDB) MustSaveFavorites(ids ...string) int64 {
	db.t.Helper()
	rev, err := db.Storage.SaveFavorites(context.Background(), ids)
	if err != nil {
		db.t.Fatalf("failed to save favorites: %v", err)
	}
	return rev
}
