package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/arktecher/Micro-sub000/internal/capture"
	"github.com/arktecher/Micro-sub000/internal/catalog"
	"github.com/arktecher/Micro-sub000/internal/common"
	"github.com/arktecher/Micro-sub000/internal/config"
	"github.com/arktecher/Micro-sub000/internal/favorites"
	"github.com/arktecher/Micro-sub000/internal/model"
	"github.com/arktecher/Micro-sub000/internal/service"
	"github.com/arktecher/Micro-sub000/internal/storage"
)

// env is what most commands need: the loaded config, the migrated
// database, the favorites backend and the catalog.
type env struct {
	cfg       *config.Config
	storage   service.Storage
	favorites service.FavoritesBackend
	catalog   *catalog.Catalog
	bus       *favorites.Bus
	// separate is set when favorites live outside the SQLite database.
	separate bool
}

// openEnv loads config and opens storage. The caller must Close it.
func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	store, err := initStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, storage: store, bus: favorites.NewBus()}

	switch cfg.Favorites.Backend {
	case config.BackendBadger:
		badgerFavs, err := storage.OpenBadgerFavorites(cfg.Favorites.BadgerPath)
		if errors.Is(err, storage.ErrFavoritesLocked) {
			_ = store.Close()
			return nil, common.NewUserError(
				"Only one arktecher process can use the badger favorites backend at a time. "+
					"Stop the other process, or set favorites.backend to sqlite to share favorites between processes.", err)
		}
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to open favorites at %s: %w", cfg.Favorites.BadgerPath, err)
		}
		e.favorites = badgerFavs
		e.separate = true
	default:
		e.favorites = store
	}

	e.catalog, err = catalog.Load(cfg.Catalog.Path)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return e, nil
}

// initStorage opens and migrates the SQLite database.
func initStorage(ctx context.Context, cfg *config.Config) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// favoritesStore builds the store every surface in this process shares.
func (e *env) favoritesStore() *favorites.Store {
	return favorites.NewStore(e.favorites, e.bus)
}

// startWatcher republishes favorites written by other processes on this
// process's bus. The caller must Stop it.
func (e *env) startWatcher(ctx context.Context) (*favorites.Watcher, error) {
	watcher := favorites.NewWatcher(e.favorites, e.bus, e.cfg.Favorites.PollInterval)
	if err := watcher.Start(ctx); err != nil {
		return nil, err
	}
	return watcher, nil
}

// device returns the configured capture device.
func (e *env) device() capture.Device {
	if e.cfg.Capture.Device == "" {
		return capture.NoDevice{}
	}
	return capture.FileDevice{Path: e.cfg.Capture.Device}
}

// space looks up a registered space. Unregistered ids are allowed and get
// an empty record, so a workflow can run before the space is saved.
func (e *env) space(ctx context.Context, id string) (*model.Space, error) {
	space, err := e.storage.GetSpace(ctx, id)
	if err == nil {
		return space, nil
	}
	if errors.Is(err, storage.ErrSpaceNotFound) {
		slog.Debug("Space not registered", "space_id", id)
		return &model.Space{ID: id}, nil
	}
	return nil, err
}

func (e *env) Close() {
	if e.separate {
		if err := e.favorites.Close(); err != nil {
			slog.Warn("Failed to close favorites backend", "error", err)
		}
	}
	if err := e.storage.Close(); err != nil {
		slog.Warn("Failed to close storage", "error", err)
	}
}
