package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

var (
	badgerFavoritesKey = []byte("favorites:ids")
	badgerRevisionKey  = []byte("favorites:revision")
)

// ErrFavoritesLocked is returned when another process holds the Badger
// directory.
var ErrFavoritesLocked = errors.New("favorites directory is in use by another process")

// BadgerFavorites persists the favorites set in a Badger key-value store.
// Badger takes an exclusive lock on its directory, so only one process can
// open a given store at a time. Deployments that run several processes
// against the same favorites use the SQLite backend.
type BadgerFavorites struct {
	db *badger.DB
}

// OpenBadgerFavorites opens (or creates) the store at dir. An empty dir
// opens an in-memory store.
func OpenBadgerFavorites(dir string) (*BadgerFavorites, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		if strings.Contains(err.Error(), "Cannot acquire directory lock") {
			return nil, fmt.Errorf("%w: %s: %w", ErrFavoritesLocked, dir, err)
		}
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}
	return &BadgerFavorites{db: db}, nil
}

// Close closes the store.
func (b *BadgerFavorites) Close() error {
	return b.db.Close()
}

// LoadFavorites implements favorites.Backend.
func (b *BadgerFavorites) LoadFavorites(ctx context.Context) ([]string, int64, error) {
	if err := validateContext(ctx); err != nil {
		return nil, 0, err
	}

	var (
		ids      []string
		revision int64
	)
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		if revision, err = readRevision(txn); err != nil {
			return err
		}

		item, err := txn.Get(badgerFavoritesKey)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &ids)
		})
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load favorites: %w", err)
	}
	return ids, revision, nil
}

// SaveFavorites implements favorites.Backend. The set and the bumped
// revision are written in one transaction.
func (b *BadgerFavorites) SaveFavorites(ctx context.Context, ids []string) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	for i, id := range ids {
		if err := validateString(id, fmt.Sprintf("ids[%d]", i)); err != nil {
			return 0, err
		}
	}
	if ids == nil {
		ids = []string{}
	}

	payload, err := json.Marshal(ids)
	if err != nil {
		return 0, fmt.Errorf("failed to encode favorites: %w", err)
	}

	var revision int64
	err = b.db.Update(func(txn *badger.Txn) error {
		current, err := readRevision(txn)
		if err != nil {
			return err
		}
		revision = current + 1

		if err := txn.Set(badgerFavoritesKey, payload); err != nil {
			return err
		}
		return txn.Set(badgerRevisionKey, int64ToBytes(revision))
	})
	if err != nil {
		return 0, fmt.Errorf("failed to save favorites: %w", err)
	}
	return revision, nil
}

// FavoritesRevision implements favorites.Backend.
func (b *BadgerFavorites) FavoritesRevision(ctx context.Context) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var revision int64
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		revision, err = readRevision(txn)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read favorites revision: %w", err)
	}
	return revision, nil
}

func readRevision(txn *badger.Txn) (int64, error) {
	item, err := txn.Get(badgerRevisionKey)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}

	var revision int64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("corrupt revision value of %d bytes", len(val))
		}
		revision = bytesToInt64(val)
		return nil
	})
	return revision, err
}

func int64ToBytes(v int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(v))
	return buf
}

func bytesToInt64(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}
