package storage

import (
	"context"
	"fmt"
)

// LoadFavorites returns the persisted favorite ids in insertion order
// together with the current revision.
func (s *SQLiteStorage) LoadFavorites(ctx context.Context) ([]string, int64, error) {
	if err := validateContext(ctx); err != nil {
		return nil, 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `SELECT artwork_id FROM favorites ORDER BY position, artwork_id`)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, 0, fmt.Errorf("failed to scan favorite: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating favorites: %w", err)
	}

	var revision int64
	if err := tx.QueryRowContext(ctx, `SELECT revision FROM favorites_meta WHERE id = 1`).Scan(&revision); err != nil {
		return nil, 0, fmt.Errorf("failed to read favorites revision: %w", err)
	}

	return ids, revision, nil
}

// SaveFavorites replaces the whole favorites set and bumps the revision in
// one transaction.
func (s *SQLiteStorage) SaveFavorites(ctx context.Context, ids []string) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	for i, id := range ids {
		if err := validateString(id, fmt.Sprintf("ids[%d]", i)); err != nil {
			return 0, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM favorites`); err != nil {
		return 0, fmt.Errorf("failed to clear favorites: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO favorites (artwork_id, position) VALUES (?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, id := range ids {
		if _, err := stmt.ExecContext(ctx, id, i); err != nil {
			return 0, fmt.Errorf("failed to insert favorite %s: %w", id, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE favorites_meta
		SET revision = revision + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`); err != nil {
		return 0, fmt.Errorf("failed to bump favorites revision: %w", err)
	}

	var revision int64
	if err := tx.QueryRowContext(ctx, `SELECT revision FROM favorites_meta WHERE id = 1`).Scan(&revision); err != nil {
		return 0, fmt.Errorf("failed to read favorites revision: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit favorites: %w", err)
	}
	return revision, nil
}

// FavoritesRevision returns the revision counter without loading the set.
func (s *SQLiteStorage) FavoritesRevision(ctx context.Context) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var revision int64
	if err := s.db.QueryRowContext(ctx, `SELECT revision FROM favorites_meta WHERE id = 1`).Scan(&revision); err != nil {
		return 0, fmt.Errorf("failed to read favorites revision: %w", err)
	}
	return revision, nil
}
