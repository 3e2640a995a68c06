package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arktecher/Micro-sub000/internal/model"
)

const spaceColumns = `id, name, reference_image, area_x, area_y, area_width, area_height, created_at, updated_at`

// SaveSpace creates or updates a space. The saved area is written as given;
// a nil area clears it.
func (s *SQLiteStorage) SaveSpace(ctx context.Context, space *model.Space) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSpace(space); err != nil {
		return err
	}

	now := time.Now().UTC()
	if space.CreatedAt.IsZero() {
		space.CreatedAt = now
	}
	space.UpdatedAt = now
	x, y, w, h := areaColumns(space.SavedArea)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO spaces (`+spaceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			reference_image = excluded.reference_image,
			area_x = excluded.area_x,
			area_y = excluded.area_y,
			area_width = excluded.area_width,
			area_height = excluded.area_height,
			updated_at = excluded.updated_at
	`, strings.TrimSpace(space.ID), space.Name, space.ReferenceImage, x, y, w, h, space.CreatedAt, space.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save space %s: %w", space.ID, err)
	}
	return nil
}

// GetSpace returns a space by id.
func (s *SQLiteStorage) GetSpace(ctx context.Context, id string) (*model.Space, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+spaceColumns+` FROM spaces WHERE id = ?`, strings.TrimSpace(id))
	space, err := scanSpace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSpaceNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get space %s: %w", id, err)
	}
	return space, nil
}

// ListSpaces returns all spaces ordered by name.
func (s *SQLiteStorage) ListSpaces(ctx context.Context) ([]model.Space, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+spaceColumns+` FROM spaces ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query spaces: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var spaces []model.Space
	for rows.Next() {
		space, err := scanSpace(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan space: %w", err)
		}
		spaces = append(spaces, *space)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating spaces: %w", err)
	}
	return spaces, nil
}

// SaveSpaceArea updates only the saved placement area of a space. A nil
// area clears it.
func (s *SQLiteStorage) SaveSpaceArea(ctx context.Context, id string, area *model.SavedArea) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if area != nil {
		if err := validateArea(area); err != nil {
			return err
		}
	}

	x, y, w, h := areaColumns(area)
	result, err := s.db.ExecContext(ctx, `
		UPDATE spaces
		SET area_x = ?, area_y = ?, area_width = ?, area_height = ?, updated_at = ?
		WHERE id = ?
	`, x, y, w, h, time.Now().UTC(), strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("failed to save area for space %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrSpaceNotFound, id)
	}
	return nil
}

// DeleteSpace removes a space. Exhibition requests referencing it are kept.
func (s *SQLiteStorage) DeleteSpace(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM spaces WHERE id = ?`, strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("failed to delete space %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrSpaceNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSpace(row rowScanner) (*model.Space, error) {
	var (
		space      model.Space
		x, y, w, h sql.NullFloat64
	)
	if err := row.Scan(&space.ID, &space.Name, &space.ReferenceImage,
		&x, &y, &w, &h, &space.CreatedAt, &space.UpdatedAt); err != nil {
		return nil, err
	}
	if x.Valid && y.Valid && w.Valid && h.Valid {
		space.SavedArea = &model.SavedArea{X: x.Float64, Y: y.Float64, Width: w.Float64, Height: h.Float64}
	}
	return &space, nil
}

func areaColumns(area *model.SavedArea) (x, y, w, h sql.NullFloat64) {
	if area == nil {
		return
	}
	return sql.NullFloat64{Float64: area.X, Valid: true},
		sql.NullFloat64{Float64: area.Y, Valid: true},
		sql.NullFloat64{Float64: area.Width, Valid: true},
		sql.NullFloat64{Float64: area.Height, Valid: true}
}
