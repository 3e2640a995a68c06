package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arktecher/Micro-sub000/internal/model"
)

// ConfirmExhibition records the hand-off of a chosen candidate for a space
// and returns the stored request with its id and timestamp filled in.
func (s *SQLiteStorage) ConfirmExhibition(ctx context.Context, req model.Exhibition) (model.Exhibition, error) {
	if err := validateContext(ctx); err != nil {
		return model.Exhibition{}, err
	}
	if err := validateExhibition(&req); err != nil {
		return model.Exhibition{}, err
	}

	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exhibition_requests (request_id, candidate_id, space_id, requested_at)
		VALUES (?, ?, ?, ?)
	`, req.RequestID, req.CandidateID, req.SpaceID, req.RequestedAt)
	if err != nil {
		return model.Exhibition{}, fmt.Errorf("failed to record exhibition request: %w", err)
	}
	return req, nil
}

// ListExhibitions returns the requests for a space, newest first. An empty
// space id lists every request.
func (s *SQLiteStorage) ListExhibitions(ctx context.Context, spaceID string) ([]model.Exhibition, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT request_id, candidate_id, space_id, requested_at FROM exhibition_requests`
	var args []any
	if spaceID != "" {
		query += ` WHERE space_id = ?`
		args = append(args, spaceID)
	}
	query += ` ORDER BY requested_at DESC, request_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query exhibition requests: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Exhibition
	for rows.Next() {
		var e model.Exhibition
		if err := rows.Scan(&e.RequestID, &e.CandidateID, &e.SpaceID, &e.RequestedAt); err != nil {
			return nil, fmt.Errorf("failed to scan exhibition request: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exhibition requests: %w", err)
	}
	return out, nil
}
