// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/arktecher/Micro-sub000/internal/favorites"
	"github.com/arktecher/Micro-sub000/internal/model"
)

// FavoritesBackend is a closable favorites persistence layer.
type FavoritesBackend interface {
	favorites.Backend
	Close() error
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Favorites operations
	favorites.Backend

	// Space operations
	SaveSpace(ctx context.Context, space *model.Space) error
	GetSpace(ctx context.Context, id string) (*model.Space, error)
	ListSpaces(ctx context.Context) ([]model.Space, error)
	SaveSpaceArea(ctx context.Context, id string, area *model.SavedArea) error
	DeleteSpace(ctx context.Context, id string) error

	// Exhibition hand-off
	ConfirmExhibition(ctx context.Context, req model.Exhibition) (model.Exhibition, error)
	ListExhibitions(ctx context.Context, spaceID string) ([]model.Exhibition, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
