package storage

import (
	"github.com/arktecher/Micro-sub000/internal/service"
)

var (
	_ service.Storage          = (*SQLiteStorage)(nil)
	_ service.FavoritesBackend = (*SQLiteStorage)(nil)
	_ service.FavoritesBackend = (*BadgerFavorites)(nil)
)
