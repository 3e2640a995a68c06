package api

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/arktecher/Micro-sub000/internal/catalog"
	"github.com/arktecher/Micro-sub000/internal/favorites"
	"github.com/arktecher/Micro-sub000/internal/model"
)

type favoritesResponse struct {
	Surface  favorites.SurfaceKind `json:"surface"`
	IDs      []string              `json:"ids"`
	Artworks []model.Artwork       `json:"artworks"`
	Revision int64                 `json:"revision"`
}

type toggleResponse struct {
	ID       string `json:"id"`
	Favorite bool   `json:"favorite"`
}

func (s *Server) live(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "alive"})
}

func (s *Server) ready(c fiber.Ctx) error {
	ctx, cancel := s.requestContext()
	defer cancel()

	if _, err := s.store.ReadAll(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unavailable",
			"error":  err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "ready"})
}

func (s *Server) listCatalog(c fiber.Ctx) error {
	ctx, cancel := s.requestContext()
	defer cancel()

	works, err := s.catalog.Artworks(ctx)
	if err != nil {
		return err
	}
	return c.JSON(works)
}

func (s *Server) getArtwork(c fiber.Ctx) error {
	id, err := favorites.Canonicalize(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	work, err := s.catalog.Get(string(id))
	if errors.Is(err, catalog.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	if err != nil {
		return err
	}
	return c.JSON(work)
}

// surface resolves the ?surface= parameter; the dashboard is the default.
func (s *Server) surface(c fiber.Ctx) (*favorites.Surface, error) {
	kind := favorites.SurfaceKind(c.Query("surface", string(favorites.SurfaceVenueDashboard)))
	surface, ok := s.surfaces[kind]
	if !ok {
		return nil, fiber.NewError(fiber.StatusBadRequest, "unknown surface "+string(kind))
	}
	return surface, nil
}

// listFavorites re-reads persistence on every request, so writes from other
// processes show up without waiting for the watcher.
func (s *Server) listFavorites(c fiber.Ctx) error {
	surface, err := s.surface(c)
	if err != nil {
		return err
	}

	ctx, cancel := s.requestContext()
	defer cancel()

	if err := surface.Refresh(ctx); err != nil {
		return err
	}
	set := surface.Favorites()
	return c.JSON(favoritesResponse{
		Surface:  surface.Kind(),
		IDs:      set.Strings(),
		Artworks: surface.Artworks(s.catalog.Get),
		Revision: set.Revision,
	})
}

// toggleFavorite flips one favorite. An unparseable id changes nothing and
// is reported as a bad request.
func (s *Server) toggleFavorite(c fiber.Ctx) error {
	surface, err := s.surface(c)
	if err != nil {
		return err
	}

	ctx, cancel := s.requestContext()
	defer cancel()

	raw := c.Params("id")
	on, err := surface.Toggle(ctx, raw)
	if favorites.IsUnparseable(err) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err != nil {
		return err
	}

	id, _ := favorites.Canonicalize(raw)
	return c.JSON(toggleResponse{ID: string(id), Favorite: on})
}

func (s *Server) listSpaces(c fiber.Ctx) error {
	ctx, cancel := s.requestContext()
	defer cancel()

	spaces, err := s.spaces.ListSpaces(ctx)
	if err != nil {
		return err
	}
	return c.JSON(spaces)
}

func (s *Server) listExhibitions(c fiber.Ctx) error {
	ctx, cancel := s.requestContext()
	defer cancel()

	list, err := s.spaces.ListExhibitions(ctx, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(list)
}
