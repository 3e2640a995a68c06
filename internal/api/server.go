// Package api serves the favorites surfaces of the venue dashboard and the
// buyer account over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/arktecher/Micro-sub000/internal/favorites"
	"github.com/arktecher/Micro-sub000/internal/model"
)

const requestTimeout = 10 * time.Second

// Catalog is the read-only artwork source.
type Catalog interface {
	Artworks(ctx context.Context) ([]model.Artwork, error)
	Get(id string) (model.Artwork, error)
}

// Spaces lists venue spaces and their exhibition requests.
type Spaces interface {
	ListSpaces(ctx context.Context) ([]model.Space, error)
	ListExhibitions(ctx context.Context, spaceID string) ([]model.Exhibition, error)
}

// Config configures the server.
type Config struct {
	Store   *favorites.Store
	Catalog Catalog
	// Spaces is optional; the spaces routes are not registered without it.
	Spaces    Spaces
	AppName   string
	AccessLog bool
}

// Server is the HTTP front of the favorites surfaces.
type Server struct {
	ctx      context.Context
	cancel   context.CancelFunc
	app      *fiber.App
	store    *favorites.Store
	catalog  Catalog
	spaces   Spaces
	surfaces map[favorites.SurfaceKind]*favorites.Surface
}

// New builds the server and mounts its favorites surfaces. Close unmounts
// them.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("favorites store is required")
	}
	if cfg.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if cfg.AppName == "" {
		cfg.AppName = "arktecher"
	}

	sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &Server{
		ctx:      sctx,
		cancel:   cancel,
		store:    cfg.Store,
		catalog:  cfg.Catalog,
		spaces:   cfg.Spaces,
		surfaces: make(map[favorites.SurfaceKind]*favorites.Surface),
	}

	for _, kind := range []favorites.SurfaceKind{favorites.SurfaceVenueDashboard, favorites.SurfaceBuyerAccount} {
		surface := favorites.NewSurface(kind, cfg.Store, nil)
		if err := surface.Mount(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to mount %s surface: %w", kind, err)
		}
		s.surfaces[kind] = surface
	}

	s.app = fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  requestTimeout,
		WriteTimeout: requestTimeout,
		ErrorHandler: errorHandler,
	})
	s.app.Use(recover.New())
	if cfg.AccessLog {
		s.app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.app.Get("/health/live", s.live)
	s.app.Get("/health/ready", s.ready)

	v1 := s.app.Group("/api/v1")
	v1.Get("/catalog", s.listCatalog)
	v1.Get("/catalog/:id", s.getArtwork)
	v1.Get("/favorites", s.listFavorites)
	v1.Post("/favorites/:id/toggle", s.toggleFavorite)
	if s.spaces != nil {
		v1.Get("/spaces", s.listSpaces)
		v1.Get("/spaces/:id/exhibitions", s.listExhibitions)
	}
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	slog.Info("Starting HTTP surfaces", "addr", addr)
	return s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// Close unmounts the surfaces.
func (s *Server) Close() {
	for _, surface := range s.surfaces {
		surface.Unmount()
	}
	s.cancel()
}

func (s *Server) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(s.ctx, requestTimeout)
}

func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		slog.Error("Request failed", "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
