// Package catalog provides the read-only artwork catalog.
package catalog

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/arktecher/Micro-sub000/internal/favorites"
	"github.com/arktecher/Micro-sub000/internal/model"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// ErrNotFound is returned for unknown artwork ids.
var ErrNotFound = errors.New("artwork not found")

type file struct {
	Artworks []model.Artwork `yaml:"artworks"`
}

// Catalog is an immutable, id-ordered set of artworks.
type Catalog struct {
	byID     map[string]model.Artwork
	artworks []model.Artwork
}

// Default returns the catalog bundled with the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a YAML catalog from path. An empty path loads the default catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path) // #nosec G304 -- configured catalog path
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse builds a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return New(f.Artworks)
}

// New builds a catalog from records. Ids are stored in canonical form
// (WRK-007), so favorites and lookups in any accepted shape re-join them.
// Ids must parse and be unique once canonical.
func New(artworks []model.Artwork) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]model.Artwork, len(artworks))}
	for i, a := range artworks {
		if strings.TrimSpace(a.ID) == "" {
			return nil, fmt.Errorf("artwork at index %d has no id", i)
		}
		id, err := favorites.Canonicalize(a.ID)
		if err != nil {
			return nil, fmt.Errorf("artwork at index %d: %w", i, err)
		}
		if prev, dup := c.byID[string(id)]; dup {
			return nil, fmt.Errorf("duplicate artwork id %s (%q and %q)", id, prev.Title, a.Title)
		}
		a.ID = string(id)
		c.byID[a.ID] = a
		c.artworks = append(c.artworks, a)
	}
	sort.Slice(c.artworks, func(i, j int) bool { return c.artworks[i].ID < c.artworks[j].ID })
	return c, nil
}

// Artworks returns every artwork ordered by id.
func (c *Catalog) Artworks(ctx context.Context) ([]model.Artwork, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]model.Artwork, len(c.artworks))
	copy(out, c.artworks)
	return out, nil
}

// Get returns one artwork by id in any shape Canonicalize accepts.
func (c *Catalog) Get(id string) (model.Artwork, error) {
	canonical, err := favorites.Canonicalize(id)
	if err != nil {
		return model.Artwork{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	a, ok := c.byID[string(canonical)]
	if !ok {
		return model.Artwork{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return a, nil
}

// Len returns the number of artworks.
func (c *Catalog) Len() int {
	return len(c.artworks)
}
