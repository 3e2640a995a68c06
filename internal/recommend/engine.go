// Package recommend proposes candidate artworks for a placement area.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/arktecher/Micro-sub000/internal/model"
	"github.com/arktecher/Micro-sub000/internal/placement"
	"github.com/arktecher/Micro-sub000/internal/scale"
)

// DefaultCandidateCount is the size of a candidate set.
const DefaultCandidateCount = 4

var (
	// ErrMissingPlacementArea is returned when no area has been defined.
	ErrMissingPlacementArea = errors.New("placement area is not defined")
	// ErrInvalidCandidateIndex signals a caller bug: the index is outside the set.
	ErrInvalidCandidateIndex = errors.New("candidate index out of range")
	// ErrEmptyCatalog is returned when there is nothing to propose.
	ErrEmptyCatalog = errors.New("catalog has no artworks")
)

// Catalog is the read-only artwork source.
type Catalog interface {
	Artworks(ctx context.Context) ([]model.Artwork, error)
}

// Strategy records how a set was produced.
type Strategy string

const (
	StrategyInitial     Strategy = "initial"
	StrategyAlternative Strategy = "alternative"
	StrategyShuffle     Strategy = "shuffle"
)

// StyleInputs are the operator's slider positions (0-100) and free text.
// They trigger a refresh; the selection does not read them.
type StyleInputs struct {
	Preference         string
	ModernClassic      int
	MonochromeColorful int
	FigurativeAbstract int
	Size               int
}

// DefaultStyle places every slider in the middle.
func DefaultStyle() StyleInputs {
	return StyleInputs{ModernClassic: 50, MonochromeColorful: 50, FigurativeAbstract: 50, Size: 50}
}

// Request identifies what a proposal is for.
type Request struct {
	Area     *placement.Area
	SpaceID  string
	Estimate scale.Estimate
}

// Set is an ordered candidate sequence with a selection pointer.
type Set struct {
	SpaceID       string
	Strategy      Strategy
	Candidates    []model.Candidate
	SelectedIndex int
	Generation    int
}

// Selected returns the candidate currently previewed.
func (s Set) Selected() (model.Candidate, bool) {
	if s.SelectedIndex < 0 || s.SelectedIndex >= len(s.Candidates) {
		return model.Candidate{}, false
	}
	return s.Candidates[s.SelectedIndex], true
}

// IDs returns the candidate ids in order.
func (s Set) IDs() []string {
	ids := make([]string, len(s.Candidates))
	for i, c := range s.Candidates {
		ids[i] = c.ID
	}
	return ids
}

// Config tunes the engine.
type Config struct {
	CandidateCount int
	// Seed fixes the reproposal branch and shuffles. Zero seeds from the clock.
	Seed int64
}

// Engine produces and refreshes candidate sets.
type Engine struct {
	catalog Catalog
	rng     *rand.Rand
	config  Config
	mu      sync.Mutex
}

// New creates an engine over catalog.
func New(catalog Catalog, cfg Config) *Engine {
	if cfg.CandidateCount <= 0 {
		cfg.CandidateCount = DefaultCandidateCount
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Engine{
		catalog: catalog,
		config:  cfg,
		rng:     rand.New(rand.NewSource(seed)), // #nosec G404 -- variety, not security
	}
}

// InitialPropose returns the deterministic seed set for the space: works
// that fit the area's physical size first, in id order, then the rest.
func (e *Engine) InitialPropose(ctx context.Context, req Request) (Set, error) {
	if req.Area == nil {
		return Set{}, ErrMissingPlacementArea
	}
	seed, err := e.seedSet(ctx, req)
	if err != nil {
		return Set{}, err
	}

	slog.Debug("Proposed initial candidates",
		"space_id", req.SpaceID,
		"count", len(seed))

	return Set{
		SpaceID:    req.SpaceID,
		Strategy:   StrategyInitial,
		Candidates: e.sized(seed, req),
	}, nil
}

// Repropose replaces current with either a set of different artworks or a
// reordering of the seed set, chosen pseudo-randomly. The returned set
// always starts with SelectedIndex 0.
func (e *Engine) Repropose(ctx context.Context, req Request, style StyleInputs, current Set) (Set, error) {
	if req.Area == nil {
		return Set{}, ErrMissingPlacementArea
	}
	all, err := e.catalog.Artworks(ctx)
	if err != nil {
		return Set{}, fmt.Errorf("failed to read catalog: %w", err)
	}
	if len(all) == 0 {
		return Set{}, ErrEmptyCatalog
	}
	seed, err := e.seedSet(ctx, req)
	if err != nil {
		return Set{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	strategy := StrategyShuffle
	var picked []model.Artwork
	if e.rng.Intn(2) == 0 {
		picked = e.alternativeLocked(all, current)
		if len(picked) > 0 {
			strategy = StrategyAlternative
		}
	}
	if strategy == StrategyShuffle {
		picked = e.shuffleLocked(seed, current)
	}

	slog.Debug("Reproposed candidates",
		"space_id", req.SpaceID,
		"strategy", strategy,
		"generation", current.Generation+1,
		"preference", style.Preference)

	return Set{
		SpaceID:    req.SpaceID,
		Strategy:   strategy,
		Candidates: e.sized(picked, req),
		Generation: current.Generation + 1,
	}, nil
}

// Refit recomputes the overlays of set for a changed area or estimate,
// keeping order, selection and generation. Candidates no longer in the
// catalog keep their previous overlay.
func (e *Engine) Refit(ctx context.Context, req Request, set Set) (Set, error) {
	if req.Area == nil {
		return set, ErrMissingPlacementArea
	}
	all, err := e.catalog.Artworks(ctx)
	if err != nil {
		return set, fmt.Errorf("failed to read catalog: %w", err)
	}
	byID := make(map[string]model.Artwork, len(all))
	for _, a := range all {
		byID[a.ID] = a
	}

	wallW, wallH := req.Estimate.PhysicalSize(*req.Area)
	out := set
	out.Candidates = make([]model.Candidate, len(set.Candidates))
	for i, c := range set.Candidates {
		if a, ok := byID[c.ID]; ok {
			c.Overlay = overlay(a, wallW, wallH)
		}
		out.Candidates[i] = c
	}
	return out, nil
}

// SelectCandidate moves the selection pointer. Out-of-range indexes are
// rejected, never wrapped or clamped.
func SelectCandidate(set Set, index int) (Set, error) {
	if index < 0 || index >= len(set.Candidates) {
		return set, fmt.Errorf("%w: %d not in [0,%d)", ErrInvalidCandidateIndex, index, len(set.Candidates))
	}
	set.SelectedIndex = index
	return set, nil
}

func (e *Engine) seedSet(ctx context.Context, req Request) ([]model.Artwork, error) {
	all, err := e.catalog.Artworks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	if len(all) == 0 {
		return nil, ErrEmptyCatalog
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	wallW, wallH := req.Estimate.PhysicalSize(*req.Area)
	var fits, rest []model.Artwork
	for _, a := range all {
		if fitsWithin(a, wallW, wallH) {
			fits = append(fits, a)
		} else {
			rest = append(rest, a)
		}
	}
	ordered := append(fits, rest...)
	n := min(e.config.CandidateCount, len(ordered))
	return ordered[:n], nil
}

func fitsWithin(a model.Artwork, w, h float64) bool {
	if a.WidthCm <= 0 || a.HeightCm <= 0 || w <= 0 || h <= 0 {
		return true
	}
	return a.WidthCm <= w && a.HeightCm <= h
}

// alternativeLocked picks artworks not in current.
func (e *Engine) alternativeLocked(all []model.Artwork, current Set) []model.Artwork {
	inCurrent := make(map[string]bool, len(current.Candidates))
	for _, c := range current.Candidates {
		inCurrent[c.ID] = true
	}
	var pool []model.Artwork
	for _, a := range all {
		if !inCurrent[a.ID] {
			pool = append(pool, a)
		}
	}
	e.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	n := min(e.config.CandidateCount, len(pool))
	return pool[:n]
}

// shuffleLocked permutes the seed set so its order differs from current
// whenever more than one ordering exists.
func (e *Engine) shuffleLocked(seed []model.Artwork, current Set) []model.Artwork {
	out := make([]model.Artwork, len(seed))
	copy(out, seed)
	if len(out) < 2 {
		return out
	}
	prev := current.IDs()
	for attempt := 0; attempt < 8; attempt++ {
		e.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		if !sameOrder(out, prev) {
			return out
		}
	}
	// Rotating by one always yields a different order.
	return append(out[1:], out[0])
}

func sameOrder(works []model.Artwork, ids []string) bool {
	if len(works) != len(ids) {
		return false
	}
	for i := range works {
		if works[i].ID != ids[i] {
			return false
		}
	}
	return true
}

// sized converts artworks to candidates with overlays relative to the area.
func (e *Engine) sized(works []model.Artwork, req Request) []model.Candidate {
	wallW, wallH := req.Estimate.PhysicalSize(*req.Area)
	out := make([]model.Candidate, 0, len(works))
	for _, a := range works {
		c := model.NewCandidate(a)
		c.Overlay = overlay(a, wallW, wallH)
		out = append(out, c)
	}
	return out
}

// overlay sizes an artwork inside an area, keeping its aspect ratio and
// never exceeding the area.
func overlay(a model.Artwork, areaW, areaH float64) model.Overlay {
	if a.WidthCm <= 0 || a.HeightCm <= 0 || areaW <= 0 || areaH <= 0 {
		return model.Overlay{WidthPercent: 60, HeightPercent: 60}
	}
	w := a.WidthCm / areaW * 100
	h := a.HeightCm / areaH * 100
	if f := math.Max(w, h); f > 100 {
		w = w * 100 / f
		h = h * 100 / f
	}
	return model.Overlay{
		WidthPercent:  math.Round(w*10) / 10,
		HeightPercent: math.Round(h*10) / 10,
	}
}
