// Package placement models the rectangle an operator marks on a space photo.
//
// Coordinates are percentages (0-100) of the displayed reference image, so an
// area stays valid when the image is shown at a different size or orientation.
package placement

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/arktecher/Micro-sub000/internal/model"
)

// MinSize is the smallest width or height, in percent, an area may have.
const MinSize = 1.0

// ErrInvalidRect is returned for rectangles that cannot be clamped into bounds.
var ErrInvalidRect = errors.New("invalid placement rectangle")

// Rect is an unvalidated rectangle as drawn by the operator.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Area is a placement rectangle that always satisfies
// 0 <= X, 0 <= Y, X+Width <= 100 and Y+Height <= 100.
type Area struct {
	x      float64
	y      float64
	width  float64
	height float64
}

// Define validates a drawn rectangle. Overflowing rectangles are clamped to
// the nearest valid rectangle rather than rejected; only non-finite input fails.
func Define(r Rect) (Area, error) {
	for _, v := range []float64{r.X, r.Y, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Area{}, fmt.Errorf("%w: non-finite coordinate %v", ErrInvalidRect, v)
		}
	}

	// A rectangle dragged up or left arrives with a negative extent.
	if r.Width < 0 {
		r.X += r.Width
		r.Width = -r.Width
	}
	if r.Height < 0 {
		r.Y += r.Height
		r.Height = -r.Height
	}

	x, w := clampSpan(r.X, r.Width)
	y, h := clampSpan(r.Y, r.Height)
	return Area{x: x, y: y, width: w, height: h}, nil
}

// FromSaved converts a persisted rectangle, clamping it like Define.
func FromSaved(s *model.SavedArea) (*Area, error) {
	if s == nil {
		return nil, nil
	}
	a, err := Define(Rect{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// clampSpan fits a 1-D span [pos, pos+size] into [0, 100].
func clampSpan(pos, size float64) (float64, float64) {
	size = math.Max(MinSize, math.Min(size, 100))
	if pos < 0 {
		// Keep the far edge where the operator left it when possible.
		size = math.Max(MinSize, size+pos)
		pos = 0
	}
	if pos+size > 100 {
		if pos > 100-MinSize {
			pos = 100 - MinSize
		}
		size = 100 - pos
	}
	return pos, size
}

// X returns the left edge in percent.
func (a Area) X() float64 { return a.x }

// Y returns the top edge in percent.
func (a Area) Y() float64 { return a.y }

// Width returns the width in percent.
func (a Area) Width() float64 { return a.width }

// Height returns the height in percent.
func (a Area) Height() float64 { return a.height }

// Rect returns the area as a plain rectangle.
func (a Area) Rect() Rect {
	return Rect{X: a.x, Y: a.y, Width: a.width, Height: a.height}
}

// Saved returns the persisted form of the area.
func (a Area) Saved() *model.SavedArea {
	return &model.SavedArea{X: a.x, Y: a.y, Width: a.width, Height: a.height}
}

// Reposition translates the area by a percentage delta. The size is kept and
// the position is clamped so the area never leaves the image.
func (a Area) Reposition(dx, dy float64) Area {
	if math.IsNaN(dx) || math.IsInf(dx, 0) {
		dx = 0
	}
	if math.IsNaN(dy) || math.IsInf(dy, 0) {
		dy = 0
	}
	a.x = math.Min(math.Max(a.x+dx, 0), 100-a.width)
	a.y = math.Min(math.Max(a.y+dy, 0), 100-a.height)
	return a
}

// Valid reports whether the area lies within the image bounds.
func (a Area) Valid() bool {
	return a.x >= 0 && a.y >= 0 &&
		a.width > 0 && a.height > 0 &&
		a.x+a.width <= 100 && a.y+a.height <= 100
}

// Contains reports whether a point, in percent, lies inside the area.
func (a Area) Contains(px, py float64) bool {
	return px >= a.x && px <= a.x+a.width && py >= a.y && py <= a.y+a.height
}

// Pixels maps the area onto an image of the given size.
func (a Area) Pixels(width, height int) image.Rectangle {
	x0 := int(math.Round(a.x / 100 * float64(width)))
	y0 := int(math.Round(a.y / 100 * float64(height)))
	x1 := int(math.Round((a.x + a.width) / 100 * float64(width)))
	y1 := int(math.Round((a.y + a.height) / 100 * float64(height)))
	return image.Rect(x0, y0, x1, y1)
}

// String formats the area for logs and status lines.
func (a Area) String() string {
	return fmt.Sprintf("x=%.1f%% y=%.1f%% w=%.1f%% h=%.1f%%", a.x, a.y, a.width, a.height)
}
