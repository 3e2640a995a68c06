package placement

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseRect reads "x y width height" in percent. Commas and % signs are
// accepted, so "10%, 20%, 50%, 40%" parses too.
func ParseRect(s string) (Rect, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' })
	if len(fields) != 4 {
		return Rect{}, fmt.Errorf("%w: expected four numbers, got %q", ErrInvalidRect, s)
	}
	var v [4]float64
	for i, f := range fields {
		n, err := strconv.ParseFloat(strings.TrimSuffix(f, "%"), 64)
		if err != nil {
			return Rect{}, fmt.Errorf("%w: invalid number %q", ErrInvalidRect, f)
		}
		v[i] = n
	}
	return Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}

// Format renders r the way ParseRect reads it.
func (r Rect) Format() string {
	return fmt.Sprintf("%g %g %g %g", r.X, r.Y, r.Width, r.Height)
}
