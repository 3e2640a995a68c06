// Package scale attaches a declared trust level to the wall-size inference in effect.
package scale

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/arktecher/Micro-sub000/internal/placement"
)

// Method identifies how an estimate was produced.
type Method string

const (
	// MethodInferredFromFurniture is the default estimate used without calibration.
	MethodInferredFromFurniture Method = "inferred_from_furniture"
	// MethodMeasuredWithMarker is produced once a calibration photo has been committed.
	MethodMeasuredWithMarker Method = "measured_with_marker"
)

// Confidence tiers. Confidence is a property of the method, not a measurement.
const (
	InferredConfidence = 65
	MeasuredConfidence = 95

	inferredTolerance = 40
	measuredTolerance = 5
)

// ErrNoImage is returned when a measurement is requested without a calibration image.
var ErrNoImage = errors.New("calibration image is required")

// Defaults are the assumed wall extents used by the inferred estimate.
type Defaults struct {
	WallWidthCm  float64
	WallHeightCm float64
}

// DefaultDefaults returns the stock wall size.
func DefaultDefaults() Defaults {
	return Defaults{WallWidthCm: 300, WallHeightCm: 240}
}

func (d Defaults) normalized() Defaults {
	stock := DefaultDefaults()
	if d.WallWidthCm <= 0 {
		d.WallWidthCm = stock.WallWidthCm
	}
	if d.WallHeightCm <= 0 {
		d.WallHeightCm = stock.WallHeightCm
	}
	return d
}

// Estimate maps the reference image onto physical centimeters.
type Estimate struct {
	Method            Method
	ConfidencePercent int
	WallWidthCm       float64
	WallHeightCm      float64
}

// InferFromDefaults returns the fixed low-confidence estimate.
func InferFromDefaults(d Defaults) Estimate {
	d = d.normalized()
	return Estimate{
		Method:            MethodInferredFromFurniture,
		ConfidencePercent: InferredConfidence,
		WallWidthCm:       d.WallWidthCm,
		WallHeightCm:      d.WallHeightCm,
	}
}

// MeasureFromMarker returns the fixed high-confidence estimate for a committed
// calibration image. The wall width is the configured width; the height
// follows the photo's aspect ratio.
func MeasureFromMarker(img image.Image, d Defaults) (Estimate, error) {
	if img == nil {
		return Estimate{}, ErrNoImage
	}
	d = d.normalized()

	height := d.WallHeightCm
	b := img.Bounds()
	if b.Dx() > 0 && b.Dy() > 0 {
		height = math.Round(d.WallWidthCm*float64(b.Dy())/float64(b.Dx())*10) / 10
	}

	return Estimate{
		Method:            MethodMeasuredWithMarker,
		ConfidencePercent: MeasuredConfidence,
		WallWidthCm:       d.WallWidthCm,
		WallHeightCm:      height,
	}, nil
}

// TolerancePercent is the stated error margin for the estimate's method.
func (e Estimate) TolerancePercent() int {
	if e.Method == MethodMeasuredWithMarker {
		return measuredTolerance
	}
	return inferredTolerance
}

// Measured reports whether the estimate came from a calibration capture.
func (e Estimate) Measured() bool {
	return e.Method == MethodMeasuredWithMarker
}

// Label is the short qualifier that must accompany any wall-size number.
func (e Estimate) Label() string {
	switch e.Method {
	case MethodMeasuredWithMarker:
		return fmt.Sprintf("measured with marker, %d%% confidence", e.ConfidencePercent)
	case MethodInferredFromFurniture:
		return fmt.Sprintf("inferred from furniture, %d%% confidence", e.ConfidencePercent)
	default:
		return "unknown scale"
	}
}

// String renders the wall size together with its confidence qualifier.
func (e Estimate) String() string {
	return fmt.Sprintf("%.0f × %.0f cm (%s, ±%d%%)",
		e.WallWidthCm, e.WallHeightCm, e.Label(), e.TolerancePercent())
}

// PhysicalSize converts a placement area into centimeters.
func (e Estimate) PhysicalSize(a placement.Area) (widthCm, heightCm float64) {
	return e.WallWidthCm * a.Width() / 100, e.WallHeightCm * a.Height() / 100
}

// DescribeArea renders the physical size of a placement area together with
// the estimate's qualifier, e.g. "about 150 × 120 cm (inferred from
// furniture, 65% confidence, ±40%)".
func (e Estimate) DescribeArea(a placement.Area) string {
	w, h := e.PhysicalSize(a)
	return fmt.Sprintf("about %.0f × %.0f cm (%s, ±%d%%)", w, h, e.Label(), e.TolerancePercent())
}

// Tracker holds the estimate in effect for a session and enforces that a
// measured estimate never degrades back to an inferred one.
type Tracker struct {
	current *Estimate
}

// Apply installs e unless it would replace a measured estimate with an
// inferred one. It reports whether e is now in effect.
func (t *Tracker) Apply(e Estimate) bool {
	if t.current != nil && t.current.Measured() && !e.Measured() {
		return false
	}
	est := e
	t.current = &est
	return true
}

// Current returns the estimate in effect, if any.
func (t *Tracker) Current() (Estimate, bool) {
	if t.current == nil {
		return Estimate{}, false
	}
	return *t.current, true
}

// Reset replaces the tracked estimate unconditionally. Back navigation uses
// it to return to the estimate a step was entered with; nil clears it.
func (t *Tracker) Reset(e *Estimate) {
	if e == nil {
		t.current = nil
		return
	}
	est := *e
	t.current = &est
}
