package scale

import (
	"image"
	"testing"

	"github.com/arktecher/Micro-sub000/internal/placement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferFromDefaults(t *testing.T) {
	est := InferFromDefaults(Defaults{})

	assert.Equal(t, MethodInferredFromFurniture, est.Method)
	assert.Equal(t, 65, est.ConfidencePercent)
	assert.Equal(t, 300.0, est.WallWidthCm)
	assert.Equal(t, 240.0, est.WallHeightCm)
	assert.Equal(t, 40, est.TolerancePercent())
	assert.False(t, est.Measured())
}

func TestMeasureFromMarker(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 300))

	est, err := MeasureFromMarker(img, Defaults{WallWidthCm: 400})
	require.NoError(t, err)

	assert.Equal(t, MethodMeasuredWithMarker, est.Method)
	assert.Equal(t, 95, est.ConfidencePercent)
	assert.Equal(t, 400.0, est.WallWidthCm)
	assert.Equal(t, 300.0, est.WallHeightCm)
	assert.Equal(t, 5, est.TolerancePercent())

	_, err = MeasureFromMarker(nil, Defaults{})
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestEstimate_StringCarriesQualifier(t *testing.T) {
	inferred := InferFromDefaults(Defaults{})
	assert.Equal(t, "300 × 240 cm (inferred from furniture, 65% confidence, ±40%)", inferred.String())

	measured, err := MeasureFromMarker(image.NewRGBA(image.Rect(0, 0, 100, 50)), Defaults{})
	require.NoError(t, err)
	assert.Contains(t, measured.String(), "measured with marker, 95% confidence")
	assert.Contains(t, measured.String(), "±5%")
}

func TestEstimate_PhysicalSize(t *testing.T) {
	area, err := placement.Define(placement.Rect{X: 0, Y: 0, Width: 50, Height: 25})
	require.NoError(t, err)

	w, h := InferFromDefaults(Defaults{WallWidthCm: 400, WallHeightCm: 200}).PhysicalSize(area)
	assert.Equal(t, 200.0, w)
	assert.Equal(t, 50.0, h)
}

func TestEstimate_DescribeAreaCarriesQualifier(t *testing.T) {
	area, err := placement.Define(placement.Rect{X: 0, Y: 0, Width: 50, Height: 50})
	require.NoError(t, err)

	inferred := InferFromDefaults(Defaults{WallWidthCm: 300, WallHeightCm: 240})
	assert.Equal(t, "about 150 × 120 cm (inferred from furniture, 65% confidence, ±40%)", inferred.DescribeArea(area))

	measured, err := MeasureFromMarker(image.NewRGBA(image.Rect(0, 0, 300, 240)), Defaults{})
	require.NoError(t, err)
	assert.Equal(t, "about 150 × 120 cm (measured with marker, 95% confidence, ±5%)", measured.DescribeArea(area))
}

func TestTracker_NeverDegrades(t *testing.T) {
	var tr Tracker

	_, ok := tr.Current()
	assert.False(t, ok)

	assert.True(t, tr.Apply(InferFromDefaults(Defaults{})))
	cur, ok := tr.Current()
	require.True(t, ok)
	assert.Equal(t, MethodInferredFromFurniture, cur.Method)

	measured, err := MeasureFromMarker(image.NewRGBA(image.Rect(0, 0, 10, 10)), Defaults{})
	require.NoError(t, err)
	assert.True(t, tr.Apply(measured))

	// Inferred after measured is refused.
	assert.False(t, tr.Apply(InferFromDefaults(Defaults{})))
	cur, _ = tr.Current()
	assert.Equal(t, MethodMeasuredWithMarker, cur.Method)
	assert.Equal(t, 95, cur.ConfidencePercent)

	// A new measurement fully replaces the previous one.
	second, err := MeasureFromMarker(image.NewRGBA(image.Rect(0, 0, 20, 40)), Defaults{})
	require.NoError(t, err)
	assert.True(t, tr.Apply(second))
	cur, _ = tr.Current()
	assert.Equal(t, second, cur)
}

func TestTracker_Reset(t *testing.T) {
	var tr Tracker
	measured, err := MeasureFromMarker(image.NewRGBA(image.Rect(0, 0, 10, 10)), Defaults{})
	require.NoError(t, err)
	tr.Apply(measured)

	tr.Reset(nil)
	_, ok := tr.Current()
	assert.False(t, ok)

	inferred := InferFromDefaults(Defaults{})
	tr.Reset(&inferred)
	cur, ok := tr.Current()
	require.True(t, ok)
	assert.Equal(t, inferred, cur)
}
