package workflow

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arktecher/Micro-sub000/internal/capture"
	"github.com/arktecher/Micro-sub000/internal/catalog"
	"github.com/arktecher/Micro-sub000/internal/favorites"
	"github.com/arktecher/Micro-sub000/internal/history"
	"github.com/arktecher/Micro-sub000/internal/model"
	"github.com/arktecher/Micro-sub000/internal/placement"
	"github.com/arktecher/Micro-sub000/internal/recommend"
	"github.com/arktecher/Micro-sub000/internal/scale"
	"github.com/arktecher/Micro-sub000/internal/schedule"
	"github.com/arktecher/Micro-sub000/internal/testutil"
)

const (
	analysisDuration  = 4 * time.Second
	reproposeDuration = 2 * time.Second
)

type fakeFrames struct {
	frame  image.Image
	err    error
	closed int
}

func (f *fakeFrames) Frame(context.Context) (image.Image, error) {
	return f.frame, f.err
}

func (f *fakeFrames) Close() error {
	f.closed++
	return nil
}

type fakeDevice struct {
	frames *fakeFrames
	err    error
	opens  int
}

func (d *fakeDevice) Open(context.Context) (capture.Frames, error) {
	d.opens++
	if d.err != nil {
		return nil, d.err
	}
	return d.frames, nil
}

// recordingHistory records pushes and leaves pop delivery to the test.
type recordingHistory struct {
	pushes  []history.Entry
	backs   int
	unwound int
}

func (h *recordingHistory) Push(e history.Entry) { h.pushes = append(h.pushes, e) }
func (h *recordingHistory) Back()                { h.backs++ }
func (h *recordingHistory) Unwind(n int)         { h.unwound += n }

type fixture struct {
	session *Session
	stack   *history.Stack
	clock   *schedule.Manual
	device  *fakeDevice
	store   *favorites.Store
}

type fixtureOption func(*Params, *Options, *Deps)

func withSkipCapture() fixtureOption {
	return func(_ *Params, o *Options, _ *Deps) { o.SkipCapture = true }
}

func withSavedArea(a model.SavedArea) fixtureOption {
	return func(p *Params, _ *Options, _ *Deps) { p.SavedArea = &a }
}

func withHistory(h history.History) fixtureOption {
	return func(_ *Params, _ *Options, d *Deps) { d.History = h }
}

func withFavorites(store *favorites.Store) fixtureOption {
	return func(_ *Params, _ *Options, d *Deps) { d.Favorites = store }
}

func withHandoff(h Handoff) fixtureOption {
	return func(_ *Params, _ *Options, d *Deps) { d.Handoff = h }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	cat, err := catalog.Default()
	require.NoError(t, err)

	f := &fixture{
		stack:  history.NewStack(),
		clock:  schedule.NewManual(),
		device: &fakeDevice{frames: &fakeFrames{frame: testImage(400, 300)}},
		store:  favorites.NewStore(favorites.NewMemoryBackend(), nil),
	}

	params := Params{SpaceID: "lobby", ReferenceImages: []string{"lobby.jpg"}}
	options := Options{
		AnalysisDuration:  analysisDuration,
		ReproposeDuration: reproposeDuration,
		ScaleDefaults:     scale.Defaults{WallWidthCm: 300, WallHeightCm: 240},
	}
	deps := Deps{
		Capture:   capture.NewSubsystem(f.device),
		History:   f.stack,
		Scheduler: f.clock,
		Engine:    recommend.New(cat, recommend.Config{Seed: 42}),
		Favorites: f.store,
	}
	for _, opt := range opts {
		opt(&params, &options, &deps)
	}

	f.session, err = New(context.Background(), params, options, deps)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.session.Close() })
	return f
}

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(2, 2, color.RGBA{G: 180, A: 255})
	return img
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(w, h)))
	return buf.Bytes()
}

// toImageConfirm drives a fresh session to the image confirmation step via
// the file path.
func (f *fixture) toImageConfirm(t *testing.T) {
	t.Helper()
	require.NoError(t, f.session.ChooseCalibration())
	require.NoError(t, f.session.IngestFile(context.Background(), "wall.png", bytes.NewReader(pngBytes(t, 400, 300))))
	require.Equal(t, StepImageConfirm, f.session.Step())
}

func (f *fixture) toRecommendation(t *testing.T) {
	t.Helper()
	f.toImageConfirm(t)
	require.NoError(t, f.session.UsePhoto())
	f.clock.Advance(analysisDuration)
	require.Equal(t, StepRecommendation, f.session.Step())
}

func TestNew_Validation(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	engine := recommend.New(cat, recommend.Config{})

	_, err = New(context.Background(), Params{}, Options{}, Deps{Engine: engine, Scheduler: schedule.NewManual()})
	assert.Error(t, err)
	_, err = New(context.Background(), Params{SpaceID: "x"}, Options{}, Deps{Scheduler: schedule.NewManual()})
	assert.Error(t, err)
	_, err = New(context.Background(), Params{SpaceID: "x"}, Options{}, Deps{Engine: engine})
	assert.Error(t, err)
}

func TestSkipCalibration_UsesInferredEstimate(t *testing.T) {
	f := newFixture(t, withSavedArea(model.SavedArea{X: 10, Y: 10, Width: 40, Height: 40}))
	s := f.session

	require.NoError(t, s.SkipCalibration(context.Background()))

	snap := s.Snapshot()
	assert.Equal(t, StepRecommendation, snap.Step)
	require.NotNil(t, snap.Estimate)
	assert.Equal(t, scale.MethodInferredFromFurniture, snap.Estimate.Method)
	assert.Equal(t, 65, snap.Estimate.ConfidencePercent)
	require.NotNil(t, snap.Set)
	assert.Len(t, snap.Set.Candidates, recommend.DefaultCandidateCount)
	assert.Equal(t, recommend.StrategyInitial, snap.Set.Strategy)
	assert.Equal(t, 1, snap.Depth)
	assert.Equal(t, 1, f.stack.Len())
}

func TestSkipCapture_OpensAtRecommendation(t *testing.T) {
	f := newFixture(t, withSkipCapture(), withSavedArea(model.SavedArea{X: 0, Y: 0, Width: 50, Height: 50}))
	s := f.session

	snap := s.Snapshot()
	assert.Equal(t, StepRecommendation, snap.Step)
	assert.Equal(t, 0, snap.Depth)
	assert.Equal(t, 0, f.stack.Len())
	require.NotNil(t, snap.Estimate)
	assert.Equal(t, scale.InferredConfidence, snap.Estimate.ConfidencePercent)
	require.NotNil(t, snap.Set)

	// No entries of its own: back leaves the workflow.
	require.NoError(t, s.Back())
	assert.True(t, s.Exited())
	assert.True(t, s.Closed())
}

func TestCalibration_ProducesMeasuredEstimate(t *testing.T) {
	f := newFixture(t, withSavedArea(model.SavedArea{X: 20, Y: 20, Width: 40, Height: 30}))
	s := f.session
	ctx := context.Background()

	require.NoError(t, s.ChooseCalibration())
	strategy, err := s.RequestCapture(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, capture.StrategyLiveStream, strategy)
	assert.True(t, s.Snapshot().StreamOpen)

	require.NoError(t, s.CaptureFrame(ctx))
	assert.Equal(t, StepImageConfirm, s.Step())
	assert.Equal(t, 1, f.device.frames.closed, "stream released exactly once")

	require.NoError(t, s.UsePhoto())
	snap := s.Snapshot()
	assert.Equal(t, StepAnalyzing, snap.Step)
	assert.True(t, snap.Running())
	assert.Nil(t, snap.Pending)
	require.NotNil(t, snap.Committed)

	f.clock.Advance(analysisDuration / 2)
	snap = s.Snapshot()
	assert.Equal(t, StepAnalyzing, snap.Step)
	assert.Equal(t, 50, snap.Progress.Percent)
	assert.Equal(t, "Estimating scale", snap.Progress.Stage)

	f.clock.Advance(analysisDuration / 2)
	snap = s.Snapshot()
	assert.Equal(t, StepRecommendation, snap.Step)
	require.NotNil(t, snap.Estimate)
	assert.Equal(t, scale.MethodMeasuredWithMarker, snap.Estimate.Method)
	assert.Equal(t, 95, snap.Estimate.ConfidencePercent)

	want, err := scale.MeasureFromMarker(testImage(400, 300), scale.Defaults{WallWidthCm: 300, WallHeightCm: 240})
	require.NoError(t, err)
	assert.Equal(t, want, *snap.Estimate)
	assert.Equal(t, 225.0, snap.Estimate.WallHeightCm)

	require.NotNil(t, snap.Set)
	assert.Equal(t, 4, snap.Depth)
	assert.Equal(t, 4, f.stack.Len())
	assert.Equal(t, 0, f.clock.Pending())
}

func TestInferredThenCalibrated_FullyReplaced(t *testing.T) {
	f := newFixture(t, withSavedArea(model.SavedArea{X: 0, Y: 0, Width: 30, Height: 30}))
	s := f.session

	require.NoError(t, s.SkipCalibration(context.Background()))
	require.Equal(t, scale.MethodInferredFromFurniture, s.Snapshot().Estimate.Method)

	require.NoError(t, s.Back())
	require.Equal(t, StepModeSelection, s.Step())

	f.toRecommendation(t)
	est := s.Snapshot().Estimate
	require.NotNil(t, est)
	assert.Equal(t, scale.MethodMeasuredWithMarker, est.Method)
	assert.Equal(t, scale.MeasuredConfidence, est.ConfidencePercent)
	assert.Equal(t, 5, est.TolerancePercent())
}

func TestHistory_PushPopRoundTrip(t *testing.T) {
	tests := []struct {
		setup   func(t *testing.T, f *fixture)
		forward func(t *testing.T, f *fixture)
		name    string
	}{
		{
			name:    "mode selection to capture guide",
			setup:   func(*testing.T, *fixture) {},
			forward: func(t *testing.T, f *fixture) { require.NoError(t, f.session.ChooseCalibration()) },
		},
		{
			name:  "capture guide to image confirm",
			setup: func(t *testing.T, f *fixture) { require.NoError(t, f.session.ChooseCalibration()) },
			forward: func(t *testing.T, f *fixture) {
				require.NoError(t, f.session.IngestFile(context.Background(), "a.png", bytes.NewReader(pngBytes(t, 40, 30))))
			},
		},
		{
			name:    "image confirm to analyzing",
			setup:   func(t *testing.T, f *fixture) { f.toImageConfirm(t) },
			forward: func(t *testing.T, f *fixture) { require.NoError(t, f.session.UsePhoto()) },
		},
		{
			name:  "mode selection to recommendation",
			setup: func(*testing.T, *fixture) {},
			forward: func(t *testing.T, f *fixture) {
				require.NoError(t, f.session.SkipCalibration(context.Background()))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, withSavedArea(model.SavedArea{X: 5, Y: 5, Width: 50, Height: 50}))
			tt.setup(t, f)
			before := f.session.Snapshot()
			stackBefore := f.stack.Len()

			tt.forward(t, f)
			assert.Equal(t, before.Depth+1, f.session.Depth(), "exactly one push")
			assert.Equal(t, stackBefore+1, f.stack.Len())

			require.NoError(t, f.session.Back())
			assert.Equal(t, before, f.session.Snapshot())
			assert.Equal(t, stackBefore, f.stack.Len())
			assert.Equal(t, 0, f.clock.Pending(), "no timers left behind")
		})
	}
}

func TestForwardTransitions_PushOneEntryEach(t *testing.T) {
	h := &recordingHistory{}
	f := newFixture(t, withHistory(h), withSavedArea(model.SavedArea{Width: 40, Height: 40}))
	s := f.session
	ctx := context.Background()

	require.NoError(t, s.ChooseCalibration())
	_, err := s.RequestCapture(ctx, "")
	require.NoError(t, err)
	require.NoError(t, s.CaptureFrame(ctx))
	require.NoError(t, s.UsePhoto())
	f.clock.Advance(analysisDuration)

	require.Len(t, h.pushes, 4)
	wantSteps := []Step{StepCaptureGuide, StepImageConfirm, StepAnalyzing, StepRecommendation}
	for i, e := range h.pushes {
		assert.Equal(t, s.ID(), e.SessionID)
		assert.Equal(t, i+1, e.Seq)
		assert.Equal(t, wantSteps[i].String(), e.Step)
	}

	// Rejected actions never push.
	assert.ErrorIs(t, s.ChooseCalibration(), ErrInvalidTransition)
	assert.ErrorIs(t, s.UsePhoto(), ErrInvalidTransition)
	assert.Len(t, h.pushes, 4)

	require.NoError(t, s.Close())
	assert.Equal(t, 4, h.unwound, "close unwinds every pushed entry")
}

func TestHandleBack_ReconcilesDrift(t *testing.T) {
	h := &recordingHistory{}
	f := newFixture(t, withHistory(h))
	s := f.session

	f.toImageConfirm(t)
	require.NoError(t, s.UsePhoto())
	require.Equal(t, 3, s.Depth())

	// Duplicate or stale events do not move the session.
	s.HandleBack(&h.pushes[2])
	assert.Equal(t, StepAnalyzing, s.Step())
	s.HandleBack(&history.Entry{SessionID: s.ID(), Seq: 9, Step: "recommendation"})
	assert.Equal(t, 3, s.Depth())

	// Two pops collapsed into one event land on the entry now on top.
	s.HandleBack(&h.pushes[0])
	snap := s.Snapshot()
	assert.Equal(t, StepCaptureGuide, snap.Step)
	assert.Equal(t, 1, snap.Depth)
	assert.Nil(t, snap.Pending)
	assert.Nil(t, snap.Committed)
	assert.False(t, snap.Running())

	f.clock.Advance(time.Minute)
	assert.Equal(t, StepCaptureGuide, s.Step())

	// A foreign entry means the session's entries are gone.
	s.HandleBack(&history.Entry{SessionID: "another-page", Seq: 7})
	assert.Equal(t, StepModeSelection, s.Step())
	assert.False(t, s.Exited())
	s.HandleBack(nil)
	assert.True(t, s.Exited())
}

func TestBackDuringAnalyzing_NeverCompletesLate(t *testing.T) {
	f := newFixture(t, withSavedArea(model.SavedArea{Width: 40, Height: 40}))
	s := f.session

	f.toImageConfirm(t)
	require.NoError(t, s.UsePhoto())
	f.clock.Advance(analysisDuration / 4)
	require.Equal(t, StepAnalyzing, s.Step())

	require.NoError(t, s.Back())
	assert.Equal(t, StepImageConfirm, s.Step())
	assert.Equal(t, 0, f.clock.Pending())

	f.clock.Advance(10 * analysisDuration)
	snap := s.Snapshot()
	assert.Equal(t, StepImageConfirm, snap.Step)
	assert.Equal(t, 2, snap.Depth)
	assert.Nil(t, snap.Estimate)
	assert.Equal(t, 2, f.stack.Len())
	assert.NotNil(t, snap.Pending, "the photo is back up for confirmation")
}

func TestClose_DuringAnalyzingCancelsEverything(t *testing.T) {
	f := newFixture(t)
	s := f.session

	f.toImageConfirm(t)
	require.NoError(t, s.UsePhoto())
	f.clock.Advance(time.Second)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 0, f.clock.Pending())
	assert.Equal(t, 0, f.stack.Len())

	f.clock.Advance(time.Minute)
	snap := s.Snapshot()
	assert.True(t, snap.Closed)
	assert.Equal(t, StepAnalyzing, snap.Step)
	assert.Nil(t, snap.Committed)

	assert.ErrorIs(t, s.ChooseCalibration(), ErrSessionClosed)
	assert.ErrorIs(t, s.Back(), ErrSessionClosed)
	_, err := s.ToggleFavorite(context.Background(), 1)
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestClose_ReleasesOpenStream(t *testing.T) {
	f := newFixture(t)
	s := f.session

	require.NoError(t, s.ChooseCalibration())
	_, err := s.RequestCapture(context.Background(), "desktop")
	require.NoError(t, err)
	require.True(t, s.Snapshot().StreamOpen)

	require.NoError(t, s.Close())
	assert.Equal(t, 1, f.device.frames.closed)
}

func TestRequestCapture_MobileNeverOpensDevice(t *testing.T) {
	f := newFixture(t)
	s := f.session
	ctx := context.Background()

	require.NoError(t, s.ChooseCalibration())
	strategy, err := s.RequestCapture(ctx, "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0)")
	require.NoError(t, err)
	assert.Equal(t, capture.StrategyFileChooser, strategy)
	assert.Equal(t, 0, f.device.opens)

	snap := s.Snapshot()
	assert.True(t, snap.AwaitingFile)
	assert.False(t, snap.StreamOpen)
	_, hasReason := s.FallbackReason()
	assert.False(t, hasReason, "the chooser is preferred on mobile, not a fallback")

	require.NoError(t, s.IngestFile(ctx, "wall.png", bytes.NewReader(pngBytes(t, 60, 40))))
	assert.Equal(t, StepImageConfirm, s.Step())
}

func TestRequestCapture_FailuresFallBackToFile(t *testing.T) {
	tests := []struct {
		err  error
		want capture.Reason
	}{
		{err: os.ErrPermission, want: capture.ReasonPermissionDenied},
		{err: os.ErrNotExist, want: capture.ReasonDeviceNotFound},
		{err: capture.ErrDeviceBusy, want: capture.ReasonDeviceBusy},
	}
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			f := newFixture(t)
			f.device.err = tt.err
			s := f.session

			require.NoError(t, s.ChooseCalibration())
			strategy, err := s.RequestCapture(context.Background(), "")
			require.NoError(t, err)
			assert.Equal(t, capture.StrategyFileChooser, strategy)

			reason, ok := s.FallbackReason()
			require.True(t, ok)
			assert.Equal(t, tt.want, reason)

			snap := s.Snapshot()
			assert.Equal(t, StepCaptureGuide, snap.Step)
			assert.True(t, snap.AwaitingFile)
			assert.Equal(t, tt.want.Message(), snap.FallbackMessage())
		})
	}
}

func TestRequestCapture_SecondRequestWhilePending(t *testing.T) {
	f := newFixture(t)
	s := f.session
	ctx := context.Background()

	require.NoError(t, s.ChooseCalibration())
	_, err := s.RequestCapture(ctx, "")
	require.NoError(t, err)

	_, err = s.RequestCapture(ctx, "")
	assert.ErrorIs(t, err, ErrTransitionPending)
	err = s.IngestFile(ctx, "wall.png", bytes.NewReader(pngBytes(t, 10, 10)))
	assert.ErrorIs(t, err, ErrTransitionPending)
	assert.Equal(t, 1, f.device.opens)
	assert.Equal(t, StepCaptureGuide, s.Step())

	require.NoError(t, s.CancelCapture())
	assert.Equal(t, 1, f.device.frames.closed)
	assert.True(t, s.Snapshot().AwaitingFile)

	_, err = s.RequestCapture(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, f.device.opens)

	require.NoError(t, s.CaptureFrame(ctx))
	assert.ErrorIs(t, s.CaptureFrame(ctx), ErrInvalidTransition, "a second frame cannot be ingested")
	assert.Equal(t, 2, s.Depth())
}

func TestCaptureFrame_FailureStaysOnGuide(t *testing.T) {
	f := newFixture(t)
	f.device.frames.err = os.ErrDeadlineExceeded
	s := f.session
	ctx := context.Background()

	require.NoError(t, s.ChooseCalibration())
	_, err := s.RequestCapture(ctx, "")
	require.NoError(t, err)

	assert.Error(t, s.CaptureFrame(ctx))
	snap := s.Snapshot()
	assert.Equal(t, StepCaptureGuide, snap.Step)
	assert.Nil(t, snap.Pending)
	assert.True(t, snap.AwaitingFile)
	assert.False(t, snap.StreamOpen)
	assert.Equal(t, 1, f.device.frames.closed)
}

func TestIngestFile_UndecodableStays(t *testing.T) {
	f := newFixture(t)
	s := f.session

	require.NoError(t, s.ChooseCalibration())
	err := s.IngestFile(context.Background(), "notes.txt", bytes.NewReader([]byte("not an image")))
	assert.ErrorIs(t, err, capture.ErrUnsupportedImage)
	assert.Equal(t, StepCaptureGuide, s.Step())
	assert.Equal(t, 1, s.Depth())
}

func TestRetake_PopsBackToGuide(t *testing.T) {
	f := newFixture(t)
	s := f.session

	f.toImageConfirm(t)
	require.NoError(t, s.Retake())

	snap := s.Snapshot()
	assert.Equal(t, StepCaptureGuide, snap.Step)
	assert.Nil(t, snap.Pending)
	assert.Equal(t, 1, snap.Depth)
	assert.Equal(t, 1, f.stack.Len())

	assert.ErrorIs(t, s.Retake(), ErrInvalidTransition)
}

func TestRetake_WaitsForPopAcknowledgement(t *testing.T) {
	h := &recordingHistory{}
	f := newFixture(t, withHistory(h))
	s := f.session

	f.toImageConfirm(t)
	require.NoError(t, s.Retake())
	assert.ErrorIs(t, s.Retake(), ErrTransitionPending)
	assert.ErrorIs(t, s.UsePhoto(), ErrTransitionPending)
	assert.Equal(t, 1, h.backs)

	s.HandleBack(&h.pushes[0])
	assert.Equal(t, StepCaptureGuide, s.Step())
}

func TestRepropose_ReplacesSetAfterPipeline(t *testing.T) {
	f := newFixture(t, withSkipCapture(), withSavedArea(model.SavedArea{X: 10, Y: 10, Width: 60, Height: 60}))
	s := f.session

	current := s.Snapshot().Set
	require.NotNil(t, current)

	for i := 0; i < 6; i++ {
		require.NoError(t, s.SelectCandidate(len(current.Candidates)-1))
		require.NoError(t, s.Repropose(recommend.DefaultStyle()))

		snap := s.Snapshot()
		assert.Equal(t, "reproposal", snap.Pipeline)
		assert.ErrorIs(t, s.Repropose(recommend.DefaultStyle()), ErrTransitionPending)
		_, err := s.ConfirmExhibition(context.Background())
		assert.ErrorIs(t, err, ErrTransitionPending)

		f.clock.Advance(reproposeDuration)
		next := s.Snapshot().Set
		require.NotNil(t, next)
		assert.Equal(t, 0, next.SelectedIndex)
		assert.Equal(t, current.Generation+1, next.Generation)
		assert.NotEqual(t, current.IDs(), next.IDs())
		_, ok := next.Selected()
		assert.True(t, ok)
		current = next
	}
}

func TestRepropose_MissingArea(t *testing.T) {
	f := newFixture(t, withSkipCapture())
	s := f.session

	snap := s.Snapshot()
	assert.True(t, snap.NeedsArea)
	assert.Nil(t, snap.Set)

	assert.ErrorIs(t, s.Repropose(recommend.DefaultStyle()), recommend.ErrMissingPlacementArea)
	assert.True(t, s.NeedsArea())
	_, err := s.RepositionArea(5, 5)
	assert.ErrorIs(t, err, recommend.ErrMissingPlacementArea)

	_, err = s.DefineArea(placement.Rect{X: 90, Y: 90, Width: 30, Height: 30})
	require.NoError(t, err)
	snap = s.Snapshot()
	assert.False(t, snap.NeedsArea)
	require.NotNil(t, snap.Set)
	require.NotNil(t, snap.Area)
	assert.LessOrEqual(t, snap.Area.X()+snap.Area.Width(), 100.0)
	assert.LessOrEqual(t, snap.Area.Y()+snap.Area.Height(), 100.0)
}

func TestBackDuringReproposal_CancelsIt(t *testing.T) {
	f := newFixture(t, withSavedArea(model.SavedArea{Width: 50, Height: 50}))
	s := f.session

	require.NoError(t, s.SkipCalibration(context.Background()))
	require.NoError(t, s.Repropose(recommend.StyleInputs{Preference: "calm blues"}))
	f.clock.Advance(reproposeDuration / 2)

	require.NoError(t, s.Back())
	assert.Equal(t, StepModeSelection, s.Step())
	assert.Equal(t, 0, f.clock.Pending())

	f.clock.Advance(time.Minute)
	snap := s.Snapshot()
	assert.Equal(t, StepModeSelection, snap.Step)
	assert.Nil(t, snap.Set)
}

func TestBackFromRecommendation_RestartsAnalysis(t *testing.T) {
	f := newFixture(t, withSavedArea(model.SavedArea{Width: 50, Height: 50}))
	s := f.session

	f.toRecommendation(t)
	require.NoError(t, s.Back())

	snap := s.Snapshot()
	assert.Equal(t, StepAnalyzing, snap.Step)
	assert.Equal(t, 3, snap.Depth)
	assert.Equal(t, "analysis", snap.Pipeline)
	assert.Nil(t, snap.Estimate, "estimate reverts to what analysis started with")
	assert.Nil(t, snap.Set)

	f.clock.Advance(analysisDuration)
	snap = s.Snapshot()
	assert.Equal(t, StepRecommendation, snap.Step)
	assert.Equal(t, 4, snap.Depth)
	assert.Equal(t, 4, f.stack.Len())
}

func TestSelectCandidate(t *testing.T) {
	f := newFixture(t, withSkipCapture(), withSavedArea(model.SavedArea{Width: 50, Height: 50}))
	s := f.session

	require.NoError(t, s.SelectCandidate(2))
	sel, ok := s.Snapshot().Selected()
	require.True(t, ok)
	assert.Equal(t, s.Snapshot().Set.Candidates[2].ID, sel.ID)

	assert.ErrorIs(t, s.SelectCandidate(-1), recommend.ErrInvalidCandidateIndex)
	assert.ErrorIs(t, s.SelectCandidate(4), recommend.ErrInvalidCandidateIndex)
	assert.Equal(t, 2, s.Snapshot().Set.SelectedIndex)
}

func TestDefineArea_RefitsCandidates(t *testing.T) {
	f := newFixture(t, withSkipCapture(), withSavedArea(model.SavedArea{Width: 20, Height: 20}))
	s := f.session

	before := s.Snapshot().Set
	require.NotNil(t, before)

	_, err := s.DefineArea(placement.Rect{Width: 100, Height: 100})
	require.NoError(t, err)
	after := s.Snapshot().Set
	require.NotNil(t, after)
	assert.Equal(t, before.IDs(), after.IDs())
	assert.Less(t, after.Candidates[0].Overlay.WidthPercent, before.Candidates[0].Overlay.WidthPercent)

	moved, err := s.RepositionArea(-10, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, moved.X())
}

func TestConfirmExhibition_HandsOffAndCloses(t *testing.T) {
	db := testutil.SetupTestDB(t, model.Space{ID: "lobby", Name: "Lobby"})
	f := newFixture(t,
		withHandoff(db.Storage),
		withSavedArea(model.SavedArea{X: 10, Y: 10, Width: 30, Height: 30}))
	s := f.session
	ctx := context.Background()

	require.NoError(t, s.SkipCalibration(ctx))
	_, err := s.DefineArea(placement.Rect{X: 20, Y: 25, Width: 40, Height: 35})
	require.NoError(t, err)
	require.NoError(t, s.SelectCandidate(1))
	chosen, ok := s.Snapshot().Selected()
	require.True(t, ok)

	req, err := s.ConfirmExhibition(ctx)
	require.NoError(t, err)
	assert.Equal(t, chosen.ID, req.CandidateID)
	assert.Equal(t, "lobby", req.SpaceID)
	assert.NotEmpty(t, req.RequestID)

	assert.True(t, s.Closed())
	assert.False(t, s.Exited())
	assert.Equal(t, 0, f.stack.Len())

	stored, err := db.Storage.ListExhibitions(ctx, "lobby")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, chosen.ID, stored[0].CandidateID)

	space := db.MustGetSpace("lobby")
	require.NotNil(t, space.SavedArea)
	assert.Equal(t, model.SavedArea{X: 20, Y: 25, Width: 40, Height: 35}, *space.SavedArea)
}

func TestConfirmExhibition_RequiresRecommendation(t *testing.T) {
	f := newFixture(t)
	_, err := f.session.ConfirmExhibition(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestFavorites_ReadOnMountAcrossSurfaces(t *testing.T) {
	f := newFixture(t, withSkipCapture(), withSavedArea(model.SavedArea{Width: 50, Height: 50}))
	s := f.session
	ctx := context.Background()

	favorited, err := s.ToggleFavorite(ctx, "WRK-007")
	require.NoError(t, err)
	assert.True(t, favorited)
	assert.True(t, s.Snapshot().Favorites.Has("WRK-007"))

	account := favorites.NewSurface(favorites.SurfaceBuyerAccount, f.store, nil)
	require.NoError(t, account.Mount(ctx))
	defer account.Unmount()
	assert.True(t, account.Has(7))

	// A toggle from another surface reaches the workflow through notification.
	_, err = account.Toggle(ctx, 7)
	require.NoError(t, err)
	assert.False(t, s.Snapshot().Favorites.Has("WRK-007"))

	_, err = s.ToggleFavorite(ctx, "no-such-artwork")
	assert.True(t, favorites.IsUnparseable(err))
	assert.Equal(t, 0, s.Snapshot().Favorites.Len())
}

func TestFavorites_WatcherDeliversOtherProcessWrites(t *testing.T) {
	backend := favorites.NewMemoryBackend()
	bus := favorites.NewBus()
	f := newFixture(t, withSkipCapture(), withFavorites(favorites.NewStore(backend, bus)))
	ctx := context.Background()

	watcher := favorites.NewWatcher(backend, bus, time.Hour)
	require.NoError(t, watcher.Start(ctx))
	defer watcher.Stop()

	// Another process shares the persistence but not the bus.
	other := favorites.NewStore(backend, favorites.NewBus())
	_, err := other.Toggle(ctx, "WRK-004", favorites.SurfaceVenueDashboard)
	require.NoError(t, err)
	assert.False(t, f.session.Snapshot().Favorites.Has("WRK-004"))

	changed, err := watcher.Poll(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, f.session.Snapshot().Favorites.Has("WRK-004"))
}

func TestSubscribe_ReceivesSnapshots(t *testing.T) {
	f := newFixture(t)
	s := f.session

	var steps []Step
	unsubscribe := s.Subscribe(func(snap Snapshot) { steps = append(steps, snap.Step) })

	require.NoError(t, s.ChooseCalibration())
	require.NoError(t, s.Back())
	unsubscribe()
	require.NoError(t, s.ChooseCalibration())

	assert.Equal(t, []Step{StepCaptureGuide, StepModeSelection}, steps)
}

func TestParseStep(t *testing.T) {
	for _, step := range []Step{StepModeSelection, StepCaptureGuide, StepImageConfirm, StepAnalyzing, StepRecommendation} {
		got, err := ParseStep(step.String())
		require.NoError(t, err)
		assert.Equal(t, step, got)
		assert.NotEmpty(t, step.Title())
	}
	_, err := ParseStep("checkout")
	assert.Error(t, err)
}
