// Package workflow drives a placement session from scale calibration to a
// confirmed exhibition, keeping forward steps and the platform back action
// symmetric.
//
// Every forward transition pushes exactly one history entry. The session
// never moves backwards on its own: back buttons ask the platform to pop,
// and the resulting pop event (HandleBack) is the only input that rewinds
// the step. All operations are serialized by the session mutex; timers fire
// through the injected scheduler and are ignored once superseded.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arktecher/Micro-sub000/internal/capture"
	"github.com/arktecher/Micro-sub000/internal/favorites"
	"github.com/arktecher/Micro-sub000/internal/history"
	"github.com/arktecher/Micro-sub000/internal/model"
	"github.com/arktecher/Micro-sub000/internal/placement"
	"github.com/arktecher/Micro-sub000/internal/recommend"
	"github.com/arktecher/Micro-sub000/internal/scale"
	"github.com/arktecher/Micro-sub000/internal/schedule"
)

// Handoff receives the chosen candidate when the operator confirms.
type Handoff interface {
	ConfirmExhibition(ctx context.Context, req model.Exhibition) (model.Exhibition, error)
}

// AreaSaver is implemented by handoffs that also persist the space's
// placement area.
type AreaSaver interface {
	SaveSpaceArea(ctx context.Context, spaceID string, area *model.SavedArea) error
}

// Params is what the navigation shell passes in when the workflow opens.
type Params struct {
	SavedArea       *model.SavedArea
	SpaceID         string
	ReferenceImages []string
}

// Options tune a session.
type Options struct {
	FormFactor        capture.FormFactor
	ScaleDefaults     scale.Defaults
	AnalysisDuration  time.Duration
	ReproposeDuration time.Duration
	// Ticks is the number of progress updates per pipeline.
	Ticks int
	// SkipCapture opens the session directly at the recommendation step
	// with the inferred estimate.
	SkipCapture bool
}

// Deps are the collaborators a session drives. Engine and Scheduler are
// required.
type Deps struct {
	Capture   *capture.Subsystem
	History   history.History
	Scheduler schedule.Scheduler
	Engine    *recommend.Engine
	Favorites *favorites.Store
	Handoff   Handoff
}

// popNotifier is implemented by histories that deliver pop events through a
// listener; the session registers itself on them.
type popNotifier interface {
	OnPop(l history.PopListener)
}

// frame is one pushed history entry: the step it entered and the estimate
// that was in effect before the push.
type frame struct {
	estimate *scale.Estimate
	step     Step
}

// Session is one operator's pass through the workflow for a space.
type Session struct {
	ctx       context.Context
	history   history.History
	sched     schedule.Scheduler
	handoff   Handoff
	cancel    context.CancelFunc
	capture   *capture.Subsystem
	engine    *recommend.Engine
	surface   *favorites.Surface
	stream    *capture.Stream
	pending   *capture.ImageResult
	committed *capture.ImageResult
	fallback  *capture.Error
	area      *placement.Area
	set       *recommend.Set
	pipeline  *schedule.Pipeline
	err       error
	listeners map[int]func(Snapshot)
	favorites favorites.Set
	id        string
	params    Params
	trail     []frame
	opts      Options
	scale     scale.Tracker
	progress  schedule.Progress
	nextSub   int
	initial   Step
	step      Step
	mu        sync.Mutex

	awaitingFile bool
	awaitingPop  bool
	needsArea    bool
	closed       bool
	exited       bool
}

// New opens a session for params.SpaceID.
func New(ctx context.Context, params Params, opts Options, deps Deps) (*Session, error) {
	if strings.TrimSpace(params.SpaceID) == "" {
		return nil, errors.New("space id is required")
	}
	if deps.Engine == nil {
		return nil, errors.New("recommendation engine is required")
	}
	if deps.Scheduler == nil {
		return nil, errors.New("scheduler is required")
	}
	if deps.Capture == nil {
		deps.Capture = capture.NewSubsystem(nil)
	}
	if deps.History == nil {
		deps.History = history.NewStack()
	}
	if opts.AnalysisDuration <= 0 {
		opts.AnalysisDuration = DefaultAnalysisDuration
	}
	if opts.ReproposeDuration <= 0 {
		opts.ReproposeDuration = DefaultReproposeDuration
	}
	if opts.FormFactor == "" {
		opts.FormFactor = capture.FormFactorDesktop
	}

	area, err := placement.FromSaved(params.SavedArea)
	if err != nil {
		slog.Warn("Ignoring invalid saved placement area",
			"space_id", params.SpaceID,
			"error", err)
		area = nil
	}

	sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &Session{
		ctx:       sctx,
		cancel:    cancel,
		id:        uuid.NewString(),
		params:    params,
		opts:      opts,
		history:   deps.History,
		sched:     deps.Scheduler,
		capture:   deps.Capture,
		engine:    deps.Engine,
		handoff:   deps.Handoff,
		area:      area,
		listeners: make(map[int]func(Snapshot)),
	}
	if pn, ok := deps.History.(popNotifier); ok {
		pn.OnPop(s.HandleBack)
	}

	if deps.Favorites != nil {
		s.surface = favorites.NewSurface(favorites.SurfaceWorkflow, deps.Favorites, s.favoritesChanged)
		if err := s.surface.Mount(ctx); err != nil {
			cancel()
			return nil, fmt.Errorf("failed to mount favorites: %w", err)
		}
	}

	s.mu.Lock()
	if opts.SkipCapture {
		s.initial = StepRecommendation
		s.step = StepRecommendation
		s.scale.Apply(scale.InferFromDefaults(opts.ScaleDefaults))
		s.enterRecommendationLocked(ctx)
	}
	s.mu.Unlock()

	slog.Info("Opened workflow session",
		"session_id", s.id,
		"space_id", params.SpaceID,
		"step", s.initial,
		"saved_area", area != nil)
	return s, nil
}

// ID returns the session id used to tag history entries.
func (s *Session) ID() string {
	return s.id
}

// Step returns the current step.
func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Depth returns how many history entries the session currently owns.
func (s *Session) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.trail)
}

// NeedsArea reports whether recommendations are waiting for a placement area.
func (s *Session) NeedsArea() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.needsArea
}

// FallbackReason returns why live capture was unavailable, if it was.
func (s *Session) FallbackReason() (capture.Reason, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fallback == nil {
		return "", false
	}
	return s.fallback.Reason, true
}

// Closed reports whether the session has been torn down.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Exited reports whether the session ended because the platform navigated
// back past its first entry.
func (s *Session) Exited() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exited
}

// ChooseCalibration moves from mode selection to the capture guide.
func (s *Session) ChooseCalibration() error {
	return s.mutate(func() error {
		if err := s.checkLocked("choose calibration", StepModeSelection); err != nil {
			return err
		}
		s.pushLocked(StepCaptureGuide)
		return nil
	})
}

// SkipCalibration accepts the inferred estimate and goes straight to
// recommendations. A measured estimate already in effect is kept.
func (s *Session) SkipCalibration(ctx context.Context) error {
	return s.mutate(func() error {
		if err := s.checkLocked("skip calibration", StepModeSelection); err != nil {
			return err
		}
		s.pushLocked(StepRecommendation)
		if !s.scale.Apply(scale.InferFromDefaults(s.opts.ScaleDefaults)) {
			slog.Debug("Keeping measured estimate", "session_id", s.id)
		}
		s.enterRecommendationLocked(ctx)
		return nil
	})
}

// RequestCapture asks the capture subsystem for a strategy. An empty hint
// uses the session's form factor. On a live stream the session holds the
// stream until CaptureFrame or CancelCapture; otherwise it waits for a file
// and any fallback reason is reported through FallbackReason.
func (s *Session) RequestCapture(ctx context.Context, hint string) (capture.Strategy, error) {
	var strategy capture.Strategy
	err := s.mutate(func() error {
		if err := s.checkLocked("request capture", StepCaptureGuide); err != nil {
			return err
		}

		ff := s.opts.FormFactor
		if hint != "" {
			ff = capture.ParseFormFactor(hint)
		}
		plan, err := s.capture.RequestCapture(ctx, ff)
		if err != nil {
			return err
		}

		strategy = plan.Strategy
		s.fallback = plan.Fallback
		if plan.Stream != nil {
			s.stream = plan.Stream
			s.awaitingFile = false
			return nil
		}
		s.awaitingFile = true
		return nil
	})
	return strategy, err
}

// CaptureFrame snapshots the held stream and moves to image confirmation.
// The stream is released either way; on failure the session falls back to
// waiting for a file.
func (s *Session) CaptureFrame(ctx context.Context) error {
	return s.mutate(func() error {
		if s.closed {
			return ErrSessionClosed
		}
		if s.step != StepCaptureGuide || s.stream == nil {
			return fmt.Errorf("%w: capture frame from %s without an open stream", ErrInvalidTransition, s.step)
		}

		stream := s.stream
		s.stream = nil
		img, err := s.capture.CaptureFrame(ctx, stream)
		if err != nil {
			s.fallback = asCaptureError(err)
			s.awaitingFile = true
			return err
		}
		s.acceptImageLocked(img)
		return nil
	})
}

// CancelCapture releases the held stream without a transition.
func (s *Session) CancelCapture() error {
	return s.mutate(func() error {
		if s.closed {
			return ErrSessionClosed
		}
		if s.stream == nil {
			return nil
		}
		s.releaseStreamLocked()
		s.awaitingFile = true
		return nil
	})
}

// IngestFile decodes a chosen file and moves to image confirmation. A file
// that does not decode leaves the session where it is.
func (s *Session) IngestFile(ctx context.Context, name string, r io.Reader) error {
	return s.mutate(func() error {
		if err := s.checkLocked("ingest file", StepCaptureGuide); err != nil {
			return err
		}
		img, err := s.capture.IngestFile(ctx, name, r)
		if err != nil {
			return err
		}
		s.acceptImageLocked(img)
		return nil
	})
}

// IngestPath is IngestFile for a path on disk.
func (s *Session) IngestPath(ctx context.Context, path string) error {
	return s.mutate(func() error {
		if err := s.checkLocked("ingest file", StepCaptureGuide); err != nil {
			return err
		}
		img, err := s.capture.IngestPath(ctx, path)
		if err != nil {
			return err
		}
		s.acceptImageLocked(img)
		return nil
	})
}

// Retake discards the pending photo by going back through the platform
// history, so the entry pushed for image confirmation is popped.
func (s *Session) Retake() error {
	s.mu.Lock()
	err := s.checkLocked("retake", StepImageConfirm)
	if err == nil {
		s.awaitingPop = true
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.history.Back()
	return nil
}

// UsePhoto commits the pending photo and starts the analysis pipeline.
func (s *Session) UsePhoto() error {
	return s.mutate(func() error {
		if err := s.checkLocked("use photo", StepImageConfirm); err != nil {
			return err
		}
		if s.pending == nil {
			return fmt.Errorf("%w: no photo to use", ErrInvalidTransition)
		}
		s.committed = s.pending
		s.pending = nil
		s.pushLocked(StepAnalyzing)
		s.startAnalysisLocked()
		return nil
	})
}

// Back is the in-workflow back button. It delegates to the platform history;
// the step changes when the pop event arrives.
func (s *Session) Back() error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrSessionClosed
	}

	s.history.Back()
	return nil
}

// HandleBack applies a platform pop event. top is the entry that is current
// after the pop. A nil or foreign entry means none of the session's entries
// remain: the session returns to its initial step, or exits when it was
// already there. Events that do not lower the depth are stale and ignored.
func (s *Session) HandleBack(top *history.Entry) {
	_ = s.mutate(func() error {
		if s.closed {
			return nil
		}
		s.awaitingPop = false

		depth := len(s.trail)
		target := 0
		if top != nil && top.SessionID == s.id {
			if top.Seq >= depth {
				slog.Debug("Ignoring stale back event",
					"session_id", s.id,
					"entry", top.String(),
					"depth", depth)
				return nil
			}
			target = top.Seq
		}

		if depth == 0 {
			slog.Info("Leaving workflow", "session_id", s.id, "step", s.step)
			s.exited = true
			s.closeLocked()
			return nil
		}
		s.unwindToLocked(target)
		return nil
	})
}

// DefineArea sets the placement area, clamped to the image. Defining an
// area while recommendations wait for one starts the initial proposal.
func (s *Session) DefineArea(r placement.Rect) (placement.Area, error) {
	var area placement.Area
	err := s.mutate(func() error {
		if s.closed {
			return ErrSessionClosed
		}
		a, err := placement.Define(r)
		if err != nil {
			return err
		}
		area = a
		s.setAreaLocked(a)
		return nil
	})
	return area, err
}

// RepositionArea moves the placement area by a percentage delta.
func (s *Session) RepositionArea(dx, dy float64) (placement.Area, error) {
	var area placement.Area
	err := s.mutate(func() error {
		if s.closed {
			return ErrSessionClosed
		}
		if s.area == nil {
			s.needsArea = s.step == StepRecommendation
			return recommend.ErrMissingPlacementArea
		}
		area = s.area.Reposition(dx, dy)
		s.setAreaLocked(area)
		return nil
	})
	return area, err
}

// Repropose runs the reproposal pipeline and then replaces the candidate
// set. The style inputs trigger the refresh; selection does not read them.
func (s *Session) Repropose(style recommend.StyleInputs) error {
	return s.mutate(func() error {
		if err := s.checkLocked("repropose", StepRecommendation); err != nil {
			return err
		}
		if s.area == nil {
			s.needsArea = true
			return recommend.ErrMissingPlacementArea
		}

		s.err = nil
		s.progress = schedule.Progress{}
		s.pipeline = schedule.StartPipeline(s.sched, schedule.PipelineSpec{
			Name:     pipelineReproposal,
			Stages:   ReproposalStages,
			Duration: s.opts.ReproposeDuration,
			Ticks:    s.opts.Ticks,
		}, s.onProgress, func(p *schedule.Pipeline) {
			s.onReproposeDone(p, style)
		})

		slog.Debug("Started reproposal",
			"session_id", s.id,
			"preference", style.Preference)
		return nil
	})
}

// SelectCandidate moves the preview pointer. Out-of-range indexes are
// rejected.
func (s *Session) SelectCandidate(index int) error {
	return s.mutate(func() error {
		if s.closed {
			return ErrSessionClosed
		}
		if s.step != StepRecommendation {
			return fmt.Errorf("%w: select candidate from %s", ErrInvalidTransition, s.step)
		}
		if s.set == nil {
			return fmt.Errorf("%w: no candidates", recommend.ErrInvalidCandidateIndex)
		}
		next, err := recommend.SelectCandidate(*s.set, index)
		if err != nil {
			return err
		}
		s.set = &next
		return nil
	})
}

// ConfirmExhibition hands the previewed candidate and the space to the
// confirmation page and closes the session. When the handoff can persist
// areas, the current placement area is saved for the space.
func (s *Session) ConfirmExhibition(ctx context.Context) (model.Exhibition, error) {
	var out model.Exhibition
	err := s.mutate(func() error {
		if err := s.checkLocked("confirm exhibition", StepRecommendation); err != nil {
			return err
		}
		if s.handoff == nil {
			return errors.New("no exhibition handoff configured")
		}
		if s.set == nil {
			return ErrNoSelection
		}
		candidate, ok := s.set.Selected()
		if !ok {
			return ErrNoSelection
		}

		confirmed, err := s.handoff.ConfirmExhibition(ctx, model.Exhibition{
			CandidateID: candidate.ID,
			SpaceID:     s.params.SpaceID,
		})
		if err != nil {
			return fmt.Errorf("failed to hand off exhibition: %w", err)
		}
		out = confirmed

		if saver, ok := s.handoff.(AreaSaver); ok && s.area != nil {
			if err := saver.SaveSpaceArea(ctx, s.params.SpaceID, s.area.Saved()); err != nil {
				slog.Warn("Failed to save placement area",
					"session_id", s.id,
					"space_id", s.params.SpaceID,
					"error", err)
			}
		}

		slog.Info("Confirmed exhibition",
			"session_id", s.id,
			"space_id", s.params.SpaceID,
			"candidate_id", candidate.ID,
			"request_id", confirmed.RequestID)
		s.closeLocked()
		return nil
	})
	return out, err
}

// ToggleFavorite flips a favorite through the workflow's favorites surface.
func (s *Session) ToggleFavorite(ctx context.Context, id any) (bool, error) {
	s.mu.Lock()
	closed := s.closed
	surface := s.surface
	s.mu.Unlock()

	if closed {
		return false, ErrSessionClosed
	}
	if surface == nil {
		return false, ErrFavoritesUnavailable
	}
	return surface.Toggle(ctx, id)
}

// Close tears the session down: pending timers are cancelled, an open
// stream is released, and the session's history entries are unwound.
// It is safe to call more than once.
func (s *Session) Close() error {
	return s.mutate(func() error {
		s.closeLocked()
		return nil
	})
}

func (s *Session) checkLocked(op string, want Step) error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.pendingLocked() {
		return fmt.Errorf("%w: %s", ErrTransitionPending, op)
	}
	if s.step != want {
		return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, op, s.step)
	}
	return nil
}

func (s *Session) pendingLocked() bool {
	return s.stream != nil || s.pipeline != nil || s.awaitingPop
}

func (s *Session) pushLocked(to Step) {
	var before *scale.Estimate
	if est, ok := s.scale.Current(); ok {
		before = &est
	}
	s.trail = append(s.trail, frame{step: to, estimate: before})
	entry := history.Entry{SessionID: s.id, Step: to.String(), Seq: len(s.trail)}

	from := s.step
	s.step = to
	s.history.Push(entry)

	slog.Debug("Pushed history entry",
		"session_id", s.id,
		"from", from,
		"to", to,
		"seq", entry.Seq)
}

// unwindToLocked reverts the trail to target entries and restores the state
// the destination step was entered with.
func (s *Session) unwindToLocked(target int) {
	from := s.step
	s.scale.Reset(s.trail[target].estimate)
	s.trail = s.trail[:target]

	to := s.initial
	if target > 0 {
		to = s.trail[target-1].step
	}

	s.cancelPipelineLocked()
	s.releaseStreamLocked()
	s.progress = schedule.Progress{}
	s.err = nil
	s.step = to

	switch to {
	case StepModeSelection, StepCaptureGuide:
		s.pending = nil
		s.committed = nil
		s.fallback = nil
		s.awaitingFile = false
		s.set = nil
		s.needsArea = false
	case StepImageConfirm:
		if s.committed != nil {
			s.pending = s.committed
			s.committed = nil
		}
		s.set = nil
		s.needsArea = false
	case StepAnalyzing:
		s.set = nil
		s.needsArea = false
		s.startAnalysisLocked()
	case StepRecommendation:
		s.enterRecommendationLocked(s.ctx)
	}

	slog.Debug("Went back",
		"session_id", s.id,
		"from", from,
		"to", to,
		"depth", target)
}

func (s *Session) acceptImageLocked(img *capture.ImageResult) {
	s.pending = img
	s.fallback = nil
	s.awaitingFile = false
	s.pushLocked(StepImageConfirm)
}

func (s *Session) startAnalysisLocked() {
	s.progress = schedule.Progress{}
	s.pipeline = schedule.StartPipeline(s.sched, schedule.PipelineSpec{
		Name:     pipelineAnalysis,
		Stages:   AnalysisStages,
		Duration: s.opts.AnalysisDuration,
		Ticks:    s.opts.Ticks,
	}, s.onProgress, s.onAnalysisDone)
}

func (s *Session) onProgress(p *schedule.Pipeline, progress schedule.Progress) {
	_ = s.mutate(func() error {
		if s.closed || s.pipeline != p {
			return nil
		}
		s.progress = progress
		return nil
	})
}

func (s *Session) onAnalysisDone(p *schedule.Pipeline) {
	_ = s.mutate(func() error {
		if s.closed || s.pipeline != p || s.step != StepAnalyzing {
			return nil
		}
		s.pipeline = nil

		img := s.committed
		if img == nil {
			s.err = scale.ErrNoImage
			return nil
		}
		est, err := scale.MeasureFromMarker(img.Image, s.opts.ScaleDefaults)
		if err != nil {
			s.err = err
			return nil
		}

		s.pushLocked(StepRecommendation)
		s.scale.Apply(est)
		slog.Info("Analysis complete",
			"session_id", s.id,
			"estimate", est.String())
		s.enterRecommendationLocked(s.ctx)
		return nil
	})
}

func (s *Session) onReproposeDone(p *schedule.Pipeline, style recommend.StyleInputs) {
	_ = s.mutate(func() error {
		if s.closed || s.pipeline != p || s.step != StepRecommendation {
			return nil
		}
		s.pipeline = nil

		var current recommend.Set
		if s.set != nil {
			current = *s.set
		}
		next, err := s.engine.Repropose(s.ctx, s.requestLocked(), style, current)
		if err != nil {
			if errors.Is(err, recommend.ErrMissingPlacementArea) {
				s.needsArea = true
				return nil
			}
			s.err = err
			slog.Warn("Reproposal failed", "session_id", s.id, "error", err)
			return nil
		}
		s.set = &next
		return nil
	})
}

func (s *Session) enterRecommendationLocked(ctx context.Context) {
	s.set = nil
	s.err = nil
	if s.area == nil {
		s.needsArea = true
		return
	}
	s.needsArea = false
	s.proposeLocked(ctx)
}

func (s *Session) proposeLocked(ctx context.Context) {
	set, err := s.engine.InitialPropose(ctx, s.requestLocked())
	if err != nil {
		if errors.Is(err, recommend.ErrMissingPlacementArea) {
			s.needsArea = true
			return
		}
		s.err = err
		slog.Warn("Initial proposal failed", "session_id", s.id, "error", err)
		return
	}
	s.set = &set
}

func (s *Session) setAreaLocked(a placement.Area) {
	s.area = &a
	if s.step != StepRecommendation {
		return
	}
	if s.set == nil {
		if s.pipeline == nil {
			s.needsArea = false
			s.err = nil
			s.proposeLocked(s.ctx)
		}
		return
	}
	refit, err := s.engine.Refit(s.ctx, s.requestLocked(), *s.set)
	if err != nil {
		slog.Warn("Failed to refit candidates", "session_id", s.id, "error", err)
		return
	}
	s.set = &refit
}

func (s *Session) requestLocked() recommend.Request {
	est, ok := s.scale.Current()
	if !ok {
		est = scale.InferFromDefaults(s.opts.ScaleDefaults)
	}
	var area *placement.Area
	if s.area != nil {
		a := *s.area
		area = &a
	}
	return recommend.Request{
		Area:     area,
		SpaceID:  s.params.SpaceID,
		Estimate: est,
	}
}

func (s *Session) cancelPipelineLocked() {
	if s.pipeline == nil {
		return
	}
	if s.pipeline.Cancel() {
		slog.Debug("Cancelled pipeline",
			"session_id", s.id,
			"pipeline", s.pipeline.Name())
	}
	s.pipeline = nil
}

func (s *Session) releaseStreamLocked() {
	if s.stream == nil {
		return
	}
	if err := s.stream.Release(); err != nil {
		slog.Warn("Failed to release capture stream", "session_id", s.id, "error", err)
	}
	s.stream = nil
}

func (s *Session) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	s.cancelPipelineLocked()
	s.releaseStreamLocked()
	s.pending = nil
	s.committed = nil
	s.set = nil
	s.awaitingPop = false
	if n := len(s.trail); n > 0 {
		s.history.Unwind(n)
	}
	s.trail = nil
	if s.surface != nil {
		s.surface.Unmount()
	}
	s.cancel()

	slog.Debug("Closed workflow session", "session_id", s.id, "exited", s.exited)
}

func (s *Session) favoritesChanged(set favorites.Set) {
	_ = s.mutate(func() error {
		s.favorites = set
		return nil
	})
}

func asCaptureError(err error) *capture.Error {
	var ce *capture.Error
	if errors.As(err, &ce) {
		return ce
	}
	return &capture.Error{Reason: capture.ReasonUnsupported, Err: err}
}
