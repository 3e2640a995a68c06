package workflow

import (
	"github.com/arktecher/Micro-sub000/internal/capture"
	"github.com/arktecher/Micro-sub000/internal/favorites"
	"github.com/arktecher/Micro-sub000/internal/model"
	"github.com/arktecher/Micro-sub000/internal/placement"
	"github.com/arktecher/Micro-sub000/internal/recommend"
	"github.com/arktecher/Micro-sub000/internal/scale"
	"github.com/arktecher/Micro-sub000/internal/schedule"
)

// Snapshot is a read-only copy of the session state for renderers.
type Snapshot struct {
	Estimate  *scale.Estimate
	Area      *placement.Area
	Set       *recommend.Set
	Pending   *capture.ImageResult
	Committed *capture.ImageResult
	Fallback  *capture.Error
	Err       error
	Favorites favorites.Set
	SessionID string
	SpaceID   string
	// Pipeline names the running pipeline, empty when none runs.
	Pipeline        string
	ReferenceImages []string
	Progress        schedule.Progress
	Step            Step
	Depth           int

	StreamOpen   bool
	AwaitingFile bool
	NeedsArea    bool
	Closed       bool
	Exited       bool
}

// Running reports whether a pipeline is in flight.
func (s Snapshot) Running() bool {
	return s.Pipeline != ""
}

// FallbackMessage is the operator-facing reason live capture is unavailable.
func (s Snapshot) FallbackMessage() string {
	if s.Fallback == nil {
		return ""
	}
	return s.Fallback.Message()
}

// Selected returns the previewed candidate.
func (s Snapshot) Selected() (model.Candidate, bool) {
	if s.Set == nil {
		return model.Candidate{}, false
	}
	return s.Set.Selected()
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every state change.
// Callbacks run outside the session lock and may call back into the session.
func (s *Session) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// mutate runs fn under the session lock and then notifies subscribers.
func (s *Session) mutate(fn func() error) error {
	s.mu.Lock()
	err := fn()
	snap := s.snapshotLocked()
	listeners := make([]func(Snapshot), 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
	return err
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID:       s.id,
		SpaceID:         s.params.SpaceID,
		ReferenceImages: append([]string(nil), s.params.ReferenceImages...),
		Step:            s.step,
		Depth:           len(s.trail),
		Progress:        s.progress,
		Pending:         s.pending,
		Committed:       s.committed,
		Fallback:        s.fallback,
		Err:             s.err,
		Favorites:       s.favorites,
		StreamOpen:      s.stream != nil,
		AwaitingFile:    s.awaitingFile,
		NeedsArea:       s.needsArea,
		Closed:          s.closed,
		Exited:          s.exited,
	}
	if est, ok := s.scale.Current(); ok {
		snap.Estimate = &est
	}
	if s.area != nil {
		a := *s.area
		snap.Area = &a
	}
	if s.set != nil {
		set := *s.set
		set.Candidates = append([]model.Candidate(nil), s.set.Candidates...)
		snap.Set = &set
	}
	if s.pipeline != nil {
		snap.Pipeline = s.pipeline.Name()
	}
	return snap
}
