package schedule

import (
	"sync"
	"time"
)

// DefaultTicks is the number of progress updates a pipeline emits.
const DefaultTicks = 20

// PipelineSpec describes a simulated multi-stage operation.
type PipelineSpec struct {
	Name     string
	Stages   []string
	Duration time.Duration
	Ticks    int
}

// Progress is reported after every tick.
type Progress struct {
	Stage      string
	StageIndex int
	StageCount int
	Percent    int
}

// Pipeline advances a progress value from 0 to 100 over a bounded duration,
// moving through named stages on a fixed schedule. It is pure pacing: no work
// happens inside it.
type Pipeline struct {
	sched      Scheduler
	timer      Timer
	onProgress func(*Pipeline, Progress)
	onDone     func(*Pipeline)
	spec       PipelineSpec
	step       int
	mu         sync.Mutex
	cancelled  bool
	finished   bool
}

// StartPipeline schedules the first tick and returns the running pipeline.
// Callbacks receive the pipeline so the owner can discard firings from a
// pipeline it has already replaced.
func StartPipeline(s Scheduler, spec PipelineSpec, onProgress func(*Pipeline, Progress), onDone func(*Pipeline)) *Pipeline {
	if spec.Ticks <= 0 {
		spec.Ticks = DefaultTicks
	}
	if spec.Duration <= 0 {
		spec.Duration = time.Millisecond * time.Duration(spec.Ticks)
	}
	if len(spec.Stages) == 0 {
		spec.Stages = []string{spec.Name}
	}

	p := &Pipeline{
		sched:      s,
		spec:       spec,
		onProgress: onProgress,
		onDone:     onDone,
	}

	p.mu.Lock()
	p.timer = s.After(p.interval(), p.tick)
	p.mu.Unlock()
	return p
}

func (p *Pipeline) interval() time.Duration {
	return p.spec.Duration / time.Duration(p.spec.Ticks)
}

func (p *Pipeline) tick() {
	p.mu.Lock()
	if p.cancelled || p.finished {
		p.mu.Unlock()
		return
	}
	p.step++
	progress := p.progressLocked()
	done := p.step >= p.spec.Ticks
	if done {
		p.finished = true
		p.timer = nil
	} else {
		p.timer = p.sched.After(p.interval(), p.tick)
	}
	p.mu.Unlock()

	if p.onProgress != nil {
		p.onProgress(p, progress)
	}
	if done && p.onDone != nil && !p.Cancelled() {
		p.onDone(p)
	}
}

func (p *Pipeline) progressLocked() Progress {
	count := len(p.spec.Stages)
	idx := p.step * count / p.spec.Ticks
	if idx >= count {
		idx = count - 1
	}
	return Progress{
		Percent:    p.step * 100 / p.spec.Ticks,
		Stage:      p.spec.Stages[idx],
		StageIndex: idx,
		StageCount: count,
	}
}

// Progress returns the latest progress.
func (p *Pipeline) Progress() Progress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progressLocked()
}

// Name returns the pipeline's name.
func (p *Pipeline) Name() string {
	return p.spec.Name
}

// Cancel stops the pipeline. No callback fires after Cancel returns, except
// one already executing. It reports whether the pipeline was still running.
func (p *Pipeline) Cancel() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancelled || p.finished {
		return false
	}
	p.cancelled = true
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	return true
}

// Cancelled reports whether Cancel was called before completion.
func (p *Pipeline) Cancelled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancelled
}

// Finished reports whether the pipeline reached 100%.
func (p *Pipeline) Finished() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.finished
}
