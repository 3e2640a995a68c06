package workflow

import (
	"fmt"
	"time"
)

// Step is a position in the placement workflow.
type Step int

const (
	StepModeSelection Step = iota
	StepCaptureGuide
	StepImageConfirm
	StepAnalyzing
	StepRecommendation
)

var stepNames = map[Step]string{
	StepModeSelection:  "mode_selection",
	StepCaptureGuide:   "capture_guide",
	StepImageConfirm:   "image_confirm",
	StepAnalyzing:      "analyzing",
	StepRecommendation: "recommendation",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Title is the heading shown for the step.
func (s Step) Title() string {
	switch s {
	case StepModeSelection:
		return "Choose how to measure the wall"
	case StepCaptureGuide:
		return "Photograph the wall with the reference marker"
	case StepImageConfirm:
		return "Check the photo"
	case StepAnalyzing:
		return "Analyzing the photo"
	case StepRecommendation:
		return "Recommended works"
	default:
		return s.String()
	}
}

// ParseStep converts a step name back to a Step.
func ParseStep(name string) (Step, error) {
	for step, n := range stepNames {
		if n == name {
			return step, nil
		}
	}
	return 0, fmt.Errorf("unknown workflow step %q", name)
}

// Pipeline stages. They are pacing labels, not real processing.
var (
	AnalysisStages = []string{
		"Detecting wall edges",
		"Locating reference marker",
		"Estimating scale",
		"Mapping placement area",
	}
	ReproposalStages = []string{
		"Reading style preferences",
		"Searching the catalog",
		"Fitting works to the wall",
		"Ranking candidates",
	}
)

// Default pipeline durations.
const (
	DefaultAnalysisDuration  = 4 * time.Second
	DefaultReproposeDuration = 2 * time.Second
)

const (
	pipelineAnalysis   = "analysis"
	pipelineReproposal = "reproposal"
)
