package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/arktecher/Micro-sub000/internal/schedule"
)

// ProgressReporter renders pipeline progress as a terminal progress bar.
type ProgressReporter struct {
	writer io.Writer
	bar    *progressbar.ProgressBar
	stage  string
}

// NewProgressReporter creates a bar for one pipeline run.
func NewProgressReporter(writer io.Writer, description string) *ProgressReporter {
	if writer == nil {
		writer = os.Stdout
	}
	r := &ProgressReporter{writer: writer}
	r.bar = progressbar.NewOptions(100,
		progressbar.OptionSetWriter(writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan][bold]%s[reset]", description)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[yellow]=[reset]",
			SaucerHead:    "[yellow]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return r
}

// Update moves the bar to p and shows the current stage.
func (r *ProgressReporter) Update(p schedule.Progress) {
	if p.Stage != "" && p.Stage != r.stage {
		r.stage = p.Stage
		r.bar.Describe(fmt.Sprintf("[cyan][bold]%s[reset]", p.Stage))
	}
	if err := r.bar.Set(p.Percent); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// Finish completes the bar.
func (r *ProgressReporter) Finish() {
	if err := r.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
}

// Stage returns the last stage shown.
func (r *ProgressReporter) Stage() string {
	return r.stage
}
