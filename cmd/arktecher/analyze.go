package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/arktecher/Micro-sub000/internal/capture"
	"github.com/arktecher/Micro-sub000/internal/cli"
	"github.com/arktecher/Micro-sub000/internal/common"
	"github.com/arktecher/Micro-sub000/internal/placement"
	"github.com/arktecher/Micro-sub000/internal/recommend"
	"github.com/arktecher/Micro-sub000/internal/schedule"
	"github.com/arktecher/Micro-sub000/internal/workflow"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the placement workflow without a UI",
		Long: `Drive a placement session from the command line.

With --photo the wall is calibrated from the photo; otherwise the scale is
inferred. The session's simulated latencies run on a logical clock, so the
command finishes as fast as the machine allows unless --realtime is given.`,
		Example: `  arktecher analyze --space lobby --photo wall.jpg --area "20 15 50 60"
  arktecher analyze --space lobby --repropose 2 --style "quiet abstract" --select 1 --confirm`,
		RunE: runAnalyze,
	}

	cmd.Flags().StringP("space", "s", "", "space id (required)")
	cmd.Flags().String("photo", "", "calibration photo of the wall")
	cmd.Flags().String("area", "", `placement area as "x y width height" in percent`)
	cmd.Flags().Int("repropose", 0, "number of reproposal rounds")
	cmd.Flags().String("style", "", "free-text style preference for reproposals")
	cmd.Flags().Int("select", -1, "candidate index to preview")
	cmd.Flags().Bool("confirm", false, "request an exhibition of the selected candidate")
	cmd.Flags().Bool("realtime", false, "pace pipelines in real time")
	_ = cmd.MarkFlagRequired("space")

	return cmd
}

type analyzeOptions struct {
	spaceID   string
	photo     string
	area      string
	style     string
	repropose int
	selected  int
	confirm   bool
	realtime  bool
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	var opts analyzeOptions
	opts.spaceID, _ = cmd.Flags().GetString("space")
	opts.photo, _ = cmd.Flags().GetString("photo")
	opts.area, _ = cmd.Flags().GetString("area")
	opts.style, _ = cmd.Flags().GetString("style")
	opts.repropose, _ = cmd.Flags().GetInt("repropose")
	opts.selected, _ = cmd.Flags().GetInt("select")
	opts.confirm, _ = cmd.Flags().GetBool("confirm")
	opts.realtime, _ = cmd.Flags().GetBool("realtime")

	ctx := cmd.Context()
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	out := cmd.OutOrStdout()
	interrupt := cli.NewInterruptHandler(cmd.ErrOrStderr())
	interrupt.Watch(ctx, "")
	defer interrupt.Finish()

	space, err := e.space(ctx, opts.spaceID)
	if err != nil {
		return err
	}

	// Pipelines run on a logical clock unless --realtime asks for wall time.
	var (
		sched   schedule.Scheduler
		advance func(time.Duration)
	)
	if opts.realtime {
		loop := schedule.NewLoop()
		go func() { _ = loop.Run(ctx) }()
		defer loop.Close()
		sched, advance = loop, time.Sleep
	} else {
		clock := schedule.NewManual()
		sched, advance = clock, clock.Advance
	}

	session, err := workflow.New(ctx,
		workflow.Params{SpaceID: space.ID, SavedArea: space.SavedArea},
		workflow.Options{
			// Headless runs never open a live stream.
			FormFactor:        capture.FormFactorMobile,
			ScaleDefaults:     e.cfg.Scale,
			AnalysisDuration:  e.cfg.Workflow.AnalysisDuration,
			ReproposeDuration: e.cfg.Workflow.ReproposeDuration,
		},
		workflow.Deps{
			Capture:   capture.NewSubsystem(capture.NoDevice{}),
			Scheduler: sched,
			Engine:    recommend.New(e.catalog, e.cfg.Recommend),
			Favorites: e.favoritesStore(),
			Handoff:   e.storage,
		})
	if err != nil {
		return err
	}
	defer func() { _ = session.Close() }()

	r := &analyzeRun{ctx: ctx, out: out, advance: advance, session: session}
	return r.run(opts)
}

type analyzeRun struct {
	ctx     context.Context
	out     io.Writer
	advance func(time.Duration)
	session *workflow.Session
}

func (r *analyzeRun) run(opts analyzeOptions) error {
	if opts.photo != "" {
		if err := r.calibrate(opts.photo); err != nil {
			return err
		}
	} else if err := r.session.SkipCalibration(r.ctx); err != nil {
		return err
	}

	if opts.area != "" {
		rect, err := placement.ParseRect(opts.area)
		if err != nil {
			return common.NewUserError("Invalid --area value", err)
		}
		if _, err := r.session.DefineArea(rect); err != nil {
			return err
		}
	}

	snap := r.session.Snapshot()
	if snap.Err != nil {
		return snap.Err
	}
	if snap.NeedsArea {
		return common.NewUserError(
			"This space has no placement area. Pass --area or save one with `arktecher spaces area`.",
			recommend.ErrMissingPlacementArea)
	}
	r.printSet(snap)

	for i := 0; i < opts.repropose; i++ {
		style := recommend.DefaultStyle()
		style.Preference = opts.style
		if err := r.session.Repropose(style); err != nil {
			return err
		}
		if err := r.drain("Finding new proposals"); err != nil {
			return err
		}
		r.printSet(r.session.Snapshot())
	}

	if opts.selected >= 0 {
		if err := r.session.SelectCandidate(opts.selected); err != nil {
			return common.NewUserError(fmt.Sprintf("No candidate at index %d", opts.selected), err)
		}
	}

	snap = r.session.Snapshot()
	if c, ok := snap.Selected(); ok {
		r.printf("%s\n", cli.FormatInfo(fmt.Sprintf("Selected %s: %s by %s", c.ID, c.Title, c.Artist)))
	}

	if !opts.confirm {
		return nil
	}
	ex, err := r.session.ConfirmExhibition(r.ctx)
	if err != nil {
		return err
	}
	r.printf("%s\n", cli.FormatSuccess(fmt.Sprintf("Exhibition requested: %s for %s (request %s)",
		ex.CandidateID, ex.SpaceID, ex.RequestID)))
	return nil
}

func (r *analyzeRun) calibrate(photo string) error {
	if err := r.session.ChooseCalibration(); err != nil {
		return err
	}
	if err := r.session.IngestPath(r.ctx, photo); err != nil {
		return common.NewUserError("Could not read the calibration photo", err)
	}
	if err := r.session.UsePhoto(); err != nil {
		return err
	}
	if err := r.drain("Analyzing wall"); err != nil {
		return err
	}
	if snap := r.session.Snapshot(); snap.Step != workflow.StepRecommendation && snap.Err != nil {
		return fmt.Errorf("analysis failed: %w", snap.Err)
	}
	return nil
}

// drain advances the clock until the running pipeline finishes, rendering
// its progress.
func (r *analyzeRun) drain(title string) error {
	reporter := cli.NewProgressReporter(r.out, title)
	unsubscribe := r.session.Subscribe(func(s workflow.Snapshot) {
		if s.Running() {
			reporter.Update(s.Progress)
		}
	})
	defer unsubscribe()

	tick := 50 * time.Millisecond
	for r.session.Snapshot().Running() {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		r.advance(tick)
	}
	reporter.Finish()
	return nil
}

func (r *analyzeRun) printSet(snap workflow.Snapshot) {
	if snap.Estimate != nil {
		r.printf("%s\n", cli.FormatInfo("Wall: "+snap.Estimate.String()))
	}
	if snap.Area != nil && snap.Estimate != nil {
		r.printf("%s\n", cli.SubtleStyle.Render(fmt.Sprintf("Area: %s, %s", snap.Area.String(), snap.Estimate.DescribeArea(*snap.Area))))
	}
	if snap.Set == nil {
		return
	}

	rows := make([][]string, 0, len(snap.Set.Candidates))
	for i, c := range snap.Set.Candidates {
		marker := " "
		if i == snap.Set.SelectedIndex {
			marker = "›"
		}
		rows = append(rows, []string{
			marker,
			fmt.Sprint(i),
			c.ID,
			c.Title,
			c.Artist,
			fmt.Sprintf("%.0f%% × %.0f%%", c.Overlay.WidthPercent, c.Overlay.HeightPercent),
			strings.Join(c.Tags, ", "),
		})
	}
	r.printf("\n%s\n%s\n\n",
		cli.BoldStyle.Render(fmt.Sprintf("Proposals (%s, round %d)", snap.Set.Strategy, snap.Set.Generation)),
		cli.RenderTable([]string{"", "#", "ID", "Title", "Artist", "Size in area", "Tags"}, rows))
}

func (r *analyzeRun) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}
