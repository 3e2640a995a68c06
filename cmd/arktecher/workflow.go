package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/arktecher/Micro-sub000/internal/capture"
	"github.com/arktecher/Micro-sub000/internal/cli"
	"github.com/arktecher/Micro-sub000/internal/common"
	"github.com/arktecher/Micro-sub000/internal/recommend"
	"github.com/arktecher/Micro-sub000/internal/tui"
	"github.com/arktecher/Micro-sub000/internal/workflow"
)

func workflowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Run the interactive placement workflow for a space",
		Long: `Open the guided placement workflow in the terminal.

The workflow calibrates the wall's scale (or skips calibration), lets you
mark the placement area, and proposes artworks sized to it. Confirming a
candidate records an exhibition request for the space.`,
		Example: `  arktecher workflow --space lobby
  arktecher workflow --space lobby --skip-capture`,
		RunE: runWorkflow,
	}

	cmd.Flags().StringP("space", "s", "", "space id (required)")
	cmd.Flags().Bool("skip-capture", false, "start at the recommendations with the inferred scale")
	cmd.Flags().String("form-factor", "", "client form factor or user agent (overrides capture.form_factor)")
	cmd.Flags().Bool("inline", false, "render without the alternate screen")
	_ = cmd.MarkFlagRequired("space")

	return cmd
}

func runWorkflow(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	spaceID, _ := cmd.Flags().GetString("space")
	skip, _ := cmd.Flags().GetBool("skip-capture")
	hint, _ := cmd.Flags().GetString("form-factor")
	inline, _ := cmd.Flags().GetBool("inline")

	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	// Log records would tear the terminal UI; send them to a file instead.
	logPath := filepath.Join(filepath.Dir(e.cfg.Database.Path), "workflow.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600) // #nosec G304 -- derived from configured database path
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()
	level, _ := common.ParseLevel(viper.GetString("logging.level"))
	if err := common.SetupLoggerTo(logFile, level, e.cfg.Logging.Format); err != nil {
		return err
	}

	space, err := e.space(ctx, spaceID)
	if err != nil {
		return err
	}

	formFactor := e.cfg.Capture.FormFactor
	if hint != "" {
		formFactor = capture.ParseFormFactor(hint)
	}

	var refs []string
	if space.ReferenceImage != "" {
		refs = []string{space.ReferenceImage}
	}

	opts := []tui.Option{}
	if inline {
		opts = append(opts, tui.WithInline())
	}

	// Favorites toggled from the HTTP surfaces or another terminal reach the
	// session through the watcher.
	watcher, err := e.startWatcher(ctx)
	if err != nil {
		return err
	}
	defer watcher.Stop()

	subsystem := capture.NewSubsystem(e.device())
	defer func() { _ = subsystem.Close() }()

	result, err := tui.Run(ctx, tui.RunConfig{
		Params: workflow.Params{
			SpaceID:         space.ID,
			ReferenceImages: refs,
			SavedArea:       space.SavedArea,
		},
		Options: workflow.Options{
			FormFactor:        formFactor,
			ScaleDefaults:     e.cfg.Scale,
			AnalysisDuration:  e.cfg.Workflow.AnalysisDuration,
			ReproposeDuration: e.cfg.Workflow.ReproposeDuration,
			SkipCapture:       skip,
		},
		Deps: workflow.Deps{
			Capture:   subsystem,
			Engine:    recommend.New(e.catalog, e.cfg.Recommend),
			Favorites: e.favoritesStore(),
			Handoff:   e.storage,
		},
		TUI: opts,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !result.Confirmed {
		slog.Info("Workflow closed without a request", "space_id", space.ID)
		_, err = fmt.Fprintln(out, cli.FormatInfo("No exhibition was requested."))
		return err
	}
	_, err = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Exhibition requested: %s for %s (request %s)",
		result.Exhibition.CandidateID, result.Exhibition.SpaceID, result.Exhibition.RequestID)))
	return err
}
