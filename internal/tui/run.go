package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/arktecher/Micro-sub000/internal/history"
	"github.com/arktecher/Micro-sub000/internal/model"
	"github.com/arktecher/Micro-sub000/internal/workflow"
)

// RunConfig holds what a workflow run needs. Deps.Scheduler is replaced by
// the program's scheduler; a nil Deps.History gets an in-memory stack.
type RunConfig struct {
	Params  workflow.Params
	Options workflow.Options
	Deps    workflow.Deps
	TUI     []Option
}

// Result is the outcome of a run.
type Result struct {
	Exhibition model.Exhibition
	Confirmed  bool
}

// Run opens a session and drives it interactively until the operator
// confirms an exhibition, leaves the workflow, or ctx ends.
func Run(ctx context.Context, cfg RunConfig) (Result, error) {
	sched := NewScheduler()
	deps := cfg.Deps
	deps.Scheduler = sched
	if deps.History == nil {
		deps.History = history.NewStack()
	}

	session, err := workflow.New(ctx, cfg.Params, cfg.Options, deps)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open workflow: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.Warn("Failed to close session", "error", err)
		}
	}()

	tuiCfg := defaultConfig()
	for _, opt := range cfg.TUI {
		opt(&tuiCfg)
	}

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if tuiCfg.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}

	p := tea.NewProgram(NewModel(ctx, session, cfg.TUI...), programOpts...)
	sched.Attach(p.Send)

	// Changes made off the event loop (other favorites surfaces) trigger a
	// re-render. Send must not block Update, which also mutates the session.
	unsubscribe := session.Subscribe(func(workflow.Snapshot) {
		go p.Send(snapshotMsg{})
	})
	defer unsubscribe()

	final, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, fmt.Errorf("workflow UI failed: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return Result{}, nil
	}
	ex, confirmed := m.Confirmed()
	return Result{Exhibition: ex, Confirmed: confirmed}, nil
}
