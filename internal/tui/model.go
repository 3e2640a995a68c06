// Package tui is the interactive terminal surface of the placement workflow.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/arktecher/Micro-sub000/internal/capture"
	"github.com/arktecher/Micro-sub000/internal/common"
	"github.com/arktecher/Micro-sub000/internal/model"
	"github.com/arktecher/Micro-sub000/internal/placement"
	"github.com/arktecher/Micro-sub000/internal/recommend"
	"github.com/arktecher/Micro-sub000/internal/tui/themes"
	"github.com/arktecher/Micro-sub000/internal/workflow"
)

// moveStep is how far one reposition key moves the area, in percent.
const moveStep = 5.0

// defaultArea is offered when the operator defines an area without typing one.
var defaultArea = placement.Rect{X: 25, Y: 20, Width: 50, Height: 50}

// Model holds the TUI state. The session owns the workflow state; the model
// keeps the latest snapshot of it and the purely visual state.
type Model struct {
	ctx       context.Context
	session   *workflow.Session
	confirmed *model.Exhibition
	theme     themes.Theme
	keymap    KeyMap
	help      help.Model
	bar       progress.Model
	input     textinput.Model
	snap      workflow.Snapshot
	status    string
	statusErr bool
	width     int
	height    int
	mode      inputMode
	quitting  bool
}

// NewModel creates a model driving session.
func NewModel(ctx context.Context, session *workflow.Session, opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	h := help.New()
	h.ShowAll = cfg.ShowHelp

	input := textinput.New()
	input.CharLimit = 256

	m := Model{
		ctx:     ctx,
		session: session,
		theme:   cfg.Theme,
		keymap:  DefaultKeyMap(),
		help:    h,
		bar:     progress.New(progress.WithDefaultGradient()),
		input:   input,
		width:   cfg.Width,
		height:  cfg.Height,
	}
	m.resize()
	m.snap = session.Snapshot()
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Confirmed returns the exhibition request made in this run, if any.
func (m Model) Confirmed() (model.Exhibition, bool) {
	if m.confirmed == nil {
		return model.Exhibition{}, false
	}
	return *m.confirmed, true
}

// Snapshot returns the session state last rendered.
func (m Model) Snapshot() workflow.Snapshot {
	return m.snap
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case timerFiredMsg:
		msg.timer.fire()

	case snapshotMsg:

	case exhibitionConfirmedMsg:
		if msg.err != nil {
			m.setError(msg.err)
			break
		}
		ex := msg.exhibition
		m.confirmed = &ex
		m.quitting = true
		cmd = tea.Quit

	case favoriteToggledMsg:
		switch {
		case msg.err != nil:
			m.setError(msg.err)
		case msg.on:
			m.setStatus(fmt.Sprintf("Added %s to favorites", msg.id))
		default:
			m.setStatus(fmt.Sprintf("Removed %s from favorites", msg.id))
		}

	case tea.KeyMsg:
		cmd = m.handleKey(msg)
	}

	m.snap = m.session.Snapshot()
	if m.snap.Exited && !m.quitting {
		m.quitting = true
		cmd = tea.Batch(cmd, tea.Quit)
	}
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keymap.ForceQuit) {
		if err := m.session.Close(); err != nil {
			slog.Warn("Failed to close session", "error", err)
		}
		m.quitting = true
		return tea.Quit
	}

	if m.mode != inputNone {
		return m.handleInputKey(msg)
	}

	switch {
	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll
		return nil
	case key.Matches(msg, m.keymap.Back):
		m.clearStatus()
		m.report(m.session.Back())
		return nil
	}

	switch m.snap.Step {
	case workflow.StepModeSelection:
		switch {
		case key.Matches(msg, m.keymap.Calibrate):
			m.report(m.session.ChooseCalibration())
		case key.Matches(msg, m.keymap.Skip):
			m.report(m.session.SkipCalibration(m.ctx))
		}

	case workflow.StepCaptureGuide:
		return m.handleCaptureKey(msg)

	case workflow.StepImageConfirm:
		switch {
		case key.Matches(msg, m.keymap.UsePhoto):
			m.report(m.session.UsePhoto())
		case key.Matches(msg, m.keymap.Retake):
			m.report(m.session.Retake())
		}

	case workflow.StepAnalyzing:

	case workflow.StepRecommendation:
		return m.handleRecommendationKey(msg)
	}
	return nil
}

func (m *Model) handleCaptureKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keymap.Camera):
		strategy, err := m.session.RequestCapture(m.ctx, "")
		if err != nil {
			m.report(err)
			return nil
		}
		if strategy == capture.StrategyFileChooser {
			snap := m.session.Snapshot()
			if reason := snap.FallbackMessage(); reason != "" {
				m.setWarning(reason)
			}
			return m.openInput(inputFile, "Path to a photo of the wall", "")
		}
		m.setStatus("Camera ready. Press Space to take the photo.")
	case key.Matches(msg, m.keymap.Snapshot):
		if err := m.session.CaptureFrame(m.ctx); err != nil {
			m.report(err)
			return m.openInput(inputFile, "Path to a photo of the wall", "")
		}
		m.clearStatus()
	case key.Matches(msg, m.keymap.Cancel):
		m.report(m.session.CancelCapture())
	case key.Matches(msg, m.keymap.File):
		if m.snap.StreamOpen {
			m.report(m.session.CancelCapture())
		}
		return m.openInput(inputFile, "Path to a photo of the wall", "")
	}
	return nil
}

func (m *Model) handleRecommendationKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keymap.Prev):
		m.moveSelection(-1)
	case key.Matches(msg, m.keymap.Next):
		m.moveSelection(1)
	case key.Matches(msg, m.keymap.Area):
		return m.openInput(inputArea, "x y width height (percent)", m.currentRect().Format())
	case key.Matches(msg, m.keymap.MoveLeft):
		m.reposition(-moveStep, 0)
	case key.Matches(msg, m.keymap.MoveRight):
		m.reposition(moveStep, 0)
	case key.Matches(msg, m.keymap.MoveUp):
		m.reposition(0, -moveStep)
	case key.Matches(msg, m.keymap.MoveDown):
		m.reposition(0, moveStep)
	case key.Matches(msg, m.keymap.Repropose):
		if m.snap.Area == nil {
			m.report(recommend.ErrMissingPlacementArea)
			return nil
		}
		return m.openInput(inputStyle, "Describe the style you are after (optional)", "")
	case key.Matches(msg, m.keymap.Favorite):
		if c, ok := m.snap.Selected(); ok {
			return toggleFavorite(m.ctx, m.session, c.ID)
		}
	case key.Matches(msg, m.keymap.Confirm):
		if _, ok := m.snap.Selected(); !ok {
			m.report(workflow.ErrNoSelection)
			return nil
		}
		m.setStatus("Requesting exhibition...")
		return confirmExhibition(m.ctx, m.session)
	}
	return nil
}

func (m *Model) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.closeInput()
		return nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		mode := m.mode
		m.closeInput()
		m.submitInput(mode, value)
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) submitInput(mode inputMode, value string) {
	switch mode {
	case inputFile:
		if value == "" {
			return
		}
		m.report(m.session.IngestPath(m.ctx, value))
	case inputArea:
		r := defaultArea
		if value != "" {
			parsed, err := placement.ParseRect(value)
			if err != nil {
				m.setError(err)
				return
			}
			r = parsed
		}
		area, err := m.session.DefineArea(r)
		if err != nil {
			m.report(err)
			return
		}
		m.setStatus("Placement area " + area.String())
	case inputStyle:
		style := recommend.DefaultStyle()
		style.Preference = value
		m.report(m.session.Repropose(style))
	}
}

func (m *Model) openInput(mode inputMode, placeholder, value string) tea.Cmd {
	m.mode = mode
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) closeInput() {
	m.mode = inputNone
	m.input.Blur()
	m.input.Reset()
}

func (m *Model) moveSelection(delta int) {
	if m.snap.Set == nil || len(m.snap.Set.Candidates) == 0 {
		return
	}
	n := len(m.snap.Set.Candidates)
	next := (m.snap.Set.SelectedIndex + delta + n) % n
	m.report(m.session.SelectCandidate(next))
}

func (m *Model) reposition(dx, dy float64) {
	if _, err := m.session.RepositionArea(dx, dy); err != nil {
		m.report(err)
	}
}

func (m *Model) currentRect() placement.Rect {
	if m.snap.Area == nil {
		return defaultArea
	}
	return m.snap.Area.Rect()
}

// report shows err in the status line. Pending transitions are a wait, not
// a failure.
func (m *Model) report(err error) {
	switch {
	case err == nil:
		m.clearStatus()
	case errors.Is(err, workflow.ErrTransitionPending):
		m.setWarning("Please wait for the current step to finish.")
	case errors.Is(err, recommend.ErrMissingPlacementArea):
		m.setWarning("Define a placement area first (press a).")
	default:
		m.setError(err)
	}
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setWarning(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(err error) {
	var ce *capture.Error
	if errors.As(err, &ce) {
		m.status = ce.Message()
	} else {
		m.status = common.UserMessage(err)
	}
	slog.Debug("Workflow action failed", "error", err)
	m.statusErr = true
}

func (m *Model) clearStatus() {
	m.status = ""
	m.statusErr = false
}

func (m *Model) resize() {
	w := m.width - 8
	if w > 60 {
		w = 60
	}
	if w < 10 {
		w = 10
	}
	m.bar.Width = w
	m.input.Width = w
	m.help.Width = m.width
}
