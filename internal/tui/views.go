package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/arktecher/Micro-sub000/internal/favorites"
	"github.com/arktecher/Micro-sub000/internal/workflow"
)

var stepOrder = []workflow.Step{
	workflow.StepModeSelection,
	workflow.StepCaptureGuide,
	workflow.StepImageConfirm,
	workflow.StepAnalyzing,
	workflow.StepRecommendation,
}

// View renders the current step.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		m.renderHeader(),
		m.renderBody(),
	}
	if m.mode != inputNone {
		sections = append(sections, m.input.View())
	}
	if status := m.renderStatus(); status != "" {
		sections = append(sections, status)
	}
	sections = append(sections, m.help.View(m.stepKeys()))

	return m.theme.RoundedBox.
		Width(max(m.width-2, 20)).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m Model) renderHeader() string {
	crumbs := make([]string, 0, len(stepOrder))
	for _, s := range stepOrder {
		if s == m.snap.Step {
			crumbs = append(crumbs, m.theme.CrumbActive.Render(s.Title()))
		} else {
			crumbs = append(crumbs, m.theme.Crumb.Render(s.Title()))
		}
	}

	title := m.theme.Title.Render(fmt.Sprintf("Placement for %s", m.snap.SpaceID))
	trail := strings.Join(crumbs, m.theme.Crumb.Render(" › "))
	lines := []string{title, trail}
	if m.snap.Estimate != nil {
		lines = append(lines, m.theme.Subtitle.Render("Wall: "+m.snap.Estimate.String()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...) + "\n"
}

func (m Model) renderBody() string {
	switch m.snap.Step {
	case workflow.StepModeSelection:
		return m.theme.Normal.Render(
			"How should we size your wall?\n\n" +
				"  c  Calibrate with a photo that includes the reference marker (more accurate)\n" +
				"  s  Skip and estimate from typical furniture")
	case workflow.StepCaptureGuide:
		return m.renderCapture()
	case workflow.StepImageConfirm:
		return m.renderImageConfirm()
	case workflow.StepAnalyzing:
		return m.renderProgress("Analyzing your wall")
	case workflow.StepRecommendation:
		return m.renderRecommendation()
	}
	return ""
}

func (m Model) renderCapture() string {
	var b strings.Builder
	b.WriteString("Photograph the whole wall with the marker card flat against it.\n\n")
	switch {
	case m.snap.StreamOpen:
		b.WriteString(m.theme.StatusSuccess.Render("● Camera live") + "  press Space to take the photo")
	case m.snap.AwaitingFile:
		b.WriteString("Choose a photo from disk (f).")
	default:
		b.WriteString("Open the camera (o) or choose a photo from disk (f).")
	}
	if reason := m.snap.FallbackMessage(); reason != "" {
		b.WriteString("\n" + m.theme.StatusWarning.Render(reason))
	}
	return b.String()
}

func (m Model) renderImageConfirm() string {
	img := m.snap.Pending
	if img == nil {
		return "No photo."
	}
	name := img.Name
	if name == "" {
		name = string(img.Source)
	}
	return fmt.Sprintf("Use this photo?\n\n  %s  %d × %d %s\n\n  u  use photo    r  retake",
		m.theme.Bold.Render(name), img.Width, img.Height, img.Format)
}

func (m Model) renderProgress(title string) string {
	p := m.snap.Progress
	stage := p.Stage
	if stage == "" {
		stage = "Starting"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Bold.Render(title),
		"",
		m.bar.ViewAs(float64(p.Percent)/100),
		m.theme.Subtitle.Render(fmt.Sprintf("%s (%d/%d)", stage, p.StageIndex+1, max(p.StageCount, 1))),
	)
}

func (m Model) renderRecommendation() string {
	if m.snap.Running() {
		return m.renderProgress("Finding new proposals")
	}

	var lines []string
	if m.snap.Area != nil {
		lines = append(lines, m.theme.Subtitle.Render("Area: "+m.snap.Area.String()))
		if m.snap.Estimate != nil {
			lines = append(lines, m.theme.Subtitle.Render("      "+m.snap.Estimate.DescribeArea(*m.snap.Area)))
		}
	}
	if m.snap.NeedsArea || m.snap.Area == nil {
		lines = append(lines, m.theme.StatusWarning.Render("Mark where the artwork should hang (press a) to see proposals."))
	}
	if m.snap.Err != nil {
		lines = append(lines, m.theme.StatusError.Render(m.snap.Err.Error()))
	}

	if m.snap.Set != nil {
		lines = append(lines, "")
		for i, c := range m.snap.Set.Candidates {
			fav := " "
			if m.snap.Favorites.Has(toCanonical(c.ID)) {
				fav = m.theme.Favorite.Render("♥")
			}
			row := fmt.Sprintf("%s %s  %s by %s  %s  (%0.f%% × %0.f%% of area)",
				fav, c.ID, c.Title, c.Artist, formatPrice(c.Price),
				c.Overlay.WidthPercent, c.Overlay.HeightPercent)
			if i == m.snap.Set.SelectedIndex {
				row = m.theme.Selected.Render(row)
			}
			lines = append(lines, row)
		}
		if c, ok := m.snap.Selected(); ok && c.MatchReason != "" {
			lines = append(lines, "", m.theme.Subtitle.Render(c.MatchReason))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderStatus() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return m.theme.StatusError.Render(m.status)
	}
	return m.theme.StatusInfo.Render(m.status)
}

func (m Model) stepKeys() stepKeys {
	k := m.keymap
	if m.mode != inputNone {
		cancel := key.NewBinding(key.WithKeys("esc"), key.WithHelp("Esc", "cancel"))
		return stepKeys{short: []key.Binding{k.Submit, cancel}}
	}

	var bindings []key.Binding
	switch m.snap.Step {
	case workflow.StepModeSelection:
		bindings = []key.Binding{k.Calibrate, k.Skip}
	case workflow.StepCaptureGuide:
		if m.snap.StreamOpen {
			bindings = []key.Binding{k.Snapshot, k.Cancel, k.File}
		} else {
			bindings = []key.Binding{k.Camera, k.File}
		}
	case workflow.StepImageConfirm:
		bindings = []key.Binding{k.UsePhoto, k.Retake}
	case workflow.StepRecommendation:
		bindings = []key.Binding{k.Prev, k.Next, k.Confirm, k.Favorite, k.Repropose, k.Area}
	}
	short := append(append([]key.Binding{}, bindings...), k.Back, k.Help)

	full := [][]key.Binding{bindings}
	if m.snap.Step == workflow.StepRecommendation {
		full = append(full, []key.Binding{k.MoveLeft, k.MoveRight, k.MoveUp, k.MoveDown})
	}
	full = append(full, []key.Binding{k.Back, k.Help, k.ForceQuit})
	return stepKeys{short: short, full: full}
}

func formatPrice(price int) string {
	if price <= 0 {
		return ""
	}
	digits := fmt.Sprint(price)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return "¥" + b.String()
}

func toCanonical(id string) favorites.CanonicalID {
	c, err := favorites.Canonicalize(id)
	if err != nil {
		return favorites.CanonicalID(id)
	}
	return c
}
