// Package themes holds the workflow TUI color schemes.
package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the TUI.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Bold          lipgloss.Style
	Selected      lipgloss.Style
	Favorite      lipgloss.Style
	RoundedBox    lipgloss.Style
	Crumb         lipgloss.Style
	CrumbActive   lipgloss.Style
	StatusInfo    lipgloss.Style
	StatusError   lipgloss.Style
	StatusWarning lipgloss.Style
	StatusSuccess lipgloss.Style
	Primary       lipgloss.Color
	Secondary     lipgloss.Color
	Muted         lipgloss.Color
	Border        lipgloss.Color
}

// Default is the default theme.
var Default = Theme{
	Primary:   lipgloss.Color("#D9A441"),
	Secondary: lipgloss.Color("#8FB8DE"),
	Muted:     lipgloss.Color("#737373"),
	Border:    lipgloss.Color("#404040"),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")).
		MarginBottom(1),
	Subtitle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a3a3a3")),
	Normal: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#fafafa")),
	Bold: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")),
	Selected: lipgloss.NewStyle().
		Background(lipgloss.Color("#D9A441")).
		Foreground(lipgloss.Color("#1a1a1a")).
		Bold(true),
	Favorite: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#E4572E")),
	RoundedBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#404040")).
		Padding(1, 2),
	Crumb: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#737373")),
	CrumbActive: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#D9A441")).
		Bold(true),

	StatusSuccess: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10b981")).
		Bold(true),
	StatusWarning: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#f59e0b")).
		Bold(true),
	StatusError: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ef4444")).
		Bold(true),
	StatusInfo: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#3b82f6")).
		Bold(true),
}

// Monochrome renders without color for terminals that lack it.
var Monochrome = Theme{
	Title:         lipgloss.NewStyle().Bold(true).MarginBottom(1),
	Subtitle:      lipgloss.NewStyle(),
	Normal:        lipgloss.NewStyle(),
	Bold:          lipgloss.NewStyle().Bold(true),
	Selected:      lipgloss.NewStyle().Reverse(true),
	Favorite:      lipgloss.NewStyle().Bold(true),
	RoundedBox:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 2),
	Crumb:         lipgloss.NewStyle(),
	CrumbActive:   lipgloss.NewStyle().Underline(true),
	StatusInfo:    lipgloss.NewStyle(),
	StatusError:   lipgloss.NewStyle().Bold(true),
	StatusWarning: lipgloss.NewStyle().Bold(true),
	StatusSuccess: lipgloss.NewStyle().Bold(true),
}
