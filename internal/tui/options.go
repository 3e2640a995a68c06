package tui

import "github.com/arktecher/Micro-sub000/internal/tui/themes"

// Config holds TUI configuration.
type Config struct {
	Theme    themes.Theme
	Width    int
	Height   int
	ShowHelp bool
	// AltScreen runs the program in the alternate screen buffer.
	AltScreen bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Theme:     themes.Default,
		Width:     80,
		Height:    24,
		AltScreen: true,
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithFullHelp starts with the full key help expanded.
func WithFullHelp() Option {
	return func(c *Config) {
		c.ShowHelp = true
	}
}

// WithInline renders in the main screen instead of the alternate buffer.
func WithInline() Option {
	return func(c *Config) {
		c.AltScreen = false
	}
}
