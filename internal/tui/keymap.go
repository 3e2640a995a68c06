package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts. Which bindings are live depends on
// the workflow step.
type KeyMap struct {
	// Mode selection
	Calibrate key.Binding
	Skip      key.Binding

	// Capture
	Camera   key.Binding
	Snapshot key.Binding
	File     key.Binding
	Cancel   key.Binding

	// Image confirmation
	UsePhoto key.Binding
	Retake   key.Binding

	// Recommendation
	Prev      key.Binding
	Next      key.Binding
	Area      key.Binding
	MoveLeft  key.Binding
	MoveRight key.Binding
	MoveUp    key.Binding
	MoveDown  key.Binding
	Repropose key.Binding
	Favorite  key.Binding
	Confirm   key.Binding

	// Application
	Submit    key.Binding
	Back      key.Binding
	Help      key.Binding
	ForceQuit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Calibrate: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "calibrate with a photo"),
		),
		Skip: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "skip calibration"),
		),

		Camera: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open camera"),
		),
		Snapshot: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("Space", "take photo"),
		),
		File: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "choose a file"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "close camera"),
		),

		UsePhoto: key.NewBinding(
			key.WithKeys("u", "y"),
			key.WithHelp("u/y", "use photo"),
		),
		Retake: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retake"),
		),

		Prev: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "previous"),
		),
		Next: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next"),
		),
		Area: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "define area"),
		),
		MoveLeft: key.NewBinding(
			key.WithKeys("H", "shift+left"),
			key.WithHelp("H", "move area left"),
		),
		MoveRight: key.NewBinding(
			key.WithKeys("L", "shift+right"),
			key.WithHelp("L", "move area right"),
		),
		MoveUp: key.NewBinding(
			key.WithKeys("K", "shift+up"),
			key.WithHelp("K", "move area up"),
		),
		MoveDown: key.NewBinding(
			key.WithKeys("J", "shift+down"),
			key.WithHelp("J", "move area down"),
		),
		Repropose: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "new proposals"),
		),
		Favorite: key.NewBinding(
			key.WithKeys("*"),
			key.WithHelp("*", "favorite"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "request exhibition"),
		),

		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "submit"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("Esc", "back"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("Ctrl+C", "quit"),
		),
	}
}

// stepKeys is the help.KeyMap for one step.
type stepKeys struct {
	short []key.Binding
	full  [][]key.Binding
}

// ShortHelp implements help.KeyMap.
func (s stepKeys) ShortHelp() []key.Binding { return s.short }

// FullHelp implements help.KeyMap.
func (s stepKeys) FullHelp() [][]key.Binding { return s.full }
