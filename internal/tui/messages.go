package tui

import "github.com/arktecher/Micro-sub000/internal/model"

// snapshotMsg signals that the session changed outside Update, for example
// a favorites change made from another surface.
type snapshotMsg struct{}

type exhibitionConfirmedMsg struct {
	err        error
	exhibition model.Exhibition
}

type favoriteToggledMsg struct {
	err error
	id  string
	on  bool
}

// inputMode is what the text input is currently collecting.
type inputMode int

const (
	inputNone inputMode = iota
	inputFile
	inputArea
	inputStyle
)
