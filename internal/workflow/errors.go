package workflow

import "errors"

var (
	// ErrInvalidTransition is returned for an action the current step does not accept.
	ErrInvalidTransition = errors.New("invalid workflow transition")
	// ErrTransitionPending is returned while a stream or pipeline is still in flight.
	ErrTransitionPending = errors.New("a workflow transition is already pending")
	// ErrSessionClosed is returned after Close.
	ErrSessionClosed = errors.New("workflow session is closed")
	// ErrNoSelection is returned when confirming without a previewed candidate.
	ErrNoSelection = errors.New("no candidate selected")
	// ErrFavoritesUnavailable is returned when the session has no favorites store.
	ErrFavoritesUnavailable = errors.New("favorites are not available in this session")
)
