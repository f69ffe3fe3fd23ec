package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrDiscarded is returned when the user declines to submit.
	ErrDiscarded = errors.New("tui: changes discarded")
)
