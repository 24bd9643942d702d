package session

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("session: aborted")
	// ErrNoForm is returned when a session is created without a form.
	ErrNoForm = errors.New("session: form is required")
)
