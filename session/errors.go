package session

import "errors"

var (
	// ErrNotOpen is returned by operations that need an open link.
	ErrNotOpen = errors.New("session: link is not open")

	// ErrAlreadyOpen is returned by Open on an open session.
	ErrAlreadyOpen = errors.New("session: link is already open")
)
