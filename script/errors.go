package script

import (
	"errors"
	"fmt"
)

var (
	// ErrInterrupted is returned when a running script is stopped.
	ErrInterrupted = errors.New("script stopped by the user")

	// ErrSyntax is wrapped by every parse failure.
	ErrSyntax = errors.New("script syntax error")

	// ErrExecution is wrapped by failures of a step while running.
	ErrExecution = errors.New("script execution error")

	// ErrBusy is returned when a script is started while another runs.
	ErrBusy = errors.New("a script is already running")
)

// SyntaxError locates a parse failure.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}
