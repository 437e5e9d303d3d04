package codec

import (
	"errors"
	"fmt"
)

// ErrFormat is wrapped by every encoding failure.
var ErrFormat = errors.New("invalid sequence format")

// FormatError describes the token that could not be encoded.
type FormatError struct {
	Mode   Encoding
	Token  string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("invalid %s sequence: %s", e.Mode, e.Reason)
	}
	return fmt.Sprintf("invalid %s sequence: %s (%q)", e.Mode, e.Reason, e.Token)
}

func (e *FormatError) Unwrap() error {
	return ErrFormat
}
