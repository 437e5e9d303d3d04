package link

import "errors"

var (
	// ErrIO wraps transport failures on an open link. The continuous
	// reader reports it once and stops.
	ErrIO = errors.New("serial I/O error")

	// ErrClosed is returned when the link is used after it was closed.
	ErrClosed = errors.New("serial link closed")

	// ErrNoPortName is returned by SerialDialer when no port is named.
	ErrNoPortName = errors.New("link: serial port name is required")

	// ErrNilContext is returned by SerialDialer.Dial for a nil context.
	ErrNilContext = errors.New("link: context is nil")

	// ErrInvalidSettings wraps validation failures of Settings.
	ErrInvalidSettings = errors.New("invalid serial settings")
)
