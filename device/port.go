package device

import "io"

//go:generate go tool mockgen -source=port.go -destination=mock_port.go -package=device

// Port is the part of an open link the command channel drives. Read
// returns 0 bytes and a nil error when its timeout passes without data.
type Port interface {
	io.ReadWriter
	Flush() error
	IsOpen() bool
}

// Exchanger runs an exchange with exclusive use of the link, pausing the
// continuous reader around it.
type Exchanger interface {
	Exchange(fn func() error) error
}
