package link

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

// Dialer opens a Port.
type Dialer interface {
	// Dial may block and should respect cancellation of ctx.
	Dial(ctx context.Context) (Port, error)
}

// PortFactory opens a driver port. It is swapped out in tests.
type PortFactory func(name string, mode *serial.Mode) (serial.Port, error)

// DefaultPortFactory opens a real serial port.
func DefaultPortFactory(name string, mode *serial.Mode) (serial.Port, error) {
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", name, err)
	}
	return port, nil
}

// SerialDialer opens a device over a serial port using go.bug.st/serial.
type SerialDialer struct {
	PortName string
	// Mode defaults to 115200 8N1 when nil.
	Mode *serial.Mode
	// ReadTimeout is applied after opening; zero means the timeout of
	// DefaultSettings. The port is never left in blocking mode.
	ReadTimeout time.Duration
	// Open defaults to DefaultPortFactory.
	Open PortFactory
}

var _ Dialer = SerialDialer{}

// NewSerialDialer builds a dialer from validated settings.
func NewSerialDialer(s Settings) (SerialDialer, error) {
	mode, err := s.Mode()
	if err != nil {
		return SerialDialer{}, err
	}
	return SerialDialer{
		PortName:    s.Port,
		Mode:        mode,
		ReadTimeout: s.Timeout,
	}, nil
}

// Dial opens the port, discards anything buffered before the open, and
// applies the read timeout.
func (d SerialDialer) Dial(ctx context.Context) (Port, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if d.PortName == "" {
		return nil, ErrNoPortName
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := d.Mode
	if mode == nil {
		mode = &serial.Mode{
			BaudRate: 115200,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		}
	}
	open := d.Open
	if open == nil {
		open = DefaultPortFactory
	}

	port, err := open(d.PortName, mode)
	if err != nil {
		return nil, err
	}

	if err := port.ResetInputBuffer(); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("reset input buffer of %s: %w", d.PortName, err)
	}
	timeout := d.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultSettings().Timeout
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", d.PortName, err)
	}

	log.Info().
		Str("port", d.PortName).
		Int("baud", mode.BaudRate).
		Dur("read_timeout", timeout).
		Msg("serial port opened")
	return NewSerialPort(d.PortName, port), nil
}
