package link

import (
	"errors"
	"fmt"
	"io"

	"go.bug.st/serial"

	"sophiatech.io/serialterm/syncutil"
)

// Port is an open, bidirectional byte stream to a device.
//
// Read returns 0 bytes and a nil error when the read timeout expires
// without data. Flush blocks until written data has been transmitted.
type Port interface {
	io.ReadWriteCloser
	Flush() error
	IsOpen() bool
}

// SerialPort adapts a go.bug.st/serial port to Port.
type SerialPort struct {
	port   serial.Port
	name   string
	closed bool
	mu     syncutil.RWMutex
}

var _ Port = (*SerialPort)(nil)

// NewSerialPort wraps an already opened port.
func NewSerialPort(name string, port serial.Port) *SerialPort {
	return &SerialPort{port: port, name: name}
}

// Name returns the device name the port was opened with.
func (p *SerialPort) Name() string {
	return p.name
}

func (p *SerialPort) Read(b []byte) (int, error) {
	if !p.IsOpen() {
		return 0, ErrClosed
	}
	return p.port.Read(b)
}

func (p *SerialPort) Write(b []byte) (int, error) {
	if !p.IsOpen() {
		return 0, ErrClosed
	}
	return p.port.Write(b)
}

// Flush waits until the output buffer has been transmitted.
func (p *SerialPort) Flush() error {
	if !p.IsOpen() {
		return ErrClosed
	}
	return p.port.Drain()
}

// IsOpen reports whether Close has not been called yet.
func (p *SerialPort) IsOpen() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return !p.closed
}

// Close closes the port. Closing twice is not an error.
func (p *SerialPort) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	if err := p.port.Close(); err != nil {
		var perr *serial.PortError
		if errors.As(err, &perr) && perr.Code() == serial.PortClosed {
			return nil
		}
		return fmt.Errorf("close %s: %w", p.name, err)
	}
	return nil
}
