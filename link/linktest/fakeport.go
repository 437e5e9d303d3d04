// Package linktest provides an in-memory link.Port for tests.
package linktest

import (
	"bytes"
	"io"
	"sync"
	"time"

	"sophiatech.io/serialterm/link"
)

// Responder produces the bytes a device answers to one write.
type Responder func(written []byte) []byte

// FakePort simulates a serial port. Reads return queued data, or nothing
// after ReadDelay, the way a port with a read timeout does. Writes are
// recorded and may trigger scripted replies.
type FakePort struct {
	mu        sync.Mutex
	incoming  []byte
	writes    [][]byte
	reads     int
	flushes   int
	responder Responder
	readErr   error
	writeErr  error
	closed    bool

	// ReadDelay is how long an empty read blocks.
	ReadDelay time.Duration
}

var _ link.Port = (*FakePort)(nil)

// NewFakePort returns an open fake port.
func NewFakePort() *FakePort {
	return &FakePort{ReadDelay: time.Millisecond}
}

// Feed queues data for the next reads.
func (p *FakePort) Feed(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.incoming = append(p.incoming, data...)
}

// FeedString queues text for the next reads.
func (p *FakePort) FeedString(s string) {
	p.Feed([]byte(s))
}

// Respond installs a responder called on every write.
func (p *FakePort) Respond(fn Responder) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responder = fn
}

// FailReads makes every following read return err.
func (p *FakePort) FailReads(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readErr = err
}

// FailWrites makes every following write return err.
func (p *FakePort) FailWrites(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writeErr = err
}

func (p *FakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	p.reads++
	if p.closed {
		p.mu.Unlock()
		return 0, io.ErrClosedPipe
	}
	if p.readErr != nil {
		err := p.readErr
		p.mu.Unlock()
		return 0, err
	}
	if len(p.incoming) > 0 {
		n := copy(b, p.incoming)
		p.incoming = p.incoming[n:]
		p.mu.Unlock()
		return n, nil
	}
	delay := p.ReadDelay
	p.mu.Unlock()

	time.Sleep(delay)
	return 0, nil
}

func (p *FakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	p.writes = append(p.writes, bytes.Clone(b))
	if p.responder != nil {
		p.incoming = append(p.incoming, p.responder(b)...)
	}
	return len(b), nil
}

func (p *FakePort) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flushes++
	return nil
}

func (p *FakePort) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.closed
}

func (p *FakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Writes returns a copy of every write, in order.
func (p *FakePort) Writes() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, len(p.writes))
	copy(out, p.writes)
	return out
}

// WrittenLines returns every write as a string.
func (p *FakePort) WrittenLines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.writes))
	for _, w := range p.writes {
		out = append(out, string(w))
	}
	return out
}

// WriteCount returns the number of writes.
func (p *FakePort) WriteCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.writes)
}

// ReadCount returns the number of Read calls.
func (p *FakePort) ReadCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reads
}

// Flushes returns the number of Flush calls.
func (p *FakePort) Flushes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.flushes
}
