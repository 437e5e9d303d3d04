package link

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultPausedSleep is the poll interval while the reader is paused.
	DefaultPausedSleep = 20 * time.Millisecond
	// DefaultIdleSleep is the pause after a read that returned nothing.
	DefaultIdleSleep = 10 * time.Millisecond
	// DefaultReadSize is the size of the read buffer.
	DefaultReadSize = 4096
)

// Gate lets the reader claim the link for one read at a time.
type Gate interface {
	Acquire() bool
	Release()
}

// Reader continuously reads a Port and hands every non-empty chunk to
// a sink. Chunks are copies and may be retained.
type Reader struct {
	port  Port
	gate  Gate
	sink  func([]byte)
	clock clockwork.Clock

	pausedSleep time.Duration
	idleSleep   time.Duration
	readSize    int
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithReaderClock sets the clock used for sleeps.
func WithReaderClock(c clockwork.Clock) ReaderOption {
	return func(r *Reader) { r.clock = c }
}

// WithSleeps overrides the paused and idle poll intervals.
func WithSleeps(paused, idle time.Duration) ReaderOption {
	return func(r *Reader) {
		r.pausedSleep = paused
		r.idleSleep = idle
	}
}

// NewReader returns a reader of port gated by gate.
func NewReader(port Port, gate Gate, sink func([]byte), opts ...ReaderOption) *Reader {
	r := &Reader{
		port:        port,
		gate:        gate,
		sink:        sink,
		clock:       clockwork.NewRealClock(),
		pausedSleep: DefaultPausedSleep,
		idleSleep:   DefaultIdleSleep,
		readSize:    DefaultReadSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reads until ctx is done, the port is closed, or a read fails. A
// read failure is returned once, wrapped in ErrIO, and ends the loop.
// Cancellation returns ctx.Err(); a closed port returns ErrClosed.
func (r *Reader) Run(ctx context.Context) error {
	buf := make([]byte, r.readSize)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !r.port.IsOpen() {
			return ErrClosed
		}

		if !r.gate.Acquire() {
			if err := r.sleep(ctx, r.pausedSleep); err != nil {
				return err
			}
			continue
		}
		n, err := r.port.Read(buf)
		r.gate.Release()

		if err != nil {
			if !r.port.IsOpen() {
				return ErrClosed
			}
			log.Error().Err(err).Msg("serial read failed")
			return fmt.Errorf("%w: read: %w", ErrIO, err)
		}
		if n == 0 {
			if err := r.sleep(ctx, r.idleSleep); err != nil {
				return err
			}
			continue
		}

		r.sink(bytes.Clone(buf[:n]))
	}
}

func (r *Reader) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.clock.After(d):
		return nil
	}
}
