package link

import (
	"github.com/rs/zerolog/log"

	"sophiatech.io/serialterm/syncutil"
)

// Arbiter keeps the continuous reader, the transmit queue and command
// exchanges from interleaving on one link. It performs no I/O itself.
//
// The reader is paused while either the navigation hold is set
// (PauseReader) or an exchange is running. An exchange always lifts its
// own hold when it ends, whatever the outcome; the navigation hold stays
// until ResumeReader.
type Arbiter struct {
	mu        syncutil.Mutex
	held      bool
	exchanges int

	// wire is held by the reader for one read and by an exchange for its
	// whole duration.
	wire syncutil.Mutex
	// tx serializes queued transmissions and exchanges.
	tx syncutil.Mutex
}

// NewArbiter returns an arbiter with the reader active.
func NewArbiter() *Arbiter {
	return &Arbiter{}
}

// PauseReader sets the navigation hold.
func (a *Arbiter) PauseReader() {
	a.mu.Lock()
	a.held = true
	a.mu.Unlock()
	log.Debug().Msg("reader paused")
}

// ResumeReader lifts the navigation hold. The reader stays paused while
// an exchange is running.
func (a *Arbiter) ResumeReader() {
	a.mu.Lock()
	a.held = false
	a.mu.Unlock()
	log.Debug().Msg("reader resumed")
}

// IsReaderActive reports whether the continuous reader may consume bytes.
func (a *Arbiter) IsReaderActive() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.held && a.exchanges == 0
}

// InExchange reports whether a command exchange is running or waiting
// to start.
func (a *Arbiter) InExchange() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.exchanges > 0
}

// Exchange runs fn with exclusive use of the link. It waits for an
// in-flight read or transmission to finish first. The reader is
// released when fn returns or panics.
func (a *Arbiter) Exchange(fn func() error) error {
	a.mu.Lock()
	a.exchanges++
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.exchanges--
		a.mu.Unlock()
	}()

	a.tx.Lock()
	defer a.tx.Unlock()
	a.wire.Lock()
	defer a.wire.Unlock()

	return fn()
}

// Transmit runs fn unless an exchange is running, in which case it
// reports false without calling fn.
func (a *Arbiter) Transmit(fn func() error) (bool, error) {
	a.mu.Lock()
	if a.exchanges > 0 {
		a.mu.Unlock()
		return false, nil
	}
	a.tx.Lock()
	a.mu.Unlock()
	defer a.tx.Unlock()

	return true, fn()
}

// Acquire claims the link for one read. It reports false, without
// blocking on an exchange, when the reader is paused. A successful
// Acquire must be paired with Release.
func (a *Arbiter) Acquire() bool {
	if !a.IsReaderActive() {
		return false
	}
	a.wire.Lock()
	if !a.IsReaderActive() {
		a.wire.Unlock()
		return false
	}
	return true
}

// Release ends the read started by Acquire.
func (a *Arbiter) Release() {
	a.wire.Unlock()
}
