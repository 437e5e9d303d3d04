package link

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"sophiatech.io/serialterm/codec"
	"sophiatech.io/serialterm/syncutil"
)

// DefaultSendInterval is the period of the transmit queue.
const DefaultSendInterval = 100 * time.Millisecond

// ItemKind tells how an Item becomes bytes.
type ItemKind int

const (
	KindSequence ItemKind = iota // Text encoded with Mode
	KindLine                     // Text followed by CRLF, Latin-1
	KindRaw                      // Data as is
)

// Source names who queued an item; it is carried into events.
type Source string

const (
	SourceUser   Source = "user"
	SourceAuto   Source = "auto"
	SourceScript Source = "script"
)

// Item is one queued transmission. Text is encoded when the item is
// sent, not when it is queued.
type Item struct {
	Kind   ItemKind
	Text   string
	Mode   codec.Encoding
	Data   []byte
	Source Source
}

// SequenceItem queues text in the given encoding.
func SequenceItem(text string, mode codec.Encoding, src Source) Item {
	return Item{Kind: KindSequence, Text: text, Mode: mode, Source: src}
}

// LineItem queues a line of text terminated by CRLF.
func LineItem(text string, src Source) Item {
	return Item{Kind: KindLine, Text: text, Source: src}
}

// RawItem queues bytes as they are.
func RawItem(data []byte, src Source) Item {
	return Item{Kind: KindRaw, Data: data, Source: src}
}

// Bytes encodes the item.
func (it Item) Bytes() ([]byte, error) {
	switch it.Kind {
	case KindSequence:
		return codec.Encode(it.Text, it.Mode)
	case KindLine:
		return codec.Latin1(it.Text + "\r\n")
	case KindRaw:
		return it.Data, nil
	}
	return nil, fmt.Errorf("unknown item kind %d", it.Kind)
}

// Sender drains a FIFO of items onto a port, at most one per tick. A
// tick is skipped while received data is still arriving or a command
// exchange holds the link.
type Sender struct {
	port    Port
	arbiter *Arbiter
	burst   *BurstTracker
	clock   clockwork.Clock

	interval time.Duration
	onSent   func(Item, []byte)
	onError  func(Item, error)

	queue []Item
	mu    syncutil.Mutex
}

// SenderOption configures a Sender.
type SenderOption func(*Sender)

// WithSenderClock sets the clock driving Run.
func WithSenderClock(c clockwork.Clock) SenderOption {
	return func(s *Sender) { s.clock = c }
}

// WithInterval sets the tick period.
func WithInterval(d time.Duration) SenderOption {
	return func(s *Sender) { s.interval = d }
}

// OnSent registers a callback for every transmitted item.
func OnSent(fn func(Item, []byte)) SenderOption {
	return func(s *Sender) { s.onSent = fn }
}

// OnError registers a callback for items that could not be sent. Such
// items are dropped.
func OnError(fn func(Item, error)) SenderOption {
	return func(s *Sender) { s.onError = fn }
}

// NewSender returns a sender writing to port.
func NewSender(port Port, arbiter *Arbiter, burst *BurstTracker, opts ...SenderOption) *Sender {
	s := &Sender{
		port:     port,
		arbiter:  arbiter,
		burst:    burst,
		clock:    clockwork.NewRealClock(),
		interval: DefaultSendInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enqueue appends an item to the queue.
func (s *Sender) Enqueue(it Item) {
	s.mu.Lock()
	s.queue = append(s.queue, it)
	s.mu.Unlock()
}

// Pending returns the number of queued items.
func (s *Sender) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Clear drops every queued item.
func (s *Sender) Clear() {
	s.mu.Lock()
	s.queue = nil
	s.mu.Unlock()
}

// Tick sends the head of the queue unless a burst or an exchange is in
// progress. It reports whether an item was written.
func (s *Sender) Tick() bool {
	if s.burst != nil && s.burst.Active() {
		return false
	}
	if s.arbiter != nil && s.arbiter.InExchange() {
		return false
	}

	it, ok := s.pop()
	if !ok {
		return false
	}

	data, err := it.Bytes()
	if err != nil {
		s.fail(it, err)
		return false
	}
	if len(data) == 0 {
		return false
	}

	write := func() error {
		if _, err := s.port.Write(data); err != nil {
			return fmt.Errorf("%w: write: %w", ErrIO, err)
		}
		if err := s.port.Flush(); err != nil {
			return fmt.Errorf("%w: flush: %w", ErrIO, err)
		}
		return nil
	}

	sent := true
	if s.arbiter != nil {
		sent, err = s.arbiter.Transmit(write)
	} else {
		err = write()
	}
	if !sent {
		s.requeue(it)
		return false
	}
	if err != nil {
		s.fail(it, err)
		return false
	}

	log.Debug().Str("source", string(it.Source)).Int("bytes", len(data)).Msg("sent")
	if s.onSent != nil {
		s.onSent(it, data)
	}
	return true
}

// Run ticks until ctx is done.
func (s *Sender) Run(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			s.Tick()
		}
	}
}

func (s *Sender) pop() (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return Item{}, false
	}
	it := s.queue[0]
	s.queue = s.queue[1:]
	return it, true
}

func (s *Sender) requeue(it Item) {
	s.mu.Lock()
	s.queue = append([]Item{it}, s.queue...)
	s.mu.Unlock()
}

func (s *Sender) fail(it Item, err error) {
	if errors.Is(err, codec.ErrFormat) {
		log.Warn().Err(err).Str("source", string(it.Source)).Msg("dropping malformed item")
	} else {
		log.Error().Err(err).Str("source", string(it.Source)).Msg("send failed")
	}
	if s.onError != nil {
		s.onError(it, err)
	}
}
