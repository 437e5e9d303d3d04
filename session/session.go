// Package session coordinates one serial link: the continuous reader
// feeding the framer and the trigger engine, the transmit queue, the
// command channel used by calibration, and scripts. The display talks to
// it through a few intake methods and reads everything back from Events.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"sophiatech.io/serialterm/calibrate"
	"sophiatech.io/serialterm/codec"
	"sophiatech.io/serialterm/device"
	"sophiatech.io/serialterm/frame"
	"sophiatech.io/serialterm/link"
	"sophiatech.io/serialterm/script"
	"sophiatech.io/serialterm/store"
	"sophiatech.io/serialterm/syncutil"
	"sophiatech.io/serialterm/trigger"
)

// DefaultEventBuffer is the capacity of the event channel.
const DefaultEventBuffer = 256

// Session owns at most one open link at a time.
type Session struct {
	dialer       link.Dialer
	clock        clockwork.Clock
	sendInterval time.Duration
	readerOpts   []link.ReaderOption

	rulesSrc trigger.RuleSource
	rules    *ruleSnapshot
	engine   *trigger.Engine
	arbiter  *link.Arbiter
	burst    *link.BurstTracker
	channel  *device.Channel
	scripts  *script.Runner
	events   chan Event

	mu   syncutil.Mutex
	conn *conn
}

// conn is the state of one open link.
type conn struct {
	port   link.Port
	sender *link.Sender
	framer *frame.Framer
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type options struct {
	deviceConfig  *device.Config
	engineOpts    []trigger.Option
	clock         clockwork.Clock
	eventBuffer   int
	sendInterval  time.Duration
	burstWindow   time.Duration
	readerOptions []link.ReaderOption
}

// Option configures a Session.
type Option func(*options)

// WithDeviceConfig sets the command channel configuration.
func WithDeviceConfig(c device.Config) Option {
	return func(o *options) { o.deviceConfig = &c }
}

// WithEngineOptions passes options to the trigger engine.
func WithEngineOptions(opts ...trigger.Option) Option {
	return func(o *options) { o.engineOpts = append(o.engineOpts, opts...) }
}

// WithClock sets the clock of the transmit queue, the burst tracker and
// scripts.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithEventBuffer sets the capacity of the event channel.
func WithEventBuffer(n int) Option {
	return func(o *options) { o.eventBuffer = n }
}

// WithSendInterval sets the transmit queue period.
func WithSendInterval(d time.Duration) Option {
	return func(o *options) { o.sendInterval = d }
}

// WithBurstWindow sets how long after the last received chunk the
// transmit queue keeps waiting.
func WithBurstWindow(d time.Duration) Option {
	return func(o *options) { o.burstWindow = d }
}

// WithReaderOptions passes options to the continuous reader.
func WithReaderOptions(opts ...link.ReaderOption) Option {
	return func(o *options) { o.readerOptions = append(o.readerOptions, opts...) }
}

// New returns a closed session that opens its link with dialer and
// answers received lines with the rules of rules.
func New(dialer link.Dialer, rules trigger.RuleSource, opts ...Option) (*Session, error) {
	o := options{
		clock:        clockwork.NewRealClock(),
		eventBuffer:  DefaultEventBuffer,
		sendInterval: link.DefaultSendInterval,
		burstWindow:  link.DefaultBurstWindow,
	}
	for _, opt := range opts {
		opt(&o)
	}

	devConfig := o.deviceConfig
	if devConfig == nil {
		c, err := device.NewConfigBuilder().Build()
		if err != nil {
			return nil, fmt.Errorf("device config: %w", err)
		}
		devConfig = &c
	}

	s := &Session{
		dialer:       dialer,
		clock:        o.clock,
		sendInterval: o.sendInterval,
		readerOpts:   o.readerOptions,
		rulesSrc:     rules,
		rules:        &ruleSnapshot{},
		arbiter:      link.NewArbiter(),
		burst:        link.NewBurstTracker(o.clock, o.burstWindow),
		scripts:      script.NewRunner(o.clock),
		events:       make(chan Event, max(o.eventBuffer, 1)),
	}
	s.rules.reload(rules)
	s.engine = trigger.NewEngine(s.rules, o.engineOpts...)
	s.channel = device.NewChannel(*devConfig, s.arbiter)
	return s, nil
}

// Events returns the output channel. Events are dropped when it is full.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Channel returns the command channel bound to the open link.
func (s *Session) Channel() *device.Channel {
	return s.channel
}

// Calibrator returns a calibrator driving the command channel.
func (s *Session) Calibrator() *calibrate.Calibrator {
	return calibrate.New(s.channel)
}

// Arbiter returns the arbiter shared by the reader, the queue and the
// command channel.
func (s *Session) Arbiter() *link.Arbiter {
	return s.arbiter
}

// IsOpen reports whether a link is open.
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Open dials the link and starts the reader and the transmit queue. The
// link stays open until Close, a read error, or the end of ctx.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return ErrAlreadyOpen
	}

	port, err := s.dialer.Dial(ctx)
	if err != nil {
		s.emit(Event{Kind: EventError, Text: err.Error()})
		return fmt.Errorf("open link: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	c := &conn{port: port, framer: frame.New(), cancel: cancel}
	c.sender = link.NewSender(port, s.arbiter, s.burst,
		link.WithSenderClock(s.clock),
		link.WithInterval(s.sendInterval),
		link.OnSent(func(it link.Item, data []byte) {
			s.emit(Event{Kind: EventTX, Source: it.Source, Data: data})
		}),
		link.OnError(func(it link.Item, err error) {
			s.emit(Event{Kind: EventError, Source: it.Source, Text: fmt.Sprintf("send failed: %v", err)})
		}),
	)
	reader := link.NewReader(port, s.arbiter, func(chunk []byte) { s.receive(c, chunk) }, s.readerOpts...)

	s.conn = c
	s.channel.Attach(port)

	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		err := reader.Run(runCtx)
		if errors.Is(err, link.ErrIO) {
			s.emit(Event{Kind: EventError, Text: err.Error()})
			go s.lost(c)
		}
	}()
	go func() {
		defer c.wg.Done()
		_ = c.sender.Run(runCtx)
	}()

	s.emit(Event{Kind: EventInfo, Text: "Connection open on " + portName(port)})
	log.Info().Str("port", portName(port)).Msg("link open")
	return nil
}

func portName(p link.Port) string {
	if named, ok := p.(interface{ Name() string }); ok {
		return named.Name()
	}
	return "port"
}

// Close stops the reader, the transmit queue and any script, then closes
// the port. Closing a closed session does nothing.
func (s *Session) Close() error {
	s.mu.Lock()
	c := s.conn
	s.conn = nil
	s.mu.Unlock()

	if c == nil {
		return nil
	}
	err := s.shutdown(c)
	s.emit(Event{Kind: EventInfo, Text: "Connection closed"})
	return err
}

// lost tears down c after a read failure, unless Close got there first.
func (s *Session) lost(c *conn) {
	s.mu.Lock()
	if s.conn != c {
		s.mu.Unlock()
		return
	}
	s.conn = nil
	s.mu.Unlock()

	_ = s.shutdown(c)
	s.emit(Event{Kind: EventDisconnected, Text: "link lost"})
}

func (s *Session) shutdown(c *conn) error {
	s.scripts.Stop()
	c.cancel()
	c.wg.Wait()
	s.channel.Detach()

	if err := c.port.Close(); err != nil {
		log.Warn().Err(err).Msg("closing link")
		return fmt.Errorf("close link: %w", err)
	}
	log.Info().Msg("link closed")
	return nil
}

// receive is the reader's sink: frame the chunk, show every line, and
// queue the response of the first matching rule.
func (s *Session) receive(c *conn, chunk []byte) {
	s.burst.Note()
	c.framer.Feed(chunk)

	for _, line := range c.framer.Drain() {
		s.emit(Event{Kind: EventRX, Data: line})
		if frame.IsBlank(line) {
			continue
		}
		if resp, ok := s.engine.Check(line); ok {
			c.sender.Enqueue(link.SequenceItem(resp.Sequence, resp.Mode, link.SourceAuto))
		}
	}
}

func (s *Session) sender() (*link.Sender, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil, ErrNotOpen
	}
	return s.conn.sender, nil
}

// Send queues a stored sequence.
func (s *Session) Send(seq store.Sequence) error {
	return s.enqueue(link.SequenceItem(seq.Sequence, seq.Mode, link.SourceUser))
}

// SendText queues text in the given encoding.
func (s *Session) SendText(text string, mode codec.Encoding) error {
	return s.enqueue(link.SequenceItem(text, mode, link.SourceUser))
}

// SendLine queues text followed by CRLF.
func (s *Session) SendLine(text string) error {
	return s.enqueue(link.LineItem(text, link.SourceUser))
}

func (s *Session) enqueue(it link.Item) error {
	sender, err := s.sender()
	if err != nil {
		return err
	}
	sender.Enqueue(it)
	return nil
}

// WaitSent blocks until the transmit queue is empty, the link closes or
// ctx ends.
func (s *Session) WaitSent(ctx context.Context) error {
	for {
		sender, err := s.sender()
		if err != nil {
			return err
		}
		if sender.Pending() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(s.sendInterval):
		}
	}
}

// RulesChanged makes the engine use the current content of the rule set.
func (s *Session) RulesChanged() {
	n := s.rules.reload(s.rulesSrc)
	log.Debug().Int("rules", n).Msg("trigger rules reloaded")
}

// ViewChanged holds the continuous reader while the calibrator is shown
// and releases it on the terminal.
func (s *Session) ViewChanged(v View) {
	switch v {
	case ViewCalibrator:
		s.arbiter.PauseReader()
	case ViewTerminal:
		s.arbiter.ResumeReader()
	}
}

// RunScript parses source and runs it in the background. Its sends go
// through the transmit queue; its log lines and its end are reported as
// events.
func (s *Session) RunScript(ctx context.Context, source string) (*script.Job, error) {
	if !s.IsOpen() {
		return nil, ErrNotOpen
	}
	prog, err := script.Parse(source)
	if err != nil {
		return nil, err
	}

	job, err := s.scripts.Start(ctx, prog, scriptHost{s})
	if err != nil {
		return nil, err
	}
	go func() {
		ev := Event{Kind: EventScriptDone}
		if err := job.Err(); err != nil {
			ev.Text = err.Error()
		}
		s.emit(ev)
	}()
	return job, nil
}

// StopScript interrupts the running script, if any.
func (s *Session) StopScript() {
	s.scripts.Stop()
}

type scriptHost struct {
	s *Session
}

func (h scriptHost) Log(msg string) {
	h.s.emit(Event{Kind: EventScriptLog, Source: link.SourceScript, Text: msg})
}

func (h scriptHost) Send(data []byte) error {
	return h.s.enqueue(link.RawItem(data, link.SourceScript))
}

func (s *Session) emit(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = s.clock.Now()
	}
	select {
	case s.events <- ev:
	default:
		log.Debug().Stringer("kind", ev.Kind).Msg("event channel full, event dropped")
	}
}
