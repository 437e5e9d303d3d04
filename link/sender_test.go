package link_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sophiatech.io/serialterm/codec"
	"sophiatech.io/serialterm/link"
	"sophiatech.io/serialterm/link/linktest"
)

type sendLog struct {
	mu     sync.Mutex
	sent   []link.Item
	errors []error
}

func (l *sendLog) onSent(it link.Item, _ []byte) {
	l.mu.Lock()
	l.sent = append(l.sent, it)
	l.mu.Unlock()
}

func (l *sendLog) onError(_ link.Item, err error) {
	l.mu.Lock()
	l.errors = append(l.errors, err)
	l.mu.Unlock()
}

func (l *sendLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sent)
}

func newSender(port link.Port, arb *link.Arbiter, burst *link.BurstTracker, log *sendLog, opts ...link.SenderOption) *link.Sender {
	opts = append(opts, link.OnSent(log.onSent), link.OnError(log.onError))
	return link.NewSender(port, arb, burst, opts...)
}

func TestSenderOneItemPerTick(t *testing.T) {
	t.Parallel()

	port := linktest.NewFakePort()
	log := &sendLog{}
	s := newSender(port, link.NewArbiter(), nil, log)

	s.Enqueue(link.SequenceItem("41 42", codec.HEX, link.SourceUser))
	s.Enqueue(link.LineItem("AT", link.SourceUser))
	s.Enqueue(link.RawItem([]byte{0x00}, link.SourceAuto))

	require.True(t, s.Tick())
	assert.Equal(t, 2, s.Pending())
	require.True(t, s.Tick())
	require.True(t, s.Tick())
	assert.False(t, s.Tick(), "queue is empty")

	assert.Equal(t, [][]byte{{0x41, 0x42}, []byte("AT\r\n"), {0x00}}, port.Writes())
	assert.Equal(t, 3, port.Flushes())
	assert.Equal(t, 3, log.count())
}

func TestSenderDefersDuringBurst(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	burst := link.NewBurstTracker(clock, 100*time.Millisecond)
	port := linktest.NewFakePort()
	s := newSender(port, link.NewArbiter(), burst, &sendLog{})

	s.Enqueue(link.LineItem("reply", link.SourceAuto))
	burst.Note()

	assert.False(t, s.Tick())
	clock.Advance(50 * time.Millisecond)
	burst.Note()
	clock.Advance(60 * time.Millisecond)
	assert.False(t, s.Tick(), "still inside the burst window")
	assert.Zero(t, port.WriteCount())
	assert.Equal(t, 1, s.Pending())

	clock.Advance(40 * time.Millisecond)
	assert.True(t, s.Tick())
	assert.Equal(t, []string{"reply\r\n"}, port.WrittenLines())
}

func TestSenderDefersDuringExchange(t *testing.T) {
	t.Parallel()

	port := linktest.NewFakePort()
	arb := link.NewArbiter()
	s := newSender(port, arb, nil, &sendLog{})
	s.Enqueue(link.LineItem("x", link.SourceUser))

	require.NoError(t, arb.Exchange(func() error {
		assert.False(t, s.Tick())
		return nil
	}))
	assert.Equal(t, 1, s.Pending())
	assert.True(t, s.Tick())
}

func TestSenderDropsMalformedItem(t *testing.T) {
	t.Parallel()

	port := linktest.NewFakePort()
	log := &sendLog{}
	s := newSender(port, link.NewArbiter(), nil, log)
	s.Enqueue(link.SequenceItem("1 300", codec.Decimal, link.SourceUser))
	s.Enqueue(link.SequenceItem("1", codec.Decimal, link.SourceUser))

	assert.False(t, s.Tick())
	require.Len(t, log.errors, 1)
	assert.ErrorIs(t, log.errors[0], codec.ErrFormat)
	assert.Zero(t, port.WriteCount(), "nothing malformed reaches the wire")

	assert.True(t, s.Tick())
	assert.Equal(t, [][]byte{{1}}, port.Writes())
}

func TestSenderReportsWriteError(t *testing.T) {
	t.Parallel()

	port := linktest.NewFakePort()
	port.FailWrites(errors.New("EIO"))
	log := &sendLog{}
	s := newSender(port, link.NewArbiter(), nil, log)
	s.Enqueue(link.LineItem("x", link.SourceUser))

	assert.False(t, s.Tick())
	require.Len(t, log.errors, 1)
	assert.ErrorIs(t, log.errors[0], link.ErrIO)
	assert.Zero(t, s.Pending())
}

func TestSenderRunTicks(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	port := linktest.NewFakePort()
	log := &sendLog{}
	s := newSender(port, link.NewArbiter(), nil, log, link.WithSenderClock(clock), link.WithInterval(100*time.Millisecond))
	s.Enqueue(link.LineItem("a", link.SourceUser))
	s.Enqueue(link.LineItem("b", link.SourceUser))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(100 * time.Millisecond)
	require.Eventually(t, func() bool { return log.count() == 1 }, time.Second, time.Millisecond)

	clock.Advance(100 * time.Millisecond)
	require.Eventually(t, func() bool { return log.count() == 2 }, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, []string{"a\r\n", "b\r\n"}, port.WrittenLines())
}
