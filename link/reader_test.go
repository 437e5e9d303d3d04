package link_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sophiatech.io/serialterm/link"
	"sophiatech.io/serialterm/link/linktest"
)

type chunkSink struct {
	mu     sync.Mutex
	chunks [][]byte
}

func (s *chunkSink) add(b []byte) {
	s.mu.Lock()
	s.chunks = append(s.chunks, b)
	s.mu.Unlock()
}

func (s *chunkSink) joined() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Join(s.chunks, nil)
}

func runReader(t *testing.T, r *link.Reader) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	return cancel, done
}

func wait(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("reader did not stop")
		return nil
	}
}

func TestReaderForwardsChunks(t *testing.T) {
	port := linktest.NewFakePort()
	port.FeedString("hello\r\n")
	sink := &chunkSink{}
	r := link.NewReader(port, link.NewArbiter(), sink.add, link.WithSleeps(time.Millisecond, time.Millisecond))

	cancel, done := runReader(t, r)
	require.Eventually(t, func() bool {
		return string(sink.joined()) == "hello\r\n"
	}, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, wait(t, done), context.Canceled)
}

func TestReaderHonorsPause(t *testing.T) {
	port := linktest.NewFakePort()
	arb := link.NewArbiter()
	arb.PauseReader()
	sink := &chunkSink{}
	r := link.NewReader(port, arb, sink.add, link.WithSleeps(time.Millisecond, time.Millisecond))

	cancel, done := runReader(t, r)
	port.FeedString("held back")
	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, port.ReadCount(), "paused reader does not touch the port")
	assert.Empty(t, sink.joined())

	arb.ResumeReader()
	require.Eventually(t, func() bool {
		return string(sink.joined()) == "held back"
	}, time.Second, time.Millisecond)

	cancel()
	wait(t, done)
}

func TestReaderDoesNotReadDuringExchange(t *testing.T) {
	port := linktest.NewFakePort()
	arb := link.NewArbiter()
	sink := &chunkSink{}
	r := link.NewReader(port, arb, sink.add, link.WithSleeps(time.Millisecond, time.Millisecond))

	cancel, done := runReader(t, r)
	err := arb.Exchange(func() error {
		before := port.ReadCount()
		port.FeedString("reply for the exchange")
		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, before, port.ReadCount())
		return nil
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(sink.joined()) > 0
	}, time.Second, time.Millisecond)

	cancel()
	wait(t, done)
}

func TestReaderStopsOnceOnReadError(t *testing.T) {
	port := linktest.NewFakePort()
	readErr := errors.New("device unplugged")
	port.FailReads(readErr)
	r := link.NewReader(port, link.NewArbiter(), func([]byte) {})

	_, done := runReader(t, r)
	err := wait(t, done)
	require.ErrorIs(t, err, link.ErrIO)
	require.ErrorIs(t, err, readErr)
	assert.Equal(t, 1, port.ReadCount(), "no retry after a read error")
}

func TestReaderStopsWhenPortCloses(t *testing.T) {
	port := linktest.NewFakePort()
	r := link.NewReader(port, link.NewArbiter(), func([]byte) {}, link.WithSleeps(time.Millisecond, time.Millisecond))

	cancel, done := runReader(t, r)
	defer cancel()
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, port.Close())

	assert.ErrorIs(t, wait(t, done), link.ErrClosed)
}
