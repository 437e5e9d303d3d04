package link

import (
	"time"

	"github.com/jonboulle/clockwork"

	"sophiatech.io/serialterm/syncutil"
)

// DefaultBurstWindow is how long after the last received chunk the link
// is still considered mid-burst.
const DefaultBurstWindow = 100 * time.Millisecond

// BurstTracker records when data was last received.
type BurstTracker struct {
	clock  clockwork.Clock
	last   time.Time
	window time.Duration
	mu     syncutil.Mutex
}

// NewBurstTracker returns a tracker; a nil clock means the real clock and
// a zero window means DefaultBurstWindow.
func NewBurstTracker(clock clockwork.Clock, window time.Duration) *BurstTracker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if window <= 0 {
		window = DefaultBurstWindow
	}
	return &BurstTracker{clock: clock, window: window}
}

// Note records a received chunk.
func (b *BurstTracker) Note() {
	b.mu.Lock()
	b.last = b.clock.Now()
	b.mu.Unlock()
}

// Active reports whether a chunk arrived within the window.
func (b *BurstTracker) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.last.IsZero() && b.clock.Since(b.last) < b.window
}
