//go:build deadlock

package syncutil

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	deadlock "github.com/sasha-s/go-deadlock"
)

const detecting = true

type (
	Mutex   = deadlock.Mutex
	RWMutex = deadlock.RWMutex
)

// stuckAfter is well past the longest command drain.
const stuckAfter = 15 * time.Second

func init() {
	deadlock.Opts.DeadlockTimeout = stuckAfter
	deadlock.Opts.LogBuf = reportWriter{}
}

// reportWriter forwards go-deadlock reports to the current logger, which
// main replaces after init has run.
type reportWriter struct{}

func (reportWriter) Write(p []byte) (int, error) {
	if msg := strings.TrimSpace(string(p)); msg != "" {
		log.Error().Str("report", msg).Msg("potential deadlock")
	}
	return len(p), nil
}
