package script

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"sophiatech.io/serialterm/syncutil"
)

// Host receives the effects of a running script.
type Host interface {
	Log(msg string)
	Send(data []byte) error
}

// Runner executes at most one script at a time.
type Runner struct {
	clock   clockwork.Clock
	mu      syncutil.Mutex
	current *Job
}

// NewRunner returns a runner timing pauses with clock, or the real clock
// when nil.
func NewRunner(clock clockwork.Clock) *Runner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Runner{clock: clock}
}

// Job is one run of a script in the background.
type Job struct {
	ID     uuid.UUID
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Stop asks the job to end at its next step or during its current pause.
func (j *Job) Stop() {
	j.cancel()
}

// Done is closed when the job has ended.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Err is the job's outcome once Done is closed: nil, ErrInterrupted, or
// an error wrapping ErrExecution.
func (j *Job) Err() error {
	<-j.done
	return j.err
}

// Start runs s in a new goroutine. It fails with ErrBusy while another
// job is running.
func (r *Runner) Start(ctx context.Context, s *Script, host Host) (*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != nil {
		select {
		case <-r.current.done:
		default:
			return nil, ErrBusy
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	job := &Job{ID: uuid.New(), cancel: cancel, done: make(chan struct{})}
	r.current = job

	go func() {
		defer close(job.done)
		defer cancel()
		log.Info().Stringer("job", job.ID).Msg("script started")
		job.err = r.Run(ctx, s, host)
		switch {
		case job.err == nil:
			log.Info().Stringer("job", job.ID).Msg("script finished")
		case errors.Is(job.err, ErrInterrupted):
			log.Info().Stringer("job", job.ID).Msg("script stopped")
		default:
			log.Warn().Err(job.err).Stringer("job", job.ID).Msg("script failed")
		}
	}()
	return job, nil
}

// Stop stops the running job, if any.
func (r *Runner) Stop() {
	r.mu.Lock()
	job := r.current
	r.mu.Unlock()
	if job != nil {
		job.Stop()
	}
}

// Running reports whether a job is in progress.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return false
	}
	select {
	case <-r.current.done:
		return false
	default:
		return true
	}
}

// Run executes s synchronously. Cancellation of ctx is checked before
// every step and during pauses.
func (r *Runner) Run(ctx context.Context, s *Script, host Host) error {
	return r.steps(ctx, s.Steps, host)
}

func (r *Runner) steps(ctx context.Context, steps []Step, host Host) error {
	for _, st := range steps {
		if ctx.Err() != nil {
			return ErrInterrupted
		}
		if err := r.step(ctx, st, host); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) step(ctx context.Context, st Step, host Host) error {
	switch st.Kind {
	case StepLog:
		host.Log(st.Text)
	case StepSend:
		if err := host.Send(st.Data); err != nil {
			return fmt.Errorf("%w: line %d: %w", ErrExecution, st.Line, err)
		}
	case StepPause:
		select {
		case <-ctx.Done():
			return ErrInterrupted
		case <-r.clock.After(st.Duration):
		}
	case StepRepeat:
		for range st.Count {
			if err := r.steps(ctx, st.Body, host); err != nil {
				return err
			}
		}
	}
	return nil
}
