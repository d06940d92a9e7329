package galaxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/seqlabs/genoportal/internal/observability"
)

// ErrWaitTimeout is returned when a job does not reach a terminal state
// within the configured maximum wait.
var ErrWaitTimeout = errors.New("job wait timed out")

const (
	DefaultPollInterval = 10 * time.Second
	DefaultMaxWait      = 30 * time.Minute
)

// WaitOptions bounds the polling loop. Zero values fall back to the defaults.
type WaitOptions struct {
	PollInterval time.Duration
	MaxWait      time.Duration
}

// AwaitCompletion polls the job until it reaches a terminal state (ok or
// error) and returns that state. Any other state means keep waiting. The wait
// is bounded by opts.MaxWait and is cancelled when ctx is. An error-terminal
// job is reported as a state, not a Go error; the caller decides what it
// means.
func AwaitCompletion(ctx context.Context, client Client, jobID string, opts WaitOptions) (string, error) {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	maxWait := opts.MaxWait
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}

	ctx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		observability.JobPolls.Inc()
		job, err := client.ShowJob(ctx, jobID)
		if err != nil {
			return "", fmt.Errorf("polling job %s: %w", jobID, err)
		}

		slog.Debug("job state", "job_id", jobID, "state", job.State)
		if job.Terminal() {
			observability.JobsAwaited.WithLabelValues(job.State).Inc()
			return job.State, nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return "", fmt.Errorf("%w: job %s after %s", ErrWaitTimeout, jobID, maxWait)
			}
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}
