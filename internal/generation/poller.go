package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hitstudio/internal/logging"
	"hitstudio/internal/services"
)

const (
	defaultPollInterval    = 2 * time.Second
	defaultMaxPollFailures = 3
)

// Source yields status observations for one job. The channel is closed when
// the source has nothing more to deliver.
type Source interface {
	Watch(ctx context.Context, jobID string) <-chan Status
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, jobID string) <-chan Status

// Watch calls f.
func (f SourceFunc) Watch(ctx context.Context, jobID string) <-chan Status {
	return f(ctx, jobID)
}

// ChannelSource delivers whatever a caller pushes on C, regardless of the
// job id asked for. Consumers filter stale ids themselves.
type ChannelSource struct {
	C <-chan Status
}

// Watch returns the wrapped channel.
func (s ChannelSource) Watch(context.Context, string) <-chan Status {
	return s.C
}

// StatusFetcher is the part of Client a Poller needs.
type StatusFetcher interface {
	Status(ctx context.Context, jobID string) (Status, error)
}

// Poller turns the status endpoint into a stream of observations.
type Poller struct {
	fetcher     StatusFetcher
	interval    time.Duration
	maxFailures int
	logger      *slog.Logger
}

// NewPoller builds a poller. Non-positive interval or failure budget fall
// back to 2s and 3 attempts.
func NewPoller(fetcher StatusFetcher, interval time.Duration, maxFailures int, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if maxFailures <= 0 {
		maxFailures = defaultMaxPollFailures
	}
	return &Poller{
		fetcher:     fetcher,
		interval:    interval,
		maxFailures: maxFailures,
		logger:      logging.NewComponentLogger(logger, "poller"),
	}
}

// Watch polls until the job reaches a terminal state, ctx ends, or the
// failure budget is spent. Spending the budget emits one synthesized failed
// observation so consumers see why the stream stopped.
func (p *Poller) Watch(ctx context.Context, jobID string) <-chan Status {
	out := make(chan Status, 1)
	go func() {
		defer close(out)
		logger := p.logger.With(logging.String(logging.FieldJobID, jobID))
		failures := 0
		for {
			status, err := p.fetcher.Status(ctx, jobID)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				failures++
				logging.WarnWithContext(logger, "status poll failed", "status_poll_failed",
					logging.Error(err),
					logging.Int("consecutive_failures", failures),
					logging.String(logging.FieldErrorHint, "check backend reachability"),
					logging.String(logging.FieldImpact, "job progress is not refreshing"),
				)
				if failures >= p.maxFailures || errors.Is(err, services.ErrValidation) {
					send(ctx, out, Status{
						JobID:        jobID,
						State:        StateFailed,
						ErrorMessage: fmt.Sprintf("Lost contact with the generation backend: %v", err),
					})
					return
				}
			} else {
				failures = 0
				if !send(ctx, out, status) || status.State.Terminal() {
					return
				}
			}

			timer := time.NewTimer(p.interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
	return out
}

func send(ctx context.Context, out chan<- Status, status Status) bool {
	select {
	case out <- status:
		return true
	case <-ctx.Done():
		return false
	}
}
