// Package poll provides a cancellable, time-bounded repeating check.
// Checks are strictly serialized: the next wait begins only after the
// previous check has returned, so two checks are never in flight at once.
package poll

import (
	"context"
	"sync"
	"time"
)

// Outcome reports why a poll loop ended.
type Outcome string

const (
	// OutcomeDone means the check reported a terminal result.
	OutcomeDone Outcome = "done"
	// OutcomeTimeout means the configured timeout elapsed without a terminal result.
	OutcomeTimeout Outcome = "timeout"
	// OutcomeStopped means Stop was called or the context was cancelled.
	OutcomeStopped Outcome = "stopped"
)

// CheckFunc performs one status check. Returning true ends the loop with
// OutcomeDone. Transient failures are the closure's business: report them
// upstream and return false to keep polling.
type CheckFunc func(ctx context.Context) bool

type Config struct {
	Interval time.Duration
	Timeout  time.Duration
}

// Handle is one in-flight poll loop. It is owned by a single caller; Stop is
// idempotent and safe to call after natural completion.
type Handle struct {
	stopCh   chan struct{}
	stopOnce sync.Once
	outcome  chan Outcome
}

// Start launches the poll loop in its own goroutine. The first check runs
// immediately; subsequent checks fire every cfg.Interval until the check
// reports done, cfg.Timeout elapses, Stop is called, or ctx is cancelled.
func Start(ctx context.Context, cfg Config, check CheckFunc) *Handle {
	h := &Handle{
		stopCh:  make(chan struct{}),
		outcome: make(chan Outcome, 1),
	}
	go h.run(ctx, cfg, check)
	return h
}

// Stop cancels any pending scheduled check. An already-running check is not
// interrupted; its result is simply the last one processed.
func (h *Handle) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
	})
}

// Outcome yields the loop's final outcome exactly once.
func (h *Handle) Outcome() <-chan Outcome {
	return h.outcome
}

func (h *Handle) run(ctx context.Context, cfg Config, check CheckFunc) {
	deadline := time.NewTimer(cfg.Timeout)
	defer deadline.Stop()

	for {
		// Consult cancellation and the deadline before firing a check.
		select {
		case <-h.stopCh:
			h.finish(OutcomeStopped)
			return
		case <-ctx.Done():
			h.finish(OutcomeStopped)
			return
		case <-deadline.C:
			h.finish(OutcomeTimeout)
			return
		default:
		}

		if check(ctx) {
			h.finish(OutcomeDone)
			return
		}

		wait := time.NewTimer(cfg.Interval)
		select {
		case <-h.stopCh:
			wait.Stop()
			h.finish(OutcomeStopped)
			return
		case <-ctx.Done():
			wait.Stop()
			h.finish(OutcomeStopped)
			return
		case <-deadline.C:
			wait.Stop()
			h.finish(OutcomeTimeout)
			return
		case <-wait.C:
		}
	}
}

func (h *Handle) finish(o Outcome) {
	h.outcome <- o
	close(h.outcome)
}
