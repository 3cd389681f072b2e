// Package retry wraps fallible operations with bounded
// exponential-backoff retries.
package retry

import (
	"context"
	"log/slog"
	"time"
)

type Options struct {
	Attempts int           // total attempts, including the first
	Delay    time.Duration // delay before the second attempt
	Backoff  float64       // delay multiplier applied after each attempt
	// RetryIf selects which failures are worth retrying. A nil RetryIf
	// retries everything. Failures it rejects propagate immediately.
	RetryIf func(error) bool
}

func DefaultOptions() Options {
	return Options{
		Attempts: 3,
		Delay:    time.Second,
		Backoff:  2.0,
	}
}

// Do runs op until it succeeds, the attempt budget is spent, or ctx is
// done. The error from the last attempt is returned unchanged so callers
// can still match it with errors.Is.
func Do(ctx context.Context, op func(context.Context) error, opts Options) error {
	if opts.Attempts <= 0 {
		opts.Attempts = 1
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 1.0
	}

	var lastErr error
	delay := opts.Delay

	for attempt := 1; attempt <= opts.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if opts.RetryIf != nil && !opts.RetryIf(lastErr) {
			return lastErr
		}

		slog.Warn("attempt failed",
			"attempt", attempt,
			"max_attempts", opts.Attempts,
			"error", lastErr,
		)

		if attempt == opts.Attempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay = time.Duration(float64(delay) * opts.Backoff)
	}

	return lastErr
}
