package workflow

import (
	"context"
	"time"

	"subseek/internal/services"
)

// RetryPolicy bounds how often an element-resolving edge is re-attempted
// before the edge is declared failed.
type RetryPolicy struct {
	MaxAttempts       int
	PerAttemptTimeout time.Duration
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 2
	}
	if p.PerAttemptTimeout <= 0 {
		p.PerAttemptTimeout = 5 * time.Second
	}
	return p
}

// run executes op up to MaxAttempts times, each under its own timeout.
// Fatal errors and context cancellation end the loop immediately; any
// other failure is retried until attempts run out, and the last error is
// returned for the edge to classify.
func (p RetryPolicy) run(ctx context.Context, op func(context.Context) error) error {
	p = p.normalized()
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, p.PerAttemptTimeout)
		lastErr = op(attemptCtx)
		cancel()
		if lastErr == nil {
			return nil
		}
		if services.IsFatal(lastErr) || ctx.Err() != nil {
			return lastErr
		}
	}
	return lastErr
}
