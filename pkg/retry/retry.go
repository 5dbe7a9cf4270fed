package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Policy fixes the attempt bound and the backoff schedule
type Policy struct {
	MaxAttempts  int           // total attempts, including the first
	InitialDelay time.Duration // delay before the second attempt; doubles per attempt
}

// DefaultPolicy matches every provider call in the provisioning workflow
var DefaultPolicy = Policy{
	MaxAttempts:  3,
	InitialDelay: time.Second,
}

var errNoAttempts = errors.New("retry: policy allows no attempts")

// Do executes op until it succeeds or the policy's attempt bound is
// exhausted, sleeping InitialDelay * 2^(attempt-1) between attempts. On
// exhaustion the last error is returned. Each retry is logged.
func Do[T any](ctx context.Context, op func(ctx context.Context) (T, error), policy Policy, logger *slog.Logger) (T, error) {
	var zero T
	if policy.MaxAttempts < 1 {
		return zero, errNoAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}

	var lastErr error
	delay := policy.InitialDelay

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			logger.Warn("retrying operation",
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", policy.MaxAttempts),
				slog.Duration("waited", delay),
				slog.String("error", lastErr.Error()),
			)
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == policy.MaxAttempts {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
		delay *= 2
	}

	return zero, lastErr
}

// DoVoid is Do for operations without a result value
func DoVoid(ctx context.Context, op func(ctx context.Context) error, policy Policy, logger *slog.Logger) error {
	_, err := Do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, policy, logger)
	return err
}
