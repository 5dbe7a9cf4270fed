// Package retry provides a bounded retry-with-backoff executor for the
// Mentora API.
//
// Every call to an unreliable external system (meeting provider, calendar
// provider) goes through this package with a shared policy, so the attempt
// count and delay schedule live in one place.
//
// # Usage
//
// Wrap an operation with a policy:
//
//	result, err := retry.Do(ctx, func(ctx context.Context) (string, error) {
//	    return provider.CreateMeeting(ctx, req)
//	}, retry.DefaultPolicy, logger)
//
// # Backoff
//
// Delays grow exponentially from the initial delay: attempt n waits
// InitialDelay * 2^(n-1) before running. With the default policy (3
// attempts, 1s initial delay) a fully failing operation runs at 0s, 1s
// and 3s, then returns the last error.
//
// # Cancellation
//
// The backoff sleep honors context cancellation; a cancelled context
// returns ctx.Err() without running further attempts.
package retry
