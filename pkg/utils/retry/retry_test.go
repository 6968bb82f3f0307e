package retry_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/askloop/askloop/pkg/utils/retry"
)

type transientErr struct{}

func (transientErr) Error() string       { return "server exploded" }
func (transientErr) HTTPStatusCode() int { return 503 }

type rateLimitedErr struct {
	after time.Duration
}

func (e rateLimitedErr) Error() string             { return "rate limited" }
func (e rateLimitedErr) RetryAfter() time.Duration { return e.after }

func TestDo(t *testing.T) {
	t.Run("succeeds after transient failures with growing delay", func(t *testing.T) {
		calls := 0
		start := time.Now()
		err := retry.Do(context.Background(), func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return transientErr{}
			}
			return nil
		},
			retry.WithInitialDelay(20*time.Millisecond),
			retry.WithMultiplier(2.0),
		)
		gt.NoError(t, err)
		gt.Value(t, calls).Equal(3)
		// initialDelay + initialDelay*multiplier
		gt.Bool(t, time.Since(start) >= 60*time.Millisecond).True()
	})

	t.Run("permanent error is attempted exactly once", func(t *testing.T) {
		calls := 0
		permanent := goerr.New("invalid_auth")
		err := retry.Do(context.Background(), func(ctx context.Context) error {
			calls++
			return permanent
		}, retry.WithInitialDelay(time.Millisecond))
		gt.Value(t, calls).Equal(1)
		gt.Value(t, err).Equal(permanent)
	})

	t.Run("exhaustion returns the last error unchanged", func(t *testing.T) {
		err := retry.Do(context.Background(), func(ctx context.Context) error {
			return transientErr{}
		},
			retry.WithMaxAttempts(2),
			retry.WithInitialDelay(time.Millisecond),
		)
		gt.Value(t, err).Equal(transientErr{})
	})

	t.Run("server hint takes precedence over computed backoff", func(t *testing.T) {
		calls := 0
		start := time.Now()
		err := retry.Do(context.Background(), func(ctx context.Context) error {
			calls++
			if calls == 1 {
				return rateLimitedErr{after: 50 * time.Millisecond}
			}
			return nil
		}, retry.WithInitialDelay(time.Millisecond))
		gt.NoError(t, err)
		gt.Bool(t, time.Since(start) >= 50*time.Millisecond).True()
	})

	t.Run("custom retriable classification is honored", func(t *testing.T) {
		calls := 0
		err := retry.Do(context.Background(), func(ctx context.Context) error {
			calls++
			return transientErr{}
		},
			retry.WithMaxAttempts(5),
			retry.WithInitialDelay(time.Millisecond),
			retry.WithRetriable(func(error) bool { return false }),
		)
		gt.Error(t, err)
		gt.Value(t, calls).Equal(1)
	})

	t.Run("context cancellation stops waiting", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		err := retry.Do(ctx, func(ctx context.Context) error {
			return transientErr{}
		}, retry.WithInitialDelay(time.Second))
		gt.Value(t, err).Equal(context.DeadlineExceeded)
	})
}

func TestDoValue(t *testing.T) {
	calls := 0
	got, err := retry.DoValue(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", transientErr{}
		}
		return "done", nil
	}, retry.WithInitialDelay(time.Millisecond))
	gt.NoError(t, err)
	gt.Value(t, got).Equal("done")
}

func TestDefaultRetriable(t *testing.T) {
	gt.Bool(t, retry.DefaultRetriable(nil)).False()
	gt.Bool(t, retry.DefaultRetriable(transientErr{})).True()
	gt.Bool(t, retry.DefaultRetriable(rateLimitedErr{after: time.Second})).True()
	gt.Bool(t, retry.DefaultRetriable(goerr.New("user_not_found"))).False()

	// Wrapped errors are still classified by the underlying cause
	gt.Bool(t, retry.DefaultRetriable(goerr.Wrap(transientErr{}, "call failed"))).True()
}
