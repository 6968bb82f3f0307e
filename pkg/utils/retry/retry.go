package retry

import (
	"context"
	"errors"
	"math"
	"net"
	"time"
)

const (
	defaultMaxAttempts  = 3
	defaultInitialDelay = 500 * time.Millisecond
	defaultMaxDelay     = 30 * time.Second
	defaultMultiplier   = 2.0
)

// AfterHinter is implemented by errors carrying a server-provided wait hint,
// e.g. a rate-limit response telling the client when to retry. A hint always
// takes precedence over the computed backoff delay.
type AfterHinter interface {
	RetryAfter() time.Duration
}

type config struct {
	maxAttempts  int
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
	retriable    func(error) bool
	delayHint    func(error) (time.Duration, bool)
}

// Option is a functional option for retry configuration
type Option func(*config)

// WithMaxAttempts sets the total number of attempts (including the first call)
func WithMaxAttempts(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithInitialDelay sets the delay before the first retry
func WithInitialDelay(d time.Duration) Option {
	return func(c *config) {
		c.initialDelay = d
	}
}

// WithMaxDelay caps the computed backoff delay
func WithMaxDelay(d time.Duration) Option {
	return func(c *config) {
		c.maxDelay = d
	}
}

// WithMultiplier sets the geometric growth factor of the backoff delay
func WithMultiplier(m float64) Option {
	return func(c *config) {
		if m >= 1 {
			c.multiplier = m
		}
	}
}

// WithRetriable overrides the default error classification
func WithRetriable(fn func(error) bool) Option {
	return func(c *config) {
		c.retriable = fn
	}
}

// WithDelayHint overrides how a server-provided wait hint is extracted from an
// error. The default recognizes errors implementing AfterHinter.
func WithDelayHint(fn func(error) (time.Duration, bool)) Option {
	return func(c *config) {
		c.delayHint = fn
	}
}

func newConfig(opts []Option) *config {
	c := &config{
		maxAttempts:  defaultMaxAttempts,
		initialDelay: defaultInitialDelay,
		maxDelay:     defaultMaxDelay,
		multiplier:   defaultMultiplier,
		retriable:    DefaultRetriable,
		delayHint:    defaultDelayHint,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// backoff returns the computed delay before retrying after the given attempt
// (1-origin): initialDelay x multiplier^(attempt-1), capped at maxDelay.
func (c *config) backoff(attempt int) time.Duration {
	d := time.Duration(float64(c.initialDelay) * math.Pow(c.multiplier, float64(attempt-1)))
	if d > c.maxDelay || d < 0 {
		return c.maxDelay
	}
	return d
}

// Do calls fn until it succeeds, returns a non-retriable error, or attempts are
// exhausted. On exhaustion the last error is returned unchanged so the caller
// can still inspect the original cause.
func Do(ctx context.Context, fn func(ctx context.Context) error, opts ...Option) error {
	cfg := newConfig(opts)

	var lastErr error
	for attempt := 1; attempt <= cfg.maxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !cfg.retriable(lastErr) {
			return lastErr
		}
		if attempt == cfg.maxAttempts {
			break
		}

		delay := cfg.backoff(attempt)
		if cfg.delayHint != nil {
			if hint, ok := cfg.delayHint(lastErr); ok {
				delay = hint
			}
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

// DoValue is Do for operations returning a value.
func DoValue[T any](ctx context.Context, fn func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	var result T
	err := Do(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	}, opts...)
	return result, err
}

type statusCoder interface {
	HTTPStatusCode() int
}

type temporary interface {
	Temporary() bool
}

// DefaultRetriable classifies server-side failures (5xx), rate limiting, and
// transport-level timeouts as retriable. Authentication failures, not-found,
// and malformed requests fall through as permanent.
func DefaultRetriable(err error) bool {
	if err == nil {
		return false
	}

	var hinter AfterHinter
	if errors.As(err, &hinter) {
		return true
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		code := sc.HTTPStatusCode()
		return code >= 500 || code == 429
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var tmp temporary
	if errors.As(err, &tmp) && tmp.Temporary() {
		return true
	}

	return false
}

func defaultDelayHint(err error) (time.Duration, bool) {
	var hinter AfterHinter
	if errors.As(err, &hinter) {
		return hinter.RetryAfter(), true
	}
	return 0, false
}
