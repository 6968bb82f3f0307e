package slack

import (
	"errors"
	"net"
	"time"

	"github.com/askloop/askloop/pkg/utils/retry"
	"github.com/slack-go/slack"
)

// RetryAfter extracts the server-provided wait from a rate-limit response.
// Slack carries it as a field, not a Retry-After accessor, so the retry
// package cannot discover it on its own.
func RetryAfter(err error) (time.Duration, bool) {
	var rle *slack.RateLimitedError
	if errors.As(err, &rle) && rle.RetryAfter > 0 {
		return rle.RetryAfter, true
	}
	return 0, false
}

// IsRetriable reports whether a Slack API failure is worth another attempt.
// Rate limits and 5xx responses are transient; auth and argument errors are
// permanent and repeating them just burns quota.
func IsRetriable(err error) bool {
	var rle *slack.RateLimitedError
	if errors.As(err, &rle) {
		return true
	}

	var sce slack.StatusCodeError
	if errors.As(err, &sce) {
		return sce.Code >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}

// RetryOptions is the retry policy for Slack API calls
func RetryOptions() []retry.Option {
	return []retry.Option{
		retry.WithRetriable(IsRetriable),
		retry.WithDelayHint(RetryAfter),
	}
}
