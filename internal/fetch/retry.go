package fetch

import (
	"context"
	stdErrors "errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lepinkainen/ratingsync/internal/errors"
)

func isRetryable(err error) bool {
	var rateLimitErr *errors.RateLimitError
	if stdErrors.As(err, &rateLimitErr) {
		return true
	}
	var statusErr *errors.HTTPStatusError
	if stdErrors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	if stdErrors.Is(err, context.Canceled) {
		return false
	}
	// Timeouts, connection resets and truncated bodies.
	return true
}

func isTimeout(err error) bool {
	var urlErr *url.Error
	if stdErrors.As(err, &urlErr) {
		return urlErr.Timeout()
	}
	return stdErrors.Is(err, context.DeadlineExceeded)
}

// backoffDelay doubles from the base delay on each attempt. A server
// Retry-After hint replaces the computed delay.
func (f *Fetcher) backoffDelay(err error, attempt int) time.Duration {
	var rateLimitErr *errors.RateLimitError
	if stdErrors.As(err, &rateLimitErr) && rateLimitErr.RetryAfter > 0 {
		return rateLimitErr.RetryAfter
	}

	base := f.baseDelay
	if isTimeout(err) {
		base = f.timeoutDelay
	}

	delay := base << uint(attempt-1)
	if delay > f.maxDelay || delay <= 0 {
		return f.maxDelay
	}
	return delay
}

// parseRetryAfter accepts either delta-seconds or an HTTP date.
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
