package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/lepinkainen/ratingsync/internal/model"
)

func TestRateLimitError(t *testing.T) {
	err := NewRateLimitError("slow down")

	if err.Error() != "slow down" {
		t.Fatalf("Error message = %q, want %q", err.Error(), "slow down")
	}

	if !IsRateLimitError(err) {
		t.Fatalf("IsRateLimitError returned false for RateLimitError")
	}

	wrapped := stdErrors.Join(err)
	if !IsRateLimitError(wrapped) {
		t.Fatalf("IsRateLimitError returned false for wrapped RateLimitError")
	}
}

func TestRateLimitErrorWithRetry(t *testing.T) {
	tests := []struct {
		name            string
		duration        time.Duration
		expectedMessage string
	}{
		{name: "zero", duration: 0, expectedMessage: "rate limited"},
		{name: "30 seconds", duration: 30 * time.Second, expectedMessage: "rate limited (retry after 30s)"},
		{name: "2 minutes", duration: 2 * time.Minute, expectedMessage: "rate limited (retry after 2m0s)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRateLimitErrorWithRetry("rate limited", tt.duration)
			if err.Error() != tt.expectedMessage {
				t.Fatalf("Error message = %q, want %q", err.Error(), tt.expectedMessage)
			}
			if err.RetryAfter != tt.duration {
				t.Fatalf("RetryAfter = %v, want %v", err.RetryAfter, tt.duration)
			}
		})
	}
}

func TestStopProcessingError(t *testing.T) {
	err := NewStopProcessingError("interrupted", 3)

	if err.Error() != "interrupted" {
		t.Fatalf("Error message = %q, want %q", err.Error(), "interrupted")
	}

	wrapped := fmt.Errorf("run: %w", err)
	if !IsStopProcessingError(wrapped) {
		t.Fatalf("IsStopProcessingError returned false for wrapped StopProcessingError")
	}
}

func TestHTTPStatusError(t *testing.T) {
	err := NewHTTPStatusError("https://example.com", 503)

	if err.Error() != "HTTP 503 from https://example.com" {
		t.Fatalf("Error message = %q", err.Error())
	}
	if !err.Temporary() {
		t.Fatalf("503 should be temporary")
	}
	if NewHTTPStatusError("https://example.com", 403).Temporary() {
		t.Fatalf("403 should not be temporary")
	}
	if !IsHTTPStatusError(NewFetchError("https://example.com", 3, err)) {
		t.Fatalf("IsHTTPStatusError returned false through FetchError")
	}
}

func TestFetchErrorUnwraps(t *testing.T) {
	cause := NewRateLimitErrorWithRetry("too many requests", time.Second)
	err := NewFetchError("https://api.bgm.tv", 3, cause)

	if !IsFetchError(err) || !IsRateLimitError(err) {
		t.Fatalf("FetchError should expose its cause")
	}
	if got := err.Error(); got != "fetch https://api.bgm.tv failed after 3 attempt(s): too many requests (retry after 1s)" {
		t.Fatalf("Error message = %q", got)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want model.Status
	}{
		{name: "nil", err: nil, want: model.StatusResolved},
		{name: "not found", err: NewNotFoundError("frieren"), want: model.StatusNotFound},
		{name: "http 404", err: NewFetchError("u", 1, NewHTTPStatusError("u", 404)), want: model.StatusNotFound},
		{name: "http 403", err: NewFetchError("u", 1, NewHTTPStatusError("u", 403)), want: model.StatusTransportFailed},
		{name: "parse", err: fmt.Errorf("details: %w", NewParseError("anilist", stdErrors.New("bad json"))), want: model.StatusParseFailed},
		{name: "incomplete", err: model.ErrIncomplete, want: model.StatusParseFailed},
		{name: "rate limit", err: NewFetchError("u", 3, NewRateLimitError("429")), want: model.StatusTransportFailed},
		{name: "other", err: stdErrors.New("connection reset"), want: model.StatusTransportFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Fatalf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}
