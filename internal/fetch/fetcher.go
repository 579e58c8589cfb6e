// Package fetch performs platform HTTP requests with pacing, bounded
// retries and a short-lived response memo.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/lepinkainen/ratingsync/internal/cache"
	"github.com/lepinkainen/ratingsync/internal/errors"
	"github.com/lepinkainen/ratingsync/internal/ratelimit"
	"golang.org/x/sync/singleflight"
)

const (
	defaultAttempts     = 3
	defaultBaseDelay    = 5 * time.Second
	defaultTimeoutDelay = 10 * time.Second
	defaultMaxDelay     = 60 * time.Second
	maxBodyBytes        = 10 << 20
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Doer is what the extractors depend on.
type Doer interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// Request describes one logical request. Body is JSON-encoded when set.
type Request struct {
	Method  string
	URL     string
	Params  url.Values
	Body    any
	Headers http.Header
	Kind    Kind
	// Limiter names the rate limiter to wait on, usually the platform.
	Limiter string
}

// Fetcher executes requests. It is safe for concurrent use.
type Fetcher struct {
	httpClient   HTTPDoer
	limiters     *ratelimit.Registry
	memo         cache.Store
	group        singleflight.Group
	attempts     int
	baseDelay    time.Duration
	timeoutDelay time.Duration
	maxDelay     time.Duration
	sleep        func(context.Context, time.Duration) error
	ua           *uaPool
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient:   &http.Client{Timeout: defaultTimeout},
		attempts:     defaultAttempts,
		baseDelay:    defaultBaseDelay,
		timeoutDelay: defaultTimeoutDelay,
		maxDelay:     defaultMaxDelay,
		sleep:        sleepContext,
		ua:           newUAPool(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Option is a functional option for configuring the Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c HTTPDoer) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.httpClient = c
		}
	}
}

// WithRateLimiters sets the per-platform limiters.
func WithRateLimiters(r *ratelimit.Registry) Option {
	return func(f *Fetcher) {
		f.limiters = r
	}
}

// WithMemo enables memoization of GET responses.
func WithMemo(store cache.Store) Option {
	return func(f *Fetcher) {
		f.memo = store
	}
}

// WithAttempts sets the total number of attempts per request.
func WithAttempts(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.attempts = n
		}
	}
}

// WithBaseDelay sets the first backoff step. Timeouts back off from twice
// this value.
func WithBaseDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.baseDelay = d
			f.timeoutDelay = 2 * d
		}
	}
}

// WithMaxDelay caps a single backoff.
func WithMaxDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.maxDelay = d
		}
	}
}

// WithSleep replaces the backoff sleep, mainly for tests.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(f *Fetcher) {
		if sleep != nil {
			f.sleep = sleep
		}
	}
}

// Do executes req. It returns a Response only for 2xx answers; every other
// outcome is a *errors.FetchError wrapping the last failure.
func (f *Fetcher) Do(ctx context.Context, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	target, err := buildURL(req.URL, req.Params)
	if err != nil {
		return nil, errors.NewFetchError(req.URL, 0, err)
	}

	var body []byte
	if req.Body != nil {
		body, err = json.Marshal(req.Body)
		if err != nil {
			return nil, errors.NewFetchError(target, 0, fmt.Errorf("encode request body: %w", err))
		}
	}

	if method != http.MethodGet || f.memo == nil {
		return f.doWithRetry(ctx, method, target, body, req)
	}

	key := cache.Key(method, req.URL, req.Params, body)
	if entry, ok, err := f.memo.Get(key); err != nil {
		slog.Warn("Cache lookup failed", "url", target, "error", err)
	} else if ok {
		slog.Debug("Cache hit", "url", target)
		return &Response{
			URL:        target,
			StatusCode: entry.StatusCode,
			Header:     entry.Header,
			Body:       entry.Body,
			FromCache:  true,
		}, nil
	}

	v, err, _ := f.group.Do(key, func() (any, error) {
		resp, err := f.doWithRetry(ctx, method, target, body, req)
		if err != nil {
			return nil, err
		}
		if err := f.memo.Set(key, cache.Entry{StatusCode: resp.StatusCode, Header: resp.Header, Body: resp.Body}); err != nil {
			slog.Warn("Failed to cache response", "url", target, "error", err)
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	resp := *v.(*Response)
	return &resp, nil
}

func (f *Fetcher) doWithRetry(ctx context.Context, method, target string, body []byte, req Request) (*Response, error) {
	var lastErr error
	for attempt := 1; attempt <= f.attempts; attempt++ {
		if err := f.limiters.Wait(ctx, req.Limiter); err != nil {
			return nil, errors.NewFetchError(target, attempt-1, err)
		}

		resp, err := f.doRequest(ctx, method, target, body, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil || !isRetryable(err) {
			return nil, errors.NewFetchError(target, attempt, err)
		}
		if attempt == f.attempts {
			break
		}

		delay := f.backoffDelay(err, attempt)
		slog.Warn("Request failed, retrying",
			"url", target,
			"attempt", attempt,
			"max_attempts", f.attempts,
			"delay", delay,
			"error", err)
		if err := f.sleep(ctx, delay); err != nil {
			return nil, errors.NewFetchError(target, attempt, err)
		}
	}

	slog.Error("Request failed after all attempts", "url", target, "attempts", f.attempts, "error", lastErr)
	return nil, errors.NewFetchError(target, f.attempts, lastErr)
}

func (f *Fetcher) doRequest(ctx context.Context, method, target string, body []byte, req Request) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	httpReq.Header = defaultHeaders(req.Kind, f.ua.random())
	for name, values := range req.Headers {
		httpReq.Header[http.CanonicalHeaderKey(name)] = values
	}

	start := time.Now()
	resp, err := f.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	slog.Debug("HTTP response", "method", method, "url", target, "status", resp.StatusCode, "elapsed", time.Since(start))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
		return nil, errors.NewRateLimitErrorWithRetry(fmt.Sprintf("rate limited by %s", httpReq.URL.Host), retryAfter)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, errors.NewHTTPStatusError(target, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &Response{
		URL:        target,
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       data,
	}, nil
}

func buildURL(raw string, params url.Values) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid URL %q", raw)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
