package fetch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lepinkainen/ratingsync/internal/cache"
	"github.com/lepinkainen/ratingsync/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func newTestFetcher(rec *sleepRecorder, opts ...Option) *Fetcher {
	base := []Option{WithSleep(rec.sleep)}
	return New(append(base, opts...)...)
}

func TestDoReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "frieren", r.URL.Query().Get("q"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		assert.Contains(t, r.Header.Get("Accept"), "text/html")
		_, _ = io.WriteString(w, "<html></html>")
	}))
	defer srv.Close()

	f := newTestFetcher(&sleepRecorder{})
	resp, err := f.Do(context.Background(), Request{URL: srv.URL, Params: url.Values{"q": {"frieren"}}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<html></html>", string(resp.Body))
	assert.False(t, resp.FromCache)
}

func TestDoPostsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"keyword":"frieren"}`, string(body))
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	f := newTestFetcher(&sleepRecorder{})
	resp, err := f.Do(context.Background(), Request{
		Method: http.MethodPost,
		URL:    srv.URL,
		Body:   map[string]string{"keyword": "frieren"},
		Kind:   KindJSON,
	})
	require.NoError(t, err)

	var decoded struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, resp.JSON(&decoded))
	assert.True(t, decoded.OK)
}

func TestDoRetriesServerErrorsWithBackoff(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	rec := &sleepRecorder{}
	f := newTestFetcher(rec)
	resp, err := f.Do(context.Background(), Request{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp.Body))
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second}, rec.delays)
}

func TestDoHonoursRetryAfter(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	rec := &sleepRecorder{}
	f := newTestFetcher(rec)
	_, err := f.Do(context.Background(), Request{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{7 * time.Second}, rec.delays)
}

func TestDoGivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	rec := &sleepRecorder{}
	f := newTestFetcher(rec)
	_, err := f.Do(context.Background(), Request{URL: srv.URL})
	require.Error(t, err)
	assert.True(t, errors.IsFetchError(err))
	assert.True(t, errors.IsRateLimitError(err))
	assert.Equal(t, int32(3), calls.Load())
	assert.Len(t, rec.delays, 2)
}

func TestDoDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	rec := &sleepRecorder{}
	f := newTestFetcher(rec)
	_, err := f.Do(context.Background(), Request{URL: srv.URL})
	require.Error(t, err)
	assert.True(t, errors.IsHTTPStatusError(err))
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, rec.delays)
}

func TestDoRetriesTransportErrors(t *testing.T) {
	var calls atomic.Int32
	doer := doerFunc(func(r *http.Request) (*http.Response, error) {
		calls.Add(1)
		return nil, &url.Error{Op: "Get", URL: r.URL.String(), Err: io.ErrUnexpectedEOF}
	})

	rec := &sleepRecorder{}
	f := newTestFetcher(rec, WithHTTPClient(doer), WithAttempts(2))
	_, err := f.Do(context.Background(), Request{URL: "https://example.invalid/x"})
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, []time.Duration{5 * time.Second}, rec.delays)
}

func TestDoStopsWhenContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	f := New(WithSleep(func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}))

	_, err := f.Do(ctx, Request{URL: srv.URL})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDoMemoizesGET(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, "page")
	}))
	defer srv.Close()

	f := newTestFetcher(&sleepRecorder{}, WithMemo(cache.NewMemoryStore(time.Minute)))
	req := Request{URL: srv.URL, Params: url.Values{"q": {"x"}}}

	first, err := f.Do(context.Background(), req)
	require.NoError(t, err)
	second, err := f.Do(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, first.FromCache)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Body, second.Body)
}

func TestDoNeverMemoizesPOST(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, "{}")
	}))
	defer srv.Close()

	f := newTestFetcher(&sleepRecorder{}, WithMemo(cache.NewMemoryStore(time.Minute)))
	req := Request{Method: http.MethodPost, URL: srv.URL, Body: map[string]int{"a": 1}}

	for range 2 {
		_, err := f.Do(context.Background(), req)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestDoRejectsInvalidURL(t *testing.T) {
	f := New()
	_, err := f.Do(context.Background(), Request{URL: "not a url"})
	require.Error(t, err)
	assert.True(t, errors.IsFetchError(err))
}

func TestBackoffDelay(t *testing.T) {
	f := New()

	assert.Equal(t, 5*time.Second, f.backoffDelay(errors.NewHTTPStatusError("u", 500), 1))
	assert.Equal(t, 20*time.Second, f.backoffDelay(errors.NewHTTPStatusError("u", 500), 3))
	assert.Equal(t, 20*time.Second, f.backoffDelay(&url.Error{Err: timeoutErr{}}, 2))
	assert.Equal(t, 60*time.Second, f.backoffDelay(errors.NewHTTPStatusError("u", 500), 10))
	assert.Equal(t, 3*time.Second, f.backoffDelay(errors.NewRateLimitErrorWithRetry("x", 3*time.Second), 1))
	assert.Equal(t, 5*time.Second, f.backoffDelay(errors.NewRateLimitError("x"), 1))
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 30*time.Second, parseRetryAfter("30", now))
	assert.Equal(t, time.Duration(0), parseRetryAfter("", now))
	assert.Equal(t, time.Duration(0), parseRetryAfter("soon", now))
	assert.Equal(t, 90*time.Second, parseRetryAfter(now.Add(90*time.Second).Format(http.TimeFormat), now))
}

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(r *http.Request) (*http.Response, error) { return f(r) }

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }
