// Package cache memoizes successful GET responses for a short window so
// repeated lookups within one run do not hit the platforms again.
package cache

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// DefaultTTL is how long a memoized response stays fresh.
const DefaultTTL = 5 * time.Minute

// Entry is a stored response.
type Entry struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	StoredAt   time.Time
}

// Store is a response memo. Get reports a miss for expired entries.
type Store interface {
	Get(key string) (Entry, bool, error)
	Set(key string, entry Entry) error
	Clear() (int64, error)
	Close() error
}

// Key identifies a request by method, URL, query parameters and body.
// Parameters are encoded in sorted order so equivalent requests collide.
func Key(method, rawURL string, params url.Values, body []byte) string {
	return fmt.Sprintf("%s:%s:%s:%s", method, rawURL, params.Encode(), body)
}

func expired(e Entry, ttl time.Duration, now time.Time) bool {
	return ttl > 0 && now.Sub(e.StoredAt) > ttl
}
