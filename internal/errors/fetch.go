package errors

import (
	stdErrors "errors"
	"fmt"
)

// FetchError is returned once every attempt for a request has failed, or
// when a failure is not worth retrying.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError wraps the last failure seen for url.
func NewFetchError(url string, attempts int, err error) *FetchError {
	return &FetchError{URL: url, Attempts: attempts, Err: err}
}

// IsFetchError checks if error is a FetchError
func IsFetchError(err error) bool {
	var fetchErr *FetchError
	return stdErrors.As(err, &fetchErr)
}
