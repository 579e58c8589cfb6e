package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// HTTPStatusError is a non-2xx answer other than 429.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

// NewHTTPStatusError creates an HTTPStatusError for url.
func NewHTTPStatusError(url string, statusCode int) *HTTPStatusError {
	return &HTTPStatusError{URL: url, StatusCode: statusCode}
}

// Temporary reports whether the server may succeed on a later attempt.
func (e *HTTPStatusError) Temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError
}

// IsHTTPStatusError checks if error is an HTTPStatusError
func IsHTTPStatusError(err error) bool {
	var statusErr *HTTPStatusError
	return stdErrors.As(err, &statusErr)
}
