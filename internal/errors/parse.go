package errors

import (
	stdErrors "errors"
	"fmt"
)

// ParseError means a response arrived but did not have the expected shape.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError wraps err with the name of what was being parsed.
func NewParseError(source string, err error) *ParseError {
	return &ParseError{Source: source, Err: err}
}

// IsParseError checks if error is a ParseError
func IsParseError(err error) bool {
	var parseErr *ParseError
	return stdErrors.As(err, &parseErr)
}

// NotFoundError means a platform answered but had no matching entry.
type NotFoundError struct {
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no results for %q", e.Query)
}

// NewNotFoundError creates a NotFoundError for query.
func NewNotFoundError(query string) *NotFoundError {
	return &NotFoundError{Query: query}
}

// IsNotFoundError checks if error is a NotFoundError
func IsNotFoundError(err error) bool {
	var notFoundErr *NotFoundError
	return stdErrors.As(err, &notFoundErr)
}
