package errors

import "errors"

// StopProcessingError signals that a run was interrupted before every
// title was processed. Records gathered so far are still valid.
type StopProcessingError struct {
	Reason    string
	Processed int
}

func (e *StopProcessingError) Error() string {
	return e.Reason
}

// NewStopProcessingError creates a StopProcessingError with the provided reason.
func NewStopProcessingError(reason string, processed int) *StopProcessingError {
	return &StopProcessingError{Reason: reason, Processed: processed}
}

// IsStopProcessingError reports whether err is a StopProcessingError (even when wrapped).
func IsStopProcessingError(err error) bool {
	var stopErr *StopProcessingError
	return errors.As(err, &stopErr)
}
