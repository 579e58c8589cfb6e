package errors

import (
	stdErrors "errors"
	"net/http"

	"github.com/lepinkainen/ratingsync/internal/model"
)

// Classify maps an extraction failure onto the status reported for it.
func Classify(err error) model.Status {
	if err == nil {
		return model.StatusResolved
	}

	var statusErr *HTTPStatusError
	switch {
	case IsNotFoundError(err):
		return model.StatusNotFound
	case stdErrors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound:
		return model.StatusNotFound
	case IsParseError(err), stdErrors.Is(err, model.ErrIncomplete):
		return model.StatusParseFailed
	default:
		return model.StatusTransportFailed
	}
}
