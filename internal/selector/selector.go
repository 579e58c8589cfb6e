// Package selector picks the first search candidate whose release year
// falls inside the configured window.
package selector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lepinkainen/ratingsync/internal/model"
)

// DefaultMaxAttempts bounds how many candidates are inspected.
const DefaultMaxAttempts = 5

// YearFunc determines a candidate's release year. A zero year or an error
// means the year could not be determined and the candidate is skipped.
type YearFunc[C any] func(ctx context.Context, candidate C) (int, error)

// Select walks candidates in order and returns the first whose year is in
// window, along with its index. At most maxAttempts candidates are
// inspected; the rest are never looked at.
func Select[C any](ctx context.Context, candidates []C, yearOf YearFunc[C], window model.YearWindow, maxAttempts int) (C, int, bool) {
	var zero C
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	for i, c := range candidates {
		if i >= maxAttempts {
			break
		}
		if ctx.Err() != nil {
			return zero, -1, false
		}

		year, err := yearOf(ctx, c)
		switch {
		case err != nil:
			slog.Warn("Could not determine candidate year", "candidate", label(c), "attempt", i+1, "error", err)
		case year <= 0:
			slog.Debug("Candidate has no release year", "candidate", label(c), "attempt", i+1)
		case window.Contains(year):
			slog.Info("Accepted candidate", "candidate", label(c), "year", year, "window", window.String())
			return c, i, true
		default:
			slog.Debug("Rejected candidate outside year window", "candidate", label(c), "year", year, "window", window.String())
		}
	}

	slog.Info("No candidate inside year window",
		"candidates", len(candidates),
		"inspected", min(len(candidates), maxAttempts),
		"window", window.String())
	return zero, -1, false
}

func label(c any) string {
	if s, ok := c.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(c)
}
