package output

import (
	"log/slog"

	"github.com/lepinkainen/ratingsync/internal/reconcile"
)

// LogLedger prints the end-of-run date error summary.
func LogLedger(entries []reconcile.Entry) {
	if len(entries) == 0 {
		slog.Info("All release dates consistent")
		return
	}
	slog.Warn("Release date mismatches", "count", len(entries))
	for _, e := range entries {
		slog.Warn("Date mismatch", "title", e.Title, "error", e.Diagnostic)
	}
}

// LogRecords prints one summary line per title.
func LogRecords(doc Document) {
	for _, rec := range doc.Records {
		attrs := []any{"title", rec.Title, "dates", rec.DateCheck}
		for _, pv := range rec.Platforms {
			attrs = append(attrs, pv.Platform, pv.Score)
		}
		slog.Info("Title processed", attrs...)
	}
}
