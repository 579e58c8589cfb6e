// Package pipeline runs titles through aggregation and date reconciliation.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lepinkainen/ratingsync/internal/aggregate"
	"github.com/lepinkainen/ratingsync/internal/errors"
	"github.com/lepinkainen/ratingsync/internal/model"
	"github.com/lepinkainen/ratingsync/internal/reconcile"
)

// DefaultPause separates consecutive titles.
const DefaultPause = 100 * time.Millisecond

// Aggregator resolves one title across every platform.
type Aggregator interface {
	Run(ctx context.Context, title model.Title) aggregate.Outcome
}

// Record is the final output for one title.
type Record struct {
	Title     model.Title
	Results   map[model.Platform]model.Result
	Fallbacks map[model.Platform]aggregate.Fallback
	Report    reconcile.Report
}

// Ordered returns the results in platform reporting order. Missing
// platforms are reported as transport failures.
func (r Record) Ordered() []model.Result {
	out := make([]model.Result, 0, len(model.Platforms()))
	for _, p := range model.Platforms() {
		res, ok := r.Results[p]
		if !ok {
			res = model.Failed(p, model.StatusTransportFailed, fmt.Errorf("no result"))
		}
		out = append(out, res)
	}
	return out
}

// Runner processes titles one at a time.
type Runner struct {
	aggregator Aggregator
	ledger     *reconcile.Ledger
	window     model.YearWindow
	pause      time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option configures a Runner.
type Option func(*Runner)

// WithPause overrides the delay between titles.
func WithPause(d time.Duration) Option {
	return func(r *Runner) {
		if d >= 0 {
			r.pause = d
		}
	}
}

// WithSleep overrides how the runner waits between titles.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Runner) {
		if sleep != nil {
			r.sleep = sleep
		}
	}
}

// NewRunner creates a runner that records date diagnostics into ledger.
func NewRunner(agg Aggregator, ledger *reconcile.Ledger, window model.YearWindow, opts ...Option) *Runner {
	if ledger == nil {
		ledger = reconcile.NewLedger()
	}
	r := &Runner{
		aggregator: agg,
		ledger:     ledger,
		window:     window,
		pause:      DefaultPause,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ledger returns the ledger the runner appends to.
func (r *Runner) Ledger() *reconcile.Ledger {
	return r.ledger
}

// Process runs every title sequentially. When ctx ends mid-run the records
// gathered so far are returned with a StopProcessingError.
func (r *Runner) Process(ctx context.Context, titles []model.Title) ([]Record, error) {
	slog.Info("Processing titles", "count", len(titles), "window", r.window.String())

	records := make([]Record, 0, len(titles))
	for i, title := range titles {
		if err := ctx.Err(); err != nil {
			return records, interrupted(err, len(records))
		}

		records = append(records, r.ProcessOne(ctx, title))

		if i < len(titles)-1 && r.pause > 0 {
			if err := r.sleep(ctx, r.pause); err != nil {
				return records, interrupted(err, len(records))
			}
		}
	}
	return records, nil
}

// ProcessOne aggregates and reconciles a single title.
func (r *Runner) ProcessOne(ctx context.Context, title model.Title) Record {
	outcome := r.aggregator.Run(ctx, title)
	report := reconcile.FromResults(title.Original, outcome.Results)

	if r.ledger.Record(report) {
		slog.Warn("Date mismatch", "title", title.Original, "diagnostic", report.Diagnostic)
	} else {
		slog.Debug("Dates reconciled", "title", title.Original, "kind", report.Kind.String())
	}

	return Record{
		Title:     title,
		Results:   outcome.Results,
		Fallbacks: outcome.Fallbacks,
		Report:    report,
	}
}

func interrupted(err error, processed int) error {
	return errors.NewStopProcessingError(fmt.Sprintf("run interrupted after %d title(s): %v", processed, err), processed)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
