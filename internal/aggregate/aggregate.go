// Package aggregate runs every platform extractor for a title concurrently
// and then gives failed platforms one retry using a peer's resolved name.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lepinkainen/ratingsync/internal/model"
	"github.com/lepinkainen/ratingsync/internal/source"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds concurrent extractions per title.
const DefaultWorkers = 4

// Outcome is everything learned about one title.
type Outcome struct {
	Results   map[model.Platform]model.Result
	Fallbacks map[model.Platform]Fallback
}

// Aggregator fans a title out to the configured extractors.
type Aggregator struct {
	extractors []source.Extractor
	workers    int
}

// Option is a functional option for configuring the Aggregator.
type Option func(*Aggregator)

// WithWorkers bounds how many extractors run at once.
func WithWorkers(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.workers = n
		}
	}
}

// New creates an Aggregator.
func New(extractors []source.Extractor, opts ...Option) *Aggregator {
	a := &Aggregator{
		extractors: extractors,
		workers:    DefaultWorkers,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run extracts title from every platform. Every configured platform has a
// result in the outcome, whatever happened to its extractor.
func (a *Aggregator) Run(ctx context.Context, title model.Title) Outcome {
	primary := a.fanOut(ctx, a.extractors, func(ctx context.Context, e source.Extractor) model.Result {
		return e.Extract(ctx, title)
	})
	return a.fallback(ctx, title, primary)
}

type task func(ctx context.Context, e source.Extractor) model.Result

// fanOut runs one task per extractor and waits for all of them. Tasks never
// return errors to the group, so one failing platform cannot cancel another.
func (a *Aggregator) fanOut(ctx context.Context, extractors []source.Extractor, run task) map[model.Platform]model.Result {
	results := make(map[model.Platform]model.Result, len(extractors))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(a.workers)

	for _, e := range extractors {
		g.Go(func() error {
			start := time.Now()
			res := runIsolated(ctx, e, run)

			mu.Lock()
			results[e.Platform()] = res
			mu.Unlock()

			slog.Debug("Extractor finished",
				"platform", e.Platform(),
				"status", res.Status.String(),
				"elapsed", time.Since(start))
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func runIsolated(ctx context.Context, e source.Extractor, run task) (res model.Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Extractor panicked", "platform", e.Platform(), "panic", r)
			res = model.Failed(e.Platform(), model.StatusTransportFailed, fmt.Errorf("extractor panic: %v", r))
		}
	}()

	res = run(ctx, e)
	res.Platform = e.Platform()
	if res.Status == model.StatusPending {
		res = model.Failed(e.Platform(), model.StatusTransportFailed, fmt.Errorf("extractor returned no outcome"))
	}
	return res
}
