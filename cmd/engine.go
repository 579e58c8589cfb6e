package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lepinkainen/ratingsync/internal/aggregate"
	"github.com/lepinkainen/ratingsync/internal/cache"
	"github.com/lepinkainen/ratingsync/internal/config"
	"github.com/lepinkainen/ratingsync/internal/fetch"
	"github.com/lepinkainen/ratingsync/internal/model"
	"github.com/lepinkainen/ratingsync/internal/pipeline"
	"github.com/lepinkainen/ratingsync/internal/ratelimit"
	"github.com/lepinkainen/ratingsync/internal/reconcile"
	"github.com/lepinkainen/ratingsync/internal/source"
	"github.com/lepinkainen/ratingsync/internal/source/registry"
)

// titleProcessor runs titles through every platform.
type titleProcessor interface {
	Process(ctx context.Context, titles []model.Title) ([]pipeline.Record, error)
	ProcessOne(ctx context.Context, title model.Title) pipeline.Record
	Ledger() *reconcile.Ledger
}

// buildProcessor wires the fetch stack, extractors and runner for cfg. The
// returned close function releases the response cache.
func buildProcessor(cfg config.Config) (titleProcessor, func() error, error) {
	memo, err := openMemo(cfg.Cache)
	if err != nil {
		return nil, nil, err
	}

	httpClient, err := fetch.NewHTTPClient(cfg.Fetch.Proxy, cfg.Fetch.Timeout)
	if err != nil {
		_ = memo.Close()
		return nil, nil, fmt.Errorf("invalid proxy: %w", err)
	}

	fetcher := fetch.New(
		fetch.WithHTTPClient(httpClient),
		fetch.WithRateLimiters(ratelimit.NewRegistry(0, cfg.RateLimitKeys())),
		fetch.WithMemo(memo),
		fetch.WithAttempts(cfg.Fetch.Attempts),
		fetch.WithBaseDelay(cfg.Fetch.BaseDelay),
		fetch.WithMaxDelay(cfg.Fetch.MaxDelay),
	)

	extractors := registry.Extractors(fetcher, cfg.Window, nil, source.WithMaxAttempts(cfg.Candidates))
	agg := aggregate.New(extractors, aggregate.WithWorkers(cfg.Workers))
	runner := pipeline.NewRunner(agg, reconcile.NewLedger(), cfg.Window, pipeline.WithPause(cfg.Pause))

	return runner, memo.Close, nil
}

// openMemo returns the persistent cache when enabled, otherwise an
// in-memory one scoped to this process.
func openMemo(cfg config.Cache) (cache.Store, error) {
	if !cfg.Persist {
		return cache.NewMemoryStore(cfg.TTL), nil
	}
	store, err := cache.NewSQLiteStore(cfg.DBFile, cfg.TTL)
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", cfg.DBFile, err)
	}
	slog.Debug("Using persistent response cache", "path", cfg.DBFile, "ttl", cfg.TTL)
	return store, nil
}
