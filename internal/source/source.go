// Package source turns a platform Resolver into an Extractor that follows
// the seeded-link, search, validate and detail sequence shared by every
// platform.
package source

import (
	"context"
	"log/slog"
	"strings"

	"github.com/lepinkainen/ratingsync/internal/errors"
	"github.com/lepinkainen/ratingsync/internal/model"
	"github.com/lepinkainen/ratingsync/internal/selector"
)

// Extractor resolves a title against one platform. It never returns an
// error: every failure is folded into the result status.
type Extractor interface {
	Platform() model.Platform
	Extract(ctx context.Context, title model.Title) model.Result
	ExtractByName(ctx context.Context, title model.Title, key string) model.Result
}

// Resolver holds the platform-specific steps.
type Resolver interface {
	Platform() model.Platform
	// ParseID extracts the platform identifier from a user-supplied link.
	ParseID(link string) (string, bool)
	// ByID resolves a known identifier without year validation.
	ByID(ctx context.Context, id string) (model.Result, error)
	// Search returns ordered candidates for key.
	Search(ctx context.Context, key string) ([]*model.Candidate, error)
	// CandidateYear determines a candidate's release year, fetching
	// whatever it needs and caching it on the candidate.
	CandidateYear(ctx context.Context, c *model.Candidate) (int, error)
	// Details resolves the chosen candidate.
	Details(ctx context.Context, c *model.Candidate) (model.Result, error)
}

// Driver adapts a Resolver to the Extractor interface.
type Driver struct {
	resolver    Resolver
	window      model.YearWindow
	maxAttempts int
}

// DriverOption is a functional option for configuring the Driver.
type DriverOption func(*Driver)

// WithMaxAttempts bounds how many candidates are validated.
func WithMaxAttempts(n int) DriverOption {
	return func(d *Driver) {
		if n > 0 {
			d.maxAttempts = n
		}
	}
}

// NewDriver creates an extractor around r.
func NewDriver(r Resolver, window model.YearWindow, opts ...DriverOption) *Driver {
	d := &Driver{
		resolver:    r,
		window:      window,
		maxAttempts: selector.DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Driver) Platform() model.Platform {
	return d.resolver.Platform()
}

// Extract uses the seeded link when it parses and searches otherwise.
func (d *Driver) Extract(ctx context.Context, title model.Title) model.Result {
	p := d.Platform()

	if link := title.Seed(p); link != "" {
		if id, ok := d.resolver.ParseID(link); ok {
			slog.Info("Using seeded link", "platform", p, "title", title.Original, "link", link)
			res, err := d.resolver.ByID(ctx, id)
			return d.finish(title, res, err, model.AttemptPrimary)
		}
		slog.Warn("Seeded link not recognised, searching instead", "platform", p, "title", title.Original, "link", link)
	}

	return d.search(ctx, title, title.SearchKey, model.AttemptPrimary)
}

// ExtractByName searches with key instead of the title's own search key.
func (d *Driver) ExtractByName(ctx context.Context, title model.Title, key string) model.Result {
	return d.search(ctx, title, key, model.AttemptFallback)
}

func (d *Driver) search(ctx context.Context, title model.Title, key string, attempt model.Attempt) model.Result {
	p := d.Platform()
	key = strings.TrimSpace(key)
	if key == "" {
		return d.finish(title, model.Result{}, errors.NewNotFoundError(""), attempt)
	}

	candidates, err := d.resolver.Search(ctx, key)
	if err != nil {
		return d.finish(title, model.Result{}, err, attempt)
	}
	if len(candidates) == 0 {
		return d.finish(title, model.Result{}, errors.NewNotFoundError(key), attempt)
	}
	slog.Debug("Search returned candidates", "platform", p, "key", key, "count", len(candidates))

	chosen, _, ok := selector.Select(ctx, candidates, d.resolver.CandidateYear, d.window, d.maxAttempts)
	if !ok {
		if err := ctx.Err(); err != nil {
			return d.finish(title, model.Result{}, err, attempt)
		}
		res := model.Failed(p, model.StatusAmbiguousExhausted, nil)
		res.Attempt = attempt
		d.log(title, res)
		return res
	}

	res, err := d.resolver.Details(ctx, chosen)
	return d.finish(title, res, err, attempt)
}

func (d *Driver) finish(title model.Title, res model.Result, err error, attempt model.Attempt) model.Result {
	if err != nil {
		res = model.Failed(d.Platform(), errors.Classify(err), err)
	}
	res.Platform = d.Platform()
	res.Attempt = attempt
	d.log(title, res)
	return res
}

func (d *Driver) log(title model.Title, res model.Result) {
	if !res.IsResolved() {
		slog.Warn("Extraction failed",
			"platform", res.Platform,
			"title", title.Original,
			"status", res.Status.String(),
			"attempt", res.Attempt.String(),
			"error", res.Err)
		return
	}
	slog.Info("Extraction resolved",
		"platform", res.Platform,
		"title", title.Original,
		"url", res.URL,
		"name", res.Name,
		"score", res.ScoreText(),
		"votes", res.VotesText(),
		"date", res.PeriodText(),
		"attempt", res.Attempt.String())
}
