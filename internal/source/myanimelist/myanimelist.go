// Package myanimelist resolves titles by scraping MyAnimeList search and
// anime pages.
package myanimelist

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/lepinkainen/ratingsync/internal/errors"
	"github.com/lepinkainen/ratingsync/internal/fetch"
	"github.com/lepinkainen/ratingsync/internal/model"
	"github.com/lepinkainen/ratingsync/internal/score"
	"github.com/lepinkainen/ratingsync/internal/textutil"
)

const defaultBase = "https://myanimelist.net"

var animeLink = regexp.MustCompile(`^https?://myanimelist\.net/anime/\d+`)

// Resolver implements source.Resolver for MyAnimeList. Candidate
// identifiers are absolute anime page URLs.
type Resolver struct {
	fetcher fetch.Doer
	base    string
}

// Option is a functional option for configuring the Resolver.
type Option func(*Resolver)

// WithBaseURL points the resolver at a different site root.
func WithBaseURL(base string) Option {
	return func(r *Resolver) {
		if base != "" {
			r.base = strings.TrimRight(base, "/")
		}
	}
}

// New creates a MyAnimeList resolver.
func New(f fetch.Doer, opts ...Option) *Resolver {
	r := &Resolver{fetcher: f, base: defaultBase}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) Platform() model.Platform {
	return model.MyAnimeList
}

func (r *Resolver) ParseID(link string) (string, bool) {
	m := animeLink.FindString(strings.TrimSpace(link))
	if m == "" {
		return "", false
	}
	return m, true
}

func (r *Resolver) ByID(ctx context.Context, pageURL string) (model.Result, error) {
	p, err := r.page(ctx, pageURL)
	if err != nil {
		return model.Result{}, err
	}
	return p.result(pageURL)
}

func (r *Resolver) Search(ctx context.Context, key string) ([]*model.Candidate, error) {
	resp, err := r.fetcher.Do(ctx, fetch.Request{
		URL:     r.base + "/anime.php",
		Params:  url.Values{"q": {key}, "cat": {"anime"}},
		Kind:    fetch.KindHTML,
		Limiter: string(model.MyAnimeList),
	})
	if err != nil {
		return nil, err
	}
	doc, err := resp.Document()
	if err != nil {
		return nil, err
	}
	return r.parseSearch(doc), nil
}

func (r *Resolver) parseSearch(doc *goquery.Document) []*model.Candidate {
	var candidates []*model.Candidate
	rows := doc.Find(`table[border="0"][cellpadding="0"][cellspacing="0"][width="100%"] tr`)
	rows.Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return // header
		}
		link := row.Find("a.hoverinfo_trigger").First()
		if link.Length() == 0 {
			link = row.Find("div a").First()
		}
		href, ok := link.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		name := textutil.NormSpace(row.Find("strong").First().Text())
		if name == "" {
			name = textutil.NormSpace(link.Text())
		}
		candidates = append(candidates, &model.Candidate{ID: r.absolute(href), Name: name})
	})
	return candidates
}

// CandidateYear loads the anime page and reads its Aired field.
func (r *Resolver) CandidateYear(ctx context.Context, c *model.Candidate) (int, error) {
	p, err := r.page(ctx, c.ID)
	if err != nil {
		return 0, err
	}
	c.Payload = p
	c.Period = p.period
	c.Year = p.year
	if p.name != "" {
		c.Name = p.name
	}
	return p.year, nil
}

func (r *Resolver) Details(ctx context.Context, c *model.Candidate) (model.Result, error) {
	p, ok := c.Payload.(*page)
	if !ok {
		var err error
		if p, err = r.page(ctx, c.ID); err != nil {
			return model.Result{}, err
		}
	}
	return p.result(c.ID)
}

func (r *Resolver) page(ctx context.Context, pageURL string) (*page, error) {
	resp, err := r.fetcher.Do(ctx, fetch.Request{
		URL:     pageURL,
		Kind:    fetch.KindHTML,
		Limiter: string(model.MyAnimeList),
	})
	if err != nil {
		return nil, err
	}
	doc, err := resp.Document()
	if err != nil {
		return nil, err
	}
	return parsePage(doc)
}

func (r *Resolver) absolute(href string) string {
	u, err := url.Parse(href)
	if err != nil || u.IsAbs() {
		return href
	}
	base, err := url.Parse(r.base + "/")
	if err != nil {
		return href
	}
	return base.ResolveReference(u).String()
}

type page struct {
	name   string
	period model.Period
	year   int
	score  *score.Score
	votes  *int
}

func parsePage(doc *goquery.Document) (*page, error) {
	p := &page{}

	fields := map[string]string{}
	doc.Find("span.dark_text").Each(func(_ int, label *goquery.Selection) {
		key := strings.TrimSuffix(textutil.NormSpace(label.Text()), ":")
		value := textutil.NormSpace(strings.TrimPrefix(textutil.NormSpace(label.Parent().Text()), textutil.NormSpace(label.Text())))
		if _, seen := fields[key]; !seen {
			fields[key] = value
		}
	})

	p.name = textutil.UnescapeName(fields["Japanese"])
	if p.name == "" {
		p.name = textutil.NormSpace(doc.Find("h1.title-name strong").First().Text())
	}
	if p.name == "" {
		return nil, errors.NewParseError("myanimelist page", model.ErrIncomplete)
	}

	p.period, p.year = parseAired(fields["Aired"])

	if raw := doc.Find(`span[itemprop="ratingValue"]`).First().Text(); raw != "" {
		if s, err := score.Parse(raw, score.Scale10); err == nil {
			p.score = &s
		}
	}
	if raw := doc.Find(`span[itemprop="ratingCount"]`).First().Text(); raw != "" {
		if v, err := score.ParseVotes(raw); err == nil {
			p.votes = &v
		}
	}
	return p, nil
}

func (p *page) result(pageURL string) (model.Result, error) {
	return model.NewResolved(model.MyAnimeList, pageURL, p.name, model.Details{
		Score:  p.score,
		Votes:  p.votes,
		Period: p.period,
	})
}
