// Package filmarks resolves titles by scraping Filmarks anime pages.
package filmarks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/lepinkainen/ratingsync/internal/errors"
	"github.com/lepinkainen/ratingsync/internal/fetch"
	"github.com/lepinkainen/ratingsync/internal/model"
	"github.com/lepinkainen/ratingsync/internal/score"
	"github.com/lepinkainen/ratingsync/internal/textutil"
)

const (
	defaultBase  = "https://filmarks.com"
	maxCassettes = 5
)

var (
	animeLink = regexp.MustCompile(`https?://filmarks\.com/animes/(\d+)/(\d+)`)
	animePath = regexp.MustCompile(`/animes/(\d+)/(\d+)`)
	jaMonth   = regexp.MustCompile(`(\d{4})年(\d{1,2})月`)
)

// Resolver implements source.Resolver for Filmarks. Identifiers are the
// "series/season" pair from the anime path.
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

// New creates a Filmarks resolver.
func New(f fetch.Doer, opts ...Option) *Resolver {
	r := &Resolver{fetcher: f, base: defaultBase}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) Platform() model.Platform {
	return model.Filmarks
}

func (r *Resolver) ParseID(link string) (string, bool) {
	m := animeLink.FindStringSubmatch(link)
	if m == nil {
		return "", false
	}
	return m[1] + "/" + m[2], true
}

func (r *Resolver) ByID(ctx context.Context, id string) (model.Result, error) {
	d, err := r.detail(ctx, id)
	if err != nil {
		return model.Result{}, err
	}
	return d.result(r.pageURL(id))
}

// Search reads result cassettes. Filmarks redirects exact matches straight
// to the detail page, which becomes the only candidate.
func (r *Resolver) Search(ctx context.Context, key string) ([]*model.Candidate, error) {
	resp, err := r.fetcher.Do(ctx, fetch.Request{
		URL:     r.base + "/search/animes",
		Params:  url.Values{"q": {key}},
		Kind:    fetch.KindHTML,
		Limiter: string(model.Filmarks),
	})
	if err != nil {
		return nil, err
	}
	doc, err := resp.Document()
	if err != nil {
		return nil, err
	}

	if isDetailPage(doc) {
		d, err := parseDetail(doc)
		if err != nil {
			return nil, err
		}
		id, ok := canonicalID(doc)
		if !ok {
			return nil, errors.NewParseError("filmarks detail page", fmt.Errorf("no canonical anime link"))
		}
		return []*model.Candidate{{ID: id, Name: d.name, Year: d.period.Year(), Period: d.period, Payload: d}}, nil
	}

	return parseCassettes(doc), nil
}

// CandidateYear uses the release date printed on the search cassette.
func (r *Resolver) CandidateYear(_ context.Context, c *model.Candidate) (int, error) {
	return c.Year, nil
}

func (r *Resolver) Details(ctx context.Context, c *model.Candidate) (model.Result, error) {
	d, ok := c.Payload.(*detail)
	if !ok {
		var err error
		if d, err = r.detail(ctx, c.ID); err != nil {
			return model.Result{}, err
		}
	}
	return d.result(r.pageURL(c.ID))
}

func (r *Resolver) detail(ctx context.Context, id string) (*detail, error) {
	resp, err := r.fetcher.Do(ctx, fetch.Request{
		URL:     r.pageURL(id),
		Kind:    fetch.KindHTML,
		Limiter: string(model.Filmarks),
	})
	if err != nil {
		return nil, err
	}
	doc, err := resp.Document()
	if err != nil {
		return nil, err
	}
	return parseDetail(doc)
}

func (r *Resolver) pageURL(id string) string {
	return r.base + "/animes/" + id
}

func parseCassettes(doc *goquery.Document) []*model.Candidate {
	var candidates []*model.Candidate
	doc.Find("div.js-cassette").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var id string
		s.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			if m := animePath.FindStringSubmatch(href); m != nil {
				id = m[1] + "/" + m[2]
				return false
			}
			return true
		})
		if id == "" {
			return true
		}

		c := &model.Candidate{
			ID:   id,
			Name: textutil.NormSpace(s.Find("h3.p-content-cassette__title").First().Text()),
		}
		c.Period = findMonth(s.Text())
		c.Year = c.Period.Year()
		candidates = append(candidates, c)
		return len(candidates) < maxCassettes
	})
	return candidates
}

type detail struct {
	name   string
	period model.Period
	score  *score.Score
	votes  *int
}

func isDetailPage(doc *goquery.Document) bool {
	return doc.Find("h2.p-content-detail__title").Length() > 0
}

func parseDetail(doc *goquery.Document) (*detail, error) {
	title := doc.Find("h2.p-content-detail__title").First()
	d := &detail{name: textutil.NormSpace(title.Find("span").First().Text())}
	if d.name == "" {
		d.name = textutil.NormSpace(title.Text())
	}
	if d.name == "" {
		return nil, errors.NewParseError("filmarks detail page", model.ErrIncomplete)
	}

	if raw := doc.Find(".c2-rating-l__text").First().Text(); raw != "" {
		if s, err := score.Parse(raw, score.Scale5); err == nil {
			d.score = &s
		}
	}

	if raw, ok := doc.Find(".js-btn-mark[data-mark]").First().Attr("data-mark"); ok {
		var mark struct {
			Count json.Number `json:"count"`
		}
		if err := json.Unmarshal([]byte(raw), &mark); err == nil {
			if n, err := strconv.Atoi(mark.Count.String()); err == nil {
				d.votes = &n
			}
		}
	}

	doc.Find(".p-content-detail__other-info").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if !strings.Contains(text, "公開日") {
			return true
		}
		d.period = findMonth(text[strings.Index(text, "公開日"):])
		return d.period.IsZero()
	})
	return d, nil
}

func (d *detail) result(pageURL string) (model.Result, error) {
	return model.NewResolved(model.Filmarks, pageURL, d.name, model.Details{
		Score:  d.score,
		Votes:  d.votes,
		Period: d.period,
	})
}

func canonicalID(doc *goquery.Document) (string, bool) {
	for _, sel := range []string{`link[rel="canonical"]`, `meta[property="og:url"]`} {
		node := doc.Find(sel).First()
		href, ok := node.Attr("href")
		if !ok {
			href, ok = node.Attr("content")
		}
		if !ok {
			continue
		}
		if m := animePath.FindStringSubmatch(href); m != nil {
			return m[1] + "/" + m[2], true
		}
	}
	return "", false
}

func findMonth(text string) model.Period {
	m := jaMonth.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	p, err := model.NewPeriod(year, month)
	if err != nil {
		return ""
	}
	return p
}
