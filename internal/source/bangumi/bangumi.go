// Package bangumi resolves titles against the Bangumi v0 API.
package bangumi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lepinkainen/ratingsync/internal/errors"
	"github.com/lepinkainen/ratingsync/internal/fetch"
	"github.com/lepinkainen/ratingsync/internal/model"
	"github.com/lepinkainen/ratingsync/internal/score"
)

const (
	defaultAPIBase   = "https://api.bgm.tv/v0"
	defaultSiteBase  = "https://bgm.tv"
	searchLimit      = 5
	subjectTypeAnime = 2
)

var subjectLink = regexp.MustCompile(`https?://(?:bangumi|bgm)\.tv/subject/(\d+)`)

// Resolver implements source.Resolver for Bangumi.
type Resolver struct {
	fetcher  fetch.Doer
	apiBase  string
	siteBase string
}

// Option is a functional option for configuring the Resolver.
type Option func(*Resolver)

// WithAPIBase points the resolver at a different API root.
func WithAPIBase(base string) Option {
	return func(r *Resolver) {
		if base != "" {
			r.apiBase = strings.TrimRight(base, "/")
		}
	}
}

// WithSiteBase changes the root used to build subject links.
func WithSiteBase(base string) Option {
	return func(r *Resolver) {
		if base != "" {
			r.siteBase = strings.TrimRight(base, "/")
		}
	}
}

// New creates a Bangumi resolver.
func New(f fetch.Doer, opts ...Option) *Resolver {
	r := &Resolver{
		fetcher:  f,
		apiBase:  defaultAPIBase,
		siteBase: defaultSiteBase,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type subject struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	NameCN string `json:"name_cn"`
	Date   string `json:"date"`
	Rating struct {
		Total int            `json:"total"`
		Count map[string]int `json:"count"`
	} `json:"rating"`
}

type searchResponse struct {
	Total int       `json:"total"`
	Data  []subject `json:"data"`
}

type searchRequest struct {
	Keyword string       `json:"keyword"`
	Filter  searchFilter `json:"filter"`
}

type searchFilter struct {
	Type []int `json:"type"`
}

func (r *Resolver) Platform() model.Platform {
	return model.Bangumi
}

func (r *Resolver) ParseID(link string) (string, bool) {
	m := subjectLink.FindStringSubmatch(link)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func (r *Resolver) ByID(ctx context.Context, id string) (model.Result, error) {
	s, err := r.subject(ctx, id)
	if err != nil {
		return model.Result{}, err
	}
	return r.result(s)
}

func (r *Resolver) Search(ctx context.Context, key string) ([]*model.Candidate, error) {
	resp, err := r.fetcher.Do(ctx, fetch.Request{
		Method:  http.MethodPost,
		URL:     r.apiBase + "/search/subjects",
		Params:  url.Values{"limit": {strconv.Itoa(searchLimit)}},
		Body:    searchRequest{Keyword: key, Filter: searchFilter{Type: []int{subjectTypeAnime}}},
		Kind:    fetch.KindJSON,
		Limiter: string(model.Bangumi),
	})
	if err != nil {
		return nil, err
	}

	var sr searchResponse
	if err := resp.JSON(&sr); err != nil {
		return nil, err
	}

	candidates := make([]*model.Candidate, 0, len(sr.Data))
	for _, s := range sr.Data {
		name := s.Name
		if s.NameCN != "" {
			name = s.NameCN
		}
		candidates = append(candidates, &model.Candidate{ID: strconv.Itoa(s.ID), Name: name})
	}
	return candidates, nil
}

// CandidateYear fetches the subject because search hits do not reliably
// carry an air date.
func (r *Resolver) CandidateYear(ctx context.Context, c *model.Candidate) (int, error) {
	s, err := r.subject(ctx, c.ID)
	if err != nil {
		return 0, err
	}
	c.Payload = s

	period, err := parseDate(s.Date)
	if err != nil {
		return 0, err
	}
	c.Period = period
	c.Year = period.Year()
	return c.Year, nil
}

func (r *Resolver) Details(ctx context.Context, c *model.Candidate) (model.Result, error) {
	s, ok := c.Payload.(*subject)
	if !ok {
		var err error
		if s, err = r.subject(ctx, c.ID); err != nil {
			return model.Result{}, err
		}
	}
	return r.result(s)
}

func (r *Resolver) subject(ctx context.Context, id string) (*subject, error) {
	if _, err := strconv.Atoi(id); err != nil {
		return nil, errors.NewParseError("bangumi subject id", err)
	}

	resp, err := r.fetcher.Do(ctx, fetch.Request{
		URL:     r.apiBase + "/subjects/" + id,
		Kind:    fetch.KindJSON,
		Limiter: string(model.Bangumi),
	})
	if err != nil {
		return nil, err
	}

	var s subject
	if err := resp.JSON(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Resolver) result(s *subject) (model.Result, error) {
	var d model.Details
	if period, err := parseDate(s.Date); err == nil {
		d.Period = period
	}

	histogram := make(map[int]int, len(s.Rating.Count))
	for k, v := range s.Rating.Count {
		if rating, err := strconv.Atoi(k); err == nil {
			histogram[rating] = v
		}
	}
	if avg, counted, ok := score.WeightedAverage(histogram); ok {
		sc := score.New(avg, score.Scale10)
		votes := s.Rating.Total
		if votes == 0 {
			votes = counted
		}
		d.Score = &sc
		d.Votes = &votes
	}

	return model.NewResolved(model.Bangumi, fmt.Sprintf("%s/subject/%d", r.siteBase, s.ID), s.Name, d)
}

func parseDate(date string) (model.Period, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(date))
	if err != nil {
		return "", errors.NewParseError("bangumi air date", err)
	}
	return model.NewPeriod(t.Year(), int(t.Month()))
}
