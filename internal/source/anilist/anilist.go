// Package anilist resolves titles against the AniList GraphQL API.
package anilist

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/lepinkainen/ratingsync/internal/errors"
	"github.com/lepinkainen/ratingsync/internal/fetch"
	"github.com/lepinkainen/ratingsync/internal/model"
	"github.com/lepinkainen/ratingsync/internal/score"
)

const (
	defaultEndpoint = "https://graphql.anilist.co"
	defaultSiteBase = "https://anilist.co"
	searchPageSize  = 5
)

var animeLink = regexp.MustCompile(`https?://anilist\.co/anime/(\d+)`)

const searchQuery = `query ($search: String, $perPage: Int) {
  Page(page: 1, perPage: $perPage) {
    media(search: $search, type: ANIME) {
      id
      title { native romaji }
      startDate { year month }
    }
  }
}`

const detailQuery = `query ($id: Int) {
  Media(id: $id, type: ANIME) {
    id
    title { native romaji }
    startDate { year month }
    averageScore
    stats { scoreDistribution { score amount } }
  }
}`

// Resolver implements source.Resolver for AniList.
type Resolver struct {
	fetcher  fetch.Doer
	endpoint string
	siteBase string
}

// Option is a functional option for configuring the Resolver.
type Option func(*Resolver)

// WithEndpoint points the resolver at a different GraphQL endpoint.
func WithEndpoint(endpoint string) Option {
	return func(r *Resolver) {
		if endpoint != "" {
			r.endpoint = endpoint
		}
	}
}

// New creates an AniList resolver.
func New(f fetch.Doer, opts ...Option) *Resolver {
	r := &Resolver{
		fetcher:  f,
		endpoint: defaultEndpoint,
		siteBase: defaultSiteBase,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type fuzzyDate struct {
	Year  *int `json:"year"`
	Month *int `json:"month"`
}

type media struct {
	ID    int `json:"id"`
	Title struct {
		Native string `json:"native"`
		Romaji string `json:"romaji"`
	} `json:"title"`
	StartDate    fuzzyDate `json:"startDate"`
	AverageScore *int      `json:"averageScore"`
	Stats        struct {
		ScoreDistribution []struct {
			Score  int `json:"score"`
			Amount int `json:"amount"`
		} `json:"scoreDistribution"`
	} `json:"stats"`
}

func (m *media) name() string {
	if m.Title.Native != "" {
		return m.Title.Native
	}
	return m.Title.Romaji
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (r *Resolver) Platform() model.Platform {
	return model.AniList
}

func (r *Resolver) ParseID(link string) (string, bool) {
	m := animeLink.FindStringSubmatch(link)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func (r *Resolver) ByID(ctx context.Context, id string) (model.Result, error) {
	m, err := r.media(ctx, id)
	if err != nil {
		return model.Result{}, err
	}
	return r.result(m)
}

func (r *Resolver) Search(ctx context.Context, key string) ([]*model.Candidate, error) {
	var data struct {
		Page struct {
			Media []media `json:"media"`
		} `json:"Page"`
	}
	vars := map[string]any{"search": key, "perPage": searchPageSize}
	if err := r.query(ctx, searchQuery, vars, &data); err != nil {
		return nil, err
	}

	candidates := make([]*model.Candidate, 0, len(data.Page.Media))
	for _, m := range data.Page.Media {
		c := &model.Candidate{ID: strconv.Itoa(m.ID), Name: m.name()}
		if m.StartDate.Year != nil {
			c.Year = *m.StartDate.Year
		}
		c.Period = m.StartDate.period()
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// CandidateYear reads the start year already present in search results.
func (r *Resolver) CandidateYear(_ context.Context, c *model.Candidate) (int, error) {
	return c.Year, nil
}

func (r *Resolver) Details(ctx context.Context, c *model.Candidate) (model.Result, error) {
	return r.ByID(ctx, c.ID)
}

func (r *Resolver) media(ctx context.Context, id string) (*media, error) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return nil, errors.NewParseError("anilist media id", err)
	}

	var data struct {
		Media *media `json:"Media"`
	}
	if err := r.query(ctx, detailQuery, map[string]any{"id": n}, &data); err != nil {
		return nil, err
	}
	if data.Media == nil {
		return nil, errors.NewNotFoundError("anilist:" + id)
	}
	return data.Media, nil
}

func (r *Resolver) query(ctx context.Context, query string, vars map[string]any, target any) error {
	resp, err := r.fetcher.Do(ctx, fetch.Request{
		Method:  http.MethodPost,
		URL:     r.endpoint,
		Body:    graphQLRequest{Query: query, Variables: vars},
		Kind:    fetch.KindGraphQL,
		Limiter: string(model.AniList),
	})
	if err != nil {
		return err
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphQLError  `json:"errors"`
	}
	if err := resp.JSON(&envelope); err != nil {
		return err
	}
	if len(envelope.Errors) > 0 {
		first := envelope.Errors[0]
		if first.Status == http.StatusNotFound {
			return errors.NewNotFoundError(fmt.Sprintf("anilist: %v", vars))
		}
		messages := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			messages = append(messages, e.Message)
		}
		return errors.NewParseError("anilist graphql", fmt.Errorf("%s", strings.Join(messages, "; ")))
	}
	if err := json.Unmarshal(envelope.Data, target); err != nil {
		return errors.NewParseError("anilist graphql data", err)
	}
	return nil
}

func (r *Resolver) result(m *media) (model.Result, error) {
	d := model.Details{Period: m.StartDate.period()}

	if m.AverageScore != nil {
		sc := score.New(float64(*m.AverageScore), score.Scale100)
		d.Score = &sc
	}
	if dist := m.Stats.ScoreDistribution; len(dist) > 0 {
		votes := 0
		for _, bucket := range dist {
			votes += bucket.Amount
		}
		d.Votes = &votes
	}

	return model.NewResolved(model.AniList, fmt.Sprintf("%s/anime/%d", r.siteBase, m.ID), m.name(), d)
}

// period is empty unless both year and month are known.
func (d fuzzyDate) period() model.Period {
	if d.Year == nil || d.Month == nil {
		return ""
	}
	p, err := model.NewPeriod(*d.Year, *d.Month)
	if err != nil {
		return ""
	}
	return p
}
