package model

import (
	"errors"
	"strconv"

	"github.com/lepinkainen/ratingsync/internal/score"
)

// ErrIncomplete marks a page that matched but lacked the fields a resolved
// result requires.
var ErrIncomplete = errors.New("resolved result is missing identifier or name")

// Attempt records whether a result came from the primary lookup or the
// name-based fallback.
type Attempt int

const (
	AttemptPrimary Attempt = iota
	AttemptFallback
)

func (a Attempt) String() string {
	if a == AttemptFallback {
		return "fallback"
	}
	return "primary"
}

// Details are the optional fields of a resolved result.
type Details struct {
	Score  *score.Score
	Votes  *int
	Period Period
}

// Result is the outcome of extracting one title from one platform.
type Result struct {
	Platform Platform
	Status   Status
	URL      string
	Name     string
	Score    *score.Score
	Votes    *int
	Period   Period
	Attempt  Attempt
	Err      error
}

// NewResolved builds a resolved result. A result without a URL or name
// cannot be resolved, so ErrIncomplete is returned instead.
func NewResolved(p Platform, url, name string, d Details) (Result, error) {
	if url == "" || name == "" {
		return Result{}, ErrIncomplete
	}
	return Result{
		Platform: p,
		Status:   StatusResolved,
		URL:      url,
		Name:     name,
		Score:    d.Score,
		Votes:    d.Votes,
		Period:   d.Period,
	}, nil
}

// Failed builds an unresolved result carrying the cause.
func Failed(p Platform, status Status, err error) Result {
	if status == StatusResolved || status == StatusPending {
		status = StatusTransportFailed
	}
	return Result{Platform: p, Status: status, Err: err}
}

func (r Result) IsResolved() bool {
	return r.Status == StatusResolved
}

// NormalizedScore returns the score on the 10-point basis. Unresolved
// results never carry a score.
func (r Result) NormalizedScore() (score.Score, bool) {
	if !r.IsResolved() || r.Score == nil {
		return score.Score{}, false
	}
	return score.Normalize(*r.Score), true
}

// ScoreText is the normalized score or the sentinel explaining its absence.
func (r Result) ScoreText() string {
	if s, ok := r.NormalizedScore(); ok {
		return s.String()
	}
	if sentinel, ok := r.Status.Sentinel(); ok {
		return string(sentinel)
	}
	return string(SentinelNoScore)
}

// NativeScoreText is the score as published by the platform.
func (r Result) NativeScoreText() string {
	if !r.IsResolved() || r.Score == nil {
		return r.ScoreText()
	}
	return r.Score.String()
}

func (r Result) NameText() string {
	if r.IsResolved() {
		return r.Name
	}
	sentinel, _ := r.Status.Sentinel()
	return string(sentinel)
}

func (r Result) VotesText() string {
	if r.IsResolved() && r.Votes != nil {
		return strconv.Itoa(*r.Votes)
	}
	if sentinel, ok := r.Status.Sentinel(); ok {
		return string(sentinel)
	}
	return string(SentinelNoVotes)
}

func (r Result) PeriodText() string {
	if r.IsResolved() && !r.Period.IsZero() {
		return r.Period.String()
	}
	if sentinel, ok := r.Status.Sentinel(); ok {
		return string(sentinel)
	}
	return string(SentinelNoDate)
}

func (r Result) URLText() string {
	if r.IsResolved() {
		return r.URL
	}
	sentinel, _ := r.Status.Sentinel()
	return string(sentinel)
}
