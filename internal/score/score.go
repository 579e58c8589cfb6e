// Package score converts platform-native ratings onto a common 10-point basis.
package score

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Scale is the maximum value of a platform's native rating scale.
type Scale int

const (
	Scale5   Scale = 5
	Scale10  Scale = 10
	Scale100 Scale = 100
)

// Score is a rating tagged with the scale it was published on.
type Score struct {
	Value float64 `json:"value" yaml:"value"`
	Scale Scale   `json:"scale" yaml:"scale"`
}

// New creates a score on the given scale.
func New(value float64, scale Scale) Score {
	return Score{Value: value, Scale: scale}
}

// Parse reads a textual rating published on scale. Values outside
// [0, scale] are rejected.
func Parse(raw string, scale Scale) (Score, error) {
	text := strings.TrimSpace(raw)
	if text == "" || text == "-" || text == "N/A" {
		return Score{}, fmt.Errorf("no rating value in %q", raw)
	}

	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Score{}, fmt.Errorf("parse rating %q: %w", raw, err)
	}
	if value < 0 || value > float64(scale) {
		return Score{}, fmt.Errorf("rating %v outside 0-%d", value, scale)
	}

	return New(value, scale), nil
}

// Normalize returns s on the 10-point basis. Scores already on the
// 10-point basis are returned unchanged, so applying it twice is safe.
func Normalize(s Score) Score {
	switch s.Scale {
	case Scale5:
		return Score{Value: round(s.Value*2, 2), Scale: Scale10}
	case Scale100:
		return Score{Value: round(s.Value/10, 1), Scale: Scale10}
	default:
		return s
	}
}

// String formats the value without trailing zeros.
func (s Score) String() string {
	return strconv.FormatFloat(s.Value, 'f', -1, 64)
}

// ParseVotes reads a vote total such as "12,345" or "1 024".
func ParseVotes(raw string) (int, error) {
	cleaned := strings.NewReplacer(",", "", " ", "", " ", "").Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return 0, fmt.Errorf("no vote count in %q", raw)
	}

	votes, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0, fmt.Errorf("parse vote count %q: %w", raw, err)
	}
	if votes < 0 {
		return 0, fmt.Errorf("negative vote count %d", votes)
	}
	return votes, nil
}

// WeightedAverage computes the mean rating from a histogram of
// rating value to number of votes. It reports false when nobody voted.
func WeightedAverage(histogram map[int]int) (float64, int, bool) {
	total, weighted := 0, 0
	for rating, votes := range histogram {
		total += votes
		weighted += rating * votes
	}
	if total == 0 {
		return 0, 0, false
	}
	return round(float64(weighted)/float64(total), 2), total, true
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
