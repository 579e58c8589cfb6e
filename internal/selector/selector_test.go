package selector

import (
	"context"
	"errors"
	"testing"

	"github.com/lepinkainen/ratingsync/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCandidate struct {
	name string
	year int
	err  error
}

func yearCounter(calls *int) YearFunc[fakeCandidate] {
	return func(_ context.Context, c fakeCandidate) (int, error) {
		*calls++
		return c.year, c.err
	}
}

func TestSelectPicksFirstInWindow(t *testing.T) {
	candidates := []fakeCandidate{
		{name: "old", year: 2019},
		{name: "prev", year: 2024},
		{name: "current", year: 2025},
	}

	calls := 0
	got, idx, ok := Select(context.Background(), candidates, yearCounter(&calls), model.WindowFor(2025), DefaultMaxAttempts)
	require.True(t, ok)
	assert.Equal(t, "prev", got.name)
	assert.Equal(t, 1, idx)
	assert.Equal(t, 2, calls, "candidates after the accepted one are not inspected")
}

func TestSelectSkipsUndeterminableYears(t *testing.T) {
	candidates := []fakeCandidate{
		{name: "broken", err: errors.New("detail fetch failed")},
		{name: "undated"},
		{name: "good", year: 2025},
	}

	calls := 0
	got, idx, ok := Select(context.Background(), candidates, yearCounter(&calls), model.WindowFor(2025), DefaultMaxAttempts)
	require.True(t, ok)
	assert.Equal(t, "good", got.name)
	assert.Equal(t, 2, idx)
}

func TestSelectStopsAfterMaxAttempts(t *testing.T) {
	candidates := make([]fakeCandidate, 0, 8)
	for range 7 {
		candidates = append(candidates, fakeCandidate{year: 2010})
	}
	candidates = append(candidates, fakeCandidate{name: "too late", year: 2025})

	calls := 0
	_, idx, ok := Select(context.Background(), candidates, yearCounter(&calls), model.WindowFor(2025), 5)
	assert.False(t, ok)
	assert.Equal(t, -1, idx)
	assert.Equal(t, 5, calls)
}

func TestSelectEmpty(t *testing.T) {
	calls := 0
	_, _, ok := Select(context.Background(), nil, yearCounter(&calls), model.WindowFor(2025), 0)
	assert.False(t, ok)
	assert.Zero(t, calls)
}

func TestSelectHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, _, ok := Select(ctx, []fakeCandidate{{year: 2025}}, yearCounter(&calls), model.WindowFor(2025), 0)
	assert.False(t, ok)
	assert.Zero(t, calls)
}

func TestSelectWithModelCandidates(t *testing.T) {
	candidates := []*model.Candidate{
		{ID: "1", Name: "A", Year: 2023},
		{ID: "2", Name: "B", Year: 2025},
	}
	yearOf := func(_ context.Context, c *model.Candidate) (int, error) { return c.Year, nil }

	got, _, ok := Select(context.Background(), candidates, yearOf, model.WindowFor(2025), 0)
	require.True(t, ok)
	assert.Equal(t, "2", got.ID)
}
