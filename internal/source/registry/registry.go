// Package registry builds the extractor set for every supported platform.
package registry

import (
	"github.com/lepinkainen/ratingsync/internal/fetch"
	"github.com/lepinkainen/ratingsync/internal/model"
	"github.com/lepinkainen/ratingsync/internal/source"
	"github.com/lepinkainen/ratingsync/internal/source/anilist"
	"github.com/lepinkainen/ratingsync/internal/source/bangumi"
	"github.com/lepinkainen/ratingsync/internal/source/filmarks"
	"github.com/lepinkainen/ratingsync/internal/source/myanimelist"
)

// Resolver returns the resolver for p backed by f.
func Resolver(p model.Platform, f fetch.Doer) (source.Resolver, bool) {
	switch p {
	case model.Bangumi:
		return bangumi.New(f), true
	case model.AniList:
		return anilist.New(f), true
	case model.MyAnimeList:
		return myanimelist.New(f), true
	case model.Filmarks:
		return filmarks.New(f), true
	default:
		return nil, false
	}
}

// Extractors builds an extractor for each platform, in the order given.
// Nil or empty platforms means every platform.
func Extractors(f fetch.Doer, window model.YearWindow, platforms []model.Platform, opts ...source.DriverOption) []source.Extractor {
	if len(platforms) == 0 {
		platforms = model.Platforms()
	}
	extractors := make([]source.Extractor, 0, len(platforms))
	for _, p := range platforms {
		if r, ok := Resolver(p, f); ok {
			extractors = append(extractors, source.NewDriver(r, window, opts...))
		}
	}
	return extractors
}
