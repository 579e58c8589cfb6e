// Package model defines the values passed between the extractors, the
// aggregator and the reconciler.
package model

import (
	"fmt"
	"slices"
	"strings"
)

// Platform identifies one rating source.
type Platform string

const (
	Bangumi     Platform = "bangumi"
	AniList     Platform = "anilist"
	MyAnimeList Platform = "myanimelist"
	Filmarks    Platform = "filmarks"
)

var allPlatforms = []Platform{Bangumi, AniList, MyAnimeList, Filmarks}

// Platforms returns every supported platform in reporting order.
func Platforms() []Platform {
	return slices.Clone(allPlatforms)
}

// ParsePlatform accepts a platform name case-insensitively.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(allPlatforms, p) {
		return "", fmt.Errorf("unknown platform %q", s)
	}
	return p, nil
}

// DisplayName is the platform's own spelling, used in diagnostics.
func (p Platform) DisplayName() string {
	switch p {
	case Bangumi:
		return "Bangumi"
	case AniList:
		return "AniList"
	case MyAnimeList:
		return "MyAnimeList"
	case Filmarks:
		return "Filmarks"
	default:
		return string(p)
	}
}

func (p Platform) String() string {
	return string(p)
}
