package model

import (
	"strings"

	"github.com/lepinkainen/ratingsync/internal/textutil"
)

// Title is one input row: the name to look up plus any per-platform links
// supplied by the user.
type Title struct {
	Original  string
	SearchKey string
	Seeds     map[Platform]string
}

// NewTitle derives the search key and drops blank seeds.
func NewTitle(original string, seeds map[Platform]string) Title {
	t := Title{
		Original:  strings.TrimSpace(original),
		SearchKey: textutil.SearchKey(original),
		Seeds:     make(map[Platform]string, len(seeds)),
	}
	for p, link := range seeds {
		if link = strings.TrimSpace(link); link != "" {
			t.Seeds[p] = link
		}
	}
	return t
}

// Seed returns the user-supplied link for p, if any.
func (t Title) Seed(p Platform) string {
	return t.Seeds[p]
}
