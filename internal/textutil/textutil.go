// Package textutil holds the small string helpers shared by the extractors.
package textutil

import (
	"html"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	searchNoise = regexp.MustCompile(`[-*@#.+]`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// SearchKey derives the query string sent to platform search endpoints.
// The title is NFKC-folded so full-width forms match their ASCII spelling,
// then characters that upset the search backends are replaced by spaces.
func SearchKey(name string) string {
	s := norm.NFKC.String(name)
	s = searchNoise.ReplaceAllString(s, " ")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// UnescapeName decodes HTML entities left in names scraped from markup.
func UnescapeName(name string) string {
	return html.UnescapeString(strings.TrimSpace(name))
}

// NormSpace collapses runs of whitespace into single spaces.
func NormSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
