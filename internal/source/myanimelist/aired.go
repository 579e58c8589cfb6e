package myanimelist

import (
	"regexp"
	"strconv"

	"github.com/lepinkainen/ratingsync/internal/model"
)

var (
	airedDay   = regexp.MustCompile(`([A-Za-z]{3})\s+\d{1,2},\s+(\d{4})`)
	airedMonth = regexp.MustCompile(`([A-Za-z]{3}),?\s+(\d{4})`)
	airedYear  = regexp.MustCompile(`^(\d{4})`)
)

var months = map[string]int{
	"Jan": 1, "Feb": 2, "Mar": 3, "Apr": 4, "May": 5, "Jun": 6,
	"Jul": 7, "Aug": 8, "Sep": 9, "Oct": 10, "Nov": 11, "Dec": 12,
}

// parseAired reads the start of an Aired value such as
// "Jan 10, 2025 to ?". A bare year yields a year without a period.
func parseAired(aired string) (model.Period, int) {
	for _, re := range []*regexp.Regexp{airedDay, airedMonth} {
		m := re.FindStringSubmatch(aired)
		if m == nil {
			continue
		}
		year, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		month, ok := months[m[1]]
		if !ok {
			return "", year
		}
		p, err := model.NewPeriod(year, month)
		if err != nil {
			return "", year
		}
		return p, year
	}

	if m := airedYear.FindStringSubmatch(aired); m != nil {
		year, _ := strconv.Atoi(m[1])
		return "", year
	}
	return "", 0
}
