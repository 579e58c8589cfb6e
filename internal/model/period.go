package model

import (
	"fmt"
	"strconv"
)

// Period is a release month formatted YYYYMM. The zero value means the
// date is unknown.
type Period string

// NewPeriod builds a period from a year and a 1-based month.
func NewPeriod(year, month int) (Period, error) {
	if year < 1000 || year > 9999 {
		return "", fmt.Errorf("year %d out of range", year)
	}
	if month < 1 || month > 12 {
		return "", fmt.Errorf("month %d out of range", month)
	}
	return Period(fmt.Sprintf("%04d%02d", year, month)), nil
}

// ParsePeriod validates a YYYYMM string.
func ParsePeriod(s string) (Period, error) {
	if len(s) != 6 {
		return "", fmt.Errorf("period %q is not YYYYMM", s)
	}
	year, err := strconv.Atoi(s[:4])
	if err != nil {
		return "", fmt.Errorf("period %q: %w", s, err)
	}
	month, err := strconv.Atoi(s[4:])
	if err != nil {
		return "", fmt.Errorf("period %q: %w", s, err)
	}
	return NewPeriod(year, month)
}

func (p Period) IsZero() bool {
	return p == ""
}

// Year returns the four-digit year, or 0 for an unknown period.
func (p Period) Year() int {
	if len(p) != 6 {
		return 0
	}
	year, err := strconv.Atoi(string(p[:4]))
	if err != nil {
		return 0
	}
	return year
}

func (p Period) String() string {
	return string(p)
}
