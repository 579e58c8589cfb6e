package model

import (
	"fmt"
	"regexp"
	"strconv"
)

var fourDigits = regexp.MustCompile(`^\d{4}$`)

// YearWindow accepts the configured target year and the year before it.
type YearWindow struct {
	target int
}

// NewYearWindow parses a target year given as exactly four digits.
func NewYearWindow(target string) (YearWindow, error) {
	if !fourDigits.MatchString(target) {
		return YearWindow{}, fmt.Errorf("target year %q must be four digits", target)
	}
	year, err := strconv.Atoi(target)
	if err != nil {
		return YearWindow{}, fmt.Errorf("target year %q: %w", target, err)
	}
	return YearWindow{target: year}, nil
}

// WindowFor is NewYearWindow for callers that already hold a valid year.
func WindowFor(year int) YearWindow {
	return YearWindow{target: year}
}

func (w YearWindow) Target() int {
	return w.target
}

func (w YearWindow) IsZero() bool {
	return w.target == 0
}

// Contains reports whether year falls in the window.
func (w YearWindow) Contains(year int) bool {
	if w.target == 0 || year <= 0 {
		return false
	}
	return year == w.target || year == w.target-1
}

func (w YearWindow) String() string {
	return fmt.Sprintf("%d/%d", w.target, w.target-1)
}
