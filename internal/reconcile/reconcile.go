// Package reconcile compares the release months reported by each platform
// and records titles whose dates are missing or disagree.
package reconcile

import (
	"fmt"
	"strings"

	"github.com/lepinkainen/ratingsync/internal/model"
)

// Kind classifies a reconciliation.
type Kind int

const (
	// KindEmpty means no platform reported a date.
	KindEmpty Kind = iota
	// KindPartial means the reported dates agree but some are missing.
	KindPartial
	// KindConsistent means every platform reported the same date.
	KindConsistent
	// KindConflicting means at least two reported dates differ.
	KindConflicting
)

func (k Kind) String() string {
	switch k {
	case KindPartial:
		return "partial"
	case KindConsistent:
		return "consistent"
	case KindConflicting:
		return "conflicting"
	default:
		return "empty"
	}
}

const (
	missingSuffix   = " found no entry"
	emptyDiagnostic = "no platform found an entry"
)

// Report is the reconciliation of one title.
type Report struct {
	Title       string
	Periods     map[model.Platform]model.Period
	Missing     []model.Platform
	Conflicting []model.Platform
	Kind        Kind
	Diagnostic  string
}

// Ledgered reports whether the title belongs in the date error ledger.
// Titles no platform could find carry a diagnostic but are not ledgered.
func (r Report) Ledgered() bool {
	return r.Kind != KindEmpty && r.Diagnostic != ""
}

// Reconcile compares periods across every platform in reporting order.
// Platforms absent from periods, or with a zero period, count as missing.
func Reconcile(title string, periods map[model.Platform]model.Period) Report {
	r := Report{
		Title:   title,
		Periods: make(map[model.Platform]model.Period),
	}

	var present []model.Platform
	for _, p := range model.Platforms() {
		if period := periods[p]; !period.IsZero() {
			r.Periods[p] = period
			present = append(present, p)
		} else {
			r.Missing = append(r.Missing, p)
		}
	}

	switch {
	case len(present) == 0:
		r.Kind = KindEmpty
		r.Diagnostic = emptyDiagnostic
	case allEqual(present, r.Periods):
		if len(r.Missing) == 0 {
			r.Kind = KindConsistent
		} else {
			r.Kind = KindPartial
			r.Diagnostic = missingText(r.Missing)
		}
	default:
		r.Kind = KindConflicting
		r.Conflicting = present
		parts := make([]string, 0, len(present))
		for _, p := range present {
			parts = append(parts, fmt.Sprintf("%s: %s", p.DisplayName(), r.Periods[p]))
		}
		r.Diagnostic = strings.Join(parts, "; ")
		if len(r.Missing) > 0 {
			r.Diagnostic = missingText(r.Missing) + "; " + r.Diagnostic
		}
	}
	return r
}

// FromResults reconciles the periods of resolved results.
func FromResults(title string, results map[model.Platform]model.Result) Report {
	periods := make(map[model.Platform]model.Period, len(results))
	for p, res := range results {
		if res.IsResolved() {
			periods[p] = res.Period
		}
	}
	return Reconcile(title, periods)
}

func allEqual(present []model.Platform, periods map[model.Platform]model.Period) bool {
	first := periods[present[0]]
	for _, p := range present[1:] {
		if periods[p] != first {
			return false
		}
	}
	return true
}

func missingText(missing []model.Platform) string {
	names := make([]string, 0, len(missing))
	for _, p := range missing {
		names = append(names, p.DisplayName())
	}
	return strings.Join(names, "/") + missingSuffix
}
