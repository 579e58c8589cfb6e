package model

// Status is the outcome of one extraction.
type Status int

const (
	StatusPending Status = iota
	StatusResolved
	StatusNotFound
	StatusAmbiguousExhausted
	StatusTransportFailed
	StatusParseFailed
)

func (s Status) String() string {
	switch s {
	case StatusResolved:
		return "resolved"
	case StatusNotFound:
		return "not-found"
	case StatusAmbiguousExhausted:
		return "ambiguous-exhausted"
	case StatusTransportFailed:
		return "transport-failed"
	case StatusParseFailed:
		return "parse-failed"
	default:
		return "pending"
	}
}

// FallbackEligible reports whether a name-based retry could plausibly
// change the outcome. Transport and parse failures are not retried.
func (s Status) FallbackEligible() bool {
	return s == StatusNotFound || s == StatusAmbiguousExhausted
}

// Sentinel is one of the fixed strings shown in place of a missing field.
type Sentinel string

const (
	SentinelNotFound      Sentinel = "No results found"
	SentinelNoAcceptable  Sentinel = "No acceptable subject found"
	SentinelRequestFailed Sentinel = "Request failed"
	SentinelParseError    Sentinel = "Parse error"
	SentinelNoScore       Sentinel = "No score available"
	SentinelNoVotes       Sentinel = "No vote data available"
	SentinelNoDate        Sentinel = "No date available"
)

var sentinels = map[Sentinel]struct{}{
	SentinelNotFound:      {},
	SentinelNoAcceptable:  {},
	SentinelRequestFailed: {},
	SentinelParseError:    {},
	SentinelNoScore:       {},
	SentinelNoVotes:       {},
	SentinelNoDate:        {},
}

// IsSentinel reports whether text is a placeholder rather than real data.
func IsSentinel(text string) bool {
	_, ok := sentinels[Sentinel(text)]
	return ok
}

// Sentinel maps a failure status onto its placeholder text. Resolved and
// pending results have no sentinel.
func (s Status) Sentinel() (Sentinel, bool) {
	switch s {
	case StatusNotFound:
		return SentinelNotFound, true
	case StatusAmbiguousExhausted:
		return SentinelNoAcceptable, true
	case StatusTransportFailed:
		return SentinelRequestFailed, true
	case StatusParseFailed:
		return SentinelParseError, true
	default:
		return "", false
	}
}
