package fetcher

import (
	"errors"
	"time"
)

// ErrEmptyKeyword rejects a search before any proxy is consumed.
var ErrEmptyKeyword = errors.New("keyword must not be empty")

// Outcome classifies how a search ended.
type Outcome int

const (
	// Found means a video ID was extracted from a results page.
	Found Outcome = iota
	// NotFound means YouTube returned a well-formed page with zero results.
	NotFound
	// Exhausted means every allotted attempt failed or no proxies were
	// available to try.
	Exhausted
	// TransportError means the caller's context was cancelled before a
	// terminal answer was reached.
	TransportError
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case Exhausted:
		return "exhausted"
	case TransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// Result is the terminal answer for one search, always carrying the total
// wall-clock duration regardless of outcome.
type Result struct {
	Keyword  string
	Kind     Outcome
	VideoID  string
	Detail   string
	Duration time.Duration
}

// Sink receives every terminal search result. Implementations must not
// block; slow destinations should buffer internally.
type Sink interface {
	Record(res Result)
}
