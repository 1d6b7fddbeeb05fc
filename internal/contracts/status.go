package contracts

import "unicode/utf8"

// Status is the classification of one rule evaluation
// ⭐ SSOT: 분류 규칙은 Classify와 aggregate.statusCase 두 곳이 같은 순서를 유지
type Status string

const (
	StatusPassing   Status = "PASSING"
	StatusBreaking  Status = "BREAKING"
	StatusException Status = "EXCEPTION"
	// StatusUnknown collects rows no rule matches (null or negative score,
	// zero score with a one character exception)
	StatusUnknown Status = "UNKNOWN"
)

// StatusOrder is the fixed display order for slices, segments and lines
var StatusOrder = []Status{StatusPassing, StatusBreaking, StatusException, StatusUnknown}

// CanonicalStatuses are always reported by global health, even at count 0
var CanonicalStatuses = []Status{StatusPassing, StatusBreaking, StatusException}

// Rank returns the position of s in StatusOrder (unrecognised values last)
func (s Status) Rank() int {
	for i, st := range StatusOrder {
		if st == s {
			return i
		}
	}
	return len(StatusOrder)
}

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	return s.Rank() < len(StatusOrder)
}

// IsBreak reports whether s counts as a break (BREAKING or EXCEPTION)
func (s Status) IsBreak() bool {
	return s == StatusBreaking || s == StatusException
}

// Classify maps a score / exception pair to its status.
// An exception longer than one character wins over any score.
func Classify(score *float64, exception *string) Status {
	exc := ""
	if exception != nil {
		exc = *exception
	}

	switch {
	case utf8.RuneCountInString(exc) > 1:
		return StatusException
	case score != nil && *score == 0 && exc == "":
		return StatusPassing
	case score != nil && *score > 0:
		return StatusBreaking
	default:
		return StatusUnknown
	}
}
