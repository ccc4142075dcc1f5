package nlu

import (
	"regexp"
	"strings"
)

// Structural interpretation infers the shape of the request — how many
// bookings, what is shared versus per-item, what kind of time expression is
// present — from the parameterized sentence and entity counts alone. No text
// reparsing happens here.

var timeRangePatterns = []*regexp.Regexp{
	regexp.MustCompile(`between ` + timeToken + ` and ` + timeToken),
	regexp.MustCompile(`from ` + timeToken + ` to ` + timeToken),
	regexp.MustCompile(timeToken + ` to ` + timeToken),
	regexp.MustCompile(timeToken + ` until ` + timeToken),
	regexp.MustCompile(timeToken + ` till ` + timeToken),
}

var dateRangeMarkers = map[string]struct{}{
	"from": {}, "to": {}, "until": {}, "till": {}, "between": {}, "through": {},
}

// StructuralInterpreter derives the StructuralProfile for a request.
type StructuralInterpreter struct {
	vocab *Vocabulary
}

func NewStructuralInterpreter(vocab *Vocabulary) *StructuralInterpreter {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	return &StructuralInterpreter{vocab: vocab}
}

// Interpret runs the structural rules in order. It determines how entities
// relate, never what they are, and it does not modify the extraction.
func (si *StructuralInterpreter) Interpret(extraction *ExtractionResult) StructuralProfile {
	tokens := strings.Fields(extraction.ParameterizedText)

	profile := StructuralProfile{
		BookingCount: si.countBookings(tokens),
		ServiceScope: si.serviceScope(tokens, extraction),
		DateScope:    ScopeShared,
		TimeType:     si.timeType(extraction),
		TimeScope:    si.timeScope(tokens),
		HasDuration:  len(extraction.Durations) > 0,
	}
	profile.NeedsClarificationHint = si.clarificationHint(tokens, extraction, profile)
	return profile
}

// countBookings: one booking unless multiple booking verbs appear, or a
// separator sits between two service tokens. A separator joining anything
// else ("tomorrow and friday") does not split the booking.
func (si *StructuralInterpreter) countBookings(tokens []string) int {
	verbCount := 0
	for _, tok := range tokens {
		if _, ok := si.vocab.BookingVerbs[tok]; ok {
			verbCount++
		}
	}
	if verbCount > 1 {
		return verbCount
	}
	positions := tokenPositions(tokens, serviceToken)
	for i := 0; i < len(positions)-1; i++ {
		for _, tok := range tokens[positions[i]+1 : positions[i+1]] {
			if _, ok := si.vocab.Separators[tok]; ok {
				return 2
			}
		}
	}
	return 1
}

// serviceScope: Shared iff every adjacent pair of service tokens is joined by
// a conjunction with no booking verb between them.
func (si *StructuralInterpreter) serviceScope(tokens []string, extraction *ExtractionResult) Scope {
	if len(extraction.Services) <= 1 {
		return ScopeSeparate
	}
	positions := tokenPositions(tokens, serviceToken)
	if len(positions) < 2 {
		return ScopeSeparate
	}
	for i := 0; i < len(positions)-1; i++ {
		between := tokens[positions[i]+1 : positions[i+1]]
		hasConjunction := false
		for _, tok := range between {
			if _, ok := si.vocab.BookingVerbs[tok]; ok {
				return ScopeSeparate
			}
			if _, ok := si.vocab.Conjunctions[tok]; ok {
				hasConjunction = true
			}
		}
		if !hasConjunction {
			return ScopeSeparate
		}
	}
	return ScopeShared
}

// timeType precedence: explicit range pattern → Range; any time token →
// Exact; any window token → Window; otherwise None.
func (si *StructuralInterpreter) timeType(extraction *ExtractionResult) TimeType {
	for _, p := range timeRangePatterns {
		if p.MatchString(extraction.ParameterizedText) {
			return TimeTypeRange
		}
	}
	if len(extraction.Times) > 0 {
		return TimeTypeExact
	}
	if len(extraction.TimeWindows) > 0 {
		return TimeTypeWindow
	}
	return TimeTypeNone
}

// timeScope: Shared when every time token follows every service token;
// interleaved or leading time tokens are per-service.
func (si *StructuralInterpreter) timeScope(tokens []string) Scope {
	servicePositions := tokenPositions(tokens, serviceToken)
	timePositions := append(tokenPositions(tokens, timeToken), tokenPositions(tokens, timeWindowToken)...)
	if len(timePositions) == 0 || len(servicePositions) == 0 {
		return ScopeShared
	}
	lastService := servicePositions[len(servicePositions)-1]
	firstTime := timePositions[0]
	for _, p := range timePositions {
		if p < firstTime {
			firstTime = p
		}
	}
	if firstTime > lastService {
		return ScopeShared
	}
	return ScopePerService
}

// clarificationHint raises the coarse structural conflict flag: multiple
// unmarked dates, multiple times without a range under shared scope, or
// separate services competing for one shared time.
func (si *StructuralInterpreter) clarificationHint(tokens []string, extraction *ExtractionResult, profile StructuralProfile) bool {
	totalDates := len(extraction.Dates) + len(extraction.AbsoluteDates)
	if totalDates > 1 {
		hasMarker := false
		for _, tok := range tokens {
			if _, ok := dateRangeMarkers[tok]; ok {
				hasMarker = true
				break
			}
		}
		if !hasMarker {
			return true
		}
	}
	if len(extraction.Times) > 1 && profile.TimeType != TimeTypeRange && profile.TimeScope == ScopeShared {
		return true
	}
	if profile.ServiceScope == ScopeSeparate && len(extraction.Services) > 1 &&
		profile.TimeScope == ScopeShared && len(extraction.Times) == 1 {
		return true
	}
	return false
}

func tokenPositions(tokens []string, want string) []int {
	var positions []int
	for i, tok := range tokens {
		if tok == want {
			positions = append(positions, i)
		}
	}
	return positions
}
