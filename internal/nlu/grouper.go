package nlu

import (
	"regexp"
	"strconv"
	"strings"
)

// The grouper pairs services with their date/time/duration references per
// the structural profile, producing one or more appointment drafts. Draft
// status is provisional: the semantic resolver may override it.

// GroupingResult is the grouper's output. Signal carries the structural
// clarification, if any; drafts still hold best-effort pairings so later
// stages have their required inputs.
type GroupingResult struct {
	Drafts []AppointmentDraft   `json:"appointments"`
	Signal *ClarificationSignal `json:"-"`
}

// Grouper builds appointment drafts from extraction plus structure.
type Grouper struct {
	vocab *Vocabulary
}

func NewGrouper(vocab *Vocabulary) *Grouper {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	return &Grouper{vocab: vocab}
}

// Group builds drafts. Services fan out to individual drafts only when the
// structure shows multiple logical bookings with separate services; a draft
// is never emitted without a service unless no service was extracted at all.
func (g *Grouper) Group(extraction *ExtractionResult, profile StructuralProfile) GroupingResult {
	services := make([]string, 0, len(extraction.Services))
	for _, s := range extraction.Services {
		key := s.CanonicalKey
		if key == "" {
			key = s.Text
		}
		services = append(services, key)
	}

	dateRef := pickDateRef(extraction)
	timeRefs := pickTimeRefs(extraction, profile)
	duration := 0
	if len(extraction.Durations) > 0 {
		duration = parseDurationMinutes(extraction.Durations[0].Text, g.vocab)
	}

	status := DraftOK
	var reason *ClarificationReason
	var signal *ClarificationSignal
	if r, data := g.structuralReason(extraction, profile); r != "" {
		status = DraftNeedsClarification
		rr := r
		reason = &rr
		signal = newSignal(priorityStructural, r, data)
	}

	fanOut := profile.BookingCount > 1 && profile.ServiceScope == ScopeSeparate && len(services) > 1
	if fanOut {
		drafts := make([]AppointmentDraft, 0, len(services))
		perService := profile.TimeScope == ScopePerService && len(timeRefs) >= len(services)
		for i, svc := range services {
			draft := AppointmentDraft{
				Services:        []string{svc},
				DateRef:         dateRef,
				DurationMinutes: duration,
				Status:          status,
				Reason:          reason,
			}
			if perService {
				draft.TimeRef = timeRefs[i]
				draft.TimeRefs = []string{timeRefs[i]}
			} else {
				draft.TimeRefs = timeRefs
				if len(timeRefs) > 0 {
					draft.TimeRef = timeRefs[0]
				}
			}
			drafts = append(drafts, draft)
		}
		return GroupingResult{Drafts: drafts, Signal: signal}
	}

	draft := AppointmentDraft{
		Services:        services,
		DateRef:         dateRef,
		TimeRefs:        timeRefs,
		DurationMinutes: duration,
		Status:          status,
		Reason:          reason,
	}
	if len(timeRefs) > 0 {
		draft.TimeRef = timeRefs[0]
	}
	return GroupingResult{Drafts: []AppointmentDraft{draft}, Signal: signal}
}

// structuralReason maps the structural hint, plus this stage's own pairing
// checks, to a single reasoned clarification.
func (g *Grouper) structuralReason(extraction *ExtractionResult, profile StructuralProfile) (ClarificationReason, map[string]any) {
	totalDates := len(extraction.Dates) + len(extraction.AbsoluteDates)
	if totalDates > 1 && !hasDateRangeMarker(extraction.ParameterizedText) {
		return ReasonMultipleDatesNoRange, map[string]any{
			"date_count": totalDates,
			"dates":      spanTexts(append(append([]EntitySpan{}, extraction.AbsoluteDates...), extraction.Dates...)),
		}
	}
	// Per-service times pair off with their services; only shared-scope
	// extras are unplaceable.
	if len(extraction.Times) > 1 && profile.TimeType != TimeTypeRange && profile.TimeScope == ScopeShared {
		return ReasonMultipleTimesNoRange, map[string]any{
			"time_count": len(extraction.Times),
			"times":      spanTexts(extraction.Times),
		}
	}
	if profile.NeedsClarificationHint {
		return ReasonConflictingScopes, map[string]any{
			"service_scope": string(profile.ServiceScope),
			"time_scope":    string(profile.TimeScope),
		}
	}
	return "", nil
}

// pickDateRef prefers an absolute date over a relative one when both exist.
func pickDateRef(extraction *ExtractionResult) string {
	if len(extraction.AbsoluteDates) > 0 {
		return extraction.AbsoluteDates[0].Text
	}
	if len(extraction.Dates) > 0 {
		return extraction.Dates[0].Text
	}
	return ""
}

// pickTimeRefs follows the structural time type: Exact keeps the ordered
// time tokens, Range takes the first two as bounds, Window passes the window
// phrase through unresolved.
func pickTimeRefs(extraction *ExtractionResult, profile StructuralProfile) []string {
	switch profile.TimeType {
	case TimeTypeExact:
		return spanTexts(extraction.Times)
	case TimeTypeRange:
		refs := spanTexts(extraction.Times)
		if len(refs) > 2 {
			refs = refs[:2]
		}
		return refs
	case TimeTypeWindow:
		if len(extraction.TimeWindows) > 0 {
			return []string{extraction.TimeWindows[0].Text}
		}
	}
	return nil
}

func hasDateRangeMarker(parameterized string) bool {
	for _, tok := range strings.Fields(parameterized) {
		if _, ok := dateRangeMarkers[tok]; ok {
			return true
		}
	}
	return false
}

func spanTexts(spans []EntitySpan) []string {
	texts := make([]string, 0, len(spans))
	for _, s := range spans {
		texts = append(texts, s.Text)
	}
	return texts
}

var durationNumber = regexp.MustCompile(`\d+`)

// parseDurationMinutes converts a duration phrase ("1 hour", "30 mins",
// "half an hour", "an hour") to minutes. Unknown phrases return 0.
func parseDurationMinutes(text string, vocab *Vocabulary) int {
	text = strings.TrimSpace(strings.ToLower(text))
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	if words[0] == "half" {
		return 30
	}
	if words[0] == "an" || words[0] == "a" || words[0] == "one" {
		if unit, ok := vocab.DurationUnits[words[len(words)-1]]; ok {
			return unit
		}
		return 0
	}
	numStr := durationNumber.FindString(text)
	if numStr == "" {
		return 0
	}
	n, err := strconv.Atoi(numStr)
	if err != nil {
		return 0
	}
	if unit, ok := vocab.DurationUnits[words[len(words)-1]]; ok {
		return n * unit
	}
	return 0
}
