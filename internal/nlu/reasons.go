package nlu

// ClarificationReason is a closed set of reasons the pipeline may ask the
// user for more input. Reasons are grouped by the stage that raises them;
// when several fire, structural reasons outrank semantic ones, which outrank
// calendar validation failures.
type ClarificationReason string

const (
	// Structural / grouping conflicts.
	ReasonConflictingScopes    ClarificationReason = "conflicting_scopes"
	ReasonMultipleDatesNoRange ClarificationReason = "multiple_dates_no_range"
	ReasonMultipleTimesNoRange ClarificationReason = "multiple_times_no_range"

	// Semantic ambiguity.
	ReasonConflictingSignals    ClarificationReason = "conflicting_signals"
	ReasonAmbiguousTimeNoWindow ClarificationReason = "ambiguous_time_no_window"
	ReasonBareWeekday           ClarificationReason = "bare_weekday"
	ReasonVagueDate             ClarificationReason = "vague_date_reference"
	ReasonContextDependentDate  ClarificationReason = "context_dependent_date"
	ReasonLocaleAmbiguousDate   ClarificationReason = "locale_ambiguous_date"
	ReasonServiceVariant        ClarificationReason = "service_variant"

	// Calendar binding gaps.
	ReasonMissingDate ClarificationReason = "missing_date"
	ReasonMissingTime ClarificationReason = "missing_time"
)

// stagePriority orders clarification sources for terminal arbitration.
// Lower value wins.
type stagePriority int

const (
	priorityStructural stagePriority = iota
	prioritySemantic
	priorityCalendar
)

// ClarificationSignal is a structured, reason-coded request for more user
// input. Data carries only what a renderer needs to phrase the question; no
// message text lives here.
type ClarificationSignal struct {
	Reason ClarificationReason `json:"reason"`
	Data   map[string]any      `json:"data,omitempty"`

	priority stagePriority
}

func newSignal(p stagePriority, reason ClarificationReason, data map[string]any) *ClarificationSignal {
	return &ClarificationSignal{Reason: reason, Data: data, priority: p}
}

// arbitrate picks the single surfaced clarification from the candidates each
// stage attached, honoring structural > semantic > calendar. Candidates keep
// pipeline order, so the earlier stage wins ties.
func arbitrate(candidates ...*ClarificationSignal) *ClarificationSignal {
	var winner *ClarificationSignal
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if winner == nil || c.priority < winner.priority {
			winner = c
		}
	}
	return winner
}
