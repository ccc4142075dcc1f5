package nlu

import "time"

// EntityKind classifies an extracted span. The set is closed; every stage
// switches over it exhaustively.
type EntityKind string

const (
	KindService      EntityKind = "service"
	KindDate         EntityKind = "date"          // relative ("tomorrow", "next friday")
	KindAbsoluteDate EntityKind = "date_absolute" // "15 dec", "15/12/2025"
	KindTime         EntityKind = "time"
	KindTimeWindow   EntityKind = "time_window" // "morning", "evening"
	KindDuration     EntityKind = "duration"
	KindOrdinal      EntityKind = "ordinal"
)

// Category placeholder tokens substituted into the parameterized sentence.
const (
	serviceToken    = "servicetoken"
	dateToken       = "datetoken"
	timeToken       = "timetoken"
	timeWindowToken = "timewindowtoken"
	durationToken   = "durationtoken"
	ordinalToken    = "ordinaltoken"
)

// EntitySpan is a single recognized entity over the normalized text.
// Immutable once produced by the extractor.
type EntitySpan struct {
	Kind         EntityKind `json:"kind"`
	Text         string     `json:"text"`
	CanonicalKey string     `json:"canonical_key,omitempty"`
	Start        int        `json:"start"`
	End          int        `json:"end"`
}

// AliasEntry maps one tenant alias to its canonical service family.
// Higher priority wins when two aliases cover the same text.
type AliasEntry struct {
	CanonicalFamily string `json:"canonical_family"`
	Priority        int    `json:"priority"`
}

// ExtractionResult is the extractor's output: entity spans grouped by kind
// (in utterance order) plus the parameterized sentence all later stages
// reason over. Consumed read-only.
type ExtractionResult struct {
	Services      []EntitySpan `json:"services"`
	Dates         []EntitySpan `json:"dates"`
	AbsoluteDates []EntitySpan `json:"dates_absolute"`
	Times         []EntitySpan `json:"times"`
	TimeWindows   []EntitySpan `json:"time_windows"`
	Durations     []EntitySpan `json:"durations"`
	Ordinals      []EntitySpan `json:"ordinals,omitempty"`

	NormalizedText    string `json:"normalized_text"`
	ParameterizedText string `json:"parameterized_text"`

	// ExplicitAliases records which tenant alias text produced each service
	// span, keyed by canonical family. Used by variant disambiguation.
	ExplicitAliases map[string]string `json:"explicit_aliases,omitempty"`
}

// HasTemporal reports whether any date or time entity was found.
func (r *ExtractionResult) HasTemporal() bool {
	return len(r.Dates) > 0 || len(r.AbsoluteDates) > 0 ||
		len(r.Times) > 0 || len(r.TimeWindows) > 0
}

// EntityCount is the total number of accepted entity spans.
func (r *ExtractionResult) EntityCount() int {
	return len(r.Services) + len(r.Dates) + len(r.AbsoluteDates) +
		len(r.Times) + len(r.TimeWindows) + len(r.Durations) + len(r.Ordinals)
}

// Intent is the canonical interpretation of what the user wants.
type Intent string

const (
	IntentCreateBooking  Intent = "CREATE_BOOKING"
	IntentCancelBooking  Intent = "CANCEL_BOOKING"
	IntentModifyBooking  Intent = "MODIFY_BOOKING"
	IntentBookingInquiry Intent = "BOOKING_INQUIRY"
	IntentAvailability   Intent = "AVAILABILITY"
	IntentDetails        Intent = "DETAILS"
	IntentQuote          Intent = "QUOTE"
	IntentDiscovery      Intent = "DISCOVERY"
	IntentRecommendation Intent = "RECOMMENDATION"
	IntentPayment        Intent = "PAYMENT"
	IntentUnknown        Intent = "UNKNOWN"
)

// ConfidenceTier is fixed per classification rule, not a score.
type ConfidenceTier string

const (
	TierHigh   ConfidenceTier = "high"
	TierMedium ConfidenceTier = "medium"
	TierLow    ConfidenceTier = "low"
)

// IntentDecision is the classifier's single decision for a request.
// Rule names the rule that fired, for traceability.
type IntentDecision struct {
	Intent Intent         `json:"name"`
	Tier   ConfidenceTier `json:"confidence_tier"`
	Rule   string         `json:"rule,omitempty"`
}

// requiresBinding reports whether a calendar range is meaningful for the intent.
func (d IntentDecision) requiresBinding() bool {
	switch d.Intent {
	case IntentAvailability, IntentCreateBooking, IntentModifyBooking, IntentBookingInquiry:
		return true
	}
	return false
}

// Scope describes whether a dimension (service/date/time) is shared across a
// booking or attached per item.
type Scope string

const (
	ScopeShared     Scope = "shared"
	ScopeSeparate   Scope = "separate"
	ScopePerService Scope = "per_service"
)

// TimeType is the syntactic shape of the time expression.
type TimeType string

const (
	TimeTypeExact  TimeType = "exact"
	TimeTypeRange  TimeType = "range"
	TimeTypeWindow TimeType = "window"
	TimeTypeNone   TimeType = "none"
)

// StructuralProfile captures how entities relate, not what they are.
type StructuralProfile struct {
	BookingCount int      `json:"booking_count"`
	ServiceScope Scope    `json:"service_scope"`
	DateScope    Scope    `json:"date_scope"`
	TimeScope    Scope    `json:"time_scope"`
	TimeType     TimeType `json:"time_type"`
	HasDuration  bool     `json:"has_duration"`

	// NeedsClarificationHint is a coarse structural conflict flag; the
	// grouper turns it into a reasoned draft status.
	NeedsClarificationHint bool `json:"needs_clarification_hint"`
}

// DraftStatus is the grouper's provisional verdict for one draft.
type DraftStatus string

const (
	DraftOK                 DraftStatus = "ok"
	DraftNeedsClarification DraftStatus = "needs_clarification"
)

// AppointmentDraft pairs services with their date/time/duration references.
// Every emitted draft carries at least one service reference.
type AppointmentDraft struct {
	Services        []string             `json:"services"`
	DateRef         string               `json:"date_ref,omitempty"`
	TimeRef         string               `json:"time_ref,omitempty"`
	TimeRefs        []string             `json:"time_refs,omitempty"`
	DurationMinutes int                  `json:"duration_minutes,omitempty"`
	Status          DraftStatus          `json:"status"`
	Reason          *ClarificationReason `json:"reason,omitempty"`
}

// DateMode classifies how date references resolve.
type DateMode string

const (
	DateModeAbsolute DateMode = "absolute"
	DateModeRelative DateMode = "relative"
	DateModeNone     DateMode = "none"
)

// TimeMode classifies how time references resolve. Precedence when several
// shapes coexist: exact > range > window > none.
type TimeMode string

const (
	TimeModeExact  TimeMode = "exact"
	TimeModeRange  TimeMode = "range"
	TimeModeWindow TimeMode = "window"
	TimeModeNone   TimeMode = "none"
)

// AliasResolution records how tenant aliases participated in resolution.
type AliasResolution struct {
	// ExplicitMatches maps canonical family → the alias text the user wrote.
	ExplicitMatches map[string]string `json:"explicit_matches,omitempty"`
	// AmbiguousFamilies lists families where several variants could apply
	// and none was explicit.
	AmbiguousFamilies []string `json:"ambiguous_families,omitempty"`
}

// ResolvedBooking is the semantic resolver's output.
type ResolvedBooking struct {
	Services        []string        `json:"services"`
	DateMode        DateMode        `json:"date_mode"`
	DateRefs        []string        `json:"date_refs"`
	TimeMode        TimeMode        `json:"time_mode"`
	TimeRefs        []string        `json:"time_refs"`
	Durations       []int           `json:"durations,omitempty"`
	AliasResolution AliasResolution `json:"alias_resolution"`
}

// DateRange is an absolute civil-date range (inclusive), "YYYY-MM-DD".
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// TimeRange is a clock-time range, "HH:MM".
type TimeRange struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// DatetimeRange is an absolute timezone-aware range.
type DatetimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// CalendarBooking is the binder's output. Bound is false for intents where a
// calendar range is not meaningful; that is a normal outcome, not an error.
type CalendarBooking struct {
	Bound         bool           `json:"bound"`
	DateRange     *DateRange     `json:"date_range,omitempty"`
	TimeRange     *TimeRange     `json:"time_range,omitempty"`
	DatetimeRange *DatetimeRange `json:"datetime_range,omitempty"`
}
