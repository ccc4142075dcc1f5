package nlu

import (
	"sync"
	"time"
)

// Vocabulary is the process-lifetime lookup structure consumed by the
// extractor, semantic resolver, and calendar binder. It is built at most once
// (first use or eager warmup via DefaultVocabulary) and never mutated after;
// stages receive it by injection, never through a mutable global.
type Vocabulary struct {
	// ServiceFamilies maps generic surface phrases to canonical family keys.
	ServiceFamilies map[string]string

	// RelativeDates maps relative day phrases to day offsets from "now".
	RelativeDates map[string]int

	Weekdays map[string]time.Weekday

	// TimeWindows maps window phrases to their configured clock bounds.
	TimeWindows map[string]TimeRange

	// DateModifiers qualify a weekday or relative day ("this", "next").
	DateModifiers []string

	VagueDates            map[string]struct{}
	ContextDependentDates []string

	BookingVerbs map[string]struct{}
	Separators   map[string]struct{}
	Conjunctions map[string]struct{}

	// DurationUnits maps a unit word to its minutes multiplier.
	DurationUnits map[string]int
}

var (
	vocabOnce sync.Once
	vocab     *Vocabulary
)

// DefaultVocabulary returns the shared immutable vocabulary, building it on
// first call. Safe for concurrent first callers.
func DefaultVocabulary() *Vocabulary {
	vocabOnce.Do(func() {
		vocab = buildVocabulary()
	})
	return vocab
}

func buildVocabulary() *Vocabulary {
	return &Vocabulary{
		ServiceFamilies: map[string]string{
			"haircut":      "haircut",
			"hair cut":     "haircut",
			"cut":          "haircut",
			"trim":         "haircut",
			"beard trim":   "beard_trim",
			"shave":        "beard_trim",
			"massage":      "massage",
			"deep tissue":  "massage",
			"facial":       "facial",
			"manicure":     "manicure",
			"pedicure":     "pedicure",
			"waxing":       "waxing",
			"wax":          "waxing",
			"coloring":     "coloring",
			"hair color":   "coloring",
			"highlights":   "coloring",
			"consultation": "consultation",
			"consult":      "consultation",
		},
		RelativeDates: map[string]int{
			"today":              0,
			"tonight":            0,
			"tomorrow":           1,
			"day after tomorrow": 2,
		},
		Weekdays: map[string]time.Weekday{
			"monday":    time.Monday,
			"tuesday":   time.Tuesday,
			"wednesday": time.Wednesday,
			"thursday":  time.Thursday,
			"friday":    time.Friday,
			"saturday":  time.Saturday,
			"sunday":    time.Sunday,
		},
		TimeWindows: map[string]TimeRange{
			"morning":   {StartTime: "08:00", EndTime: "12:00"},
			"afternoon": {StartTime: "12:00", EndTime: "17:00"},
			"evening":   {StartTime: "17:00", EndTime: "21:00"},
			"night":     {StartTime: "21:00", EndTime: "23:59"},
			"noon":      {StartTime: "12:00", EndTime: "12:00"},
		},
		DateModifiers: []string{"this", "next", "coming", "following"},
		VagueDates: map[string]struct{}{
			"sometime":  {},
			"soon":      {},
			"later":     {},
			"next week": {},
			"whenever":  {},
		},
		ContextDependentDates: []string{
			"the day after",
			"the following day",
			"same day",
			"that day",
		},
		BookingVerbs: map[string]struct{}{
			"book": {}, "schedule": {}, "reserve": {}, "reservation": {},
			"appointment": {}, "appoint": {}, "set": {}, "arrange": {}, "plan": {},
		},
		Separators: map[string]struct{}{
			"and": {}, "then": {}, "next": {}, "after": {}, "also": {}, "plus": {}, "or": {},
		},
		Conjunctions: map[string]struct{}{
			"and": {}, "or": {}, "plus": {}, "&": {},
		},
		DurationUnits: map[string]int{
			"hour": 60, "hours": 60, "hr": 60, "hrs": 60, "h": 60,
			"minute": 1, "minutes": 1, "min": 1, "mins": 1, "m": 1,
		},
	}
}
