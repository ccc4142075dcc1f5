package nlu

import (
	"regexp"
	"sort"
	"strings"

	"github.com/bookpilot/booking-nlu/pkg/logging"
)

// The semantic resolver turns raw date/time references into resolution modes
// and catches the ambiguity classes grouping cannot see. It consults the
// process-lifetime vocabulary injected at construction; it never reloads it.

var (
	modifierPlusRelative = regexp.MustCompile(`\b(this|next|coming|following) (today|tonight|tomorrow)\b`)
	fuzzyHourMarker      = regexp.MustCompile(`\b(ish|around|about)\b`)
	bareHourOnly         = regexp.MustCompile(`^\d{1,2}$`)
	localeSlashDate      = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})$`)
	digitsOnly           = regexp.MustCompile(`\d{1,2}`)
)

// SemanticResolver resolves date/time modes and alias-variant conflicts.
type SemanticResolver struct {
	vocab  *Vocabulary
	logger *logging.Logger
}

// NewSemanticResolver injects the immutable vocabulary. Callers share one
// vocabulary per process (see DefaultVocabulary).
func NewSemanticResolver(vocab *Vocabulary, logger *logging.Logger) *SemanticResolver {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SemanticResolver{vocab: vocab, logger: logger}
}

// Resolve produces the ResolvedBooking plus at most one semantic
// clarification. The booking is always populated best-effort so the binder
// has its required inputs even when a clarification fires.
func (sr *SemanticResolver) Resolve(
	extraction *ExtractionResult,
	profile StructuralProfile,
	grouping GroupingResult,
	aliases map[string]AliasEntry,
) (ResolvedBooking, *ClarificationSignal) {
	booking := ResolvedBooking{
		Services: draftServices(grouping),
		AliasResolution: AliasResolution{
			ExplicitMatches: extraction.ExplicitAliases,
		},
	}

	booking.DateMode, booking.DateRefs = sr.resolveDateMode(extraction)
	booking.TimeMode, booking.TimeRefs = sr.resolveTimeMode(extraction, profile)
	for _, d := range extraction.Durations {
		if mins := parseDurationMinutes(d.Text, sr.vocab); mins > 0 {
			booking.Durations = append(booking.Durations, mins)
		}
	}

	// Service-variant conflicts rank ahead of the temporal checks: a wrong
	// service is a worse misunderstanding than a vague time.
	if signal := sr.checkServiceVariants(&booking, extraction, aliases); signal != nil {
		return booking, signal
	}
	if signal := sr.checkDateAmbiguity(extraction); signal != nil {
		return booking, signal
	}
	if signal := sr.checkTimeAmbiguity(extraction); signal != nil {
		return booking, signal
	}
	return booking, nil
}

// resolveDateMode applies absolute > relative precedence.
func (sr *SemanticResolver) resolveDateMode(extraction *ExtractionResult) (DateMode, []string) {
	if len(extraction.AbsoluteDates) > 0 {
		return DateModeAbsolute, spanTexts(extraction.AbsoluteDates)
	}
	if len(extraction.Dates) > 0 {
		return DateModeRelative, spanTexts(extraction.Dates)
	}
	return DateModeNone, nil
}

// resolveTimeMode applies exact > range > window > none. A window coexisting
// with an exact time is discarded: the user's explicit hour always wins.
// Fuzzy markers are stripped from refs when a window supplies the
// time-of-day context, leaving the binder a plain hour to bias.
func (sr *SemanticResolver) resolveTimeMode(extraction *ExtractionResult, profile StructuralProfile) (TimeMode, []string) {
	switch profile.TimeType {
	case TimeTypeRange:
		refs := spanTexts(extraction.Times)
		if len(refs) > 2 {
			refs = refs[:2]
		}
		return TimeModeRange, refs
	case TimeTypeExact:
		refs := make([]string, 0, len(extraction.Times))
		for _, t := range extraction.Times {
			text := t.Text
			if fuzzyHourMarker.MatchString(text) && len(extraction.TimeWindows) > 0 {
				if h := digitsOnly.FindString(text); h != "" {
					text = h
				}
			}
			refs = append(refs, text)
		}
		return TimeModeExact, refs
	case TimeTypeWindow:
		if len(extraction.TimeWindows) > 0 {
			return TimeModeWindow, []string{extraction.TimeWindows[0].Text}
		}
	}
	return TimeModeNone, nil
}

// checkServiceVariants builds the per-family variant sets from the tenant
// alias table and flags families where several variants could apply and none
// was the alias explicitly matched in extraction.
func (sr *SemanticResolver) checkServiceVariants(
	booking *ResolvedBooking,
	extraction *ExtractionResult,
	aliases map[string]AliasEntry,
) *ClarificationSignal {
	if len(aliases) == 0 {
		return nil
	}
	variantsByFamily := make(map[string][]string)
	for alias, entry := range aliases {
		family := entry.CanonicalFamily
		variantsByFamily[family] = append(variantsByFamily[family], normalizeText(alias))
	}
	for _, variants := range variantsByFamily {
		sort.Strings(variants)
	}

	var ambiguous []string
	for _, family := range booking.Services {
		variants := variantsByFamily[family]
		if len(variants) <= 1 {
			continue
		}
		if _, explicit := extraction.ExplicitAliases[family]; explicit {
			continue
		}
		ambiguous = append(ambiguous, family)
	}
	if len(ambiguous) == 0 {
		return nil
	}
	sort.Strings(ambiguous)
	booking.AliasResolution.AmbiguousFamilies = ambiguous
	first := ambiguous[0]
	return newSignal(prioritySemantic, ReasonServiceVariant, map[string]any{
		"family":     first,
		"candidates": variantsByFamily[first],
	})
}

// checkDateAmbiguity runs the date detectors in a fixed order: conflicting
// modifier+relative, vague references, context-dependent phrases, bare
// weekdays, locale-ambiguous numerics.
func (sr *SemanticResolver) checkDateAmbiguity(extraction *ExtractionResult) *ClarificationSignal {
	if m := modifierPlusRelative.FindStringSubmatch(extraction.NormalizedText); m != nil {
		return newSignal(prioritySemantic, ReasonConflictingSignals, map[string]any{
			"modifier": m[1],
			"date":     m[2],
		})
	}
	for _, d := range extraction.Dates {
		text := strings.TrimSpace(d.Text)
		if _, vague := sr.vocab.VagueDates[text]; vague {
			return newSignal(prioritySemantic, ReasonVagueDate, map[string]any{"date_text": text})
		}
		for _, phrase := range sr.vocab.ContextDependentDates {
			if text == phrase {
				return newSignal(prioritySemantic, ReasonContextDependentDate, map[string]any{"date_text": text})
			}
		}
		if sr.isBareWeekday(text) {
			return newSignal(prioritySemantic, ReasonBareWeekday, map[string]any{"weekday": text})
		}
	}
	for _, d := range extraction.AbsoluteDates {
		if m := localeSlashDate.FindStringSubmatch(d.Text); m != nil {
			// Both fields could be a month: 3/4 is March 4th or April 3rd.
			if atoiSafe(m[1]) <= 12 && atoiSafe(m[2]) <= 12 {
				return newSignal(prioritySemantic, ReasonLocaleAmbiguousDate, map[string]any{"date_text": d.Text})
			}
		}
	}
	return nil
}

// checkTimeAmbiguity flags fuzzy hour phrases and bare hours that have no
// window to disambiguate them. A bare weekday never resolves silently;
// neither does a meridiem-less hour.
func (sr *SemanticResolver) checkTimeAmbiguity(extraction *ExtractionResult) *ClarificationSignal {
	hasWindow := len(extraction.TimeWindows) > 0
	for _, t := range extraction.Times {
		text := strings.TrimSpace(t.Text)
		if fuzzyHourMarker.MatchString(text) && !hasWindow {
			return newSignal(prioritySemantic, ReasonAmbiguousTimeNoWindow, map[string]any{"time": text})
		}
		if bareHourOnly.MatchString(text) && !hasWindow {
			return newSignal(prioritySemantic, ReasonAmbiguousTimeNoWindow, map[string]any{"time": text})
		}
	}
	return nil
}

// isBareWeekday reports a weekday reference with no this/next qualifier.
func (sr *SemanticResolver) isBareWeekday(text string) bool {
	if _, ok := sr.vocab.Weekdays[text]; ok {
		return true
	}
	return false
}

func draftServices(grouping GroupingResult) []string {
	var services []string
	seen := make(map[string]struct{})
	for _, draft := range grouping.Drafts {
		for _, svc := range draft.Services {
			if _, dup := seen[svc]; dup {
				continue
			}
			seen[svc] = struct{}{}
			services = append(services, svc)
		}
	}
	return services
}

func atoiSafe(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}
