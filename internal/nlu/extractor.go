package nlu

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/bookpilot/booking-nlu/pkg/logging"
)

// Domain restricts which entity kinds are legal for a request. Disallowed
// kinds are dropped silently; they are not errors, just not applicable.
type Domain string

const (
	// DomainService covers appointment-style bookings (date + clock time).
	DomainService Domain = "service"
	// DomainReservation covers stay-style bookings. Reservations are
	// date-range shaped, so clock-time kinds are not applicable.
	DomainReservation Domain = "reservation"
)

// ValidDomain reports whether d names a known domain.
func ValidDomain(d Domain) bool {
	return d == DomainService || d == DomainReservation
}

var domainAllowedKinds = map[Domain]map[EntityKind]bool{
	DomainService: {
		KindService: true, KindDate: true, KindAbsoluteDate: true,
		KindTime: true, KindTimeWindow: true, KindDuration: true, KindOrdinal: true,
	},
	DomainReservation: {
		KindService: true, KindDate: true, KindAbsoluteDate: true,
		KindDuration: true, KindOrdinal: true,
	},
}

const maxPhraseTokens = 5

var monthNumbers = map[string]int{
	"jan": 1, "january": 1, "feb": 2, "february": 2, "mar": 3, "march": 3,
	"apr": 4, "april": 4, "may": 5, "jun": 6, "june": 6, "jul": 7, "july": 7,
	"aug": 8, "august": 8, "sep": 9, "september": 9, "oct": 10, "october": 10,
	"nov": 11, "november": 11, "dec": 12, "december": 12,
}

var ordinalWords = map[string]int{
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
	"sixth": 6, "seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10,
}

var (
	clockWithMeridiem = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?(am|pm)$`)
	clockPlain        = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	slashDate         = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})(?:[/-](\d{2,4}))?$`)
	bareNumber        = regexp.MustCompile(`^\d{1,2}$`)
	yearNumber        = regexp.MustCompile(`^(19|20)\d{2}$`)
	ordinalSuffix     = regexp.MustCompile(`^(st|nd|rd|th)$`)
)

// Extractor turns raw text plus a tenant alias table into typed entity spans
// and the parameterized sentence every later stage reasons over.
type Extractor struct {
	vocab     *Vocabulary
	annotator Annotator
	logger    *logging.Logger
}

// NewExtractor builds an extractor around the injected vocabulary and
// tokenizer collaborator.
func NewExtractor(vocab *Vocabulary, annotator Annotator, logger *logging.Logger) *Extractor {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	if annotator == nil {
		annotator = WhitespaceAnnotator{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Extractor{vocab: vocab, annotator: annotator, logger: logger}
}

// span is an internal match over a token range, later flattened into
// EntitySpans and placeholder substitutions.
type span struct {
	kind      EntityKind
	text      string
	canonical string
	startTok  int
	endTok    int
	alias     string // tenant alias text, when the span came from the alias table
}

// Extract runs normalization, tokenization, alias and vocabulary matching,
// the domain whitelist, and parameterization. It never raises a
// clarification; zero-entity results are the caller's hard-failure signal.
func (e *Extractor) Extract(text string, domain Domain, aliases map[string]AliasEntry) *ExtractionResult {
	normalized := glueMeridiem(normalizeText(text))
	tokens := e.annotator.Annotate(normalized)
	allowed := domainAllowedKinds[domain]
	if allowed == nil {
		allowed = domainAllowedKinds[DomainService]
	}

	consumed := make([]bool, len(tokens))
	var spans []span

	// Alias spans win over generic service spans, so they match first.
	if allowed[KindService] {
		spans = append(spans, e.matchAliases(tokens, consumed, aliases)...)
		spans = append(spans, e.matchPhraseMap(tokens, consumed, e.vocab.ServiceFamilies, KindService)...)
	}
	if allowed[KindAbsoluteDate] {
		spans = append(spans, e.matchAbsoluteDates(tokens, consumed)...)
	}
	if allowed[KindDate] {
		spans = append(spans, e.matchRelativeDates(tokens, consumed)...)
	}
	if allowed[KindDuration] {
		spans = append(spans, e.matchDurations(tokens, consumed)...)
	}
	if allowed[KindTime] {
		spans = append(spans, e.matchTimes(tokens, consumed)...)
	}
	if allowed[KindTimeWindow] {
		spans = append(spans, e.matchTimeWindows(tokens, consumed)...)
	}
	if allowed[KindOrdinal] {
		spans = append(spans, e.matchOrdinals(tokens, consumed)...)
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].startTok < spans[j].startTok })

	result := &ExtractionResult{
		NormalizedText:    normalized,
		ParameterizedText: parameterize(tokens, spans),
	}
	for _, s := range spans {
		es := EntitySpan{
			Kind:         s.kind,
			Text:         s.text,
			CanonicalKey: s.canonical,
			Start:        tokens[s.startTok].Start,
			End:          tokens[s.endTok-1].End,
		}
		switch s.kind {
		case KindService:
			result.Services = append(result.Services, es)
			if s.alias != "" {
				if result.ExplicitAliases == nil {
					result.ExplicitAliases = make(map[string]string)
				}
				result.ExplicitAliases[s.canonical] = s.alias
			}
		case KindDate:
			result.Dates = append(result.Dates, es)
		case KindAbsoluteDate:
			result.AbsoluteDates = append(result.AbsoluteDates, es)
		case KindTime:
			result.Times = append(result.Times, es)
		case KindTimeWindow:
			result.TimeWindows = append(result.TimeWindows, es)
		case KindDuration:
			result.Durations = append(result.Durations, es)
		case KindOrdinal:
			result.Ordinals = append(result.Ordinals, es)
		}
	}

	e.logger.Debug("extraction complete",
		"entities", result.EntityCount(),
		"parameterized", result.ParameterizedText,
	)
	return result
}

// matchAliases scans token n-grams against the tenant alias table,
// longest-text-first. On equal length the higher-priority alias wins.
func (e *Extractor) matchAliases(tokens []Token, consumed []bool, aliases map[string]AliasEntry) []span {
	if len(aliases) == 0 {
		return nil
	}
	type aliasKey struct {
		text     string
		entry    AliasEntry
		tokenLen int
	}
	keys := make([]aliasKey, 0, len(aliases))
	for text, entry := range aliases {
		norm := normalizeText(text)
		if norm == "" {
			continue
		}
		keys = append(keys, aliasKey{text: norm, entry: entry, tokenLen: len(strings.Fields(norm))})
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].tokenLen != keys[j].tokenLen {
			return keys[i].tokenLen > keys[j].tokenLen
		}
		if keys[i].entry.Priority != keys[j].entry.Priority {
			return keys[i].entry.Priority > keys[j].entry.Priority
		}
		return keys[i].text < keys[j].text
	})

	var spans []span
	for _, k := range keys {
		n := k.tokenLen
		if n == 0 || n > maxPhraseTokens {
			continue
		}
		for i := 0; i+n <= len(tokens); i++ {
			if rangeConsumed(consumed, i, i+n) {
				continue
			}
			if joinTokens(tokens, i, i+n) != k.text {
				continue
			}
			markConsumed(consumed, i, i+n)
			spans = append(spans, span{
				kind:      KindService,
				text:      k.text,
				canonical: k.entry.CanonicalFamily,
				startTok:  i,
				endTok:    i + n,
				alias:     k.text,
			})
		}
	}
	return spans
}

// matchPhraseMap scans token n-grams longest-first against a phrase →
// canonical map.
func (e *Extractor) matchPhraseMap(tokens []Token, consumed []bool, phrases map[string]string, kind EntityKind) []span {
	var spans []span
	for n := maxPhraseTokens; n >= 1; n-- {
		for i := 0; i+n <= len(tokens); i++ {
			if rangeConsumed(consumed, i, i+n) {
				continue
			}
			phrase := joinTokens(tokens, i, i+n)
			canonical, ok := phrases[phrase]
			if !ok {
				continue
			}
			markConsumed(consumed, i, i+n)
			spans = append(spans, span{kind: kind, text: phrase, canonical: canonical, startTok: i, endTok: i + n})
		}
	}
	return spans
}

// matchAbsoluteDates handles "15 dec", "15 th dec" (post-normalization form
// of "15th dec"), "dec 15", and slash/dash numeric dates, with an optional
// trailing year.
func (e *Extractor) matchAbsoluteDates(tokens []Token, consumed []bool) []span {
	var spans []span
	for i := 0; i < len(tokens); i++ {
		if consumed[i] {
			continue
		}
		// Numeric "15/12" or "15/12/2025" in a single token.
		if slashDate.MatchString(tokens[i].Text) {
			markConsumed(consumed, i, i+1)
			spans = append(spans, span{kind: KindAbsoluteDate, text: tokens[i].Text, startTok: i, endTok: i + 1})
			continue
		}
		// "<day> [st|nd|rd|th] <month> [year]"
		if bareNumber.MatchString(tokens[i].Text) {
			j := i + 1
			if j < len(tokens) && !consumed[j] && ordinalSuffix.MatchString(tokens[j].Text) {
				j++
			}
			if j < len(tokens) && !consumed[j] {
				if _, ok := monthNumbers[tokens[j].Text]; ok {
					end := j + 1
					if end < len(tokens) && !consumed[end] && yearNumber.MatchString(tokens[end].Text) {
						end++
					}
					markConsumed(consumed, i, end)
					spans = append(spans, span{kind: KindAbsoluteDate, text: joinTokens(tokens, i, end), startTok: i, endTok: end})
					continue
				}
			}
		}
		// "<month> <day> [st|nd|rd|th] [year]"
		if _, ok := monthNumbers[tokens[i].Text]; ok {
			j := i + 1
			if j < len(tokens) && !consumed[j] && bareNumber.MatchString(tokens[j].Text) {
				end := j + 1
				if end < len(tokens) && !consumed[end] && ordinalSuffix.MatchString(tokens[end].Text) {
					end++
				}
				if end < len(tokens) && !consumed[end] && yearNumber.MatchString(tokens[end].Text) {
					end++
				}
				markConsumed(consumed, i, end)
				spans = append(spans, span{kind: KindAbsoluteDate, text: joinTokens(tokens, i, end), startTok: i, endTok: end})
			}
		}
	}
	return spans
}

// matchRelativeDates covers relative day phrases, vague and
// context-dependent references, modifier+weekday pairs, and bare weekdays.
// Longer phrases match first so "day after tomorrow" beats "tomorrow".
func (e *Extractor) matchRelativeDates(tokens []Token, consumed []bool) []span {
	phrases := make(map[string]struct{})
	for p := range e.vocab.RelativeDates {
		phrases[p] = struct{}{}
	}
	for p := range e.vocab.VagueDates {
		phrases[p] = struct{}{}
	}
	for _, p := range e.vocab.ContextDependentDates {
		phrases[p] = struct{}{}
	}
	for w := range e.vocab.Weekdays {
		phrases[w] = struct{}{}
		for _, mod := range e.vocab.DateModifiers {
			phrases[mod+" "+w] = struct{}{}
		}
	}

	var spans []span
	for n := maxPhraseTokens; n >= 1; n-- {
		for i := 0; i+n <= len(tokens); i++ {
			if rangeConsumed(consumed, i, i+n) {
				continue
			}
			phrase := joinTokens(tokens, i, i+n)
			if _, ok := phrases[phrase]; !ok {
				continue
			}
			markConsumed(consumed, i, i+n)
			spans = append(spans, span{kind: KindDate, text: phrase, startTok: i, endTok: i + n})
		}
	}
	return spans
}

// matchDurations handles "<n> <unit>", "an hour", "half hour" / "half an hour".
func (e *Extractor) matchDurations(tokens []Token, consumed []bool) []span {
	var spans []span
	for i := 0; i < len(tokens); i++ {
		if consumed[i] {
			continue
		}
		// "half hour" / "half an hour"
		if tokens[i].Text == "half" {
			end := i + 1
			if end < len(tokens) && !consumed[end] && (tokens[end].Text == "an" || tokens[end].Text == "a") {
				end++
			}
			if end < len(tokens) && !consumed[end] && e.vocab.DurationUnits[tokens[end].Text] == 60 {
				end++
				markConsumed(consumed, i, end)
				spans = append(spans, span{kind: KindDuration, text: joinTokens(tokens, i, end), startTok: i, endTok: end})
				continue
			}
		}
		// "an hour" / "a hour"
		if tokens[i].Text == "an" || tokens[i].Text == "a" {
			if i+1 < len(tokens) && !consumed[i+1] && e.vocab.DurationUnits[tokens[i+1].Text] == 60 {
				markConsumed(consumed, i, i+2)
				spans = append(spans, span{kind: KindDuration, text: joinTokens(tokens, i, i+2), startTok: i, endTok: i + 2})
				continue
			}
		}
		// "<n> <unit>" — only when clearly a duration, not a clock time.
		if bareNumber.MatchString(tokens[i].Text) || yearNumber.MatchString(tokens[i].Text) {
			if i+1 < len(tokens) && !consumed[i+1] {
				if _, ok := e.vocab.DurationUnits[tokens[i+1].Text]; ok {
					markConsumed(consumed, i, i+2)
					spans = append(spans, span{kind: KindDuration, text: joinTokens(tokens, i, i+2), startTok: i, endTok: i + 2})
				}
			}
		}
	}
	return spans
}

// matchTimes handles explicit clock tokens, meridiem propagation inside
// "between X and Y" ranges, fuzzy hour phrases, and "at <hour>" bare hours.
func (e *Extractor) matchTimes(tokens []Token, consumed []bool) []span {
	var spans []span

	// Pass 1: unambiguous clock tokens ("2pm", "14:30", "9:15").
	for i, tok := range tokens {
		if consumed[i] {
			continue
		}
		if clockWithMeridiem.MatchString(tok.Text) || clockPlain.MatchString(tok.Text) {
			markConsumed(consumed, i, i+1)
			spans = append(spans, span{kind: KindTime, text: tok.Text, startTok: i, endTok: i + 1})
		}
	}

	// Pass 2: range meridiem propagation — "between 2pm and 5" makes "5" a
	// time; "between 2 and 5" does too when a window word supplies the
	// time-of-day context.
	hasWindow := false
	for i, tok := range tokens {
		if !consumed[i] {
			if _, ok := e.vocab.TimeWindows[tok.Text]; ok {
				hasWindow = true
			}
		}
	}
	hasClock := len(spans) > 0
	for i := 0; i+2 < len(tokens); i++ {
		marker := tokens[i].Text
		if marker != "between" && marker != "from" {
			continue
		}
		a, b := i+1, i+3
		if b >= len(tokens) {
			continue
		}
		link := tokens[i+2].Text
		if link != "and" && link != "to" {
			continue
		}
		for _, idx := range []int{a, b} {
			if consumed[idx] || !bareNumber.MatchString(tokens[idx].Text) {
				continue
			}
			if hasClock || hasWindow {
				markConsumed(consumed, idx, idx+1)
				spans = append(spans, span{kind: KindTime, text: tokens[idx].Text, startTok: idx, endTok: idx + 1})
			}
		}
	}

	// Pass 3: fuzzy hours — "around 6", "about 6 ish", "6 ish".
	for i := 0; i < len(tokens); i++ {
		if consumed[i] {
			continue
		}
		if tokens[i].Text == "around" || tokens[i].Text == "about" {
			j := i + 1
			if j < len(tokens) && !consumed[j] && bareNumber.MatchString(tokens[j].Text) {
				end := j + 1
				if end < len(tokens) && !consumed[end] && tokens[end].Text == "ish" {
					end++
				}
				markConsumed(consumed, i, end)
				spans = append(spans, span{kind: KindTime, text: joinTokens(tokens, i, end), startTok: i, endTok: end})
			}
			continue
		}
		if bareNumber.MatchString(tokens[i].Text) && i+1 < len(tokens) && !consumed[i+1] && tokens[i+1].Text == "ish" {
			markConsumed(consumed, i, i+2)
			spans = append(spans, span{kind: KindTime, text: joinTokens(tokens, i, i+2), startTok: i, endTok: i + 2})
		}
	}

	// Pass 4: "at <hour>" / "by <hour>" bare hours. The hour stays bare in
	// the span text; whether that is acceptable is the semantic resolver's
	// call, not extraction's.
	for i := 0; i+1 < len(tokens); i++ {
		if tokens[i].Text != "at" && tokens[i].Text != "by" {
			continue
		}
		j := i + 1
		if consumed[j] || !bareNumber.MatchString(tokens[j].Text) {
			continue
		}
		if hour, err := strconv.Atoi(tokens[j].Text); err == nil && hour >= 0 && hour <= 23 {
			markConsumed(consumed, j, j+1)
			spans = append(spans, span{kind: KindTime, text: tokens[j].Text, startTok: j, endTok: j + 1})
		}
	}

	return spans
}

func (e *Extractor) matchTimeWindows(tokens []Token, consumed []bool) []span {
	var spans []span
	for i, tok := range tokens {
		if consumed[i] {
			continue
		}
		if _, ok := e.vocab.TimeWindows[tok.Text]; ok {
			markConsumed(consumed, i, i+1)
			spans = append(spans, span{kind: KindTimeWindow, text: tok.Text, startTok: i, endTok: i + 1})
		}
	}
	return spans
}

// matchOrdinals picks up word ordinals plus the post-normalization "<n> st"
// form, for slot-selection phrasing like "the first one".
func (e *Extractor) matchOrdinals(tokens []Token, consumed []bool) []span {
	var spans []span
	for i := 0; i < len(tokens); i++ {
		if consumed[i] {
			continue
		}
		if n, ok := ordinalWords[tokens[i].Text]; ok {
			markConsumed(consumed, i, i+1)
			spans = append(spans, span{kind: KindOrdinal, text: tokens[i].Text, canonical: strconv.Itoa(n), startTok: i, endTok: i + 1})
			continue
		}
		if bareNumber.MatchString(tokens[i].Text) && i+1 < len(tokens) && !consumed[i+1] && ordinalSuffix.MatchString(tokens[i+1].Text) {
			markConsumed(consumed, i, i+2)
			spans = append(spans, span{kind: KindOrdinal, text: joinTokens(tokens, i, i+2), canonical: tokens[i].Text, startTok: i, endTok: i + 2})
		}
	}
	return spans
}

// parameterize rebuilds the sentence with category tokens in place of spans,
// replacing from the end so earlier indices stay valid.
func parameterize(tokens []Token, spans []span) string {
	words := make([]string, len(tokens))
	for i, t := range tokens {
		words[i] = t.Text
	}
	ordered := make([]span, len(spans))
	copy(ordered, spans)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].startTok > ordered[j].startTok })
	for _, s := range ordered {
		words = append(words[:s.startTok], append([]string{placeholderFor(s.kind)}, words[s.endTok:]...)...)
	}
	return strings.Join(words, " ")
}

func placeholderFor(kind EntityKind) string {
	switch kind {
	case KindService:
		return serviceToken
	case KindDate, KindAbsoluteDate:
		return dateToken
	case KindTime:
		return timeToken
	case KindTimeWindow:
		return timeWindowToken
	case KindDuration:
		return durationToken
	case KindOrdinal:
		return ordinalToken
	}
	return "token"
}

func rangeConsumed(consumed []bool, start, end int) bool {
	for i := start; i < end; i++ {
		if consumed[i] {
			return true
		}
	}
	return false
}

func markConsumed(consumed []bool, start, end int) {
	for i := start; i < end; i++ {
		consumed[i] = true
	}
}
