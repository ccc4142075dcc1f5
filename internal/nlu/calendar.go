package nlu

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bookpilot/booking-nlu/pkg/logging"
)

// The calendar binder converts resolved semantics into absolute,
// timezone-aware ranges and validates them. Binding only runs for intents
// where a calendar range is meaningful; for the rest the explicit unbound
// result is a normal outcome, not an error. Validation failures surface as
// clarifications, never as crashes.

const dateLayout = "2006-01-02"

var (
	thisNextWeekday = regexp.MustCompile(`\b(this|next|coming|following) (monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	dayMonthPattern = regexp.MustCompile(`^(\d{1,2})(?: (?:st|nd|rd|th))? ([a-z]+)(?: (\d{4}))?$`)
	monthDayPattern = regexp.MustCompile(`^([a-z]+) (\d{1,2})(?: (?:st|nd|rd|th))?(?: (\d{4}))?$`)
	numericDate     = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})(?:[/-](\d{2,4}))?$`)
	clockPattern    = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?(am|pm)?$`)
)

// CalendarBinder binds resolved bookings to the caller's clock and timezone.
type CalendarBinder struct {
	vocab  *Vocabulary
	logger *logging.Logger
}

func NewCalendarBinder(vocab *Vocabulary, logger *logging.Logger) *CalendarBinder {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CalendarBinder{vocab: vocab, logger: logger}
}

// Bind evaluates the binding rules against the caller's current time and
// timezone. windows carries the window phrases seen at extraction so the
// time-window bias rule can disambiguate meridiem-less hours. The domain
// decides whether a date without a clock time is complete: reservations are
// day-granular, service appointments need an hour.
func (cb *CalendarBinder) Bind(
	booking ResolvedBooking,
	decision IntentDecision,
	domain Domain,
	now time.Time,
	loc *time.Location,
	windows []string,
) (CalendarBooking, *ClarificationSignal) {
	if !decision.requiresBinding() {
		return CalendarBooking{Bound: false}, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)

	dateRange := cb.bindDates(booking.DateRefs, booking.DateMode, now)
	timeRange := cb.bindTimes(booking.TimeRefs, booking.TimeMode, windows)

	result := CalendarBooking{
		DateRange: dateRange,
		TimeRange: timeRange,
	}

	// An absolute date that was referenced but failed to bind ("31 feb",
	// "25/25") is a conflict, never a silent drop: binding anyway would
	// produce a confidently wrong booking.
	if dateRange == nil && booking.DateMode == DateModeAbsolute && len(booking.DateRefs) > 0 {
		return result, newSignal(priorityCalendar, ReasonConflictingSignals, map[string]any{
			"error_type": "unresolvable_date",
			"date_refs":  booking.DateRefs,
		})
	}

	// No temporal material at all: explicit unbound result plus a reason
	// naming the missing information.
	if dateRange == nil && timeRange == nil {
		return result, newSignal(priorityCalendar, ReasonMissingDate, map[string]any{
			"date_mode": string(booking.DateMode),
			"time_mode": string(booking.TimeMode),
		})
	}

	datetimeRange := combineDatetimeRange(dateRange, timeRange, loc)

	// Duration + start computes the end; a duration that would span midnight
	// or pair with a multi-day range is a conflict, not a guess.
	if len(booking.Durations) > 0 {
		if dateRange != nil && dateRange.Start != dateRange.End {
			return result, newSignal(priorityCalendar, ReasonConflictingSignals, map[string]any{
				"error_type": "duration_with_multi_day_range",
				"duration":   booking.Durations[0],
				"date_range": fmt.Sprintf("%s..%s", dateRange.Start, dateRange.End),
			})
		}
		if datetimeRange != nil && datetimeRange.Start.Equal(datetimeRange.End) {
			end := datetimeRange.Start.Add(time.Duration(booking.Durations[0]) * time.Minute)
			if end.YearDay() != datetimeRange.Start.YearDay() || end.Year() != datetimeRange.Start.Year() {
				return result, newSignal(priorityCalendar, ReasonConflictingSignals, map[string]any{
					"error_type": "duration_spans_midnight",
					"duration":   booking.Durations[0],
					"start":      datetimeRange.Start.Format(time.RFC3339),
				})
			}
			datetimeRange.End = end
			if timeRange != nil {
				timeRange.EndTime = end.Format("15:04")
			}
		}
	}
	result.DatetimeRange = datetimeRange
	result.Bound = dateRange != nil || timeRange != nil || datetimeRange != nil

	if signal := validateRanges(dateRange, timeRange, datetimeRange); signal != nil {
		return result, signal
	}

	// A bound date with no time at all still needs the user's hour for a
	// concrete appointment slot. Reservations are complete at day granularity.
	if domain != DomainReservation && dateRange != nil && timeRange == nil && booking.TimeMode == TimeModeNone {
		return result, newSignal(priorityCalendar, ReasonMissingTime, map[string]any{
			"date": dateRange.Start,
		})
	}
	return result, nil
}

// bindDates resolves date references to civil dates. One ref is a single
// day; two refs become a range. Unresolvable refs yield nil rather than an
// invented date.
func (cb *CalendarBinder) bindDates(refs []string, mode DateMode, now time.Time) *DateRange {
	if len(refs) == 0 || mode == DateModeNone {
		return nil
	}
	start := cb.bindSingleDate(refs[0], now)
	if start == nil {
		return nil
	}
	if len(refs) >= 2 {
		end := cb.bindSingleDate(refs[1], now)
		if end == nil {
			return nil
		}
		return &DateRange{Start: start.Format(dateLayout), End: end.Format(dateLayout)}
	}
	d := start.Format(dateLayout)
	return &DateRange{Start: d, End: d}
}

// bindSingleDate handles relative offsets, this/next weekday expressions,
// and absolute forms. Bare weekdays never bind here; the semantic resolver
// already asked for clarification.
func (cb *CalendarBinder) bindSingleDate(ref string, now time.Time) *time.Time {
	ref = strings.TrimSpace(strings.ToLower(ref))

	if m := thisNextWeekday.FindStringSubmatch(ref); m != nil {
		target := cb.vocab.Weekdays[m[2]]
		daysAhead := (int(target) - int(now.Weekday()) + 7) % 7
		switch m[1] {
		case "next":
			daysAhead += 7
		default: // this, coming, following
			if daysAhead == 0 {
				daysAhead = 7
			}
		}
		d := startOfDay(now.AddDate(0, 0, daysAhead))
		return &d
	}

	if offset, ok := cb.vocab.RelativeDates[ref]; ok {
		d := startOfDay(now.AddDate(0, 0, offset))
		return &d
	}

	if m := dayMonthPattern.FindStringSubmatch(ref); m != nil {
		if month, ok := monthNumbers[m[2]]; ok {
			return resolveYearMonthDay(m[3], month, atoiSafe(m[1]), now)
		}
	}
	if m := monthDayPattern.FindStringSubmatch(ref); m != nil {
		if month, ok := monthNumbers[m[1]]; ok {
			return resolveYearMonthDay(m[3], month, atoiSafe(m[2]), now)
		}
	}
	if m := numericDate.FindStringSubmatch(ref); m != nil {
		day, month := atoiSafe(m[1]), atoiSafe(m[2])
		// A field above 12 pins the order: "3/25" can only be March 25th.
		if month > 12 && day <= 12 {
			day, month = month, day
		}
		return resolveYearMonthDay(m[3], month, day, now)
	}
	return nil
}

// resolveYearMonthDay future-biases yearless dates: if the stated month/day
// has already passed this year, roll to next year.
func resolveYearMonthDay(yearStr string, month, day int, now time.Time) *time.Time {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return nil
	}
	if yearStr != "" {
		year := atoiSafe(yearStr)
		if year < 100 {
			year += 2000
		}
		d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
		if d.Day() != day {
			return nil // normalized over month end, reject
		}
		return &d
	}
	candidate := time.Date(now.Year(), time.Month(month), day, 0, 0, 0, 0, now.Location())
	if candidate.Day() != day {
		return nil
	}
	if candidate.Before(startOfDay(now)) {
		candidate = candidate.AddDate(1, 0, 0)
	}
	return &candidate
}

// bindTimes resolves time references per mode. Window references expand to
// their configured bounds; exact references apply the time-window bias rule
// when the hour carries no meridiem.
func (cb *CalendarBinder) bindTimes(refs []string, mode TimeMode, windows []string) *TimeRange {
	switch mode {
	case TimeModeExact:
		if len(refs) == 0 {
			return nil
		}
		hhmm, ok := cb.parseWithWindowBias(refs[0], windows)
		if !ok {
			return nil
		}
		return &TimeRange{StartTime: hhmm, EndTime: hhmm}
	case TimeModeRange:
		if len(refs) < 2 {
			return nil
		}
		start, okS := cb.parseWithWindowBias(refs[0], windows)
		end, okE := cb.parseWithWindowBias(refs[1], windows)
		if !okS || !okE {
			return nil
		}
		return &TimeRange{StartTime: start, EndTime: end}
	case TimeModeWindow:
		if len(refs) == 0 {
			return nil
		}
		if bounds, ok := cb.vocab.TimeWindows[strings.ToLower(refs[0])]; ok {
			return &TimeRange{StartTime: bounds.StartTime, EndTime: bounds.EndTime}
		}
	}
	return nil
}

// parseWithWindowBias parses one clock reference. When the hour lacks an
// explicit meridiem and a window phrase exists, the interpretation that
// falls inside the window wins: "evening at 6" binds to 18:00.
func (cb *CalendarBinder) parseWithWindowBias(ref string, windows []string) (string, bool) {
	hour, minute, explicit, ok := parseClockTime(ref)
	if !ok {
		return "", false
	}
	hhmm := fmt.Sprintf("%02d:%02d", hour, minute)
	if explicit {
		return hhmm, true
	}
	for _, w := range windows {
		bounds, known := cb.vocab.TimeWindows[strings.ToLower(w)]
		if !known {
			continue
		}
		if timeInBounds(hhmm, bounds) {
			return hhmm, true
		}
		shifted := fmt.Sprintf("%02d:%02d", (hour+12)%24, minute)
		if timeInBounds(shifted, bounds) {
			return shifted, true
		}
	}
	return hhmm, true
}

// parseClockTime accepts "2pm", "2:30pm", "14:30", "9:30", and bare hours.
// The second return pair reports whether the meridiem was explicit (a 24h
// hour ≥ 13 counts as explicit).
func parseClockTime(ref string) (hour, minute int, explicit, ok bool) {
	ref = strings.ReplaceAll(strings.TrimSpace(strings.ToLower(ref)), " ", "")
	ref = strings.ReplaceAll(ref, ".", ":")
	m := clockPattern.FindStringSubmatch(ref)
	if m == nil {
		return 0, 0, false, false
	}
	hour = atoiSafe(m[1])
	if m[2] != "" {
		minute = atoiSafe(m[2])
	}
	switch m[3] {
	case "pm":
		if hour != 12 {
			hour += 12
		}
		explicit = true
	case "am":
		if hour == 12 {
			hour = 0
		}
		explicit = true
	default:
		explicit = hour >= 13
	}
	if hour > 23 || minute > 59 {
		return 0, 0, false, false
	}
	return hour, minute, explicit, true
}

func timeInBounds(hhmm string, bounds TimeRange) bool {
	return toMinutes(bounds.StartTime) <= toMinutes(hhmm) && toMinutes(hhmm) <= toMinutes(bounds.EndTime)
}

func toMinutes(hhmm string) int {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return 0
	}
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	return h*60 + m
}

// combineDatetimeRange merges date and time ranges. Date-only input becomes
// a full-day range; time-only input yields nil because binding never invents
// a date.
func combineDatetimeRange(dateRange *DateRange, timeRange *TimeRange, loc *time.Location) *DatetimeRange {
	if dateRange == nil {
		return nil
	}
	startDate, err := time.ParseInLocation(dateLayout, dateRange.Start, loc)
	if err != nil {
		return nil
	}
	endDate, err := time.ParseInLocation(dateLayout, dateRange.End, loc)
	if err != nil {
		return nil
	}
	if timeRange == nil {
		return &DatetimeRange{
			Start: startDate,
			End:   endDate.Add(23*time.Hour + 59*time.Minute),
		}
	}
	return &DatetimeRange{
		Start: startDate.Add(time.Duration(toMinutes(timeRange.StartTime)) * time.Minute),
		End:   endDate.Add(time.Duration(toMinutes(timeRange.EndTime)) * time.Minute),
	}
}

// validateRanges rejects end-before-start across all three range shapes.
// Each rejection names the conflicting pair.
func validateRanges(dateRange *DateRange, timeRange *TimeRange, datetimeRange *DatetimeRange) *ClarificationSignal {
	if dateRange != nil && dateRange.End < dateRange.Start {
		return newSignal(priorityCalendar, ReasonConflictingSignals, map[string]any{
			"error_type": "end_before_start",
			"start":      dateRange.Start,
			"end":        dateRange.End,
		})
	}
	if timeRange != nil && toMinutes(timeRange.EndTime) < toMinutes(timeRange.StartTime) {
		return newSignal(priorityCalendar, ReasonConflictingSignals, map[string]any{
			"error_type": "time_range_spans_midnight",
			"start_time": timeRange.StartTime,
			"end_time":   timeRange.EndTime,
		})
	}
	if datetimeRange != nil && datetimeRange.End.Before(datetimeRange.Start) {
		return newSignal(priorityCalendar, ReasonConflictingSignals, map[string]any{
			"error_type": "end_before_start",
			"start":      datetimeRange.Start.Format(time.RFC3339),
			"end":        datetimeRange.End.Format(time.RFC3339),
		})
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
