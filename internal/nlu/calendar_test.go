package nlu

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tuesday, mid-January.
var testNow = time.Date(2025, 1, 14, 10, 0, 0, 0, time.UTC)

func bindUtterance(t *testing.T, input string, intent Intent) (CalendarBooking, *ClarificationSignal) {
	t.Helper()
	e := NewExtractor(nil, nil, nil)
	si := NewStructuralInterpreter(nil)
	g := NewGrouper(nil)
	sr := NewSemanticResolver(nil, nil)
	cb := NewCalendarBinder(nil, nil)

	extraction := e.Extract(input, DomainService, nil)
	profile := si.Interpret(extraction)
	grouping := g.Group(extraction, profile)
	booking, _ := sr.Resolve(extraction, profile, grouping, nil)
	return cb.Bind(booking, IntentDecision{Intent: intent}, DomainService, testNow, time.UTC, spanTexts(extraction.TimeWindows))
}

func TestBindRelativeDateAndExactTime(t *testing.T) {
	result, signal := bindUtterance(t, "book a haircut tomorrow at 2pm", IntentCreateBooking)

	assert.Nil(t, signal)
	assert.True(t, result.Bound)
	require.NotNil(t, result.DateRange)
	assert.Equal(t, "2025-01-15", result.DateRange.Start)
	assert.Equal(t, "2025-01-15", result.DateRange.End)
	require.NotNil(t, result.TimeRange)
	assert.Equal(t, "14:00", result.TimeRange.StartTime)
	require.NotNil(t, result.DatetimeRange)
	assert.Equal(t, time.Date(2025, 1, 15, 14, 0, 0, 0, time.UTC), result.DatetimeRange.Start)
}

func TestBindNonBindingIntentIsUnbound(t *testing.T) {
	result, signal := bindUtterance(t, "cancel my haircut tomorrow at 2pm", IntentCancelBooking)

	assert.Nil(t, signal)
	assert.False(t, result.Bound)
	assert.Nil(t, result.DateRange)
	assert.Nil(t, result.TimeRange)
	assert.Nil(t, result.DatetimeRange)
}

func TestBindWeekdayArithmetic(t *testing.T) {
	cb := NewCalendarBinder(nil, nil)
	tests := []struct {
		ref  string
		want string
	}{
		// testNow is Tuesday 2025-01-14.
		{"this friday", "2025-01-17"},
		{"next friday", "2025-01-24"},
		{"this tuesday", "2025-01-21"}, // same weekday rolls a full week
		{"next tuesday", "2025-01-21"},
		{"coming monday", "2025-01-20"},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			d := cb.bindSingleDate(tt.ref, testNow)
			require.NotNil(t, d)
			assert.Equal(t, tt.want, d.Format(dateLayout))
		})
	}
}

func TestBindRelativeOffsets(t *testing.T) {
	cb := NewCalendarBinder(nil, nil)
	tests := []struct {
		ref  string
		want string
	}{
		{"today", "2025-01-14"},
		{"tonight", "2025-01-14"},
		{"tomorrow", "2025-01-15"},
		{"day after tomorrow", "2025-01-16"},
	}
	for _, tt := range tests {
		d := cb.bindSingleDate(tt.ref, testNow)
		require.NotNil(t, d, tt.ref)
		assert.Equal(t, tt.want, d.Format(dateLayout), tt.ref)
	}
}

func TestBindYearlessAbsoluteFutureBias(t *testing.T) {
	cb := NewCalendarBinder(nil, nil)

	// December is ahead of mid-January, stays this year.
	d := cb.bindSingleDate("15 dec", testNow)
	require.NotNil(t, d)
	assert.Equal(t, "2025-12-15", d.Format(dateLayout))

	// January 2nd already passed, rolls to next year.
	d = cb.bindSingleDate("2 jan", testNow)
	require.NotNil(t, d)
	assert.Equal(t, "2026-01-02", d.Format(dateLayout))

	// Explicit year sticks even in the past.
	d = cb.bindSingleDate("jan 2 2024", testNow)
	require.NotNil(t, d)
	assert.Equal(t, "2024-01-02", d.Format(dateLayout))
}

func TestBindNumericDateFieldOrder(t *testing.T) {
	cb := NewCalendarBinder(nil, nil)
	tests := []struct {
		ref  string
		want string // empty means unresolvable
	}{
		{"3/25", "2025-03-25"}, // day field above 12 pins the order
		{"25/3", "2025-03-25"},
		{"25/12/2025", "2025-12-25"},
		{"25/25", ""},
		{"31/2", ""}, // normalizes over month end
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			d := cb.bindSingleDate(tt.ref, testNow)
			if tt.want == "" {
				assert.Nil(t, d)
				return
			}
			require.NotNil(t, d)
			assert.Equal(t, tt.want, d.Format(dateLayout))
		})
	}
}

func TestBindUnresolvableAbsoluteDateConflicts(t *testing.T) {
	result, signal := bindUtterance(t, "book a haircut on 31 feb at 2pm", IntentCreateBooking)

	require.NotNil(t, signal, "an impossible date must never be silently dropped")
	assert.Equal(t, ReasonConflictingSignals, signal.Reason)
	assert.Equal(t, "unresolvable_date", signal.Data["error_type"])
	assert.Nil(t, result.DateRange)
	assert.False(t, result.Bound)
}

func TestBindNumericDateWithTime(t *testing.T) {
	result, signal := bindUtterance(t, "book a haircut 3/25 at 2pm", IntentCreateBooking)

	assert.Nil(t, signal)
	assert.True(t, result.Bound)
	require.NotNil(t, result.DateRange)
	assert.Equal(t, "2025-03-25", result.DateRange.Start)
	require.NotNil(t, result.TimeRange)
	assert.Equal(t, "14:00", result.TimeRange.StartTime)
}

func TestBindBareWeekdayDoesNotBind(t *testing.T) {
	cb := NewCalendarBinder(nil, nil)
	assert.Nil(t, cb.bindSingleDate("friday", testNow), "bare weekdays need the semantic clarification first")
}

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		ref          string
		wantHour     int
		wantMinute   int
		wantExplicit bool
		wantOK       bool
	}{
		{"2pm", 14, 0, true, true},
		{"2:30pm", 14, 30, true, true},
		{"12pm", 12, 0, true, true},
		{"12am", 0, 0, true, true},
		{"14:30", 14, 30, true, true},
		{"9:30", 9, 30, false, true},
		{"3", 3, 0, false, true},
		{"25", 0, 0, false, false},
		{"around", 0, 0, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			hour, minute, explicit, ok := parseClockTime(tt.ref)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantHour, hour)
				assert.Equal(t, tt.wantMinute, minute)
				assert.Equal(t, tt.wantExplicit, explicit)
			}
		})
	}
}

func TestBindWindowBiasShiftsBareHour(t *testing.T) {
	result, signal := bindUtterance(t, "book a haircut tomorrow evening at 6", IntentCreateBooking)

	assert.Nil(t, signal)
	require.NotNil(t, result.TimeRange)
	assert.Equal(t, "18:00", result.TimeRange.StartTime, "evening window shifts 6 to 18:00")
}

func TestBindMorningHourStaysUnshifted(t *testing.T) {
	result, signal := bindUtterance(t, "book a haircut tomorrow morning at 9", IntentCreateBooking)

	assert.Nil(t, signal)
	require.NotNil(t, result.TimeRange)
	assert.Equal(t, "09:00", result.TimeRange.StartTime)
}

func TestBindWindowMode(t *testing.T) {
	result, signal := bindUtterance(t, "book a haircut tomorrow morning", IntentCreateBooking)

	assert.Nil(t, signal)
	require.NotNil(t, result.TimeRange)
	assert.Equal(t, "08:00", result.TimeRange.StartTime)
	assert.Equal(t, "12:00", result.TimeRange.EndTime)
}

func TestBindTimeRangeMode(t *testing.T) {
	result, signal := bindUtterance(t, "massage tomorrow between 2pm and 5pm", IntentCreateBooking)

	assert.Nil(t, signal)
	require.NotNil(t, result.TimeRange)
	assert.Equal(t, "14:00", result.TimeRange.StartTime)
	assert.Equal(t, "17:00", result.TimeRange.EndTime)
}

func TestBindDateOnlyNeedsTime(t *testing.T) {
	result, signal := bindUtterance(t, "book a haircut tomorrow", IntentCreateBooking)

	require.NotNil(t, signal)
	assert.Equal(t, ReasonMissingTime, signal.Reason)
	assert.Equal(t, "2025-01-15", signal.Data["date"])
	assert.True(t, result.Bound, "the date still binds; only the hour is missing")
	require.NotNil(t, result.DatetimeRange)
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), result.DatetimeRange.Start)
}

func TestBindNoTemporalInfo(t *testing.T) {
	result, signal := bindUtterance(t, "book a haircut", IntentCreateBooking)

	assert.False(t, result.Bound)
	require.NotNil(t, signal)
	assert.Equal(t, ReasonMissingDate, signal.Reason)
}

func TestBindDurationComputesEnd(t *testing.T) {
	result, signal := bindUtterance(t, "book a massage for 1 hour tomorrow at 2pm", IntentCreateBooking)

	assert.Nil(t, signal)
	require.NotNil(t, result.DatetimeRange)
	assert.Equal(t, time.Date(2025, 1, 15, 14, 0, 0, 0, time.UTC), result.DatetimeRange.Start)
	assert.Equal(t, time.Date(2025, 1, 15, 15, 0, 0, 0, time.UTC), result.DatetimeRange.End)
	assert.Equal(t, "15:00", result.TimeRange.EndTime)
}

func TestBindDurationWithMultiDayRangeConflicts(t *testing.T) {
	result, signal := bindUtterance(t, "book a massage for 1 hour from 15 dec to 17 dec", IntentCreateBooking)

	require.NotNil(t, signal)
	assert.Equal(t, ReasonConflictingSignals, signal.Reason)
	assert.Equal(t, "duration_with_multi_day_range", signal.Data["error_type"])
	_ = result
}

func TestBindTimezoneAware(t *testing.T) {
	e := NewExtractor(nil, nil, nil)
	si := NewStructuralInterpreter(nil)
	g := NewGrouper(nil)
	sr := NewSemanticResolver(nil, nil)
	cb := NewCalendarBinder(nil, nil)

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	extraction := e.Extract("book a haircut tomorrow at 2pm", DomainService, nil)
	profile := si.Interpret(extraction)
	grouping := g.Group(extraction, profile)
	booking, _ := sr.Resolve(extraction, profile, grouping, nil)
	result, signal := cb.Bind(booking, IntentDecision{Intent: IntentCreateBooking}, DomainService, testNow, loc, nil)

	assert.Nil(t, signal)
	require.NotNil(t, result.DatetimeRange)
	// 10:00 UTC on Jan 14 is 05:00 in New York, still Jan 14 there.
	assert.Equal(t, time.Date(2025, 1, 15, 14, 0, 0, 0, loc), result.DatetimeRange.Start)
}
