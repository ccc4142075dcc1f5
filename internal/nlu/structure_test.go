package nlu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func interpret(t *testing.T, input string) (StructuralProfile, *ExtractionResult) {
	t.Helper()
	e := NewExtractor(nil, nil, nil)
	si := NewStructuralInterpreter(nil)
	extraction := e.Extract(input, DomainService, nil)
	return si.Interpret(extraction), extraction
}

func TestInterpretSingleBooking(t *testing.T) {
	profile, _ := interpret(t, "book a haircut tomorrow at 2pm")

	assert.Equal(t, 1, profile.BookingCount)
	assert.Equal(t, ScopeSeparate, profile.ServiceScope)
	assert.Equal(t, TimeTypeExact, profile.TimeType)
	assert.Equal(t, ScopeShared, profile.TimeScope)
	assert.False(t, profile.NeedsClarificationHint)
}

func TestInterpretSharedServices(t *testing.T) {
	profile, _ := interpret(t, "book a haircut and a massage tomorrow at 2pm")

	assert.Equal(t, ScopeShared, profile.ServiceScope, "conjunction-joined services share one booking")
	assert.Equal(t, TimeTypeExact, profile.TimeType)
}

func TestInterpretSeparateBookings(t *testing.T) {
	profile, _ := interpret(t, "book a haircut and schedule a massage")

	assert.GreaterOrEqual(t, profile.BookingCount, 2, "two booking verbs mean two bookings")
	assert.Equal(t, ScopeSeparate, profile.ServiceScope, "a verb between services splits them")
}

func TestInterpretSeparatorBetweenDatesIsOneBooking(t *testing.T) {
	profile, _ := interpret(t, "book a haircut tomorrow and friday")

	assert.Equal(t, 1, profile.BookingCount, "a conjunction joining dates does not split the booking")
	assert.True(t, profile.NeedsClarificationHint, "two unmarked dates still need clarifying")
}

func TestInterpretSeparatorBetweenServicesSplits(t *testing.T) {
	profile, _ := interpret(t, "book a haircut and a massage tomorrow at 2pm")

	assert.Equal(t, 2, profile.BookingCount)
}

func TestInterpretTimeTypes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  TimeType
	}{
		{"exact", "haircut tomorrow at 2pm", TimeTypeExact},
		{"range between", "massage tomorrow between 2pm and 5pm", TimeTypeRange},
		{"range from to", "massage tomorrow from 2pm to 5pm", TimeTypeRange},
		{"window", "haircut tomorrow morning", TimeTypeWindow},
		{"none", "book a haircut tomorrow", TimeTypeNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, _ := interpret(t, tt.input)
			assert.Equal(t, tt.want, profile.TimeType)
		})
	}
}

func TestInterpretWindowPlusExactIsExact(t *testing.T) {
	profile, extraction := interpret(t, "book a haircut tomorrow evening at 6")

	assert.Equal(t, TimeTypeExact, profile.TimeType, "an explicit hour outranks the window")
	assert.Len(t, extraction.TimeWindows, 1, "the window span itself is still extracted")
}

func TestInterpretPerServiceTimes(t *testing.T) {
	profile, _ := interpret(t, "haircut at 2pm and massage at 4pm tomorrow")

	assert.Equal(t, ScopePerService, profile.TimeScope, "interleaved times attach per service")
}

func TestInterpretClarificationHints(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantHint bool
	}{
		{
			name:     "two dates without range marker",
			input:    "haircut tomorrow and friday",
			wantHint: true,
		},
		{
			name:     "two dates with range marker",
			input:    "massage from 15 dec to 17 dec",
			wantHint: false,
		},
		{
			name:     "clean single booking",
			input:    "haircut tomorrow at 2pm",
			wantHint: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, _ := interpret(t, tt.input)
			assert.Equal(t, tt.wantHint, profile.NeedsClarificationHint)
		})
	}
}
