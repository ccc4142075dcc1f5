package nlu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "lowercases and trims",
			input: "  Book a Haircut  ",
			want:  "book a haircut",
		},
		{
			name:  "splits digit from meridiem",
			input: "Book at 2PM",
			want:  "book at 2 pm",
		},
		{
			name:  "folds dotted meridiem",
			input: "see you at 2 p.m.",
			want:  "see you at 2 pm",
		},
		{
			name:  "folds possessive",
			input: "kellogg's special",
			want:  "kelloggs special",
		},
		{
			name:  "spaces punctuation",
			input: "haircut,tomorrow.please",
			want:  "haircut , tomorrow . please",
		},
		{
			name:  "unicode dash to ascii",
			input: "2–30 slot",
			want:  "2-30 slot",
		},
		{
			name:  "half past with word number",
			input: "half past two",
			want:  "2:30",
		},
		{
			name:  "half past digits",
			input: "half past 4",
			want:  "4:30",
		},
		{
			name:  "quarter to",
			input: "quarter to 5",
			want:  "4:45",
		},
		{
			name:  "o'clock",
			input: "3 o'clock",
			want:  "3:00",
		},
		{
			name:  "word number before pm",
			input: "two pm",
			want:  "2 pm",
		},
		{
			name:  "word number kept for counts",
			input: "two haircuts",
			want:  "two haircuts",
		},
		{
			name:  "word number after around",
			input: "around six",
			want:  "around 6",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeText(tt.input))
		})
	}
}

func TestGlueMeridiem(t *testing.T) {
	assert.Equal(t, "book at 2pm", glueMeridiem("book at 2 pm"))
	assert.Equal(t, "from 9:30am on", glueMeridiem("from 9:30 am on"))
	assert.Equal(t, "no time here", glueMeridiem("no time here"))
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Book a Haircut at 2PM tomorrow!",
		"half past two",
		"cancel my appointment, please.",
	}
	for _, in := range inputs {
		once := normalizeText(in)
		assert.Equal(t, once, normalizeText(once), "normalization must be stable for %q", in)
	}
}
