package nlu

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Orthographic normalization applied before any matching. Folding happens in
// a fixed order so alias lookups and the tokenizer see one canonical surface
// form regardless of how the user typed it.

var (
	dashVariants       = regexp.MustCompile("[‐‑‒–—−]")
	spacedHyphen       = regexp.MustCompile(`\s*-\s*`)
	possessive         = regexp.MustCompile(`(\w)'s\b`)
	innerApostrophe    = regexp.MustCompile(`(\w)'(\w)`)
	digitThenLetter    = regexp.MustCompile(`(\d)([a-zA-Z])`)
	letterThenDigit    = regexp.MustCompile(`([a-zA-Z])(\d)`)
	punctBeforeText    = regexp.MustCompile(`([.!?;,])(\S)`)
	textBeforePunct    = regexp.MustCompile(`(\S)([.!?;,])`)
	multiSpace         = regexp.MustCompile(`\s+`)
	halfPast           = regexp.MustCompile(`\bhalf past (\d{1,2})\b`)
	quarterPast        = regexp.MustCompile(`\bquarter past (\d{1,2})\b`)
	quarterTo          = regexp.MustCompile(`\bquarter to (\d{1,2})\b`)
	oclock             = regexp.MustCompile(`\b(\d{1,2}) o'?clock\b`)
	meridiemDots       = regexp.MustCompile(`\b([ap])\.m\.?`)
	digitMeridiemSplit = regexp.MustCompile(`\b(\d{1,2}(?::\d{2})?) (am|pm)\b`)
)

// Word-number forms folded to digits so "two pm" and "2 pm" extract alike.
var wordNumbers = map[string]string{
	"one": "1", "two": "2", "three": "3", "four": "4", "five": "5",
	"six": "6", "seven": "7", "eight": "8", "nine": "9", "ten": "10",
	"eleven": "11", "twelve": "12",
}

// normalizeText lowercases, folds dash/apostrophe/meridiem variants, spaces
// out punctuation and digit-letter boundaries, and rewrites spoken time
// phrases into clock forms ("half past two" → "2:30").
func normalizeText(text string) string {
	s := norm.NFKC.String(text)
	s = strings.ToLower(strings.TrimSpace(s))

	// Unicode dash and apostrophe variants to ASCII.
	s = dashVariants.ReplaceAllString(s, "-")
	s = strings.NewReplacer("’", "'", "‘", "'", "`", "'").Replace(s)
	s = spacedHyphen.ReplaceAllString(s, "-")

	// Possessives and contractions: kellogg's → kelloggs, don't → dont.
	s = possessive.ReplaceAllString(s, "${1}s")
	s = innerApostrophe.ReplaceAllString(s, "$1$2")

	// a.m. / p.m. → am / pm before digit-letter splitting.
	s = meridiemDots.ReplaceAllString(s, "${1}m")

	// 2pm → 2 pm, 30min → 30 min.
	s = digitThenLetter.ReplaceAllString(s, "$1 $2")
	s = letterThenDigit.ReplaceAllString(s, "$1 $2")

	// Space punctuation away from words.
	s = punctBeforeText.ReplaceAllString(s, "$1 $2")
	s = textBeforePunct.ReplaceAllString(s, "$1 $2")

	s = multiSpace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	s = foldSpokenTimes(s)

	return s
}

// foldSpokenTimes rewrites natural-language time variants into clock forms.
func foldSpokenTimes(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if d, ok := wordNumbers[w]; ok {
			// Only fold when the neighbor is time-ish, to keep "two haircuts"
			// intact.
			if i+1 < len(words) && isTimeNeighbor(words[i+1]) {
				words[i] = d
			} else if i > 0 && (words[i-1] == "at" || words[i-1] == "by" || words[i-1] == "around" || words[i-1] == "past") {
				words[i] = d
			}
		}
	}
	s = strings.Join(words, " ")

	s = halfPast.ReplaceAllStringFunc(s, func(m string) string {
		h := halfPast.FindStringSubmatch(m)[1]
		return h + ":30"
	})
	s = quarterPast.ReplaceAllStringFunc(s, func(m string) string {
		h := quarterPast.FindStringSubmatch(m)[1]
		return h + ":15"
	})
	s = quarterTo.ReplaceAllStringFunc(s, func(m string) string {
		h, _ := strconv.Atoi(quarterTo.FindStringSubmatch(m)[1])
		prev := h - 1
		if prev == 0 {
			prev = 12
		}
		return strconv.Itoa(prev) + ":45"
	})
	s = oclock.ReplaceAllString(s, "$1:00")
	return s
}

func isTimeNeighbor(w string) bool {
	switch w {
	case "am", "pm", "o'clock", "oclock", "hours", "hour", "minutes", "mins":
		return true
	}
	return false
}

// glueMeridiem joins a time digit group to its meridiem ("2 pm" → "2pm") so a
// single token carries the full time expression. Run after normalizeText,
// before tokenizing.
func glueMeridiem(s string) string {
	return digitMeridiemSplit.ReplaceAllString(s, "${1}${2}")
}
