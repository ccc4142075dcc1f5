package nlu

import "strings"

// Token is one whitespace-delimited unit of the normalized text, with its
// character range.
type Token struct {
	Text  string
	Start int
	End   int
}

// Annotator supplies token boundaries for normalized text. It is an external
// collaborator boundary: implementations return best-effort spans and are
// never authoritative over domain canonicalization, which stays in the
// extractor.
type Annotator interface {
	Annotate(text string) []Token
}

// WhitespaceAnnotator is the default Annotator. Normalization has already
// spaced out punctuation and digit-letter boundaries, so field splitting is
// sufficient here.
type WhitespaceAnnotator struct{}

func (WhitespaceAnnotator) Annotate(text string) []Token {
	var tokens []Token
	i := 0
	for i < len(text) {
		for i < len(text) && text[i] == ' ' {
			i++
		}
		if i >= len(text) {
			break
		}
		start := i
		for i < len(text) && text[i] != ' ' {
			i++
		}
		tokens = append(tokens, Token{Text: text[start:i], Start: start, End: i})
	}
	return tokens
}

// joinTokens renders a token range back to text.
func joinTokens(tokens []Token, start, end int) string {
	parts := make([]string, 0, end-start)
	for _, t := range tokens[start:end] {
		parts = append(parts, t.Text)
	}
	return strings.Join(parts, " ")
}
