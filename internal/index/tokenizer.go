// Package index turns documents into an inverted index: normalized tokens
// mapped to postings sorted by document id. Index construction is
// deterministic, so the same document set always produces the same snapshot
// bytes.
package index

import (
	"strings"
	"unicode"
)

// Tokenization is intentionally simple: lowercase, split on runs of
// non-alphanumerics, drop tokens shorter than two characters, remove stop
// words. There is no stemming; queries must reproduce indexing exactly, and
// stemming would break exact-phrase testability.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "not": {}, "no": {}, "so": {}, "can": {},
}

// Token is a single normalised term and its position among the kept tokens
// of the source text.
type Token struct {
	Term     string
	Position int
}

// Tokenize breaks text into lowercased Tokens with stop-words and short
// tokens removed. Positions start at basePos and increase by one per kept
// token, so callers can chain fields into one position space.
func Tokenize(text string, basePos int) []Token {
	text = strings.ToLower(text)
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]Token, 0, len(words)/2)
	pos := basePos
	for _, word := range words {
		if len(word) < 2 {
			continue
		}
		if _, isStop := stopWords[word]; isStop {
			continue
		}
		tokens = append(tokens, Token{
			Term:     word,
			Position: pos,
		})
		pos++
	}
	return tokens
}

// IsStopWord reports whether the lowercased word is on the stop list.
func IsStopWord(word string) bool {
	_, ok := stopWords[word]
	return ok
}
