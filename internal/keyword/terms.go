package keyword

import (
	"strings"
	"unicode"
)

// StopWords are function words dropped by ExtractTerms when WithStopWords is set.
// Only entries of three runes or fewer are dropped, so "with" survives.
var StopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
}

// GenericTerms are nouns that say nothing about a product, dropped alongside StopWords.
var GenericTerms = map[string]struct{}{
	"product": {}, "item": {}, "goods": {}, "merchandise": {}, "thing": {},
}

type extractConfig struct {
	stopWords bool
}

// ExtractOption configures ExtractTerms.
type ExtractOption func(*extractConfig)

// WithStopWords enables stop-word and generic-term removal.
func WithStopWords(enabled bool) ExtractOption {
	return func(c *extractConfig) {
		c.stopWords = enabled
	}
}

// ExtractTerms lowercases query, replaces punctuation other than hyphens with
// spaces, and returns the whitespace-separated tokens of two or more runes in
// their original order. Duplicates are kept.
func ExtractTerms(query string, opts ...ExtractOption) []string {
	var cfg extractConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == '_' || r == '-' || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, strings.ToLower(query))

	fields := strings.Fields(cleaned)
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		n := len([]rune(f))
		if n < 2 {
			continue
		}
		if cfg.stopWords {
			if _, stop := StopWords[f]; stop && n <= 3 {
				continue
			}
			if _, generic := GenericTerms[f]; generic {
				continue
			}
		}
		terms = append(terms, f)
	}
	return terms
}

// Distinct returns terms without duplicates, keeping first occurrences.
func Distinct(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
