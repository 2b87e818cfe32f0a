package keyword

import (
	"strings"
	"unicode"
)

const (
	defaultTypoThreshold = 60.0
	defaultMaxWordLength = 64
	// Words this short or shorter are never corrected.
	shortWordLength = 2
)

// WordCorrection records how one query word was handled.
type WordCorrection struct {
	Original    string  `json:"original"`
	Replacement string  `json:"replacement"`
	Title       string  `json:"title,omitempty"`
	TitleScore  float64 `json:"title_score"`
	WordScore   float64 `json:"word_score"`
}

// Changed reports whether the word was substituted.
func (w WordCorrection) Changed() bool {
	return w.Replacement != w.Original
}

// CorrectionResult is the outcome of correcting a query.
type CorrectionResult struct {
	OriginalQuery  string
	CorrectedQuery string
	Words          []WordCorrection
}

// HasCorrections reports whether any word was substituted.
func (r *CorrectionResult) HasCorrections() bool {
	for _, w := range r.Words {
		if w.Changed() {
			return true
		}
	}
	return false
}

// Corrector fixes typos in a query using fuzzy matches against reference titles.
// It holds no state between calls and is safe for concurrent use.
type Corrector struct {
	threshold     float64
	maxWordLength int
}

// CorrectorOption configures a Corrector.
type CorrectorOption func(*Corrector)

// WithThreshold sets the PartialRatio a title must exceed before one of its words
// may replace a query word.
func WithThreshold(t float64) CorrectorOption {
	return func(c *Corrector) {
		if t > 0 && t <= 100 {
			c.threshold = t
		}
	}
}

// WithMaxWordLength sets the rune length above which words are left alone.
func WithMaxWordLength(n int) CorrectorOption {
	return func(c *Corrector) {
		if n > shortWordLength {
			c.maxWordLength = n
		}
	}
}

// NewCorrector creates a Corrector.
func NewCorrector(opts ...CorrectorOption) *Corrector {
	c := &Corrector{
		threshold:     defaultTypoThreshold,
		maxWordLength: defaultMaxWordLength,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Correct returns query with each correctable word replaced by its closest
// title word. An empty query or empty title set returns query unchanged.
func (c *Corrector) Correct(query string, titles []string) string {
	return c.Check(query, titles).CorrectedQuery
}

// Check corrects query and reports the per-word decisions.
func (c *Corrector) Check(query string, titles []string) *CorrectionResult {
	res := &CorrectionResult{OriginalQuery: query, CorrectedQuery: query}
	words := strings.Fields(query)
	if len(words) == 0 || len(titles) == 0 {
		return res
	}

	known := knownWords(titles)
	corrected := make([]string, 0, len(words))
	for _, w := range words {
		wc := c.correctWord(w, titles, known)
		res.Words = append(res.Words, wc)
		corrected = append(corrected, wc.Replacement)
	}
	res.CorrectedQuery = strings.Join(corrected, " ")
	return res
}

func (c *Corrector) correctWord(word string, titles []string, known map[string]struct{}) WordCorrection {
	wc := WordCorrection{Original: word, Replacement: word}
	n := len([]rune(word))
	if n <= shortWordLength || n > c.maxWordLength {
		return wc
	}
	// A word already present in the catalog is spelled correctly.
	if _, ok := known[strings.ToLower(trimEdges(word))]; ok {
		return wc
	}

	bestIdx := -1
	for i, t := range titles {
		score := PartialRatio(word, t)
		if score > wc.TitleScore {
			wc.TitleScore = score
			bestIdx = i
			if score == 100 {
				break
			}
		}
	}
	if bestIdx < 0 || wc.TitleScore <= c.threshold {
		return wc
	}

	wc.Title = titles[bestIdx]
	best := ""
	for _, tw := range titleWords(titles[bestIdx]) {
		if score := Ratio(word, tw); score > wc.WordScore {
			wc.WordScore = score
			best = tw
		}
	}
	if best != "" {
		wc.Replacement = best
	}
	return wc
}

// titleWords splits a title into lowercased words with edge punctuation removed.
func titleWords(title string) []string {
	fields := strings.Fields(title)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if w := strings.ToLower(trimEdges(f)); w != "" {
			out = append(out, w)
		}
	}
	return out
}

func knownWords(titles []string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range titles {
		for _, w := range titleWords(t) {
			set[w] = struct{}{}
		}
	}
	return set
}

func trimEdges(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
