// Package ranking scores matched products and orders them for display.
package ranking

import (
	"strings"

	"github.com/nexventures/nexsearch/internal/models"
)

// Candidate is a product found by a matching phase, awaiting its score.
type Candidate struct {
	Product models.Product
	// MatchType is the phase that first found the product.
	MatchType models.MatchType
	// MatchedWords are the distinct query terms found in the searched fields.
	MatchedWords []string
}

// ScoringContext provides all the context needed for scoring a candidate.
type ScoringContext struct {
	// Terms are the extracted query terms, in query order, duplicates kept.
	Terms []string
	// Distinct is Terms without duplicates, in first-seen order.
	Distinct []string
	// Candidate is the product being scored.
	Candidate *Candidate
	// Title is the candidate title, lowercased.
	Title string
}

// NewScoringContext creates a ScoringContext for c against terms.
func NewScoringContext(terms []string, c *Candidate) *ScoringContext {
	return &ScoringContext{
		Terms:     terms,
		Distinct:  distinct(terms),
		Candidate: c,
		Title:     strings.ToLower(c.Product.Title),
	}
}

func distinct(terms []string) []string {
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

// Scorer is the interface for all scoring components. A Scorer never returns
// a negative score.
type Scorer interface {
	// Score calculates the score for a candidate given the scoring context.
	Score(ctx *ScoringContext) float64
	// Name returns the name of the scorer, used as its breakdown key.
	Name() string
}

// ScoreBreakdown provides detailed scoring information for query analysis.
type ScoreBreakdown struct {
	// FinalScore is the sum of all scorer contributions.
	FinalScore float64
	// Scores maps scorer name to its contribution.
	Scores map[string]float64
}

// NewScoreBreakdown creates a new ScoreBreakdown instance.
func NewScoreBreakdown() *ScoreBreakdown {
	return &ScoreBreakdown{Scores: make(map[string]float64)}
}
