package ranking

import (
	"strings"

	"github.com/nexventures/nexsearch/internal/models"
)

// Scorer names, used as ScoreBreakdown keys.
const (
	ScorerBase         = "base"
	ScorerTitleQuality = "title_quality"
	ScorerSpecificity  = "specificity"
	ScorerPopularity   = "popularity"
)

// BaseScorer scores a candidate by the phase that found it.
type BaseScorer struct {
	config *Config
}

// NewBaseScorer creates a new BaseScorer.
func NewBaseScorer(config *Config) *BaseScorer {
	return &BaseScorer{config: config}
}

// Name implements Scorer.
func (s *BaseScorer) Name() string { return ScorerBase }

// Score implements Scorer. An all_words candidate whose title does not contain
// every term on re-check gets the loose score; a partial_match earns a bonus
// per matched term. Related and emergency candidates have no base score.
func (s *BaseScorer) Score(ctx *ScoringContext) float64 {
	switch ctx.Candidate.MatchType {
	case models.MatchExactPhrase:
		return s.config.ExactPhraseScore
	case models.MatchAllWords:
		if countInTitle(ctx.Distinct, ctx.Title) == len(ctx.Distinct) {
			return s.config.AllWordsScore
		}
		return s.config.AllWordsLooseScore
	case models.MatchPartial:
		return s.config.PartialMatchScore + s.config.PartialMatchTermScore*float64(len(ctx.Candidate.MatchedWords))
	case models.MatchSingleWord:
		return s.config.SingleWordScore
	case models.MatchBroad:
		return s.config.BroadSearchScore
	}
	return 0
}

// TitleQualityScorer rewards titles that contain the query terms, in order
// and near the start.
type TitleQualityScorer struct {
	config *Config
}

// NewTitleQualityScorer creates a new TitleQualityScorer.
func NewTitleQualityScorer(config *Config) *TitleQualityScorer {
	return &TitleQualityScorer{config: config}
}

// Name implements Scorer.
func (s *TitleQualityScorer) Name() string { return ScorerTitleQuality }

// Score implements Scorer.
func (s *TitleQualityScorer) Score(ctx *ScoringContext) float64 {
	if len(ctx.Distinct) == 0 || ctx.Title == "" {
		return 0
	}
	score := s.config.TitleCoverageWeight * float64(countInTitle(ctx.Distinct, ctx.Title)) / float64(len(ctx.Distinct))

	if strings.Contains(ctx.Title, strings.Join(ctx.Terms, " ")) {
		score += s.config.TitlePhraseBonus
	}
	for i := 0; i+1 < len(ctx.Terms); i++ {
		if strings.Contains(ctx.Title, ctx.Terms[i]+" "+ctx.Terms[i+1]) {
			score += s.config.AdjacentPairBonus
		}
	}
	if strings.HasPrefix(ctx.Title, ctx.Terms[0]) {
		score += s.config.TitlePrefixBonus
	}
	return score
}

// SpecificityScorer rewards candidates that matched more distinct terms.
type SpecificityScorer struct {
	config *Config
}

// NewSpecificityScorer creates a new SpecificityScorer.
func NewSpecificityScorer(config *Config) *SpecificityScorer {
	return &SpecificityScorer{config: config}
}

// Name implements Scorer.
func (s *SpecificityScorer) Name() string { return ScorerSpecificity }

// Score implements Scorer.
func (s *SpecificityScorer) Score(ctx *ScoringContext) float64 {
	return s.config.MatchedTermBonus * float64(len(ctx.Candidate.MatchedWords))
}

// PopularityScorer rewards well-rated products.
type PopularityScorer struct {
	config *Config
}

// NewPopularityScorer creates a new PopularityScorer.
func NewPopularityScorer(config *Config) *PopularityScorer {
	return &PopularityScorer{config: config}
}

// Name implements Scorer.
func (s *PopularityScorer) Name() string { return ScorerPopularity }

// Score implements Scorer.
func (s *PopularityScorer) Score(ctx *ScoringContext) float64 {
	if r := ctx.Candidate.Product.Rating; r > 0 {
		return r * s.config.RatingWeight
	}
	return 0
}

// DefaultScorers returns the four additive scorers in breakdown order.
func DefaultScorers(config *Config) []Scorer {
	return []Scorer{
		NewBaseScorer(config),
		NewTitleQualityScorer(config),
		NewSpecificityScorer(config),
		NewPopularityScorer(config),
	}
}

// countInTitle counts the terms that occur in the lowercased title.
func countInTitle(terms []string, title string) int {
	n := 0
	for _, t := range terms {
		if strings.Contains(title, t) {
			n++
		}
	}
	return n
}

// TermsInTitle reports, per distinct term, whether the title contains it.
func TermsInTitle(terms []string, title string) map[string]bool {
	lower := strings.ToLower(title)
	out := make(map[string]bool, len(terms))
	for _, t := range terms {
		out[t] = strings.Contains(lower, t)
	}
	return out
}
