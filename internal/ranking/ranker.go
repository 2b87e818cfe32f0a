package ranking

import (
	"sort"

	"github.com/nexventures/nexsearch/internal/models"
)

// Ranker sums the scorers' contributions and orders candidates by score.
type Ranker struct {
	config  *Config
	scorers []Scorer
}

// NewRanker creates a new Ranker with the given configuration.
func NewRanker(config *Config) *Ranker {
	if config == nil {
		config = DefaultConfig()
	}
	config.ApplyDefaults()

	return &Ranker{
		config:  config,
		scorers: DefaultScorers(config),
	}
}

// WithScorers replaces the scorers.
func (r *Ranker) WithScorers(scorers ...Scorer) *Ranker {
	r.scorers = scorers
	return r
}

// Score calculates the final score of c for terms.
func (r *Ranker) Score(terms []string, c *Candidate) float64 {
	ctx := NewScoringContext(terms, c)
	var score float64
	for _, s := range r.scorers {
		score += s.Score(ctx)
	}
	return score
}

// Breakdown returns each scorer's contribution to c's score.
func (r *Ranker) Breakdown(terms []string, c *Candidate) *ScoreBreakdown {
	ctx := NewScoringContext(terms, c)
	breakdown := NewScoreBreakdown()
	for _, s := range r.scorers {
		v := s.Score(ctx)
		breakdown.Scores[s.Name()] = v
		breakdown.FinalScore += v
	}
	return breakdown
}

// RankedResult holds a candidate with its computed score.
type RankedResult struct {
	*Candidate
	Score     float64
	Breakdown *ScoreBreakdown
}

// Item converts the result to its response form.
func (r *RankedResult) Item() models.RankedItem {
	words := r.MatchedWords
	if words == nil {
		words = []string{}
	}
	return models.RankedItem{
		Product: r.Product,
		SearchMetadata: models.SearchMetadata{
			MatchType:    r.MatchType,
			Score:        r.Score,
			MatchedWords: words,
		},
	}
}

// Rank scores candidates and sorts them by score descending. The sort is
// stable, so equal scores keep discovery order.
func (r *Ranker) Rank(terms []string, candidates []*Candidate) []*RankedResult {
	return r.rank(terms, candidates, false)
}

// RankWithBreakdown is Rank with a ScoreBreakdown on every result.
func (r *Ranker) RankWithBreakdown(terms []string, candidates []*Candidate) []*RankedResult {
	return r.rank(terms, candidates, true)
}

func (r *Ranker) rank(terms []string, candidates []*Candidate, withBreakdown bool) []*RankedResult {
	results := make([]*RankedResult, 0, len(candidates))
	for _, c := range candidates {
		res := &RankedResult{Candidate: c}
		if withBreakdown {
			res.Breakdown = r.Breakdown(terms, c)
			res.Score = res.Breakdown.FinalScore
		} else {
			res.Score = r.Score(terms, c)
		}
		results = append(results, res)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// Config returns the ranking configuration.
func (r *Ranker) Config() *Config {
	return r.config
}

// SortBy reorders ranked results by a non-relevance sort option. The sort is
// stable over the relevance order, so ties keep their relevance rank.
func SortBy(results []*RankedResult, opt models.SortOption) {
	var less func(a, b *RankedResult) bool
	switch opt {
	case models.SortPriceAsc:
		less = func(a, b *RankedResult) bool { return a.Product.Price < b.Product.Price }
	case models.SortPriceDesc:
		less = func(a, b *RankedResult) bool { return a.Product.Price > b.Product.Price }
	case models.SortNewest:
		less = func(a, b *RankedResult) bool { return a.Product.CreatedAt.After(b.Product.CreatedAt) }
	case models.SortRating:
		less = func(a, b *RankedResult) bool { return a.Product.Rating > b.Product.Rating }
	default:
		return
	}
	sort.SliceStable(results, func(i, j int) bool { return less(results[i], results[j]) })
}

// TopN returns the top N results.
func TopN(results []*RankedResult, n int) []*RankedResult {
	if n < 0 || n >= len(results) {
		return results
	}
	return results[:n]
}

// Paginate returns a page of results.
func Paginate(results []*RankedResult, offset, limit int) []*RankedResult {
	if offset >= len(results) {
		return nil
	}
	end := offset + limit
	if end > len(results) {
		end = len(results)
	}
	return results[offset:end]
}
