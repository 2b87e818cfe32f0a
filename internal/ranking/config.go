package ranking

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrNegativeWeight is returned by Validate when a weight is below zero.
var ErrNegativeWeight = errors.New("ranking weight must not be negative")

// Config holds the weights of the additive scorers.
type Config struct {
	// Base scores per match phase
	ExactPhraseScore      float64 `yaml:"exact_phrase_score"`       // default: 200
	AllWordsScore         float64 `yaml:"all_words_score"`          // default: 150
	AllWordsLooseScore    float64 `yaml:"all_words_loose_score"`    // default: 120 (not every term confirmed in title)
	PartialMatchScore     float64 `yaml:"partial_match_score"`      // default: 80
	PartialMatchTermScore float64 `yaml:"partial_match_term_score"` // default: 20 per matched term
	SingleWordScore       float64 `yaml:"single_word_score"`        // default: 50
	BroadSearchScore      float64 `yaml:"broad_search_score"`       // default: 40

	// Title quality
	TitleCoverageWeight float64 `yaml:"title_coverage_weight"` // default: 100 x fraction of terms in title
	TitlePhraseBonus    float64 `yaml:"title_phrase_bonus"`    // default: 50
	AdjacentPairBonus   float64 `yaml:"adjacent_pair_bonus"`   // default: 30 per pair
	TitlePrefixBonus    float64 `yaml:"title_prefix_bonus"`    // default: 40

	MatchedTermBonus float64 `yaml:"matched_term_bonus"` // default: 10 per distinct matched term
	RatingWeight     float64 `yaml:"rating_weight"`      // default: 5
}

// DefaultConfig returns the default ranking configuration.
func DefaultConfig() *Config {
	return &Config{
		ExactPhraseScore:      200,
		AllWordsScore:         150,
		AllWordsLooseScore:    120,
		PartialMatchScore:     80,
		PartialMatchTermScore: 20,
		SingleWordScore:       50,
		BroadSearchScore:      40,

		TitleCoverageWeight: 100,
		TitlePhraseBonus:    50,
		AdjacentPairBonus:   30,
		TitlePrefixBonus:    40,

		MatchedTermBonus: 10,
		RatingWeight:     5,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()

	if c.ExactPhraseScore == 0 {
		c.ExactPhraseScore = defaults.ExactPhraseScore
	}
	if c.AllWordsScore == 0 {
		c.AllWordsScore = defaults.AllWordsScore
	}
	if c.AllWordsLooseScore == 0 {
		c.AllWordsLooseScore = defaults.AllWordsLooseScore
	}
	if c.PartialMatchScore == 0 {
		c.PartialMatchScore = defaults.PartialMatchScore
	}
	if c.PartialMatchTermScore == 0 {
		c.PartialMatchTermScore = defaults.PartialMatchTermScore
	}
	if c.SingleWordScore == 0 {
		c.SingleWordScore = defaults.SingleWordScore
	}
	if c.BroadSearchScore == 0 {
		c.BroadSearchScore = defaults.BroadSearchScore
	}

	if c.TitleCoverageWeight == 0 {
		c.TitleCoverageWeight = defaults.TitleCoverageWeight
	}
	if c.TitlePhraseBonus == 0 {
		c.TitlePhraseBonus = defaults.TitlePhraseBonus
	}
	if c.AdjacentPairBonus == 0 {
		c.AdjacentPairBonus = defaults.AdjacentPairBonus
	}
	if c.TitlePrefixBonus == 0 {
		c.TitlePrefixBonus = defaults.TitlePrefixBonus
	}

	if c.MatchedTermBonus == 0 {
		c.MatchedTermBonus = defaults.MatchedTermBonus
	}
	if c.RatingWeight == 0 {
		c.RatingWeight = defaults.RatingWeight
	}
}

// Validate rejects negative weights, so no scorer can lower a score.
func (c *Config) Validate() error {
	v := reflect.ValueOf(*c)
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		if v.Field(i).Float() < 0 {
			return fmt.Errorf("%w: %s = %g", ErrNegativeWeight, t.Field(i).Tag.Get("yaml"), v.Field(i).Float())
		}
	}
	return nil
}
