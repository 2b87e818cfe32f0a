package models

// MatchType names the matching phase that first found a product.
type MatchType string

const (
	MatchExactPhrase       MatchType = "exact_phrase"
	MatchAllWords          MatchType = "all_words"
	MatchPartial           MatchType = "partial_match"
	MatchSingleWord        MatchType = "single_word"
	MatchBroad             MatchType = "broad_search"
	MatchRelatedProducts   MatchType = "related_products"
	MatchEmergencyFallback MatchType = "emergency_fallback"
)

// Search types that are not match types.
const (
	SearchTypeEmptyQuery = "empty_query"
	SearchTypeNoMatches  = "no_matches"
	SearchTypeFailed     = "failed"
)

// SuggestionType tags a Suggestion.
type SuggestionType string

const (
	SuggestDidYouMean SuggestionType = "did_you_mean"
	SuggestRelated    SuggestionType = "related_product"
	SuggestCategory   SuggestionType = "category_suggestion"
)

// SearchMetadata explains why a product is in the result set.
type SearchMetadata struct {
	MatchType    MatchType `json:"match_type"`
	Score        float64   `json:"score"`
	MatchedWords []string  `json:"matched_words"`
}

// RankedItem is a product's display fields plus its search metadata.
type RankedItem struct {
	Product
	SearchMetadata SearchMetadata `json:"search_metadata"`
}

// CategoryCount is a category and how many top results fall in it.
type CategoryCount struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name,omitempty"`
	Count      int    `json:"count"`
}

// Suggestion is an auxiliary hint attached to a response. Which fields are set
// depends on Type.
type Suggestion struct {
	Type       SuggestionType  `json:"type"`
	Text       string          `json:"text"`
	Original   string          `json:"original,omitempty"`
	Corrected  string          `json:"corrected,omitempty"`
	ProductID  string          `json:"product_id,omitempty"`
	Title      string          `json:"title,omitempty"`
	Price      float64         `json:"price,omitempty"`
	Categories []CategoryCount `json:"categories,omitempty"`
}

// SearchResponse is the result of a search.
type SearchResponse struct {
	Query            string         `json:"query"`
	CorrectedQuery   string         `json:"corrected_query"`
	SearchTerms      []string       `json:"search_terms"`
	SearchType       string         `json:"search_type"`
	Products         []RankedItem   `json:"products"`
	Suggestions      []Suggestion   `json:"suggestions"`
	TotalResults     int            `json:"total_results"`
	ShowingResults   int            `json:"showing_results"`
	ProcessingTimeMs float64        `json:"processing_time_ms"`
	MatchStatistics  map[string]int `json:"match_statistics,omitempty"`
	Skip             int            `json:"skip"`
	Limit            int            `json:"limit"`
	Cached           bool           `json:"cached,omitempty"`
	Degraded         bool           `json:"degraded,omitempty"`
	Message          string         `json:"message,omitempty"`
}

// ProductAnalysis is the diagnostic view of one ranked product.
type ProductAnalysis struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	MatchType    MatchType          `json:"match_type"`
	Score        float64            `json:"score"`
	TitleQuality float64            `json:"title_quality"`
	TermsInTitle map[string]bool    `json:"terms_in_title"`
	EditDistance int                `json:"edit_distance"`
	Breakdown    map[string]float64 `json:"breakdown"`
}

// QueryAnalysis shows how a query is corrected, tokenized, matched and scored.
type QueryAnalysis struct {
	Query           string            `json:"query"`
	CorrectedQuery  string            `json:"corrected_query"`
	SearchTerms     []string          `json:"search_terms"`
	SearchType      string            `json:"search_type"`
	TotalCandidates int               `json:"total_candidates"`
	MatchStatistics map[string]int    `json:"match_statistics"`
	Results         []ProductAnalysis `json:"results"`
}
