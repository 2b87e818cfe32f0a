package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPagination is returned by Validate for out-of-range skip or limit values.
var ErrInvalidPagination = errors.New("invalid pagination")

// ErrInvalidSort is returned by Validate for an unknown sort option.
var ErrInvalidSort = errors.New("invalid sort option")

// ErrInvalidFilter is returned by Validate for negative or inverted filter bounds.
var ErrInvalidFilter = errors.New("invalid filter")

// SortOption orders ranked results.
type SortOption string

const (
	SortRelevance SortOption = "relevance"
	SortPriceAsc  SortOption = "price_asc"
	SortPriceDesc SortOption = "price_desc"
	SortNewest    SortOption = "newest"
	SortRating    SortOption = "rating"
)

// ParseSortOption parses s; the empty string means relevance.
func ParseSortOption(s string) (SortOption, error) {
	switch SortOption(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortRelevance:
		return SortRelevance, nil
	case SortPriceAsc:
		return SortPriceAsc, nil
	case SortPriceDesc:
		return SortPriceDesc, nil
	case SortNewest:
		return SortNewest, nil
	case SortRating:
		return SortRating, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSort, s)
}

// Filters narrow matched candidates before ranking. Zero values mean "no filter".
type Filters struct {
	CategoryID string  `json:"category_id,omitempty"`
	MinPrice   float64 `json:"min_price,omitempty"`
	MaxPrice   float64 `json:"max_price,omitempty"`
	MinRating  float64 `json:"min_rating,omitempty"`
}

// Empty reports whether no filter is set.
func (f Filters) Empty() bool {
	return f == Filters{}
}

// Allows reports whether p passes every set filter.
func (f Filters) Allows(p *Product) bool {
	if f.CategoryID != "" && p.CategoryID != f.CategoryID {
		return false
	}
	if f.MinPrice > 0 && p.Price < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && p.Price > f.MaxPrice {
		return false
	}
	if f.MinRating > 0 && p.Rating < f.MinRating {
		return false
	}
	return true
}

// SearchQuery is a search request. It is built per request and discarded after the response.
type SearchQuery struct {
	Query   string     `json:"query"`
	Skip    int        `json:"skip,omitempty"`
	Limit   int        `json:"limit,omitempty"`
	Sort    SortOption `json:"sort,omitempty"`
	Filters Filters    `json:"filters,omitempty"`
}

// ApplyDefaults fills an unset limit and sort.
func (q *SearchQuery) ApplyDefaults(defaultLimit int) {
	if q.Limit == 0 {
		q.Limit = defaultLimit
	}
	if q.Sort == "" {
		q.Sort = SortRelevance
	}
}

// Validate checks pagination and sort. An empty query text is valid; it yields an
// empty result rather than an error.
func (q *SearchQuery) Validate(maxLimit int) error {
	if q.Skip < 0 {
		return fmt.Errorf("%w: skip must be >= 0, got %d", ErrInvalidPagination, q.Skip)
	}
	if q.Limit < 1 {
		return fmt.Errorf("%w: limit must be >= 1, got %d", ErrInvalidPagination, q.Limit)
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		return fmt.Errorf("%w: limit must be <= %d, got %d", ErrInvalidPagination, maxLimit, q.Limit)
	}
	if q.Filters.MinPrice < 0 || q.Filters.MaxPrice < 0 || q.Filters.MinRating < 0 {
		return fmt.Errorf("%w: bounds must be >= 0", ErrInvalidFilter)
	}
	if q.Filters.MaxPrice > 0 && q.Filters.MinPrice > q.Filters.MaxPrice {
		return fmt.Errorf("%w: min_price %.2f exceeds max_price %.2f", ErrInvalidFilter, q.Filters.MinPrice, q.Filters.MaxPrice)
	}
	if _, err := ParseSortOption(string(q.Sort)); err != nil {
		return err
	}
	return nil
}
