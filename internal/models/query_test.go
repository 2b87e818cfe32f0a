package models

import (
	"errors"
	"testing"
)

func TestSearchQuery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		query   SearchQuery
		wantErr error
	}{
		{"valid query", SearchQuery{Query: "hello", Limit: 10}, nil},
		{"empty text is valid", SearchQuery{Query: "", Limit: 50}, nil},
		{"negative skip", SearchQuery{Query: "x", Skip: -1, Limit: 10}, ErrInvalidPagination},
		{"zero limit", SearchQuery{Query: "x", Limit: 0}, ErrInvalidPagination},
		{"limit above max", SearchQuery{Query: "x", Limit: 1001}, ErrInvalidPagination},
		{"limit at max", SearchQuery{Query: "x", Limit: 1000}, nil},
		{"unknown sort", SearchQuery{Query: "x", Limit: 10, Sort: "cheapest"}, ErrInvalidSort},
		{"negative price", SearchQuery{Query: "x", Limit: 10, Filters: Filters{MinPrice: -1}}, ErrInvalidFilter},
		{"inverted price", SearchQuery{Query: "x", Limit: 10, Filters: Filters{MinPrice: 20, MaxPrice: 10}}, ErrInvalidFilter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate(1000)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSearchQuery_ApplyDefaults(t *testing.T) {
	q := SearchQuery{Query: "x"}
	q.ApplyDefaults(50)
	if q.Limit != 50 {
		t.Errorf("Limit = %d, want 50", q.Limit)
	}
	if q.Sort != SortRelevance {
		t.Errorf("Sort = %q, want relevance", q.Sort)
	}

	q = SearchQuery{Query: "x", Limit: 5, Sort: SortRating}
	q.ApplyDefaults(50)
	if q.Limit != 5 || q.Sort != SortRating {
		t.Errorf("explicit values overwritten: %+v", q)
	}
}

func TestParseSortOption(t *testing.T) {
	tests := []struct {
		in   string
		want SortOption
		ok   bool
	}{
		{"", SortRelevance, true},
		{"Price_Asc", SortPriceAsc, true},
		{" newest ", SortNewest, true},
		{"rating", SortRating, true},
		{"random", "", false},
	}
	for _, tt := range tests {
		got, err := ParseSortOption(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseSortOption(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSortOption(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFilters_Allows(t *testing.T) {
	p := &Product{ID: "1", CategoryID: "c1", Price: 50, Rating: 4}
	tests := []struct {
		name string
		f    Filters
		want bool
	}{
		{"none", Filters{}, true},
		{"category match", Filters{CategoryID: "c1"}, true},
		{"category mismatch", Filters{CategoryID: "c2"}, false},
		{"price in range", Filters{MinPrice: 10, MaxPrice: 60}, true},
		{"below min", Filters{MinPrice: 60}, false},
		{"above max", Filters{MaxPrice: 40}, false},
		{"rating", Filters{MinRating: 4.5}, false},
	}
	for _, tt := range tests {
		if got := tt.f.Allows(p); got != tt.want {
			t.Errorf("%s: Allows = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestProduct_Contains(t *testing.T) {
	p := &Product{
		Title:       "Ergonomic Office Chair",
		Description: "Adjustable seat",
		Tags:        []string{"lumbar", "mesh"},
		Features:    []string{"360 swivel"},
	}
	tests := []struct {
		field Field
		term  string
		want  bool
	}{
		{FieldTitle, "office", true},
		{FieldTitle, "OFFICE CH", true},
		{FieldDescription, "seat", true},
		{FieldTags, "lumb", true},
		{FieldTags, "lumbar mesh", false},
		{FieldFeatures, "swivel", true},
		{FieldTitle, "lumbar", false},
	}
	for _, tt := range tests {
		if got := p.Contains(tt.field, tt.term); got != tt.want {
			t.Errorf("Contains(%s, %q) = %v, want %v", tt.field, tt.term, got, tt.want)
		}
	}
}
