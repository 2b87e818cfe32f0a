package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/nexventures/nexsearch/internal/models"
)

func sampleResponse() *models.SearchResponse {
	return &models.SearchResponse{
		Query:          "samsng phone",
		CorrectedQuery: "samsung phone",
		SearchTerms:    []string{"samsung", "phone"},
		SearchType:     string(models.MatchAllWords),
		Products: []models.RankedItem{
			{
				Product: models.Product{
					ID:           "p3",
					Title:        "Samsung Galaxy Phone",
					Description:  "Flagship handset with a large display",
					CategoryName: "Electronics",
					Price:        600,
					Rating:       4.5,
				},
				SearchMetadata: models.SearchMetadata{
					MatchType:    models.MatchAllWords,
					Score:        112.5,
					MatchedWords: []string{"samsung", "phone"},
				},
			},
		},
		Suggestions: []models.Suggestion{
			{Type: models.SuggestDidYouMean, Text: "samsung phone", Original: "samsng phone", Corrected: "samsung phone"},
			{Type: models.SuggestRelated, Text: "Samsung Monitor", ProductID: "p6", Title: "Samsung Monitor", Price: 250},
			{Type: models.SuggestCategory, Text: "Electronics"},
		},
		TotalResults:     1,
		ShowingResults:   1,
		ProcessingTimeMs: 3.2,
		MatchStatistics:  map[string]int{"all_words": 1},
		Limit:            50,
	}
}

func TestWriteSearchResponse_JSON(t *testing.T) {
	response := sampleResponse()
	var buf bytes.Buffer
	if err := WriteSearchResponse(&buf, response, OutputJSON); err != nil {
		t.Fatalf("WriteSearchResponse(json): %v", err)
	}
	var decoded models.SearchResponse
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.CorrectedQuery != "samsung phone" || decoded.TotalResults != 1 {
		t.Errorf("decoded = %+v", decoded)
	}
	if len(decoded.Products) != 1 || decoded.Products[0].SearchMetadata.MatchType != models.MatchAllWords {
		t.Errorf("decoded products = %+v", decoded.Products)
	}
}

func TestWriteSearchResponse_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResponse(&buf, sampleResponse(), OutputText); err != nil {
		t.Fatalf("WriteSearchResponse(text): %v", err)
	}
	out := buf.String()
	for _, sub := range []string{
		`Found 1 results for "samsng phone"`,
		"Searched for: samsung phone",
		"#1 Samsung Galaxy Phone",
		"Category: Electronics",
		"Match: all_words",
		"Words: samsung, phone",
		"Matches: all_words=1",
		"Did you mean: samsung phone",
		"Related: Samsung Monitor (p6, 250.00)",
		"Browse categories: Electronics",
	} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
}

func TestWriteSearchResponse_textDegraded(t *testing.T) {
	response := &models.SearchResponse{
		Query:      "chair",
		SearchType: models.SearchTypeFailed,
		Degraded:   true,
		Message:    "catalog unavailable: db down",
	}
	var buf bytes.Buffer
	if err := WriteSearchResponse(&buf, response, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "Warning: catalog degraded") || !strings.Contains(out, "Message: catalog unavailable") {
		t.Errorf("degraded output:\n%s", out)
	}
	if strings.Contains(out, "Showing") {
		t.Errorf("empty response should not print a range:\n%s", out)
	}
}

func TestWriteAnalysis(t *testing.T) {
	analysis := &models.QueryAnalysis{
		Query:           "office chair",
		CorrectedQuery:  "office chair",
		SearchTerms:     []string{"office", "chair"},
		SearchType:      string(models.MatchExactPhrase),
		TotalCandidates: 2,
		MatchStatistics: map[string]int{"exact_phrase": 1, "partial_match": 1},
		Results: []models.ProductAnalysis{
			{
				ID:           "p1",
				Title:        "Ergonomic Office Chair",
				MatchType:    models.MatchExactPhrase,
				Score:        180,
				TitleQuality: 20,
				TermsInTitle: map[string]bool{"office": true, "chair": true},
				EditDistance: 10,
				Breakdown:    map[string]float64{"base": 100, "title_quality": 20},
			},
		},
	}

	var buf bytes.Buffer
	if err := WriteAnalysis(&buf, analysis, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, sub := range []string{
		"Terms:     office, chair",
		"Candidates: 2",
		"Matches:   exact_phrase=1 partial_match=1",
		"1. Ergonomic Office Chair [exact_phrase] score=180.00",
		"breakdown: base=100.00 title_quality=20.00",
		"in title:  chair=yes office=yes",
	} {
		if !strings.Contains(out, sub) {
			t.Errorf("analysis output missing %q:\n%s", sub, out)
		}
	}

	buf.Reset()
	if err := WriteAnalysis(&buf, analysis, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.QueryAnalysis
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("analysis JSON: %v", err)
	}
	if decoded.TotalCandidates != 2 || len(decoded.Results) != 1 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestTruncateWords(t *testing.T) {
	tests := []struct {
		name     string
		s        string
		maxWords int
		want     string
	}{
		{"empty", "", 3, ""},
		{"few words", "one two", 3, "one two"},
		{"exact", "one two three", 3, "one two three"},
		{"more", "one two three four", 3, "one two three..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateWords(tt.s, tt.maxWords); got != tt.want {
				t.Errorf("truncateWords(%q, %d) = %q, want %q", tt.s, tt.maxWords, got, tt.want)
			}
		})
	}
}
