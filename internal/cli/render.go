// Package cli renders search responses and query analyses for the nexsearch CLI.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/nexventures/nexsearch/internal/models"
	"github.com/nexventures/nexsearch/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is the same JSON the HTTP API returns.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts text or json; the empty string means text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text or json)", s)
}

const descriptionWords = 24

// WriteSearchResponse writes response to w in the given format.
func WriteSearchResponse(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	writeSearchText(w, response)
	return nil
}

// WriteAnalysis writes a query analysis to w in the given format.
func WriteAnalysis(w io.Writer, analysis *models.QueryAnalysis, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, analysis)
	}
	writeAnalysisText(w, analysis)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSearchText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\nFound %d results for %q in %.1fms (%s)\n",
		response.TotalResults, response.Query, response.ProcessingTimeMs, response.SearchType)
	if response.CorrectedQuery != "" && !strings.EqualFold(response.CorrectedQuery, strings.TrimSpace(response.Query)) {
		fmt.Fprintf(w, "Searched for: %s\n", response.CorrectedQuery)
	}
	if response.Degraded {
		fmt.Fprintln(w, "Warning: catalog degraded, results come from fallback matching")
	}
	if response.Message != "" {
		fmt.Fprintf(w, "Message: %s\n", response.Message)
	}
	if response.TotalResults > 0 {
		fmt.Fprintf(w, "Showing %d-%d\n", response.Skip+1, response.Skip+response.ShowingResults)
	}
	fmt.Fprintln(w)
	for i, item := range response.Products {
		writeItem(w, response.Skip+i+1, item)
	}
	if len(response.MatchStatistics) > 0 {
		fmt.Fprintf(w, "Matches: %s\n", formatCounts(response.MatchStatistics))
	}
	for _, s := range response.Suggestions {
		writeSuggestion(w, s)
	}
}

func writeItem(w io.Writer, rank int, item models.RankedItem) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "#%d %s\n", rank, item.Title)
	fmt.Fprintf(w, "ID: %s | Price: %.2f | Rating: %.1f", item.ID, item.Price, item.Rating)
	if item.CategoryName != "" {
		fmt.Fprintf(w, " | Category: %s", item.CategoryName)
	}
	fmt.Fprintln(w)
	meta := item.SearchMetadata
	fmt.Fprintf(w, "Match: %s | Score: %.2f", meta.MatchType, meta.Score)
	if len(meta.MatchedWords) > 0 {
		fmt.Fprintf(w, " | Words: %s", strings.Join(meta.MatchedWords, ", "))
	}
	fmt.Fprintln(w)
	if item.Description != "" {
		fmt.Fprintf(w, "\n%s\n", truncateWords(item.Description, descriptionWords))
	}
	fmt.Fprintln(w)
}

func writeSuggestion(w io.Writer, s models.Suggestion) {
	switch s.Type {
	case models.SuggestDidYouMean:
		fmt.Fprintf(w, "Did you mean: %s\n", s.Text)
	case models.SuggestRelated:
		fmt.Fprintf(w, "Related: %s (%s, %.2f)\n", s.Title, s.ProductID, s.Price)
	case models.SuggestCategory:
		fmt.Fprintf(w, "Browse categories: %s\n", s.Text)
	default:
		fmt.Fprintf(w, "%s: %s\n", s.Type, s.Text)
	}
}

func writeAnalysisText(w io.Writer, a *models.QueryAnalysis) {
	fmt.Fprintf(w, "\nQuery:     %s\n", a.Query)
	fmt.Fprintf(w, "Corrected: %s\n", a.CorrectedQuery)
	fmt.Fprintf(w, "Terms:     %s\n", strings.Join(a.SearchTerms, ", "))
	fmt.Fprintf(w, "Type:      %s\n", a.SearchType)
	fmt.Fprintf(w, "Candidates: %d\n", a.TotalCandidates)
	if len(a.MatchStatistics) > 0 {
		fmt.Fprintf(w, "Matches:   %s\n", formatCounts(a.MatchStatistics))
	}
	fmt.Fprintln(w)
	for i, r := range a.Results {
		fmt.Fprintf(w, "%d. %s [%s] score=%.2f title_quality=%.2f edit_distance=%d\n",
			i+1, utils.Truncate(r.Title, 60), r.MatchType, r.Score, r.TitleQuality, r.EditDistance)
		if len(r.Breakdown) > 0 {
			fmt.Fprintf(w, "   breakdown: %s\n", formatScores(r.Breakdown))
		}
		if len(r.TermsInTitle) > 0 {
			fmt.Fprintf(w, "   in title:  %s\n", formatFlags(r.TermsInTitle))
		}
	}
}

func formatCounts(m map[string]int) string {
	parts := make([]string, 0, len(m))
	for _, k := range sortedKeys(m) {
		parts = append(parts, fmt.Sprintf("%s=%d", k, m[k]))
	}
	return strings.Join(parts, " ")
}

func formatScores(m map[string]float64) string {
	parts := make([]string, 0, len(m))
	for _, k := range sortedKeys(m) {
		parts = append(parts, fmt.Sprintf("%s=%.2f", k, m[k]))
	}
	return strings.Join(parts, " ")
}

func formatFlags(m map[string]bool) string {
	parts := make([]string, 0, len(m))
	for _, k := range sortedKeys(m) {
		mark := "no"
		if m[k] {
			mark = "yes"
		}
		parts = append(parts, k+"="+mark)
	}
	return strings.Join(parts, " ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// truncateWords returns up to maxWords from the space-separated string.
func truncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
