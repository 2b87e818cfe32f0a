package search

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/nexventures/nexsearch/internal/models"
	"github.com/nexventures/nexsearch/internal/ranking"
	"github.com/nexventures/nexsearch/pkg/utils"
)

const (
	relatedTitleRunes = 50
	maxCategories     = 3
)

// suggest builds the response hints from results in relevance order.
func (e *Engine) suggest(ctx context.Context, raw, corrected string, results []*ranking.RankedResult) []models.Suggestion {
	out := []models.Suggestion{}
	if !strings.EqualFold(strings.TrimSpace(raw), strings.TrimSpace(corrected)) {
		out = append(out, models.Suggestion{
			Type:      models.SuggestDidYouMean,
			Text:      corrected,
			Original:  raw,
			Corrected: corrected,
		})
	}
	if len(results) == 0 {
		return out
	}

	top := results[0].Product
	related, err := e.catalog.FindRelated(ctx, top, e.config.RelatedLimit)
	if err != nil {
		e.logger.Warn("related products lookup failed", zap.String("product_id", top.ID), zap.Error(err))
	}
	for _, p := range related {
		title := utils.Truncate(p.Title, relatedTitleRunes)
		out = append(out, models.Suggestion{
			Type:      models.SuggestRelated,
			Text:      title,
			ProductID: p.ID,
			Title:     title,
			Price:     p.Price,
		})
	}

	if e.config.CategorySuggestionsEnabled() {
		if cats := topCategories(ranking.TopN(results, e.config.CategoryTopN), maxCategories); len(cats) > 0 {
			names := make([]string, len(cats))
			for i, c := range cats {
				names[i] = c.Name
			}
			out = append(out, models.Suggestion{
				Type:       models.SuggestCategory,
				Text:       strings.Join(names, ", "),
				Categories: cats,
			})
		}
	}
	return out
}

// topCategories counts categories over results and returns the n most
// frequent, ties broken by first appearance.
func topCategories(results []*ranking.RankedResult, n int) []models.CategoryCount {
	var counts []models.CategoryCount
	index := make(map[string]int)
	for _, r := range results {
		id := r.Product.CategoryID
		if id == "" {
			continue
		}
		i, ok := index[id]
		if !ok {
			name := r.Product.CategoryName
			if name == "" {
				name = id
			}
			i = len(counts)
			index[id] = i
			counts = append(counts, models.CategoryCount{CategoryID: id, Name: name})
		}
		counts[i].Count++
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}
