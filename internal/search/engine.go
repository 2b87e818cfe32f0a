// Package search runs the product search pipeline: typo correction, term
// extraction, phased matching, ranking and suggestions.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nexventures/nexsearch/internal/cache"
	"github.com/nexventures/nexsearch/internal/catalog"
	"github.com/nexventures/nexsearch/internal/config"
	"github.com/nexventures/nexsearch/internal/keyword"
	"github.com/nexventures/nexsearch/internal/metrics"
	"github.com/nexventures/nexsearch/internal/models"
	"github.com/nexventures/nexsearch/internal/ranking"
)

// Engine answers search queries against a catalog.
type Engine struct {
	catalog   catalog.Query
	config    *config.SearchConfig
	corrector *keyword.Corrector
	ranker    *ranking.Ranker
	cache     cache.Cache
	metrics   *metrics.Recorder
	logger    *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithCache sets the response cache.
func WithCache(c cache.Cache) Option {
	return func(e *Engine) {
		if c != nil {
			e.cache = c
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r *metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = r }
}

// WithRanker replaces the default ranker.
func WithRanker(r *ranking.Ranker) Option {
	return func(e *Engine) {
		if r != nil {
			e.ranker = r
		}
	}
}

// NewEngine creates a search engine over q.
func NewEngine(q catalog.Query, cfg *config.SearchConfig, opts ...Option) *Engine {
	e := &Engine{
		catalog: q,
		config:  cfg,
		corrector: keyword.NewCorrector(
			keyword.WithThreshold(cfg.TypoThreshold),
			keyword.WithMaxWordLength(cfg.MaxTypoWordLength),
		),
		ranker: ranking.NewRanker(nil),
		cache:  cache.Nop{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// outcome is the result of the pipeline before pagination.
type outcome struct {
	corrected string
	terms     []string
	ranked    []*ranking.RankedResult
	degraded  bool
	failed    error
}

// Search runs the full pipeline for query. Only an invalid query or a
// canceled context is returned as an error; catalog failures degrade into the
// response.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	start := time.Now()
	if err := ProcessQuery(query, e.config); err != nil {
		return nil, err
	}

	raw := strings.TrimSpace(query.Query)
	if raw == "" {
		resp := emptyResponse(query, raw, models.SearchTypeEmptyQuery)
		resp.ProcessingTimeMs = elapsedMs(start)
		e.metrics.ObserveSearch(resp.SearchType, time.Since(start))
		return resp, nil
	}

	key := cache.Key(query)
	cached, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		e.logger.Warn("cache lookup failed", zap.Error(err))
	}
	e.metrics.CacheLookup(ok)
	if ok {
		cached.Cached = true
		cached.ProcessingTimeMs = elapsedMs(start)
		e.metrics.ObserveSearch(cached.SearchType, time.Since(start))
		return cached, nil
	}

	target := query.Skip + 2*query.Limit
	out, err := e.execute(ctx, raw, target, query.Filters, false)
	if err != nil {
		return nil, err
	}

	resp := emptyResponse(query, raw, models.SearchTypeNoMatches)
	resp.CorrectedQuery = out.corrected
	resp.SearchTerms = out.terms
	resp.Degraded = out.degraded
	if out.failed != nil {
		resp.SearchType = models.SearchTypeFailed
		resp.Message = out.failed.Error()
	} else if len(out.ranked) > 0 {
		resp.SearchType = string(out.ranked[0].MatchType)
		resp.Suggestions = e.suggest(ctx, raw, out.corrected, out.ranked)
		resp.MatchStatistics = matchStatistics(out.ranked)
	}
	if resp.Suggestions == nil {
		resp.Suggestions = []models.Suggestion{}
	}

	ranking.SortBy(out.ranked, query.Sort)
	resp.TotalResults = len(out.ranked)
	for _, r := range ranking.Paginate(out.ranked, query.Skip, query.Limit) {
		resp.Products = append(resp.Products, r.Item())
	}
	resp.ShowingResults = len(resp.Products)
	resp.ProcessingTimeMs = elapsedMs(start)

	if !resp.Degraded {
		if err := e.cache.Set(ctx, key, resp); err != nil {
			e.logger.Warn("cache store failed", zap.Error(err))
		}
	}
	e.metrics.ObserveSearch(resp.SearchType, time.Since(start))
	e.logger.Info("search",
		zap.String("query", raw),
		zap.String("corrected", resp.CorrectedQuery),
		zap.String("search_type", resp.SearchType),
		zap.Int("total", resp.TotalResults),
		zap.Bool("degraded", resp.Degraded),
		zap.Float64("ms", resp.ProcessingTimeMs),
	)
	return resp, nil
}

// execute corrects, matches, filters and ranks raw. Context errors are
// returned; any other catalog error falls back to a plain title query and,
// failing that, to an empty failed outcome.
func (e *Engine) execute(ctx context.Context, raw string, target int, filters models.Filters, breakdown bool) (*outcome, error) {
	titles, err := e.catalog.SampleTitles(ctx, e.config.TitleSampleSize)
	if err != nil {
		if isContextErr(err) {
			return nil, err
		}
		e.logger.Warn("title sampling failed, skipping typo correction", zap.Error(err))
		titles = nil
	}

	out := &outcome{corrected: raw}
	if len(titles) > 0 {
		out.corrected = e.corrector.Correct(raw, titles)
	}
	out.terms = keyword.ExtractTerms(out.corrected, keyword.WithStopWords(e.config.RemoveStopWords))

	m := &matcher{catalog: e.catalog, pairLimit: e.config.PairLimit, logger: e.logger, metrics: e.metrics}
	candidates, err := m.match(ctx, trimmedPhrase(out.corrected), out.terms, target)
	if err != nil {
		if isContextErr(err) {
			return nil, err
		}
		e.logger.Warn("matching failed, using emergency title query", zap.Error(err))
		e.metrics.CatalogFallback()
		out.degraded = true
		candidates, err = e.emergency(ctx, out.corrected, target)
		if err != nil {
			if isContextErr(err) {
				return nil, err
			}
			e.logger.Error("catalog unavailable", zap.Error(err))
			out.failed = fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
			return out, nil
		}
	}

	kept := candidates[:0]
	for _, c := range candidates {
		if filters.Allows(&c.Product) {
			kept = append(kept, c)
		}
	}
	if breakdown {
		out.ranked = e.ranker.RankWithBreakdown(out.terms, kept)
	} else {
		out.ranked = e.ranker.Rank(out.terms, kept)
	}
	return out, nil
}

// emergency is the last-resort title query used when a matching phase fails.
func (e *Engine) emergency(ctx context.Context, q string, target int) ([]*ranking.Candidate, error) {
	ps, err := e.catalog.FindBySubstring(ctx, models.FieldTitle, trimmedPhrase(q), target)
	if err != nil {
		return nil, err
	}
	out := make([]*ranking.Candidate, 0, len(ps))
	for _, p := range ps {
		out = append(out, &ranking.Candidate{Product: p, MatchType: models.MatchEmergencyFallback, MatchedWords: []string{}})
	}
	return out, nil
}

// Analyze runs the pipeline for query without cache or pagination and reports
// how each of the top results was matched and scored.
func (e *Engine) Analyze(ctx context.Context, query string, topN int) (*models.QueryAnalysis, error) {
	if topN <= 0 {
		topN = 10
	}
	raw := strings.TrimSpace(query)
	analysis := &models.QueryAnalysis{
		Query:           raw,
		CorrectedQuery:  raw,
		SearchTerms:     []string{},
		SearchType:      models.SearchTypeEmptyQuery,
		MatchStatistics: map[string]int{},
		Results:         []models.ProductAnalysis{},
	}
	if raw == "" {
		return analysis, nil
	}

	out, err := e.execute(ctx, raw, 2*e.config.DefaultLimit, models.Filters{}, true)
	if err != nil {
		return nil, err
	}
	if out.failed != nil {
		return nil, out.failed
	}
	analysis.CorrectedQuery = out.corrected
	analysis.SearchTerms = out.terms
	analysis.TotalCandidates = len(out.ranked)
	analysis.SearchType = models.SearchTypeNoMatches
	if len(out.ranked) > 0 {
		analysis.SearchType = string(out.ranked[0].MatchType)
		analysis.MatchStatistics = matchStatistics(out.ranked)
	}

	lowered := strings.ToLower(out.corrected)
	for _, r := range ranking.TopN(out.ranked, topN) {
		title := strings.ToLower(r.Product.Title)
		analysis.Results = append(analysis.Results, models.ProductAnalysis{
			ID:           r.Product.ID,
			Title:        r.Product.Title,
			MatchType:    r.MatchType,
			Score:        r.Score,
			TitleQuality: r.Breakdown.Scores[ranking.ScorerTitleQuality],
			TermsInTitle: ranking.TermsInTitle(out.terms, title),
			EditDistance: keyword.LevenshteinDistance(lowered, title),
			Breakdown:    r.Breakdown.Scores,
		})
	}
	return analysis, nil
}

func emptyResponse(q *models.SearchQuery, raw, searchType string) *models.SearchResponse {
	return &models.SearchResponse{
		Query:          raw,
		CorrectedQuery: raw,
		SearchTerms:    []string{},
		SearchType:     searchType,
		Products:       []models.RankedItem{},
		Suggestions:    []models.Suggestion{},
		Skip:           q.Skip,
		Limit:          q.Limit,
	}
}

func matchStatistics(results []*ranking.RankedResult) map[string]int {
	stats := make(map[string]int)
	for _, r := range results {
		stats[string(r.MatchType)]++
	}
	return stats
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
