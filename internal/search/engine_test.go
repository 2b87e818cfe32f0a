package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexventures/nexsearch/internal/cache"
	"github.com/nexventures/nexsearch/internal/catalog"
	"github.com/nexventures/nexsearch/internal/config"
	"github.com/nexventures/nexsearch/internal/metrics"
	"github.com/nexventures/nexsearch/internal/models"
)

var errBackend = errors.New("connection reset")

func testProducts() []models.Product {
	return []models.Product{
		{
			ID: "p1", Title: "Ergonomic Office Chair", Description: "Mesh back",
			Tags: []string{"lumbar", "mesh"}, CategoryID: "furniture", CategoryName: "Furniture",
			Price: 300, Rating: 4.8, Active: true, Featured: true,
		},
		{
			ID: "p2", Title: "Office Desk Chair Mat", CategoryID: "furniture", CategoryName: "Furniture",
			Price: 40, Rating: 3.5, Active: true,
		},
		{
			ID: "p3", Title: "Samsung Galaxy Phone", CategoryID: "electronics", CategoryName: "Electronics",
			Price: 600, Rating: 4.2, Active: true,
		},
		{
			ID: "p4", Title: "Wireless Office Headset", CategoryID: "electronics", CategoryName: "Electronics",
			Price: 90, Rating: 4.0, Active: true,
		},
		{
			ID: "p5", Title: "Standing Desk", Features: []string{"height adjustable"},
			CategoryID: "furniture", CategoryName: "Furniture", Price: 500, Rating: 4.6, Active: true,
		},
		{
			ID: "p6", Title: "Samsung Monitor", CategoryID: "electronics", Price: 250, Active: false,
		},
	}
}

func testConfig() *config.SearchConfig {
	return &config.Default().Search
}

func newTestEngine(t *testing.T, q catalog.Query, opts ...Option) *Engine {
	t.Helper()
	return NewEngine(q, testConfig(), opts...)
}

func productIDs(items []models.RankedItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func suggestionsOf(resp *models.SearchResponse, typ models.SuggestionType) []models.Suggestion {
	var out []models.Suggestion
	for _, s := range resp.Suggestions {
		if s.Type == typ {
			out = append(out, s)
		}
	}
	return out
}

// flakyCatalog fails selected catalog calls.
type flakyCatalog struct {
	*catalog.Memory
	failPhases bool
	failAll    bool
	sampleErr  error
	relatedErr error
}

func (f *flakyCatalog) FindBySubstring(ctx context.Context, field models.Field, term string, limit int) ([]models.Product, error) {
	if f.failAll {
		return nil, errBackend
	}
	return f.Memory.FindBySubstring(ctx, field, term, limit)
}

func (f *flakyCatalog) FindAllTerms(ctx context.Context, terms []string, limit int) ([]models.Product, error) {
	if f.failPhases || f.failAll {
		return nil, errBackend
	}
	return f.Memory.FindAllTerms(ctx, terms, limit)
}

func (f *flakyCatalog) FindAnyTerm(ctx context.Context, terms []string, fields []models.Field, limit int) ([]models.Product, error) {
	if f.failPhases || f.failAll {
		return nil, errBackend
	}
	return f.Memory.FindAnyTerm(ctx, terms, fields, limit)
}

func (f *flakyCatalog) SampleTitles(ctx context.Context, limit int) ([]string, error) {
	if f.sampleErr != nil {
		return nil, f.sampleErr
	}
	return f.Memory.SampleTitles(ctx, limit)
}

func (f *flakyCatalog) FindRelated(ctx context.Context, p models.Product, limit int) ([]models.Product, error) {
	if f.relatedErr != nil {
		return nil, f.relatedErr
	}
	return f.Memory.FindRelated(ctx, p, limit)
}

func TestEngine_ExactPhrase(t *testing.T) {
	e := newTestEngine(t, catalog.NewMemory(testProducts()...))

	resp, err := e.Search(context.Background(), &models.SearchQuery{Query: "  office chair "})
	require.NoError(t, err)

	assert.Equal(t, "office chair", resp.Query)
	assert.Equal(t, "office chair", resp.CorrectedQuery)
	assert.Equal(t, []string{"office", "chair"}, resp.SearchTerms)
	assert.Equal(t, string(models.MatchExactPhrase), resp.SearchType)
	assert.Equal(t, []string{"p1", "p2", "p4"}, productIDs(resp.Products))
	assert.Equal(t, 3, resp.TotalResults)
	assert.Equal(t, 3, resp.ShowingResults)
	assert.Equal(t, 50, resp.Limit)
	assert.False(t, resp.Degraded)
	assert.Equal(t, map[string]int{
		string(models.MatchExactPhrase): 1,
		string(models.MatchAllWords):    1,
		string(models.MatchSingleWord):  1,
	}, resp.MatchStatistics)

	top := resp.Products[0].SearchMetadata
	assert.Equal(t, models.MatchExactPhrase, top.MatchType)
	assert.ElementsMatch(t, []string{"office", "chair"}, top.MatchedWords)
	for i := 1; i < len(resp.Products); i++ {
		assert.GreaterOrEqual(t, resp.Products[i-1].SearchMetadata.Score, resp.Products[i].SearchMetadata.Score)
	}

	assert.Empty(t, suggestionsOf(resp, models.SuggestDidYouMean))
	related := suggestionsOf(resp, models.SuggestRelated)
	require.Len(t, related, 2)
	assert.Equal(t, "p5", related[0].ProductID)
	assert.Equal(t, "p2", related[1].ProductID)

	cats := suggestionsOf(resp, models.SuggestCategory)
	require.Len(t, cats, 1)
	assert.Equal(t, []models.CategoryCount{
		{CategoryID: "furniture", Name: "Furniture", Count: 2},
		{CategoryID: "electronics", Name: "Electronics", Count: 1},
	}, cats[0].Categories)
	assert.Equal(t, "Furniture, Electronics", cats[0].Text)
}

func TestEngine_TypoCorrection(t *testing.T) {
	e := newTestEngine(t, catalog.NewMemory(testProducts()...))

	resp, err := e.Search(context.Background(), &models.SearchQuery{Query: "samsng phone", Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, "samsng phone", resp.Query)
	assert.Equal(t, "samsung phone", resp.CorrectedQuery)
	assert.Equal(t, string(models.MatchAllWords), resp.SearchType)
	require.NotEmpty(t, resp.Products)
	assert.Equal(t, "p3", resp.Products[0].ID)

	dym := suggestionsOf(resp, models.SuggestDidYouMean)
	require.Len(t, dym, 1)
	assert.Equal(t, "samsng phone", dym[0].Original)
	assert.Equal(t, "samsung phone", dym[0].Corrected)
	assert.Equal(t, models.SuggestDidYouMean, resp.Suggestions[0].Type, "did_you_mean comes first")
}

func TestEngine_CaseOnlyDifferenceIsNotATypo(t *testing.T) {
	e := newTestEngine(t, catalog.NewMemory(testProducts()...))

	resp, err := e.Search(context.Background(), &models.SearchQuery{Query: "OFFICE Chair"})
	require.NoError(t, err)
	assert.Empty(t, suggestionsOf(resp, models.SuggestDidYouMean))
	assert.Equal(t, string(models.MatchExactPhrase), resp.SearchType)
}

func TestEngine_TagOnlyMatchIsBroad(t *testing.T) {
	e := newTestEngine(t, catalog.NewMemory(testProducts()...))

	resp, err := e.Search(context.Background(), &models.SearchQuery{Query: "lumbar"})
	require.NoError(t, err)
	assert.Equal(t, string(models.MatchBroad), resp.SearchType)
	require.Equal(t, []string{"p1"}, productIDs(resp.Products))
	assert.Equal(t, []string{"lumbar"}, resp.Products[0].SearchMetadata.MatchedWords)
}

func TestEngine_NothingMatchesFallsBackToFeatured(t *testing.T) {
	e := newTestEngine(t, catalog.NewMemory(testProducts()...))

	resp, err := e.Search(context.Background(), &models.SearchQuery{Query: "zz"})
	require.NoError(t, err)
	assert.Equal(t, string(models.MatchRelatedProducts), resp.SearchType)
	assert.Equal(t, []string{"p1"}, productIDs(resp.Products))
}

func TestEngine_NoMatches(t *testing.T) {
	ps := testProducts()
	for i := range ps {
		ps[i].Featured = false
	}
	e := newTestEngine(t, catalog.NewMemory(ps...))

	resp, err := e.Search(context.Background(), &models.SearchQuery{Query: "zz"})
	require.NoError(t, err)
	assert.Equal(t, models.SearchTypeNoMatches, resp.SearchType)
	assert.NotNil(t, resp.Products)
	assert.Empty(t, resp.Products)
	assert.NotNil(t, resp.Suggestions)
	assert.Zero(t, resp.TotalResults)
}

func TestEngine_EmptyQuery(t *testing.T) {
	e := newTestEngine(t, catalog.NewMemory(testProducts()...))

	for _, q := range []string{"", "   "} {
		resp, err := e.Search(context.Background(), &models.SearchQuery{Query: q, Skip: 0, Limit: 50})
		require.NoError(t, err)
		assert.Equal(t, models.SearchTypeEmptyQuery, resp.SearchType)
		assert.Zero(t, resp.TotalResults)
		assert.NotNil(t, resp.Products)
		assert.Empty(t, resp.Products)
		assert.Empty(t, resp.Suggestions)
	}
}

func TestEngine_Pagination(t *testing.T) {
	ps := make([]models.Product, 120)
	for i := range ps {
		ps[i] = models.Product{ID: fmt.Sprintf("w%03d", i), Title: fmt.Sprintf("Widget Model %03d", i), Price: 10, Active: true}
	}
	e := newTestEngine(t, catalog.NewMemory(ps...))

	resp, err := e.Search(context.Background(), &models.SearchQuery{Query: "widget", Skip: 40, Limit: 20})
	require.NoError(t, err)

	// matching stops at skip + 2*limit candidates
	assert.Equal(t, 80, resp.TotalResults)
	assert.Equal(t, 20, resp.ShowingResults)
	require.Len(t, resp.Products, 20)
	assert.Equal(t, "w040", resp.Products[0].ID)
	assert.Equal(t, "w059", resp.Products[19].ID)

	resp, err = e.Search(context.Background(), &models.SearchQuery{Query: "widget", Skip: 200, Limit: 20})
	require.NoError(t, err)
	assert.Zero(t, resp.ShowingResults)
	assert.Empty(t, resp.Products)
}

func TestEngine_Deduplication(t *testing.T) {
	e := newTestEngine(t, catalog.NewMemory(testProducts()...))

	resp, err := e.Search(context.Background(), &models.SearchQuery{Query: "office office chair desk"})
	require.NoError(t, err)
	seen := map[string]bool{}
	for _, p := range resp.Products {
		assert.False(t, seen[p.ID], "duplicate product %s", p.ID)
		seen[p.ID] = true
	}
	assert.Equal(t, []string{"office", "office", "chair", "desk"}, resp.SearchTerms)
}

func TestEngine_Idempotent(t *testing.T) {
	e := newTestEngine(t, catalog.NewMemory(testProducts()...))

	first, err := e.Search(context.Background(), &models.SearchQuery{Query: "office"})
	require.NoError(t, err)
	second, err := e.Search(context.Background(), &models.SearchQuery{Query: "office"})
	require.NoError(t, err)

	assert.Equal(t, first.Products, second.Products)
	assert.Equal(t, first.Suggestions, second.Suggestions)
	assert.Equal(t, first.SearchType, second.SearchType)
}

func TestEngine_FiltersAndSort(t *testing.T) {
	e := newTestEngine(t, catalog.NewMemory(testProducts()...))
	ctx := context.Background()

	resp, err := e.Search(ctx, &models.SearchQuery{Query: "office", Filters: models.Filters{CategoryID: "electronics"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"p4"}, productIDs(resp.Products))

	resp, err = e.Search(ctx, &models.SearchQuery{Query: "office", Sort: models.SortPriceAsc})
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p4", "p1"}, productIDs(resp.Products))

	resp, err = e.Search(ctx, &models.SearchQuery{Query: "office", Filters: models.Filters{MinPrice: 50, MaxPrice: 200}})
	require.NoError(t, err)
	assert.Equal(t, []string{"p4"}, productIDs(resp.Products))
}

func TestEngine_InvalidQuery(t *testing.T) {
	e := newTestEngine(t, catalog.NewMemory(testProducts()...))
	ctx := context.Background()

	_, err := e.Search(ctx, nil)
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = e.Search(ctx, &models.SearchQuery{Query: "chair", Limit: 5000})
	assert.ErrorIs(t, err, ErrInvalidQuery)
	assert.ErrorIs(t, err, models.ErrInvalidPagination)

	_, err = e.Search(ctx, &models.SearchQuery{Query: "chair", Sort: "cheapest"})
	assert.ErrorIs(t, err, models.ErrInvalidSort)
}

func TestEngine_ContextCanceled(t *testing.T) {
	e := newTestEngine(t, catalog.NewMemory(testProducts()...))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Search(ctx, &models.SearchQuery{Query: "chair"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_EmergencyFallback(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := metrics.NewRecorder(reg)
	require.NoError(t, err)
	lru := cache.NewLRU(10, time.Minute)
	fc := &flakyCatalog{Memory: catalog.NewMemory(testProducts()...), failPhases: true}
	e := newTestEngine(t, fc, WithCache(lru), WithMetrics(rec))

	resp, err := e.Search(context.Background(), &models.SearchQuery{Query: "office chair"})
	require.NoError(t, err)
	assert.True(t, resp.Degraded)
	assert.Equal(t, string(models.MatchEmergencyFallback), resp.SearchType)
	assert.Equal(t, []string{"p1"}, productIDs(resp.Products))
	assert.Equal(t, 0, lru.Len(), "degraded responses are not cached")

	n, err := testutil.GatherAndCount(reg, "nexsearch_catalog_fallback_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestEngine_CatalogDown(t *testing.T) {
	fc := &flakyCatalog{Memory: catalog.NewMemory(testProducts()...), failAll: true}
	e := newTestEngine(t, fc)

	resp, err := e.Search(context.Background(), &models.SearchQuery{Query: "office chair"})
	require.NoError(t, err)
	assert.True(t, resp.Degraded)
	assert.Equal(t, models.SearchTypeFailed, resp.SearchType)
	assert.Contains(t, resp.Message, ErrCatalogUnavailable.Error())
	assert.Empty(t, resp.Products)
	assert.NotNil(t, resp.Suggestions)
	assert.Zero(t, resp.TotalResults)
}

func TestEngine_SampleAndRelatedFailuresDegradeQuietly(t *testing.T) {
	fc := &flakyCatalog{
		Memory:     catalog.NewMemory(testProducts()...),
		sampleErr:  errBackend,
		relatedErr: errBackend,
	}
	e := newTestEngine(t, fc)

	resp, err := e.Search(context.Background(), &models.SearchQuery{Query: "samsng phone"})
	require.NoError(t, err)
	assert.Equal(t, "samsng phone", resp.CorrectedQuery, "no titles means no correction")
	assert.False(t, resp.Degraded)
	assert.Equal(t, []string{"p3"}, productIDs(resp.Products))
	assert.Empty(t, suggestionsOf(resp, models.SuggestRelated))
}

func TestEngine_CacheHit(t *testing.T) {
	lru := cache.NewLRU(10, time.Minute)
	e := newTestEngine(t, catalog.NewMemory(testProducts()...), WithCache(lru))
	ctx := context.Background()

	first, err := e.Search(ctx, &models.SearchQuery{Query: "office chair"})
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, 1, lru.Len())

	second, err := e.Search(ctx, &models.SearchQuery{Query: "  office chair "})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Products, second.Products)

	third, err := e.Search(ctx, &models.SearchQuery{Query: "office chair", Skip: 1})
	require.NoError(t, err)
	assert.False(t, third.Cached)
}

// deadlineCatalog records whether matching ran under a deadline.
type deadlineCatalog struct {
	*catalog.Memory
	hasDeadline []bool
}

func (d *deadlineCatalog) FindBySubstring(ctx context.Context, f models.Field, term string, limit int) ([]models.Product, error) {
	_, ok := ctx.Deadline()
	d.hasDeadline = append(d.hasDeadline, ok)
	return d.Memory.FindBySubstring(ctx, f, term, limit)
}

func TestEngine_LeavesDeadlineToCaller(t *testing.T) {
	dc := &deadlineCatalog{Memory: catalog.NewMemory(testProducts()...)}
	cfg := testConfig()
	cfg.Timeout = time.Millisecond
	e := NewEngine(dc, cfg)

	_, err := e.Search(context.Background(), &models.SearchQuery{Query: "office chair"})
	require.NoError(t, err)
	require.NotEmpty(t, dc.hasDeadline)
	assert.False(t, dc.hasDeadline[0])

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	_, err = e.Search(ctx, &models.SearchQuery{Query: "desk"})
	require.NoError(t, err)
	assert.True(t, dc.hasDeadline[len(dc.hasDeadline)-1])
}

func TestEngine_CacheKeepsQueryCasing(t *testing.T) {
	lru := cache.NewLRU(10, time.Minute)
	e := newTestEngine(t, catalog.NewMemory(testProducts()...), WithCache(lru))
	ctx := context.Background()

	upper, err := e.Search(ctx, &models.SearchQuery{Query: "SAMSNG phone"})
	require.NoError(t, err)
	assert.Equal(t, "SAMSNG phone", upper.Query)

	lower, err := e.Search(ctx, &models.SearchQuery{Query: "samsng phone"})
	require.NoError(t, err)
	assert.False(t, lower.Cached)
	assert.Equal(t, "samsng phone", lower.Query)
	assert.Equal(t, 2, lru.Len())
}

func TestEngine_CategorySuggestionsDisabled(t *testing.T) {
	cfg := testConfig()
	off := false
	cfg.CategorySuggestions = &off
	e := NewEngine(catalog.NewMemory(testProducts()...), cfg)

	resp, err := e.Search(context.Background(), &models.SearchQuery{Query: "office"})
	require.NoError(t, err)
	assert.Empty(t, suggestionsOf(resp, models.SuggestCategory))
}

func TestEngine_RelatedTitleTruncated(t *testing.T) {
	long := strings.Repeat("Très long titre ", 6)
	ps := []models.Product{
		{ID: "a", Title: "Chair", CategoryID: "c", Active: true},
		{ID: "b", Title: long, CategoryID: "c", Active: true},
	}
	e := newTestEngine(t, catalog.NewMemory(ps...))

	resp, err := e.Search(context.Background(), &models.SearchQuery{Query: "chair"})
	require.NoError(t, err)
	related := suggestionsOf(resp, models.SuggestRelated)
	require.Len(t, related, 1)
	assert.Equal(t, []rune(long)[:50], []rune(strings.TrimSuffix(related[0].Title, "...")))
	assert.True(t, strings.HasSuffix(related[0].Title, "..."))
}

func TestEngine_Analyze(t *testing.T) {
	e := newTestEngine(t, catalog.NewMemory(testProducts()...))
	ctx := context.Background()

	a, err := e.Analyze(ctx, "office chair", 2)
	require.NoError(t, err)
	assert.Equal(t, string(models.MatchExactPhrase), a.SearchType)
	assert.Equal(t, 3, a.TotalCandidates)
	require.Len(t, a.Results, 2)

	top := a.Results[0]
	assert.Equal(t, "p1", top.ID)
	assert.Equal(t, map[string]bool{"office": true, "chair": true}, top.TermsInTitle)
	assert.Equal(t, 10, top.EditDistance)
	assert.Positive(t, top.TitleQuality)
	var sum float64
	for _, v := range top.Breakdown {
		sum += v
	}
	assert.InDelta(t, top.Score, sum, 1e-9)

	a, err = e.Analyze(ctx, "", 0)
	require.NoError(t, err)
	assert.Equal(t, models.SearchTypeEmptyQuery, a.SearchType)
	assert.Empty(t, a.Results)
}

func TestEngine_AnalyzeCatalogDown(t *testing.T) {
	fc := &flakyCatalog{Memory: catalog.NewMemory(testProducts()...), failAll: true}
	e := newTestEngine(t, fc)

	_, err := e.Analyze(context.Background(), "chair", 5)
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
}

func BenchmarkEngineSearch(b *testing.B) {
	ps := make([]models.Product, 2000)
	for i := range ps {
		ps[i] = models.Product{
			ID:         fmt.Sprintf("b%05d", i),
			Title:      fmt.Sprintf("Industrial Widget Series %d Stainless", i),
			Tags:       []string{"industrial", "steel"},
			CategoryID: fmt.Sprintf("cat%d", i%7),
			Price:      float64(i % 500),
			Active:     true,
		}
	}
	e := NewEngine(catalog.NewMemory(ps...), testConfig())
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Search(ctx, &models.SearchQuery{Query: "stainles widget", Limit: 20}); err != nil {
			b.Fatal(err)
		}
	}
}
