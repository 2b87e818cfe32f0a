package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	r, err := NewRecorder(prometheus.NewRegistry())
	require.NoError(t, err)
	return r
}

func TestNewRecorder_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewRecorder(reg)
	require.NoError(t, err)
	_, err = NewRecorder(reg)
	assert.Error(t, err)
}

func TestRecorder_Search(t *testing.T) {
	r := newTestRecorder(t)
	r.ObserveSearch("exact_phrase", 15*time.Millisecond)
	r.ObserveSearch("exact_phrase", 5*time.Millisecond)
	r.ObserveSearch("no_matches", time.Millisecond)
	r.MatchPhase("all_words")
	r.CatalogFallback()
	r.CacheLookup(true)
	r.CacheLookup(false)
	r.CacheLookup(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.searchTotal.WithLabelValues("exact_phrase")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.searchTotal.WithLabelValues("no_matches")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.matchPhaseTotal.WithLabelValues("all_words")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.catalogFallback))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cacheRequests.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.cacheRequests.WithLabelValues("miss")))
	assert.Equal(t, 2, testutil.CollectAndCount(r.searchDuration))
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveSearch("failed", time.Second)
		r.MatchPhase("single_word")
		r.CatalogFallback()
		r.CacheLookup(true)
	})

	called := false
	h := r.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	assert.True(t, called)
}

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	rec := newTestRecorder(t)
	router := chi.NewRouter()
	router.Use(rec.Middleware())
	router.Get("/api/v1/products/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	router.Get("/ok", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	for _, path := range []string{"/api/v1/products/1", "/api/v1/products/2", "/ok"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, http.NoBody))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.httpRequestsTotal.WithLabelValues("GET", "/api/v1/products/{id}", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.httpRequestsTotal.WithLabelValues("GET", "/ok", "200")))
	assert.Equal(t, 2, testutil.CollectAndCount(rec.httpRequestDuration))
}
