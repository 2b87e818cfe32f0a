// Package metrics records search and HTTP metrics with Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "nexsearch"

// Recorder holds the search service's collectors. A nil *Recorder records nothing.
type Recorder struct {
	searchDuration      *prometheus.HistogramVec
	searchTotal         *prometheus.CounterVec
	matchPhaseTotal     *prometheus.CounterVec
	catalogFallback     prometheus.Counter
	cacheRequests       *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		searchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_duration_seconds",
				Help:      "Search pipeline duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"search_type"},
		),
		searchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "search_total",
				Help:      "Total number of searches",
			},
			[]string{"search_type"},
		),
		matchPhaseTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "match_phase_total",
				Help:      "Total number of matching phases run",
			},
			[]string{"phase"},
		),
		catalogFallback: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_fallback_total",
				Help:      "Searches that fell back to the emergency title query after a catalog failure",
			},
		),
		cacheRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_requests_total",
				Help:      "Response cache lookups",
			},
			[]string{"result"}, // "hit" / "miss"
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
	}
	for _, c := range []prometheus.Collector{
		r.searchDuration, r.searchTotal, r.matchPhaseTotal, r.catalogFallback,
		r.cacheRequests, r.httpRequestDuration, r.httpRequestsTotal,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ObserveSearch records one completed search.
func (r *Recorder) ObserveSearch(searchType string, d time.Duration) {
	if r == nil {
		return
	}
	r.searchDuration.WithLabelValues(searchType).Observe(d.Seconds())
	r.searchTotal.WithLabelValues(searchType).Inc()
}

// MatchPhase records that a matching phase ran.
func (r *Recorder) MatchPhase(phase string) {
	if r == nil {
		return
	}
	r.matchPhaseTotal.WithLabelValues(phase).Inc()
}

// CatalogFallback records an emergency fallback.
func (r *Recorder) CatalogFallback() {
	if r == nil {
		return
	}
	r.catalogFallback.Inc()
}

// CacheLookup records a cache hit or miss.
func (r *Recorder) CacheLookup(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheRequests.WithLabelValues(result).Inc()
}
