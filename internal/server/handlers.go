package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/nexventures/nexsearch/internal/catalog"
	"github.com/nexventures/nexsearch/internal/models"
	"github.com/nexventures/nexsearch/internal/search"
)

// searchRequest is the POST body of /api/v1/search. Limit is a pointer so an
// explicit zero can be told apart from an omitted limit.
type searchRequest struct {
	Query      string  `json:"query"`
	Skip       int     `json:"skip"`
	Limit      *int    `json:"limit"`
	Sort       string  `json:"sort"`
	CategoryID string  `json:"category_id"`
	MinPrice   float64 `json:"min_price"`
	MaxPrice   float64 `json:"max_price"`
	MinRating  float64 `json:"min_rating"`
}

func (req *searchRequest) query() *models.SearchQuery {
	q := &models.SearchQuery{
		Query: req.Query,
		Skip:  req.Skip,
		Sort:  models.SortOption(req.Sort),
		Filters: models.Filters{
			CategoryID: req.CategoryID,
			MinPrice:   req.MinPrice,
			MaxPrice:   req.MaxPrice,
			MinRating:  req.MinRating,
		},
	}
	if req.Limit != nil {
		q.Limit = *req.Limit
	}
	return q
}

// validate rejects pagination the engine would otherwise default.
func (req *searchRequest) validate() error {
	if req.Skip < 0 {
		return errors.New("skip must be >= 0")
	}
	if req.Limit != nil && *req.Limit < 1 {
		return errors.New("limit must be >= 1")
	}
	return nil
}

func (s *Server) handleSearchGet(w http.ResponseWriter, r *http.Request) {
	req, err := parseSearchParams(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.search(w, r, req)
}

func (s *Server) handleSearchPost(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.search(w, r, &req)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request, req *searchRequest) {
	if err := req.validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("search request",
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("query", req.Query),
		zap.Int("skip", req.Skip),
	)
	response, err := s.engine.Search(r.Context(), req.query())
	if err != nil {
		s.respondEngineError(w, "search failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	top, err := intParam(params, "top")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	analysis, err := s.engine.Analyze(r.Context(), params.Get("q"), top)
	if err != nil {
		s.respondEngineError(w, "analyze failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := s.store.Get(r.Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		s.logger.Error("get product failed", zap.String("id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if len(s.seedFiles) == 0 {
		s.respondError(w, http.StatusBadRequest, "no seed files configured")
		return
	}
	stats, err := s.indexer.Sync(r.Context(), s.seedFiles...)
	if err != nil {
		s.logger.Error("catalog sync failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.Count(r.Context())
	if err != nil {
		s.logger.Warn("health: catalog count failed", zap.Error(err))
		s.respondJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"catalog":  s.config.Catalog.Driver,
		"products": count,
	})
}

// respondEngineError maps search errors to status codes.
func (s *Server) respondEngineError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, search.ErrInvalidQuery):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		s.logger.Warn(msg, zap.Error(err))
		s.respondError(w, http.StatusGatewayTimeout, "search timed out")
	default:
		s.logger.Error(msg, zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func parseSearchParams(params url.Values) (*searchRequest, error) {
	req := &searchRequest{
		Query:      params.Get("q"),
		Sort:       params.Get("sort"),
		CategoryID: params.Get("category_id"),
	}
	var err error
	if req.Skip, err = intParam(params, "skip"); err != nil {
		return nil, err
	}
	if params.Has("limit") {
		limit, err := intParam(params, "limit")
		if err != nil {
			return nil, err
		}
		req.Limit = &limit
	}
	for name, dst := range map[string]*float64{
		"min_price":  &req.MinPrice,
		"max_price":  &req.MaxPrice,
		"min_rating": &req.MinRating,
	} {
		if *dst, err = floatParam(params, name); err != nil {
			return nil, err
		}
	}
	return req, nil
}

func intParam(params url.Values, name string) (int, error) {
	raw := params.Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}

func floatParam(params url.Values, name string) (float64, error) {
	raw := params.Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return v, nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
