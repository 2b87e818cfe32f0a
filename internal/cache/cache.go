// Package cache stores search responses keyed by the full request.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/nexventures/nexsearch/internal/config"
	"github.com/nexventures/nexsearch/internal/models"
)

// Cache stores search responses. Implementations are safe for concurrent use.
// Get reports a miss as (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) (*models.SearchResponse, bool, error)
	Set(ctx context.Context, key string, resp *models.SearchResponse) error
}

// Nop is a Cache that stores nothing.
type Nop struct{}

// Get implements Cache.
func (Nop) Get(context.Context, string) (*models.SearchResponse, bool, error) { return nil, false, nil }

// Set implements Cache.
func (Nop) Set(context.Context, string, *models.SearchResponse) error { return nil }

// Key returns the cache key of q: the hex SHA-256 of its normalized fields.
// The query keeps its case because responses echo it back verbatim.
func Key(q *models.SearchQuery) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(q.Query))
	for _, part := range []string{
		strconv.Itoa(q.Skip),
		strconv.Itoa(q.Limit),
		string(q.Sort),
		q.Filters.CategoryID,
		strconv.FormatFloat(q.Filters.MinPrice, 'g', -1, 64),
		strconv.FormatFloat(q.Filters.MaxPrice, 'g', -1, 64),
		strconv.FormatFloat(q.Filters.MinRating, 'g', -1, 64),
	} {
		b.WriteByte(0)
		b.WriteString(part)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// New creates the Cache selected by cfg.Driver.
func New(cfg config.CacheConfig, logger *zap.Logger) (Cache, error) {
	switch cfg.Driver {
	case "", "none":
		return Nop{}, nil
	case "memory":
		return NewLRU(cfg.Capacity, cfg.TTL()), nil
	case "redis":
		r, err := NewRedis(cfg.RedisURL, cfg.TTL(), logger)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	return nil, fmt.Errorf("unknown cache driver: %s", cfg.Driver)
}
