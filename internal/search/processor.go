package search

import (
	"fmt"

	"github.com/nexventures/nexsearch/internal/config"
	"github.com/nexventures/nexsearch/internal/models"
)

// ProcessQuery applies defaults to the search query and validates it.
func ProcessQuery(query *models.SearchQuery, cfg *config.SearchConfig) error {
	if query == nil {
		return fmt.Errorf("%w: nil query", ErrInvalidQuery)
	}
	query.ApplyDefaults(cfg.DefaultLimit)
	if err := query.Validate(cfg.MaxLimit); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	query.Sort, _ = models.ParseSortOption(string(query.Sort))
	return nil
}
