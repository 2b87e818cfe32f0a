package search

import (
	"context"
	"errors"
)

var (
	// ErrInvalidQuery is returned for a nil query or invalid pagination, sort or filters.
	ErrInvalidQuery = errors.New("invalid search query")
	// ErrCatalogUnavailable is returned when neither the matching phases nor the
	// emergency title query could read the catalog.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)

// isContextErr reports whether err is a cancellation or deadline, which the
// pipeline returns to the caller instead of degrading.
func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
