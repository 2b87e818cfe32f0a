// Package catalog provides read access to the product catalog for the search
// pipeline, with in-memory, SQLite, PostgreSQL and Bleve backends.
package catalog

import (
	"context"

	"github.com/nexventures/nexsearch/internal/models"
)

// Query is the read capability the search pipeline consumes. Every method
// returns active products only, in a deterministic order, and treats a
// limit <= 0 as unlimited. Substring predicates are case-insensitive.
type Query interface {
	// FindBySubstring returns products whose field contains term.
	FindBySubstring(ctx context.Context, field models.Field, term string, limit int) ([]models.Product, error)
	// FindAllTerms returns products whose title contains every term.
	FindAllTerms(ctx context.Context, terms []string, limit int) ([]models.Product, error)
	// FindAnyTerm returns products where any of fields contains any of terms.
	FindAnyTerm(ctx context.Context, terms []string, fields []models.Field, limit int) ([]models.Product, error)
	// SampleTitles returns up to limit titles for typo correction.
	SampleTitles(ctx context.Context, limit int) ([]string, error)
	// FindRelated returns products sharing p's category, a tag, a price band or
	// its first significant title word, excluding p itself.
	FindRelated(ctx context.Context, p models.Product, limit int) ([]models.Product, error)
	// Featured returns featured products, best rated first.
	Featured(ctx context.Context, limit int) ([]models.Product, error)
}

// Store is a Query that can also be written to by the import tooling.
type Store interface {
	Query
	Upsert(ctx context.Context, products ...models.Product) error
	Delete(ctx context.Context, ids ...string) error
	// Get returns ErrNotFound when no product (active or not) has id.
	Get(ctx context.Context, id string) (*models.Product, error)
	IDs(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
	Close() error
}
