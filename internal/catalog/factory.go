package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nexventures/nexsearch/internal/config"
)

// Driver names a catalog backend.
type Driver string

const (
	// DriverMemory keeps products in process. Suits tests and small seed catalogs.
	DriverMemory Driver = "memory"
	// DriverSQLite stores products in a local SQLite file.
	DriverSQLite Driver = "sqlite"
	// DriverPostgres reads the marketplace's PostgreSQL products table.
	DriverPostgres Driver = "postgres"
	// DriverBleve indexes products in a Bleve index on disk.
	DriverBleve Driver = "bleve"
)

// Open creates the Store selected by cfg.Driver. The empty driver means memory.
func Open(ctx context.Context, cfg *config.CatalogConfig, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		store Store
		err   error
	)
	switch Driver(cfg.Driver) {
	case DriverMemory, "":
		store = NewMemory()
	case DriverSQLite:
		store, err = NewSQLite(cfg.SQLitePath)
	case DriverPostgres:
		store, err = NewPostgres(ctx, cfg.PostgresURL, logger)
	case DriverBleve:
		store, err = NewBleve(cfg.BlevePath)
	default:
		return nil, fmt.Errorf("%w: %s (supported: memory, sqlite, postgres, bleve)", ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s catalog: %w", cfg.Driver, err)
	}
	logger.Debug("catalog opened", zap.String("driver", cfg.Driver))
	return store, nil
}
