package main

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/nexventures/nexsearch/internal/cache"
	"github.com/nexventures/nexsearch/internal/catalog"
	"github.com/nexventures/nexsearch/internal/config"
	"github.com/nexventures/nexsearch/internal/indexer"
	"github.com/nexventures/nexsearch/internal/metrics"
	"github.com/nexventures/nexsearch/internal/ranking"
	"github.com/nexventures/nexsearch/internal/search"
	"github.com/nexventures/nexsearch/pkg/utils"
)

// app holds the components shared by the commands.
type app struct {
	config     *config.Config
	configPath string
	logger     *zap.Logger
	store      catalog.Store
	cache      cache.Cache
	indexer    *indexer.Indexer
	engine     *search.Engine
	metrics    *metrics.Recorder
	registry   *prometheus.Registry
}

// openApp loads config, creates the logger and opens the catalog, search
// engine and indexer. The memory catalog starts empty, so its seed files are
// synced here for every command.
func openApp(ctx context.Context, flags *globalFlags) (*app, error) {
	cfg, path, err := loadConfig(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	debug := cfg.Debug || flags.debug
	logger, err := utils.NewLogger(debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded", zap.String("config_path", path), zap.Bool("debug", debug))

	store, err := catalog.Open(ctx, &cfg.Catalog, logger)
	if err != nil {
		return nil, err
	}
	a := &app{
		config:     cfg,
		configPath: path,
		logger:     logger,
		store:      store,
		registry:   prometheus.NewRegistry(),
	}

	a.cache, err = cache.New(cfg.Cache, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	engineOpts := []search.Option{
		search.WithLogger(logger),
		search.WithCache(a.cache),
		search.WithRanker(ranking.NewRanker(&cfg.Ranking)),
	}
	if cfg.Metrics.IsEnabled() {
		a.metrics, err = metrics.NewRecorder(a.registry)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		engineOpts = append(engineOpts, search.WithMetrics(a.metrics))
	}
	a.engine = search.NewEngine(store, &cfg.Search, engineOpts...)
	a.indexer = indexer.NewIndexer(store, nil,
		indexer.WithLogger(logger),
		indexer.WithPrune(cfg.Catalog.Prune),
	)

	if catalog.Driver(cfg.Catalog.Driver) == catalog.DriverMemory {
		if _, err := a.syncSeeds(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

// syncSeeds runs a full sync of the configured seed files.
func (a *app) syncSeeds(ctx context.Context) (indexer.SyncStats, error) {
	if len(a.config.Catalog.SeedFiles) == 0 {
		return indexer.SyncStats{}, nil
	}
	stats, err := a.indexer.Sync(ctx, a.config.Catalog.SeedFiles...)
	if err != nil {
		return stats, fmt.Errorf("seed sync failed: %w", err)
	}
	a.logger.Info("seed files synced",
		zap.Int("files", stats.Files),
		zap.Int("added", stats.Added),
		zap.Int("updated", stats.Updated),
		zap.Int("deleted", stats.Deleted),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}

// Close releases the catalog and response cache and flushes the logger.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("catalog close failed", zap.Error(err))
	}
	if c, ok := a.cache.(io.Closer); ok {
		if err := c.Close(); err != nil {
			a.logger.Warn("cache close failed", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
