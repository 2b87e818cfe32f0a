// Package indexer syncs product seed files into a catalog store.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nexventures/nexsearch/internal/catalog"
	"github.com/nexventures/nexsearch/internal/extract"
	"github.com/nexventures/nexsearch/internal/models"
	"github.com/nexventures/nexsearch/pkg/utils"
)

const (
	loadConcurrency = 4
	upsertBatchSize = 500
)

// SyncStats counts what a sync changed.
type SyncStats struct {
	Files   int `json:"files"`
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

// Indexer writes products loaded from seed files into a catalog.Store.
// Syncs are serialized.
type Indexer struct {
	store  catalog.Store
	loader *extract.Loader
	prune  bool
	logger *zap.Logger
	mu     sync.Mutex
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for sync events.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = utils.OrNop(l) }
}

// WithPrune makes Sync delete products that no seed file contains.
func WithPrune(prune bool) IndexerOption {
	return func(idx *Indexer) { idx.prune = prune }
}

// NewIndexer creates an indexer writing to store. loader may be nil, in which
// case a default extract.Loader is used.
func NewIndexer(store catalog.Store, loader *extract.Loader, opts ...IndexerOption) *Indexer {
	if loader == nil {
		loader = extract.NewLoader()
	}
	idx := &Indexer{store: store, loader: loader, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Sync loads every seed file under paths concurrently, merges them with later
// files overriding earlier ones by ID, and upserts the result. Directories are
// walked for supported files. With pruning enabled, products absent from every
// file are deleted. A file that fails to load aborts the sync before anything
// is written.
func (idx *Indexer) Sync(ctx context.Context, paths ...string) (SyncStats, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	files, err := expandPaths(paths)
	if err != nil {
		return SyncStats{}, err
	}
	loaded := make([][]models.Product, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ps, err := idx.loader.Load(f)
			if err != nil {
				return fmt.Errorf("load %s: %w", f, err)
			}
			loaded[i] = ps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SyncStats{Files: len(files)}, err
	}

	merged := merge(loaded)
	stats, err := idx.write(ctx, merged, idx.prune)
	stats.Files = len(files)
	if err != nil {
		return stats, err
	}
	idx.logger.Info("catalog synced",
		zap.Int("files", stats.Files),
		zap.Int("added", stats.Added),
		zap.Int("updated", stats.Updated),
		zap.Int("deleted", stats.Deleted),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}

// SyncFile loads a single seed file and upserts its products. It never prunes.
func (idx *Indexer) SyncFile(ctx context.Context, path string) (SyncStats, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.logger.Debug("indexer syncing file", zap.String("path", path))
	ps, err := idx.loader.Load(path)
	if err != nil {
		return SyncStats{Files: 1}, fmt.Errorf("load %s: %w", path, err)
	}
	stats, err := idx.write(ctx, merge([][]models.Product{ps}), false)
	stats.Files = 1
	if err != nil {
		return stats, err
	}
	idx.logger.Info("seed file synced", zap.String("path", path),
		zap.Int("added", stats.Added), zap.Int("updated", stats.Updated), zap.Int("failed", stats.Failed))
	return stats, nil
}

// write upserts products in batches. A batch the store rejects is retried one
// product at a time so a single bad record only fails itself.
func (idx *Indexer) write(ctx context.Context, products []models.Product, prune bool) (SyncStats, error) {
	var stats SyncStats
	ids, err := idx.store.IDs(ctx)
	if err != nil {
		return stats, fmt.Errorf("list catalog ids: %w", err)
	}
	existing := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		existing[id] = struct{}{}
	}

	count := func(p *models.Product) {
		if _, ok := existing[p.ID]; ok {
			stats.Updated++
		} else {
			stats.Added++
		}
	}
	for start := 0; start < len(products); start += upsertBatchSize {
		batch := products[start:min(start+upsertBatchSize, len(products))]
		err := idx.store.Upsert(ctx, batch...)
		if err == nil {
			for i := range batch {
				count(&batch[i])
			}
			continue
		}
		if fatalWriteErr(err) {
			return stats, fmt.Errorf("upsert products: %w", err)
		}
		idx.logger.Warn("batch upsert failed, retrying individually", zap.Int("size", len(batch)), zap.Error(err))
		for i := range batch {
			if err := idx.store.Upsert(ctx, batch[i]); err != nil {
				if fatalWriteErr(err) {
					return stats, fmt.Errorf("upsert product %s: %w", batch[i].ID, err)
				}
				idx.logger.Warn("product upsert failed", zap.String("id", batch[i].ID), zap.Error(err))
				stats.Failed++
				continue
			}
			count(&batch[i])
		}
	}

	if !prune {
		return stats, nil
	}
	keep := make(map[string]struct{}, len(products))
	for _, p := range products {
		keep[p.ID] = struct{}{}
	}
	var stale []string
	for _, id := range ids {
		if _, ok := keep[id]; !ok {
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		if err := idx.store.Delete(ctx, stale...); err != nil {
			return stats, fmt.Errorf("prune products: %w", err)
		}
		stats.Deleted = len(stale)
		idx.logger.Debug("indexer pruned products", zap.Strings("ids", stale))
	}
	return stats, nil
}

func fatalWriteErr(err error) bool {
	return errors.Is(err, catalog.ErrReadOnly) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// merge flattens loaded file contents. A later product replaces an earlier one
// with the same ID in place.
func merge(loaded [][]models.Product) []models.Product {
	index := make(map[string]int)
	var out []models.Product
	for _, ps := range loaded {
		for _, p := range ps {
			if i, ok := index[p.ID]; ok {
				out[i] = p
				continue
			}
			index[p.ID] = len(out)
			out = append(out, p)
		}
	}
	return out
}

// expandPaths resolves paths to absolute seed file paths, walking directories
// for files with a supported extension.
func expandPaths(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("absolute path: %w", err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", abs, err)
		}
		if !info.IsDir() {
			files = append(files, abs)
			continue
		}
		err = filepath.WalkDir(abs, func(path string, d os.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() || !extract.Supported(path) {
				return nil
			}
			// Resolve symlinks so we only load regular files
			finfo, statErr := os.Stat(path)
			if statErr != nil || !finfo.Mode().IsRegular() {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", abs, err)
		}
	}
	return files, nil
}
