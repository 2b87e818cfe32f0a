package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nexventures/nexsearch/internal/catalog"
	"github.com/nexventures/nexsearch/internal/server"
	"github.com/nexventures/nexsearch/internal/watcher"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(flags *globalFlags) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP search API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags, watch)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "re-sync seed files when they change on disk")
	return cmd
}

func runServe(ctx context.Context, flags *globalFlags, watch bool) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, flags)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger
	cfg := a.config

	if catalog.Driver(cfg.Catalog.Driver) != catalog.DriverMemory {
		if _, err := a.syncSeeds(ctx); err != nil {
			return err
		}
	}

	if (watch || cfg.Catalog.Watch) && len(cfg.Catalog.SeedFiles) > 0 {
		w := watcher.NewWatcher(cfg.Catalog.SeedFiles,
			func(path string) {
				if _, err := a.indexer.SyncFile(ctx, path); err != nil {
					logger.Warn("watch sync file failed", zap.String("path", path), zap.Error(err))
				}
			},
			func(path string) {
				// A removed file can only be reconciled by a full sync.
				if _, err := a.syncSeeds(ctx); err != nil {
					logger.Warn("watch resync failed", zap.String("removed", path), zap.Error(err))
				}
			},
			watcher.WithLogger(logger),
		)
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Stop()
		logger.Info("watching seed files", zap.Strings("paths", cfg.Catalog.SeedFiles))
	}

	opts := []server.Option{server.WithIndexer(a.indexer, cfg.Catalog.SeedFiles)}
	if a.metrics != nil {
		opts = append(opts, server.WithMetrics(a.metrics, a.registry))
	}
	srv := server.NewServer(a.engine, a.store, cfg, logger, opts...)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Warn("server shutdown failed", zap.Error(err))
	}
	return nil
}
