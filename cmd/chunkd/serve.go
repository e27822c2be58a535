package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/chunkworks/chunkd/internal/cache"
	"github.com/chunkworks/chunkd/internal/config"
	"github.com/chunkworks/chunkd/internal/events"
	"github.com/chunkworks/chunkd/internal/invalidate"
	"github.com/chunkworks/chunkd/internal/page"
	"github.com/chunkworks/chunkd/internal/render"
	"github.com/chunkworks/chunkd/internal/resolve"
	"github.com/chunkworks/chunkd/internal/server"
	"github.com/chunkworks/chunkd/internal/store/postgres"
	chunksync "github.com/chunkworks/chunkd/internal/sync"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chunkd server",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		// Load configuration.
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		// Connect to Postgres.
		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}

		// Pick the cache backend.
		var resultCache cache.Cache
		if cfg.CachePath != "" {
			bc, err := cache.OpenBolt(cfg.CachePath, cache.BoltOptions{})
			if err != nil {
				store.Close()
				return err
			}
			resultCache = bc
			logger.Info("persistent cache enabled", "path", cfg.CachePath)
		} else {
			resultCache = cache.NewMemory()
			logger.Info("in-memory cache enabled")
		}

		// Create event publisher.
		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				resultCache.Close()
				store.Close()
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (CHUNKD_NATS_URL not set)")
		}

		// Create server components.
		resolver := resolve.New(store, resultCache, render.NewEngine(logger), logger,
			resolve.Options{CacheEmptyResults: cfg.CacheEmptyResults})
		chunkServer := server.NewChunkServer(store, resolver, page.NewEngine(resolver), publisher, logger)

		// Start HTTP server.
		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: chunkServer.NewHTTPHandler(cfg.AuthToken),
		}

		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		// Start sync scheduler if any destinations are configured.
		var scheduler *chunksync.Scheduler
		if cfg.SyncInterval > 0 {
			var dests []chunksync.Destination

			if cfg.S3Bucket != "" {
				s3Dest, err := chunksync.NewS3Destination(
					context.Background(),
					cfg.S3Bucket,
					cfg.S3Prefix,
					cfg.S3Region,
					cfg.S3Endpoint,
				)
				if err != nil {
					logger.Error("failed to create S3 sync destination", "err", err)
				} else {
					dests = append(dests, s3Dest)
					logger.Info("sync S3 destination enabled", "bucket", cfg.S3Bucket, "prefix", cfg.S3Prefix)
				}
			}

			if cfg.SnapshotPath != "" {
				dests = append(dests, chunksync.NewFileDestination(cfg.SnapshotPath))
				logger.Info("sync file destination enabled", "path", cfg.SnapshotPath)
			}

			if len(dests) > 0 {
				scheduler = chunksync.NewScheduler(store, dests, cfg.SyncInterval, logger)
				scheduler.Start()
				logger.Info("sync scheduler started", "interval", cfg.SyncInterval)
			}
		}

		// Start the cache invalidator if NATS is available.
		var invalidator *invalidate.Handler
		if cfg.NATSURL != "" {
			sub, err := events.NewNATSSubscriber(cfg.NATSURL)
			if err != nil {
				logger.Error("failed to create invalidation subscriber", "err", err)
			} else {
				invalidator = invalidate.New(sub, resultCache, logger)
				if err := invalidator.Start(); err != nil {
					logger.Error("failed to start invalidator", "err", err)
					sub.Close()
					invalidator = nil
				} else {
					defer sub.Close()
					logger.Info("cache invalidator started")
				}
			}
		}

		logger.Info("chunkd server started", "http_addr", cfg.HTTPAddr)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		// Graceful shutdown.
		if invalidator != nil {
			invalidator.Stop()
			logger.Info("cache invalidator stopped")
		}

		if scheduler != nil {
			scheduler.Stop()
			logger.Info("sync scheduler stopped")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := resultCache.Close(); err != nil {
			logger.Error("error closing cache", "err", err)
		}
		if err := store.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}
