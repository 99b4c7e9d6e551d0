package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mxe-wallet/mxe_wallet/internal/config"
	"github.com/mxe-wallet/mxe_wallet/internal/infra"
	"github.com/mxe-wallet/mxe_wallet/internal/logging"
	"github.com/mxe-wallet/mxe_wallet/internal/server"
	"github.com/mxe-wallet/mxe_wallet/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()

	db, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := infra.Migrate(ctx, db); err != nil {
		logger.Error("apply migrations", "error", err)
		os.Exit(1)
	}

	cache, err := infra.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("connect redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := cache.Close(); err != nil {
			logger.Warn("close redis", "error", err)
		}
	}()

	var store storage.Uploader
	if cfg.StorageEndpoint != "" {
		minioStore, err := storage.NewMinioStore(cfg)
		if err != nil {
			logger.Error("connect object storage", "error", err)
			os.Exit(1)
		}
		if err := minioStore.EnsureBuckets(ctx); err != nil {
			logger.Error("prepare buckets", "error", err)
			os.Exit(1)
		}
		store = minioStore
	} else {
		logger.Warn("STORAGE_ENDPOINT not set, uploads are kept in memory")
		store = storage.NewMemoryStore()
	}

	srv, err := server.New(cfg, db, cache, store, logger)
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}
