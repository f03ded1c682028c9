package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/thermomap/internal/cache"
	"github.com/JonMunkholm/thermomap/internal/config"
	"github.com/JonMunkholm/thermomap/internal/core"
	"github.com/JonMunkholm/thermomap/internal/database"
	"github.com/JonMunkholm/thermomap/internal/logging"
	"github.com/JonMunkholm/thermomap/internal/parser"
	"github.com/JonMunkholm/thermomap/internal/storage"
	"github.com/JonMunkholm/thermomap/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_max_conns", cfg.Database.MaxConns,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"batch_size", cfg.Upload.BatchSize,
		"cache_enabled", cfg.Cache.Enabled(),
		"storage_enabled", cfg.Storage.Enabled(),
	)

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	opts := core.Options{
		BatchSize:     cfg.Upload.BatchSize,
		MaxFileSize:   cfg.Upload.MaxFileSize,
		UploadTimeout: cfg.Upload.Timeout,
		Parsers:       parser.NewRegistry(),

		MaxConcurrentUploads: cfg.Upload.MaxConcurrent,
		UploadWaitTime:       cfg.Upload.MaxWaitTime,
	}

	// Redis and MinIO are optional; the service runs without them.
	if cfg.Cache.Enabled() {
		summaryCache, err := cache.New(ctx, cfg.Cache.URL, cfg.Cache.TTL)
		if err != nil {
			slog.Warn("summary cache disabled", "error", err)
		} else {
			defer summaryCache.Close()
			opts.Cache = summaryCache
			slog.Info("summary cache enabled", "ttl", cfg.Cache.TTL)
		}
	}

	if cfg.Storage.Enabled() {
		attachments, err := storage.NewMinioStore(ctx, storage.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			Secure:    cfg.Storage.Secure,
		})
		if err != nil {
			slog.Error("failed to initialize attachment storage", "error", err)
			os.Exit(1)
		}
		opts.Attachments = attachments
		slog.Info("attachment storage enabled", "bucket", cfg.Storage.Bucket)
	}

	service := core.NewService(database.New(pool), opts)
	slog.Info("parsers registered", "extensions", parser.AcceptedExtensions())

	server := web.NewServer(service, cfg)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.UploadStatus(); status.Active > 0 {
			slog.Info("waiting for uploads to complete", "active", status.Active)
			if err := service.WaitForUploads(shutdownCtx); err != nil {
				slog.Warn("uploads did not complete in time", "error", err)
			} else {
				slog.Info("all uploads completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
