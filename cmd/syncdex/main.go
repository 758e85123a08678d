package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/kailas-cloud/syncdex/internal/config"
	"github.com/kailas-cloud/syncdex/internal/domain/document"
	"github.com/kailas-cloud/syncdex/internal/index/elastic"
	logpkg "github.com/kailas-cloud/syncdex/internal/logger"
	"github.com/kailas-cloud/syncdex/internal/metrics"
	"github.com/kailas-cloud/syncdex/internal/registry"
	querylogrepo "github.com/kailas-cloud/syncdex/internal/repository/querylog"
	chiTransport "github.com/kailas-cloud/syncdex/internal/transport/chi"
	queryuc "github.com/kailas-cloud/syncdex/internal/usecase/query"
	reconcileuc "github.com/kailas-cloud/syncdex/internal/usecase/reconcile"
	"github.com/kailas-cloud/syncdex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()
	cfg := config.MustLoad(env)

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting syncdex ops server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("elastic_url", cfg.Elastic.URL),
	)

	// Register sync metrics explicitly (no init())
	metrics.RegisterSyncMetrics()

	engine, err := elastic.NewClient(elastic.Config{
		URL:             cfg.Elastic.URL,
		Username:        cfg.Elastic.Username,
		Password:        cfg.Elastic.Password,
		Timeout:         time.Duration(cfg.Elastic.TimeoutSec) * time.Second,
		ScrollPageSize:  cfg.Reconcile.ScrollPageSize,
		ScrollKeepalive: time.Duration(cfg.Reconcile.ScrollKeepaliveSec) * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to create search engine client", zap.Error(err))
	}

	ctx := context.Background()
	if err := engine.Ping(ctx); err != nil {
		logger.Warn("Search engine not reachable at startup", zap.Error(err))
	}

	pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatal("Failed to create postgres pool", zap.Error(err))
	}
	defer pool.Close()

	logRepo := querylogrepo.NewFromPool(pool)
	if err := logRepo.Init(ctx); err != nil {
		logger.Fatal("Failed to initialize query log schema", zap.Error(err))
	}

	// The type registry is populated by embedding applications; the ops
	// binary serves the configured indexes only. Event-driven sync and its
	// dedup guard live behind the library facade, not here.
	reg := registry.New()
	if err := reg.Validate(cfg.Sync.StrictMappings, logger); err != nil {
		logger.Fatal("Registry validation failed", zap.Error(err))
	}

	builder := document.NewBuilder(reg, logger)
	reconcileSvc := reconcileuc.New(reg, builder, engine, cfg.Reconcile, logger)
	executor := queryuc.New(engine, logRepo, cfg.Search, logger)

	server := chiTransport.NewServer(reconcileSvc, executor, reg, engine, logger).WithDB(pool)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Routes(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
