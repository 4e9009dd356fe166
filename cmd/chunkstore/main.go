package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/stackmesh/chunkstore/internal/config"
	"github.com/stackmesh/chunkstore/internal/db"
	"github.com/stackmesh/chunkstore/internal/embed"
	"github.com/stackmesh/chunkstore/internal/embedcache"
	"github.com/stackmesh/chunkstore/internal/handler"
	"github.com/stackmesh/chunkstore/internal/job"
	"github.com/stackmesh/chunkstore/internal/middleware"
	"github.com/stackmesh/chunkstore/internal/repo"
	"github.com/stackmesh/chunkstore/internal/schedule"
	"github.com/stackmesh/chunkstore/internal/service"
)

const embeddingCacheRetention = 30 * 24 * time.Hour

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "chunkstore",
		Short: "chunkstore embedding ingestion and search server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run chunkstore server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("embedding_model", cfg.Embedding.Model),
	)

	chunkRepo := repo.NewChunkRepo(conn)
	cacheRepo := repo.NewEmbeddingCacheRepo(conn)

	embedder, err := embed.NewEmbedder(
		cfg.Embedding.Provider,
		cfg.Embedding.Model,
		time.Duration(cfg.Embedding.TimeoutSeconds)*time.Second,
		cfg.Embedding.Data,
	)
	if err != nil {
		return fmt.Errorf("init embedding provider: %w", err)
	}
	if cfg.Embedding.DBCache {
		embedder = embedcache.WrapDBCacheToEmbedder(embedder, cacheRepo)
	}
	embedder = embedcache.WrapLruCacheToEmbedder(
		embedder,
		cfg.Embedding.CacheSize,
		time.Duration(cfg.Embedding.CacheTTLSeconds)*time.Second,
	)

	chunkService := service.NewChunkService(chunkRepo, embedder)
	searchService := service.NewSearchService(chunkRepo, embedder)

	deps := handler.RouterDeps{
		Chunks: handler.NewChunkHandler(chunkService),
		Search: handler.NewSearchHandler(searchService),
	}

	middlewares := []gin.HandlerFunc{
		middleware.RequestID(),
		middleware.CORS(cfg.CORSAllowOrigins),
		gzip.Gzip(gzip.DefaultCompression),
	}
	if cfg.RateLimitSeconds > 0 {
		middlewares = append(middlewares, middleware.RateLimit(time.Duration(cfg.RateLimitSeconds)*time.Second))
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(middlewares...),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if cfg.Backfill.Enable {
		if err := scheduler.AddJob(job.NewEmbeddingBackfillJob(chunkService, cfg.Backfill.BatchSize), cfg.Backfill.Cron); err != nil {
			return err
		}
	}
	if cfg.Embedding.DBCache {
		if err := scheduler.AddJob(job.NewEmbeddingCacheCleanupJob(cacheRepo, embeddingCacheRetention), "0 3 * * *"); err != nil {
			return err
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
