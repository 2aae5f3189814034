package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/trendsight/trendsight-go/internal/api"
	"github.com/trendsight/trendsight-go/internal/api/handlers"
	"github.com/trendsight/trendsight-go/internal/cache"
	"github.com/trendsight/trendsight-go/internal/config"
	"github.com/trendsight/trendsight-go/internal/connectors/marketplace"
	"github.com/trendsight/trendsight-go/internal/connectors/trends"
	"github.com/trendsight/trendsight-go/internal/connectors/youtube"
	"github.com/trendsight/trendsight-go/internal/database"
	"github.com/trendsight/trendsight-go/internal/logging"
	"github.com/trendsight/trendsight-go/internal/middleware"
	"github.com/trendsight/trendsight-go/internal/services"
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.Environment)
	logger.WithField("environment", cfg.Environment).Info("Starting trendsight server")

	redisClient, err := database.NewRedisConnection(cfg.Redis)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisClient.Close()

	// The query metadata log is optional; the pipeline runs without it.
	var db *database.PostgresDB
	var queries *database.QueryRepository
	if cfg.Database.Enabled {
		db, err = database.NewPostgresConnection(cfg.Database)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to PostgreSQL")
		}
		defer db.Close()
		queries = database.NewQueryRepository(db.Pool)
	} else {
		logger.Info("Query metadata log disabled")
	}

	var provider trends.Provider
	if cfg.Trends.MockMode {
		logger.Warn("Mock mode enabled, serving deterministic synthetic trend data")
		provider = trends.NewMockProvider()
	} else {
		provider = trends.NewHTTPProvider(cfg.Trends)
	}

	orchestrator := trends.NewOrchestrator(provider, cfg.Trends, logger)
	trendCache := cache.NewTrendCache(redisClient, cfg.Cache.TTL, cfg.Cache.StaleTTL, cfg.Cache.SchemaVersion, logger)
	scoring := services.NewScoringService(logger)
	trendEngine := services.NewTrendEngine(orchestrator, scoring, trendCache, queries, logger)

	marketplaceClient := marketplace.NewClient(cfg.Marketplace, logger)
	taxonomy := services.NewTaxonomyResolver(cfg.Taxonomy, marketplaceClient, logger)
	youtubeClient := youtube.NewClient(cfg.YouTube, logger)
	intent := services.NewIntentService(logger)
	fusion := services.NewFusionService(trendEngine, youtubeClient, intent, marketplaceClient, taxonomy, cfg.Fusion, logger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger))

	api.SetupRoutes(router, api.Handlers{
		Trends:    handlers.NewTrendsHandler(trendEngine, queries, cfg, logger),
		Fusion:    handlers.NewFusionHandler(fusion, cfg, logger),
		Taxonomy:  handlers.NewTaxonomyHandler(taxonomy, cfg, logger),
		Countries: handlers.NewCountriesHandler(cfg),
		Cache:     handlers.NewCacheHandler(trendCache, logger),
		Health:    handlers.NewHealthHandler(db, redisClient),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Forced shutdown")
	}
	logger.Info("Server stopped")
}
