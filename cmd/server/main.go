package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/dfs-lineup-engine/internal/api"
	"github.com/stitts-dev/dfs-lineup-engine/internal/api/handlers"
	"github.com/stitts-dev/dfs-lineup-engine/internal/cache"
	"github.com/stitts-dev/dfs-lineup-engine/pkg/config"
	"github.com/stitts-dev/dfs-lineup-engine/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())
	log := logger.WithService(api.ServiceName)
	log.WithFields(logrus.Fields{
		"version":      api.Version,
		"environment":  cfg.Env,
		"port":         cfg.Port,
		"salary_cap":   cfg.SalaryCap,
		"max_lineups":  cfg.MaxLineups,
		"contest_type": cfg.DefaultContestType,
	}).Info("Starting lineup engine")

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Redis is optional; without it every request is computed.
	var resultCache handlers.ResultCache
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := cache.Connect(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, result caching disabled")
		} else {
			optimizationCache := cache.NewOptimizationCache(client, cfg.CacheTTL)
			defer optimizationCache.Close()
			resultCache = optimizationCache
			log.WithField("ttl", cfg.CacheTTL).Info("Result caching enabled")
		}
	} else if cfg.IsProduction() {
		log.Warn("REDIS_URL not set in production, result caching disabled")
	}

	router := api.NewRouter(cfg, resultCache)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Lineup engine started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down lineup engine...")

	// In-flight optimizations get the configured timeout to finish.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.OptimizationTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Lineup engine forced to shutdown: %v", err)
	}

	log.Info("Lineup engine exited")
}
