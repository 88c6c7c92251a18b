package api

import (
	"github.com/gin-gonic/gin"

	"github.com/stitts-dev/dfs-lineup-engine/internal/api/handlers"
	"github.com/stitts-dev/dfs-lineup-engine/internal/api/middleware"
	"github.com/stitts-dev/dfs-lineup-engine/pkg/config"
)

const (
	ServiceName = "lineup-engine"
	Version     = "1.0.0"
)

// NewRouter wires every endpoint. resultCache may be nil.
func NewRouter(cfg *config.Config, resultCache handlers.ResultCache) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestLogger(), gin.Recovery())

	optimizationHandler := handlers.NewOptimizationHandler(resultCache, cfg)
	stackHandler := handlers.NewStackHandler(resultCache, cfg)
	analysisHandler := handlers.NewAnalysisHandler(cfg)
	healthHandler := handlers.NewHealthHandler(resultCache, ServiceName, Version)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/optimize", optimizationHandler.OptimizeLineups)
		apiV1.POST("/optimize/batch", optimizationHandler.OptimizeBatch)
		apiV1.GET("/optimize/cache-status", optimizationHandler.GetCacheStatus)
		apiV1.DELETE("/optimize/cache", optimizationHandler.FlushCache)
		apiV1.POST("/stacks", stackHandler.BuildStacks)
		apiV1.POST("/analyze", analysisHandler.AnalyzePortfolio)
		apiV1.GET("/contest-types/:type", stackHandler.GetContestType)
	}

	router.GET("/health", healthHandler.GetHealth)

	return router
}
