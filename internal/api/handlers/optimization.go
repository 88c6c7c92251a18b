package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/dfs-lineup-engine/internal/cache"
	"github.com/stitts-dev/dfs-lineup-engine/internal/optimizer"
	"github.com/stitts-dev/dfs-lineup-engine/internal/types"
	"github.com/stitts-dev/dfs-lineup-engine/pkg/config"
	"github.com/stitts-dev/dfs-lineup-engine/pkg/logger"
)

// ResultCache is the subset of the Redis cache the handlers use. A nil
// ResultCache disables caching.
type ResultCache interface {
	GetResult(ctx context.Context, key string) (*optimizer.Result, error)
	SetResult(ctx context.Context, key string, result *optimizer.Result) error
	GetStacks(ctx context.Context, key string) ([]types.Stack, error)
	SetStacks(ctx context.Context, key string, stacks []types.Stack) error
	Ping(ctx context.Context) error
	Status(ctx context.Context) map[string]interface{}
	Flush(ctx context.Context) (int, error)
}

// OptimizeRequest is the body of POST /optimize.
type OptimizeRequest struct {
	Players  []types.Player     `json:"players" binding:"required"`
	Settings optimizer.Settings `json:"settings"`
}

// BatchRequest is the body of POST /optimize/batch.
type BatchRequest struct {
	Requests []OptimizeRequest `json:"requests" binding:"required"`
}

// BatchItem is one entry of a batch response.
type BatchItem struct {
	Result *optimizer.Result `json:"result,omitempty"`
	Error  *ErrorResponse    `json:"error,omitempty"`
}

// BatchResponse is the body returned by POST /optimize/batch.
type BatchResponse struct {
	Results   []BatchItem `json:"results"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}

// OptimizationHandler serves lineup generation.
type OptimizationHandler struct {
	cache  ResultCache
	config *config.Config
	logger *logrus.Entry
}

// NewOptimizationHandler creates a new optimization handler
func NewOptimizationHandler(resultCache ResultCache, cfg *config.Config) *OptimizationHandler {
	return &OptimizationHandler{
		cache:  resultCache,
		config: cfg,
		logger: logger.WithComponent("optimization_handler"),
	}
}

// OptimizeLineups handles lineup optimization requests
func (h *OptimizationHandler) OptimizeLineups(c *gin.Context) {
	var req OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, "Invalid request format", err)
		return
	}
	if err := h.prepare(&req); err != nil {
		invalidRequest(c, err.Error(), nil)
		return
	}

	ctx := c.Request.Context()
	cacheKey := h.cacheKey(req)
	if cacheKey != "" {
		if cached, err := h.cache.GetResult(ctx, cacheKey); err == nil {
			h.logger.WithField("cache_key", cacheKey).Info("Returning cached optimization result")
			c.Header("X-Cache", "HIT")
			c.JSON(http.StatusOK, cached)
			return
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			h.logger.WithError(err).Warn("Cache lookup failed")
		}
		c.Header("X-Cache", "MISS")
	}

	ctx, cancel := context.WithTimeout(ctx, timeoutOrDefault(h.config.OptimizationTimeout))
	defer cancel()

	result, err := optimizer.OptimizeContext(ctx, req.Players, req.Settings)
	if err != nil {
		h.logger.WithError(err).WithField("contest_type", req.Settings.ContestType).Warn("Optimization failed")
		respondError(c, err)
		return
	}

	if cacheKey != "" {
		if err := h.cache.SetResult(c.Request.Context(), cacheKey, result); err != nil {
			h.logger.WithError(err).Warn("Failed to cache optimization result")
		}
	}

	h.logger.WithFields(logrus.Fields{
		"optimization_id":   result.Stats.OptimizationID,
		"lineups_generated": len(result.Lineups),
		"warnings":          len(result.Errors),
		"duration_ms":       result.Stats.DurationMs,
	}).Info("Optimization completed successfully")

	c.JSON(http.StatusOK, result)
}

// OptimizeBatch runs several independent optimizations concurrently.
func (h *OptimizationHandler) OptimizeBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, "Invalid request format", err)
		return
	}
	if len(req.Requests) == 0 {
		invalidRequest(c, "requests must not be empty", nil)
		return
	}

	requests := make([]optimizer.Request, len(req.Requests))
	for i := range req.Requests {
		if err := h.prepare(&req.Requests[i]); err != nil {
			invalidRequest(c, fmt.Sprintf("request %d: %v", i, err), nil)
			return
		}
		requests[i] = optimizer.Request{Players: req.Requests[i].Players, Settings: req.Requests[i].Settings}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutOrDefault(h.config.OptimizationTimeout))
	defer cancel()

	results, err := optimizer.OptimizeMany(ctx, requests, h.config.BatchWorkers)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := BatchResponse{Results: make([]BatchItem, len(results))}
	for i, r := range results {
		if r.Err != nil {
			_, body := errorResponse(r.Err)
			resp.Results[i] = BatchItem{Error: &body}
			resp.Failed++
			continue
		}
		resp.Results[i] = BatchItem{Result: r.Result}
		resp.Succeeded++
	}

	h.logger.WithFields(logrus.Fields{
		"requests":  len(requests),
		"succeeded": resp.Succeeded,
		"failed":    resp.Failed,
	}).Info("Batch optimization completed")

	c.JSON(http.StatusOK, resp)
}

// GetCacheStatus returns cache statistics
func (h *OptimizationHandler) GetCacheStatus(c *gin.Context) {
	if h.cache == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": false})
		return
	}
	status := h.cache.Status(c.Request.Context())
	status["enabled"] = true
	c.JSON(http.StatusOK, status)
}

// FlushCache drops every cached result and stack list.
func (h *OptimizationHandler) FlushCache(c *gin.Context) {
	if h.cache == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": false, "deleted": 0})
		return
	}
	deleted, err := h.cache.Flush(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to flush cache")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to flush cache",
			Code:    types.ErrCodeCache,
			Details: map[string]string{"error": err.Error(), "deleted": fmt.Sprint(deleted)},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": true, "deleted": deleted})
}

// prepare fills server defaults and enforces request limits.
func (h *OptimizationHandler) prepare(req *OptimizeRequest) error {
	if len(req.Players) == 0 {
		return errors.New("players must not be empty")
	}
	if req.Settings.ContestType == "" {
		req.Settings.ContestType = h.config.DefaultContestType
	}
	if req.Settings.SalaryCap <= 0 {
		req.Settings.SalaryCap = h.config.SalaryCap
	}
	if req.Settings.TargetLineupCount > h.config.MaxLineups {
		return fmt.Errorf("target_lineup_count %d exceeds the maximum of %d", req.Settings.TargetLineupCount, h.config.MaxLineups)
	}
	return nil
}

func (h *OptimizationHandler) cacheKey(req OptimizeRequest) string {
	if h.cache == nil {
		return ""
	}
	key, err := cache.OptimizationKey(req.Players, req.Settings)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to build cache key")
		return ""
	}
	return key
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return 30 * time.Second
	}
	return d
}
