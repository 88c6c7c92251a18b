package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/dfs-lineup-engine/internal/cache"
	"github.com/stitts-dev/dfs-lineup-engine/internal/optimizer"
	"github.com/stitts-dev/dfs-lineup-engine/internal/rules"
	"github.com/stitts-dev/dfs-lineup-engine/internal/stacking"
	"github.com/stitts-dev/dfs-lineup-engine/internal/types"
	"github.com/stitts-dev/dfs-lineup-engine/pkg/config"
	"github.com/stitts-dev/dfs-lineup-engine/pkg/logger"
)

// StacksRequest is the body of POST /stacks.
type StacksRequest struct {
	Players     []types.Player `json:"players" binding:"required"`
	ContestType string         `json:"contest_type"`
}

// StacksResponse lists ranked stacks.
type StacksResponse struct {
	ContestType string        `json:"contest_type"`
	Count       int           `json:"count"`
	Stacks      []types.Stack `json:"stacks"`
}

// StackHandler serves stack building and contest profiles.
type StackHandler struct {
	cache  ResultCache
	config *config.Config
	logger *logrus.Entry
}

// NewStackHandler creates a new stack handler
func NewStackHandler(resultCache ResultCache, cfg *config.Config) *StackHandler {
	return &StackHandler{
		cache:  resultCache,
		config: cfg,
		logger: logger.WithComponent("stack_handler"),
	}
}

// BuildStacks ranks the pool's stacks for a contest type.
func (h *StackHandler) BuildStacks(c *gin.Context) {
	var req StacksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, "Invalid request format", err)
		return
	}
	if len(req.Players) == 0 {
		invalidRequest(c, "players must not be empty", nil)
		return
	}
	if req.ContestType == "" {
		req.ContestType = h.config.DefaultContestType
	}

	ctx := c.Request.Context()
	var key string
	if h.cache != nil {
		var err error
		if key, err = cache.StacksKey(req.Players, req.ContestType); err != nil {
			h.logger.WithError(err).Warn("Failed to build cache key")
		} else if cached, err := h.cache.GetStacks(ctx, key); err == nil {
			c.Header("X-Cache", "HIT")
			c.JSON(http.StatusOK, StacksResponse{ContestType: req.ContestType, Count: len(cached), Stacks: cached})
			return
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			h.logger.WithError(err).Warn("Cache lookup failed")
		}
	}

	stacks, err := stacking.BuildTopStacks(req.Players, req.ContestType)
	if err != nil {
		h.logger.WithError(err).WithField("contest_type", req.ContestType).Warn("Stack building failed")
		respondError(c, err)
		return
	}

	if key != "" {
		c.Header("X-Cache", "MISS")
		if err := h.cache.SetStacks(ctx, key, stacks); err != nil {
			h.logger.WithError(err).Warn("Failed to cache stacks")
		}
	}

	c.JSON(http.StatusOK, StacksResponse{ContestType: req.ContestType, Count: len(stacks), Stacks: stacks})
}

// GetContestType returns the resolved rule profile for a contest type.
func (h *StackHandler) GetContestType(c *gin.Context) {
	requested := c.Param("type")
	profile := rules.Resolve(requested)

	c.JSON(http.StatusOK, gin.H{
		"requested":        requested,
		"profile":          profile,
		"is_tournament":    rules.IsTournament(requested),
		"default_settings": optimizer.SettingsFor(profile, 1),
	})
}
