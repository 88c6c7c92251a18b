package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/dfs-lineup-engine/internal/analysis"
	"github.com/stitts-dev/dfs-lineup-engine/internal/types"
	"github.com/stitts-dev/dfs-lineup-engine/pkg/config"
	"github.com/stitts-dev/dfs-lineup-engine/pkg/logger"
)

// AnalyzeRequest is the body of POST /analyze.
type AnalyzeRequest struct {
	Lineups     []types.Lineup `json:"lineups" binding:"required"`
	ContestType string         `json:"contest_type"`
	SalaryCap   int            `json:"salary_cap"`
}

// AnalysisHandler serves portfolio diagnostics.
type AnalysisHandler struct {
	config *config.Config
	logger *logrus.Entry
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(cfg *config.Config) *AnalysisHandler {
	return &AnalysisHandler{
		config: cfg,
		logger: logger.WithComponent("analysis_handler"),
	}
}

// AnalyzePortfolio reports on a batch of lineups.
func (h *AnalysisHandler) AnalyzePortfolio(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, "Invalid request format", err)
		return
	}
	if len(req.Lineups) == 0 {
		invalidRequest(c, "lineups must not be empty", nil)
		return
	}
	if req.ContestType == "" {
		req.ContestType = h.config.DefaultContestType
	}
	if req.SalaryCap <= 0 {
		req.SalaryCap = h.config.SalaryCap
	}

	report := analysis.NewAnalyzer(req.ContestType, req.SalaryCap).Analyze(req.Lineups)

	h.logger.WithFields(logrus.Fields{
		"contest_type":      report.ContestType,
		"lineups":           report.LineupCount,
		"game_theory_score": report.GameTheoryScore,
	}).Info("Portfolio analysis completed")

	c.JSON(http.StatusOK, report)
}
