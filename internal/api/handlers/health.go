package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	cache   ResultCache
	service string
	version string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(resultCache ResultCache, service, version string) *HealthHandler {
	return &HealthHandler{
		cache:   resultCache,
		service: service,
		version: version,
	}
}

// GetHealth reports service status. Redis is optional, so a failed ping
// degrades the status without failing the check.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	response := HealthStatus{
		Status:    "ok",
		Service:   h.service,
		Version:   h.version,
		Timestamp: time.Now(),
		Checks:    make(map[string]string),
	}

	if h.cache == nil {
		response.Checks["redis"] = "not_configured"
	} else if err := h.cache.Ping(c.Request.Context()); err != nil {
		response.Status = "degraded"
		response.Checks["redis"] = "failed: " + err.Error()
	} else {
		response.Checks["redis"] = "ok"
	}

	c.JSON(http.StatusOK, response)
}
