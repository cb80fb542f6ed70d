package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/search"
)

const healthCheckTimeout = 3 * time.Second

// HealthHandler reports service and search backend status
type HealthHandler struct {
	checker         search.HealthChecker
	fallbackEnabled bool
	version         string
	logger          *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. checker may be nil when no
// cluster is configured.
func NewHealthHandler(checker search.HealthChecker, fallbackEnabled bool, version string, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		checker:         checker,
		fallbackEnabled: fallbackEnabled,
		version:         version,
		logger:          logger,
	}
}

// GetHealth implements GET /health
func (h *HealthHandler) GetHealth(c *gin.Context) {
	body := gin.H{
		"service": "health-query",
		"version": h.version,
	}

	if h.checker == nil {
		body["status"] = "healthy"
		body["search"] = "not_configured"
		body["data_source"] = "fallback"
		c.JSON(http.StatusOK, body)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	cluster, err := h.checker.Health(ctx)
	if err != nil {
		h.logger.Error("health check failed: search backend unreachable", zap.Error(err))
		body["search"] = "disconnected"
		body["error"] = err.Error()
		if h.fallbackEnabled {
			body["status"] = "degraded"
			body["data_source"] = "fallback"
			body["note"] = "search backend unavailable, responses are served from sample data"
			c.JSON(http.StatusOK, body)
			return
		}
		body["status"] = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}

	body["status"] = "healthy"
	body["data_source"] = "live"
	body["search"] = "connected"
	body["cluster"] = cluster
	if cluster.Status == "red" {
		body["status"] = "degraded"
	}
	c.JSON(http.StatusOK, body)
}
