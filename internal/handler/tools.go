package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/apperr"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/query"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/tools"
)

// ToolExecutor lists and runs tools
type ToolExecutor interface {
	Tools() []*tools.Tool
	Execute(ctx context.Context, name string, rawArgs json.RawMessage) (any, error)
}

// ToolHandler exposes the tool dispatcher over HTTP
type ToolHandler struct {
	executor ToolExecutor
	logger   *zap.Logger
}

// NewToolHandler creates a new ToolHandler
func NewToolHandler(executor ToolExecutor, logger *zap.Logger) *ToolHandler {
	return &ToolHandler{
		executor: executor,
		logger:   logger,
	}
}

// QueryRequest is the body of POST /api/v1/query
type QueryRequest struct {
	Query           string `json:"query" binding:"required"`
	UserID          string `json:"user_id,omitempty"`
	IncludeInsights *bool  `json:"include_insights,omitempty"`
}

// ListTools returns every registered tool with its input schema
func (h *ToolHandler) ListTools(c *gin.Context) {
	list := h.executor.Tools()
	c.JSON(http.StatusOK, gin.H{
		"tools": list,
		"count": len(list),
	})
}

// CallTool runs the tool named in the path with the JSON body as arguments
func (h *ToolHandler) CallTool(c *gin.Context) {
	name := c.Param("name")

	body, err := c.GetRawData()
	if err != nil {
		validationError(c, "Failed to read request body", err)
		return
	}

	h.execute(c, name, body)
}

// Query answers a free-text question through search_health_data
func (h *ToolHandler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, "Invalid request body", err)
		return
	}

	args, err := json.Marshal(tools.SearchHealthDataArgs{
		Query:           req.Query,
		UserID:          req.UserID,
		IncludeInsights: req.IncludeInsights,
	})
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "INTERNAL_ERROR", Message: "Failed to encode query"})
		return
	}

	h.execute(c, tools.ToolSearchHealthData, args)
}

// Examples lists sample questions the parser understands
func (h *ToolHandler) Examples(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"examples": query.Examples,
		"count":    len(query.Examples),
	})
}

func (h *ToolHandler) execute(c *gin.Context, name string, args json.RawMessage) {
	result, err := h.executor.Execute(c.Request.Context(), name, args)
	if err != nil {
		status := StatusFor(err)
		if status >= http.StatusInternalServerError {
			c.Error(err)
		}
		if apperr.CodeOf(err) == apperr.CodePrivacyViolation {
			h.logger.Warn("privacy violation rejected",
				zap.String("tool", name),
				zap.String("user_id", c.GetString("user_id")),
				zap.String("request_id", c.GetString("request_id")),
			)
		}
		c.JSON(status, tools.NewErrorPayload(name, err))
		return
	}

	c.JSON(http.StatusOK, result)
}
