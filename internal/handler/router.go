package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes mounts every endpoint. auth guards the /api/v1 group when non-nil.
func RegisterRoutes(r *gin.Engine, tools *ToolHandler, health *HealthHandler, gatherer prometheus.Gatherer, auth gin.HandlerFunc) {
	r.GET("/health", health.GetHealth)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := r.Group("/api/v1")
	// registered before auth so the examples stay public
	v1.GET("/query/examples", tools.Examples)
	if auth != nil {
		v1.Use(auth)
	}
	v1.GET("/tools", tools.ListTools)
	v1.POST("/tools/:name", tools.CallTool)
	v1.POST("/query", tools.Query)
}
