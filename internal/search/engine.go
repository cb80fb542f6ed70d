package search

import (
	"context"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/query"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/pkg/model"
)

// Engine executes search requests against health metric storage
type Engine interface {
	Search(ctx context.Context, req *query.SearchRequest) (*model.SearchResponse, error)
}

// HealthChecker reports the status of the storage backend
type HealthChecker interface {
	Health(ctx context.Context) (*ClusterHealth, error)
}

// ClusterHealth is the subset of cluster health the service exposes
type ClusterHealth struct {
	ClusterName string `json:"cluster_name"`
	Status      string `json:"status"`
	Nodes       int    `json:"number_of_nodes"`
}

// DataSource names where a response came from
func DataSource(degraded bool) string {
	if degraded {
		return "fallback"
	}
	return "live"
}
