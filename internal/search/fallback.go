package search

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/apperr"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/metrics"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/query"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/pkg/model"
)

// FallbackEngine serves from primary and switches to fallback when primary fails.
// Responses from fallback are always flagged as degraded.
type FallbackEngine struct {
	primary  Engine
	fallback Engine
	logger   *zap.Logger
}

// NewFallbackEngine composes a live engine with a fallback engine
func NewFallbackEngine(primary, fallback Engine, logger *zap.Logger) *FallbackEngine {
	return &FallbackEngine{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Search tries the primary engine first
func (e *FallbackEngine) Search(ctx context.Context, req *query.SearchRequest) (*model.SearchResponse, error) {
	resp, err := e.primary.Search(ctx, req)
	if err == nil {
		return resp, nil
	}

	// the caller gave up; serving fixtures would hide that
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil, fmt.Errorf("search cancelled: %w", ctx.Err())
	}

	reason := "error"
	fallbackCtx := ctx
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		reason = "timeout"
		// the storage deadline is spent; fallback data must not inherit it
		fallbackCtx = context.WithoutCancel(ctx)
	}
	e.logger.Warn("search backend unavailable, serving fallback data",
		zap.Error(err),
		zap.String("reason", reason),
		zap.String("metric", string(req.Metric)),
		zap.Bool("family", req.IsFamily()),
	)
	metrics.RecordStorageFallback(reason)

	fb, fbErr := e.fallback.Search(fallbackCtx, req)
	if fbErr != nil {
		e.logger.Error("fallback search failed", zap.Error(fbErr))
		return nil, &apperr.StorageUnavailableError{Err: err}
	}
	fb.Degraded = true
	return fb, nil
}

// Health reports the primary engine's health when it supports health checks
func (e *FallbackEngine) Health(ctx context.Context) (*ClusterHealth, error) {
	checker, ok := e.primary.(HealthChecker)
	if !ok {
		return nil, fmt.Errorf("primary search engine does not report health")
	}
	return checker.Health(ctx)
}

// StrictEngine converts every engine failure into a StorageUnavailableError
type StrictEngine struct {
	Engine
}

// Search delegates and wraps failures
func (e StrictEngine) Search(ctx context.Context, req *query.SearchRequest) (*model.SearchResponse, error) {
	resp, err := e.Engine.Search(ctx, req)
	if err != nil {
		var unavailable *apperr.StorageUnavailableError
		if errors.As(err, &unavailable) {
			return nil, err
		}
		return nil, &apperr.StorageUnavailableError{Err: err}
	}
	return resp, nil
}
