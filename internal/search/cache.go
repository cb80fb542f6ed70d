package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/cache"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/metrics"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/query"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/pkg/model"
)

// CachingEngine memoizes live search responses. Degraded responses are never cached.
type CachingEngine struct {
	next     Engine
	provider cache.Provider
	logger   *zap.Logger
}

// NewCachingEngine wraps next with a result cache
func NewCachingEngine(next Engine, provider cache.Provider, logger *zap.Logger) *CachingEngine {
	return &CachingEngine{
		next:     next,
		provider: provider,
		logger:   logger,
	}
}

// Search returns a cached response when one exists for the same request body
func (e *CachingEngine) Search(ctx context.Context, req *query.SearchRequest) (*model.SearchResponse, error) {
	key, err := CacheKey(req)
	if err != nil {
		return e.next.Search(ctx, req)
	}

	if raw, err := e.provider.Get(ctx, key); err == nil {
		var cached model.SearchResponse
		if err := json.Unmarshal(raw, &cached); err == nil {
			metrics.RecordCacheLookup(true)
			return &cached, nil
		}
		e.logger.Warn("discarding unreadable cache entry", zap.String("key", key))
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		e.logger.Warn("cache lookup failed", zap.Error(err))
	}
	metrics.RecordCacheLookup(false)

	resp, err := e.next.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.Degraded {
		return resp, nil
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		e.logger.Warn("failed to encode search response for cache", zap.Error(err))
		return resp, nil
	}
	if err := e.provider.Set(ctx, key, raw); err != nil {
		e.logger.Warn("failed to store search response in cache", zap.Error(err))
	}
	return resp, nil
}

// Health forwards to the wrapped engine when it supports health checks
func (e *CachingEngine) Health(ctx context.Context) (*ClusterHealth, error) {
	checker, ok := e.next.(HealthChecker)
	if !ok {
		return nil, errors.New("search engine does not report health")
	}
	return checker.Health(ctx)
}

// CacheKey hashes the index and rendered body of a request
func CacheKey(req *query.SearchRequest) (string, error) {
	body, err := json.Marshal(req.Body())
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(append([]byte(req.Index+"\n"), body...))
	return "search:" + hex.EncodeToString(sum[:]), nil
}
