package cache

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Provider defines the cache operations used for search results
type Provider interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// ErrCacheMiss signals that a cache key was not found
var ErrCacheMiss = errors.New("cache miss")

// MemoryProvider is a size-bounded in-process cache whose entries expire after a fixed TTL
type MemoryProvider struct {
	lru *expirable.LRU[string, []byte]
}

// NewMemoryProvider creates a MemoryProvider holding at most size entries for ttl each
func NewMemoryProvider(size int, ttl time.Duration) *MemoryProvider {
	if size <= 0 {
		size = 256
	}
	return &MemoryProvider{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

// Get returns a copy of the cached bytes or ErrCacheMiss.
func (p *MemoryProvider) Get(_ context.Context, key string) ([]byte, error) {
	value, ok := p.lru.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	return append([]byte(nil), value...), nil
}

// Set stores a copy of value under key.
func (p *MemoryProvider) Set(_ context.Context, key string, value []byte) error {
	p.lru.Add(key, append([]byte(nil), value...))
	return nil
}

// Len reports the number of live entries.
func (p *MemoryProvider) Len() int {
	return p.lru.Len()
}

// Close drops every entry.
func (p *MemoryProvider) Close() error {
	p.lru.Purge()
	return nil
}
