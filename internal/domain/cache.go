package domain

import (
	"context"
	"time"
)

// Cache stores serialized pipeline results keyed by filter parameters and
// dataset generation. The pipeline is pure, so cached entries are safe to
// serve until the dataset is reloaded.
type Cache interface {
	// Get retrieves a value from cache. Returns nil, nil if key not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from cache.
	Delete(ctx context.Context, key string) error

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// CacheConfig holds configuration for cache initialization.
type CacheConfig struct {
	// Type is the cache type: "memory" or "redis"
	Type string

	// Local LRU cache settings
	LocalMaxSize int
	LocalTTL     int // seconds

	// Redis settings
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}
