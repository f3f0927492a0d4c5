package cache

import (
	"fmt"

	"github.com/nexgen-logistics/lanewatch/internal/domain"
)

// New creates a cache based on configuration: an in-process LRU for
// single-instance deployments, or Redis when results are shared.
func New(cfg domain.CacheConfig) (domain.Cache, error) {
	switch cfg.Type {
	case "memory":
		return NewLRUCache(cfg.LocalMaxSize), nil

	case "redis":
		return NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}
