package cache

import (
	"context"
	"fmt"
	"time"
)

// Backend selects a store implementation.
type Backend string

const (
	MemoryBackend Backend = "memory"
	RedisBackend  Backend = "redis"
	NoneBackend   Backend = "none"
)

func (b Backend) IsValid() bool {
	switch b {
	case MemoryBackend, RedisBackend, NoneBackend:
		return true
	default:
		return false
	}
}

// Config carries the store settings of the selected backend.
type Config struct {
	Backend         Backend
	MaxEntries      int           // memory backend
	CleanupInterval time.Duration // memory backend
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
}

// NewStore builds the configured store. The none backend yields a NopStore
// so callers never branch on whether caching is enabled.
func NewStore(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case MemoryBackend:
		maxEntries := cfg.MaxEntries
		if maxEntries <= 0 {
			maxEntries = 1000
		}
		interval := cfg.CleanupInterval
		if interval <= 0 {
			interval = time.Minute
		}
		return NewMemoryStore(maxEntries, interval), nil
	case RedisBackend:
		return NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case NoneBackend:
		return NopStore{}, nil
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", cfg.Backend)
	}
}
