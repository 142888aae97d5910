// Package cache holds the derived-view cache and the coherence coordinator
// that invalidates it on ledger mutations. Two store backends exist: an
// in-process LRU and Redis. Cached values are JSON blobs keyed by a
// colon-separated view key, so whole view families can be dropped by
// prefix.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"
)

// Store is a byte-value cache with TTL and prefix invalidation.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	Close() error
}

// View key prefixes. Every cached read model lives under exactly one of
// these, which is what makes mutation-driven invalidation a prefix delete.
const (
	PrefixCategories = "view:categories"
	PrefixAggregate  = "view:aggregate" // + ":<source>"
	PrefixTrend      = "view:trend"
	PrefixSummary    = "view:summary"
	PrefixBalance    = "view:balance"
	PrefixDashboard  = "view:dashboard"
)

// Key joins key parts with the view separator.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// NopStore caches nothing. Used when caching is disabled.
type NopStore struct{}

func (NopStore) Get(context.Context, string) ([]byte, bool, error)         { return nil, false, nil }
func (NopStore) Set(context.Context, string, []byte, time.Duration) error  { return nil }
func (NopStore) DeletePrefix(context.Context, string) (int, error)         { return 0, nil }
func (NopStore) Close() error                                              { return nil }

// GetOrCompute returns the cached value under key, or computes, caches and
// returns it. Store failures are logged and degrade to a plain compute;
// a broken cache never breaks a read.
func GetOrCompute[T any](ctx context.Context, store Store, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	var zero T
	if raw, ok, err := store.Get(ctx, key); err != nil {
		slog.WarnContext(ctx, "Cache read failed", "key", key, "error", err)
	} else if ok {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		slog.WarnContext(ctx, "Discarding undecodable cache entry", "key", key)
	}

	value, err := compute(ctx)
	if err != nil {
		return zero, err
	}
	if raw, err := json.Marshal(value); err == nil {
		if err := store.Set(ctx, key, raw, ttl); err != nil {
			slog.WarnContext(ctx, "Cache write failed", "key", key, "error", err)
		}
	}
	return value, nil
}
