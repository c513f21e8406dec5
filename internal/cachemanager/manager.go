// Package cachemanager provides TTL caches behind a generic interface. The
// media loader keeps fetched bytes here so rows that scroll out and back in
// do not refetch.
package cachemanager

import (
	"context"
	"time"
)

// CacheManager is a typed key/value cache with per-entry TTLs.
type CacheManager[K comparable, V any] interface {
	// Get returns the cached value for key, if present and unexpired.
	Get(ctx context.Context, key K) (V, bool)

	// GetMultiple looks up several keys at once. The second return is false
	// only when none of the keys were found.
	GetMultiple(ctx context.Context, keys []K) (map[K]V, bool)

	// GetWithRefresh is Get plus a TTL extension on hit, keeping hot entries
	// alive.
	GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key K, value V, ttl time.Duration)

	// Delete evicts the given keys.
	Delete(ctx context.Context, keys ...K) error

	// Flush evicts everything.
	Flush(ctx context.Context) error
}
