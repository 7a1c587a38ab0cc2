package providers

import (
	"context"
	"errors"
	"fmt"
)

// ErrCacheMiss is returned by Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// CacheProvider defines the interface for caching operations
type CacheProvider interface {
	// Get retrieves a value from cache, returning ErrCacheMiss when absent
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// DeletePattern removes every key matching a glob pattern
	DeletePattern(ctx context.Context, pattern string) error

	// Exists checks if a key exists in cache
	Exists(ctx context.Context, key string) (bool, error)

	// Increment adds one to a counter, setting its expiry when it is created
	Increment(ctx context.Context, key string, expirationSeconds int) (int64, error)
}

// HTTPCachePrefix starts every cached HTTP response key. Keys continue with
// the request path so responses can be evicted per route.
const HTTPCachePrefix = "http:cache:"

// LocationCachePattern matches every cached location entry.
const LocationCachePattern = "location:*"

// LocationIDCacheKey is the cache key of a location looked up by id.
func LocationIDCacheKey(id interface{}) string {
	return fmt.Sprintf("location:id:%v", id)
}

// LocationNameCacheKey is the cache key of a location looked up by name.
func LocationNameCacheKey(name interface{}) string {
	return fmt.Sprintf("location:name:%v", name)
}
