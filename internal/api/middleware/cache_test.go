package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/patientsurvey/internal/domain/providers"
)

type mapCache struct {
	mu     sync.Mutex
	values map[string][]byte
}

func (c *mapCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.values[key]; ok {
		return v, nil
	}
	return nil, providers.ErrCacheMiss
}

func (c *mapCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = append([]byte(nil), value...)
	return nil
}

func (c *mapCache) Delete(ctx context.Context, key string) error         { return nil }
func (c *mapCache) DeletePattern(ctx context.Context, pattern string) error { return nil }
func (c *mapCache) Exists(ctx context.Context, key string) (bool, error)  { return false, nil }
func (c *mapCache) Increment(ctx context.Context, key string, expirationSeconds int) (int64, error) {
	return 0, nil
}

func TestCacheMiddleware_HitAfterMiss(t *testing.T) {
	cache := &mapCache{values: map[string][]byte{}}
	calls := 0
	handler := NewCacheMiddleware(cache, nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"locations":[]}`))
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/locations?type=ward", nil))
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/locations?type=ward", nil))
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.Equal(t, `{"locations":[]}`, w.Body.String())
	assert.Equal(t, 1, calls)

	// A different query is a different entry.
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/locations?type=department", nil))
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)
}

func TestCacheMiddleware_SkipsVolatileRoutes(t *testing.T) {
	cache := &mapCache{values: map[string][]byte{}}
	handler := NewCacheMiddleware(cache, nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))

	for _, path := range []string{"/api/locations/3/ratings", "/api/service-points/1/stats", "/api/surveys"} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		assert.Empty(t, w.Header().Get("X-Cache"), path)
	}
	assert.Empty(t, cache.values)
}

func TestCacheMiddleware_ErrorsAreNotCached(t *testing.T) {
	cache := &mapCache{values: map[string][]byte{}}
	handler := NewCacheMiddleware(cache, nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Location not found"}`))
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/locations/99", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, cache.values)
}

func TestCacheKey_StartsWithPath(t *testing.T) {
	key := CacheKey(httptest.NewRequest("GET", "/api/service-points?active=true", nil))
	require.True(t, strings.HasPrefix(key, providers.HTTPCachePrefix+"/api/service-points:"))
}
