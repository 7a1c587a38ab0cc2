package database

import (
	"context"
	"path"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/patientsurvey/internal/domain/providers"
	"github.com/zatekoja/patientsurvey/internal/domain/query"
)

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, providers.ErrCacheMiss
	}
	return v, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memoryCache) DeletePattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(c.data, k)
		}
	}
	return nil
}

func (c *memoryCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

func (c *memoryCache) Increment(_ context.Context, key string, _ int) (int64, error) {
	return 0, nil
}

func TestCachedLocation_ReadThrough(t *testing.T) {
	store, mock := setupMockStore(t)
	cache := newMemoryCache()
	repo := NewCachedLocationAdapter(store.Locations, cache)

	mock.ExpectQuery(`SELECT .* FROM "locations"`).
		WillReturnRows(locationRows().AddRow(4, "Pharmacy", "department", fixedTime, fixedTime))

	first, err := repo.FindUnique(context.Background(), query.ByID(4))
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := repo.FindUnique(context.Background(), query.Unique{"name": "Pharmacy"})
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, 4, second.ID)

	assert.NoError(t, mock.ExpectationsWereMet())
	ok, _ := cache.Exists(context.Background(), providers.LocationIDCacheKey(4))
	assert.True(t, ok)
}

func TestCachedLocation_MissIsNotCached(t *testing.T) {
	store, mock := setupMockStore(t)
	cache := newMemoryCache()
	repo := NewCachedLocationAdapter(store.Locations, cache)

	mock.ExpectQuery(`SELECT .* FROM "locations"`).WillReturnRows(locationRows())

	location, err := repo.FindUnique(context.Background(), query.ByID(9))
	require.NoError(t, err)
	assert.Nil(t, location)
	assert.Empty(t, cache.data)

	mock.ExpectQuery(`SELECT .* FROM "locations"`).WillReturnRows(locationRows())
	_, err = repo.FindUniqueOrThrow(context.Background(), query.ByID(9))
	assert.Error(t, err)
}

func TestCachedLocation_DeleteEvicts(t *testing.T) {
	store, mock := setupMockStore(t)
	cache := newMemoryCache()
	repo := NewCachedLocationAdapter(store.Locations, cache)
	ctx := context.Background()

	_ = cache.Set(ctx, providers.LocationIDCacheKey(4), []byte(`{"id":4,"name":"Pharmacy"}`), locationTTL)
	_ = cache.Set(ctx, providers.LocationNameCacheKey("Pharmacy"), []byte(`{"id":4,"name":"Pharmacy"}`), locationTTL)

	mock.ExpectQuery(`DELETE FROM "locations" WHERE \("id" = \$1\) RETURNING`).
		WillReturnRows(locationRows().AddRow(4, "Pharmacy", "department", fixedTime, fixedTime))

	_, err := repo.Delete(ctx, query.ByID(4))
	require.NoError(t, err)
	assert.Empty(t, cache.data)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedLocation_IncludeBypassesCache(t *testing.T) {
	_, ok := locationCacheKey(query.Unique{"id": 1, "name": "x"})
	assert.False(t, ok)

	key, ok := locationCacheKey(query.Unique{"name": "Lab"})
	assert.True(t, ok)
	assert.Equal(t, "location:name:Lab", key)
}
