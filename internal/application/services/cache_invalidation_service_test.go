package services_test

import (
	"context"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/patientsurvey/internal/adapters/database"
	"github.com/zatekoja/patientsurvey/internal/adapters/events"
	"github.com/zatekoja/patientsurvey/internal/application/services"
	"github.com/zatekoja/patientsurvey/internal/domain/entities"
	"github.com/zatekoja/patientsurvey/internal/domain/providers"
)

// MockCacheProvider for testing
type MockCacheProvider struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMockCacheProvider() *MockCacheProvider {
	return &MockCacheProvider{data: make(map[string][]byte)}
}

func (m *MockCacheProvider) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if val, ok := m.data[key]; ok {
		return val, nil
	}
	return nil, providers.ErrCacheMiss
}

func (m *MockCacheProvider) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MockCacheProvider) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockCacheProvider) DeletePattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.data {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.data, key)
		}
	}
	return nil
}

func (m *MockCacheProvider) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok, nil
}

func (m *MockCacheProvider) Increment(ctx context.Context, key string, expirationSeconds int) (int64, error) {
	return 1, nil
}

func (m *MockCacheProvider) has(key string) bool {
	ok, _ := m.Exists(context.Background(), key)
	return ok
}

func TestCacheInvalidationService_LocationChanged(t *testing.T) {
	cache := NewMockCacheProvider()
	bus := events.NewMemoryEventBus()
	defer bus.Close()

	ctx := context.Background()
	_ = cache.Set(ctx, providers.LocationIDCacheKey("4"), []byte("{}"), 60)
	_ = cache.Set(ctx, providers.LocationNameCacheKey("Lab"), []byte("{}"), 60)
	_ = cache.Set(ctx, providers.HTTPCachePrefix+"/api/locations:abc", []byte("[]"), 60)
	_ = cache.Set(ctx, providers.HTTPCachePrefix+"/api/service-points:abc", []byte("[]"), 60)
	_ = cache.Set(ctx, providers.LocationIDCacheKey("5"), []byte("{}"), 60)

	svc := services.NewCacheInvalidationService(cache, bus)
	require.NoError(t, svc.Start())
	defer svc.Stop()

	event := entities.NewSurveyEvent(entities.SurveyEventLocationChanged, "4", map[string]interface{}{"name": "Lab"})
	require.NoError(t, bus.Publish(ctx, providers.EventChannelLocations, event))

	assert.Eventually(t, func() bool {
		return !cache.has(providers.LocationIDCacheKey("4"))
	}, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return !cache.has(providers.LocationNameCacheKey("Lab")) && !cache.has(providers.HTTPCachePrefix+"/api/locations:abc")
	}, time.Second, 10*time.Millisecond)

	assert.True(t, cache.has(providers.LocationIDCacheKey("5")))
	assert.True(t, cache.has(providers.HTTPCachePrefix+"/api/service-points:abc"))
}

func TestCacheInvalidationService_ServicePointChanged(t *testing.T) {
	cache := NewMockCacheProvider()
	bus := events.NewMemoryEventBus()
	defer bus.Close()

	ctx := context.Background()
	_ = cache.Set(ctx, providers.HTTPCachePrefix+"/api/service-points:abc", []byte("[]"), 60)

	svc := services.NewCacheInvalidationService(cache, bus)
	require.NoError(t, svc.Start())
	defer svc.Stop()

	event := entities.NewSurveyEvent(entities.SurveyEventServicePointChanged, "2", nil)
	require.NoError(t, bus.Publish(ctx, providers.EventChannelServicePoints, event))

	assert.Eventually(t, func() bool {
		return !cache.has(providers.HTTPCachePrefix + "/api/service-points:abc")
	}, time.Second, 10*time.Millisecond)
}

func TestCacheInvalidationService_StopWithoutStart(t *testing.T) {
	svc := services.NewCacheInvalidationService(NewMockCacheProvider(), events.NewMemoryEventBus())
	svc.Stop()
}

func TestCacheWarmingService(t *testing.T) {
	store, sqlMock := newMockStore(t)
	cache := NewMockCacheProvider()
	cached := database.NewCachedLocationAdapter(store.Locations, cache)

	sqlMock.ExpectQuery(`SELECT "id" FROM "locations" ORDER BY "id" ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	sqlMock.ExpectQuery(`SELECT .* FROM "locations" WHERE \("id" = \$1\)`).
		WillReturnRows(locationRows().AddRow(1, "Lab", "department", fixedTime, fixedTime))

	n, err := services.NewCacheWarmingService(cached).WarmCache(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, cache.has(providers.LocationIDCacheKey(1)))
	assert.True(t, cache.has(providers.LocationNameCacheKey("Lab")))
}
