package database

import (
	"context"
	"encoding/json"

	"github.com/zatekoja/patientsurvey/internal/domain/entities"
	"github.com/zatekoja/patientsurvey/internal/domain/providers"
	"github.com/zatekoja/patientsurvey/internal/domain/query"
	"github.com/zatekoja/patientsurvey/internal/domain/repositories"
	"github.com/zatekoja/patientsurvey/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/patientsurvey/pkg/errors"
)

// CachedLocationAdapter wraps a LocationRepository with read-through caching
// of single-location lookups by id or name.
type CachedLocationAdapter struct {
	repositories.LocationRepository
	cache providers.CacheProvider
}

// NewCachedLocationAdapter creates a new cached location adapter
func NewCachedLocationAdapter(adapter repositories.LocationRepository, cache providers.CacheProvider) *CachedLocationAdapter {
	return &CachedLocationAdapter{
		LocationRepository: adapter,
		cache:              cache,
	}
}

// locationTTL is the lifetime of a cached location, in seconds.
const locationTTL = 300

func locationCacheKey(where query.Unique) (string, bool) {
	if len(where) != 1 {
		return "", false
	}
	if id, ok := where["id"]; ok {
		return providers.LocationIDCacheKey(id), true
	}
	if name, ok := where["name"]; ok {
		return providers.LocationNameCacheKey(name), true
	}
	return "", false
}

// FindUnique retrieves a location, serving id and name lookups from cache
func (a *CachedLocationAdapter) FindUnique(ctx context.Context, where query.Unique, include ...string) (*entities.Location, error) {
	key, cacheable := locationCacheKey(where)
	if !cacheable || len(include) > 0 {
		return a.LocationRepository.FindUnique(ctx, where, include...)
	}

	if cached, err := a.cache.Get(ctx, key); err == nil {
		var location entities.Location
		if err := json.Unmarshal(cached, &location); err == nil {
			return &location, nil
		}
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("Failed to unmarshal cached location")
	}

	location, err := a.LocationRepository.FindUnique(ctx, where)
	if err != nil || location == nil {
		return location, err
	}
	a.store(ctx, location)
	return location, nil
}

// FindUniqueOrThrow retrieves a location through the cache, failing when absent
func (a *CachedLocationAdapter) FindUniqueOrThrow(ctx context.Context, where query.Unique, include ...string) (*entities.Location, error) {
	location, err := a.FindUnique(ctx, where, include...)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, apperrors.NewNotFoundError("Location not found")
	}
	return location, nil
}

// Update updates a location and evicts its cache entries
func (a *CachedLocationAdapter) Update(ctx context.Context, where query.Unique, data query.Data) (*entities.Location, error) {
	before, _ := a.LocationRepository.FindUnique(ctx, where)
	location, err := a.LocationRepository.Update(ctx, where, data)
	if err != nil {
		return nil, err
	}
	a.evict(ctx, before)
	a.evict(ctx, location)
	return location, nil
}

// Upsert upserts a location and evicts its cache entries
func (a *CachedLocationAdapter) Upsert(ctx context.Context, where query.Unique, create *entities.Location, update query.Data) (*entities.Location, error) {
	before, _ := a.LocationRepository.FindUnique(ctx, where)
	location, err := a.LocationRepository.Upsert(ctx, where, create, update)
	if err != nil {
		return nil, err
	}
	a.evict(ctx, before)
	a.evict(ctx, location)
	return location, nil
}

// Delete deletes a location and evicts its cache entries
func (a *CachedLocationAdapter) Delete(ctx context.Context, where query.Unique) (*entities.Location, error) {
	location, err := a.LocationRepository.Delete(ctx, where)
	if err != nil {
		return nil, err
	}
	a.evict(ctx, location)
	return location, nil
}

// UpdateMany updates locations and drops every cached location
func (a *CachedLocationAdapter) UpdateMany(ctx context.Context, where query.Filter, data query.Data) (int64, error) {
	n, err := a.LocationRepository.UpdateMany(ctx, where, data)
	if err == nil && n > 0 {
		a.evictAll(ctx)
	}
	return n, err
}

// DeleteMany deletes locations and drops every cached location
func (a *CachedLocationAdapter) DeleteMany(ctx context.Context, where query.Filter) (int64, error) {
	n, err := a.LocationRepository.DeleteMany(ctx, where)
	if err == nil && n > 0 {
		a.evictAll(ctx)
	}
	return n, err
}

func (a *CachedLocationAdapter) store(ctx context.Context, location *entities.Location) {
	data, err := json.Marshal(location)
	if err != nil {
		return
	}
	for _, key := range []string{providers.LocationIDCacheKey(location.ID), providers.LocationNameCacheKey(location.Name)} {
		if err := a.cache.Set(ctx, key, data, locationTTL); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("Failed to cache location")
		}
	}
}

func (a *CachedLocationAdapter) evict(ctx context.Context, location *entities.Location) {
	if location == nil {
		return
	}
	for _, key := range []string{providers.LocationIDCacheKey(location.ID), providers.LocationNameCacheKey(location.Name)} {
		if err := a.cache.Delete(ctx, key); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("Failed to evict cached location")
		}
	}
}

func (a *CachedLocationAdapter) evictAll(ctx context.Context) {
	if err := a.cache.DeletePattern(ctx, providers.LocationCachePattern); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("Failed to evict cached locations")
	}
}
