package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/patientsurvey/internal/domain/entities"
	"github.com/zatekoja/patientsurvey/internal/domain/providers"
)

// CacheInvalidationService evicts cached reference data when it changes
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	started  bool
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start begins listening for location and service point changes
func (s *CacheInvalidationService) Start() error {
	locations, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelLocations)
	if err != nil {
		return fmt.Errorf("failed to subscribe to location updates: %w", err)
	}
	servicePoints, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelServicePoints)
	if err != nil {
		return fmt.Errorf("failed to subscribe to service point updates: %w", err)
	}

	s.started = true
	go s.processEvents(locations, servicePoints)
	log.Info().Msg("Cache invalidation service started")
	return nil
}

// Stop stops the cache invalidation service
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	if s.started {
		<-s.done
	}
	log.Info().Msg("Cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(locations, servicePoints <-chan *entities.SurveyEvent) {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-locations:
			if !ok {
				locations = nil
				continue
			}
			if event != nil {
				s.handleEvent(event)
			}
		case event, ok := <-servicePoints:
			if !ok {
				servicePoints = nil
				continue
			}
			if event != nil {
				s.handleEvent(event)
			}
		}
	}
}

func (s *CacheInvalidationService) handleEvent(event *entities.SurveyEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch event.EventType {
	case entities.SurveyEventLocationChanged:
		if err := s.InvalidateLocation(ctx, event.EntityID, event.Data["name"]); err != nil {
			log.Warn().Err(err).Str("location_id", event.EntityID).Msg("Failed to invalidate location cache")
		}
	case entities.SurveyEventServicePointChanged:
		if err := s.cache.DeletePattern(ctx, providers.HTTPCachePrefix+"/api/service-points*"); err != nil {
			log.Warn().Err(err).Str("service_point_id", event.EntityID).Msg("Failed to invalidate service point cache")
		}
	}
}

// InvalidateLocation evicts the cached entries of a location and the cached
// location listings. name may be nil when unknown.
func (s *CacheInvalidationService) InvalidateLocation(ctx context.Context, id string, name interface{}) error {
	keys := []string{providers.LocationIDCacheKey(id)}
	if name != nil {
		keys = append(keys, providers.LocationNameCacheKey(name))
	}
	for _, key := range keys {
		if err := s.cache.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
	}
	if err := s.cache.DeletePattern(ctx, providers.HTTPCachePrefix+"/api/locations*"); err != nil {
		return fmt.Errorf("failed to invalidate location listings: %w", err)
	}
	log.Debug().Str("location_id", id).Msg("Invalidated location cache")
	return nil
}

// InvalidateAll drops every cached location and HTTP response
func (s *CacheInvalidationService) InvalidateAll(ctx context.Context) error {
	for _, pattern := range []string{providers.LocationCachePattern, providers.HTTPCachePrefix + "*"} {
		if err := s.cache.DeletePattern(ctx, pattern); err != nil {
			return fmt.Errorf("failed to invalidate pattern %s: %w", pattern, err)
		}
	}
	return nil
}
