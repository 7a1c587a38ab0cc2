package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/patientsurvey/internal/domain/query"
	"github.com/zatekoja/patientsurvey/internal/domain/repositories"
)

// CacheWarmingService preloads the location cache so the survey form's
// lookups are served from Redis after a deploy
type CacheWarmingService struct {
	locations repositories.LocationRepository
}

// NewCacheWarmingService creates a new cache warming service. locations
// should be the cached repository.
func NewCacheWarmingService(locations repositories.LocationRepository) *CacheWarmingService {
	return &CacheWarmingService{locations: locations}
}

// WarmCache looks up every location by id, filling the read-through cache
func (s *CacheWarmingService) WarmCache(ctx context.Context) (int, error) {
	all, err := s.locations.FindMany(ctx, query.FindArgs{
		Select:  query.FieldSet{"id"},
		OrderBy: query.OrderBy{query.Asc("id")},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list locations: %w", err)
	}

	warmed := 0
	for _, l := range all {
		if err := ctx.Err(); err != nil {
			return warmed, err
		}
		if _, err := s.locations.FindUnique(ctx, query.ByID(l.ID)); err != nil {
			log.Warn().Err(err).Int("location_id", l.ID).Msg("Failed to warm location")
			continue
		}
		warmed++
	}

	log.Info().Int("locations", warmed).Msg("Cache warming completed")
	return warmed, nil
}
