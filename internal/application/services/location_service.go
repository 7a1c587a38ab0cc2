package services

import (
	"context"
	"strconv"

	"github.com/zatekoja/patientsurvey/internal/domain/entities"
	"github.com/zatekoja/patientsurvey/internal/domain/providers"
	"github.com/zatekoja/patientsurvey/internal/domain/query"
	"github.com/zatekoja/patientsurvey/internal/domain/repositories"
	"github.com/zatekoja/patientsurvey/internal/infrastructure/observability"
)

// LocationInput creates or replaces a location.
type LocationInput struct {
	Name         string `json:"name" validate:"required,max=200"`
	LocationType string `json:"locationType" validate:"required,max=100"`
}

// LocationService manages the locations patients rate
type LocationService struct {
	locations repositories.LocationRepository
	index     providers.SearchIndex
	eventBus  providers.EventBus
}

// NewLocationService creates a new location service. index and eventBus may
// be nil.
func NewLocationService(locations repositories.LocationRepository, index providers.SearchIndex, eventBus providers.EventBus) *LocationService {
	return &LocationService{
		locations: locations,
		index:     index,
		eventBus:  eventBus,
	}
}

// Create adds a location. Names are unique.
func (s *LocationService) Create(ctx context.Context, in *LocationInput) (*entities.Location, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	location, err := s.locations.Create(ctx, &entities.Location{
		Name:         in.Name,
		LocationType: in.LocationType,
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx, location, "created")
	return location, nil
}

// Update replaces the name and type of a location.
func (s *LocationService) Update(ctx context.Context, id int, in *LocationInput) (*entities.Location, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	location, err := s.locations.Update(ctx, query.ByID(id), query.Data{
		"name":         in.Name,
		"locationType": in.LocationType,
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx, location, "updated")
	return location, nil
}

// Delete removes a location. Locations referenced by surveys cannot be
// deleted.
func (s *LocationService) Delete(ctx context.Context, id int) error {
	location, err := s.locations.Delete(ctx, query.ByID(id))
	if err != nil {
		return err
	}
	if s.index != nil {
		if err := s.index.RemoveLocation(ctx, location.ID); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Int("location_id", id).Msg("Failed to remove location from search index")
		}
	}
	publishEvent(ctx, s.eventBus, providers.EventChannelLocations,
		entities.NewSurveyEvent(entities.SurveyEventLocationChanged, strconv.Itoa(location.ID), map[string]interface{}{
			"action": "deleted",
			"name":   location.Name,
		}))
	return nil
}

// Get returns a location by id.
func (s *LocationService) Get(ctx context.Context, id int) (*entities.Location, error) {
	return s.locations.FindUniqueOrThrow(ctx, query.ByID(id))
}

// List returns locations ordered by name, optionally of one type.
func (s *LocationService) List(ctx context.Context, locationType string) ([]*entities.Location, error) {
	args := query.FindArgs{OrderBy: query.OrderBy{query.Asc("name")}}
	if locationType != "" {
		args.Where = query.Where("locationType", query.Eq(locationType))
	}
	return s.locations.FindMany(ctx, args)
}

// Ratings returns the ratings given for a location, newest first.
func (s *LocationService) Ratings(ctx context.Context, id int, args query.FindArgs) ([]*entities.Rating, error) {
	if _, err := s.locations.FindUniqueOrThrow(ctx, query.ByID(id)); err != nil {
		return nil, err
	}
	if len(args.OrderBy) == 0 {
		args.OrderBy = query.OrderBy{query.Desc("createdAt")}
	}
	args.Take = clampTake(args.Take)
	return s.locations.Ratings(ctx, id, args)
}

// Search finds locations by name. It uses the search index when one is
// configured and falls back to a case-insensitive database match.
func (s *LocationService) Search(ctx context.Context, text string, limit int) ([]*entities.Location, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}

	if s.index != nil {
		docs, err := s.index.Search(ctx, providers.SearchQuery{Text: text, Kind: providers.SearchKindLocation, Limit: limit})
		if err == nil {
			return s.byDocuments(ctx, docs)
		}
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("Location search index unavailable, falling back to database")
	}

	return s.locations.FindMany(ctx, query.FindArgs{
		Where:   query.Where("name", query.Contains(text).Fold()),
		OrderBy: query.OrderBy{query.Asc("name")},
		Take:    query.TakeN(limit),
	})
}

// byDocuments loads the locations behind search hits in hit order.
func (s *LocationService) byDocuments(ctx context.Context, docs []providers.SearchDocument) ([]*entities.Location, error) {
	ids := make([]int, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.EntityID)
	}
	if len(ids) == 0 {
		return []*entities.Location{}, nil
	}

	found, err := s.locations.FindMany(ctx, query.FindArgs{Where: query.Where("id", query.InValues(ids))})
	if err != nil {
		return nil, err
	}
	byID := make(map[int]*entities.Location, len(found))
	for _, l := range found {
		byID[l.ID] = l
	}
	out := make([]*entities.Location, 0, len(found))
	for _, id := range ids {
		if l, ok := byID[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

// Reindex writes every location to the search index.
func (s *LocationService) Reindex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, nil
	}
	locations, err := s.locations.FindMany(ctx, query.FindArgs{OrderBy: query.OrderBy{query.Asc("id")}})
	if err != nil {
		return 0, err
	}
	if err := s.index.IndexLocations(ctx, locations...); err != nil {
		return 0, err
	}
	return len(locations), nil
}

func (s *LocationService) changed(ctx context.Context, location *entities.Location, action string) {
	if s.index != nil {
		if err := s.index.IndexLocations(ctx, location); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Int("location_id", location.ID).Msg("Failed to index location")
		}
	}
	publishEvent(ctx, s.eventBus, providers.EventChannelLocations,
		entities.NewSurveyEvent(entities.SurveyEventLocationChanged, strconv.Itoa(location.ID), map[string]interface{}{
			"action": action,
			"name":   location.Name,
		}))
}
