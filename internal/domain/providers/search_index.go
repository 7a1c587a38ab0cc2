package providers

import (
	"context"

	"github.com/zatekoja/patientsurvey/internal/domain/entities"
)

// SearchDocument is one searchable reference-data record.
type SearchDocument struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	EntityID int    `json:"entity_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	IsActive bool   `json:"is_active"`
}

// Search document kinds
const (
	SearchKindLocation     = "location"
	SearchKindServicePoint = "service_point"
)

// SearchQuery describes a name search.
type SearchQuery struct {
	Text  string
	Kind  string
	Limit int
}

// SearchIndex indexes locations and service points by name. Implementations
// own the mapping from entities to documents.
type SearchIndex interface {
	EnsureCollection(ctx context.Context) error
	IndexLocations(ctx context.Context, locations ...*entities.Location) error
	IndexServicePoints(ctx context.Context, points ...*entities.ServicePoint) error
	RemoveLocation(ctx context.Context, id int) error
	Search(ctx context.Context, q SearchQuery) ([]SearchDocument, error)
}
