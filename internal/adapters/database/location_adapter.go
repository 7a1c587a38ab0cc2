package database

import (
	"context"

	"github.com/zatekoja/patientsurvey/internal/domain/entities"
	"github.com/zatekoja/patientsurvey/internal/domain/query"
)

func (t *tables) wireLocationRelations() {
	locationKey := func(l *entities.Location) int { return l.ID }

	t.locations.relations["submissionLocations"] = func(ctx context.Context, parents []*entities.Location) error {
		return loadMany(ctx, t.submissionLocations, parents, locationKey, "locationId",
			func(c *entities.SubmissionLocation) int { return c.LocationID },
			func(p *entities.Location, c []*entities.SubmissionLocation) { p.SubmissionLocations = c })
	}
	t.locations.relations["ratings"] = func(ctx context.Context, parents []*entities.Location) error {
		return loadMany(ctx, t.ratings, parents, locationKey, "locationId",
			func(c *entities.Rating) int { return c.LocationID },
			func(p *entities.Location, c []*entities.Rating) { p.Ratings = c })
	}
	t.locations.relations["departmentConcerns"] = func(ctx context.Context, parents []*entities.Location) error {
		return loadMany(ctx, t.departmentConcerns, parents, locationKey, "locationId",
			func(c *entities.DepartmentConcern) int { return c.LocationID },
			func(p *entities.Location, c []*entities.DepartmentConcern) { p.DepartmentConcerns = c })
	}
}

// LocationAdapter implements repositories.LocationRepository.
type LocationAdapter struct {
	*table[entities.Location]
	t *tables
}

// SubmissionLocations returns the submissions that visited a location.
func (a *LocationAdapter) SubmissionLocations(ctx context.Context, locationID int, args query.FindArgs) ([]*entities.SubmissionLocation, error) {
	return a.t.submissionLocations.FindMany(ctx, scoped(args, "locationId", locationID))
}

// Ratings returns the ratings given for a location.
func (a *LocationAdapter) Ratings(ctx context.Context, locationID int, args query.FindArgs) ([]*entities.Rating, error) {
	return a.t.ratings.FindMany(ctx, scoped(args, "locationId", locationID))
}

// DepartmentConcerns returns the concerns raised about a location.
func (a *LocationAdapter) DepartmentConcerns(ctx context.Context, locationID int, args query.FindArgs) ([]*entities.DepartmentConcern, error) {
	return a.t.departmentConcerns.FindMany(ctx, scoped(args, "locationId", locationID))
}
