package database

import (
	"context"

	"github.com/zatekoja/patientsurvey/internal/domain/entities"
	"github.com/zatekoja/patientsurvey/internal/domain/query"
)

func (t *tables) wireServicePointRelations() {
	t.servicePoints.relations["feedback"] = func(ctx context.Context, parents []*entities.ServicePoint) error {
		return loadMany(ctx, t.servicePointFeedback, parents,
			func(p *entities.ServicePoint) int { return p.ID }, "service_point_id",
			func(c *entities.ServicePointFeedback) int { return c.ServicePointID },
			func(p *entities.ServicePoint, c []*entities.ServicePointFeedback) { p.Feedback = c })
	}
}

// ServicePointAdapter implements repositories.ServicePointRepository.
type ServicePointAdapter struct {
	*table[entities.ServicePoint]
	t *tables
}

// Feedback returns the feedback left at a service point.
func (a *ServicePointAdapter) Feedback(ctx context.Context, servicePointID int, args query.FindArgs) ([]*entities.ServicePointFeedback, error) {
	return a.t.servicePointFeedback.FindMany(ctx, scoped(args, "service_point_id", servicePointID))
}
