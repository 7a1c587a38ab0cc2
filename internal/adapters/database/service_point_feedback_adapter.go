package database

import (
	"context"

	"github.com/zatekoja/patientsurvey/internal/domain/entities"
)

func (t *tables) wireServicePointFeedbackRelations() {
	t.servicePointFeedback.relations["service_point"] = func(ctx context.Context, rows []*entities.ServicePointFeedback) error {
		return loadOne(ctx, t.servicePoints, rows,
			func(r *entities.ServicePointFeedback) int { return r.ServicePointID }, "id",
			func(p *entities.ServicePoint) int { return p.ID },
			func(r *entities.ServicePointFeedback, p *entities.ServicePoint) { r.ServicePoint = p })
	}
}

// ServicePointFeedbackAdapter implements repositories.ServicePointFeedbackRepository.
type ServicePointFeedbackAdapter struct {
	*table[entities.ServicePointFeedback]
	t *tables
}

// ServicePoint returns the service point the feedback was left at.
func (a *ServicePointFeedbackAdapter) ServicePoint(ctx context.Context, id int) (*entities.ServicePoint, error) {
	return parentOf(ctx, a.table, id, a.t.servicePoints, func(r *entities.ServicePointFeedback) interface{} { return r.ServicePointID })
}
