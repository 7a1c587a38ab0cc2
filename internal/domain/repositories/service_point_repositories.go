package repositories

import (
	"context"

	"github.com/zatekoja/patientsurvey/internal/domain/entities"
	"github.com/zatekoja/patientsurvey/internal/domain/query"
)

// ServicePointRepository adds the feedback accessor of a service point.
type ServicePointRepository interface {
	Repository[entities.ServicePoint]

	Feedback(ctx context.Context, servicePointID int, args query.FindArgs) ([]*entities.ServicePointFeedback, error)
}

// ServicePointFeedbackRepository resolves the service point of a feedback row.
type ServicePointFeedbackRepository interface {
	Repository[entities.ServicePointFeedback]

	ServicePoint(ctx context.Context, id int) (*entities.ServicePoint, error)
}
