package repositories

import (
	"context"

	"github.com/zatekoja/patientsurvey/internal/domain/entities"
	"github.com/zatekoja/patientsurvey/internal/domain/query"
)

// SurveySubmissionRepository adds the relation accessors of a submission.
type SurveySubmissionRepository interface {
	Repository[entities.SurveySubmission]

	Locations(ctx context.Context, submissionID string, args query.FindArgs) ([]*entities.SubmissionLocation, error)
	Ratings(ctx context.Context, submissionID string, args query.FindArgs) ([]*entities.Rating, error)
	DepartmentConcerns(ctx context.Context, submissionID string, args query.FindArgs) ([]*entities.DepartmentConcern, error)
	// GeneralObservation returns nil when the submission has none.
	GeneralObservation(ctx context.Context, submissionID string) (*entities.GeneralObservation, error)
}

// LocationRepository adds the relation accessors of a location.
type LocationRepository interface {
	Repository[entities.Location]

	SubmissionLocations(ctx context.Context, locationID int, args query.FindArgs) ([]*entities.SubmissionLocation, error)
	Ratings(ctx context.Context, locationID int, args query.FindArgs) ([]*entities.Rating, error)
	DepartmentConcerns(ctx context.Context, locationID int, args query.FindArgs) ([]*entities.DepartmentConcern, error)
}

// SubmissionLocationRepository resolves the parents of a visited location row.
type SubmissionLocationRepository interface {
	Repository[entities.SubmissionLocation]

	Submission(ctx context.Context, id int) (*entities.SurveySubmission, error)
	Location(ctx context.Context, id int) (*entities.Location, error)
}

// RatingRepository resolves the parents of a rating.
type RatingRepository interface {
	Repository[entities.Rating]

	Submission(ctx context.Context, id int) (*entities.SurveySubmission, error)
	Location(ctx context.Context, id int) (*entities.Location, error)
}

// GeneralObservationRepository resolves the submission of an observation.
type GeneralObservationRepository interface {
	Repository[entities.GeneralObservation]

	Submission(ctx context.Context, id int) (*entities.SurveySubmission, error)
}

// DepartmentConcernRepository resolves the parents of a concern.
type DepartmentConcernRepository interface {
	Repository[entities.DepartmentConcern]

	Submission(ctx context.Context, id int) (*entities.SurveySubmission, error)
	Location(ctx context.Context, id int) (*entities.Location, error)
}

// SurveyRepositories groups the repositories a survey submission writes to.
type SurveyRepositories struct {
	Submissions         SurveySubmissionRepository
	SubmissionLocations SubmissionLocationRepository
	Ratings             RatingRepository
	GeneralObservations GeneralObservationRepository
	DepartmentConcerns  DepartmentConcernRepository
}

// SurveyStore hands out the survey repositories, optionally bound to one
// transaction.
type SurveyStore interface {
	Surveys() SurveyRepositories
	// SurveyTransaction commits when fn returns nil and rolls back otherwise.
	SurveyTransaction(ctx context.Context, fn func(ctx context.Context, repos SurveyRepositories) error) error
}
