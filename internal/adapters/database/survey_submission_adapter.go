package database

import (
	"context"

	"github.com/zatekoja/patientsurvey/internal/domain/entities"
	"github.com/zatekoja/patientsurvey/internal/domain/query"
)

func (t *tables) wireSubmissionRelations() {
	submissionKey := func(s *entities.SurveySubmission) string { return s.ID }

	t.submissions.relations["locations"] = func(ctx context.Context, parents []*entities.SurveySubmission) error {
		return loadMany(ctx, t.submissionLocations, parents, submissionKey, "submissionId",
			func(c *entities.SubmissionLocation) string { return c.SubmissionID },
			func(p *entities.SurveySubmission, c []*entities.SubmissionLocation) { p.Locations = c })
	}
	t.submissions.relations["ratings"] = func(ctx context.Context, parents []*entities.SurveySubmission) error {
		return loadMany(ctx, t.ratings, parents, submissionKey, "submissionId",
			func(c *entities.Rating) string { return c.SubmissionID },
			func(p *entities.SurveySubmission, c []*entities.Rating) { p.Ratings = c })
	}
	t.submissions.relations["departmentConcerns"] = func(ctx context.Context, parents []*entities.SurveySubmission) error {
		return loadMany(ctx, t.departmentConcerns, parents, submissionKey, "submissionId",
			func(c *entities.DepartmentConcern) string { return c.SubmissionID },
			func(p *entities.SurveySubmission, c []*entities.DepartmentConcern) { p.DepartmentConcerns = c })
	}
	t.submissions.relations["generalObservation"] = func(ctx context.Context, parents []*entities.SurveySubmission) error {
		return loadOne(ctx, t.generalObservations, parents, submissionKey, "submissionId",
			func(c *entities.GeneralObservation) string { return c.SubmissionID },
			func(p *entities.SurveySubmission, c *entities.GeneralObservation) { p.GeneralObservation = c })
	}
}

// SurveySubmissionAdapter implements repositories.SurveySubmissionRepository.
type SurveySubmissionAdapter struct {
	*table[entities.SurveySubmission]
	t *tables
}

// Locations returns the locations visited in a submission.
func (a *SurveySubmissionAdapter) Locations(ctx context.Context, submissionID string, args query.FindArgs) ([]*entities.SubmissionLocation, error) {
	return a.t.submissionLocations.FindMany(ctx, scoped(args, "submissionId", submissionID))
}

// Ratings returns the ratings given in a submission.
func (a *SurveySubmissionAdapter) Ratings(ctx context.Context, submissionID string, args query.FindArgs) ([]*entities.Rating, error) {
	return a.t.ratings.FindMany(ctx, scoped(args, "submissionId", submissionID))
}

// DepartmentConcerns returns the concerns raised in a submission.
func (a *SurveySubmissionAdapter) DepartmentConcerns(ctx context.Context, submissionID string, args query.FindArgs) ([]*entities.DepartmentConcern, error) {
	return a.t.departmentConcerns.FindMany(ctx, scoped(args, "submissionId", submissionID))
}

// GeneralObservation returns the hospital-wide section of a submission, or nil.
func (a *SurveySubmissionAdapter) GeneralObservation(ctx context.Context, submissionID string) (*entities.GeneralObservation, error) {
	return a.t.generalObservations.FindUnique(ctx, query.Unique{"submissionId": submissionID})
}
