package database

import (
	"context"

	"github.com/zatekoja/patientsurvey/internal/domain/repositories"
)

var _ repositories.SurveyStore = (*Store)(nil)

// Surveys returns the survey repositories of this store.
func (s *Store) Surveys() repositories.SurveyRepositories {
	return repositories.SurveyRepositories{
		Submissions:         s.Submissions,
		SubmissionLocations: s.SubmissionLocations,
		Ratings:             s.Ratings,
		GeneralObservations: s.GeneralObservations,
		DepartmentConcerns:  s.DepartmentConcerns,
	}
}

// SurveyTransaction runs fn with survey repositories bound to one
// transaction, using the store's default transaction options.
func (s *Store) SurveyTransaction(ctx context.Context, fn func(ctx context.Context, repos repositories.SurveyRepositories) error) error {
	return s.Transaction(ctx, func(ctx context.Context, tx *Store) error {
		return fn(ctx, tx.Surveys())
	})
}
