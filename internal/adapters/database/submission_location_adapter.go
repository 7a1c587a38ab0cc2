package database

import (
	"context"

	"github.com/zatekoja/patientsurvey/internal/domain/entities"
)

func (t *tables) wireSubmissionLocationRelations() {
	t.submissionLocations.relations["submission"] = func(ctx context.Context, rows []*entities.SubmissionLocation) error {
		return loadOne(ctx, t.submissions, rows,
			func(r *entities.SubmissionLocation) string { return r.SubmissionID }, "id",
			func(p *entities.SurveySubmission) string { return p.ID },
			func(r *entities.SubmissionLocation, p *entities.SurveySubmission) { r.Submission = p })
	}
	t.submissionLocations.relations["location"] = func(ctx context.Context, rows []*entities.SubmissionLocation) error {
		return loadOne(ctx, t.locations, rows,
			func(r *entities.SubmissionLocation) int { return r.LocationID }, "id",
			func(p *entities.Location) int { return p.ID },
			func(r *entities.SubmissionLocation, p *entities.Location) { r.Location = p })
	}
}

// SubmissionLocationAdapter implements repositories.SubmissionLocationRepository.
type SubmissionLocationAdapter struct {
	*table[entities.SubmissionLocation]
	t *tables
}

// Submission returns the submission the visited location belongs to.
func (a *SubmissionLocationAdapter) Submission(ctx context.Context, id int) (*entities.SurveySubmission, error) {
	return parentOf(ctx, a.table, id, a.t.submissions, func(r *entities.SubmissionLocation) interface{} { return r.SubmissionID })
}

// Location returns the location the visited location refers to.
func (a *SubmissionLocationAdapter) Location(ctx context.Context, id int) (*entities.Location, error) {
	return parentOf(ctx, a.table, id, a.t.locations, func(r *entities.SubmissionLocation) interface{} { return r.LocationID })
}
