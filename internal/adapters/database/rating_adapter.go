package database

import (
	"context"

	"github.com/zatekoja/patientsurvey/internal/domain/entities"
)

func (t *tables) wireRatingRelations() {
	t.ratings.relations["submission"] = func(ctx context.Context, rows []*entities.Rating) error {
		return loadOne(ctx, t.submissions, rows,
			func(r *entities.Rating) string { return r.SubmissionID }, "id",
			func(p *entities.SurveySubmission) string { return p.ID },
			func(r *entities.Rating, p *entities.SurveySubmission) { r.Submission = p })
	}
	t.ratings.relations["location"] = func(ctx context.Context, rows []*entities.Rating) error {
		return loadOne(ctx, t.locations, rows,
			func(r *entities.Rating) int { return r.LocationID }, "id",
			func(p *entities.Location) int { return p.ID },
			func(r *entities.Rating, p *entities.Location) { r.Location = p })
	}
}

// RatingAdapter implements repositories.RatingRepository.
type RatingAdapter struct {
	*table[entities.Rating]
	t *tables
}

// Submission returns the submission the rating belongs to.
func (a *RatingAdapter) Submission(ctx context.Context, id int) (*entities.SurveySubmission, error) {
	return parentOf(ctx, a.table, id, a.t.submissions, func(r *entities.Rating) interface{} { return r.SubmissionID })
}

// Location returns the location the rating refers to.
func (a *RatingAdapter) Location(ctx context.Context, id int) (*entities.Location, error) {
	return parentOf(ctx, a.table, id, a.t.locations, func(r *entities.Rating) interface{} { return r.LocationID })
}
