package database

import (
	"context"

	"github.com/zatekoja/patientsurvey/internal/domain/entities"
)

func (t *tables) wireGeneralObservationRelations() {
	t.generalObservations.relations["submission"] = func(ctx context.Context, rows []*entities.GeneralObservation) error {
		return loadOne(ctx, t.submissions, rows,
			func(r *entities.GeneralObservation) string { return r.SubmissionID }, "id",
			func(p *entities.SurveySubmission) string { return p.ID },
			func(r *entities.GeneralObservation, p *entities.SurveySubmission) { r.Submission = p })
	}
}

// GeneralObservationAdapter implements repositories.GeneralObservationRepository.
type GeneralObservationAdapter struct {
	*table[entities.GeneralObservation]
	t *tables
}

// Submission returns the submission the observation belongs to.
func (a *GeneralObservationAdapter) Submission(ctx context.Context, id int) (*entities.SurveySubmission, error) {
	return parentOf(ctx, a.table, id, a.t.submissions, func(r *entities.GeneralObservation) interface{} { return r.SubmissionID })
}
