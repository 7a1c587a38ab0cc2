package database

import (
	"context"

	"github.com/zatekoja/patientsurvey/internal/domain/entities"
)

func (t *tables) wireDepartmentConcernRelations() {
	t.departmentConcerns.relations["submission"] = func(ctx context.Context, rows []*entities.DepartmentConcern) error {
		return loadOne(ctx, t.submissions, rows,
			func(r *entities.DepartmentConcern) string { return r.SubmissionID }, "id",
			func(p *entities.SurveySubmission) string { return p.ID },
			func(r *entities.DepartmentConcern, p *entities.SurveySubmission) { r.Submission = p })
	}
	t.departmentConcerns.relations["location"] = func(ctx context.Context, rows []*entities.DepartmentConcern) error {
		return loadOne(ctx, t.locations, rows,
			func(r *entities.DepartmentConcern) int { return r.LocationID }, "id",
			func(p *entities.Location) int { return p.ID },
			func(r *entities.DepartmentConcern, p *entities.Location) { r.Location = p })
	}
}

// DepartmentConcernAdapter implements repositories.DepartmentConcernRepository.
type DepartmentConcernAdapter struct {
	*table[entities.DepartmentConcern]
	t *tables
}

// Submission returns the submission the concern belongs to.
func (a *DepartmentConcernAdapter) Submission(ctx context.Context, id int) (*entities.SurveySubmission, error) {
	return parentOf(ctx, a.table, id, a.t.submissions, func(r *entities.DepartmentConcern) interface{} { return r.SubmissionID })
}

// Location returns the location the concern refers to.
func (a *DepartmentConcernAdapter) Location(ctx context.Context, id int) (*entities.Location, error) {
	return parentOf(ctx, a.table, id, a.t.locations, func(r *entities.DepartmentConcern) interface{} { return r.LocationID })
}
