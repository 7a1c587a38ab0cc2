package database

import (
	"github.com/google/uuid"

	"github.com/zatekoja/patientsurvey/internal/domain/entities"
	"github.com/zatekoja/patientsurvey/internal/domain/query"
)

var (
	submissionModel = query.NewModel[entities.SurveySubmission](query.ModelOptions{
		Name:      "SurveySubmission",
		Table:     "survey_submissions",
		ID:        "id",
		CreatedAt: "createdAt",
		UpdatedAt: "updatedAt",
		Relations: []string{"locations", "ratings", "departmentConcerns", "generalObservation"},
	})

	locationModel = query.NewModel[entities.Location](query.ModelOptions{
		Name:      "Location",
		Table:     "locations",
		ID:        "id",
		Generated: true,
		CreatedAt: "createdAt",
		UpdatedAt: "updatedAt",
		Unique:    []string{"name"},
		Relations: []string{"submissionLocations", "ratings", "departmentConcerns"},
	})

	submissionLocationModel = query.NewModel[entities.SubmissionLocation](query.ModelOptions{
		Name:      "SubmissionLocation",
		Table:     "submission_locations",
		ID:        "id",
		Generated: true,
		CreatedAt: "createdAt",
		Relations: []string{"submission", "location"},
	})

	ratingModel = query.NewModel[entities.Rating](query.ModelOptions{
		Name:      "Rating",
		Table:     "ratings",
		ID:        "id",
		Generated: true,
		CreatedAt: "createdAt",
		Relations: []string{"submission", "location"},
	})

	generalObservationModel = query.NewModel[entities.GeneralObservation](query.ModelOptions{
		Name:      "GeneralObservation",
		Table:     "general_observations",
		ID:        "id",
		Generated: true,
		CreatedAt: "createdAt",
		Unique:    []string{"submissionId"},
		Relations: []string{"submission"},
	})

	departmentConcernModel = query.NewModel[entities.DepartmentConcern](query.ModelOptions{
		Name:      "DepartmentConcern",
		Table:     "department_concerns",
		ID:        "id",
		Generated: true,
		CreatedAt: "createdAt",
		Relations: []string{"submission", "location"},
	})

	servicePointModel = query.NewModel[entities.ServicePoint](query.ModelOptions{
		Name:      "ServicePoint",
		Table:     "service_points",
		ID:        "id",
		Generated: true,
		CreatedAt: "created_at",
		UpdatedAt: "updated_at",
		Relations: []string{"feedback"},
	})

	servicePointFeedbackModel = query.NewModel[entities.ServicePointFeedback](query.ModelOptions{
		Name:      "ServicePointFeedback",
		Table:     "service_point_feedback",
		ID:        "id",
		Generated: true,
		CreatedAt: "created_at",
		UpdatedAt: "updated_at",
		Relations: []string{"service_point"},
	})
)

func newSubmissionID() interface{} {
	return uuid.New().String()
}

// tables holds one table per model bound to the same session, so relation
// loaders always run on the caller's connection or transaction.
type tables struct {
	submissions          *table[entities.SurveySubmission]
	locations            *table[entities.Location]
	submissionLocations  *table[entities.SubmissionLocation]
	ratings              *table[entities.Rating]
	generalObservations  *table[entities.GeneralObservation]
	departmentConcerns   *table[entities.DepartmentConcern]
	servicePoints        *table[entities.ServicePoint]
	servicePointFeedback *table[entities.ServicePointFeedback]
}

func newTables(s *session) *tables {
	t := &tables{
		submissions:          newTable[entities.SurveySubmission](s, submissionModel),
		locations:            newTable[entities.Location](s, locationModel),
		submissionLocations:  newTable[entities.SubmissionLocation](s, submissionLocationModel),
		ratings:              newTable[entities.Rating](s, ratingModel),
		generalObservations:  newTable[entities.GeneralObservation](s, generalObservationModel),
		departmentConcerns:   newTable[entities.DepartmentConcern](s, departmentConcernModel),
		servicePoints:        newTable[entities.ServicePoint](s, servicePointModel),
		servicePointFeedback: newTable[entities.ServicePointFeedback](s, servicePointFeedbackModel),
	}
	t.submissions.newID = newSubmissionID

	t.wireSubmissionRelations()
	t.wireLocationRelations()
	t.wireSubmissionLocationRelations()
	t.wireRatingRelations()
	t.wireGeneralObservationRelations()
	t.wireDepartmentConcernRelations()
	t.wireServicePointRelations()
	t.wireServicePointFeedbackRelations()
	return t
}
