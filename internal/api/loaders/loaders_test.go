package loaders_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/patientsurvey/internal/adapters/database"
	"github.com/zatekoja/patientsurvey/internal/api/loaders"
	"github.com/zatekoja/patientsurvey/internal/domain/entities"
	apperrors "github.com/zatekoja/patientsurvey/pkg/errors"
)

var fixedTime = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func setup(t *testing.T) (context.Context, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := sqlx.NewDb(mockDB, "postgres")
	t.Cleanup(func() { db.Close() })

	store := database.NewStoreFromDB(db)
	ctx := loaders.WithLoaders(context.Background(), loaders.NewLoaders(store.Locations, store.ServicePoints))
	return ctx, mock
}

func TestAttachSubmissionLocations_BatchesLookups(t *testing.T) {
	ctx, mock := setup(t)

	mock.ExpectQuery(`SELECT .* FROM "locations" WHERE \("id" IN \(\$1, \$2\)\)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "location_type", "created_at", "updated_at"}).
			AddRow(3, "Emergency", "department", fixedTime, fixedTime).
			AddRow(5, "Pharmacy", "department", fixedTime, fixedTime))

	s := &entities.SurveySubmission{
		ID:        "s1",
		Locations: []*entities.SubmissionLocation{{LocationID: 3, IsPrimary: true}, {LocationID: 5}},
		Ratings:   []*entities.Rating{{LocationID: 3}},
		DepartmentConcerns: []*entities.DepartmentConcern{
			{LocationID: 5, Concern: "Long queue"},
		},
	}

	require.NoError(t, loaders.AttachSubmissionLocations(ctx, s))
	assert.Equal(t, "Emergency", s.Locations[0].Location.Name)
	assert.Equal(t, "Pharmacy", s.Locations[1].Location.Name)
	assert.Equal(t, "Emergency", s.Ratings[0].Location.Name)
	assert.Equal(t, "Pharmacy", s.DepartmentConcerns[0].Location.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachServicePoints_MissingParent(t *testing.T) {
	ctx, mock := setup(t)

	mock.ExpectQuery(`SELECT .* FROM "service_points" WHERE \("id" IN \(\$1\)\)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "is_active"}))

	err := loaders.AttachServicePoints(ctx, []*entities.ServicePointFeedback{{ID: 1, ServicePointID: 9, Rating: 4}})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttach_NoLoadersIsNoop(t *testing.T) {
	s := &entities.SurveySubmission{Locations: []*entities.SubmissionLocation{{LocationID: 1}}}

	assert.NoError(t, loaders.AttachSubmissionLocations(context.Background(), s))
	assert.Nil(t, s.Locations[0].Location)
	assert.Nil(t, loaders.For(context.Background()))
}
