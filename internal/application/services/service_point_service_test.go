package services_test

import (
	"context"
	"database/sql/driver"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/patientsurvey/internal/application/services"
	"github.com/zatekoja/patientsurvey/internal/domain/entities"
	"github.com/zatekoja/patientsurvey/internal/domain/providers"
	apperrors "github.com/zatekoja/patientsurvey/pkg/errors"
)

func newServicePointService(t *testing.T, bus providers.EventBus) (*services.ServicePointService, sqlmock.Sqlmock) {
	store, sqlMock := newMockStore(t)
	return services.NewServicePointService(store.ServicePoints, store.ServicePointFeedback, nil, bus), sqlMock
}

func TestServicePointService_Create_DefaultsTogglesOn(t *testing.T) {
	svc, sqlMock := newServicePointService(t, nil)

	sqlMock.ExpectQuery(`INSERT INTO "service_points" \("created_at", "id", "is_active", "name", "show_comments_box", "show_recommend_question", "updated_at"\) VALUES \(\$1, DEFAULT, \$2, \$3, \$4, \$5, \$6\)`).
		WithArgs(sqlmock.AnyArg(), true, "Pharmacy window", true, false, sqlmock.AnyArg()).
		WillReturnRows(servicePointRows().AddRow(1, "Pharmacy window", true, false, true, fixedTime, fixedTime))

	sp, err := svc.Create(context.Background(), &services.CreateServicePointInput{
		Name:                  "  Pharmacy window ",
		ShowRecommendQuestion: boolPtr(false),
	})
	require.NoError(t, err)
	assert.True(t, sp.IsActive)
	assert.False(t, sp.ShowRecommendQuestion)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestServicePointService_Update_RequiresAField(t *testing.T) {
	svc, sqlMock := newServicePointService(t, nil)

	_, err := svc.Update(context.Background(), 1, &services.UpdateServicePointInput{})
	assert.True(t, apperrors.IsValidation(err))
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestServicePointService_SubmitFeedback(t *testing.T) {
	tests := []struct {
		name     string
		point    []driver.Value
		input    services.FeedbackInput
		wantErr  bool
		inserted bool
	}{
		{
			name:     "accepted",
			point:    []driver.Value{1, "Billing", true, true, true, fixedTime, fixedTime},
			input:    services.FeedbackInput{Rating: 4, Recommend: boolPtr(true), Comment: strPtr("quick")},
			inserted: true,
		},
		{
			name:    "inactive point",
			point:   []driver.Value{1, "Billing", false, true, true, fixedTime, fixedTime},
			input:   services.FeedbackInput{Rating: 4},
			wantErr: true,
		},
		{
			name:    "recommend not asked",
			point:   []driver.Value{1, "Billing", true, false, true, fixedTime, fixedTime},
			input:   services.FeedbackInput{Rating: 4, Recommend: boolPtr(false)},
			wantErr: true,
		},
		{
			name:    "comments disabled",
			point:   []driver.Value{1, "Billing", true, true, false, fixedTime, fixedTime},
			input:   services.FeedbackInput{Rating: 2, Comment: strPtr("slow")},
			wantErr: true,
		},
		{
			name:     "blank comment ignored when comments disabled",
			point:    []driver.Value{1, "Billing", true, true, false, fixedTime, fixedTime},
			input:    services.FeedbackInput{Rating: 2, Comment: strPtr("   ")},
			inserted: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := new(MockEventBus)
			svc, sqlMock := newServicePointService(t, bus)

			sqlMock.ExpectQuery(`SELECT .* FROM "service_points" WHERE \("id" = \$1\)`).
				WillReturnRows(servicePointRows().AddRow(tt.point...))
			if tt.inserted {
				sqlMock.ExpectQuery(`INSERT INTO "service_point_feedback"`).
					WillReturnRows(sqlmock.NewRows([]string{"id", "service_point_id", "rating"}).AddRow(11, 1, tt.input.Rating))
				bus.On("Publish", mock.Anything, providers.EventChannelServicePoints, eventOfType(entities.SurveyEventFeedbackReceived)).Return(nil)
			}

			fb, err := svc.SubmitFeedback(context.Background(), 1, &tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 11, fb.ID)
			assert.NoError(t, sqlMock.ExpectationsWereMet())
			bus.AssertExpectations(t)
		})
	}
}

func TestServicePointService_SubmitFeedback_RatingRange(t *testing.T) {
	svc, sqlMock := newServicePointService(t, nil)

	for _, rating := range []int{0, 6} {
		_, err := svc.SubmitFeedback(context.Background(), 1, &services.FeedbackInput{Rating: rating})
		assert.True(t, apperrors.IsValidation(err), "rating %d", rating)
	}
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestServicePointService_SubmitFeedback_UnknownPoint(t *testing.T) {
	svc, sqlMock := newServicePointService(t, nil)

	sqlMock.ExpectQuery(`SELECT .* FROM "service_points"`).WillReturnRows(servicePointRows())

	_, err := svc.SubmitFeedback(context.Background(), 99, &services.FeedbackInput{Rating: 3})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestServicePointService_Stats(t *testing.T) {
	svc, sqlMock := newServicePointService(t, nil)

	sqlMock.ExpectQuery(`SELECT .* FROM "service_points"`).
		WillReturnRows(servicePointRows().AddRow(1, "Billing", true, true, true, fixedTime, fixedTime))
	sqlMock.ExpectQuery(`SELECT COUNT\(\*\) AS "a0", CAST\(AVG\("rating"\) AS DOUBLE PRECISION\) AS "a1", MIN\("rating"\) AS "a2", MAX\("rating"\) AS "a3" FROM "service_point_feedback"`).
		WillReturnRows(sqlmock.NewRows([]string{"a0", "a1", "a2", "a3"}).AddRow(int64(3), 4.0, int64(3), int64(5)))
	sqlMock.ExpectQuery(`SELECT "rating" AS "g0", COUNT\(\*\) AS "a0" FROM "service_point_feedback" .*GROUP BY "rating"`).
		WillReturnRows(sqlmock.NewRows([]string{"g0", "a0"}).
			AddRow(int64(3), int64(1)).
			AddRow(int64(4), int64(1)).
			AddRow(int64(5), int64(1)))
	sqlMock.ExpectQuery(`SELECT "recommend" AS "g0", COUNT\(\*\) AS "a0" FROM "service_point_feedback" .*GROUP BY "recommend"`).
		WillReturnRows(sqlmock.NewRows([]string{"g0", "a0"}).
			AddRow(true, int64(2)).
			AddRow(nil, int64(1)))

	stats, err := svc.Stats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Count)
	require.NotNil(t, stats.AverageRating)
	assert.InDelta(t, 4.0, *stats.AverageRating, 0.001)
	assert.Equal(t, map[int64]int64{3: 1, 4: 1, 5: 1}, stats.Distribution)
	assert.Equal(t, services.RecommendCounts{Yes: 2, Unanswered: 1}, stats.Recommend)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}
