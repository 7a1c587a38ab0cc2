package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/patientsurvey/internal/adapters/database"
	"github.com/zatekoja/patientsurvey/internal/domain/entities"
	"github.com/zatekoja/patientsurvey/internal/domain/providers"
)

var fixedTime = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func newMockStore(t *testing.T) (*database.Store, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := sqlx.NewDb(mockDB, "postgres")
	t.Cleanup(func() { db.Close() })
	return database.NewStoreFromDB(db), mock
}

// MockEventBus is a testify mock of providers.EventBus
type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.SurveyEvent) error {
	args := m.Called(ctx, channel, event)
	return args.Error(0)
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.SurveyEvent, error) {
	args := m.Called(ctx, channel)
	ch, _ := args.Get(0).(chan *entities.SurveyEvent)
	return ch, args.Error(1)
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	return m.Called(ctx, channel).Error(0)
}

func (m *MockEventBus) Close() error {
	return m.Called().Error(0)
}

// MockSearchIndex is a testify mock of providers.SearchIndex
type MockSearchIndex struct {
	mock.Mock
}

func (m *MockSearchIndex) EnsureCollection(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockSearchIndex) IndexLocations(ctx context.Context, locations ...*entities.Location) error {
	return m.Called(ctx, locations).Error(0)
}

func (m *MockSearchIndex) IndexServicePoints(ctx context.Context, points ...*entities.ServicePoint) error {
	return m.Called(ctx, points).Error(0)
}

func (m *MockSearchIndex) RemoveLocation(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSearchIndex) Search(ctx context.Context, q providers.SearchQuery) ([]providers.SearchDocument, error) {
	args := m.Called(ctx, q)
	docs, _ := args.Get(0).([]providers.SearchDocument)
	return docs, args.Error(1)
}

func eventOfType(eventType entities.SurveyEventType) interface{} {
	return mock.MatchedBy(func(e *entities.SurveyEvent) bool { return e.EventType == eventType })
}

func locationRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "location_type", "created_at", "updated_at"})
}

func servicePointRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "is_active", "show_recommend_question", "show_comments_box", "created_at", "updated_at"})
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
