package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/patientsurvey/internal/application/services"
	"github.com/zatekoja/patientsurvey/internal/domain/entities"
	"github.com/zatekoja/patientsurvey/internal/domain/providers"
	apperrors "github.com/zatekoja/patientsurvey/pkg/errors"
)

func TestLocationService_Create_IndexesAndPublishes(t *testing.T) {
	store, sqlMock := newMockStore(t)
	index := new(MockSearchIndex)
	bus := new(MockEventBus)
	svc := services.NewLocationService(store.Locations, index, bus)

	sqlMock.ExpectQuery(`INSERT INTO "locations"`).
		WillReturnRows(locationRows().AddRow(5, "Maternity", "ward", fixedTime, fixedTime))
	index.On("IndexLocations", mock.Anything, mock.MatchedBy(func(ls []*entities.Location) bool {
		return len(ls) == 1 && ls[0].ID == 5 && ls[0].LocationType == "ward"
	})).Return(nil)
	bus.On("Publish", mock.Anything, providers.EventChannelLocations, eventOfType(entities.SurveyEventLocationChanged)).Return(nil)

	location, err := svc.Create(context.Background(), &services.LocationInput{Name: "Maternity", LocationType: "ward"})
	require.NoError(t, err)
	assert.Equal(t, 5, location.ID)
	index.AssertExpectations(t)
	bus.AssertExpectations(t)
}

func TestLocationService_Create_DuplicateName(t *testing.T) {
	store, sqlMock := newMockStore(t)
	svc := services.NewLocationService(store.Locations, nil, nil)

	sqlMock.ExpectQuery(`INSERT INTO "locations"`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "locations_name_key"})

	_, err := svc.Create(context.Background(), &services.LocationInput{Name: "Maternity", LocationType: "ward"})
	assert.True(t, apperrors.IsConflict(err))
}

func TestLocationService_Create_Validation(t *testing.T) {
	store, sqlMock := newMockStore(t)
	svc := services.NewLocationService(store.Locations, nil, nil)

	_, err := svc.Create(context.Background(), &services.LocationInput{Name: "Maternity"})
	assert.True(t, apperrors.IsValidation(err))
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestLocationService_Search_UsesIndexOrder(t *testing.T) {
	store, sqlMock := newMockStore(t)
	index := new(MockSearchIndex)
	svc := services.NewLocationService(store.Locations, index, nil)

	index.On("Search", mock.Anything, providers.SearchQuery{Text: "lab", Kind: providers.SearchKindLocation, Limit: 10}).
		Return([]providers.SearchDocument{{EntityID: 8}, {EntityID: 3}}, nil)
	sqlMock.ExpectQuery(`SELECT .* FROM "locations" WHERE \("id" IN \(\$1, \$2\)\)`).
		WillReturnRows(locationRows().
			AddRow(3, "Lab annex", "department", fixedTime, fixedTime).
			AddRow(8, "Lab", "department", fixedTime, fixedTime))

	found, err := svc.Search(context.Background(), "lab", 10)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, 8, found[0].ID)
	assert.Equal(t, 3, found[1].ID)
}

func TestLocationService_Search_FallsBackToDatabase(t *testing.T) {
	store, sqlMock := newMockStore(t)
	index := new(MockSearchIndex)
	svc := services.NewLocationService(store.Locations, index, nil)

	index.On("Search", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))
	sqlMock.ExpectQuery(`SELECT .* FROM "locations" WHERE \("name" ILIKE \$1\) ORDER BY "name" ASC, "id" ASC LIMIT \$2`).
		WithArgs("%lab%", int64(50)).
		WillReturnRows(locationRows().AddRow(8, "Lab", "department", fixedTime, fixedTime))

	found, err := svc.Search(context.Background(), "lab", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestLocationService_Delete_RestrictedWhenRated(t *testing.T) {
	store, sqlMock := newMockStore(t)
	index := new(MockSearchIndex)
	svc := services.NewLocationService(store.Locations, index, nil)

	sqlMock.ExpectQuery(`DELETE FROM "locations"`).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "ratings_location_id_fkey"})

	err := svc.Delete(context.Background(), 4)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	index.AssertNotCalled(t, "RemoveLocation", mock.Anything, mock.Anything)
}

func TestLocationService_Delete_RemovesFromIndex(t *testing.T) {
	store, sqlMock := newMockStore(t)
	index := new(MockSearchIndex)
	bus := new(MockEventBus)
	svc := services.NewLocationService(store.Locations, index, bus)

	sqlMock.ExpectQuery(`DELETE FROM "locations" WHERE \("id" = \$1\) RETURNING`).
		WillReturnRows(locationRows().AddRow(4, "Radiology", "department", fixedTime, fixedTime))
	index.On("RemoveLocation", mock.Anything, 4).Return(nil)
	bus.On("Publish", mock.Anything, providers.EventChannelLocations, eventOfType(entities.SurveyEventLocationChanged)).Return(nil)

	require.NoError(t, svc.Delete(context.Background(), 4))
	index.AssertExpectations(t)
	bus.AssertExpectations(t)
}

func TestLocationService_Reindex(t *testing.T) {
	store, sqlMock := newMockStore(t)
	index := new(MockSearchIndex)
	svc := services.NewLocationService(store.Locations, index, nil)

	sqlMock.ExpectQuery(`SELECT .* FROM "locations" ORDER BY "id" ASC`).
		WillReturnRows(locationRows().
			AddRow(1, "Lab", "department", fixedTime, fixedTime).
			AddRow(2, "Pharmacy", "department", fixedTime, fixedTime))
	index.On("IndexLocations", mock.Anything, mock.MatchedBy(func(ls []*entities.Location) bool { return len(ls) == 2 })).Return(nil)

	n, err := svc.Reindex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
