package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/patientsurvey/internal/domain/query"
	apperrors "github.com/zatekoja/patientsurvey/pkg/errors"
)

func TestCount(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) AS "a0" FROM "ratings" WHERE \("location_id" = \$1\)`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"a0"}).AddRow(int64(7)))

	n, err := store.Ratings.Count(context.Background(), query.CountArgs{
		Where: query.Where("locationId", query.Eq(2)),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCount_PaginatedUsesSubquery(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) AS "a0" FROM \(SELECT .* FROM "ratings" ORDER BY "id" ASC LIMIT \$1\) AS "w"`).
		WillReturnRows(sqlmock.NewRows([]string{"a0"}).AddRow(int64(3)))

	n, err := store.Ratings.Count(context.Background(), query.CountArgs{Take: query.TakeN(3)})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountFields(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) AS "a0", COUNT\("overall"\) AS "a1" FROM "ratings"`).
		WillReturnRows(sqlmock.NewRows([]string{"a0", "a1"}).AddRow(int64(10), int64(6)))

	counts, err := store.Ratings.CountFields(context.Background(), query.CountArgs{
		Select: query.FieldSet{query.AllRows, "overall"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{query.AllRows: 10, "overall": 6}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAggregate(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) AS "a0", CAST\(AVG\("rating"\) AS DOUBLE PRECISION\) AS "a1", MIN\("rating"\) AS "a2", MAX\("rating"\) AS "a3" FROM "service_point_feedback" WHERE \("service_point_id" = \$1\)`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"a0", "a1", "a2", "a3"}).
			AddRow(int64(5), 3.4, int64(1), int64(5)))

	res, err := store.ServicePointFeedback.Aggregate(context.Background(), query.AggregateArgs{
		Where: query.Where("service_point_id", query.Eq(4)),
		Aggregates: query.Aggregates{
			Count: query.FieldSet{query.AllRows},
			Avg:   query.FieldSet{"rating"},
			Min:   query.FieldSet{"rating"},
			Max:   query.FieldSet{"rating"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.Count[query.AllRows])
	require.NotNil(t, res.Avg["rating"])
	assert.InDelta(t, 3.4, *res.Avg["rating"], 0.0001)
	assert.Equal(t, int64(1), res.Min["rating"])
	assert.Equal(t, int64(5), res.Max["rating"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAggregate_RejectsAvgOnText(t *testing.T) {
	store, mock := setupMockStore(t)

	_, err := store.Ratings.Aggregate(context.Background(), query.AggregateArgs{
		Aggregates: query.Aggregates{Avg: query.FieldSet{"overall"}},
	})
	assert.True(t, apperrors.IsValidation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupBy(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery(`SELECT "location_id" AS "g0", "overall" AS "g1", COUNT\(\*\) AS "a0" FROM "ratings" GROUP BY "location_id", "overall" HAVING \(COUNT\(\*\) >= \$1\) ORDER BY "location_id" ASC`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"g0", "g1", "a0"}).
			AddRow(int64(1), "Good", int64(3)).
			AddRow(int64(1), nil, int64(2)))

	rows, err := store.Ratings.GroupBy(context.Background(), query.GroupByArgs{
		By: query.FieldSet{"locationId", "overall"},
		Having: query.Having{Aggregates: []query.AggregateCondition{
			{Func: query.AggCount, Field: query.AllRows, Condition: query.Gte(2)},
		}},
		OrderBy:    query.OrderBy{query.Asc("locationId")},
		Aggregates: query.Aggregates{Count: query.FieldSet{query.AllRows}},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].Keys["locationId"])
	assert.Equal(t, "Good", rows[0].Keys["overall"])
	assert.Equal(t, int64(3), rows[0].Count[query.AllRows])
	assert.Nil(t, rows[1].Keys["overall"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupBy_OrderByOutsideByIsRejected(t *testing.T) {
	store, mock := setupMockStore(t)

	_, err := store.Ratings.GroupBy(context.Background(), query.GroupByArgs{
		By:      query.FieldSet{"locationId"},
		OrderBy: query.OrderBy{query.Asc("submissionId")},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupBy_HavingOutsideByIsRejected(t *testing.T) {
	store, mock := setupMockStore(t)

	_, err := store.Ratings.GroupBy(context.Background(), query.GroupByArgs{
		By:     query.FieldSet{"locationId"},
		Having: query.Having{Fields: map[string]query.Condition{"overall": query.Eq("Good")}},
	})
	assert.True(t, apperrors.IsValidation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupBy_NegativeTakeReverses(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery(`GROUP BY "location_id" ORDER BY "location_id" DESC LIMIT \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"g0", "a0"}).
			AddRow(int64(9), int64(1)).
			AddRow(int64(8), int64(4)))

	rows, err := store.Ratings.GroupBy(context.Background(), query.GroupByArgs{
		By:         query.FieldSet{"locationId"},
		OrderBy:    query.OrderBy{query.Asc("locationId")},
		Take:       query.TakeN(-2),
		Aggregates: query.Aggregates{Count: query.FieldSet{query.AllRows}},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(8), rows[0].Keys["locationId"])
	assert.Equal(t, int64(9), rows[1].Keys["locationId"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
