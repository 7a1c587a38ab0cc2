package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	db := sqlx.NewDb(mockDB, "postgres")
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func setupMockStore(t *testing.T, opts ...StoreOption) (*Store, sqlmock.Sqlmock) {
	db, mock := setupMockDB(t)
	return NewStoreFromDB(db, opts...), mock
}

var fixedTime = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func locationRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "location_type", "created_at", "updated_at"})
}

func ratingRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "submission_id", "location_id", "overall", "created_at"})
}
