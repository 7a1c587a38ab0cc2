package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/zatekoja/patientsurvey/pkg/errors"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperrors.ErrorType
	}{
		{"unique violation", &pq.Error{Code: "23505", Constraint: "locations_name_key"}, apperrors.ErrorTypeConflict},
		{"foreign key violation", &pq.Error{Code: "23503"}, apperrors.ErrorTypeConflict},
		{"not null violation", &pq.Error{Code: "23502"}, apperrors.ErrorTypeValidation},
		{"check violation", &pq.Error{Code: "23514"}, apperrors.ErrorTypeValidation},
		{"invalid text representation", &pq.Error{Code: "22P02"}, apperrors.ErrorTypeValidation},
		{"serialization failure", &pq.Error{Code: "40001"}, apperrors.ErrorTypeConflict},
		{"query cancelled", &pq.Error{Code: "57014"}, apperrors.ErrorTypeTimeout},
		{"connection failure", &pq.Error{Code: "08006"}, apperrors.ErrorTypeUnavailable},
		{"admin shutdown", &pq.Error{Code: "57P01"}, apperrors.ErrorTypeUnavailable},
		{"syntax error", &pq.Error{Code: "42601"}, apperrors.ErrorTypeInternal},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), apperrors.ErrorTypeTimeout},
		{"bad connection", driver.ErrBadConn, apperrors.ErrorTypeUnavailable},
		{"connection done", sql.ErrConnDone, apperrors.ErrorTypeUnavailable},
		{"unknown", errors.New("boom"), apperrors.ErrorTypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError("locations", "create", tt.err)
			assert.Equal(t, tt.want, apperrors.TypeOf(got))
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestTranslateError_PassesAppErrorsThrough(t *testing.T) {
	orig := apperrors.NewNotFoundError("Location not found")
	assert.Same(t, orig, translateError("locations", "update", orig))
	assert.Nil(t, translateError("locations", "update", nil))
}

func TestTranslateError_KeepsConstraintName(t *testing.T) {
	err := translateError("general_observations", "create",
		&pq.Error{Code: "23505", Constraint: "general_observations_submission_id_key"})

	var appErr *apperrors.AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, "general_observations_submission_id_key", appErr.Constraint)
}
