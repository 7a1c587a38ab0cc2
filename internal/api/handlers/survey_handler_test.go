package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/patientsurvey/internal/api/handlers"
	"github.com/zatekoja/patientsurvey/internal/domain/entities"
	"github.com/zatekoja/patientsurvey/internal/domain/query"
	apperrors "github.com/zatekoja/patientsurvey/pkg/errors"
)

func TestSurveyHandler_SubmitSurvey(t *testing.T) {
	service := &stubSurveyService{}
	handler := handlers.NewSurveyHandler(service)

	body := `{"visitTime":"morning","visitPurpose":"consultation","userType":"patient","patientType":"outpatient",
		"locations":[{"locationId":1,"isPrimary":true}],"ratings":[{"locationId":1,"overall":"Good"}]}`
	req := httptest.NewRequest("POST", "/api/surveys", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.SubmitSurvey(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, service.submitted, 1)
	assert.Equal(t, "outpatient", service.submitted[0].PatientType)
	require.Len(t, service.submitted[0].Locations, 1)
	assert.Len(t, service.submitted[0].Ratings, 1)
}

func TestSurveyHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		status     int
		code       string
		message    string
		constraint string
	}{
		{name: "validation", err: apperrors.NewValidationError("exactly one primary location is required"), status: http.StatusBadRequest, code: "VALIDATION", message: "exactly one primary location is required"},
		{name: "not found", err: apperrors.NewNotFoundError("SurveySubmission not found"), status: http.StatusNotFound, code: "NOT_FOUND"},
		{name: "conflict", err: apperrors.NewConstraintError("location is referenced", "ratings_location_id_fkey", nil), status: http.StatusConflict, code: "CONFLICT", constraint: "ratings_location_id_fkey"},
		{name: "timeout", err: apperrors.NewTimeoutError("transaction timed out", nil), status: http.StatusGatewayTimeout, code: "TIMEOUT"},
		{name: "unavailable", err: apperrors.NewUnavailableError("database unavailable", nil), status: http.StatusServiceUnavailable, code: "UNAVAILABLE"},
		{name: "internal", err: apperrors.NewInternalError("pq: relation missing", errors.New("boom")), status: http.StatusInternalServerError, code: "INTERNAL", message: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := handlers.NewSurveyHandler(&stubSurveyService{err: tt.err})

			req := httptest.NewRequest("GET", "/api/surveys/s-1", nil)
			req.SetPathValue("id", "s-1")
			w := httptest.NewRecorder()
			handler.GetSurvey(w, req)

			assert.Equal(t, tt.status, w.Code)
			var resp map[string]string
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.code, resp["code"])
			if tt.message != "" {
				assert.Equal(t, tt.message, resp["error"])
			}
			assert.Equal(t, tt.constraint, resp["constraint"])
		})
	}
}

func TestSurveyHandler_UnknownErrorIsMasked(t *testing.T) {
	handler := handlers.NewSurveyHandler(&stubSurveyService{err: errors.New("dial tcp: refused")})

	req := httptest.NewRequest("DELETE", "/api/surveys/s-1", nil)
	req.SetPathValue("id", "s-1")
	w := httptest.NewRecorder()
	handler.DeleteSurvey(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "dial tcp")
}

func TestSurveyHandler_ListSurveys(t *testing.T) {
	service := &stubSurveyService{rows: []*entities.SurveySubmission{{ID: "a"}, {ID: "b"}}}
	handler := handlers.NewSurveyHandler(service)

	req := httptest.NewRequest("GET", "/api/surveys?take=2&skip=1&patientType=inpatient&cursor=x", nil)
	w := httptest.NewRecorder()
	handler.ListSurveys(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, service.listArgs, 1)
	args := service.listArgs[0]
	require.NotNil(t, args.Take)
	assert.Equal(t, 2, *args.Take)
	assert.Equal(t, 1, args.Skip)
	assert.Equal(t, query.ByID("x"), args.Cursor)
	assert.Contains(t, args.Where.Fields, "patientType")

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "b", resp["next_cursor"])
	assert.EqualValues(t, 2, resp["count"])
}

func TestSurveyHandler_ListSurveys_BadTake(t *testing.T) {
	service := &stubSurveyService{}
	handler := handlers.NewSurveyHandler(service)

	req := httptest.NewRequest("GET", "/api/surveys?take=ten", nil)
	w := httptest.NewRecorder()
	handler.ListSurveys(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, service.listArgs)
}

func TestSurveyHandler_GroupRatings(t *testing.T) {
	service := &stubSurveyService{groups: []query.GroupRow{{Keys: map[string]interface{}{"overall": "Good"}}}}
	handler := handlers.NewSurveyHandler(service)

	body := `{"by":["overall"],"_count":{"_all":true},"orderBy":[{"overall":"asc"}]}`
	req := httptest.NewRequest("POST", "/api/reports/ratings/group", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.GroupRatings(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, service.groupArgs, 1)
	assert.Equal(t, query.FieldSet{"overall"}, service.groupArgs[0].By)

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.EqualValues(t, 1, resp["count"])
}
