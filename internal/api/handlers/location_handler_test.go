package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/patientsurvey/internal/api/handlers"
	apperrors "github.com/zatekoja/patientsurvey/pkg/errors"
)

func TestLocationHandler_SearchLocations(t *testing.T) {
	service := &stubLocationService{}
	handler := handlers.NewLocationHandler(service)

	req := httptest.NewRequest("GET", "/api/locations/search?q=+pharm+", nil)
	w := httptest.NewRecorder()
	handler.SearchLocations(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pharm", service.searchText)
	assert.Equal(t, 20, service.searchLimit)

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.EqualValues(t, 1, resp["count"])
}

func TestLocationHandler_SearchLocations_Limit(t *testing.T) {
	service := &stubLocationService{}
	handler := handlers.NewLocationHandler(service)

	req := httptest.NewRequest("GET", "/api/locations/search?q=lab&limit=5", nil)
	w := httptest.NewRecorder()
	handler.SearchLocations(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, service.searchLimit)

	req = httptest.NewRequest("GET", "/api/locations/search?q=lab&limit=x", nil)
	w = httptest.NewRecorder()
	handler.SearchLocations(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLocationHandler_ListLocations_ByType(t *testing.T) {
	service := &stubLocationService{}
	handler := handlers.NewLocationHandler(service)

	req := httptest.NewRequest("GET", "/api/locations?type=ward", nil)
	w := httptest.NewRecorder()
	handler.ListLocations(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ward", service.listType)
}

func TestLocationHandler_CreateLocation(t *testing.T) {
	handler := handlers.NewLocationHandler(&stubLocationService{})

	req := httptest.NewRequest("POST", "/api/locations", strings.NewReader(`{"name":"Radiology","locationType":"department"}`))
	w := httptest.NewRecorder()
	handler.CreateLocation(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Radiology", resp["name"])
}

func TestLocationHandler_CreateLocation_Duplicate(t *testing.T) {
	err := apperrors.NewConstraintError("Location already exists", "locations_name_key", nil)
	handler := handlers.NewLocationHandler(&stubLocationService{err: err})

	req := httptest.NewRequest("POST", "/api/locations", strings.NewReader(`{"name":"Radiology","locationType":"department"}`))
	w := httptest.NewRecorder()
	handler.CreateLocation(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "locations_name_key")
}

func TestLocationHandler_DeleteLocation(t *testing.T) {
	handler := handlers.NewLocationHandler(&stubLocationService{})

	req := httptest.NewRequest("DELETE", "/api/locations/3", nil)
	req.SetPathValue("id", "3")
	w := httptest.NewRecorder()
	handler.DeleteLocation(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	req = httptest.NewRequest("DELETE", "/api/locations/0", nil)
	req.SetPathValue("id", "0")
	w = httptest.NewRecorder()
	handler.DeleteLocation(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
