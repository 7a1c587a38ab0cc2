package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/zatekoja/patientsurvey/internal/application/services"
	"github.com/zatekoja/patientsurvey/internal/domain/entities"
	"github.com/zatekoja/patientsurvey/internal/domain/query"
)

const defaultSearchLimit = 20

// LocationService defines the location operations used by the handler.
type LocationService interface {
	Create(ctx context.Context, in *services.LocationInput) (*entities.Location, error)
	Update(ctx context.Context, id int, in *services.LocationInput) (*entities.Location, error)
	Delete(ctx context.Context, id int) error
	Get(ctx context.Context, id int) (*entities.Location, error)
	List(ctx context.Context, locationType string) ([]*entities.Location, error)
	Ratings(ctx context.Context, id int, args query.FindArgs) ([]*entities.Rating, error)
	Search(ctx context.Context, text string, limit int) ([]*entities.Location, error)
}

// LocationHandler handles location-related HTTP requests
type LocationHandler struct {
	service LocationService
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(service LocationService) *LocationHandler {
	return &LocationHandler{service: service}
}

// ListLocations handles GET /api/locations?type=
func (h *LocationHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.service.List(r.Context(), strings.TrimSpace(r.URL.Query().Get("type")))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"locations": locations,
		"count":     len(locations),
	})
}

// SearchLocations handles GET /api/locations/search?q=&limit=
func (h *LocationHandler) SearchLocations(w http.ResponseWriter, r *http.Request) {
	limit := defaultSearchLimit
	l, err := queryInt(r, "limit")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if l != nil && *l > 0 {
		limit = *l
	}

	text := strings.TrimSpace(r.URL.Query().Get("q"))
	locations, err := h.service.Search(r.Context(), text, limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"query":     text,
		"locations": locations,
		"count":     len(locations),
	})
}

// GetLocation handles GET /api/locations/{id}
func (h *LocationHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	location, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, location)
}

// CreateLocation handles POST /api/locations
func (h *LocationHandler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var in services.LocationInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	location, err := h.service.Create(r.Context(), &in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, location)
}

// UpdateLocation handles PUT /api/locations/{id}
func (h *LocationHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	var in services.LocationInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	location, err := h.service.Update(r.Context(), id, &in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, location)
}

// DeleteLocation handles DELETE /api/locations/{id}. Locations still
// referenced by survey answers answer 409.
func (h *LocationHandler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LocationRatings handles GET /api/locations/{id}/ratings?take=&skip=
func (h *LocationHandler) LocationRatings(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	args := query.FindArgs{}
	take, err := queryInt(r, "take")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	args.Take = take
	if skip, err := queryInt(r, "skip"); err != nil {
		respondWithAppError(w, r, err)
		return
	} else if skip != nil {
		args.Skip = *skip
	}

	ratings, err := h.service.Ratings(r.Context(), id, args)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"location_id": id,
		"ratings":     ratings,
		"count":       len(ratings),
	})
}
