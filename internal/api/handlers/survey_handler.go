package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/patientsurvey/internal/api/loaders"
	"github.com/zatekoja/patientsurvey/internal/application/services"
	"github.com/zatekoja/patientsurvey/internal/domain/entities"
	"github.com/zatekoja/patientsurvey/internal/domain/query"
	apperrors "github.com/zatekoja/patientsurvey/pkg/errors"
)

// SurveyService defines the survey operations used by the handler.
type SurveyService interface {
	Submit(ctx context.Context, in *services.SubmitSurveyInput) (*entities.SurveySubmission, error)
	Get(ctx context.Context, id string) (*entities.SurveySubmission, error)
	List(ctx context.Context, args query.FindArgs) ([]*entities.SurveySubmission, error)
	Delete(ctx context.Context, id string) error
	RatingSummary(ctx context.Context, locationID int) ([]query.GroupRow, error)
	GroupRatings(ctx context.Context, args query.GroupByArgs) ([]query.GroupRow, error)
}

// SurveyHandler handles survey intake and retrieval
type SurveyHandler struct {
	service SurveyService
}

// NewSurveyHandler creates a new survey handler
func NewSurveyHandler(service SurveyService) *SurveyHandler {
	return &SurveyHandler{service: service}
}

// SubmitSurvey handles POST /api/surveys
func (h *SurveyHandler) SubmitSurvey(w http.ResponseWriter, r *http.Request) {
	var in services.SubmitSurveyInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	submission, err := h.service.Submit(r.Context(), &in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, submission)
}

// GetSurvey handles GET /api/surveys/{id}
func (h *SurveyHandler) GetSurvey(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "survey ID is required")
		return
	}

	submission, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if err := loaders.AttachSubmissionLocations(r.Context(), submission); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, submission)
}

// ListSurveys handles GET /api/surveys?take=&skip=&cursor=&patientType=&userType=
func (h *SurveyHandler) ListSurveys(w http.ResponseWriter, r *http.Request) {
	args := query.FindArgs{}
	take, err := queryInt(r, "take")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	args.Take = take

	skip, err := queryInt(r, "skip")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if skip != nil {
		args.Skip = *skip
	}

	params := r.URL.Query()
	if cursor := params.Get("cursor"); cursor != "" {
		args.Cursor = query.ByID(cursor)
	}
	for _, field := range []string{"patientType", "userType", "visitPurpose"} {
		if v := params.Get(field); v != "" {
			args.Where = args.Where.With(field, query.Eq(v))
		}
	}

	h.list(w, r, args)
}

// QuerySurveys handles POST /api/surveys/query with a FindArgs body
func (h *SurveyHandler) QuerySurveys(w http.ResponseWriter, r *http.Request) {
	var args query.FindArgs
	if err := decodeJSON(w, r, &args); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	h.list(w, r, args)
}

func (h *SurveyHandler) list(w http.ResponseWriter, r *http.Request, args query.FindArgs) {
	submissions, err := h.service.List(r.Context(), args)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	resp := map[string]interface{}{
		"surveys": submissions,
		"count":   len(submissions),
	}
	if n := len(submissions); n > 0 {
		resp["next_cursor"] = submissions[n-1].ID
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// DeleteSurvey handles DELETE /api/surveys/{id}
func (h *SurveyHandler) DeleteSurvey(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "survey ID is required")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GroupRatings handles POST /api/reports/ratings/group with a GroupByArgs body
func (h *SurveyHandler) GroupRatings(w http.ResponseWriter, r *http.Request) {
	var args query.GroupByArgs
	if err := decodeJSON(w, r, &args); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	groups, err := h.service.GroupRatings(r.Context(), args)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"groups": groups,
		"count":  len(groups),
	})
}

// RatingSummary handles GET /api/reports/ratings/summary?locationId=
func (h *SurveyHandler) RatingSummary(w http.ResponseWriter, r *http.Request) {
	locationID, err := queryInt(r, "locationId")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	id := 0
	if locationID != nil {
		if *locationID <= 0 {
			respondWithAppError(w, r, apperrors.NewValidationError("invalid locationId parameter"))
			return
		}
		id = *locationID
	}

	groups, err := h.service.RatingSummary(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"groups": groups,
		"count":  len(groups),
	})
}
