package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/zatekoja/patientsurvey/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/patientsurvey/pkg/errors"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// statusFor maps an AppError type onto an HTTP status.
func statusFor(t apperrors.ErrorType) int {
	switch t {
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case apperrors.ErrorTypeConflict:
		return http.StatusConflict
	case apperrors.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrorTypeUnavailable, apperrors.ErrorTypeExternal:
		return http.StatusServiceUnavailable
	case apperrors.ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// respondWithAppError writes err with the status of its AppError type.
// Internal details are logged, never returned.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		observability.LoggerFromContext(r.Context()).Error().Err(err).
			Str("path", r.URL.Path).Msg("Unhandled error")
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	status := statusFor(appErr.Type)
	if status >= http.StatusInternalServerError {
		observability.LoggerFromContext(r.Context()).Error().Err(err).
			Str("path", r.URL.Path).Msg("Request failed")
	}

	body := map[string]string{
		"error": appErr.Message,
		"code":  string(appErr.Type),
	}
	switch appErr.Type {
	case apperrors.ErrorTypeInternal:
		body["error"] = "internal server error"
	case apperrors.ErrorTypeConflict:
		if appErr.Constraint != "" {
			body["constraint"] = appErr.Constraint
		}
	}
	respondWithJSON(w, status, body)
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		if errors.Is(err, io.EOF) {
			return apperrors.NewValidationError("request body is required")
		}
		return apperrors.NewValidationError("invalid request payload")
	}
	return nil
}

// pathInt parses a positive integer path parameter.
func pathInt(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(r.PathValue(name))
	if err != nil || v <= 0 {
		return 0, apperrors.NewValidationErrorf("invalid %s", name)
	}
	return v, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperrors.NewValidationErrorf("invalid %s parameter", name)
	}
	return &v, nil
}
