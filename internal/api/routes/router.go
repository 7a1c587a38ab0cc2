package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/zatekoja/patientsurvey/internal/api/handlers"
	"github.com/zatekoja/patientsurvey/internal/api/loaders"
	"github.com/zatekoja/patientsurvey/internal/api/middleware"
	"github.com/zatekoja/patientsurvey/internal/domain/repositories"
	"github.com/zatekoja/patientsurvey/internal/infrastructure/observability"
)

// HealthChecker reports whether a dependency is reachable.
type HealthChecker func(ctx context.Context) error

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	surveyHandler       *handlers.SurveyHandler
	locationHandler     *handlers.LocationHandler
	servicePointHandler *handlers.ServicePointHandler
	sseHandler          *handlers.SSEHandler

	locations     repositories.LocationRepository
	servicePoints repositories.ServicePointRepository
	health        HealthChecker

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// Dependencies groups what the router wires together. CacheMiddleware,
// Metrics and Health may be nil.
type Dependencies struct {
	Surveys       *handlers.SurveyHandler
	Locations     *handlers.LocationHandler
	ServicePoints *handlers.ServicePointHandler
	Stream        *handlers.SSEHandler

	LocationRepo     repositories.LocationRepository
	ServicePointRepo repositories.ServicePointRepository
	Health           HealthChecker

	CacheMiddleware *middleware.CacheMiddleware
	Metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(deps Dependencies) *Router {
	return &Router{
		mux:                 http.NewServeMux(),
		surveyHandler:       deps.Surveys,
		locationHandler:     deps.Locations,
		servicePointHandler: deps.ServicePoints,
		sseHandler:          deps.Stream,
		locations:           deps.LocationRepo,
		servicePoints:       deps.ServicePointRepo,
		health:              deps.Health,
		cacheMiddleware:     deps.CacheMiddleware,
		metrics:             deps.Metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", r.healthCheck)

	// Survey endpoints
	r.mux.HandleFunc("POST /api/surveys", r.surveyHandler.SubmitSurvey)
	r.mux.HandleFunc("GET /api/surveys", r.surveyHandler.ListSurveys)
	r.mux.HandleFunc("POST /api/surveys/query", r.surveyHandler.QuerySurveys)
	r.mux.HandleFunc("GET /api/surveys/{id}", r.surveyHandler.GetSurvey)
	r.mux.HandleFunc("DELETE /api/surveys/{id}", r.surveyHandler.DeleteSurvey)

	// Reports
	r.mux.HandleFunc("POST /api/reports/ratings/group", r.surveyHandler.GroupRatings)
	r.mux.HandleFunc("GET /api/reports/ratings/summary", r.surveyHandler.RatingSummary)

	// Location endpoints
	r.mux.HandleFunc("GET /api/locations", r.locationHandler.ListLocations)
	r.mux.HandleFunc("POST /api/locations", r.locationHandler.CreateLocation)
	r.mux.HandleFunc("GET /api/locations/search", r.locationHandler.SearchLocations)
	r.mux.HandleFunc("GET /api/locations/{id}", r.locationHandler.GetLocation)
	r.mux.HandleFunc("PUT /api/locations/{id}", r.locationHandler.UpdateLocation)
	r.mux.HandleFunc("DELETE /api/locations/{id}", r.locationHandler.DeleteLocation)
	r.mux.HandleFunc("GET /api/locations/{id}/ratings", r.locationHandler.LocationRatings)

	// Service point endpoints
	r.mux.HandleFunc("GET /api/service-points", r.servicePointHandler.ListServicePoints)
	r.mux.HandleFunc("POST /api/service-points", r.servicePointHandler.CreateServicePoint)
	r.mux.HandleFunc("GET /api/service-points/{id}", r.servicePointHandler.GetServicePoint)
	r.mux.HandleFunc("PATCH /api/service-points/{id}", r.servicePointHandler.UpdateServicePoint)
	r.mux.HandleFunc("POST /api/service-points/{id}/feedback", r.servicePointHandler.SubmitFeedback)
	r.mux.HandleFunc("GET /api/service-points/{id}/feedback", r.servicePointHandler.ListFeedback)
	r.mux.HandleFunc("GET /api/service-points/{id}/stats", r.servicePointHandler.GetStats)

	// Event streams
	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/stream/surveys", r.sseHandler.StreamSurveys)
		r.mux.HandleFunc("GET /api/stream/service-points/{id}", r.sseHandler.StreamServicePoint)
	}

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS must be outermost so cached responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = loaders.Middleware(r.locations, r.servicePoints)(handler)
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	if r.health != nil {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := r.health(ctx); err != nil {
			observability.LoggerFromContext(req.Context()).Warn().Err(err).Msg("Health check failed")
			http.Error(w, "UNAVAILABLE", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
