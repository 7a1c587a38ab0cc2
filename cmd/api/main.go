package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/patientsurvey/internal/adapters/cache"
	"github.com/zatekoja/patientsurvey/internal/adapters/database"
	"github.com/zatekoja/patientsurvey/internal/adapters/events"
	"github.com/zatekoja/patientsurvey/internal/adapters/search"
	"github.com/zatekoja/patientsurvey/internal/api/handlers"
	"github.com/zatekoja/patientsurvey/internal/api/middleware"
	"github.com/zatekoja/patientsurvey/internal/api/routes"
	"github.com/zatekoja/patientsurvey/internal/application/services"
	"github.com/zatekoja/patientsurvey/internal/domain/providers"
	"github.com/zatekoja/patientsurvey/internal/domain/repositories"
	"github.com/zatekoja/patientsurvey/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/patientsurvey/internal/infrastructure/clients/redis"
	"github.com/zatekoja/patientsurvey/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/patientsurvey/internal/infrastructure/observability"
	"github.com/zatekoja/patientsurvey/pkg/config"
)

const cacheWarmInterval = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.App, "api")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	store := database.NewStore(pgClient,
		database.WithTxConfig(cfg.Transaction),
		database.WithMetrics(metrics),
		database.WithEventHandler(observability.DBLogQuery, observability.ZerologEventHandler(cfg.Database.LogQueries)),
		database.WithEventHandler(observability.DBLogWarn, observability.ZerologEventHandler(false)),
		database.WithEventHandler(observability.DBLogError, observability.ZerologEventHandler(false)),
	)

	// Redis backs the response cache, the rate limiter and the event bus.
	// Without it the API runs uncached on an in-process bus.
	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, running without cache")
		eventBus = events.NewMemoryEventBus()
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient.Client())
		eventBus = events.NewRedisEventBus(redisClient.Client())
	}

	var searchIndex providers.SearchIndex
	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Warn().Err(err).Msg("Typesense unavailable, location search falls back to the database")
	} else {
		adapter := search.NewTypesenseAdapter(tsClient)
		if err := adapter.EnsureCollection(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to init Typesense schema")
		}
		searchIndex = adapter
	}

	var locationRepo repositories.LocationRepository = store.Locations
	if cacheProvider != nil {
		locationRepo = database.NewCachedLocationAdapter(store.Locations, cacheProvider)
	}

	surveyService := services.NewSurveyService(store, eventBus)
	locationService := services.NewLocationService(locationRepo, searchIndex, eventBus)
	servicePointService := services.NewServicePointService(store.ServicePoints, store.ServicePointFeedback, searchIndex, eventBus)

	var invalidation *services.CacheInvalidationService
	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		invalidation = services.NewCacheInvalidationService(cacheProvider, eventBus)
		if err := invalidation.Start(); err != nil {
			log.Warn().Err(err).Msg("Failed to start cache invalidation service")
		}
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider, metrics)

		go warmPeriodically(ctx, services.NewCacheWarmingService(locationRepo))
	}

	router := routes.NewRouter(routes.Dependencies{
		Surveys:          handlers.NewSurveyHandler(surveyService),
		Locations:        handlers.NewLocationHandler(locationService),
		ServicePoints:    handlers.NewServicePointHandler(servicePointService, cacheProvider),
		Stream:           handlers.NewSSEHandler(eventBus),
		LocationRepo:     locationRepo,
		ServicePointRepo: store.ServicePoints,
		Health:           pgClient.Ping,
		CacheMiddleware:  cacheMiddleware,
		Metrics:          metrics,
	})

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     router.SetupRoutes(),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: event streams stay open.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}
	if invalidation != nil {
		invalidation.Stop()
	}
	if err := eventBus.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing event bus")
	}

	log.Info().Msg("Server stopped")
}

func warmPeriodically(ctx context.Context, warming *services.CacheWarmingService) {
	ticker := time.NewTicker(cacheWarmInterval)
	defer ticker.Stop()

	for {
		n, err := warming.WarmCache(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Cache warming failed")
		} else {
			log.Debug().Int("locations", n).Msg("Cache warmed")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
