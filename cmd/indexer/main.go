package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/patientsurvey/internal/adapters/database"
	"github.com/zatekoja/patientsurvey/internal/adapters/search"
	"github.com/zatekoja/patientsurvey/internal/application/services"
	"github.com/zatekoja/patientsurvey/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/patientsurvey/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/patientsurvey/internal/infrastructure/observability"
	"github.com/zatekoja/patientsurvey/pkg/config"
)

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete the reference collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(cfg.App, "indexer")

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatal().Err(err).Str("interval", intervalValue).Msg("Invalid interval")
		}
		if interval <= 0 {
			log.Fatal().Msg("Interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, cfg, reset); err != nil {
			log.Error().Err(err).Msg("Reindex failed")
		}

		if interval <= 0 {
			break
		}

		reset = false
		log.Info().Dur("next_run_in", interval).Msg("Reindex complete")

		select {
		case <-ctx.Done():
			log.Info().Msg("Reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, cfg *config.Config, reset bool) error {
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	store := database.NewStore(pgClient,
		database.WithEventHandler(observability.DBLogError, observability.ZerologEventHandler(false)))

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		return err
	}

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		log.Info().Str("collection", typesense.ReferenceCollection).Msg("Deleting collection before reindex")
		if _, err := tsClient.Client().Collection(typesense.ReferenceCollection).Delete(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to delete collection")
		}
	}

	index := search.NewTypesenseAdapter(tsClient)
	if err := index.EnsureCollection(ctx); err != nil {
		return err
	}

	// Services without an event bus index without announcing changes.
	locations, err := services.NewLocationService(store.Locations, index, nil).Reindex(ctx)
	if err != nil {
		return fmt.Errorf("failed to index locations: %w", err)
	}
	servicePoints, err := services.NewServicePointService(store.ServicePoints, store.ServicePointFeedback, index, nil).Reindex(ctx)
	if err != nil {
		return fmt.Errorf("failed to index service points: %w", err)
	}

	log.Info().Int("locations", locations).Int("service_points", servicePoints).Msg("Indexed reference data")
	return nil
}
