package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/patientsurvey/internal/adapters/database"
	"github.com/zatekoja/patientsurvey/internal/domain/entities"
	"github.com/zatekoja/patientsurvey/internal/domain/query"
	"github.com/zatekoja/patientsurvey/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/patientsurvey/internal/infrastructure/observability"
	"github.com/zatekoja/patientsurvey/pkg/config"
)

var referenceLocations = []struct {
	name         string
	locationType string
}{
	{"Emergency", "department"},
	{"Outpatient Clinic", "department"},
	{"Laboratory", "department"},
	{"Radiology", "department"},
	{"Pharmacy", "department"},
	{"Maternity", "ward"},
	{"Paediatrics", "ward"},
	{"Surgical Ward", "ward"},
	{"Medical Ward", "ward"},
	{"Records", "service"},
	{"Billing", "service"},
	{"Reception", "service"},
}

var referenceServicePoints = []string{
	"Main Entrance Kiosk",
	"Pharmacy Queue",
	"Outpatient Waiting Area",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(cfg.App, "seed")

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to DB")
	}
	defer pgClient.Close()

	ctx := context.Background()
	store := database.NewStore(pgClient,
		database.WithTxConfig(cfg.Transaction),
		database.WithEventHandler(observability.DBLogError, observability.ZerologEventHandler(false)))

	if os.Getenv("RESET_DB") == "true" {
		log.Warn().Msg("RESET_DB=true detected, truncating tables before seeding")
		_, err := store.ExecuteRawUnsafe(ctx, `
			TRUNCATE TABLE
				service_point_feedback,
				service_points,
				department_concerns,
				general_observations,
				ratings,
				submission_locations,
				survey_submissions,
				locations
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to reset tables")
		}
	}

	locations := make([]*entities.Location, 0, len(referenceLocations))
	for _, l := range referenceLocations {
		locations = append(locations, &entities.Location{Name: l.name, LocationType: l.locationType})
	}

	// Service points have no natural key, so they are only seeded into an
	// empty table. Both inserts commit together.
	results, err := store.Batch(ctx, []database.Operation{
		func(ctx context.Context, tx *database.Store) (interface{}, error) {
			return tx.Locations.CreateMany(ctx, locations, true)
		},
		func(ctx context.Context, tx *database.Store) (interface{}, error) {
			existing, err := tx.ServicePoints.Count(ctx, query.CountArgs{})
			if err != nil || existing > 0 {
				return int64(0), err
			}
			points := make([]*entities.ServicePoint, 0, len(referenceServicePoints))
			for _, name := range referenceServicePoints {
				points = append(points, &entities.ServicePoint{
					Name:                  name,
					IsActive:              true,
					ShowRecommendQuestion: true,
					ShowCommentsBox:       true,
				})
			}
			return tx.ServicePoints.CreateMany(ctx, points, true)
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Seeding failed")
	}

	log.Info().
		Interface("locations_added", results[0]).
		Interface("service_points_added", results[1]).
		Msg("Seeding completed")
}
