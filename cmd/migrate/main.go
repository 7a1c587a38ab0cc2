package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/patientsurvey/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/patientsurvey/internal/infrastructure/observability"
	"github.com/zatekoja/patientsurvey/pkg/config"
)

func main() {
	var list bool
	var timeout time.Duration
	flag.BoolVar(&list, "list", false, "print the embedded migrations without applying them")
	flag.DurationVar(&timeout, "timeout", 2*time.Minute, "overall time limit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(cfg.App, "migrate")

	if list {
		migrations, err := postgres.Migrations()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read migrations")
		}
		for _, m := range migrations {
			fmt.Println(m.Version)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pgClient.Close()

	applied, err := pgClient.Migrate(ctx)
	if err != nil {
		log.Fatal().Err(err).Strs("applied", applied).Msg("Migration failed")
	}
	if len(applied) == 0 {
		log.Info().Msg("Schema is up to date")
		return
	}
	log.Info().Strs("applied", applied).Msg("Migrations applied")
}
