package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/zatekoja/patientsurvey/pkg/config"
	"github.com/zatekoja/patientsurvey/pkg/retry"
)

const (
	// ReferenceCollection holds locations and service points.
	ReferenceCollection = "survey_reference"
)

// Client represents a Typesense client
type Client struct {
	client *typesense.Client
}

// NewClient creates a new Typesense client with exponential backoff retry
func NewClient(cfg *config.TypesenseConfig) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	err := retry.DoWithLog(
		context.Background(),
		retry.DefaultConfig(),
		"Typesense",
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_, err := client.Health(ctx, 2*time.Second)
			return err
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Err(err).
				Int("attempt", attempt).
				Dur("retry_in", nextDelay).
				Msg("Typesense connection attempt failed")
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	log.Info().Str("url", cfg.URL).Msg("Successfully connected to Typesense")
	return &Client{client: client}, nil
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// ReferenceSchema is the schema of the reference collection.
func ReferenceSchema() *api.CollectionSchema {
	return &api.CollectionSchema{
		Name: ReferenceCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "kind", Type: "string", Facet: pointer.True()},
			{Name: "entity_id", Type: "int32"},
			{Name: "name", Type: "string"},
			{Name: "category", Type: "string", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "is_active", Type: "bool"},
		},
		DefaultSortingField: pointer.String("entity_id"),
	}
}

// InitSchema ensures the reference collection exists
func (c *Client) InitSchema(ctx context.Context) error {
	if _, err := c.client.Collection(ReferenceCollection).Retrieve(ctx); err == nil {
		return nil
	}

	if _, err := c.client.Collections().Create(ctx, ReferenceSchema()); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Info().Str("collection", ReferenceCollection).Msg("Created Typesense collection")
	return nil
}
