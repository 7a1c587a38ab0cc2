package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/patientsurvey/internal/domain/entities"
	"github.com/zatekoja/patientsurvey/internal/domain/providers"
)

func TestLocationDocument(t *testing.T) {
	doc := locationDocument(&entities.Location{ID: 7, Name: "Maternity", LocationType: "ward"})

	assert.Equal(t, "location-7", doc.ID)
	assert.Equal(t, providers.SearchKindLocation, doc.Kind)
	assert.Equal(t, 7, doc.EntityID)
	assert.Equal(t, "ward", doc.Category)
	assert.True(t, doc.IsActive)
}

func TestServicePointDocument(t *testing.T) {
	doc := servicePointDocument(&entities.ServicePoint{ID: 3, Name: "Pharmacy window", IsActive: false})

	assert.Equal(t, "service_point-3", doc.ID)
	assert.False(t, doc.IsActive)
}

func TestSearchParams(t *testing.T) {
	params := searchParams(providers.SearchQuery{Text: "  lab ", Kind: providers.SearchKindLocation})
	require.NotNil(t, params.Q)
	assert.Equal(t, "lab", *params.Q)
	require.NotNil(t, params.FilterBy)
	assert.Equal(t, "kind:=location", *params.FilterBy)
	assert.Equal(t, defaultSearchLimit, *params.PerPage)

	params = searchParams(providers.SearchQuery{Limit: 5})
	assert.Equal(t, "*", *params.Q)
	assert.Nil(t, params.FilterBy)
	assert.Equal(t, 5, *params.PerPage)
}

func TestDocumentRoundTrip(t *testing.T) {
	in := providers.SearchDocument{ID: "location-1", Kind: "location", EntityID: 1, Name: "ER", Category: "clinical", IsActive: true}
	fields := documentFields(in)
	// Typesense returns numbers as float64.
	fields["entity_id"] = float64(1)

	assert.Equal(t, in, documentFromHit(fields))
}
