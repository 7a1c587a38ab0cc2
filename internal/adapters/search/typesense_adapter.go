package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/zatekoja/patientsurvey/internal/domain/entities"
	"github.com/zatekoja/patientsurvey/internal/domain/providers"
	tsclient "github.com/zatekoja/patientsurvey/internal/infrastructure/clients/typesense"
)

const defaultSearchLimit = 20

// TypesenseAdapter implements reference-data search using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ providers.SearchIndex = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// EnsureCollection creates the reference collection when it is missing
func (a *TypesenseAdapter) EnsureCollection(ctx context.Context) error {
	return a.client.InitSchema(ctx)
}

// IndexLocations upserts the documents of the given locations
func (a *TypesenseAdapter) IndexLocations(ctx context.Context, locations ...*entities.Location) error {
	docs := make([]providers.SearchDocument, 0, len(locations))
	for _, l := range locations {
		docs = append(docs, locationDocument(l))
	}
	return a.upsert(ctx, docs)
}

// IndexServicePoints upserts the documents of the given service points
func (a *TypesenseAdapter) IndexServicePoints(ctx context.Context, points ...*entities.ServicePoint) error {
	docs := make([]providers.SearchDocument, 0, len(points))
	for _, sp := range points {
		docs = append(docs, servicePointDocument(sp))
	}
	return a.upsert(ctx, docs)
}

// RemoveLocation deletes a location's document from the index
func (a *TypesenseAdapter) RemoveLocation(ctx context.Context, id int) error {
	return a.remove(ctx, documentID(providers.SearchKindLocation, id))
}

func (a *TypesenseAdapter) upsert(ctx context.Context, docs []providers.SearchDocument) error {
	documents := a.client.Client().Collection(tsclient.ReferenceCollection).Documents()
	for _, doc := range docs {
		if _, err := documents.Upsert(ctx, documentFields(doc)); err != nil {
			return fmt.Errorf("failed to index %s: %w", doc.ID, err)
		}
	}
	return nil
}

func (a *TypesenseAdapter) remove(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(tsclient.ReferenceCollection).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete %s from index: %w", id, err)
	}
	return nil
}

// Search finds documents whose name matches q.Text
func (a *TypesenseAdapter) Search(ctx context.Context, q providers.SearchQuery) ([]providers.SearchDocument, error) {
	result, err := a.client.Client().Collection(tsclient.ReferenceCollection).Documents().Search(ctx, searchParams(q))
	if err != nil {
		return nil, fmt.Errorf("failed to search reference data: %w", err)
	}

	docs := []providers.SearchDocument{}
	if result.Hits == nil {
		return docs, nil
	}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		docs = append(docs, documentFromHit(*hit.Document))
	}
	return docs, nil
}

func searchParams(q providers.SearchQuery) *api.SearchCollectionParams {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		text = "*"
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	params := &api.SearchCollectionParams{
		Q:       pointer.String(text),
		QueryBy: pointer.String("name"),
		PerPage: pointer.Int(limit),
	}
	if q.Kind != "" {
		params.FilterBy = pointer.String("kind:=" + q.Kind)
	}
	return params
}

func documentFields(doc providers.SearchDocument) map[string]interface{} {
	return map[string]interface{}{
		"id":        doc.ID,
		"kind":      doc.Kind,
		"entity_id": doc.EntityID,
		"name":      doc.Name,
		"category":  doc.Category,
		"is_active": doc.IsActive,
	}
}

func documentFromHit(fields map[string]interface{}) providers.SearchDocument {
	var doc providers.SearchDocument
	doc.ID, _ = fields["id"].(string)
	doc.Kind, _ = fields["kind"].(string)
	doc.Name, _ = fields["name"].(string)
	doc.Category, _ = fields["category"].(string)
	doc.IsActive, _ = fields["is_active"].(bool)
	if n, ok := fields["entity_id"].(float64); ok {
		doc.EntityID = int(n)
	}
	return doc
}

func documentID(kind string, id int) string {
	return kind + "-" + strconv.Itoa(id)
}

func locationDocument(l *entities.Location) providers.SearchDocument {
	return providers.SearchDocument{
		ID:       documentID(providers.SearchKindLocation, l.ID),
		Kind:     providers.SearchKindLocation,
		EntityID: l.ID,
		Name:     l.Name,
		Category: l.LocationType,
		IsActive: true,
	}
}

func servicePointDocument(sp *entities.ServicePoint) providers.SearchDocument {
	return providers.SearchDocument{
		ID:       documentID(providers.SearchKindServicePoint, sp.ID),
		Kind:     providers.SearchKindServicePoint,
		EntityID: sp.ID,
		Name:     sp.Name,
		IsActive: sp.IsActive,
	}
}
