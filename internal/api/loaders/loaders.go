package loaders

import (
	"context"
	"net/http"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/zatekoja/patientsurvey/internal/domain/entities"
	"github.com/zatekoja/patientsurvey/internal/domain/query"
	"github.com/zatekoja/patientsurvey/internal/domain/repositories"
	apperrors "github.com/zatekoja/patientsurvey/pkg/errors"
)

type ctxKey string

const loadersKey ctxKey = "dataloaders"

// Loaders batches parent lookups made while rendering one request
type Loaders struct {
	LocationLoader     *dataloader.Loader[int, *entities.Location]
	ServicePointLoader *dataloader.Loader[int, *entities.ServicePoint]
}

// NewLoaders creates a new instance of Loaders
func NewLoaders(locations repositories.LocationRepository, servicePoints repositories.ServicePointRepository) *Loaders {
	return &Loaders{
		LocationLoader: dataloader.NewBatchedLoader(
			batchByID(func(ctx context.Context, ids []int) ([]*entities.Location, error) {
				return locations.FindMany(ctx, query.FindArgs{Where: query.Where("id", query.InValues(ids))})
			}, func(l *entities.Location) int { return l.ID }, "Location"),
		),
		ServicePointLoader: dataloader.NewBatchedLoader(
			batchByID(func(ctx context.Context, ids []int) ([]*entities.ServicePoint, error) {
				return servicePoints.FindMany(ctx, query.FindArgs{Where: query.Where("id", query.InValues(ids))})
			}, func(sp *entities.ServicePoint) int { return sp.ID }, "ServicePoint"),
		),
	}
}

// batchByID adapts a FindMany by ids to a batch function returning one
// result per key, in key order.
func batchByID[V any](
	find func(ctx context.Context, ids []int) ([]*V, error),
	id func(*V) int,
	name string,
) dataloader.BatchFunc[int, *V] {
	return func(ctx context.Context, keys []int) []*dataloader.Result[*V] {
		results := make([]*dataloader.Result[*V], len(keys))
		rows, err := find(ctx, keys)

		byID := make(map[int]*V, len(rows))
		if err == nil {
			for _, row := range rows {
				byID[id(row)] = row
			}
		}

		for i, key := range keys {
			if err != nil {
				results[i] = &dataloader.Result[*V]{Error: err}
			} else if row, ok := byID[key]; ok {
				results[i] = &dataloader.Result[*V]{Data: row}
			} else {
				results[i] = &dataloader.Result[*V]{Error: apperrors.NewNotFoundError(name + " not found")}
			}
		}
		return results
	}
}

// For returns the loaders for a given context, or nil outside a request
func For(ctx context.Context) *Loaders {
	l, _ := ctx.Value(loadersKey).(*Loaders)
	return l
}

// WithLoaders returns a new context with the loaders attached
func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}

// Middleware attaches fresh loaders to every request
func Middleware(locations repositories.LocationRepository, servicePoints repositories.ServicePointRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithLoaders(r.Context(), NewLoaders(locations, servicePoints))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AttachSubmissionLocations resolves the Location of every section of a
// submission with one batched query.
func AttachSubmissionLocations(ctx context.Context, s *entities.SurveySubmission) error {
	l := For(ctx)
	if l == nil || s == nil {
		return nil
	}

	var thunks []func() error
	for _, sl := range s.Locations {
		sl := sl
		thunk := l.LocationLoader.Load(ctx, sl.LocationID)
		thunks = append(thunks, func() (err error) { sl.Location, err = thunk(); return })
	}
	for _, r := range s.Ratings {
		r := r
		thunk := l.LocationLoader.Load(ctx, r.LocationID)
		thunks = append(thunks, func() (err error) { r.Location, err = thunk(); return })
	}
	for _, c := range s.DepartmentConcerns {
		c := c
		thunk := l.LocationLoader.Load(ctx, c.LocationID)
		thunks = append(thunks, func() (err error) { c.Location, err = thunk(); return })
	}

	for _, resolve := range thunks {
		if err := resolve(); err != nil {
			return err
		}
	}
	return nil
}

// AttachServicePoints resolves the ServicePoint of every feedback row.
func AttachServicePoints(ctx context.Context, feedback []*entities.ServicePointFeedback) error {
	l := For(ctx)
	if l == nil {
		return nil
	}

	thunks := make([]dataloader.Thunk[*entities.ServicePoint], len(feedback))
	for i, fb := range feedback {
		thunks[i] = l.ServicePointLoader.Load(ctx, fb.ServicePointID)
	}
	for i, thunk := range thunks {
		sp, err := thunk()
		if err != nil {
			return err
		}
		feedback[i].ServicePoint = sp
	}
	return nil
}
