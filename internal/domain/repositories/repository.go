package repositories

import (
	"context"

	"github.com/zatekoja/patientsurvey/internal/domain/query"
)

// Repository is the data-access contract shared by every entity.
//
// Reads that target a single row by a unique field return (nil, nil) when the
// row is absent; the OrThrow variants return a NOT_FOUND AppError instead.
// Writes addressed by a unique field (Update, Delete) fail with NOT_FOUND when
// no row matches.
type Repository[T any] interface {
	FindUnique(ctx context.Context, where query.Unique, include ...string) (*T, error)
	FindUniqueOrThrow(ctx context.Context, where query.Unique, include ...string) (*T, error)
	FindFirst(ctx context.Context, args query.FindArgs) (*T, error)
	FindFirstOrThrow(ctx context.Context, args query.FindArgs) (*T, error)
	FindMany(ctx context.Context, args query.FindArgs) ([]*T, error)

	Create(ctx context.Context, record *T) (*T, error)
	// CreateMany inserts records in one statement and returns the number of
	// rows inserted. With skipDuplicates, rows violating a unique constraint
	// are skipped instead of failing the batch.
	CreateMany(ctx context.Context, records []*T, skipDuplicates bool) (int64, error)
	Update(ctx context.Context, where query.Unique, data query.Data) (*T, error)
	UpdateMany(ctx context.Context, where query.Filter, data query.Data) (int64, error)
	// Upsert updates the row matching where with update, or inserts create
	// when no row matches.
	Upsert(ctx context.Context, where query.Unique, create *T, update query.Data) (*T, error)
	Delete(ctx context.Context, where query.Unique) (*T, error)
	DeleteMany(ctx context.Context, where query.Filter) (int64, error)

	Count(ctx context.Context, args query.CountArgs) (int64, error)
	// CountFields returns non-null counts per selected field; query.AllRows
	// counts rows.
	CountFields(ctx context.Context, args query.CountArgs) (map[string]int64, error)
	Aggregate(ctx context.Context, args query.AggregateArgs) (*query.AggregateResult, error)
	GroupBy(ctx context.Context, args query.GroupByArgs) ([]query.GroupRow, error)
}
