package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/patientsurvey/internal/domain/query"
	apperrors "github.com/zatekoja/patientsurvey/pkg/errors"
)

func renderWhere(t *testing.T, m *query.Model, f query.Filter) (string, []interface{}) {
	t.Helper()
	e, err := whereExpression(m, f)
	require.NoError(t, err)
	require.NotNil(t, e)
	sql, args, err := dialect.From(m.Table).Prepared(true).Where(e).ToSQL()
	require.NoError(t, err)
	return sql, args
}

func TestWhereExpression(t *testing.T) {
	tests := []struct {
		name     string
		model    *query.Model
		filter   query.Filter
		contains []string
		args     []interface{}
	}{
		{
			name:     "equals coerces to column type",
			model:    ratingModel,
			filter:   query.Where("locationId", query.Eq(3)),
			contains: []string{`"location_id" = $1`},
			args:     []interface{}{int64(3)},
		},
		{
			name:     "equals null",
			model:    ratingModel,
			filter:   query.Where("overall", query.Eq(nil)),
			contains: []string{`"overall" IS NULL`},
		},
		{
			name:     "not null",
			model:    ratingModel,
			filter:   query.Where("overall", query.Ne(nil)),
			contains: []string{`"overall" IS NOT NULL`},
		},
		{
			name:     "in list",
			model:    ratingModel,
			filter:   query.Where("locationId", query.In(1, 2)),
			contains: []string{`"location_id" IN ($1, $2)`},
			args:     []interface{}{int64(1), int64(2)},
		},
		{
			name:     "empty in matches nothing",
			model:    ratingModel,
			filter:   query.Where("locationId", query.In()),
			contains: []string{`FALSE`},
		},
		{
			name:     "insensitive contains",
			model:    locationModel,
			filter:   query.Where("name", query.Contains("ward").Fold()),
			contains: []string{`"name" ILIKE $1`},
			args:     []interface{}{"%ward%"},
		},
		{
			name:     "like wildcards are escaped",
			model:    locationModel,
			filter:   query.Where("name", query.StartsWith("50%_off")),
			contains: []string{`"name" LIKE $1`},
			args:     []interface{}{`50\%\_off%`},
		},
		{
			name:  "or of two fields",
			model: ratingModel,
			filter: query.Or(
				query.Where("overall", query.Eq("Excellent")),
				query.Where("reception", query.Eq("Excellent")),
			),
			contains: []string{`"overall" = $1`, ` OR `, `"reception" = $2`},
			args:     []interface{}{"Excellent", "Excellent"},
		},
		{
			name:     "not wraps its children",
			model:    ratingModel,
			filter:   query.Not(query.Where("overall", query.Eq("Poor"))),
			contains: []string{`NOT (`, `"overall" = $1`},
			args:     []interface{}{"Poor"},
		},
		{
			name:     "range on a timestamp",
			model:    submissionModel,
			filter:   query.Where("submittedAt", query.Gte("2024-01-01T00:00:00Z")),
			contains: []string{`"submitted_at" >= $1`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := renderWhere(t, tt.model, tt.filter)
			for _, frag := range tt.contains {
				assert.Contains(t, sql, frag)
			}
			if tt.args != nil {
				assert.Equal(t, tt.args, args)
			}
		})
	}
}

func TestWhereExpression_Empty(t *testing.T) {
	e, err := whereExpression(ratingModel, query.Filter{})
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestWhereExpression_UnknownField(t *testing.T) {
	_, err := whereExpression(ratingModel, query.Where("score", query.Eq(1)))
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\\b`, escapeLike(`a\b`))
	assert.Equal(t, `100\%`, escapeLike(`100%`))
	assert.Equal(t, `snake\_case`, escapeLike(`snake_case`))
}
