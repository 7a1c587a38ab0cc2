package database

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	apperrors "github.com/zatekoja/patientsurvey/pkg/errors"
)

const rawTarget = "raw"

// bindRaw turns a ? template into a positional Postgres statement. Each ?
// binds one argument; slice arguments expand for IN (?) lists.
func bindRaw(template string, args []interface{}) (string, []interface{}, error) {
	if n := strings.Count(template, "?"); n != len(args) {
		return "", nil, apperrors.NewValidationErrorf(
			"raw query has %d placeholders but %d arguments", n, len(args))
	}
	q, expanded, err := sqlx.In(template, args...)
	if err != nil {
		return "", nil, apperrors.NewValidationErrorf("invalid raw query arguments: %v", err)
	}
	return sqlx.Rebind(sqlx.DOLLAR, q), expanded, nil
}

// QueryRaw runs a parameterized read and returns each row as a column map.
// Values are bound as parameters, never interpolated.
func (s *Store) QueryRaw(ctx context.Context, template string, args ...interface{}) ([]map[string]interface{}, error) {
	var rows []map[string]interface{}
	err := s.s.run(ctx, rawTarget, "queryRaw", func(ctx context.Context) error {
		q, bound, err := bindRaw(template, args)
		if err != nil {
			return err
		}
		rows, err = s.s.queryMaps(ctx, rawTarget, q, bound)
		return err
	})
	return rows, err
}

// ExecuteRaw runs a parameterized statement and returns the affected rows.
func (s *Store) ExecuteRaw(ctx context.Context, template string, args ...interface{}) (int64, error) {
	var n int64
	err := s.s.run(ctx, rawTarget, "executeRaw", func(ctx context.Context) error {
		q, bound, err := bindRaw(template, args)
		if err != nil {
			return err
		}
		n, err = s.s.execSQL(ctx, rawTarget, q, bound)
		return err
	})
	return n, err
}

// QueryRawUnsafe runs query exactly as given. Callers must not build it
// from untrusted input.
func (s *Store) QueryRawUnsafe(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error) {
	var rows []map[string]interface{}
	err := s.s.run(ctx, rawTarget, "queryRawUnsafe", func(ctx context.Context) error {
		var err error
		rows, err = s.s.queryMaps(ctx, rawTarget, query, args)
		return err
	})
	return rows, err
}

// ExecuteRawUnsafe runs statement exactly as given. Callers must not build
// it from untrusted input.
func (s *Store) ExecuteRawUnsafe(ctx context.Context, statement string, args ...interface{}) (int64, error) {
	var n int64
	err := s.s.run(ctx, rawTarget, "executeRawUnsafe", func(ctx context.Context) error {
		var err error
		n, err = s.s.execSQL(ctx, rawTarget, statement, args)
		return err
	})
	return n, err
}
