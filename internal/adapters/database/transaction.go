package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/patientsurvey/internal/infrastructure/observability"
	"github.com/zatekoja/patientsurvey/pkg/config"
	apperrors "github.com/zatekoja/patientsurvey/pkg/errors"
)

// TxOptions bounds a transaction. MaxWait limits how long to wait for a
// pooled connection and Timeout limits the transaction body.
type TxOptions struct {
	MaxWait   time.Duration
	Timeout   time.Duration
	Isolation sql.IsolationLevel
}

// DefaultTxOptions returns a 2s connection wait and a 5s body timeout at the
// database's default isolation level.
func DefaultTxOptions() TxOptions {
	return TxOptions{
		MaxWait: 2 * time.Second,
		Timeout: 5 * time.Second,
	}
}

// withDefaults replaces unset or non-positive limits with the defaults.
func (o TxOptions) withDefaults() TxOptions {
	d := DefaultTxOptions()
	if o.MaxWait <= 0 {
		o.MaxWait = d.MaxWait
	}
	if o.Timeout <= 0 {
		o.Timeout = d.Timeout
	}
	return o
}

// TxOption overrides one transaction setting.
type TxOption func(*TxOptions)

// WithMaxWait sets the connection acquisition limit. Zero keeps the default.
func WithMaxWait(d time.Duration) TxOption {
	return func(o *TxOptions) { o.MaxWait = d }
}

// WithTimeout sets the transaction body limit. Zero keeps the default.
func WithTimeout(d time.Duration) TxOption {
	return func(o *TxOptions) { o.Timeout = d }
}

// WithIsolation sets the isolation level.
func WithIsolation(level sql.IsolationLevel) TxOption {
	return func(o *TxOptions) { o.Isolation = level }
}

// ParseIsolationLevel parses an isolation level name as accepted by
// configuration. Unknown names are a validation error.
func ParseIsolationLevel(s string) (sql.IsolationLevel, error) {
	level, err := config.ParseIsolationLevel(s)
	if err != nil {
		return sql.LevelDefault, apperrors.NewValidationErrorf("unsupported isolation level %q", s)
	}
	return level, nil
}

// TxFunc is the body of an interactive transaction. Every repository of tx
// runs on the transaction.
type TxFunc func(ctx context.Context, tx *Store) error

// Operation is one step of a batch transaction.
type Operation func(ctx context.Context, tx *Store) (interface{}, error)

// Transaction runs fn in a database transaction and commits when it returns
// nil. An error, a panic or an expired timeout rolls everything back. Called
// on a transactional store, fn joins the enclosing transaction.
func (s *Store) Transaction(ctx context.Context, fn TxFunc, opts ...TxOption) (err error) {
	if s.s.inTx {
		return fn(ctx, s)
	}

	o := s.txOptions
	for _, opt := range opts {
		opt(&o)
	}
	o = o.withDefaults()

	ctx, span := observability.StartSpan(ctx, "db.transaction")
	defer span.End()
	defer func() {
		if err != nil {
			observability.RecordError(span, err)
		}
	}()

	waitCtx, cancelWait := context.WithTimeout(ctx, o.MaxWait)
	conn, err := s.db.Connx(waitCtx)
	cancelWait()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return apperrors.NewTimeoutError(
				fmt.Sprintf("unable to acquire a connection within %s", o.MaxWait), err)
		}
		return translateError("transaction", "begin", err)
	}
	defer conn.Close()

	bodyCtx, cancel := context.WithTimeout(ctx, o.Timeout)
	defer cancel()

	tx, err := conn.BeginTxx(bodyCtx, &sql.TxOptions{Isolation: o.Isolation})
	if err != nil {
		return translateError("transaction", "begin", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	txStore := s.withQuerier(tx)
	fnErr := fn(bodyCtx, txStore)

	if bodyCtx.Err() != nil && ctx.Err() == nil {
		_ = tx.Rollback()
		s.warn("transaction", "transaction rolled back after timeout")
		return apperrors.NewTimeoutError(
			fmt.Sprintf("transaction exceeded its %s timeout", o.Timeout), bodyCtx.Err())
	}
	if fnErr != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Error().Err(rbErr).Msg("Failed to roll back transaction")
		}
		return fnErr
	}
	if err := tx.Commit(); err != nil {
		return translateError("transaction", "commit", err)
	}
	return nil
}

// Batch runs ops in order inside one transaction and returns their results
// in the same order. The first failing operation rolls back all of them.
func (s *Store) Batch(ctx context.Context, ops []Operation, opts ...TxOption) ([]interface{}, error) {
	var results []interface{}
	err := s.Transaction(ctx, func(ctx context.Context, tx *Store) error {
		results = make([]interface{}, 0, len(ops))
		for i, op := range ops {
			res, err := op(ctx, tx)
			if err != nil {
				return fmt.Errorf("batch operation %d: %w", i, err)
			}
			results = append(results, res)
		}
		return nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Store) warn(target, message string) {
	s.s.events.emit(observability.DBEvent{
		Level:     observability.DBLogWarn,
		Timestamp: time.Now(),
		Target:    target,
		Message:   message,
	})
}
