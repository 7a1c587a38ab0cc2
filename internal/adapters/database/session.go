package database

import (
	"context"
	"sync"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jmoiron/sqlx"

	"github.com/zatekoja/patientsurvey/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/patientsurvey/pkg/errors"
)

var dialect = goqu.Dialect("postgres")

// querier is satisfied by both *sqlx.DB and *sqlx.Tx.
type querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

type sqlBuilder interface {
	ToSQL() (string, []interface{}, error)
}

// emitter fans data-access events out to subscribed handlers. It is shared
// between a Store and the transactional stores derived from it.
type emitter struct {
	mu       sync.RWMutex
	handlers map[observability.DBLogLevel][]observability.DBEventHandler
}

func newEmitter() *emitter {
	return &emitter{handlers: make(map[observability.DBLogLevel][]observability.DBEventHandler)}
}

func (e *emitter) on(level observability.DBLogLevel, h observability.DBEventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[level] = append(e.handlers[level], h)
}

func (e *emitter) has(level observability.DBLogLevel) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.handlers[level]) > 0
}

func (e *emitter) emit(ev observability.DBEvent) {
	e.mu.RLock()
	handlers := e.handlers[ev.Level]
	e.mu.RUnlock()
	for _, h := range handlers {
		h(ev)
	}
}

// session binds statement execution to a connection or transaction.
type session struct {
	q       querier
	inTx    bool
	events  *emitter
	metrics *observability.Metrics
}

// run wraps one repository operation in a span, records its duration and
// translates driver errors into AppErrors.
func (s *session) run(ctx context.Context, table, op string, fn func(context.Context) error) error {
	ctx, span := observability.StartSpan(ctx, "db."+table+"."+op)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	if err != nil {
		err = translateError(table, op, err)
		observability.RecordError(span, err)
		if !apperrors.IsNotFound(err) && !apperrors.IsValidation(err) {
			s.events.emit(observability.DBEvent{
				Level:     observability.DBLogError,
				Timestamp: time.Now(),
				Target:    table,
				Message:   err.Error(),
			})
		}
	}
	observability.RecordDBMetric(ctx, s.metrics, table, op, time.Since(start), err)
	return err
}

func (s *session) logQuery(table, query string, args []interface{}, start time.Time) {
	if !s.events.has(observability.DBLogQuery) {
		return
	}
	s.events.emit(observability.DBEvent{
		Level:     observability.DBLogQuery,
		Timestamp: start,
		Query:     query,
		Params:    args,
		Duration:  time.Since(start),
		Target:    table,
	})
}

func (s *session) build(table string, b sqlBuilder) (string, []interface{}, error) {
	query, args, err := b.ToSQL()
	if err != nil {
		return "", nil, apperrors.NewInternalError("failed to build "+table+" query", err)
	}
	return query, args, nil
}

func (s *session) get(ctx context.Context, table string, dest interface{}, b sqlBuilder) error {
	query, args, err := s.build(table, b)
	if err != nil {
		return err
	}
	start := time.Now()
	err = s.q.GetContext(ctx, dest, query, args...)
	s.logQuery(table, query, args, start)
	return err
}

func (s *session) selectRows(ctx context.Context, table string, dest interface{}, b sqlBuilder) error {
	query, args, err := s.build(table, b)
	if err != nil {
		return err
	}
	start := time.Now()
	err = s.q.SelectContext(ctx, dest, query, args...)
	s.logQuery(table, query, args, start)
	return err
}

func (s *session) exec(ctx context.Context, table string, b sqlBuilder) (int64, error) {
	query, args, err := s.build(table, b)
	if err != nil {
		return 0, err
	}
	return s.execSQL(ctx, table, query, args)
}

func (s *session) execSQL(ctx context.Context, table, query string, args []interface{}) (int64, error) {
	start := time.Now()
	res, err := s.q.ExecContext(ctx, query, args...)
	s.logQuery(table, query, args, start)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// queryMaps runs a statement and returns every row as a column map.
func (s *session) queryMaps(ctx context.Context, table, query string, args []interface{}) ([]map[string]interface{}, error) {
	start := time.Now()
	rows, err := s.q.QueryxContext(ctx, query, args...)
	s.logQuery(table, query, args, start)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]map[string]interface{}, 0)
	for rows.Next() {
		row := make(map[string]interface{})
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *session) selectMaps(ctx context.Context, table string, b sqlBuilder) ([]map[string]interface{}, error) {
	query, args, err := s.build(table, b)
	if err != nil {
		return nil, err
	}
	return s.queryMaps(ctx, table, query, args)
}
