package database

import (
	"github.com/jmoiron/sqlx"

	"github.com/zatekoja/patientsurvey/internal/domain/repositories"
	"github.com/zatekoja/patientsurvey/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/patientsurvey/internal/infrastructure/observability"
	"github.com/zatekoja/patientsurvey/pkg/config"
)

// Store is the data-access client: one repository per entity, transactions
// and raw SQL. Stores handed to transaction callbacks run every statement
// on the transaction's connection.
type Store struct {
	Submissions          repositories.SurveySubmissionRepository
	Locations            repositories.LocationRepository
	SubmissionLocations  repositories.SubmissionLocationRepository
	Ratings              repositories.RatingRepository
	GeneralObservations  repositories.GeneralObservationRepository
	DepartmentConcerns   repositories.DepartmentConcernRepository
	ServicePoints        repositories.ServicePointRepository
	ServicePointFeedback repositories.ServicePointFeedbackRepository

	db        *sqlx.DB
	s         *session
	txOptions TxOptions
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithMetrics records operation durations on m.
func WithMetrics(m *observability.Metrics) StoreOption {
	return func(s *Store) {
		s.s.metrics = m
	}
}

// WithEventHandler subscribes h to data-access events of the given level.
func WithEventHandler(level observability.DBLogLevel, h observability.DBEventHandler) StoreOption {
	return func(s *Store) {
		s.s.events.on(level, h)
	}
}

// WithTxDefaults replaces the default transaction options. Non-positive
// limits keep the built-in defaults.
func WithTxDefaults(opts TxOptions) StoreOption {
	return func(s *Store) {
		s.txOptions = opts.withDefaults()
	}
}

// WithTxConfig takes the transaction defaults from configuration.
func WithTxConfig(cfg config.TransactionConfig) StoreOption {
	return func(s *Store) {
		if cfg.MaxWait > 0 {
			s.txOptions.MaxWait = cfg.MaxWait
		}
		if cfg.Timeout > 0 {
			s.txOptions.Timeout = cfg.Timeout
		}
		if level, err := ParseIsolationLevel(cfg.IsolationLevel); err == nil {
			s.txOptions.Isolation = level
		}
	}
}

// NewStore creates a Store over the client's connection pool.
func NewStore(client *postgres.Client, opts ...StoreOption) *Store {
	return NewStoreFromDB(client.DBx(), opts...)
}

// NewStoreFromDB creates a Store over an sqlx handle.
func NewStoreFromDB(db *sqlx.DB, opts ...StoreOption) *Store {
	s := &Store{
		db:        db,
		s:         &session{q: db, events: newEmitter()},
		txOptions: DefaultTxOptions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.bind()
	return s
}

// bind builds the repositories on the store's session.
func (s *Store) bind() {
	t := newTables(s.s)
	s.Submissions = &SurveySubmissionAdapter{table: t.submissions, t: t}
	s.Locations = &LocationAdapter{table: t.locations, t: t}
	s.SubmissionLocations = &SubmissionLocationAdapter{table: t.submissionLocations, t: t}
	s.Ratings = &RatingAdapter{table: t.ratings, t: t}
	s.GeneralObservations = &GeneralObservationAdapter{table: t.generalObservations, t: t}
	s.DepartmentConcerns = &DepartmentConcernAdapter{table: t.departmentConcerns, t: t}
	s.ServicePoints = &ServicePointAdapter{table: t.servicePoints, t: t}
	s.ServicePointFeedback = &ServicePointFeedbackAdapter{table: t.servicePointFeedback, t: t}
}

// withQuerier returns a Store sharing s's subscribers and metrics whose
// statements run on q.
func (s *Store) withQuerier(q querier) *Store {
	tx := &Store{
		db:        s.db,
		s:         &session{q: q, inTx: true, events: s.s.events, metrics: s.s.metrics},
		txOptions: s.txOptions,
	}
	tx.bind()
	return tx
}

// On subscribes h to data-access events of the given level.
func (s *Store) On(level observability.DBLogLevel, h observability.DBEventHandler) {
	s.s.events.on(level, h)
}

// InTransaction reports whether the store is bound to a transaction.
func (s *Store) InTransaction() bool {
	return s.s.inTx
}
