package database

import (
	"context"
	"reflect"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/zatekoja/patientsurvey/internal/domain/query"
	apperrors "github.com/zatekoja/patientsurvey/pkg/errors"
)

// relation loads one declared relation for a batch of parent rows.
type relation[T any] func(ctx context.Context, parents []*T) error

// table implements repositories.Repository[T] for one model. Statements are
// built with goqu and scanned with sqlx.
type table[T any] struct {
	s         *session
	model     *query.Model
	relations map[string]relation[T]
	// newID assigns primary keys the database does not generate.
	newID func() interface{}
}

func newTable[T any](s *session, m *query.Model) *table[T] {
	return &table[T]{
		s:         s,
		model:     m,
		relations: make(map[string]relation[T]),
	}
}

func (t *table[T]) name() string { return t.model.Table }

func columnList(cols []string) []interface{} {
	out := make([]interface{}, len(cols))
	for i, c := range cols {
		out[i] = goqu.C(c)
	}
	return out
}

func (t *table[T]) returning() []interface{} {
	return columnList(t.model.Columns())
}

func (t *table[T]) value(rec *T, f query.Field) interface{} {
	v := reflect.ValueOf(rec).Elem().FieldByIndex(f.Index)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		return v.Elem().Interface()
	}
	return v.Interface()
}

func isZero(v interface{}) bool {
	return v == nil || reflect.ValueOf(v).IsZero()
}

func (t *table[T]) uniqueExpression(where query.Unique) (exp.Expression, error) {
	if err := t.model.ValidateUnique(where); err != nil {
		return nil, err
	}
	for name, raw := range where {
		f, _ := t.model.Field(name)
		v, err := t.model.Coerce(name, raw)
		if err != nil {
			return nil, err
		}
		return goqu.C(f.Column).Eq(v), nil
	}
	return nil, apperrors.NewValidationErrorf("%s unique selector is empty", t.model.Name)
}

// insertRecord converts rec into a column record. Zero generated ids use the
// column default; zero non-null timestamps become now.
func (t *table[T]) insertRecord(rec *T, now time.Time) (goqu.Record, error) {
	if rec == nil {
		return nil, apperrors.NewValidationErrorf("%s record is nil", t.model.Name)
	}
	record := goqu.Record{}
	for _, f := range t.model.Fields() {
		v := t.value(rec, f)
		switch {
		case f.Name == t.model.ID && isZero(v):
			if t.model.Generated {
				record[f.Column] = goqu.Default()
				continue
			}
			if t.newID == nil {
				return nil, apperrors.NewValidationErrorf("%s requires field %q", t.model.Name, f.Name)
			}
			v = t.newID()
		case f.Kind == query.KindTime && !f.Nullable && isZero(v):
			v = now
		}
		record[f.Column] = v
	}
	return record, nil
}

// setRecord converts an update payload into a column record and refreshes
// the model's updated-at field unless the payload sets it.
func (t *table[T]) setRecord(data query.Data, now time.Time) (goqu.Record, error) {
	if err := t.model.ValidateData(data); err != nil {
		return nil, err
	}
	record := goqu.Record{}
	for name, raw := range data {
		f, _ := t.model.Field(name)
		col := goqu.C(f.Column)
		if op, ok := raw.(query.NumberOp); ok {
			n, err := t.model.Coerce(name, op.Value)
			if err != nil {
				return nil, err
			}
			switch op.Op {
			case "increment":
				record[f.Column] = goqu.L("? + ?", col, n)
			case "decrement":
				record[f.Column] = goqu.L("? - ?", col, n)
			case "multiply":
				record[f.Column] = goqu.L("? * ?", col, n)
			case "divide":
				record[f.Column] = goqu.L("? / ?", col, n)
			}
			continue
		}
		v, err := t.model.Coerce(name, raw)
		if err != nil {
			return nil, err
		}
		record[f.Column] = v
	}
	if t.model.UpdatedAt != "" {
		if _, set := data[t.model.UpdatedAt]; !set {
			f, _ := t.model.Field(t.model.UpdatedAt)
			record[f.Column] = now
		}
	}
	return record, nil
}

func (t *table[T]) validateInclude(include []string) error {
	for _, name := range include {
		if _, ok := t.relations[name]; !ok {
			return apperrors.NewValidationErrorf("unknown relation %q on %s", name, t.model.Name)
		}
	}
	return nil
}

func (t *table[T]) loadIncludes(ctx context.Context, rows []*T, include []string) error {
	if len(rows) == 0 {
		return nil
	}
	for _, name := range include {
		if err := t.relations[name](ctx, rows); err != nil {
			return err
		}
	}
	return nil
}

// FindUnique returns the row matching where, or nil when there is none.
func (t *table[T]) FindUnique(ctx context.Context, where query.Unique, include ...string) (*T, error) {
	var out *T
	err := t.s.run(ctx, t.name(), "findUnique", func(ctx context.Context) error {
		if err := t.validateInclude(include); err != nil {
			return err
		}
		rec, err := t.findUnique(ctx, where)
		if err != nil || rec == nil {
			return err
		}
		if err := t.loadIncludes(ctx, []*T{rec}, include); err != nil {
			return err
		}
		out = rec
		return nil
	})
	return out, err
}

// FindUniqueOrThrow is FindUnique failing with NOT_FOUND when no row matches.
func (t *table[T]) FindUniqueOrThrow(ctx context.Context, where query.Unique, include ...string) (*T, error) {
	rec, err := t.FindUnique(ctx, where, include...)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperrors.NewNotFoundError(t.model.Name + " not found")
	}
	return rec, nil
}

func (t *table[T]) findUnique(ctx context.Context, where query.Unique) (*T, error) {
	cond, err := t.uniqueExpression(where)
	if err != nil {
		return nil, err
	}
	ds := dialect.From(t.name()).Prepared(true).
		Select(t.returning()...).
		Where(cond).
		Limit(1)

	rec := new(T)
	if err := t.s.get(ctx, t.name(), rec, ds); err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// FindFirst returns the first row of FindMany, or nil.
func (t *table[T]) FindFirst(ctx context.Context, args query.FindArgs) (*T, error) {
	switch {
	case args.Take != nil && *args.Take < 0:
		args.Take = query.TakeN(-1)
	default:
		args.Take = query.TakeN(1)
	}
	var out *T
	err := t.s.run(ctx, t.name(), "findFirst", func(ctx context.Context) error {
		rows, err := t.findMany(ctx, args)
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			out = rows[0]
		}
		return nil
	})
	return out, err
}

// FindFirstOrThrow is FindFirst failing with NOT_FOUND when no row matches.
func (t *table[T]) FindFirstOrThrow(ctx context.Context, args query.FindArgs) (*T, error) {
	rec, err := t.FindFirst(ctx, args)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperrors.NewNotFoundError(t.model.Name + " not found")
	}
	return rec, nil
}

// FindMany returns every row matching args.
func (t *table[T]) FindMany(ctx context.Context, args query.FindArgs) ([]*T, error) {
	var out []*T
	err := t.s.run(ctx, t.name(), "findMany", func(ctx context.Context) error {
		rows, err := t.findMany(ctx, args)
		out = rows
		return err
	})
	return out, err
}

// Create inserts a row and returns it with server-assigned values.
func (t *table[T]) Create(ctx context.Context, rec *T) (*T, error) {
	var out *T
	err := t.s.run(ctx, t.name(), "create", func(ctx context.Context) error {
		created, err := t.create(ctx, rec)
		out = created
		return err
	})
	return out, err
}

func (t *table[T]) create(ctx context.Context, rec *T) (*T, error) {
	record, err := t.insertRecord(rec, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	ds := dialect.Insert(t.name()).Prepared(true).
		Rows(record).
		Returning(t.returning()...)

	created := new(T)
	if err := t.s.get(ctx, t.name(), created, ds); err != nil {
		return nil, err
	}
	return created, nil
}

// CreateMany inserts every record in a single statement.
func (t *table[T]) CreateMany(ctx context.Context, records []*T, skipDuplicates bool) (int64, error) {
	var count int64
	err := t.s.run(ctx, t.name(), "createMany", func(ctx context.Context) error {
		if len(records) == 0 {
			return nil
		}
		now := time.Now().UTC()
		rows := make([]interface{}, len(records))
		for i, rec := range records {
			record, err := t.insertRecord(rec, now)
			if err != nil {
				return err
			}
			rows[i] = record
		}

		ds := dialect.Insert(t.name()).Prepared(true).Rows(rows...)
		if skipDuplicates {
			ds = ds.OnConflict(goqu.DoNothing())
		}
		n, err := t.s.exec(ctx, t.name(), ds)
		count = n
		return err
	})
	return count, err
}

// Update applies data to the row matching where and returns the new row.
func (t *table[T]) Update(ctx context.Context, where query.Unique, data query.Data) (*T, error) {
	var out *T
	err := t.s.run(ctx, t.name(), "update", func(ctx context.Context) error {
		updated, err := t.update(ctx, where, data)
		out = updated
		return err
	})
	return out, err
}

func (t *table[T]) update(ctx context.Context, where query.Unique, data query.Data) (*T, error) {
	cond, err := t.uniqueExpression(where)
	if err != nil {
		return nil, err
	}
	record, err := t.setRecord(data, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	ds := dialect.Update(t.name()).Prepared(true).
		Set(record).
		Where(cond).
		Returning(t.returning()...)

	updated := new(T)
	if err := t.s.get(ctx, t.name(), updated, ds); err != nil {
		if isNotFoundError(err) {
			return nil, apperrors.NewNotFoundError(t.model.Name + " not found")
		}
		return nil, err
	}
	return updated, nil
}

// UpdateMany applies data to every row matching where.
func (t *table[T]) UpdateMany(ctx context.Context, where query.Filter, data query.Data) (int64, error) {
	var count int64
	err := t.s.run(ctx, t.name(), "updateMany", func(ctx context.Context) error {
		if err := where.Validate(t.model); err != nil {
			return err
		}
		cond, err := whereExpression(t.model, where)
		if err != nil {
			return err
		}
		record, err := t.setRecord(data, time.Now().UTC())
		if err != nil {
			return err
		}
		ds := dialect.Update(t.name()).Prepared(true).Set(record)
		if cond != nil {
			ds = ds.Where(cond)
		}
		n, err := t.s.exec(ctx, t.name(), ds)
		count = n
		return err
	})
	return count, err
}

// Upsert updates the row matching where, or creates it from create.
func (t *table[T]) Upsert(ctx context.Context, where query.Unique, create *T, update query.Data) (*T, error) {
	var out *T
	err := t.s.run(ctx, t.name(), "upsert", func(ctx context.Context) error {
		existing, err := t.findUnique(ctx, where)
		if err != nil {
			return err
		}
		switch {
		case existing == nil:
			out, err = t.create(ctx, create)
		case len(update) == 0:
			out = existing
		default:
			out, err = t.update(ctx, where, update)
		}
		return err
	})
	return out, err
}

// Delete removes the row matching where and returns it.
func (t *table[T]) Delete(ctx context.Context, where query.Unique) (*T, error) {
	var out *T
	err := t.s.run(ctx, t.name(), "delete", func(ctx context.Context) error {
		cond, err := t.uniqueExpression(where)
		if err != nil {
			return err
		}
		ds := dialect.Delete(t.name()).Prepared(true).
			Where(cond).
			Returning(t.returning()...)

		deleted := new(T)
		if err := t.s.get(ctx, t.name(), deleted, ds); err != nil {
			if isNotFoundError(err) {
				return apperrors.NewNotFoundError(t.model.Name + " not found")
			}
			return err
		}
		out = deleted
		return nil
	})
	return out, err
}

// DeleteMany removes every row matching where.
func (t *table[T]) DeleteMany(ctx context.Context, where query.Filter) (int64, error) {
	var count int64
	err := t.s.run(ctx, t.name(), "deleteMany", func(ctx context.Context) error {
		if err := where.Validate(t.model); err != nil {
			return err
		}
		cond, err := whereExpression(t.model, where)
		if err != nil {
			return err
		}
		ds := dialect.Delete(t.name()).Prepared(true)
		if cond != nil {
			ds = ds.Where(cond)
		}
		n, err := t.s.exec(ctx, t.name(), ds)
		count = n
		return err
	})
	return count, err
}
