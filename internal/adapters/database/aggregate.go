package database

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/zatekoja/patientsurvey/internal/domain/query"
	apperrors "github.com/zatekoja/patientsurvey/pkg/errors"
)

// aggColumn is one selected aggregate and the alias it is read back from.
type aggColumn struct {
	fn    query.AggregateFunc
	field string
	alias string
	expr  exp.AliasedExpression
}

func (t *table[T]) aggregateOperand(fn query.AggregateFunc, name string) operand {
	var col interface{} = goqu.Star()
	if name != query.AllRows {
		f, _ := t.model.Field(name)
		col = goqu.C(f.Column)
	}
	switch fn {
	case query.AggAvg:
		return goqu.AVG(col)
	case query.AggSum:
		return goqu.SUM(col)
	case query.AggMin:
		return goqu.MIN(col)
	case query.AggMax:
		return goqu.MAX(col)
	default:
		return goqu.COUNT(col)
	}
}

func (t *table[T]) aggregateColumns(a query.Aggregates) []aggColumn {
	var cols []aggColumn
	add := func(fn query.AggregateFunc, fields query.FieldSet) {
		for _, name := range fields {
			alias := fmt.Sprintf("a%d", len(cols))
			op := t.aggregateOperand(fn, name)
			var sel exp.AliasedExpression
			switch fn {
			case query.AggAvg:
				sel = goqu.Cast(op, "DOUBLE PRECISION").As(alias)
			case query.AggSum:
				sel = goqu.Cast(op, "BIGINT").As(alias)
			default:
				sel = op.As(alias)
			}
			cols = append(cols, aggColumn{fn: fn, field: name, alias: alias, expr: sel})
		}
	}
	add(query.AggCount, a.Count)
	add(query.AggAvg, a.Avg)
	add(query.AggSum, a.Sum)
	add(query.AggMin, a.Min)
	add(query.AggMax, a.Max)
	return cols
}

func newAggregateResult(cols []aggColumn) query.AggregateResult {
	var res query.AggregateResult
	for _, c := range cols {
		switch c.fn {
		case query.AggCount:
			if res.Count == nil {
				res.Count = make(map[string]int64)
			}
			res.Count[c.field] = 0
		case query.AggAvg:
			if res.Avg == nil {
				res.Avg = make(map[string]*float64)
			}
			res.Avg[c.field] = nil
		case query.AggSum:
			if res.Sum == nil {
				res.Sum = make(map[string]interface{})
			}
			res.Sum[c.field] = nil
		case query.AggMin:
			if res.Min == nil {
				res.Min = make(map[string]interface{})
			}
			res.Min[c.field] = nil
		case query.AggMax:
			if res.Max == nil {
				res.Max = make(map[string]interface{})
			}
			res.Max[c.field] = nil
		}
	}
	return res
}

func (t *table[T]) readAggregates(cols []aggColumn, row map[string]interface{}) (query.AggregateResult, error) {
	res := newAggregateResult(cols)
	for _, c := range cols {
		v := row[c.alias]
		switch c.fn {
		case query.AggCount:
			n, ok := v.(int64)
			if !ok {
				return res, apperrors.NewInternalError("unexpected count result", fmt.Errorf("%s: %T", c.alias, v))
			}
			res.Count[c.field] = n
		case query.AggAvg:
			if f, ok := v.(float64); ok {
				res.Avg[c.field] = &f
			}
		case query.AggSum:
			res.Sum[c.field] = v
		case query.AggMin, query.AggMax:
			if v != nil {
				cv, err := t.model.Coerce(c.field, v)
				if err != nil {
					return res, apperrors.NewInternalError("unexpected aggregate result", err)
				}
				v = cv
			}
			if c.fn == query.AggMin {
				res.Min[c.field] = v
			} else {
				res.Max[c.field] = v
			}
		}
	}
	return res, nil
}

// aggregateSource returns the dataset aggregates are selected from: the table
// itself, or the paginated window as a subquery.
func (t *table[T]) aggregateSource(ctx context.Context, w window) (*goqu.SelectDataset, bool, error) {
	if !w.paginated() {
		cond, err := whereExpression(t.model, w.where)
		if err != nil {
			return nil, false, err
		}
		ds := dialect.From(t.name()).Prepared(true)
		if cond != nil {
			ds = ds.Where(cond)
		}
		return ds, true, nil
	}
	inner, found, err := t.windowDataset(ctx, w, t.model.Columns(), true)
	if err != nil || !found {
		return nil, found, err
	}
	return dialect.From(inner.As("w")).Prepared(true), true, nil
}

func (t *table[T]) aggregate(ctx context.Context, w window, a query.Aggregates) (query.AggregateResult, error) {
	cols := t.aggregateColumns(a)
	src, found, err := t.aggregateSource(ctx, w)
	if err != nil {
		return query.AggregateResult{}, err
	}
	if !found {
		return newAggregateResult(cols), nil
	}

	selects := make([]interface{}, len(cols))
	for i, c := range cols {
		selects[i] = c.expr
	}
	rows, err := t.s.selectMaps(ctx, t.name(), src.Select(selects...))
	if err != nil {
		return query.AggregateResult{}, err
	}
	if len(rows) == 0 {
		return newAggregateResult(cols), nil
	}
	return t.readAggregates(cols, rows[0])
}

// Count returns the number of rows in the window described by args.
func (t *table[T]) Count(ctx context.Context, args query.CountArgs) (int64, error) {
	args.Select = query.FieldSet{query.AllRows}
	counts, err := t.countFields(ctx, "count", args)
	if err != nil {
		return 0, err
	}
	return counts[query.AllRows], nil
}

// CountFields returns per-field non-null counts; query.AllRows counts rows.
func (t *table[T]) CountFields(ctx context.Context, args query.CountArgs) (map[string]int64, error) {
	if len(args.Select) == 0 {
		args.Select = query.FieldSet{query.AllRows}
	}
	return t.countFields(ctx, "countFields", args)
}

func (t *table[T]) countFields(ctx context.Context, op string, args query.CountArgs) (map[string]int64, error) {
	var out map[string]int64
	err := t.s.run(ctx, t.name(), op, func(ctx context.Context) error {
		if err := args.Validate(t.model); err != nil {
			return err
		}
		w := window{where: args.Where, orderBy: args.OrderBy, cursor: args.Cursor, take: args.Take, skip: args.Skip}
		res, err := t.aggregate(ctx, w, query.Aggregates{Count: args.Select})
		out = res.Count
		return err
	})
	return out, err
}

// Aggregate computes the requested aggregates over the window in args.
func (t *table[T]) Aggregate(ctx context.Context, args query.AggregateArgs) (*query.AggregateResult, error) {
	var out *query.AggregateResult
	err := t.s.run(ctx, t.name(), "aggregate", func(ctx context.Context) error {
		if err := args.Validate(t.model); err != nil {
			return err
		}
		w := window{where: args.Where, orderBy: args.OrderBy, cursor: args.Cursor, take: args.Take, skip: args.Skip}
		res, err := t.aggregate(ctx, w, args.Aggregates)
		if err != nil {
			return err
		}
		out = &res
		return nil
	})
	return out, err
}

// GroupBy groups rows by args.By and computes aggregates per group.
func (t *table[T]) GroupBy(ctx context.Context, args query.GroupByArgs) ([]query.GroupRow, error) {
	var out []query.GroupRow
	err := t.s.run(ctx, t.name(), "groupBy", func(ctx context.Context) error {
		rows, err := t.groupBy(ctx, args)
		out = rows
		return err
	})
	return out, err
}

func (t *table[T]) groupBy(ctx context.Context, args query.GroupByArgs) ([]query.GroupRow, error) {
	if err := args.Validate(t.model); err != nil {
		return nil, err
	}
	out := make([]query.GroupRow, 0)
	if args.Take != nil && *args.Take == 0 {
		return out, nil
	}

	cols := t.aggregateColumns(args.Aggregates)
	selects := make([]interface{}, 0, len(args.By)+len(cols))
	groups := make([]interface{}, len(args.By))
	for i, name := range args.By {
		f, _ := t.model.Field(name)
		groups[i] = goqu.C(f.Column)
		selects = append(selects, goqu.C(f.Column).As(fmt.Sprintf("g%d", i)))
	}
	for _, c := range cols {
		selects = append(selects, c.expr)
	}

	ds := dialect.From(t.name()).Prepared(true).Select(selects...).GroupBy(groups...)

	cond, err := whereExpression(t.model, args.Where)
	if err != nil {
		return nil, err
	}
	if cond != nil {
		ds = ds.Where(cond)
	}

	having, err := t.havingExpression(args.Having)
	if err != nil {
		return nil, err
	}
	if having != nil {
		ds = ds.Having(having)
	}

	backwards := args.Take != nil && *args.Take < 0
	if len(args.OrderBy) > 0 {
		orders := make([]exp.OrderedExpression, len(args.OrderBy))
		for i, o := range args.OrderBy {
			if backwards {
				o = o.Reversed()
			}
			orders[i] = t.groupOrder(o)
		}
		ds = ds.Order(orders...)
	}
	if args.Skip > 0 {
		ds = ds.Offset(uint(args.Skip))
	}
	if args.Take != nil {
		ds = ds.Limit(uint(abs(*args.Take)))
	}

	maps, err := t.s.selectMaps(ctx, t.name(), ds)
	if err != nil {
		return nil, err
	}
	for _, m := range maps {
		row := query.GroupRow{Keys: make(map[string]interface{}, len(args.By))}
		for i, name := range args.By {
			v := m[fmt.Sprintf("g%d", i)]
			if v != nil {
				cv, err := t.model.Coerce(name, v)
				if err != nil {
					return nil, apperrors.NewInternalError("unexpected group key", err)
				}
				v = cv
			}
			row.Keys[name] = v
		}
		res, err := t.readAggregates(cols, m)
		if err != nil {
			return nil, err
		}
		row.AggregateResult = res
		out = append(out, row)
	}
	if backwards {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

func (t *table[T]) groupOrder(o query.Order) exp.OrderedExpression {
	var target exp.Orderable
	if o.Aggregate == "" {
		f, _ := t.model.Field(o.Field)
		target = goqu.C(f.Column)
	} else {
		target = t.aggregateOperand(o.Aggregate, o.Field)
	}
	if o.Direction == query.DirDesc {
		return target.Desc()
	}
	return target.Asc()
}

func (t *table[T]) havingExpression(h query.Having) (exp.Expression, error) {
	var parts []exp.Expression

	for _, name := range sortedNames(h.Fields) {
		f, _ := t.model.Field(name)
		field := name
		e, err := conditionExpression(goqu.C(f.Column), h.Fields[name], func(v interface{}) (interface{}, error) {
			return t.model.Coerce(field, v)
		})
		if err != nil {
			return nil, err
		}
		parts = append(parts, e)
	}

	for _, ac := range h.Aggregates {
		coerce := numericValue
		if ac.Func == query.AggMin || ac.Func == query.AggMax {
			field := ac.Field
			coerce = func(v interface{}) (interface{}, error) { return t.model.Coerce(field, v) }
		}
		e, err := conditionExpression(t.aggregateOperand(ac.Func, ac.Field), ac.Condition, coerce)
		if err != nil {
			return nil, err
		}
		parts = append(parts, e)
	}

	for _, sub := range h.AND {
		e, err := t.havingExpression(sub)
		if err != nil {
			return nil, err
		}
		if e != nil {
			parts = append(parts, e)
		}
	}
	if len(h.OR) > 0 {
		var ors []exp.Expression
		for _, sub := range h.OR {
			e, err := t.havingExpression(sub)
			if err != nil {
				return nil, err
			}
			if e == nil {
				e = alwaysTrue
			}
			ors = append(ors, e)
		}
		parts = append(parts, goqu.Or(ors...))
	}
	if len(h.NOT) > 0 {
		var nots []exp.Expression
		for _, sub := range h.NOT {
			e, err := t.havingExpression(sub)
			if err != nil {
				return nil, err
			}
			if e == nil {
				e = alwaysTrue
			}
			nots = append(nots, e)
		}
		parts = append(parts, goqu.L("NOT (?)", goqu.Or(nots...)))
	}

	switch len(parts) {
	case 0:
		return nil, nil
	case 1:
		return parts[0], nil
	default:
		return goqu.And(parts...), nil
	}
}

func sortedNames(m map[string]query.Condition) []string {
	return query.Filter{Fields: m}.FieldNames()
}
