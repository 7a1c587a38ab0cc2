package database

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/zatekoja/patientsurvey/internal/domain/query"
)

type orderKey struct {
	field query.Field
	dir   query.Direction
}

func (k orderKey) expression() exp.OrderedExpression {
	if k.dir == query.DirDesc {
		return goqu.C(k.field.Column).Desc()
	}
	return goqu.C(k.field.Column).Asc()
}

// window is the row range shared by find, count and aggregate.
type window struct {
	where   query.Filter
	orderBy query.OrderBy
	cursor  query.Unique
	take    *int
	skip    int
}

func (w window) paginated() bool {
	return w.cursor != nil || w.take != nil || w.skip > 0
}

func (w window) backwards() bool {
	return w.take != nil && *w.take < 0
}

// orderKeys returns the effective ordering: the requested keys followed by
// the primary key as a tie-breaker. Backwards windows flip every key.
func (t *table[T]) orderKeys(w window) []orderKey {
	keys := make([]orderKey, 0, len(w.orderBy)+1)
	hasID := false
	for _, o := range w.orderBy {
		f, _ := t.model.Field(o.Field)
		keys = append(keys, orderKey{field: f, dir: o.Direction})
		if o.Field == t.model.ID {
			hasID = true
		}
	}
	if !hasID {
		f, _ := t.model.Field(t.model.ID)
		keys = append(keys, orderKey{field: f, dir: query.DirAsc})
	}
	if w.backwards() {
		for i := range keys {
			if keys[i].dir == query.DirDesc {
				keys[i].dir = query.DirAsc
			} else {
				keys[i].dir = query.DirDesc
			}
		}
	}
	return keys
}

// windowDataset builds the filtered and ordered select for w. When paginate
// is set, skip and take are applied as OFFSET and LIMIT. found is false when
// the window is known to be empty: take is zero or the cursor row is missing.
func (t *table[T]) windowDataset(ctx context.Context, w window, columns []string, paginate bool) (ds *goqu.SelectDataset, found bool, err error) {
	if w.take != nil && *w.take == 0 {
		return nil, false, nil
	}

	var conds []exp.Expression
	where, err := whereExpression(t.model, w.where)
	if err != nil {
		return nil, false, err
	}
	if where != nil {
		conds = append(conds, where)
	}

	keys := t.orderKeys(w)
	if w.cursor != nil {
		row, err := t.findUnique(ctx, w.cursor)
		if err != nil {
			return nil, false, err
		}
		if row == nil {
			return nil, false, nil
		}
		values := make([]interface{}, len(keys))
		for i, k := range keys {
			values[i] = t.value(row, k.field)
		}
		conds = append(conds, keysetExpression(keys, values))
	}

	orders := make([]exp.OrderedExpression, len(keys))
	for i, k := range keys {
		orders[i] = k.expression()
	}

	ds = dialect.From(t.name()).Prepared(true).
		Select(columnList(columns)...).
		Order(orders...)
	if len(conds) > 0 {
		ds = ds.Where(conds...)
	}
	if paginate {
		if w.skip > 0 {
			ds = ds.Offset(uint(w.skip))
		}
		if w.take != nil {
			ds = ds.Limit(uint(abs(*w.take)))
		}
	}
	return ds, true, nil
}

// keysetExpression selects the rows at or after the cursor in the ordering
// given by keys. Postgres sorts NULLs last ascending and first descending.
func keysetExpression(keys []orderKey, values []interface{}) exp.Expression {
	var ors []exp.Expression
	var prefix []exp.Expression

	for i, k := range keys {
		col := goqu.C(k.field.Column)
		v := values[i]

		var after exp.Expression
		switch {
		case k.dir == query.DirAsc && v == nil:
			// nothing sorts after NULL
		case k.dir == query.DirAsc:
			if k.field.Nullable {
				after = goqu.Or(col.Gt(v), col.IsNull())
			} else {
				after = col.Gt(v)
			}
		case v == nil:
			after = col.IsNotNull()
		default:
			after = col.Lt(v)
		}
		if after != nil {
			ors = append(ors, goqu.And(append(append([]exp.Expression{}, prefix...), after)...))
		}

		if v == nil {
			prefix = append(prefix, col.IsNull())
		} else {
			prefix = append(prefix, col.Eq(v))
		}
	}
	ors = append(ors, goqu.And(prefix...))
	return goqu.Or(ors...)
}

func (t *table[T]) findMany(ctx context.Context, args query.FindArgs) ([]*T, error) {
	if err := args.Validate(t.model); err != nil {
		return nil, err
	}
	if err := t.validateInclude(args.Include); err != nil {
		return nil, err
	}

	w := window{where: args.Where, orderBy: args.OrderBy, cursor: args.Cursor, take: args.Take, skip: args.Skip}

	columns := t.model.Columns()
	if len(args.Select) > 0 {
		columns = t.projection(args.Select, args.Distinct)
	}

	// Distinct runs over the ordered rows, so pagination happens in memory.
	ds, found, err := t.windowDataset(ctx, w, columns, len(args.Distinct) == 0)
	if err != nil {
		return nil, err
	}
	rows := make([]*T, 0)
	if !found {
		return rows, nil
	}
	if err := t.s.selectRows(ctx, t.name(), &rows, ds); err != nil {
		return nil, err
	}

	if len(args.Distinct) > 0 {
		rows = pageRows(t.distinct(rows, args.Distinct), args.Skip, args.Take)
	}
	if w.backwards() {
		reverse(rows)
	}

	if err := t.loadIncludes(ctx, rows, args.Include); err != nil {
		return nil, err
	}
	return rows, nil
}

// projection returns the selected columns plus any needed for distinct.
func (t *table[T]) projection(sel, distinct query.FieldSet) []string {
	var cols []string
	seen := make(map[string]bool)
	for _, name := range append(append(query.FieldSet{}, sel...), distinct...) {
		f, _ := t.model.Field(name)
		if !seen[f.Column] {
			seen[f.Column] = true
			cols = append(cols, f.Column)
		}
	}
	return cols
}

// distinct keeps the first row for each combination of the given fields.
func (t *table[T]) distinct(rows []*T, fields query.FieldSet) []*T {
	seen := make(map[string]bool, len(rows))
	out := rows[:0]
	for _, row := range rows {
		key := make([]interface{}, len(fields))
		for i, name := range fields {
			f, _ := t.model.Field(name)
			key[i] = t.value(row, f)
		}
		k := fmt.Sprintf("%#v", key)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, row)
	}
	return out
}

func pageRows[T any](rows []*T, skip int, take *int) []*T {
	if skip >= len(rows) {
		return rows[:0]
	}
	rows = rows[skip:]
	if take != nil {
		n := abs(*take)
		if n < len(rows) {
			rows = rows[:n]
		}
	}
	return rows
}

func reverse[T any](rows []*T) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
