package database

import (
	"encoding/json"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/zatekoja/patientsurvey/internal/domain/query"
	apperrors "github.com/zatekoja/patientsurvey/pkg/errors"
)

// operand is the left-hand side of a comparison: a column or an aggregate.
type operand interface {
	exp.Expression
	exp.Aliaseable
	exp.Orderable
	exp.Comparable
	exp.Inable
	exp.Isable
	exp.Likeable
}

var (
	alwaysTrue  = goqu.L("TRUE")
	alwaysFalse = goqu.L("FALSE")
)

// whereExpression translates a filter tree into a goqu expression. It
// returns nil when the filter matches every row.
func whereExpression(m *query.Model, f query.Filter) (exp.Expression, error) {
	var parts []exp.Expression

	for _, name := range f.FieldNames() {
		field, ok := m.Field(name)
		if !ok {
			return nil, apperrors.NewValidationErrorf("unknown field %q on %s", name, m.Name)
		}
		e, err := conditionExpression(goqu.C(field.Column), f.Fields[name], func(v interface{}) (interface{}, error) {
			return m.Coerce(name, v)
		})
		if err != nil {
			return nil, err
		}
		parts = append(parts, e)
	}

	for _, sub := range f.AND {
		e, err := whereExpression(m, sub)
		if err != nil {
			return nil, err
		}
		if e != nil {
			parts = append(parts, e)
		}
	}

	if len(f.OR) > 0 {
		var ors []exp.Expression
		for _, sub := range f.OR {
			e, err := whereExpression(m, sub)
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

	if len(f.NOT) > 0 {
		var nots []exp.Expression
		for _, sub := range f.NOT {
			e, err := whereExpression(m, sub)
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

// conditionExpression applies every predicate of c to col. coerce converts
// filter values to the column's Go type.
func conditionExpression(col operand, c query.Condition, coerce func(interface{}) (interface{}, error)) (exp.Expression, error) {
	var parts []exp.Expression
	for _, p := range c.Predicates {
		e, err := predicateExpression(col, p, c.Insensitive, coerce)
		if err != nil {
			return nil, err
		}
		parts = append(parts, e)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return goqu.And(parts...), nil
}

func predicateExpression(col operand, p query.Predicate, insensitive bool, coerce func(interface{}) (interface{}, error)) (exp.Expression, error) {
	switch p.Op {
	case query.OpIn, query.OpNotIn:
		list, ok := p.Value.([]interface{})
		if !ok {
			return nil, apperrors.NewValidationErrorf("operator %q requires a list", p.Op)
		}
		if len(list) == 0 {
			if p.Op == query.OpIn {
				return alwaysFalse, nil
			}
			return alwaysTrue, nil
		}
		values := make([]interface{}, len(list))
		for i, item := range list {
			v, err := coerce(item)
			if err != nil {
				return nil, err
			}
			if insensitive {
				if s, ok := v.(string); ok {
					v = strings.ToLower(s)
				}
			}
			values[i] = v
		}
		target := col
		if insensitive {
			target = goqu.Func("LOWER", col)
		}
		if p.Op == query.OpIn {
			return target.In(values...), nil
		}
		return target.NotIn(values...), nil
	}

	v, err := coerce(p.Value)
	if err != nil {
		return nil, err
	}

	switch p.Op {
	case query.OpEquals:
		if v == nil {
			return col.IsNull(), nil
		}
		if s, ok := v.(string); ok && insensitive {
			return col.ILike(escapeLike(s)), nil
		}
		return col.Eq(v), nil
	case query.OpNot:
		if v == nil {
			return col.IsNotNull(), nil
		}
		if s, ok := v.(string); ok && insensitive {
			return col.NotILike(escapeLike(s)), nil
		}
		return col.Neq(v), nil
	case query.OpLt:
		return col.Lt(v), nil
	case query.OpLte:
		return col.Lte(v), nil
	case query.OpGt:
		return col.Gt(v), nil
	case query.OpGte:
		return col.Gte(v), nil
	case query.OpContains, query.OpStartsWith, query.OpEndsWith:
		s, ok := v.(string)
		if !ok {
			return nil, apperrors.NewValidationErrorf("operator %q requires a string value", p.Op)
		}
		pattern := escapeLike(s)
		switch p.Op {
		case query.OpContains:
			pattern = "%" + pattern + "%"
		case query.OpStartsWith:
			pattern = pattern + "%"
		default:
			pattern = "%" + pattern
		}
		if insensitive {
			return col.ILike(pattern), nil
		}
		return col.Like(pattern), nil
	}
	return nil, apperrors.NewValidationErrorf("unknown operator %q", p.Op)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes LIKE wildcards using Postgres' default escape character.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// numericValue coerces a having value compared against _count/_avg/_sum.
func numericValue(v interface{}) (interface{}, error) {
	switch n := v.(type) {
	case nil:
		return nil, nil
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return nil, apperrors.NewValidationErrorf("expected a number, got %s", n)
		}
		return f, nil
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return n, nil
	}
	return nil, apperrors.NewValidationErrorf("expected a number, got %T", v)
}
