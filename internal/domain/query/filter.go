package query

import (
	"sort"

	apperrors "github.com/zatekoja/patientsurvey/pkg/errors"
)

// Operator is a field comparison understood by the filter tree.
type Operator string

const (
	OpEquals     Operator = "equals"
	OpNot        Operator = "not"
	OpIn         Operator = "in"
	OpNotIn      Operator = "notIn"
	OpLt         Operator = "lt"
	OpLte        Operator = "lte"
	OpGt         Operator = "gt"
	OpGte        Operator = "gte"
	OpContains   Operator = "contains"
	OpStartsWith Operator = "startsWith"
	OpEndsWith   Operator = "endsWith"
)

func (op Operator) valid() bool {
	switch op {
	case OpEquals, OpNot, OpIn, OpNotIn, OpLt, OpLte, OpGt, OpGte, OpContains, OpStartsWith, OpEndsWith:
		return true
	}
	return false
}

func (op Operator) textual() bool {
	return op == OpContains || op == OpStartsWith || op == OpEndsWith
}

func (op Operator) ordering() bool {
	return op == OpLt || op == OpLte || op == OpGt || op == OpGte
}

// Predicate is one operator applied to a value.
type Predicate struct {
	Op    Operator
	Value interface{}
}

// Condition is the conjunction of predicates applied to a single field.
type Condition struct {
	Predicates []Predicate
	// Insensitive makes equality and text operators case-insensitive.
	Insensitive bool
}

// Eq matches rows whose field equals v; a nil v matches NULL.
func Eq(v interface{}) Condition { return Condition{Predicates: []Predicate{{OpEquals, v}}} }

// Ne matches rows whose field differs from v; a nil v matches NOT NULL.
func Ne(v interface{}) Condition { return Condition{Predicates: []Predicate{{OpNot, v}}} }

// In matches rows whose field is one of vs.
func In(vs ...interface{}) Condition { return Condition{Predicates: []Predicate{{OpIn, vs}}} }

// InValues is In for a typed slice.
func InValues[T any](vs []T) Condition {
	values := make([]interface{}, len(vs))
	for i, v := range vs {
		values[i] = v
	}
	return Condition{Predicates: []Predicate{{OpIn, values}}}
}

// NotIn matches rows whose field is none of vs.
func NotIn(vs ...interface{}) Condition { return Condition{Predicates: []Predicate{{OpNotIn, vs}}} }

func Lt(v interface{}) Condition  { return Condition{Predicates: []Predicate{{OpLt, v}}} }
func Lte(v interface{}) Condition { return Condition{Predicates: []Predicate{{OpLte, v}}} }
func Gt(v interface{}) Condition  { return Condition{Predicates: []Predicate{{OpGt, v}}} }
func Gte(v interface{}) Condition { return Condition{Predicates: []Predicate{{OpGte, v}}} }

// Contains matches string fields containing s.
func Contains(s string) Condition { return Condition{Predicates: []Predicate{{OpContains, s}}} }

// StartsWith matches string fields with prefix s.
func StartsWith(s string) Condition { return Condition{Predicates: []Predicate{{OpStartsWith, s}}} }

// EndsWith matches string fields with suffix s.
func EndsWith(s string) Condition { return Condition{Predicates: []Predicate{{OpEndsWith, s}}} }

// Fold returns a copy of c that compares case-insensitively.
func (c Condition) Fold() Condition {
	c.Insensitive = true
	return c
}

// And merges the predicates of other into c.
func (c Condition) And(other Condition) Condition {
	merged := make([]Predicate, 0, len(c.Predicates)+len(other.Predicates))
	merged = append(merged, c.Predicates...)
	merged = append(merged, other.Predicates...)
	return Condition{Predicates: merged, Insensitive: c.Insensitive || other.Insensitive}
}

// Filter is a composable predicate tree. Field conditions, AND, OR and NOT
// branches at the same level are combined with AND; an empty Filter matches
// every row.
type Filter struct {
	AND    []Filter
	OR     []Filter
	NOT    []Filter
	Fields map[string]Condition
}

// Where builds a filter with a single field condition.
func Where(field string, c Condition) Filter {
	return Filter{Fields: map[string]Condition{field: c}}
}

// And combines filters so that all must match.
func And(filters ...Filter) Filter { return Filter{AND: filters} }

// Or combines filters so that at least one must match.
func Or(filters ...Filter) Filter { return Filter{OR: filters} }

// Not matches rows matching none of filters.
func Not(filters ...Filter) Filter { return Filter{NOT: filters} }

// With returns a copy of f with an extra field condition, merged with any
// condition already present for the field.
func (f Filter) With(field string, c Condition) Filter {
	fields := make(map[string]Condition, len(f.Fields)+1)
	for k, v := range f.Fields {
		fields[k] = v
	}
	if existing, ok := fields[field]; ok {
		c = existing.And(c)
	}
	fields[field] = c
	f.Fields = fields
	return f
}

// IsEmpty reports whether the filter has no conditions at all.
func (f Filter) IsEmpty() bool {
	return len(f.AND) == 0 && len(f.OR) == 0 && len(f.NOT) == 0 && len(f.Fields) == 0
}

// FieldNames returns the field names of this level in sorted order.
func (f Filter) FieldNames() []string {
	names := make([]string, 0, len(f.Fields))
	for name := range f.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks every field and operator against m.
func (f Filter) Validate(m *Model) error {
	for _, name := range f.FieldNames() {
		field, err := m.field(name)
		if err != nil {
			return err
		}
		if err := f.Fields[name].validate(field); err != nil {
			return err
		}
	}
	for _, branch := range [][]Filter{f.AND, f.OR, f.NOT} {
		for _, sub := range branch {
			if err := sub.Validate(m); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c Condition) validate(f Field) error {
	if len(c.Predicates) == 0 {
		return validationf("empty condition on field %q", f.Name)
	}
	for _, p := range c.Predicates {
		if !p.Op.valid() {
			return validationf("unknown operator %q on field %q", p.Op, f.Name)
		}
		if p.Op.textual() && f.Kind != KindString {
			return validationf("operator %q requires a string field, %q is %s", p.Op, f.Name, f.Kind)
		}
		if p.Op.ordering() && !f.Orderable() {
			return validationf("operator %q is not supported on %s field %q", p.Op, f.Kind, f.Name)
		}
		if p.Value == nil {
			switch p.Op {
			case OpEquals, OpNot:
				if !f.Nullable {
					return validationf("field %q is not nullable", f.Name)
				}
				continue
			default:
				return validationf("operator %q on field %q requires a value", p.Op, f.Name)
			}
		}
		if p.Op == OpIn || p.Op == OpNotIn {
			if _, ok := p.Value.([]interface{}); !ok {
				return validationf("operator %q on field %q requires a list", p.Op, f.Name)
			}
		}
	}
	if c.Insensitive && f.Kind != KindString {
		return validationf("insensitive mode requires a string field, %q is %s", f.Name, f.Kind)
	}
	return nil
}

func validationf(format string, args ...interface{}) error {
	return apperrors.NewValidationErrorf(format, args...)
}
