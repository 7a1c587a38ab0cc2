package query

import "sort"

// ValidateUnique checks that u names exactly one unique field with a value.
func (m *Model) ValidateUnique(u Unique) error {
	if len(u) != 1 {
		return validationf("%s unique selector must name exactly one unique field, got %d", m.Name, len(u))
	}
	for name, v := range u {
		if _, err := m.field(name); err != nil {
			return err
		}
		if !m.IsUnique(name) {
			return validationf("field %q is not unique on %s", name, m.Name)
		}
		if v == nil {
			return validationf("unique field %q requires a value", name)
		}
		if _, err := m.Coerce(name, v); err != nil {
			return err
		}
	}
	return nil
}

// ValidateData checks an update payload against the model.
func (m *Model) ValidateData(d Data) error {
	if len(d) == 0 {
		return validationf("update of %s has no fields", m.Name)
	}
	for _, name := range sortedKeys(d) {
		f, err := m.field(name)
		if err != nil {
			return err
		}
		switch v := d[name].(type) {
		case nil:
			if !f.Nullable {
				return validationf("field %q is not nullable", name)
			}
		case NumberOp:
			if !f.Numeric() {
				return validationf("%s requires a numeric field, %q is %s", v.Op, name, f.Kind)
			}
			switch v.Op {
			case "increment", "decrement", "multiply", "divide":
			default:
				return validationf("unknown numeric operation %q on %q", v.Op, name)
			}
			if _, err := m.Coerce(name, v.Value); err != nil {
				return err
			}
		default:
			if _, err := m.Coerce(name, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// Validate checks find arguments against m.
func (a FindArgs) Validate(m *Model) error {
	if len(a.Select) > 0 && len(a.Include) > 0 {
		return validationf("select and include cannot be used together on %s", m.Name)
	}
	if err := validateWindow(m, a.Where, a.OrderBy, a.Cursor, a.Skip); err != nil {
		return err
	}
	for _, name := range a.Distinct {
		if _, err := m.field(name); err != nil {
			return err
		}
	}
	for _, name := range a.Select {
		if _, err := m.field(name); err != nil {
			return err
		}
	}
	for _, name := range a.Include {
		if !m.HasRelation(name) {
			return validationf("unknown relation %q on %s", name, m.Name)
		}
	}
	return nil
}

// Validate checks count arguments against m.
func (a CountArgs) Validate(m *Model) error {
	if err := validateWindow(m, a.Where, a.OrderBy, a.Cursor, a.Skip); err != nil {
		return err
	}
	for _, name := range a.Select {
		if name == AllRows {
			continue
		}
		if _, err := m.field(name); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks aggregate arguments against m.
func (a AggregateArgs) Validate(m *Model) error {
	if err := validateWindow(m, a.Where, a.OrderBy, a.Cursor, a.Skip); err != nil {
		return err
	}
	if a.Aggregates.Empty() {
		return validationf("aggregate on %s selects no aggregates", m.Name)
	}
	return a.Aggregates.validate(m)
}

// Validate checks groupBy arguments against m. Scalar fields referenced by
// orderBy or having must be part of the grouping key.
func (a GroupByArgs) Validate(m *Model) error {
	if len(a.By) == 0 {
		return validationf("groupBy on %s requires at least one field in by", m.Name)
	}
	for _, name := range a.By {
		if _, err := m.field(name); err != nil {
			return err
		}
	}
	if err := a.Where.Validate(m); err != nil {
		return err
	}
	if a.Skip < 0 {
		return validationf("skip must not be negative")
	}
	if (a.Take != nil || a.Skip > 0) && len(a.OrderBy) == 0 {
		return validationf("groupBy on %s with take or skip requires orderBy", m.Name)
	}
	for _, o := range a.OrderBy {
		if err := validateDirection(o); err != nil {
			return err
		}
		if o.Aggregate == "" {
			if !a.By.Contains(o.Field) {
				return validationf("orderBy field %q must be included in by", o.Field)
			}
			continue
		}
		if err := validateAggregate(m, o.Aggregate, o.Field); err != nil {
			return err
		}
	}
	if err := a.Having.validate(m, a.By); err != nil {
		return err
	}
	return a.Aggregates.validate(m)
}

func (h Having) validate(m *Model, by FieldSet) error {
	names := make([]string, 0, len(h.Fields))
	for name := range h.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		f, err := m.field(name)
		if err != nil {
			return err
		}
		if !by.Contains(name) {
			return validationf("having field %q must be included in by", name)
		}
		if err := h.Fields[name].validate(f); err != nil {
			return err
		}
	}
	for _, ac := range h.Aggregates {
		if err := validateAggregate(m, ac.Func, ac.Field); err != nil {
			return err
		}
		if len(ac.Condition.Predicates) == 0 {
			return validationf("empty %s condition on %q", ac.Func, ac.Field)
		}
		for _, p := range ac.Condition.Predicates {
			if p.Op.textual() || !p.Op.valid() {
				return validationf("operator %q is not supported on aggregates", p.Op)
			}
		}
	}
	for _, branch := range [][]Having{h.AND, h.OR, h.NOT} {
		for _, sub := range branch {
			if err := sub.validate(m, by); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a Aggregates) validate(m *Model) error {
	sets := []struct {
		fn     AggregateFunc
		fields FieldSet
	}{
		{AggCount, a.Count}, {AggAvg, a.Avg}, {AggSum, a.Sum}, {AggMin, a.Min}, {AggMax, a.Max},
	}
	for _, s := range sets {
		for _, name := range s.fields {
			if err := validateAggregate(m, s.fn, name); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateAggregate(m *Model, fn AggregateFunc, name string) error {
	if fn == AggCount && name == AllRows {
		return nil
	}
	f, err := m.field(name)
	if err != nil {
		return err
	}
	switch fn {
	case AggCount:
		return nil
	case AggAvg, AggSum:
		if !f.Numeric() {
			return validationf("%s requires a numeric field, %q is %s", fn, name, f.Kind)
		}
	case AggMin, AggMax:
		if !f.Orderable() {
			return validationf("%s is not supported on %s field %q", fn, f.Kind, name)
		}
	default:
		return validationf("unknown aggregate %q", fn)
	}
	return nil
}

func validateWindow(m *Model, where Filter, orderBy OrderBy, cursor Unique, skip int) error {
	if err := where.Validate(m); err != nil {
		return err
	}
	for _, o := range orderBy {
		if o.Aggregate != "" {
			return validationf("ordering by %s is only supported by groupBy", o.Aggregate)
		}
		if _, err := m.field(o.Field); err != nil {
			return err
		}
		if err := validateDirection(o); err != nil {
			return err
		}
	}
	if cursor != nil {
		if err := m.ValidateUnique(cursor); err != nil {
			return err
		}
	}
	if skip < 0 {
		return validationf("skip must not be negative")
	}
	return nil
}

func validateDirection(o Order) error {
	switch o.Direction {
	case DirAsc, DirDesc:
		return nil
	default:
		return validationf("invalid direction %q for %q", o.Direction, o.Field)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
