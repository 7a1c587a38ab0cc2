package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// The JSON forms below follow the request shapes accepted by the HTTP API:
//
//	{"locationId": 3, "overall": {"in": ["4","5"]}, "OR": [{...}, {...}]}
//	[{"submittedAt": "desc"}, {"id": "asc"}]
//	{"by": ["locationId"], "_count": {"_all": true}, "having": {"rating": {"_avg": {"gt": 3}}}}

type member struct {
	Key   string
	Value json.RawMessage
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

func firstByte(data []byte) byte {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

// decodeObject reads a JSON object keeping member order.
func decodeObject(data []byte) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected a JSON object")
	}

	var members []member
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected an object key")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		members = append(members, member{Key: key, Value: raw})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return members, nil
}

// decodeValue decodes a scalar or list keeping numbers as json.Number.
func decodeValue(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func invalidJSON(format string, args ...interface{}) error {
	return validationf("invalid query: "+format, args...)
}

// UnmarshalJSON decodes a filter tree.
func (f *Filter) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		*f = Filter{}
		return nil
	}
	members, err := decodeObject(data)
	if err != nil {
		return invalidJSON("where: %v", err)
	}

	out := Filter{}
	for _, m := range members {
		switch m.Key {
		case "AND", "OR", "NOT":
			list, err := decodeFilterList(m.Value)
			if err != nil {
				return err
			}
			switch m.Key {
			case "AND":
				out.AND = append(out.AND, list...)
			case "OR":
				out.OR = append(out.OR, list...)
			default:
				out.NOT = append(out.NOT, list...)
			}
		default:
			cond, err := decodeCondition(m.Key, m.Value)
			if err != nil {
				return err
			}
			out = out.With(m.Key, cond)
		}
	}
	*f = out
	return nil
}

func decodeFilterList(data []byte) ([]Filter, error) {
	if firstByte(data) == '[' {
		var list []Filter
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	var single Filter
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, err
	}
	return []Filter{single}, nil
}

func decodeCondition(field string, data []byte) (Condition, error) {
	if firstByte(data) != '{' {
		v, err := decodeValue(data)
		if err != nil {
			return Condition{}, invalidJSON("field %q: %v", field, err)
		}
		return Eq(v), nil
	}
	members, err := decodeObject(data)
	if err != nil {
		return Condition{}, invalidJSON("field %q: %v", field, err)
	}
	return conditionFromMembers(field, members)
}

func conditionFromMembers(field string, members []member) (Condition, error) {
	var cond Condition
	for _, m := range members {
		if m.Key == "mode" {
			var mode string
			if err := json.Unmarshal(m.Value, &mode); err != nil {
				return Condition{}, invalidJSON("field %q: mode must be a string", field)
			}
			switch mode {
			case "insensitive":
				cond.Insensitive = true
			case "default":
			default:
				return Condition{}, invalidJSON("field %q: unknown mode %q", field, mode)
			}
			continue
		}

		op := Operator(m.Key)
		if !op.valid() {
			return Condition{}, invalidJSON("field %q: unknown operator %q", field, m.Key)
		}
		if op == OpNot && firstByte(m.Value) == '{' {
			return Condition{}, invalidJSON("field %q: nested not conditions are not supported, use NOT", field)
		}
		v, err := decodeValue(m.Value)
		if err != nil {
			return Condition{}, invalidJSON("field %q: %v", field, err)
		}
		cond.Predicates = append(cond.Predicates, Predicate{Op: op, Value: v})
	}
	return cond, nil
}

// UnmarshalJSON accepts a single {"field": "asc"} object or a list of them.
// Aggregate orderings use {"_count": {"field": "desc"}}.
func (o *OrderBy) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		*o = nil
		return nil
	}
	var objects []json.RawMessage
	if firstByte(data) == '[' {
		if err := json.Unmarshal(data, &objects); err != nil {
			return invalidJSON("orderBy: %v", err)
		}
	} else {
		objects = []json.RawMessage{data}
	}

	var out OrderBy
	for _, raw := range objects {
		members, err := decodeObject(raw)
		if err != nil {
			return invalidJSON("orderBy: %v", err)
		}
		for _, m := range members {
			if strings.HasPrefix(m.Key, "_") {
				inner, err := decodeObject(m.Value)
				if err != nil {
					return invalidJSON("orderBy %s: %v", m.Key, err)
				}
				for _, im := range inner {
					dir, err := decodeDirection(im)
					if err != nil {
						return err
					}
					out = append(out, Order{Field: im.Key, Direction: dir, Aggregate: AggregateFunc(m.Key)})
				}
				continue
			}
			dir, err := decodeDirection(m)
			if err != nil {
				return err
			}
			out = append(out, Order{Field: m.Key, Direction: dir})
		}
	}
	*o = out
	return nil
}

func decodeDirection(m member) (Direction, error) {
	var dir string
	if err := json.Unmarshal(m.Value, &dir); err != nil {
		return "", invalidJSON("orderBy %q: direction must be \"asc\" or \"desc\"", m.Key)
	}
	return Direction(dir), nil
}

// UnmarshalJSON accepts ["a","b"], {"a":true,"b":false} or true (all rows).
func (s *FieldSet) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		*s = nil
		return nil
	}
	switch firstByte(data) {
	case '[':
		var names []string
		if err := json.Unmarshal(data, &names); err != nil {
			return invalidJSON("field list: %v", err)
		}
		*s = names
		return nil
	case '{':
		members, err := decodeObject(data)
		if err != nil {
			return invalidJSON("field set: %v", err)
		}
		var names FieldSet
		for _, m := range members {
			var on bool
			if err := json.Unmarshal(m.Value, &on); err != nil {
				return invalidJSON("field set %q: expected true or false", m.Key)
			}
			if on {
				names = append(names, m.Key)
			}
		}
		*s = names
		return nil
	default:
		var on bool
		if err := json.Unmarshal(data, &on); err != nil {
			return invalidJSON("field set: expected list, object or boolean")
		}
		if on {
			*s = FieldSet{AllRows}
		} else {
			*s = nil
		}
		return nil
	}
}

// UnmarshalJSON decodes a having clause. Members starting with "_" inside a
// field object are aggregate conditions: {"rating": {"_avg": {"gte": 4}}}.
func (h *Having) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		*h = Having{}
		return nil
	}
	members, err := decodeObject(data)
	if err != nil {
		return invalidJSON("having: %v", err)
	}

	out := Having{}
	for _, m := range members {
		switch m.Key {
		case "AND", "OR", "NOT":
			var list []Having
			if firstByte(m.Value) == '[' {
				if err := json.Unmarshal(m.Value, &list); err != nil {
					return err
				}
			} else {
				var single Having
				if err := json.Unmarshal(m.Value, &single); err != nil {
					return err
				}
				list = []Having{single}
			}
			switch m.Key {
			case "AND":
				out.AND = append(out.AND, list...)
			case "OR":
				out.OR = append(out.OR, list...)
			default:
				out.NOT = append(out.NOT, list...)
			}
			continue
		}

		if firstByte(m.Value) != '{' {
			cond, err := decodeCondition(m.Key, m.Value)
			if err != nil {
				return err
			}
			out.setField(m.Key, cond)
			continue
		}

		inner, err := decodeObject(m.Value)
		if err != nil {
			return invalidJSON("having %q: %v", m.Key, err)
		}
		var scalar []member
		for _, im := range inner {
			if !strings.HasPrefix(im.Key, "_") {
				scalar = append(scalar, im)
				continue
			}
			cond, err := decodeCondition(m.Key, im.Value)
			if err != nil {
				return err
			}
			out.Aggregates = append(out.Aggregates, AggregateCondition{
				Func:      AggregateFunc(im.Key),
				Field:     m.Key,
				Condition: cond,
			})
		}
		if len(scalar) > 0 {
			cond, err := conditionFromMembers(m.Key, scalar)
			if err != nil {
				return err
			}
			out.setField(m.Key, cond)
		}
	}
	*h = out
	return nil
}

func (h *Having) setField(name string, c Condition) {
	if h.Fields == nil {
		h.Fields = make(map[string]Condition)
	}
	if existing, ok := h.Fields[name]; ok {
		c = existing.And(c)
	}
	h.Fields[name] = c
}

// UnmarshalJSON decodes an update payload. {"set": v} is a plain assignment;
// {"increment": n} and friends become NumberOp.
func (d *Data) UnmarshalJSON(data []byte) error {
	members, err := decodeObject(data)
	if err != nil {
		return invalidJSON("data: %v", err)
	}
	out := make(Data, len(members))
	for _, m := range members {
		if firstByte(m.Value) == '{' {
			inner, err := decodeObject(m.Value)
			if err != nil {
				return invalidJSON("data %q: %v", m.Key, err)
			}
			if len(inner) != 1 {
				return invalidJSON("data %q: expected exactly one operation", m.Key)
			}
			v, err := decodeValue(inner[0].Value)
			if err != nil {
				return invalidJSON("data %q: %v", m.Key, err)
			}
			switch inner[0].Key {
			case "set":
				out[m.Key] = v
			case "increment", "decrement", "multiply", "divide":
				out[m.Key] = NumberOp{Op: inner[0].Key, Value: v}
			default:
				return invalidJSON("data %q: unknown operation %q", m.Key, inner[0].Key)
			}
			continue
		}
		v, err := decodeValue(m.Value)
		if err != nil {
			return invalidJSON("data %q: %v", m.Key, err)
		}
		out[m.Key] = v
	}
	*d = out
	return nil
}

// MarshalJSON flattens the grouping keys next to the aggregates.
func (r GroupRow) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Keys)+5)
	for k, v := range r.Keys {
		out[k] = v
	}
	if r.Count != nil {
		out[string(AggCount)] = r.Count
	}
	if r.Avg != nil {
		out[string(AggAvg)] = r.Avg
	}
	if r.Sum != nil {
		out[string(AggSum)] = r.Sum
	}
	if r.Min != nil {
		out[string(AggMin)] = r.Min
	}
	if r.Max != nil {
		out[string(AggMax)] = r.Max
	}
	return json.Marshal(out)
}
