package query

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"time"
)

// Coerce converts v to the Go type stored in field name: int64, string,
// bool or time.Time. JSON-decoded numbers and RFC 3339 strings are accepted.
// nil passes through unchanged.
func (m *Model) Coerce(name string, v interface{}) (interface{}, error) {
	f, err := m.field(name)
	if err != nil {
		return nil, err
	}
	return f.coerce(v)
}

func (f Field) coerce(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil
		}
		return f.coerce(rv.Elem().Interface())
	}

	switch f.Kind {
	case KindInt:
		switch n := v.(type) {
		case json.Number:
			i, err := n.Int64()
			if err != nil {
				return nil, validationf("field %q expects an integer, got %s", f.Name, n)
			}
			return i, nil
		case float64:
			if n != math.Trunc(n) {
				return nil, validationf("field %q expects an integer, got %v", f.Name, n)
			}
			return int64(n), nil
		case float32:
			return f.coerce(float64(n))
		case string:
			i, err := strconv.ParseInt(n, 10, 64)
			if err != nil {
				return nil, validationf("field %q expects an integer, got %q", f.Name, n)
			}
			return i, nil
		}
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return rv.Int(), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return int64(rv.Uint()), nil
		}
	case KindString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case KindTime:
		switch t := v.(type) {
		case time.Time:
			return t, nil
		case string:
			parsed, err := time.Parse(time.RFC3339Nano, t)
			if err != nil {
				return nil, validationf("field %q expects an RFC 3339 timestamp, got %q", f.Name, t)
			}
			return parsed, nil
		}
	}
	return nil, validationf("field %q expects %s, got %T", f.Name, f.Kind, v)
}

// CoerceList coerces every element of a list value.
func (m *Model) CoerceList(name string, v interface{}) ([]interface{}, error) {
	f, err := m.field(name)
	if err != nil {
		return nil, err
	}
	list, ok := v.([]interface{})
	if !ok {
		return nil, validationf("field %q expects a list, got %T", name, v)
	}
	out := make([]interface{}, len(list))
	for i, item := range list {
		c, err := f.coerce(item)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}
