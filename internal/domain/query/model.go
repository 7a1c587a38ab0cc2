package query

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// FieldKind is the scalar type of a model field.
type FieldKind int

const (
	KindString FieldKind = iota
	KindInt
	KindBool
	KindTime
)

func (k FieldKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	default:
		return "string"
	}
}

// Field describes one scalar column of a model.
type Field struct {
	// Name is the caller-facing name used in filters, ordering and JSON.
	Name     string
	Column   string
	Kind     FieldKind
	Nullable bool
	// Index is the struct field index used for reading and writing values.
	Index []int
}

// Numeric reports whether _avg and _sum apply to the field.
func (f Field) Numeric() bool { return f.Kind == KindInt }

// Orderable reports whether _min and _max apply to the field.
func (f Field) Orderable() bool { return f.Kind != KindBool }

// Model is the metadata of one table: its fields, identity and unique keys.
type Model struct {
	Name  string
	Table string
	// ID is the primary key field name.
	ID string
	// Generated is true when the database assigns the primary key.
	Generated bool
	// CreatedAt and UpdatedAt name the timestamp fields maintained by the
	// data-access layer; empty when the model has none.
	CreatedAt string
	UpdatedAt string
	Unique    []string
	Relations []string

	fields []Field
	byName map[string]int
}

// ModelOptions configures NewModel.
type ModelOptions struct {
	Name      string
	Table     string
	ID        string
	Generated bool
	CreatedAt string
	UpdatedAt string
	Unique    []string
	Relations []string
}

var timeType = reflect.TypeOf(time.Time{})

// NewModel derives a Model from the `json` and `db` tags of struct type T.
// Fields tagged db:"-" are treated as relations and skipped.
func NewModel[T any](opts ModelOptions) *Model {
	var zero T
	t := reflect.TypeOf(zero)
	if t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("query: model %s must be a struct, got %s", opts.Name, t))
	}

	m := &Model{
		Name:      opts.Name,
		Table:     opts.Table,
		ID:        opts.ID,
		Generated: opts.Generated,
		CreatedAt: opts.CreatedAt,
		UpdatedAt: opts.UpdatedAt,
		Unique:    opts.Unique,
		Relations: opts.Relations,
		byName:    make(map[string]int),
	}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		column := sf.Tag.Get("db")
		if column == "" || column == "-" {
			continue
		}
		name := strings.Split(sf.Tag.Get("json"), ",")[0]
		if name == "" {
			name = column
		}

		ft := sf.Type
		nullable := false
		if ft.Kind() == reflect.Ptr {
			nullable = true
			ft = ft.Elem()
		}

		var kind FieldKind
		switch {
		case ft == timeType:
			kind = KindTime
		case ft.Kind() == reflect.String:
			kind = KindString
		case ft.Kind() == reflect.Bool:
			kind = KindBool
		case ft.Kind() >= reflect.Int && ft.Kind() <= reflect.Int64:
			kind = KindInt
		default:
			panic(fmt.Sprintf("query: unsupported field type %s for %s.%s", sf.Type, opts.Name, name))
		}

		m.byName[name] = len(m.fields)
		m.fields = append(m.fields, Field{
			Name:     name,
			Column:   column,
			Kind:     kind,
			Nullable: nullable,
			Index:    sf.Index,
		})
	}

	if _, ok := m.byName[m.ID]; !ok {
		panic(fmt.Sprintf("query: model %s has no id field %q", opts.Name, opts.ID))
	}
	return m
}

// Fields returns the scalar fields in declaration order.
func (m *Model) Fields() []Field {
	return m.fields
}

// Field looks up a field by caller-facing name.
func (m *Model) Field(name string) (Field, bool) {
	i, ok := m.byName[name]
	if !ok {
		return Field{}, false
	}
	return m.fields[i], true
}

// Columns returns every column name in declaration order.
func (m *Model) Columns() []string {
	cols := make([]string, len(m.fields))
	for i, f := range m.fields {
		cols[i] = f.Column
	}
	return cols
}

// IsUnique reports whether name is the primary key or a unique field.
func (m *Model) IsUnique(name string) bool {
	if name == m.ID {
		return true
	}
	for _, u := range m.Unique {
		if u == name {
			return true
		}
	}
	return false
}

// HasRelation reports whether name is a declared relation.
func (m *Model) HasRelation(name string) bool {
	for _, r := range m.Relations {
		if r == name {
			return true
		}
	}
	return false
}

func (m *Model) field(name string) (Field, error) {
	f, ok := m.Field(name)
	if !ok {
		return Field{}, validationf("unknown field %q on %s", name, m.Name)
	}
	return f, nil
}
