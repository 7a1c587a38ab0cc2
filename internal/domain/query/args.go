package query

// Direction is an ordering direction.
type Direction string

const (
	DirAsc  Direction = "asc"
	DirDesc Direction = "desc"
)

// AggregateFunc names an aggregate computed by Aggregate and GroupBy.
type AggregateFunc string

const (
	AggCount AggregateFunc = "_count"
	AggAvg   AggregateFunc = "_avg"
	AggSum   AggregateFunc = "_sum"
	AggMin   AggregateFunc = "_min"
	AggMax   AggregateFunc = "_max"
)

// AllRows is the FieldSet entry that counts rows rather than non-null values.
const AllRows = "_all"

// Order sorts by a field. Aggregate is only meaningful for GroupBy, where it
// orders groups by an aggregate of Field instead of by the field itself.
type Order struct {
	Field     string
	Direction Direction
	Aggregate AggregateFunc
}

// Asc orders by field ascending.
func Asc(field string) Order { return Order{Field: field, Direction: DirAsc} }

// Desc orders by field descending.
func Desc(field string) Order { return Order{Field: field, Direction: DirDesc} }

// Reversed returns the order with its direction flipped.
func (o Order) Reversed() Order {
	if o.Direction == DirDesc {
		o.Direction = DirAsc
	} else {
		o.Direction = DirDesc
	}
	return o
}

// OrderBy is an ordered list of sort keys.
type OrderBy []Order

// FieldSet is a list of field names; JSON accepts ["a","b"] or {"a":true,"b":true}.
type FieldSet []string

// Contains reports whether name is in the set.
func (s FieldSet) Contains(name string) bool {
	for _, f := range s {
		if f == name {
			return true
		}
	}
	return false
}

// Unique identifies exactly one row by its primary key or a unique field.
type Unique map[string]interface{}

// ByID is a Unique on the primary key field "id".
func ByID(id interface{}) Unique { return Unique{"id": id} }

// NumberOp is an atomic numeric update applied in the database.
type NumberOp struct {
	Op    string
	Value interface{}
}

// Increment adds n to the current value.
func Increment(n interface{}) NumberOp { return NumberOp{Op: "increment", Value: n} }

// Decrement subtracts n from the current value.
func Decrement(n interface{}) NumberOp { return NumberOp{Op: "decrement", Value: n} }

// Multiply multiplies the current value by n.
func Multiply(n interface{}) NumberOp { return NumberOp{Op: "multiply", Value: n} }

// Divide divides the current value by n.
func Divide(n interface{}) NumberOp { return NumberOp{Op: "divide", Value: n} }

// Data is a partial update keyed by field name. Values are either plain
// values (nil sets NULL) or NumberOp for numeric fields.
type Data map[string]interface{}

// FindArgs are the arguments of FindFirst, FindMany and relation accessors.
type FindArgs struct {
	Where   Filter  `json:"where"`
	OrderBy OrderBy `json:"orderBy"`
	// Cursor is a Unique marking the row to continue from (inclusive).
	Cursor Unique `json:"cursor"`
	// Take limits the result; a negative value takes from the end of the ordering.
	Take     *int     `json:"take"`
	Skip     int      `json:"skip"`
	Distinct FieldSet `json:"distinct"`
	Select   FieldSet `json:"select"`
	Include  FieldSet `json:"include"`
}

// TakeN returns a pointer for FindArgs.Take.
func TakeN(n int) *int { return &n }

// CountArgs are the arguments of Count and CountFields.
type CountArgs struct {
	Where   Filter  `json:"where"`
	OrderBy OrderBy `json:"orderBy"`
	Cursor  Unique  `json:"cursor"`
	Take    *int    `json:"take"`
	Skip    int     `json:"skip"`
	// Select lists fields whose non-null values are counted; AllRows counts rows.
	Select FieldSet `json:"select"`
}

// Aggregates selects which aggregates to compute per field.
type Aggregates struct {
	Count FieldSet `json:"_count"`
	Avg   FieldSet `json:"_avg"`
	Sum   FieldSet `json:"_sum"`
	Min   FieldSet `json:"_min"`
	Max   FieldSet `json:"_max"`
}

// Empty reports whether no aggregate is requested.
func (a Aggregates) Empty() bool {
	return len(a.Count) == 0 && len(a.Avg) == 0 && len(a.Sum) == 0 && len(a.Min) == 0 && len(a.Max) == 0
}

// AggregateArgs are the arguments of Aggregate.
type AggregateArgs struct {
	Where   Filter  `json:"where"`
	OrderBy OrderBy `json:"orderBy"`
	Cursor  Unique  `json:"cursor"`
	Take    *int    `json:"take"`
	Skip    int     `json:"skip"`
	Aggregates
}

// AggregateResult holds computed aggregates keyed by field name.
type AggregateResult struct {
	Count map[string]int64       `json:"_count,omitempty"`
	Avg   map[string]*float64    `json:"_avg,omitempty"`
	Sum   map[string]interface{} `json:"_sum,omitempty"`
	Min   map[string]interface{} `json:"_min,omitempty"`
	Max   map[string]interface{} `json:"_max,omitempty"`
}

// AggregateCondition filters groups on an aggregate of a field.
type AggregateCondition struct {
	Func      AggregateFunc
	Field     string
	Condition Condition
}

// Having filters groups. Fields may only name grouping fields; Aggregates
// may reference any field compatible with the aggregate function.
type Having struct {
	AND        []Having
	OR         []Having
	NOT        []Having
	Fields     map[string]Condition
	Aggregates []AggregateCondition
}

// IsEmpty reports whether the having clause has no conditions.
func (h Having) IsEmpty() bool {
	return len(h.AND) == 0 && len(h.OR) == 0 && len(h.NOT) == 0 && len(h.Fields) == 0 && len(h.Aggregates) == 0
}

// GroupByArgs are the arguments of GroupBy.
type GroupByArgs struct {
	By      FieldSet `json:"by"`
	Where   Filter   `json:"where"`
	Having  Having   `json:"having"`
	OrderBy OrderBy  `json:"orderBy"`
	Take    *int     `json:"take"`
	Skip    int      `json:"skip"`
	Aggregates
}

// GroupRow is one group: the values of the grouping fields plus aggregates.
type GroupRow struct {
	Keys map[string]interface{}
	AggregateResult
}
