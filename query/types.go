// Package query describes listing queries as plain values. The feed assembler
// builds a Spec and the datastore compiles it to SQL, so neither side depends on
// the other's query builder.
package query

// Field names a logical column of the listed entity
type Field string

const (
	Id          Field = "id"
	Timestamp   Field = "timestamp"
	AuthorId    Field = "author_id"
	RecipientId Field = "recipient_id"
)

// Condition is a single predicate of a Spec
type Condition interface {
	condition()
}

// Equal matches rows where Field = Value
type Equal struct {
	Field Field
	Value any
}

// FollowedBy matches rows authored by someone FollowerId follows
type FollowedBy struct {
	FollowerId int64
}

// Or matches rows satisfying any of its conditions
type Or []Condition

func (Equal) condition()      {}
func (FollowedBy) condition() {}
func (Or) condition()         {}

// Order is one ORDER BY term
type Order struct {
	Field Field
	Desc  bool
}

// Spec is a filtered, ordered, offset-paginated listing. Conditions are ANDed.
// A zero Limit means no limit.
type Spec struct {
	Where   []Condition
	OrderBy []Order
	Limit   int
	Offset  int
}

// Newest orders by timestamp descending with id as the tie-break, which keeps
// pages stable when rows share a timestamp.
func Newest() []Order {
	return []Order{{Field: Timestamp, Desc: true}, {Field: Id, Desc: true}}
}

// Oldest is the reverse of Newest
func Oldest() []Order {
	return []Order{{Field: Timestamp}, {Field: Id}}
}
