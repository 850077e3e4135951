// Package op defines the match operators shared by the core expression DAG
// and the parameter model (spec §3).
package op

// MatchOperator is one of the five operators a leaf Match expression may
// carry.
type MatchOperator string

const (
	Equals      MatchOperator = "EQUALS"
	GreaterThan MatchOperator = "GREATER_THAN"
	LessThan    MatchOperator = "LESS_THAN"
	Contains    MatchOperator = "CONTAINS"
	IsUnknown   MatchOperator = "IS_UNKNOWN"
)

// Valid reports whether o is a recognized operator.
func (o MatchOperator) Valid() bool {
	switch o {
	case Equals, GreaterThan, LessThan, Contains, IsUnknown:
		return true
	default:
		return false
	}
}

// Ordered reports whether o is one of the range-comparison operators that
// require SupportsLessThanGreaterThan on the target SQL kind.
func (o MatchOperator) Ordered() bool {
	return o == GreaterThan || o == LessThan
}
