package keyset

import "fmt"

// Operator defines a comparison operator used in page boundary conditions.
type Operator string

const (
	OperatorGT Operator = ">"
	OperatorLT Operator = "<"

	// operatorEq is the equality operator. It is private because we use it
	// ONLY while building expanded boundary conditions.
	operatorEq Operator = "="
)

// Modifier is an ordering modifier attached to an ORDER BY term.
type Modifier int

const (
	ModifierNone Modifier = iota
	ModifierAsc
	ModifierDesc
	ModifierNullsFirst
	ModifierNullsLast
)

func (m Modifier) String() string {
	switch m {
	case ModifierNone:
		return ""
	case ModifierAsc:
		return "ASC"
	case ModifierDesc:
		return "DESC"
	case ModifierNullsFirst:
		return "NULLS FIRST"
	case ModifierNullsLast:
		return "NULLS LAST"
	default:
		return fmt.Sprintf("Modifier(%d)", int(m))
	}
}

// IsDirection reports whether the modifier is ASC or DESC.
func (m Modifier) IsDirection() bool {
	return m == ModifierAsc || m == ModifierDesc
}

// IsNulls reports whether the modifier is NULLS FIRST or NULLS LAST.
func (m Modifier) IsNulls() bool {
	return m == ModifierNullsFirst || m == ModifierNullsLast
}

func (m Modifier) forDirection() Direction {
	switch m {
	case ModifierAsc:
		return DirectionASC
	case ModifierDesc:
		return DirectionDESC
	default:
		panic(fmt.Errorf("cannot map modifier '%s' to direction", m))
	}
}
