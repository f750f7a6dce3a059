package keyset

import (
	"fmt"

	"gorm.io/gorm/clause"
)

// Place is a position in an ordered result set: the values of the ordering
// keys of one row, in ordering key order.
type Place []any

// boundaryFunc builds the condition restricting a query to rows strictly
// past place.
type boundaryFunc func(keys []*OrderingKey, place Place) (clause.Expression, error)

// BoundaryPredicate builds the row value comparison "(row...) > (place...)"
// selecting rows strictly past place in the order of keys. Ascending keys
// contribute (column, value), descending ones (value, column), so a single
// ">" serves mixed directions.
func BoundaryPredicate(keys []*OrderingKey, place Place) (clause.Expression, error) {
	if err := checkPlace(keys, place); err != nil {
		return nil, err
	}

	rows := make([]Expr, 0, len(keys))
	places := make([]Expr, 0, len(keys))
	for i, k := range keys {
		row, value, err := k.pairForComparison(place[i])
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
		places = append(places, value)
	}

	if len(keys) == 1 {
		return Compare(rows[0], OperatorGT, places[0]), nil
	}

	return Compare(TupleOf(rows...), OperatorGT, TupleOf(places...)), nil
}

// ExpandedBoundaryPredicate builds the same condition as BoundaryPredicate
// without row values:
//
//	(C1 O1 V1) OR (C1 = V1 AND C2 O2 V2) OR ...
//
// where On is ">" for ascending keys and "<" for descending ones.
func ExpandedBoundaryPredicate(keys []*OrderingKey, place Place) (clause.Expression, error) {
	if err := checkPlace(keys, place); err != nil {
		return nil, err
	}

	dnf, err := toDNF(keys, place)
	if err != nil {
		return nil, err
	}

	return dnf.toGORMExpression(), nil
}

func checkPlace(keys []*OrderingKey, place Place) error {
	if len(keys) == 0 {
		return fmt.Errorf("%w: ordering is empty", ErrInvalidPage)
	}
	if len(keys) != len(place) {
		return fmt.Errorf("%w: bookmark has %d values, ordering has %d keys", ErrInvalidPage, len(place), len(keys))
	}

	return nil
}
