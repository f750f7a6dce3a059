package keyset

import (
	"gorm.io/gorm/clause"
)

type (
	tConjunct struct {
		Column   Expr
		Value    any
		Operator Operator
	}

	tDisjunct []tConjunct

	// tDNF represents the disjunctive normal form (DNF) of a logical expression.
	// Each disjunct is joined by OR, and each disjunct consists of a list of
	// conjuncts which are joined by AND. A conjunct is the value of
	// Operator(Column, Value).
	//
	// Thus:
	//
	//	DNF = X1 OR X2 ... OR Xn, where Xi = Ai1 AND Ai2 ... AND Aim.
	//	DNF = (A11 AND A12 AND A13) OR (A21 AND A22 AND A23), for n=2, m=3.
	//
	//  Where (A11 AND A12 AND A13), (A21 AND A22 AND A23) are disjuncts and
	//  A11, A12, A13, A21, A22, A23 are conjuncts.
	tDNF []tDisjunct
)

// toDNF expands ordering keys and the values of a place into a DNF:
//
//	[(K1, V1), (K2, V2) ... (Kn, Vn)]
//
// becomes
//
//	(K1 O1 V1) OR (K1 = V1 AND K2 O2 V2) OR ... OR (K1 = V1 AND ... AND Kn On Vn)
//
// which holds exactly for the rows past the place.
func toDNF(keys []*OrderingKey, place Place) (tDNF, error) {
	conjuncts := make([]tConjunct, 0, len(keys))
	for i, k := range keys {
		value, err := k.bindValue(place[i])
		if err != nil {
			return nil, err
		}

		conjuncts = append(conjuncts, tConjunct{
			Column:   k.Comparable(),
			Value:    value,
			Operator: k.Direction().ForOperator(),
		})
	}

	dnf := make(tDNF, 0, len(conjuncts))
	for i := range conjuncts {
		disjunct := make(tDisjunct, 0, i+1)
		for _, previous := range conjuncts[:i] {
			disjunct = append(disjunct, previous.withEqualityCondition())
		}
		disjunct = append(disjunct, conjuncts[i])

		dnf = append(dnf, disjunct)
	}

	return dnf, nil
}

func (c tConjunct) withEqualityCondition() tConjunct {
	return tConjunct{
		Column:   c.Column,
		Value:    c.Value,
		Operator: operatorEq,
	}
}

// toGORMExpression converts a conjunct of the form Operator(Column, Value)
// into an SQL condition "Column Operator ?".
func (c tConjunct) toGORMExpression() clause.Expression {
	return Compare(c.Column, c.Operator, &Param{Value: c.Value})
}

// toGORMExpression converts a disjunct (K1, K2, K3) into a gorm expression
// "K1 AND K2 AND K3" where each Ki is expanded via tConjunct.toGORMExpression.
func (d tDisjunct) toGORMExpression() clause.Expression {
	andExpressions := make([]clause.Expression, 0, len(d))
	for _, conjunct := range d {
		andExpressions = append(andExpressions, conjunct.toGORMExpression())
	}

	if len(andExpressions) == 1 {
		return andExpressions[0]
	} else if len(andExpressions) > 1 {
		return clause.And(andExpressions...)
	}

	return nil
}

// toGORMExpression converts a DNF (tDNF) into a clause.Expression.
// For each disjunct it calls tDisjunct.toGORMExpression and joins disjuncts with OR.
func (d tDNF) toGORMExpression() clause.Expression {
	orExpressions := make([]clause.Expression, 0, len(d))

	for _, disjunct := range d {
		andExpressions := disjunct.toGORMExpression()
		if andExpressions == nil {
			continue
		}

		orExpressions = append(orExpressions, andExpressions)
	}

	if len(orExpressions) == 1 {
		return orExpressions[0]
	} else if len(orExpressions) > 1 {
		return clause.Or(orExpressions...)
	}

	return nil
}
