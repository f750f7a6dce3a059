package keyset

import (
	"fmt"
	"log/slog"
	"strings"
)

type warnFunc func(msg string, args ...any)

func noWarn(string, ...any) {}

func warnerOf(logger *slog.Logger) warnFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return logger.Warn
}

// OrderingKey is one term of a query's ORDER BY specification, normalized
// so that it always carries a direction.
type OrderingKey struct {
	expr       Expr
	element    Expr
	comparable Expr
	direction  Direction

	fullName string
	table    string
	name     string
}

// NewOrderingKey builds an ordering key from an ORDER BY term. Terms
// without a direction are taken as ascending. Warnings about nullable
// columns and NULLS FIRST/LAST modifiers go to logger (slog.Default() when
// nil).
func NewOrderingKey(x Expr, logger *slog.Logger) (*OrderingKey, error) {
	return newOrderingKey(x, warnerOf(logger))
}

func newOrderingKey(x Expr, warn warnFunc) (*OrderingKey, error) {
	mod, err := orderDirection(x)
	if err != nil {
		return nil, err
	}
	if mod == ModifierNone {
		x = Asc(x)
		mod = ModifierAsc
	}

	element, err := removeOrderDirection(x, warn, 0)
	if err != nil {
		return nil, err
	}
	comparable, err := stripLabels(element)
	if err != nil {
		return nil, err
	}

	if n, ok := comparable.(Nullable); ok && n.IsNullable() {
		warn("ordering by a nullable column can cause rows to be incorrectly omitted from the results",
			"column", comparable.String())
	}

	k := &OrderingKey{
		expr:       x,
		element:    element,
		comparable: comparable,
		direction:  mod.forDirection(),
		fullName:   element.String(),
	}
	if table, name, ok := strings.Cut(k.fullName, "."); ok {
		k.table, k.name = table, name
	} else {
		k.name = k.fullName
	}

	return k, nil
}

// ParseOrdering flattens the ordering specification of plan into ordering
// keys. With backwards every key is reversed; the order of the keys is kept.
func ParseOrdering(plan Plan, backwards bool, logger *slog.Logger) ([]*OrderingKey, error) {
	return parseOrdering(plan, backwards, warnerOf(logger))
}

func parseOrdering(plan Plan, backwards bool, warn warnFunc) ([]*OrderingKey, error) {
	flat, err := flattenOrdering(plan.Ordering(), nil, 0)
	if err != nil {
		return nil, err
	}

	keys := make([]*OrderingKey, 0, len(flat))
	for _, x := range flat {
		k, err := newOrderingKey(x, warn)
		if err != nil {
			return nil, fmt.Errorf("cannot parse ordering term '%s': %w", x, err)
		}

		if backwards {
			k, err = k.Reversed()
			if err != nil {
				return nil, fmt.Errorf("cannot reverse ordering term '%s': %w", x, err)
			}
		}

		keys = append(keys, k)
	}

	return keys, nil
}

func flattenOrdering(exprs []Expr, dst []Expr, depth int) ([]Expr, error) {
	if depth >= maxWrappingDepth {
		return nil, ErrWrappingOverflow
	}

	var err error
	for _, x := range exprs {
		if l, ok := x.(*ExprList); ok {
			dst, err = flattenOrdering(l.Elems, dst, depth+1)
			if err != nil {
				return nil, err
			}
			continue
		}
		dst = append(dst, x)
	}

	return dst, nil
}

// Expr returns the ORDER BY term, always carrying a direction.
func (k *OrderingKey) Expr() Expr { return k.expr }

// Element returns the ordering expression with ordering modifiers removed.
func (k *OrderingKey) Element() Expr { return k.element }

// Comparable returns the element with labels removed, suitable for a row
// value comparison.
func (k *OrderingKey) Comparable() Expr { return k.comparable }

func (k *OrderingKey) Direction() Direction { return k.direction }

func (k *OrderingKey) IsAscending() bool { return k.direction == DirectionASC }

// Table returns the owning relation name parsed from the textual form of
// the element; empty for unqualified expressions.
func (k *OrderingKey) Table() string { return k.table }

// Name returns the unqualified name parsed from the textual form of the
// element.
func (k *OrderingKey) Name() string { return k.name }

// FullName returns the textual form of the element.
func (k *OrderingKey) FullName() string { return k.fullName }

func (k *OrderingKey) String() string { return k.expr.String() }

// quotedFullName is the first token of the ORDER BY term's text.
func (k *OrderingKey) quotedFullName() string {
	fields := strings.Fields(k.expr.String())
	if len(fields) == 0 {
		return ""
	}

	return fields[0]
}

// Equal reports whether both keys hold structurally equal ORDER BY terms.
func (k *OrderingKey) Equal(other *OrderingKey) bool {
	return other != nil && k.expr.Equal(other.expr)
}

// Reversed returns the key ordering in the opposite direction.
func (k *OrderingKey) Reversed() (*OrderingKey, error) {
	x, found, err := reverseOrderDirection(k.expr, 0)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("cannot reverse '%s': %w", k.expr, ErrNoDirection)
	}

	ret := *k
	ret.expr = x
	ret.direction = k.direction.Reversed()

	return &ret, nil
}

// pairForComparison returns (row, place) such that "row > place" holds for
// rows past value in the paging order.
func (k *OrderingKey) pairForComparison(value any) (Expr, Expr, error) {
	value, err := k.bindValue(value)
	if err != nil {
		return nil, nil, err
	}

	param := &Param{Value: value}
	if k.IsAscending() {
		return k.comparable, param, nil
	}

	return param, k.comparable, nil
}

func (k *OrderingKey) bindValue(value any) (any, error) {
	b, ok := k.comparable.(Binder)
	if !ok {
		return value, nil
	}

	bound, err := b.BindValue(value)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot bind value %v for '%s': %v", ErrInvalidPage, value, k.comparable, err)
	}

	return bound, nil
}

// orderDirection finds the ASC/DESC modifier of x, looking through wrapping
// elements. ModifierNone means x has no direction.
func orderDirection(x Expr) (Modifier, error) {
	for range maxWrappingDepth {
		if m, ok := x.(Modified); ok && m.Modifier().IsDirection() {
			return m.Modifier(), nil
		}

		w, ok := x.(Wrapper)
		if !ok {
			return ModifierNone, nil
		}
		x = w.Unwrap()
	}

	return ModifierNone, ErrWrappingOverflow
}

// reverseOrderDirection returns a copy of x with its direction flipped. The
// path from x down to the modifier is rebuilt, x itself is left intact.
func reverseOrderDirection(x Expr, depth int) (Expr, bool, error) {
	if depth >= maxWrappingDepth {
		return nil, false, ErrWrappingOverflow
	}

	if m, ok := x.(Modified); ok && m.Modifier().IsDirection() {
		flipped := ModifierAsc
		if m.Modifier() == ModifierAsc {
			flipped = ModifierDesc
		}
		return &Ordered{Elem: m.Unwrap(), Mod: flipped}, true, nil
	}

	w, ok := x.(Wrapper)
	if !ok {
		return x, false, nil
	}

	inner, found, err := reverseOrderDirection(w.Unwrap(), depth+1)
	if err != nil || !found {
		return x, found, err
	}

	return w.WithElement(inner), true, nil
}

// removeOrderDirection returns a copy of x with every ordering modifier
// removed.
func removeOrderDirection(x Expr, warn warnFunc, depth int) (Expr, error) {
	if depth >= maxWrappingDepth {
		return nil, ErrWrappingOverflow
	}

	if m, ok := x.(Modified); ok && m.Modifier() != ModifierNone {
		if m.Modifier().IsNulls() {
			warn("NULLS FIRST/NULLS LAST ordering is not supported by keyset pagination, the modifier is ignored and results may be wrong",
				"expression", x.String())
		}
		return removeOrderDirection(m.Unwrap(), warn, depth+1)
	}

	w, ok := x.(Wrapper)
	if !ok {
		return x, nil
	}

	inner, err := removeOrderDirection(w.Unwrap(), warn, depth+1)
	if err != nil {
		return nil, err
	}

	return w.WithElement(inner), nil
}

// stripLabels removes labels and label references from the top of x.
func stripLabels(x Expr) (Expr, error) {
	for range maxWrappingDepth {
		switch v := x.(type) {
		case *Label:
			x = v.Elem
		case *LabelRef:
			x = v.Label
		default:
			return x, nil
		}
	}

	return nil, ErrWrappingOverflow
}
