package keyset

import (
	"context"
	"fmt"
	"sync/atomic"
)

// syntheticPrefix names the columns appended to a query to carry ordering
// values that are not otherwise selected.
const syntheticPrefix = "_keyset_oc_"

var syntheticSeq atomic.Uint64

func nextSyntheticName() string {
	return fmt.Sprintf("%s%d", syntheticPrefix, syntheticSeq.Add(1))
}

// ResolvedKey tells how the value of an ordering key is recovered from a
// result row. Implementations: *DirectKey, *AttributeKey, *AppendedKey.
type ResolvedKey interface {
	// Key returns the ordering key.
	Key() *OrderingKey
	// OrderClause returns the ORDER BY term for the transformed query.
	OrderClause() Expr
	// ExtraColumn returns the column that must be appended to the query,
	// nil if the value is already selected.
	ExtraColumn() *Label
	// ValueFrom extracts the ordering value from a result row.
	ValueFrom(row Row) (any, error)

	resolved()
}

// DirectKey is an ordering key selected as-is at output position Index.
type DirectKey struct {
	key   *OrderingKey
	Index int
}

func (d *DirectKey) Key() *OrderingKey   { return d.key }
func (d *DirectKey) OrderClause() Expr   { return d.key.Expr() }
func (d *DirectKey) ExtraColumn() *Label { return nil }
func (d *DirectKey) resolved()           {}

func (d *DirectKey) ValueFrom(row Row) (any, error) {
	return row.At(d.Index)
}

// AttributeKey is an ordering key read as attribute Attr of the composite
// cell (bundle record or model) at output position Index.
type AttributeKey struct {
	key    *OrderingKey
	Index  int
	Attr   string
	entity *Entity
}

func (a *AttributeKey) Key() *OrderingKey   { return a.key }
func (a *AttributeKey) OrderClause() Expr   { return a.key.Expr() }
func (a *AttributeKey) ExtraColumn() *Label { return nil }
func (a *AttributeKey) resolved()           {}

func (a *AttributeKey) ValueFrom(row Row) (any, error) {
	cell, err := row.At(a.Index)
	if err != nil {
		return nil, err
	}

	if rec, ok := cell.(Record); ok {
		v, ok := rec[a.Attr]
		if !ok {
			return nil, fmt.Errorf("bundle at position %d has no attribute '%s'", a.Index, a.Attr)
		}
		return v, nil
	}

	if a.entity == nil {
		return nil, fmt.Errorf("cannot read attribute '%s' from %T at position %d", a.Attr, cell, a.Index)
	}

	return a.entity.attribute(context.Background(), cell, a.Attr)
}

// AppendedKey is an ordering key whose value is not selected by the query;
// it is carried by an extra synthetic column.
type AppendedKey struct {
	key    *OrderingKey
	Name   string
	column *Label
}

func newAppendedKey(key *OrderingKey) *AppendedKey {
	name := nextSyntheticName()

	return &AppendedKey{
		key:    key,
		Name:   name,
		column: As(key.Comparable(), name),
	}
}

func (a *AppendedKey) Key() *OrderingKey { return a.key }

// OrderClause references the synthetic column, descending if the key is.
func (a *AppendedKey) OrderClause() Expr {
	ref := Ref(a.column)
	if !a.key.IsAscending() {
		return Desc(ref)
	}

	return ref
}

func (a *AppendedKey) ExtraColumn() *Label { return a.column }
func (a *AppendedKey) resolved()           {}

func (a *AppendedKey) ValueFrom(row Row) (any, error) {
	return row.Get(a.Name)
}

// Resolve finds how the value of key can be read from rows with the given
// outputs. It never fails: an unmatched key resolves to an *AppendedKey.
func Resolve(key *OrderingKey, outputs []Output) ResolvedKey {
	return resolve(key, outputs, false)
}

// resolve tries every output position in turn and, for each, the match
// rules in fixed order. With stripLabel, keys matched through a label of an
// output are rebuilt from the labelled element so they can be used outside
// the select list.
func resolve(key *OrderingKey, outputs []Output, stripLabel bool) ResolvedKey {
	for i, out := range outputs {
		if rk := resolveAt(key, i, out, stripLabel); rk != nil {
			return rk
		}
	}

	return newAppendedKey(key)
}

// resolveCompound resolves key against the branches of a compound query.
// The index of a match is its position inside the matching branch.
func resolveCompound(key *OrderingKey, branches []*Select) ResolvedKey {
	for _, b := range branches {
		for i, out := range b.Outputs() {
			if rk := resolveAt(key, i, out, false); rk != nil {
				return rk
			}
		}
	}

	return newAppendedKey(key)
}

func resolveAt(key *OrderingKey, i int, out Output, stripLabel bool) ResolvedKey {
	for _, match := range matchers {
		if rk := match(key, i, out, stripLabel); rk != nil {
			return rk
		}
	}

	return nil
}

type matcher func(key *OrderingKey, i int, out Output, stripLabel bool) ResolvedKey

var matchers = []matcher{
	matchExpr,
	matchBundle,
	matchEntity,
	matchAttribute,
	matchText,
	matchLabel,
}

func matchExpr(key *OrderingKey, i int, out Output, _ bool) ResolvedKey {
	o, ok := out.(*ExprOutput)
	if !ok {
		return nil
	}

	x, err := stripLabels(o.Expr)
	if err != nil || !x.Equal(key.Comparable()) {
		return nil
	}

	return &DirectKey{key: key, Index: i}
}

func matchBundle(key *OrderingKey, i int, out Output, _ bool) ResolvedKey {
	o, ok := out.(*BundleOutput)
	if !ok {
		return nil
	}

	for _, c := range o.Columns {
		x, err := stripLabels(c.Expr)
		if err == nil && x.Equal(key.Comparable()) {
			return &AttributeKey{key: key, Index: i, Attr: c.Key}
		}
	}

	return nil
}

func matchEntity(key *OrderingKey, i int, out Output, _ bool) ResolvedKey {
	o, ok := out.(*EntityOutput)
	if !ok {
		return nil
	}

	c, ok := key.Comparable().(*Column)
	if !ok {
		return nil
	}

	f := o.Entity.fieldForColumn(c)
	if f == nil {
		return nil
	}

	return &AttributeKey{key: key, Index: i, Attr: f.Name, entity: o.Entity}
}

func matchAttribute(key *OrderingKey, i int, out Output, _ bool) ResolvedKey {
	o, ok := out.(*AttributeOutput)
	if !ok {
		return nil
	}

	table, name := o.qualifiedName()
	if table != key.Table() || name != key.Name() {
		return nil
	}

	return &DirectKey{key: key, Index: i}
}

func matchText(key *OrderingKey, i int, out Output, _ bool) ResolvedKey {
	var text string
	switch o := out.(type) {
	case *ExprOutput:
		text = o.Expr.String()
	case *AttributeOutput:
		table, name := o.qualifiedName()
		text = table + "." + name
	default:
		return nil
	}

	if text == "" || text != key.quotedFullName() {
		return nil
	}

	return &DirectKey{key: key, Index: i}
}

func matchLabel(key *OrderingKey, i int, out Output, stripLabel bool) ResolvedKey {
	o, ok := out.(*ExprOutput)
	if !ok {
		return nil
	}

	l, ok := o.Expr.(*Label)
	if !ok || l.Name != key.Name() {
		return nil
	}

	c, ok := l.Elem.(*Column)
	if !ok || c.Table == "" {
		return nil
	}

	if !stripLabel {
		return &DirectKey{key: key, Index: i}
	}

	rebuilt, err := newOrderingKey(&Ordered{Elem: c, Mod: key.Direction().modifier()}, noWarn)
	if err != nil {
		return nil
	}

	return &DirectKey{key: rebuilt, Index: i}
}

var (
	_ ResolvedKey = (*DirectKey)(nil)
	_ ResolvedKey = (*AttributeKey)(nil)
	_ ResolvedKey = (*AppendedKey)(nil)
)
