package keyset

import (
	"fmt"
	"reflect"
	"strings"

	"gorm.io/gorm/clause"
)

// Expr is a node of an SQL expression tree. Nodes render themselves through
// a gorm clause.Builder, compare structurally and have a textual form used
// for name based matching.
//
// Nodes are immutable: operations that change a node return a copy.
type Expr interface {
	clause.Expression
	fmt.Stringer
	Equal(other Expr) bool
}

// Wrapper is an Expr wrapping exactly one inner element (labels, ordering
// modifiers).
type Wrapper interface {
	Expr
	// Unwrap returns the inner element.
	Unwrap() Expr
	// WithElement returns a copy of the wrapper around elem.
	WithElement(elem Expr) Expr
}

// Modified is a Wrapper carrying an ordering modifier.
type Modified interface {
	Wrapper
	Modifier() Modifier
}

// Nullable is implemented by expressions that know whether they may
// evaluate to NULL.
type Nullable interface {
	IsNullable() bool
}

// Binder is implemented by expressions with a custom value binding. Bookmark
// values are passed through BindValue before they are compared against the
// expression.
type Binder interface {
	BindValue(v any) (any, error)
}

// Column is a reference to a table column.
type Column struct {
	Table    string
	Name     string
	Nullable bool
	// Bind converts bookmark values before comparison, if set.
	Bind func(v any) (any, error)
}

// Col builds a column reference from "name" or "table.name".
func Col(name string) *Column {
	table, column, ok := strings.Cut(name, ".")
	if !ok {
		return &Column{Name: name}
	}

	return &Column{Table: table, Name: column}
}

// TableCol builds a table qualified column reference.
func TableCol(table, name string) *Column {
	return &Column{Table: table, Name: name}
}

// Build implements clause.Expression.
func (c *Column) Build(builder clause.Builder) {
	builder.WriteQuoted(clause.Column{Table: c.Table, Name: c.Name})
}

func (c *Column) String() string {
	if c.Table == "" {
		return c.Name
	}

	return c.Table + "." + c.Name
}

func (c *Column) Equal(other Expr) bool {
	o, ok := other.(*Column)
	return ok && o.Table == c.Table && o.Name == c.Name
}

// IsNullable implements Nullable.
func (c *Column) IsNullable() bool {
	return c.Nullable
}

// BindValue implements Binder.
func (c *Column) BindValue(v any) (any, error) {
	if c.Bind == nil {
		return v, nil
	}

	return c.Bind(v)
}

// Label is an aliased expression, "elem AS name".
type Label struct {
	Name string
	Elem Expr
}

// As labels e with name.
func As(e Expr, name string) *Label {
	return &Label{Name: name, Elem: e}
}

func (l *Label) Build(builder clause.Builder) {
	l.Elem.Build(builder)
	builder.WriteString(" AS ")
	builder.WriteQuoted(l.Name)
}

// String returns the text of the labelled element.
func (l *Label) String() string {
	return l.Elem.String()
}

func (l *Label) Equal(other Expr) bool {
	o, ok := other.(*Label)
	return ok && o.Name == l.Name && o.Elem.Equal(l.Elem)
}

func (l *Label) Unwrap() Expr {
	return l.Elem
}

func (l *Label) WithElement(elem Expr) Expr {
	return &Label{Name: l.Name, Elem: elem}
}

// LabelRef references a label by its name, as in ORDER BY.
type LabelRef struct {
	Label *Label
}

// Ref references label l.
func Ref(l *Label) *LabelRef {
	return &LabelRef{Label: l}
}

func (r *LabelRef) Build(builder clause.Builder) {
	builder.WriteQuoted(r.Label.Name)
}

func (r *LabelRef) String() string {
	return r.Label.Name
}

func (r *LabelRef) Equal(other Expr) bool {
	o, ok := other.(*LabelRef)
	return ok && o.Label.Equal(r.Label)
}

func (r *LabelRef) Unwrap() Expr {
	return r.Label
}

// WithElement keeps the reference only while the element is still a label.
func (r *LabelRef) WithElement(elem Expr) Expr {
	if l, ok := elem.(*Label); ok {
		return &LabelRef{Label: l}
	}

	return elem
}

// Ordered is an ORDER BY term: an element with an ordering modifier.
type Ordered struct {
	Elem Expr
	Mod  Modifier
}

// Asc orders by e ascending.
func Asc(e Expr) *Ordered { return &Ordered{Elem: e, Mod: ModifierAsc} }

// Desc orders by e descending.
func Desc(e Expr) *Ordered { return &Ordered{Elem: e, Mod: ModifierDesc} }

// NullsFirst and NullsLast attach a NULLS modifier to an ordered term, e.g.
// NullsLast(Desc(col)).
func NullsFirst(e Expr) *Ordered { return &Ordered{Elem: e, Mod: ModifierNullsFirst} }
func NullsLast(e Expr) *Ordered  { return &Ordered{Elem: e, Mod: ModifierNullsLast} }

func (o *Ordered) Build(builder clause.Builder) {
	o.Elem.Build(builder)
	if o.Mod != ModifierNone {
		builder.WriteByte(' ')
		builder.WriteString(o.Mod.String())
	}
}

func (o *Ordered) String() string {
	if o.Mod == ModifierNone {
		return o.Elem.String()
	}

	return o.Elem.String() + " " + o.Mod.String()
}

func (o *Ordered) Equal(other Expr) bool {
	x, ok := other.(*Ordered)
	return ok && x.Mod == o.Mod && x.Elem.Equal(o.Elem)
}

func (o *Ordered) Unwrap() Expr {
	return o.Elem
}

func (o *Ordered) WithElement(elem Expr) Expr {
	return &Ordered{Elem: elem, Mod: o.Mod}
}

func (o *Ordered) Modifier() Modifier {
	return o.Mod
}

// Raw is an arbitrary SQL fragment with "?" placeholders, e.g. "count(*)".
type Raw struct {
	SQL  string
	Vars []any
}

// RawExpr builds a raw SQL expression.
func RawExpr(sql string, vars ...any) *Raw {
	return &Raw{SQL: sql, Vars: vars}
}

func (r *Raw) Build(builder clause.Builder) {
	clause.Expr{SQL: r.SQL, Vars: r.Vars}.Build(builder)
}

func (r *Raw) String() string {
	return r.SQL
}

func (r *Raw) Equal(other Expr) bool {
	o, ok := other.(*Raw)
	return ok && o.SQL == r.SQL && reflect.DeepEqual(o.Vars, r.Vars)
}

// ExprList groups expressions, e.g. a nested ORDER BY specification.
type ExprList struct {
	Elems []Expr
}

// List groups ORDER BY terms; they are flattened when parsed.
func List(elems ...Expr) *ExprList {
	return &ExprList{Elems: elems}
}

func (l *ExprList) Build(builder clause.Builder) {
	buildJoined(builder, l.Elems, ", ")
}

func (l *ExprList) String() string {
	return joinStrings(l.Elems, ", ")
}

func (l *ExprList) Equal(other Expr) bool {
	o, ok := other.(*ExprList)
	return ok && equalExprs(o.Elems, l.Elems)
}

// Tuple is a row value, "(a, b, c)".
type Tuple struct {
	Elems []Expr
}

// TupleOf builds the row value "(a, b, ...)".
func TupleOf(elems ...Expr) *Tuple {
	return &Tuple{Elems: elems}
}

func (t *Tuple) Build(builder clause.Builder) {
	builder.WriteByte('(')
	buildJoined(builder, t.Elems, ", ")
	builder.WriteByte(')')
}

func (t *Tuple) String() string {
	return "(" + joinStrings(t.Elems, ", ") + ")"
}

func (t *Tuple) Equal(other Expr) bool {
	o, ok := other.(*Tuple)
	return ok && equalExprs(o.Elems, t.Elems)
}

// Param is a bound value.
type Param struct {
	Value any
}

func (p *Param) Build(builder clause.Builder) {
	builder.AddVar(builder, p.Value)
}

func (p *Param) String() string {
	return "?"
}

func (p *Param) Equal(other Expr) bool {
	o, ok := other.(*Param)
	return ok && reflect.DeepEqual(o.Value, p.Value)
}

// Comparison is "left op right".
type Comparison struct {
	Left  Expr
	Op    Operator
	Right Expr
}

// Compare builds "left op right".
func Compare(left Expr, op Operator, right Expr) *Comparison {
	return &Comparison{Left: left, Op: op, Right: right}
}

func (c *Comparison) Build(builder clause.Builder) {
	c.Left.Build(builder)
	builder.WriteByte(' ')
	builder.WriteString(string(c.Op))
	builder.WriteByte(' ')
	c.Right.Build(builder)
}

func (c *Comparison) String() string {
	return c.Left.String() + " " + string(c.Op) + " " + c.Right.String()
}

func (c *Comparison) Equal(other Expr) bool {
	o, ok := other.(*Comparison)
	return ok && o.Op == c.Op && o.Left.Equal(c.Left) && o.Right.Equal(c.Right)
}

func buildJoined(builder clause.Builder, exprs []Expr, sep string) {
	for i, e := range exprs {
		if i > 0 {
			builder.WriteString(sep)
		}
		e.Build(builder)
	}
}

func joinStrings(exprs []Expr, sep string) string {
	parts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		parts = append(parts, e.String())
	}

	return strings.Join(parts, sep)
}

func equalExprs(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}

	return true
}

var (
	_ Expr     = (*Column)(nil)
	_ Wrapper  = (*Label)(nil)
	_ Wrapper  = (*LabelRef)(nil)
	_ Modified = (*Ordered)(nil)
	_ Expr     = (*Raw)(nil)
	_ Expr     = (*ExprList)(nil)
	_ Expr     = (*Tuple)(nil)
	_ Expr     = (*Param)(nil)
	_ Expr     = (*Comparison)(nil)
	_ Nullable = (*Column)(nil)
	_ Binder   = (*Column)(nil)
)
