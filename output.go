package keyset

import (
	"gorm.io/gorm/clause"
)

// Output describes one logical output of a select. An output may span
// several physical columns (bundles and entities); its row cell is
// assembled by the executor.
type Output interface {
	clause.Expression
	// Name is the logical column name of the output in a Row.
	Name() string
	// width is the number of physical columns the output renders.
	width() int
}

// Record is the row cell of a BundleOutput keyed by BundleColumn.Key.
type Record map[string]any

// ExprOutput selects a bare expression.
type ExprOutput struct {
	Expr Expr
}

func (o *ExprOutput) Build(builder clause.Builder) { o.Expr.Build(builder) }

func (o *ExprOutput) Name() string {
	switch v := o.Expr.(type) {
	case *Label:
		return v.Name
	case *Column:
		return v.Name
	default:
		return o.Expr.String()
	}
}

func (o *ExprOutput) width() int { return 1 }

// BundleColumn is one sub-column of a BundleOutput.
type BundleColumn struct {
	Key  string
	Expr Expr
}

// BundleOutput selects a group of expressions returned as one Record cell.
type BundleOutput struct {
	Bundle  string
	Columns []BundleColumn
}

// Bundle groups columns under name.
func Bundle(name string, columns ...BundleColumn) *BundleOutput {
	return &BundleOutput{Bundle: name, Columns: columns}
}

func (o *BundleOutput) Build(builder clause.Builder) {
	for i, c := range o.Columns {
		if i > 0 {
			builder.WriteString(", ")
		}
		c.Expr.Build(builder)
	}
}

func (o *BundleOutput) Name() string { return o.Bundle }

func (o *BundleOutput) width() int { return len(o.Columns) }

// EntityOutput selects every mapped column of an entity; its row cell is a
// pointer to a hydrated model.
type EntityOutput struct {
	Entity *Entity
}

func (o *EntityOutput) Build(builder clause.Builder) {
	for i, f := range o.Entity.columns() {
		if i > 0 {
			builder.WriteString(", ")
		}
		builder.WriteQuoted(clause.Column{Table: o.Entity.Table(), Name: f.DBName})
	}
}

func (o *EntityOutput) Name() string { return o.Entity.Name() }

func (o *EntityOutput) width() int { return len(o.Entity.columns()) }

// AttributeOutput selects one mapped attribute of an entity.
type AttributeOutput struct {
	Entity *Entity
	Field  string
}

func (o *AttributeOutput) Build(builder clause.Builder) {
	c := o.Entity.Column(o.Field)
	if c == nil {
		_ = builder.AddError(&unknownFieldError{model: o.Entity.Name(), field: o.Field})
		return
	}
	c.Build(builder)
}

func (o *AttributeOutput) Name() string {
	if c := o.Entity.Column(o.Field); c != nil {
		return c.Name
	}

	return o.Field
}

func (o *AttributeOutput) width() int { return 1 }

// qualifiedName returns the (table, column) pair of the attribute.
func (o *AttributeOutput) qualifiedName() (string, string) {
	return o.Entity.Table(), o.Name()
}

type unknownFieldError struct {
	model string
	field string
}

func (e *unknownFieldError) Error() string {
	return "model '" + e.model + "' has no field '" + e.field + "'"
}

// Exprs wraps expressions into ExprOutputs.
func Exprs(exprs ...Expr) []Output {
	ret := make([]Output, 0, len(exprs))
	for _, e := range exprs {
		ret = append(ret, &ExprOutput{Expr: e})
	}

	return ret
}

func outputsWidth(outputs []Output) int {
	n := 0
	for _, o := range outputs {
		n += o.width()
	}

	return n
}

var (
	_ Output = (*ExprOutput)(nil)
	_ Output = (*BundleOutput)(nil)
	_ Output = (*EntityOutput)(nil)
	_ Output = (*AttributeOutput)(nil)
)
