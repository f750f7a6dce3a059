package keyset

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Entity is a gorm mapped model that can be selected as a whole
// (EntityOutput) or attribute by attribute (AttributeOutput).
type Entity struct {
	schema *schema.Schema
}

// NewEntity parses model with the default gorm naming strategy.
func NewEntity(model any) (*Entity, error) {
	s, err := schema.Parse(model, &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		return nil, fmt.Errorf("cannot parse model schema: %w", err)
	}

	return &Entity{schema: s}, nil
}

// NewEntityFor parses model with the naming strategy and schema cache of db.
func NewEntityFor(db *gorm.DB, model any) (*Entity, error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return nil, fmt.Errorf("cannot parse model schema: %w", err)
	}

	return &Entity{schema: stmt.Schema}, nil
}

// MustEntity is like NewEntity but panics on error.
func MustEntity(model any) *Entity {
	e, err := NewEntity(model)
	if err != nil {
		panic(err)
	}

	return e
}

func (e *Entity) Schema() *schema.Schema { return e.schema }

// Table returns the table name of the model.
func (e *Entity) Table() string { return e.schema.Table }

// Name returns the Go type name of the model.
func (e *Entity) Name() string { return e.schema.Name }

// Column returns a table qualified column for field, which is either a Go
// field name or a database column name. Primary keys and NOT NULL fields
// are reported as non-nullable. Returns nil for unknown fields.
func (e *Entity) Column(field string) *Column {
	f := e.schema.LookUpField(field)
	if f == nil || f.DBName == "" {
		return nil
	}

	return &Column{
		Table:    e.schema.Table,
		Name:     f.DBName,
		Nullable: !f.NotNull && !f.PrimaryKey,
	}
}

// Attr returns the AttributeOutput selecting field.
func (e *Entity) Attr(field string) *AttributeOutput {
	return &AttributeOutput{Entity: e, Field: field}
}

// columns lists the mapped database fields in declaration order.
func (e *Entity) columns() []*schema.Field {
	ret := make([]*schema.Field, 0, len(e.schema.DBNames))
	for _, name := range e.schema.DBNames {
		ret = append(ret, e.schema.FieldsByDBName[name])
	}

	return ret
}

// fieldForColumn returns the mapped field backing c, if any.
func (e *Entity) fieldForColumn(c *Column) *schema.Field {
	if c.Table != "" && c.Table != e.schema.Table {
		return nil
	}

	return e.schema.FieldsByDBName[c.Name]
}

func (e *Entity) hydrate(ctx context.Context, values []any) (any, error) {
	rv := reflect.New(e.schema.ModelType)
	for i, f := range e.columns() {
		if values[i] == nil {
			continue
		}
		if err := f.Set(ctx, rv.Elem(), values[i]); err != nil {
			return nil, fmt.Errorf("cannot set field '%s' of '%s': %w", f.Name, e.schema.Name, err)
		}
	}

	return rv.Interface(), nil
}

// attribute reads the named field off a hydrated model.
func (e *Entity) attribute(ctx context.Context, model any, field string) (any, error) {
	f := e.schema.LookUpField(field)
	if f == nil {
		return nil, fmt.Errorf("model '%s' has no field '%s'", e.schema.Name, field)
	}

	rv := reflect.ValueOf(model)
	if reflect.Indirect(rv).Type() != e.schema.ModelType {
		return nil, fmt.Errorf("cannot read field '%s': got %T, want %s", field, model, e.schema.ModelType)
	}

	v, _ := f.ValueOf(ctx, rv)

	return v, nil
}

func (e *Entity) Equal(other *Entity) bool {
	return other != nil && other.schema.ModelType == e.schema.ModelType && other.schema.Table == e.schema.Table
}
