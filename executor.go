package keyset

import (
	"context"
	"database/sql"
	"strings"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// Result is the outcome of executing a plan: logical cells per output.
type Result struct {
	Columns []string
	Rows    []Row
}

// Executor runs a plan. The pager calls it exactly once per page.
type Executor interface {
	Execute(ctx context.Context, plan Plan) (*Result, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, plan Plan) (*Result, error)

func (f ExecutorFunc) Execute(ctx context.Context, plan Plan) (*Result, error) {
	return f(ctx, plan)
}

// GormExecutor executes plans on a gorm connection. Identifiers are quoted
// and placeholders bound by the connection's dialector.
type GormExecutor struct {
	db *gorm.DB
}

// NewGormExecutor returns an executor running plans on db.
func NewGormExecutor(db *gorm.DB) *GormExecutor {
	return &GormExecutor{db: db}
}

// Execute implements Executor.
func (e *GormExecutor) Execute(ctx context.Context, plan Plan) (*Result, error) {
	rows, err := e.db.WithContext(ctx).Raw("?", plan).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	text, err := textColumns(rows)
	if err != nil {
		return nil, err
	}

	outputs := plan.Outputs()
	columns := lo.Map(outputs, func(o Output, _ int) string {
		return o.Name()
	})
	width := outputsWidth(outputs)

	ret := &Result{Columns: columns}
	for rows.Next() {
		values := make([]any, width)
		dest := make([]any, width)
		for i := range values {
			dest[i] = &values[i]
		}

		if err = rows.Scan(dest...); err != nil {
			return nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok && i < len(text) && text[i] {
				values[i] = string(b)
			}
		}

		cells, err := assembleCells(ctx, outputs, values)
		if err != nil {
			return nil, err
		}

		ret.Rows = append(ret.Rows, NewRow(columns, cells))
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return ret, nil
}

// textColumns reports for every result column whether its []byte values
// hold text. Some drivers (MySQL) return text columns as raw bytes.
func textColumns(rows *sql.Rows) ([]bool, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	return lo.Map(types, func(t *sql.ColumnType, _ int) bool {
		return !isBinaryType(t.DatabaseTypeName())
	}), nil
}

func isBinaryType(name string) bool {
	name = strings.ToUpper(name)

	return strings.Contains(name, "BLOB") || strings.Contains(name, "BINARY") || name == "BYTEA"
}

// assembleCells groups the physical values of a row into one cell per
// output.
func assembleCells(ctx context.Context, outputs []Output, values []any) ([]any, error) {
	cells := make([]any, 0, len(outputs))

	pos := 0
	for _, o := range outputs {
		part := values[pos : pos+o.width()]
		pos += o.width()

		switch v := o.(type) {
		case *BundleOutput:
			rec := make(Record, len(v.Columns))
			for i, c := range v.Columns {
				rec[c.Key] = part[i]
			}
			cells = append(cells, rec)
		case *EntityOutput:
			model, err := v.Entity.hydrate(ctx, part)
			if err != nil {
				return nil, err
			}
			cells = append(cells, model)
		default:
			cells = append(cells, part[0])
		}
	}

	return cells, nil
}

var (
	_ Executor = (*GormExecutor)(nil)
	_ Executor = ExecutorFunc(nil)
)
