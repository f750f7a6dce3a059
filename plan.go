package keyset

import (
	"slices"

	"gorm.io/gorm/clause"
)

// Plan is an immutable query the pager can transform: a *Select or a
// *Union.
type Plan interface {
	clause.Expression
	// Ordering returns the ORDER BY terms of the query.
	Ordering() []Expr
	// Outputs returns the logical outputs of the query.
	Outputs() []Output

	withLimit(n int) Plan
}

// Select is a single SELECT statement. Every builder method returns a new
// *Select; the receiver is never changed.
type Select struct {
	from    clause.Expression
	outputs []Output
	where   []clause.Expression
	groupBy []Expr
	having  []clause.Expression
	orderBy []Expr
	limit   int
}

// NewSelect starts a select of outputs.
func NewSelect(outputs ...Output) *Select {
	return &Select{outputs: outputs, limit: NoLimit}
}

func (s *Select) clone() *Select {
	ret := *s
	ret.outputs = slices.Clone(s.outputs)
	ret.where = slices.Clone(s.where)
	ret.groupBy = slices.Clone(s.groupBy)
	ret.having = slices.Clone(s.having)
	ret.orderBy = slices.Clone(s.orderBy)

	return &ret
}

// From selects from table.
func (s *Select) From(table string) *Select {
	ret := s.clone()
	ret.from = tableRef(table)

	return ret
}

// FromExpr selects from an arbitrary expression, e.g. a join.
func (s *Select) FromExpr(from clause.Expression) *Select {
	ret := s.clone()
	ret.from = from

	return ret
}

// Columns replaces the outputs.
func (s *Select) Columns(outputs ...Output) *Select {
	ret := s.clone()
	ret.outputs = outputs

	return ret
}

// AddColumns appends outputs.
func (s *Select) AddColumns(outputs ...Output) *Select {
	ret := s.clone()
	ret.outputs = append(ret.outputs, outputs...)

	return ret
}

// Where adds conditions joined with AND.
func (s *Select) Where(conds ...clause.Expression) *Select {
	ret := s.clone()
	ret.where = append(ret.where, conds...)

	return ret
}

func (s *Select) GroupBy(exprs ...Expr) *Select {
	ret := s.clone()
	ret.groupBy = append(ret.groupBy, exprs...)

	return ret
}

// Having adds conditions on grouped rows joined with AND.
func (s *Select) Having(conds ...clause.Expression) *Select {
	ret := s.clone()
	ret.having = append(ret.having, conds...)

	return ret
}

// OrderBy replaces the ORDER BY terms.
func (s *Select) OrderBy(exprs ...Expr) *Select {
	ret := s.clone()
	ret.orderBy = exprs

	return ret
}

// Limit sets the maximum number of rows; NoLimit removes it.
func (s *Select) Limit(n int) *Select {
	ret := s.clone()
	ret.limit = n

	return ret
}

// Grouped reports whether the select has a GROUP BY clause.
func (s *Select) Grouped() bool { return len(s.groupBy) > 0 }

func (s *Select) Ordering() []Expr { return s.orderBy }

func (s *Select) Outputs() []Output { return s.outputs }

func (s *Select) withLimit(n int) Plan { return s.Limit(n) }

func (s *Select) Build(builder clause.Builder) {
	s.buildCore(builder)
	buildOrderLimit(builder, s.orderBy, s.limit)
}

// buildCore renders everything but ORDER BY and LIMIT.
func (s *Select) buildCore(builder clause.Builder) {
	builder.WriteString("SELECT ")
	for i, o := range s.outputs {
		if i > 0 {
			builder.WriteString(", ")
		}
		o.Build(builder)
	}

	if s.from != nil {
		builder.WriteString(" FROM ")
		s.from.Build(builder)
	}

	if len(s.where) > 0 {
		builder.WriteString(" WHERE ")
		clause.Where{Exprs: slices.Clone(s.where)}.Build(builder)
	}

	if len(s.groupBy) > 0 {
		builder.WriteString(" GROUP BY ")
		buildJoined(builder, s.groupBy, ", ")
	}

	if len(s.having) > 0 {
		builder.WriteString(" HAVING ")
		clause.Where{Exprs: slices.Clone(s.having)}.Build(builder)
	}
}

type tableRef string

func (t tableRef) Build(builder clause.Builder) {
	builder.WriteQuoted(clause.Table{Name: string(t)})
}

// Union is a compound of selects. Its branches keep no ORDER BY or LIMIT of
// their own.
type Union struct {
	branches []*Select
	all      bool
	orderBy  []Expr
	limit    int
}

// NewUnion combines branches with UNION.
func NewUnion(branches ...*Select) *Union {
	return &Union{branches: branches, limit: NoLimit}
}

// NewUnionAll combines branches with UNION ALL.
func NewUnionAll(branches ...*Select) *Union {
	return &Union{branches: branches, all: true, limit: NoLimit}
}

func (u *Union) clone() *Union {
	ret := *u
	ret.branches = slices.Clone(u.branches)
	ret.orderBy = slices.Clone(u.orderBy)

	return &ret
}

func (u *Union) Branches() []*Select { return u.branches }

// WithBranches replaces the branches.
func (u *Union) WithBranches(branches ...*Select) *Union {
	ret := u.clone()
	ret.branches = branches

	return ret
}

// OrderBy replaces the ORDER BY terms of the compound.
func (u *Union) OrderBy(exprs ...Expr) *Union {
	ret := u.clone()
	ret.orderBy = exprs

	return ret
}

func (u *Union) Limit(n int) *Union {
	ret := u.clone()
	ret.limit = n

	return ret
}

func (u *Union) Ordering() []Expr { return u.orderBy }

// Outputs returns the outputs of the first branch, which name the columns
// of the compound.
func (u *Union) Outputs() []Output {
	if len(u.branches) == 0 {
		return nil
	}

	return u.branches[0].Outputs()
}

func (u *Union) withLimit(n int) Plan { return u.Limit(n) }

func (u *Union) Build(builder clause.Builder) {
	op := " UNION "
	if u.all {
		op = " UNION ALL "
	}

	for i, b := range u.branches {
		if i > 0 {
			builder.WriteString(op)
		}
		b.buildCore(builder)
	}

	buildOrderLimit(builder, u.orderBy, u.limit)
}

func buildOrderLimit(builder clause.Builder, orderBy []Expr, limit int) {
	if len(orderBy) > 0 {
		builder.WriteString(" ORDER BY ")
		for i, x := range orderBy {
			if i > 0 {
				builder.WriteString(", ")
			}
			term, err := orderTerm(x, 0)
			if err != nil {
				_ = builder.AddError(err)
				return
			}
			term.Build(builder)
		}
	}

	if limit != NoLimit {
		builder.WriteByte(' ')
		clause.Limit{Limit: &limit}.Build(builder)
	}
}

// orderTerm replaces labels in an ORDER BY term with references to them.
func orderTerm(x Expr, depth int) (Expr, error) {
	if depth >= maxWrappingDepth {
		return nil, ErrWrappingOverflow
	}

	switch v := x.(type) {
	case *Label:
		return Ref(v), nil
	case *LabelRef:
		return v, nil
	case Wrapper:
		inner, err := orderTerm(v.Unwrap(), depth+1)
		if err != nil {
			return nil, err
		}
		return v.WithElement(inner), nil
	default:
		return x, nil
	}
}

var (
	_ Plan = (*Select)(nil)
	_ Plan = (*Union)(nil)
)
