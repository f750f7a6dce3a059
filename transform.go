package keyset

import (
	"fmt"

	"github.com/samber/lo"
)

// Transformation is a plan rewritten for keyset paging.
type Transformation struct {
	// Plan is the rewritten plan: resolved ORDER BY, synthetic columns
	// appended and, when paging from a place, the boundary condition.
	Plan Plan
	// Keys tells how to read each ordering value from the rows of Plan.
	Keys []ResolvedKey
	// Extra lists the synthetic columns appended to every row; they come
	// last and are trimmed from the page.
	Extra []*Label
}

type transformOptions struct {
	boundary boundaryFunc
}

// TransformOption configures Transform.
type TransformOption func(*transformOptions)

// WithExpandedPredicate makes the boundary condition an OR of ANDs instead
// of a row value comparison, for dialects without row values.
func WithExpandedPredicate() TransformOption {
	return func(o *transformOptions) {
		o.boundary = ExpandedBoundaryPredicate
	}
}

// Transform rewrites plan for paging by keys. With a non-empty place the
// result only selects rows strictly past it.
func Transform(plan Plan, keys []*OrderingKey, place Place, opts ...TransformOption) (*Transformation, error) {
	o := transformOptions{boundary: BoundaryPredicate}
	for _, opt := range opts {
		opt(&o)
	}

	return transform(plan, keys, place, o.boundary)
}

func transform(plan Plan, keys []*OrderingKey, place Place, boundary boundaryFunc) (*Transformation, error) {
	switch p := plan.(type) {
	case *Select:
		return transformSelect(p, keys, place, boundary)
	case *Union:
		return transformUnion(p, keys, place, boundary)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedPlan, plan)
	}
}

func transformSelect(sel *Select, keys []*OrderingKey, place Place, boundary boundaryFunc) (*Transformation, error) {
	resolved := make([]ResolvedKey, 0, len(keys))
	for _, k := range keys {
		resolved = append(resolved, resolve(k, sel.Outputs(), false))
	}
	extra := extraColumns(resolved)

	out := sel.OrderBy(orderClauses(resolved)...).AddColumns(Exprs(labelsAsExprs(extra)...)...)

	out, err := addBoundary(out, keys, place, boundary)
	if err != nil {
		return nil, err
	}

	return &Transformation{Plan: out, Keys: resolved, Extra: extra}, nil
}

func transformUnion(u *Union, keys []*OrderingKey, place Place, boundary boundaryFunc) (*Transformation, error) {
	resolved := make([]ResolvedKey, 0, len(keys))
	for _, k := range keys {
		resolved = append(resolved, resolveCompound(k, u.Branches()))
	}
	extra := extraColumns(resolved)

	branches := make([]*Select, 0, len(u.Branches()))
	for _, b := range u.Branches() {
		branch, err := addBoundary(b.AddColumns(Exprs(labelsAsExprs(extra)...)...), keys, place, boundary)
		if err != nil {
			return nil, err
		}

		branches = append(branches, branch)
	}

	out := u.WithBranches(branches...).OrderBy(orderClauses(resolved)...)

	return &Transformation{Plan: out, Keys: resolved, Extra: extra}, nil
}

// addBoundary attaches the boundary condition to HAVING for grouped
// selects and to WHERE otherwise. Keys are resolved again against sel with
// labels stripped, since neither clause can refer to output labels.
func addBoundary(sel *Select, keys []*OrderingKey, place Place, boundary boundaryFunc) (*Select, error) {
	if len(place) == 0 {
		return sel, nil
	}

	boundaryKeys := make([]*OrderingKey, 0, len(keys))
	for _, k := range keys {
		boundaryKeys = append(boundaryKeys, resolve(k, sel.Outputs(), true).Key())
	}

	cond, err := boundary(boundaryKeys, place)
	if err != nil {
		return nil, err
	}

	if sel.Grouped() {
		return sel.Having(cond), nil
	}

	return sel.Where(cond), nil
}

func extraColumns(keys []ResolvedKey) []*Label {
	return lo.FilterMap(keys, func(k ResolvedKey, _ int) (*Label, bool) {
		c := k.ExtraColumn()
		return c, c != nil
	})
}

func orderClauses(keys []ResolvedKey) []Expr {
	return lo.Map(keys, func(k ResolvedKey, _ int) Expr {
		return k.OrderClause()
	})
}

func labelsAsExprs(labels []*Label) []Expr {
	return lo.Map(labels, func(l *Label, _ int) Expr {
		return l
	})
}
