package keyset

import (
	"context"
	"fmt"
	"log/slog"
)

// Pager fetches pages of a plan. The zero value (and nil) fetch the first
// DefaultLimit rows.
//
// Usage:
//
//	page, err := keyset.NewPager().
//		WithPerPage(20).
//		WithBookmark(bookmark).
//		GetPage(ctx, plan, keyset.NewGormExecutor(db))
type Pager struct {
	perPage   int
	place     Place
	backwards bool
	expanded  bool
	logger    *slog.Logger
}

// NewPager creates a pager fetching DefaultLimit rows from the start of the
// result set.
func NewPager() *Pager {
	return &Pager{perPage: DefaultLimit}
}

// WithPerPage sets the page size. NormalizeLimit will be applied.
func (p *Pager) WithPerPage(perPage int) *Pager {
	if p == nil {
		p = NewPager()
	}

	p.perPage = NormalizeLimit(perPage)

	return p
}

// WithPlace sets the place to page from. An empty place starts at the
// beginning (or, backwards, at the end) of the result set.
func (p *Pager) WithPlace(place Place) *Pager {
	if p == nil {
		p = NewPager()
	}

	p.place = place

	return p
}

// WithBackwards pages towards the start of the result set.
func (p *Pager) WithBackwards(backwards bool) *Pager {
	if p == nil {
		p = NewPager()
	}

	p.backwards = backwards

	return p
}

// WithBookmark sets both place and direction from a bookmark. A nil
// bookmark starts at the beginning.
func (p *Pager) WithBookmark(b *Bookmark) *Pager {
	if p == nil {
		p = NewPager()
	}

	if b == nil {
		p.place, p.backwards = nil, false
		return p
	}

	p.place, p.backwards = b.Place, b.Backwards

	return p
}

// WithExpandedBoundary makes the boundary condition an OR of ANDs instead
// of a row value comparison.
//
// IMPORTANT:
// Use it only for dialects without row value comparison support, the
// expanded form is harder to serve from an index.
func (p *Pager) WithExpandedBoundary() *Pager {
	if p == nil {
		p = NewPager()
	}

	p.expanded = true

	return p
}

// WithLogger sets the logger for warnings and page records. Defaults to
// slog.Default().
func (p *Pager) WithLogger(logger *slog.Logger) *Pager {
	if p == nil {
		p = NewPager()
	}

	p.logger = logger

	return p
}

// GetPerPage returns the page size.
func (p *Pager) GetPerPage() int {
	if p == nil {
		return DefaultLimit
	}

	return p.perPage
}

func (p *Pager) validate() error {
	if p == nil {
		return fmt.Errorf("pager is nil")
	}

	if p.perPage <= 0 {
		return fmt.Errorf("invalid page size %d", p.perPage)
	}

	return nil
}

func (p *Pager) log() *slog.Logger {
	if p.logger == nil {
		return slog.Default()
	}

	return p.logger
}

// GetPage fetches one page of plan with a single call to exec.
func (p *Pager) GetPage(ctx context.Context, plan Plan, exec Executor) (*Page, error) {
	if p == nil {
		p = NewPager()
	}

	err := p.validate()
	if err != nil {
		return nil, fmt.Errorf("cannot paginate: %w", err)
	}

	logger := p.log()
	keys, err := parseOrdering(plan, p.backwards, logger.Warn)
	if err != nil {
		return nil, fmt.Errorf("cannot paginate: %w", err)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("cannot paginate: query has no ordering")
	}

	boundary := BoundaryPredicate
	if p.expanded {
		boundary = ExpandedBoundaryPredicate
	}

	tr, err := transform(plan, keys, p.place, boundary)
	if err != nil {
		return nil, fmt.Errorf("cannot paginate: %w", err)
	}

	// Fetch one extra row to find out whether the page is the last one.
	res, err := exec.Execute(ctx, tr.Plan.withLimit(p.perPage+1))
	if err != nil {
		return nil, err
	}

	page, err := assemblePage(res, tr, p.perPage)
	if err != nil {
		return nil, err
	}
	if err = page.Paging.checkBookmarks(); err != nil {
		return nil, fmt.Errorf("cannot paginate: %w", err)
	}
	page.Paging.Place = p.place
	page.Paging.Backwards = p.backwards
	page.Paging.Keys = keys

	logger.DebugContext(ctx, "fetched page",
		"rows", len(page.Rows),
		"per_page", p.perPage,
		"backwards", p.backwards,
		"has_further", page.Paging.HasFurther(),
	)

	return page, nil
}

// GetPage fetches one page of plan from place. perPage is used as-is.
func GetPage(ctx context.Context, plan Plan, perPage int, exec Executor, place Place, backwards bool) (*Page, error) {
	p := &Pager{perPage: perPage, place: place, backwards: backwards}

	return p.GetPage(ctx, plan, exec)
}

// assemblePage extracts the place of every row before the synthetic
// columns are trimmed off.
func assemblePage(res *Result, tr *Transformation, perPage int) (*Page, error) {
	rows := res.Rows
	hasFurther := len(rows) > perPage
	if hasFurther {
		rows = rows[:perPage]
	}

	extra := len(tr.Extra)
	markers := make([]Place, 0, len(rows))
	trimmed := make([]Row, 0, len(rows))
	for _, row := range rows {
		marker := make(Place, 0, len(tr.Keys))
		for _, k := range tr.Keys {
			v, err := k.ValueFrom(row)
			if err != nil {
				return nil, fmt.Errorf("cannot read ordering value of '%s': %w", k.Key(), err)
			}
			marker = append(marker, v)
		}

		markers = append(markers, marker)
		trimmed = append(trimmed, row.trim(extra))
	}

	columns := res.Columns
	if extra > 0 && len(columns) >= extra {
		columns = columns[:len(columns)-extra]
	}

	return &Page{
		Rows:    trimmed,
		Columns: columns,
		Paging: &Paging{
			PerPage:    perPage,
			Markers:    markers,
			hasFurther: hasFurther,
		},
	}, nil
}
