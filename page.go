package keyset

import (
	"slices"

	"github.com/samber/lo"
)

// Page is one page of results.
type Page struct {
	// Rows in fetch order: for backward pages, the reverse of the query's
	// natural order. See NaturalRows.
	Rows []Row
	// Columns names the row cells, synthetic columns excluded.
	Columns []string
	Paging  *Paging
}

// NaturalRows returns the rows in the query's natural order.
func (p *Page) NaturalRows() []Row {
	if p.Paging == nil || !p.Paging.Backwards {
		return p.Rows
	}

	rows := slices.Clone(p.Rows)
	slices.Reverse(rows)

	return rows
}

// Paging describes where a page sits in the result set and how to move
// from it.
type Paging struct {
	PerPage   int
	Backwards bool
	// Place is the place the page was fetched from, empty for the first
	// page.
	Place Place
	// Markers holds the place of every returned row.
	Markers []Place
	// Keys are the ordering keys the page was fetched with (reversed for
	// backward pages).
	Keys []*OrderingKey

	hasFurther bool
}

// HasFurther reports whether more rows follow in the fetch direction.
func (p *Paging) HasFurther() bool { return p.hasFurther }

// HasNext reports whether a page follows in the natural order.
func (p *Paging) HasNext() bool {
	return lo.Ternary(p.Backwards, len(p.Place) > 0, p.hasFurther)
}

// HasPrevious reports whether a page precedes in the natural order.
func (p *Paging) HasPrevious() bool {
	return lo.Ternary(p.Backwards, p.hasFurther, len(p.Place) > 0)
}

// Current is the bookmark this page was fetched with.
func (p *Paging) Current() *Bookmark {
	return &Bookmark{Place: p.Place, Backwards: p.Backwards}
}

// CurrentOpposite pages from the same place in the other direction.
func (p *Paging) CurrentOpposite() *Bookmark {
	return &Bookmark{Place: p.Place, Backwards: !p.Backwards}
}

// Further continues in the fetch direction past the last row.
func (p *Paging) Further() *Bookmark {
	if len(p.Markers) == 0 {
		return p.Current()
	}

	return &Bookmark{Place: p.Markers[len(p.Markers)-1], Backwards: p.Backwards}
}

// Before turns around at the first row.
func (p *Paging) Before() *Bookmark {
	if len(p.Markers) == 0 {
		return p.CurrentOpposite()
	}

	return &Bookmark{Place: p.Markers[0], Backwards: !p.Backwards}
}

// checkBookmarks fails with ErrUnregisteredType when the bookmarks leading
// away from the page cannot be encoded.
func (p *Paging) checkBookmarks() error {
	if len(p.Markers) == 0 {
		return nil
	}

	for _, m := range []Place{p.Markers[0], p.Markers[len(p.Markers)-1]} {
		if _, err := encodePlace(m); err != nil {
			return err
		}
	}

	return nil
}

// Next is the bookmark of the following page in the natural order.
func (p *Paging) Next() *Bookmark {
	return lo.Ternary(p.Backwards, p.Before(), p.Further())
}

// Previous is the bookmark of the preceding page in the natural order.
func (p *Paging) Previous() *Bookmark {
	return lo.Ternary(p.Backwards, p.Further(), p.Before())
}
