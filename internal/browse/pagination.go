// Package browse holds the view models behind the job board front ends:
// the paginated job list with per-item applied status, and the job detail
// page with its apply flow. They contain no rendering code.
package browse

import (
	"errors"
	"fmt"
)

const (
	// DefaultPageSize is the number of listings per page.
	DefaultPageSize = 10
	// DefaultMaxButtons bounds the numbered page buttons shown at once.
	DefaultMaxButtons = 5
)

// ErrPageOutOfRange is returned by JumpTo for pages outside [1, TotalPages].
var ErrPageOutOfRange = errors.New("page out of range")

// Button is one entry of the pagination bar. Ellipsis entries carry no page.
type Button struct {
	Page     int
	Ellipsis bool
	Active   bool
}

func (b Button) String() string {
	switch {
	case b.Ellipsis:
		return "…"
	case b.Active:
		return fmt.Sprintf("[%d]", b.Page)
	default:
		return fmt.Sprintf("%d", b.Page)
	}
}

// Paginator windows an in-memory sequence of total items. Pages are
// 1-indexed.
type Paginator struct {
	total    int
	pageSize int
	page     int
}

// NewPaginator returns a paginator positioned on page 1. A non-positive
// pageSize falls back to DefaultPageSize.
func NewPaginator(total, pageSize int) *Paginator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if total < 0 {
		total = 0
	}
	return &Paginator{total: total, pageSize: pageSize, page: 1}
}

// Page returns the current page number.
func (p *Paginator) Page() int { return p.page }

// PageSize returns the fixed page size.
func (p *Paginator) PageSize() int { return p.pageSize }

// Total returns the number of items being paginated.
func (p *Paginator) Total() int { return p.total }

// TotalPages is ceil(total / pageSize); zero when there are no items.
func (p *Paginator) TotalPages() int {
	return (p.total + p.pageSize - 1) / p.pageSize
}

// SetTotal changes the item count, keeping the current page when it is
// still valid and clamping it otherwise.
func (p *Paginator) SetTotal(total int) {
	if total < 0 {
		total = 0
	}
	p.total = total
	if last := p.TotalPages(); p.page > last {
		p.page = max(last, 1)
	}
}

// Window returns the half-open index range [start, end) of the current
// page. It never exceeds [0, total].
func (p *Paginator) Window() (start, end int) {
	start = min((p.page-1)*p.pageSize, p.total)
	end = min(p.page*p.pageSize, p.total)
	return start, end
}

// HasPrevious reports whether a previous page exists.
func (p *Paginator) HasPrevious() bool { return p.page > 1 }

// HasNext reports whether a next page exists.
func (p *Paginator) HasNext() bool { return p.page < p.TotalPages() }

// Previous moves back one page. It returns false when already on page 1.
func (p *Paginator) Previous() bool {
	if !p.HasPrevious() {
		return false
	}
	p.page--
	return true
}

// Next moves forward one page. It returns false when on the last page.
func (p *Paginator) Next() bool {
	if !p.HasNext() {
		return false
	}
	p.page++
	return true
}

// JumpTo moves to page n.
func (p *Paginator) JumpTo(n int) error {
	if n < 1 || n > p.TotalPages() {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrPageOutOfRange, n, p.TotalPages())
	}
	p.page = n
	return nil
}

// Buttons computes the pagination bar. At most maxButtons numbered pages
// are shown in a window centered on the current page and clamped to the
// sequence bounds. When the window stops short of page 1 or the last
// page, that page is shown as an anchor with an ellipsis across any gap.
// A single page (or none) produces no buttons.
func (p *Paginator) Buttons(maxButtons int) []Button {
	totalPages := p.TotalPages()
	if totalPages <= 1 {
		return nil
	}
	if maxButtons <= 0 {
		maxButtons = DefaultMaxButtons
	}

	if totalPages <= maxButtons {
		out := make([]Button, 0, totalPages)
		for n := 1; n <= totalPages; n++ {
			out = append(out, p.button(n))
		}
		return out
	}

	start := p.page - maxButtons/2
	end := start + maxButtons - 1
	if start < 1 {
		start, end = 1, maxButtons
	}
	if end > totalPages {
		start, end = totalPages-maxButtons+1, totalPages
	}

	out := make([]Button, 0, maxButtons+4)
	if start > 1 {
		out = append(out, p.button(1))
		if start > 2 {
			out = append(out, Button{Ellipsis: true})
		}
	}
	for n := start; n <= end; n++ {
		out = append(out, p.button(n))
	}
	if end < totalPages {
		if end < totalPages-1 {
			out = append(out, Button{Ellipsis: true})
		}
		out = append(out, p.button(totalPages))
	}
	return out
}

func (p *Paginator) button(n int) Button {
	return Button{Page: n, Active: n == p.page}
}
