package navigate

import (
	"github.com/mih97/qcnav-linebot-go/internal/category"
	"github.com/mih97/qcnav-linebot-go/internal/docref"
)

// DefaultPageSize is the number of recommendations revealed per page.
const DefaultPageSize = 3

// Recommendation is one ranked document suggestion.
type Recommendation struct {
	Ref       docref.Ref
	Title     string
	Equipment string
	Category  category.Category
	Score     float64
}

// Pagination captures a ranked recommendation list once and serves fixed-size
// windows over it. The captured order is final: paging never re-runs the
// search or re-sorts, so ranks stay stable across "show more" requests.
type Pagination struct {
	items    []Recommendation
	pageSize int
}

// NewPagination captures a ranked list. pageSize <= 0 falls back to
// DefaultPageSize.
func NewPagination(items []Recommendation, pageSize int) *Pagination {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Pagination{items: items, pageSize: pageSize}
}

// Page returns the half-open window [index*pageSize, (index+1)*pageSize).
// Out-of-range indexes yield an empty page.
func (p *Pagination) Page(index int) []Recommendation {
	if index < 0 {
		return nil
	}
	start := index * p.pageSize
	if start >= len(p.items) {
		return nil
	}
	end := start + p.pageSize
	if end > len(p.items) {
		end = len(p.items)
	}
	return p.items[start:end]
}

// HasMore reports whether any items remain after the given page.
func (p *Pagination) HasMore(index int) bool {
	if index < 0 {
		return len(p.items) > 0
	}
	return (index+1)*p.pageSize < len(p.items)
}

// GlobalRank returns the 1-based rank of item i on the given page.
func (p *Pagination) GlobalRank(pageIndex, i int) int {
	return pageIndex*p.pageSize + i + 1
}

// Len returns the total number of captured recommendations.
func (p *Pagination) Len() int {
	return len(p.items)
}

// PageSize returns the configured page size.
func (p *Pagination) PageSize() int {
	return p.pageSize
}
