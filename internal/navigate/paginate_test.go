package navigate

import (
	"fmt"
	"testing"

	"github.com/mih97/qcnav-linebot-go/internal/docref"
)

func makeRecommendations(n int) []Recommendation {
	recs := make([]Recommendation, n)
	for i := range recs {
		recs[i] = Recommendation{
			Ref:       docref.Ref{Equipment: "HPLC", Number: fmt.Sprintf("%03d", i+1)},
			Title:     fmt.Sprintf("Doc %d", i+1),
			Equipment: "HPLC",
		}
	}
	return recs
}

func TestPaginationPages(t *testing.T) {
	p := NewPagination(makeRecommendations(7), 3)

	if got := len(p.Page(0)); got != 3 {
		t.Errorf("Page(0) has %d items, want 3", got)
	}
	if got := len(p.Page(1)); got != 3 {
		t.Errorf("Page(1) has %d items, want 3", got)
	}
	if got := len(p.Page(2)); got != 1 {
		t.Errorf("Page(2) has %d items, want 1", got)
	}
	if got := p.Page(3); got != nil {
		t.Errorf("Page(3) = %v, want nil", got)
	}
	if got := p.Page(-1); got != nil {
		t.Errorf("Page(-1) = %v, want nil", got)
	}
}

func TestPaginationGlobalRanksMonotonic(t *testing.T) {
	// 7 recommendations at page size 3 must yield ranks 1-3, 4-6, 7
	p := NewPagination(makeRecommendations(7), 3)

	wantRank := 1
	for page := 0; ; page++ {
		items := p.Page(page)
		if len(items) == 0 {
			break
		}
		for i := range items {
			if got := p.GlobalRank(page, i); got != wantRank {
				t.Errorf("GlobalRank(%d, %d) = %d, want %d", page, i, got, wantRank)
			}
			// Pages never re-sort: item content follows rank
			if items[i].Title != fmt.Sprintf("Doc %d", wantRank) {
				t.Errorf("Page %d item %d = %s, want Doc %d", page, i, items[i].Title, wantRank)
			}
			wantRank++
		}
	}
	if wantRank != 8 {
		t.Errorf("Visited %d items, want 7", wantRank-1)
	}
}

func TestPaginationHasMore(t *testing.T) {
	p := NewPagination(makeRecommendations(7), 3)

	if !p.HasMore(0) {
		t.Error("HasMore(0) = false, want true")
	}
	if !p.HasMore(1) {
		t.Error("HasMore(1) = false, want true")
	}
	if p.HasMore(2) {
		t.Error("HasMore(2) = true, want false")
	}
}

func TestPaginationExactMultiple(t *testing.T) {
	p := NewPagination(makeRecommendations(6), 3)

	if p.HasMore(1) {
		t.Error("HasMore(1) = true for 6 items at size 3, want false")
	}
	if got := p.Page(2); got != nil {
		t.Errorf("Page(2) = %v, want nil", got)
	}
}

func TestPaginationDefaults(t *testing.T) {
	p := NewPagination(makeRecommendations(4), 0)
	if p.PageSize() != DefaultPageSize {
		t.Errorf("PageSize() = %d, want %d", p.PageSize(), DefaultPageSize)
	}
}

func TestPaginationEmpty(t *testing.T) {
	p := NewPagination(nil, 3)
	if p.Len() != 0 {
		t.Errorf("Len() = %d, want 0", p.Len())
	}
	if got := p.Page(0); got != nil {
		t.Errorf("Page(0) = %v, want nil", got)
	}
	if p.HasMore(0) {
		t.Error("HasMore(0) = true for empty list")
	}
}
