package viewer

import "fmt"

// NavTarget is one pagination control.
type NavTarget struct {
	Page    int  `json:"page"`
	Enabled bool `json:"enabled"`
}

// Pagination holds the navigation affordances for one page.
type Pagination struct {
	Page       int       `json:"page"`
	TotalPages int       `json:"total_pages"`
	Total      int       `json:"total"`
	CanPrev    bool      `json:"can_prev"`
	CanNext    bool      `json:"can_next"`
	StartRow   int       `json:"start_row"`
	EndRow     int       `json:"end_row"`
	First      NavTarget `json:"first"`
	Prev       NavTarget `json:"prev"`
	Next       NavTarget `json:"next"`
	Last       NavTarget `json:"last"`
}

// Paginate derives navigation state. Out-of-range pages are a caller error
// and yield ErrPageOutOfRange; nothing is clamped. An empty report (total 0)
// shows rows 0 ~ 0.
func Paginate(page, totalPages, total, pageSize int) (Pagination, error) {
	if pageSize < 1 || totalPages < 1 || page < 1 || page > totalPages {
		return Pagination{}, fmt.Errorf("paginate page=%d totalPages=%d pageSize=%d: %w",
			page, totalPages, pageSize, ErrPageOutOfRange)
	}

	p := Pagination{
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
		CanPrev:    page > 1,
		CanNext:    page < totalPages,
		StartRow:   (page-1)*pageSize + 1,
		EndRow:     min(page*pageSize, total),
	}
	if total <= 0 {
		p.StartRow, p.EndRow = 0, 0
	}

	p.First = NavTarget{Page: 1, Enabled: p.CanPrev}
	p.Prev = NavTarget{Page: page - 1, Enabled: p.CanPrev}
	p.Next = NavTarget{Page: page + 1, Enabled: p.CanNext}
	p.Last = NavTarget{Page: totalPages, Enabled: p.CanNext}
	return p, nil
}

// Label renders "page P / N (rows S ~ E / T)" with grouped numbers.
func (p Pagination) Label() string {
	return fmt.Sprintf("page %d / %d (rows %s ~ %s / %s)",
		p.Page, p.TotalPages, GroupInt(p.StartRow), GroupInt(p.EndRow), GroupInt(p.Total))
}
