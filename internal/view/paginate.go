package view

// Paginator tracks the page cursor for both pagination modes.
type Paginator struct {
	Mode     Mode
	PageSize int
	Cursor   int
}

// NewPaginator returns a paginator positioned on the first page.
func NewPaginator(mode Mode, pageSize int) Paginator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return Paginator{Mode: mode, PageSize: pageSize, Cursor: 1}
}

// TotalPages returns ceil(total / PageSize).
func (p *Paginator) TotalPages(total int) int {
	if total <= 0 || p.PageSize <= 0 {
		return 0
	}
	return (total + p.PageSize - 1) / p.PageSize
}

// HasMore reports whether a cumulative view can reveal another page.
// It is always false in ModePaged.
func (p *Paginator) HasMore(total int) bool {
	return p.Mode == ModeCumulative && p.Cursor*p.PageSize < total
}

// GoTo moves to page if it is within [1, totalPages]. Out-of-range pages
// leave the cursor untouched.
func (p *Paginator) GoTo(page, totalPages int) bool {
	if page < 1 || page > totalPages {
		return false
	}
	p.Cursor = page
	return true
}

// Grow reveals one more page in ModeCumulative when more records remain.
func (p *Paginator) Grow(total int) bool {
	if !p.HasMore(total) {
		return false
	}
	p.Cursor++
	return true
}

// Reset moves back to the first page.
func (p *Paginator) Reset() { p.Cursor = 1 }

// SetMode switches mode and resets the cursor.
func (p *Paginator) SetMode(m Mode) {
	p.Mode = m
	p.Reset()
}

// SetPageSize changes the page size and resets the cursor. Sizes <= 0 are
// rejected.
func (p *Paginator) SetPageSize(n int) bool {
	if n <= 0 {
		return false
	}
	p.PageSize = n
	p.Reset()
	return true
}

// Clamp pulls a paged cursor back into [1, max(1, totalPages)].
func (p *Paginator) Clamp(total int) {
	if p.Cursor < 1 {
		p.Cursor = 1
	}
	if p.Mode != ModePaged {
		return
	}
	if last := max(1, p.TotalPages(total)); p.Cursor > last {
		p.Cursor = last
	}
}

// Window returns the [start, end) bounds of the visible slice of total
// sorted records.
func (p *Paginator) Window(total int) (start, end int) {
	if total <= 0 {
		return 0, 0
	}
	if p.Mode == ModeCumulative {
		return 0, min(p.Cursor*p.PageSize, total)
	}
	start = min((p.Cursor-1)*p.PageSize, total)
	end = min(start+p.PageSize, total)
	return start, end
}

// PageLinks lists the page numbers a pagination bar shows around current.
// Zero marks an ellipsis. With five pages or fewer every page is listed;
// otherwise the first three pages, an ellipsis and the last two pages are
// shown, with current spliced in when it falls inside the gap.
func PageLinks(current, total int) []int {
	if total <= 0 {
		return nil
	}
	if total <= 5 {
		out := make([]int, total)
		for i := range out {
			out[i] = i + 1
		}
		return out
	}
	out := []int{1, 2, 3}
	if current > 3 && current < total-1 {
		if current > 4 {
			out = append(out, 0)
		}
		out = append(out, current)
		if current < total-2 {
			out = append(out, 0)
		}
	} else {
		out = append(out, 0)
	}
	return append(out, total-1, total)
}
