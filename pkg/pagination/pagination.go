package pagination

// Meta describes a page within a filtered result set.
type Meta struct {
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// Offset returns the number of rows to skip for a 1-based page.
func Offset(page, size int) int {
	if page < 1 {
		return 0
	}
	return (page - 1) * size
}

// New builds Meta for total rows. An empty set still reports one page.
func New(total, page, size int) Meta {
	pages := 1
	if size > 0 && total > 0 {
		pages = (total + size - 1) / size
	}
	return Meta{
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: pages,
		HasNext:    page < pages,
		HasPrev:    page > 1,
	}
}
