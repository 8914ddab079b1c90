package dto

// Paginated wraps one page of a list response
type Paginated[T any] struct {
	Count      int64 `json:"count"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
	Results    []T   `json:"results"`
}

// NewPaginated converts items with convert and computes the page count.
func NewPaginated[M, T any](items []M, total int64, page, pageSize int, convert func(*M) T) Paginated[T] {
	results := make([]T, 0, len(items))
	for i := range items {
		results = append(results, convert(&items[i]))
	}

	totalPages := 0
	if pageSize > 0 {
		totalPages = int(total) / pageSize
		if int(total)%pageSize != 0 {
			totalPages++
		}
	}

	return Paginated[T]{
		Count:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		Results:    results,
	}
}
