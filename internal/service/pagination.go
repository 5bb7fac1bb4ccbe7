package service

import "math"

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// PaginationMeta captures pagination metadata returned to API clients.
type PaginationMeta struct {
	Page       int
	PageSize   int
	TotalItems int64
	TotalPages int
}

func normalizePagination(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func buildPaginationMeta(page, pageSize int, total int64) PaginationMeta {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(pageSize)))
		if total > 0 && totalPages == 0 {
			totalPages = 1
		}
	}
	return PaginationMeta{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}
}
