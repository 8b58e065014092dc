package utils

import (
	"net/http"
	"strconv"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PaginationParams is a validated page request. Offset is derived from
// Page and PageSize.
type PaginationParams struct {
	Page     int
	PageSize int
	Offset   int
}

// PaginatedResponse is one page of T plus the totals a client needs to
// fetch the rest
type PaginatedResponse[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// ParsePaginationParams reads page and page_size from the query string.
// Missing or malformed values fall back to the first page of DefaultPageSize.
func ParsePaginationParams(r *http.Request) PaginationParams {
	q := r.URL.Query()

	page := queryInt(q.Get("page"))
	if page < 1 {
		page = 1
	}
	size := queryInt(q.Get("page_size"))
	switch {
	case size < 1:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}

	return PaginationParams{Page: page, PageSize: size, Offset: (page - 1) * size}
}

// Window returns the [start, end) bounds of this page within total items
func (p PaginationParams) Window(total int) (start, end int) {
	start = min(p.Offset, total)
	end = min(start+p.PageSize, total)
	return start, end
}

// Slice returns the part of items on this page
func Slice[T any](items []T, p PaginationParams) []T {
	start, end := p.Window(len(items))
	return items[start:end]
}

func NewPaginatedResponse[T any](data []T, p PaginationParams, totalItems int) PaginatedResponse[T] {
	pages := 0
	if p.PageSize > 0 {
		pages = (totalItems + p.PageSize - 1) / p.PageSize
	}
	if data == nil {
		data = []T{}
	}
	return PaginatedResponse[T]{
		Data:       data,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalItems: int64(totalItems),
		TotalPages: pages,
	}
}

// queryInt returns 0 for empty or malformed values
func queryInt(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}
